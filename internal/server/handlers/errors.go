package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/kebunku/internal/domain/models"
	"github.com/mamadbah2/kebunku/internal/media/local"
	"github.com/mamadbah2/kebunku/internal/repository"
	"github.com/mamadbah2/kebunku/internal/service/activity"
	"github.com/mamadbah2/kebunku/internal/service/plants"
	"github.com/mamadbah2/kebunku/internal/service/timeline"
)

var badRequestErrors = []error{
	models.ErrCategoryRequired,
	models.ErrVarietyRequired,
	models.ErrUnknownScope,
	models.ErrUnknownType,
	models.ErrUnknownWeather,
	models.ErrUnknownMethod,
	models.ErrMissingPlantID,
	models.ErrMissingTarget,
	models.ErrUnknownTheme,
	plants.ErrSameCategory,
	activity.ErrPlantRequired,
	activity.ErrPlantNotFound,
	activity.ErrTargetRequired,
	activity.ErrScopeMismatch,
	activity.ErrNotImage,
	activity.ErrPhotoTooLarge,
	local.ErrInvalidKey,
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch activity.KindOf(err) {
	case activity.KindValidation:
		return http.StatusBadRequest
	case activity.KindUpload:
		return http.StatusBadGateway
	case activity.KindPersistence:
		return http.StatusServiceUnavailable
	}

	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, activity.ErrSubmissionNotFound),
		errors.Is(err, local.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, activity.ErrBusy), errors.Is(err, activity.ErrSubmissionExists):
		return http.StatusConflict
	case errors.Is(err, timeline.ErrFeedFailed):
		return http.StatusServiceUnavailable
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}
	if kind := activity.KindOf(err); kind != 0 {
		body["kind"] = kind.String()
	}
	if status == http.StatusInternalServerError {
		body["error"] = "internal error"
	}
	c.JSON(status, body)
}
