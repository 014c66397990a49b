package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/kebunku/internal/domain/models"
	"github.com/mamadbah2/kebunku/internal/repository"
	"github.com/mamadbah2/kebunku/internal/service/activity"
	"github.com/mamadbah2/kebunku/internal/service/timeline"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &activity.SubmitError{Kind: activity.KindValidation, Err: activity.ErrPlantRequired}, http.StatusBadRequest},
		{"upload abort", &activity.SubmitError{Kind: activity.KindUpload, Err: activity.ErrUploadAborted}, http.StatusBadGateway},
		{"persistence", &activity.SubmitError{Kind: activity.KindPersistence, Err: errors.New("timeout")}, http.StatusServiceUnavailable},
		{"not found", fmt.Errorf("failed to load activity x: %w", repository.ErrNotFound), http.StatusNotFound},
		{"busy", activity.ErrBusy, http.StatusConflict},
		{"feed", timeline.ErrFeedFailed, http.StatusServiceUnavailable},
		{"bad enum", fmt.Errorf("%w: %q", models.ErrUnknownWeather, "salju"), http.StatusBadRequest},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
