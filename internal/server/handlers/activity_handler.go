package handlers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/kebunku/internal/domain/models"
	"github.com/mamadbah2/kebunku/internal/media"
	"github.com/mamadbah2/kebunku/internal/service/activity"
	"github.com/mamadbah2/kebunku/internal/service/timeline"
)

const (
	onFailureSkip  = "skip"
	onFailureAbort = "abort"
)

// ActivityHandler serves activity submissions, the timeline and its live
// stream, and in-flight submission control.
type ActivityHandler struct {
	svc      *activity.Service
	timeline *timeline.Service
	registry *activity.Registry
	maxPhoto int64
	logger   *zap.Logger
}

// NewActivityHandler constructs the HTTP handler adapter.
func NewActivityHandler(svc *activity.Service, tl *timeline.Service, registry *activity.Registry, maxPhotoBytes int64, logger *zap.Logger) *ActivityHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityHandler{svc: svc, timeline: tl, registry: registry, maxPhoto: maxPhotoBytes, logger: logger}
}

// Create submits a new activity from a multipart form.
func (h *ActivityHandler) Create(c *gin.Context) {
	w, err := h.svc.NewCreate(c.Request.Context(), ownerID(c))
	if err != nil {
		h.logger.Error("failed opening activity form", zap.Error(err))
		respondError(c, err)
		return
	}
	h.submit(c, w, http.StatusCreated)
}

// Update submits an edit of an existing activity. Existing photos not listed
// in keep_photos[] are dropped when that field is sent.
func (h *ActivityHandler) Update(c *gin.Context) {
	w, err := h.svc.NewEdit(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if keep, ok := c.GetPostFormArray("keep_photos[]"); ok {
		retained := make(map[string]bool, len(keep))
		for _, u := range keep {
			retained[u] = true
		}
		for _, u := range w.ExistingPhotos() {
			if !retained[u] {
				if err := w.RemoveExisting(u); err != nil {
					respondError(c, err)
					return
				}
			}
		}
	}
	h.submit(c, w, http.StatusOK)
}

// Delete removes an activity.
func (h *ActivityHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), ownerID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List returns one page of the timeline.
func (h *ActivityHandler) List(c *gin.Context) {
	page, err := h.timeline.List(c.Request.Context(), ownerID(c), timelineQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Stream pushes the requested timeline page as server-sent events whenever
// the owner's records change. A feed failure is sent as an "error" event and
// ends the stream.
func (h *ActivityHandler) Stream(c *gin.Context) {
	updates, err := h.timeline.Watch(c.Request.Context(), ownerID(c), timelineQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	// The server write timeout would otherwise cut long-lived streams.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	c.Stream(func(io.Writer) bool {
		u, ok := <-updates
		if !ok {
			return false
		}
		if u.Err != nil {
			c.SSEvent("error", gin.H{"error": u.Err.Error()})
			return false
		}
		c.SSEvent("timeline", u.Page)
		return true
	})
}

// Progress reports an in-flight submission's upload progress.
func (h *ActivityHandler) Progress(c *gin.Context) {
	w, err := h.registry.Get(ownerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w.Progress())
}

// Skip stops the remaining uploads of an in-flight submission; it then saves
// with the photos uploaded so far.
func (h *ActivityHandler) Skip(c *gin.Context) {
	w, err := h.registry.Get(ownerID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	w.SkipRemainingUploads()
	c.Status(http.StatusAccepted)
}

func (h *ActivityHandler) submit(c *gin.Context, w *activity.Workflow, okStatus int) {
	if err := h.fill(c, w); err != nil {
		respondError(c, err)
		return
	}

	choice := activity.ChoiceAbort
	switch c.DefaultPostForm("on_upload_failure", onFailureAbort) {
	case onFailureSkip:
		choice = activity.ChoiceSkip
	case onFailureAbort:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "on_upload_failure must be skip or abort"})
		return
	}

	owner := ownerID(c)
	submissionID := c.PostForm("submission_id")
	if submissionID == "" {
		submissionID = uuid.NewString()
	}
	if err := h.registry.Register(owner, submissionID, w); err != nil {
		respondError(c, err)
		return
	}
	defer h.registry.Remove(owner, submissionID)

	res, err := w.Submit(c.Request.Context(), func(_ context.Context, f activity.UploadFailure) activity.Choice {
		h.logger.Warn("upload failed during submission",
			zap.String("submission_id", submissionID),
			zap.String("file", f.File),
			zap.Int("uploaded", f.Uploaded),
			zap.Int("total", f.Total),
			zap.Error(f.Err))
		return choice
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(okStatus, gin.H{"submissionId": submissionID, "result": res})
}

// fill copies the multipart fields onto the workflow. Fields that are not
// sent keep the form's current value, so an edit only needs what changed.
func (h *ActivityHandler) fill(c *gin.Context, w *activity.Workflow) error {
	current := w.Form()

	if raw, ok := c.GetPostForm("target_scope"); ok {
		scope, err := models.ParseTargetScope(raw)
		if err != nil {
			return err
		}
		if scope != current.Scope {
			if err := w.SetScope(scope); err != nil {
				return err
			}
		}
		current = w.Form()
	}

	if current.Scope == models.ScopeVariety {
		if plantID := c.DefaultPostForm("plant_id", current.PlantID); plantID != "" {
			if err := w.SelectPlant(plantID); err != nil {
				return err
			}
		}
	} else if err := w.SelectTarget(c.DefaultPostForm("target_value", current.TargetValue)); err != nil {
		return err
	}

	if raw, ok := c.GetPostForm("type"); ok {
		t, err := models.ParseActivityType(raw)
		if err != nil {
			return err
		}
		if err := w.SetType(t); err != nil {
			return err
		}
	}

	method, err := models.ParseApplicationMethod(c.DefaultPostForm("method", string(current.Method)))
	if err != nil {
		return err
	}
	if err := w.SetTreatment(
		c.DefaultPostForm("product_name", current.ProductName),
		c.DefaultPostForm("dosis", current.Dosis),
		c.DefaultPostForm("volume", current.Volume),
		method,
	); err != nil {
		return err
	}

	condition, err := models.ParseWeatherCondition(c.DefaultPostForm("condition", string(current.Condition)))
	if err != nil {
		return err
	}
	if err := w.SetDetails(
		c.DefaultPostForm("description", current.Description),
		condition,
		c.DefaultPostForm("date", current.Date),
	); err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		// url-encoded bodies carry no files
		return nil
	}
	for _, key := range []string{"photos[]", "photos"} {
		for _, fh := range form.File[key] {
			file, err := h.readPhoto(fh)
			if err != nil {
				return err
			}
			if _, err := w.StageFile(file); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *ActivityHandler) readPhoto(fh *multipart.FileHeader) (media.File, error) {
	if h.maxPhoto > 0 && fh.Size > h.maxPhoto {
		return media.File{}, fmt.Errorf("%w: %s", activity.ErrPhotoTooLarge, fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return media.File{}, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return media.File{}, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
	}
	return media.File{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}, nil
}

func timelineQuery(c *gin.Context) timeline.Query {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(timeline.DefaultPageSize)))
	return timeline.Query{
		Filter:   c.DefaultQuery("type", timeline.FilterAll),
		Page:     page,
		PageSize: size,
	}
}
