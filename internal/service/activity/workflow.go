package activity

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/kebunku/internal/catalog"
	"github.com/mamadbah2/kebunku/internal/domain/models"
	"github.com/mamadbah2/kebunku/internal/media"
	"github.com/mamadbah2/kebunku/internal/metrics"
	"github.com/mamadbah2/kebunku/internal/normalize"
)

// Mode tells whether a workflow creates a new record or edits one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Choice is the user's answer to a failed upload.
type Choice int

const (
	// ChoiceAbort stops the submission and keeps staged photos for retry.
	ChoiceAbort Choice = iota
	// ChoiceSkip saves the record with the photos uploaded so far.
	ChoiceSkip
)

// UploadFailure describes one failed upload.
type UploadFailure struct {
	File     string
	Index    int
	Total    int
	Uploaded int
	Err      error
}

// FailureHandler asks the user what to do after an upload fails. A nil
// handler always aborts.
type FailureHandler func(ctx context.Context, failure UploadFailure) Choice

// StagedFile is a photo attached to the form but not uploaded yet.
type StagedFile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	Preview     string `json:"preview"`

	data []byte
}

// Progress is a snapshot of an in-flight submission.
type Progress struct {
	Submitting bool    `json:"submitting"`
	Uploading  bool    `json:"uploading"`
	Percent    float64 `json:"percent"`
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
}

// Result is what a successful submission stored.
type Result struct {
	ID       string          `json:"id"`
	Mode     string          `json:"mode"`
	Activity models.Activity `json:"activity"`
	Skipped  int             `json:"skippedPhotos"`
}

// Workflow holds the state of one open activity form and submits it. Its
// methods are safe to call from a second goroutine while Submit runs, which
// is how progress is read and remaining uploads are skipped.
type Workflow struct {
	mu sync.Mutex

	mode     Mode
	ownerID  string
	editID   string
	original models.Activity
	catalog  *catalog.Catalog

	form     Form
	staged   []StagedFile
	existing []string

	submitting   bool
	progress     Progress
	skip         bool
	cancelUpload context.CancelFunc

	store         Store
	uploader      media.Uploader
	uploadTimeout time.Duration
	writeTimeout  time.Duration
	maxPhotoBytes int64
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

// Form returns a copy of the current field values.
func (w *Workflow) Form() Form {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// Mode reports whether the workflow creates or edits.
func (w *Workflow) Mode() Mode {
	return w.mode
}

// SetScope switches the target scope and clears any previous selection.
func (w *Workflow) SetScope(scope models.TargetScope) error {
	if _, err := models.ParseTargetScope(string(scope)); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.Scope = scope
	w.form.TargetValue = ""
	w.form.PlantID = ""
	return nil
}

// SelectPlant picks the single plant a variety-scoped activity applies to.
func (w *Workflow) SelectPlant(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.form.Scope != models.ScopeVariety {
		return ErrScopeMismatch
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrPlantRequired
	}
	p, ok := w.catalog.Find(id)
	if !ok {
		if w.mode == ModeEdit && id == w.original.PlantID {
			w.form.PlantID = id
			w.form.TargetValue = w.original.TargetValue
			return nil
		}
		return ErrPlantNotFound
	}
	w.form.PlantID = p.ID
	w.form.TargetValue = p.DisplayName()
	return nil
}

// SelectTarget picks the category or group a bulk activity applies to.
func (w *Workflow) SelectTarget(value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.form.Scope == models.ScopeVariety {
		return ErrScopeMismatch
	}
	w.form.TargetValue = strings.TrimSpace(value)
	return nil
}

// TargetOptions lists the values the bulk selector offers for the current
// scope. Variety scope selects plants instead and gets nil.
func (w *Workflow) TargetOptions() []string {
	w.mu.Lock()
	scope := w.form.Scope
	w.mu.Unlock()

	switch scope {
	case models.ScopeCategory:
		return w.catalog.Categories()
	case models.ScopeGroup:
		return w.catalog.Groups()
	default:
		return nil
	}
}

// SetType changes the activity type. Treatment fields keep their transient
// values; they are dropped at save time when the type does not use them.
func (w *Workflow) SetType(t models.ActivityType) error {
	if _, err := models.ParseActivityType(string(t)); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.Type = t
	return nil
}

// SetTreatment fills the product, dose, volume and method fields.
func (w *Workflow) SetTreatment(product, dosis, volume string, method models.ApplicationMethod) error {
	if _, err := models.ParseApplicationMethod(string(method)); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.ProductName = product
	w.form.Dosis = dosis
	w.form.Volume = volume
	w.form.Method = method
	return nil
}

// SetDetails fills the free-text description, weather and logical date.
// The date is checked on submit.
func (w *Workflow) SetDetails(description string, condition models.WeatherCondition, date string) error {
	if _, err := models.ParseWeatherCondition(string(condition)); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.Description = description
	w.form.Condition = condition
	w.form.Date = date
	return nil
}

// TreatmentFieldsVisible reports whether the selected type uses the
// treatment fields.
func (w *Workflow) TreatmentFieldsVisible() bool {
	return w.Form().TreatmentFieldsVisible()
}

// StageFile attaches a photo and returns its local preview. Nothing is sent
// to the media host until Submit.
func (w *Workflow) StageFile(f media.File) (StagedFile, error) {
	if w.maxPhotoBytes > 0 && int64(len(f.Data)) > w.maxPhotoBytes {
		return StagedFile{}, fmt.Errorf("%w: %s", ErrPhotoTooLarge, f.Name)
	}
	mime, ok := media.DetectImageType(f.Data)
	if !ok {
		return StagedFile{}, fmt.Errorf("%w: %s", ErrNotImage, f.Name)
	}

	staged := StagedFile{
		ID:          uuid.NewString(),
		Name:        f.Name,
		ContentType: mime,
		Size:        len(f.Data),
		Preview:     "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(f.Data),
		data:        f.Data,
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.staged = append(w.staged, staged)
	return staged, nil
}

// Staged lists the photos waiting for upload, in attach order.
func (w *Workflow) Staged() []StagedFile {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]StagedFile(nil), w.staged...)
}

// RemoveStaged detaches a staged photo.
func (w *Workflow) RemoveStaged(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, s := range w.staged {
		if s.ID == id {
			w.staged = append(w.staged[:i:i], w.staged[i+1:]...)
			return nil
		}
	}
	return ErrStagedNotFound
}

// ExistingPhotos lists the already-stored photos the record keeps.
func (w *Workflow) ExistingPhotos() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string{}, w.existing...)
}

// RemoveExisting drops an already-stored photo from the record on save.
func (w *Workflow) RemoveExisting(url string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, u := range w.existing {
		if u == url {
			w.existing = append(w.existing[:i:i], w.existing[i+1:]...)
			return nil
		}
	}
	return ErrPhotoNotFound
}

// Progress returns the state of the running submission.
func (w *Workflow) Progress() Progress {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progress
}

// SkipRemainingUploads stops issuing uploads, cancels the one in flight and
// lets Submit save with the photos uploaded so far. A skip requested before
// Submit starts applies to that Submit; the flag clears when Submit returns.
func (w *Workflow) SkipRemainingUploads() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.skip = true
	if w.cancelUpload != nil {
		w.cancelUpload()
	}
}

// Submit validates the form, uploads staged photos one at a time, and
// writes the record. Validation failures return before any gateway call.
func (w *Workflow) Submit(ctx context.Context, onFailure FailureHandler) (Result, error) {
	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return Result{}, ErrBusy
	}
	form := w.form
	staged := append([]StagedFile(nil), w.staged...)
	existing := append([]string{}, w.existing...)
	w.submitting = true
	w.progress = Progress{Submitting: true, Total: len(staged)}
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.submitting = false
		w.skip = false
		w.progress = Progress{}
		w.mu.Unlock()
	}()

	record, err := w.draft(form)
	if err != nil {
		w.count("validation")
		return Result{}, &SubmitError{Kind: KindValidation, Err: err}
	}

	uploaded, err := w.uploadAll(ctx, staged, onFailure)
	if err != nil {
		w.count("upload")
		return Result{}, &SubmitError{Kind: KindUpload, Err: err}
	}

	record.PhotoURLs = append(existing, uploaded...)
	record.PhotoURL = ""
	if len(record.PhotoURLs) > 0 {
		record.PhotoURL = record.PhotoURLs[0]
	}

	id, err := w.persist(ctx, record)
	if err != nil {
		w.count("persistence")
		w.logger.Error("failed to save activity", zap.String("mode", w.mode.String()), zap.Error(err))
		return Result{}, &SubmitError{Kind: KindPersistence, Err: err}
	}
	record.ID = id
	w.count("saved")

	w.mu.Lock()
	w.staged = nil
	if w.mode == ModeCreate {
		w.form.Description = ""
		w.form.Dosis = ""
		w.form.Volume = ""
		w.form.ProductName = ""
	} else {
		w.existing = append([]string{}, record.PhotoURLs...)
	}
	w.mu.Unlock()

	w.logger.Info("activity saved",
		zap.String("mode", w.mode.String()),
		zap.String("activity_id", id),
		zap.String("scope", string(record.TargetScope)),
		zap.Int("photos", len(record.PhotoURLs)),
	)

	return Result{
		ID:       id,
		Mode:     w.mode.String(),
		Activity: record,
		Skipped:  len(staged) - len(uploaded),
	}, nil
}

// draft checks the form and builds the record without photos.
func (w *Workflow) draft(f Form) (models.Activity, error) {
	switch f.Scope {
	case models.ScopeVariety:
		plantID := strings.TrimSpace(f.PlantID)
		if plantID == "" {
			return models.Activity{}, ErrPlantRequired
		}
		if _, ok := w.catalog.Find(plantID); !ok && !(w.mode == ModeEdit && plantID == w.original.PlantID) {
			return models.Activity{}, ErrPlantNotFound
		}
		f.PlantID = plantID
	case models.ScopeCategory, models.ScopeGroup:
		f.PlantID = ""
		if strings.TrimSpace(f.TargetValue) == "" {
			return models.Activity{}, ErrTargetRequired
		}
	default:
		return models.Activity{}, fmt.Errorf("%w: %q", models.ErrUnknownScope, f.Scope)
	}

	date, err := time.Parse(models.LogicalDateLayout, strings.TrimSpace(f.Date))
	if err != nil {
		return models.Activity{}, fmt.Errorf("%w: %q", ErrInvalidDate, f.Date)
	}

	a := models.Activity{
		PlantID:     f.PlantID,
		TargetScope: f.Scope,
		TargetValue: strings.TrimSpace(f.TargetValue),
		Type:        f.Type,
		Date:        date,
		Description: strings.TrimSpace(f.Description),
		Condition:   f.Condition,
		UserID:      w.ownerID,
		PhotoURLs:   []string{},
	}

	if f.Type.IsTreatment() {
		a.ProductName = strings.TrimSpace(f.ProductName)
		a.Dosis = normalize.DoseOrVolume(f.Dosis)
		a.Volume = normalize.DoseOrVolume(f.Volume)
		a.Method = f.Method
		if a.ProductName == "" {
			return models.Activity{}, ErrProductRequired
		}
		if a.Method == "" {
			return models.Activity{}, ErrMethodRequired
		}
	}

	if err := a.Validate(); err != nil {
		return models.Activity{}, err
	}
	return a, nil
}

// uploadAll sends staged photos sequentially and returns the URLs that made
// it. It returns ErrUploadAborted when the user chose to abort.
func (w *Workflow) uploadAll(ctx context.Context, staged []StagedFile, onFailure FailureHandler) ([]string, error) {
	urls := make([]string, 0, len(staged))
	if len(staged) == 0 {
		return urls, nil
	}

	w.mu.Lock()
	w.progress.Uploading = true
	w.mu.Unlock()

	for i, s := range staged {
		if w.skipping() {
			w.logger.Info("remaining uploads skipped", zap.Int("uploaded", len(urls)), zap.Int("total", len(staged)))
			break
		}

		url, err := w.uploadOne(ctx, i, len(staged), s)
		if err == nil {
			urls = append(urls, url)
			w.setProgress(i+1, len(staged), 0)
			continue
		}

		if w.skipping() {
			w.logger.Info("in-flight upload cancelled by skip", zap.String("file", s.Name))
			break
		}

		w.logger.Warn("photo upload failed", zap.String("file", s.Name), zap.Int("index", i), zap.Error(err))
		choice := ChoiceAbort
		if onFailure != nil {
			choice = onFailure(ctx, UploadFailure{File: s.Name, Index: i, Total: len(staged), Uploaded: len(urls), Err: err})
		}
		if choice != ChoiceSkip {
			return nil, fmt.Errorf("%w: %w", ErrUploadAborted, err)
		}
		break
	}

	if skipped := len(staged) - len(urls); skipped > 0 && w.metrics != nil {
		w.metrics.UploadsTotal.WithLabelValues("skipped").Add(float64(skipped))
	}
	return urls, nil
}

func (w *Workflow) uploadOne(ctx context.Context, index, total int, s StagedFile) (string, error) {
	uploadCtx, cancel := context.WithTimeout(ctx, w.uploadTimeout)
	defer cancel()

	w.mu.Lock()
	w.cancelUpload = cancel
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.cancelUpload = nil
		w.mu.Unlock()
	}()

	start := time.Now()
	file := media.File{Name: s.Name, ContentType: s.ContentType, Data: s.data}
	url, err := w.uploader.Upload(uploadCtx, w.ownerID, file, func(percent float64) {
		w.setProgress(index, total, percent)
	})
	if err == nil && url == "" {
		err = errors.New("media host returned an empty url")
	}

	if w.metrics != nil {
		w.metrics.UploadDuration.Observe(time.Since(start).Seconds())
		result := "ok"
		if err != nil {
			result = "failed"
		}
		w.metrics.UploadsTotal.WithLabelValues(result).Inc()
	}
	return url, err
}

func (w *Workflow) persist(ctx context.Context, a models.Activity) (string, error) {
	writeCtx, cancel := context.WithTimeout(ctx, w.writeTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if w.metrics != nil {
			w.metrics.WriteDuration.WithLabelValues(w.mode.String()).Observe(time.Since(start).Seconds())
		}
	}()

	if w.mode == ModeEdit {
		if err := w.store.UpdateActivity(writeCtx, w.ownerID, w.editID, a); err != nil {
			return "", fmt.Errorf("failed to update activity: %w", err)
		}
		return w.editID, nil
	}

	id, err := w.store.CreateActivity(writeCtx, a)
	if err != nil {
		return "", fmt.Errorf("failed to create activity: %w", err)
	}
	return id, nil
}

func (w *Workflow) skipping() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.skip
}

// setProgress records overall progress as (completed + fraction) / total.
func (w *Workflow) setProgress(completed, total int, percent float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.progress.Completed = completed
	w.progress.Total = total
	w.progress.Percent = (float64(completed) + percent/100) / float64(total) * 100
}

func (w *Workflow) count(outcome string) {
	if w.metrics != nil {
		w.metrics.SubmissionsTotal.WithLabelValues(w.mode.String(), outcome).Inc()
	}
}
