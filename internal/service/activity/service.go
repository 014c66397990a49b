// Package activity implements the activity-logging workflow: target scope
// resolution, conditional treatment fields, photo staging, sequential
// uploads with partial-failure recovery, and the final record write.
package activity

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/kebunku/internal/catalog"
	"github.com/mamadbah2/kebunku/internal/domain/models"
	"github.com/mamadbah2/kebunku/internal/media"
	"github.com/mamadbah2/kebunku/internal/metrics"
)

// Store is the persistence gateway the workflow writes through.
type Store interface {
	CreateActivity(ctx context.Context, a models.Activity) (string, error)
	UpdateActivity(ctx context.Context, ownerID, id string, a models.Activity) error
	GetActivity(ctx context.Context, ownerID, id string) (models.Activity, error)
	DeleteActivity(ctx context.Context, ownerID, id string) error
}

// PlantLister supplies the owner's plants for target resolution.
type PlantLister interface {
	ListPlants(ctx context.Context, ownerID string) ([]models.Plant, error)
}

// Options tunes the workflows a Service creates.
type Options struct {
	UploadTimeout time.Duration
	WriteTimeout  time.Duration
	MaxPhotoBytes int64
}

// Service opens workflows bound to the configured gateways.
type Service struct {
	store    Store
	plants   PlantLister
	uploader media.Uploader
	opts     Options
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a new activity service instance.
func NewService(store Store, plants PlantLister, uploader media.Uploader, opts Options, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = 60 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 15 * time.Second
	}
	return &Service{
		store:    store,
		plants:   plants,
		uploader: uploader,
		opts:     opts,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// NewCreate opens a blank form for the owner.
func (s *Service) NewCreate(ctx context.Context, ownerID string) (*Workflow, error) {
	cat, err := s.catalogFor(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	w := s.workflow(ModeCreate, ownerID, cat)
	w.form = NewForm(s.now())
	return w, nil
}

// NewEdit opens the stored activity id for editing.
func (s *Service) NewEdit(ctx context.Context, ownerID, id string) (*Workflow, error) {
	existing, err := s.store.GetActivity(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity %s: %w", id, err)
	}
	cat, err := s.catalogFor(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	w := s.workflow(ModeEdit, ownerID, cat)
	w.editID = id
	w.original = existing
	w.form = FormFromActivity(existing)
	w.existing = existing.Photos()
	return w, nil
}

// Delete removes one of the owner's activities.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	writeCtx, cancel := context.WithTimeout(ctx, s.opts.WriteTimeout)
	defer cancel()
	if err := s.store.DeleteActivity(writeCtx, ownerID, id); err != nil {
		return fmt.Errorf("failed to delete activity %s: %w", id, err)
	}
	s.logger.Info("activity deleted", zap.String("activity_id", id))
	return nil
}

func (s *Service) catalogFor(ctx context.Context, ownerID string) (*catalog.Catalog, error) {
	plants, err := s.plants.ListPlants(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load plants: %w", err)
	}
	return catalog.New(plants), nil
}

func (s *Service) workflow(mode Mode, ownerID string, cat *catalog.Catalog) *Workflow {
	return &Workflow{
		mode:          mode,
		ownerID:       ownerID,
		catalog:       cat,
		existing:      []string{},
		store:         s.store,
		uploader:      s.uploader,
		uploadTimeout: s.opts.UploadTimeout,
		writeTimeout:  s.opts.WriteTimeout,
		maxPhotoBytes: s.opts.MaxPhotoBytes,
		metrics:       s.metrics,
		logger:        s.logger.With(zap.String("owner_id", ownerID)),
	}
}
