// Package plants manages a user's plant collection and the catalog views
// derived from it.
package plants

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/kebunku/internal/catalog"
	"github.com/mamadbah2/kebunku/internal/domain/models"
)

// ErrSameCategory is returned when a recategorization would change nothing.
var ErrSameCategory = errors.New("source and target category are the same")

// Store is the plant persistence the service needs.
type Store interface {
	CreatePlant(ctx context.Context, p models.Plant) (string, error)
	GetPlant(ctx context.Context, ownerID, id string) (models.Plant, error)
	ListPlants(ctx context.Context, ownerID string) ([]models.Plant, error)
	UpdatePlant(ctx context.Context, ownerID, id string, update models.PlantUpdate) (models.Plant, error)
	DeletePlant(ctx context.Context, ownerID, id string) error
	RecategorizePlants(ctx context.Context, ownerID, from, to string) (int, error)
}

// Service exposes plant CRUD and catalog queries.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService wires a new plant service instance.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Create registers a plant for the owner.
func (s *Service) Create(ctx context.Context, ownerID string, p models.Plant) (models.Plant, error) {
	p.OwnerID = ownerID
	p.Normalize()
	if err := p.Validate(); err != nil {
		return models.Plant{}, err
	}

	id, err := s.store.CreatePlant(ctx, p)
	if err != nil {
		return models.Plant{}, fmt.Errorf("failed to create plant: %w", err)
	}
	s.logger.Info("plant created", zap.String("plant_id", id), zap.String("category", p.Category))
	return s.store.GetPlant(ctx, ownerID, id)
}

// List returns the owner's plants.
func (s *Service) List(ctx context.Context, ownerID string) ([]models.Plant, error) {
	plants, err := s.store.ListPlants(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plants: %w", err)
	}
	return plants, nil
}

// Update edits one plant.
func (s *Service) Update(ctx context.Context, ownerID, id string, update models.PlantUpdate) (models.Plant, error) {
	p, err := s.store.UpdatePlant(ctx, ownerID, id, update)
	if err != nil {
		return models.Plant{}, fmt.Errorf("failed to update plant %s: %w", id, err)
	}
	return p, nil
}

// Delete removes a plant. Activities that point at it keep the stale id and
// render with a deleted-plant label.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeletePlant(ctx, ownerID, id); err != nil {
		return fmt.Errorf("failed to delete plant %s: %w", id, err)
	}
	s.logger.Info("plant deleted", zap.String("plant_id", id))
	return nil
}

// Recategorize moves every plant in category from to category to.
func (s *Service) Recategorize(ctx context.Context, ownerID, from, to string) (int, error) {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" || to == "" {
		return 0, models.ErrCategoryRequired
	}
	if from == to {
		return 0, ErrSameCategory
	}

	n, err := s.store.RecategorizePlants(ctx, ownerID, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to recategorize %q: %w", from, err)
	}
	s.logger.Info("plants recategorized", zap.String("from", from), zap.String("to", to), zap.Int("count", n))
	return n, nil
}

// Catalog returns the derived views over the owner's current plants.
func (s *Service) Catalog(ctx context.Context, ownerID string) (*catalog.Catalog, error) {
	plants, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return catalog.New(plants), nil
}
