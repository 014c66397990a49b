// Package preferences loads and saves per-user display settings.
package preferences

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/kebunku/internal/domain/models"
)

// Store persists preferences.
type Store interface {
	GetPreferences(ctx context.Context, ownerID string) (models.Preferences, error)
	SavePreferences(ctx context.Context, p models.Preferences) error
}

// Service exposes explicit load and save for a user's preferences.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService wires a new preferences service instance.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Load returns the saved preferences or the defaults.
func (s *Service) Load(ctx context.Context, ownerID string) (models.Preferences, error) {
	p, err := s.store.GetPreferences(ctx, ownerID)
	if err != nil {
		return models.Preferences{}, fmt.Errorf("failed to load preferences: %w", err)
	}
	return p, nil
}

// SetTheme validates and saves the owner's theme.
func (s *Service) SetTheme(ctx context.Context, ownerID, raw string) (models.Preferences, error) {
	theme, err := models.ParseTheme(raw)
	if err != nil {
		return models.Preferences{}, err
	}
	p := models.Preferences{OwnerID: ownerID, Theme: theme}
	if err := s.store.SavePreferences(ctx, p); err != nil {
		return models.Preferences{}, fmt.Errorf("failed to save preferences: %w", err)
	}
	s.logger.Debug("preferences saved", zap.String("theme", string(theme)))
	return p, nil
}
