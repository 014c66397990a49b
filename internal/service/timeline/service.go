package timeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/kebunku/internal/domain/models"
	"github.com/mamadbah2/kebunku/internal/metrics"
	"github.com/mamadbah2/kebunku/internal/repository"
)

// Source supplies the owner's records once or as live snapshots.
type Source interface {
	ListActivities(ctx context.Context, ownerID string) ([]models.Activity, error)
	ListPlants(ctx context.Context, ownerID string) ([]models.Plant, error)
	SubscribeActivities(ctx context.Context, ownerID string) (<-chan repository.Snapshot[models.Activity], error)
	SubscribePlants(ctx context.Context, ownerID string) (<-chan repository.Snapshot[models.Plant], error)
}

// Update is one push on a live timeline stream.
type Update struct {
	Page Page
	Err  error
}

// Service serves timeline pages.
type Service struct {
	source  Source
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService wires a new timeline service instance.
func NewService(source Source, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, metrics: m, logger: logger}
}

// List loads the owner's records and returns one page.
func (s *Service) List(ctx context.Context, ownerID string, q Query) (Page, error) {
	if _, err := parseFilter(q.Filter); err != nil {
		return Page{}, err
	}
	activities, err := s.source.ListActivities(ctx, ownerID)
	if err != nil {
		return Page{}, fmt.Errorf("failed to load activities: %w", err)
	}
	plants, err := s.source.ListPlants(ctx, ownerID)
	if err != nil {
		return Page{}, fmt.Errorf("failed to load plants: %w", err)
	}

	v := NewView()
	v.ApplyPlants(repository.Snapshot[models.Plant]{Items: plants})
	v.ApplyActivities(repository.Snapshot[models.Activity]{Items: activities})
	return v.Page(q)
}

// Watch pushes the requested page every time the owner's activities or
// plants change. After a feed failure it sends one Update carrying the error
// and closes; there is no automatic resubscription. The channel also closes
// when ctx is done.
func (s *Service) Watch(ctx context.Context, ownerID string, q Query) (<-chan Update, error) {
	if _, err := parseFilter(q.Filter); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	activities, err := s.source.SubscribeActivities(ctx, ownerID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to subscribe to activities: %w", err)
	}
	plants, err := s.source.SubscribePlants(ctx, ownerID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to subscribe to plants: %w", err)
	}

	out := make(chan Update, 1)
	go func() {
		defer close(out)
		defer cancel()
		if s.metrics != nil {
			s.metrics.LiveSubscribers.Inc()
			defer s.metrics.LiveSubscribers.Dec()
		}

		v := NewView()
		haveActivities, havePlants := false, false
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-activities:
				if !ok {
					return
				}
				v.ApplyActivities(snap)
				haveActivities = true
			case snap, ok := <-plants:
				if !ok {
					return
				}
				v.ApplyPlants(snap)
				havePlants = true
			}

			if err := v.Err(); err != nil {
				s.logger.Error("timeline feed failed", zap.String("owner_id", ownerID), zap.Error(err))
				select {
				case out <- Update{Err: err}:
				case <-ctx.Done():
				}
				return
			}
			if !haveActivities || !havePlants {
				continue
			}

			page, err := v.Page(q)
			select {
			case out <- Update{Page: page, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
