// Package memory is an in-process document store used for local development
// and tests. It mirrors the MongoDB adapter's behavior, including live
// snapshots on every change.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/kebunku/internal/domain/models"
	"github.com/mamadbah2/kebunku/internal/repository"
)

// Store keeps plants, activities and preferences in maps guarded by one mutex.
type Store struct {
	mu          sync.Mutex
	plants      map[string]models.Plant
	activities  map[string]models.Activity
	preferences map[string]models.Preferences

	plantSubs    map[*subscriber[models.Plant]]struct{}
	activitySubs map[*subscriber[models.Activity]]struct{}

	now   func() time.Time
	newID func() string
}

// New returns an empty store.
func New() *Store {
	return &Store{
		plants:       make(map[string]models.Plant),
		activities:   make(map[string]models.Activity),
		preferences:  make(map[string]models.Preferences),
		plantSubs:    make(map[*subscriber[models.Plant]]struct{}),
		activitySubs: make(map[*subscriber[models.Activity]]struct{}),
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

type subscriber[T any] struct {
	ownerID string
	ch      chan repository.Snapshot[T]
}

// offer replaces any undelivered snapshot with the newest one; callers hold
// the store mutex.
func (s *subscriber[T]) offer(items []T) {
	select {
	case <-s.ch:
	default:
	}
	s.ch <- repository.Snapshot[T]{Items: items}
}

// CreatePlant stores a new plant and returns its id.
func (s *Store) CreatePlant(ctx context.Context, p models.Plant) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.newID()
	p.CreatedAt = s.now().UTC()
	s.plants[p.ID] = p
	s.publishPlantsLocked(p.OwnerID)
	return p.ID, nil
}

// GetPlant returns one of the owner's plants.
func (s *Store) GetPlant(ctx context.Context, ownerID, id string) (models.Plant, error) {
	if err := ctx.Err(); err != nil {
		return models.Plant{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plants[id]
	if !ok || p.OwnerID != ownerID {
		return models.Plant{}, repository.ErrNotFound
	}
	return p, nil
}

// ListPlants returns the owner's plants ordered by creation time.
func (s *Store) ListPlants(ctx context.Context, ownerID string) ([]models.Plant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plantsLocked(ownerID), nil
}

// UpdatePlant applies an edit and returns the stored result.
func (s *Store) UpdatePlant(ctx context.Context, ownerID, id string, update models.PlantUpdate) (models.Plant, error) {
	if err := ctx.Err(); err != nil {
		return models.Plant{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plants[id]
	if !ok || p.OwnerID != ownerID {
		return models.Plant{}, repository.ErrNotFound
	}
	update.Apply(&p)
	if err := p.Validate(); err != nil {
		return models.Plant{}, err
	}
	s.plants[id] = p
	s.publishPlantsLocked(ownerID)
	return p, nil
}

// DeletePlant removes a plant. Activities that reference it are left as is.
func (s *Store) DeletePlant(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.plants[id]
	if !ok || p.OwnerID != ownerID {
		return repository.ErrNotFound
	}
	delete(s.plants, id)
	s.publishPlantsLocked(ownerID)
	return nil
}

// RecategorizePlants moves every plant whose category equals from, ignoring
// case, to the category to. It returns how many plants changed; plants
// already stored under to are not counted.
func (s *Store) RecategorizePlants(ctx context.Context, ownerID, from, to string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	changed := 0
	for id, p := range s.plants {
		if p.OwnerID != ownerID || !strings.EqualFold(p.Category, from) || p.Category == to {
			continue
		}
		p.Category = to
		s.plants[id] = p
		changed++
	}
	if changed > 0 {
		s.publishPlantsLocked(ownerID)
	}
	return changed, nil
}

// SubscribePlants streams the owner's full plant set on every change until
// ctx is cancelled, then closes the channel.
func (s *Store) SubscribePlants(ctx context.Context, ownerID string) (<-chan repository.Snapshot[models.Plant], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub := &subscriber[models.Plant]{ownerID: ownerID, ch: make(chan repository.Snapshot[models.Plant], 1)}

	s.mu.Lock()
	s.plantSubs[sub] = struct{}{}
	sub.offer(s.plantsLocked(ownerID))
	s.mu.Unlock()

	context.AfterFunc(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.plantSubs, sub)
		close(sub.ch)
	})
	return sub.ch, nil
}

func (s *Store) plantsLocked(ownerID string) []models.Plant {
	out := make([]models.Plant, 0)
	for _, p := range s.plants {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Store) publishPlantsLocked(ownerID string) {
	for sub := range s.plantSubs {
		if sub.ownerID == ownerID {
			sub.offer(s.plantsLocked(ownerID))
		}
	}
}

// CreateActivity stores a new activity and returns its id.
func (s *Store) CreateActivity(ctx context.Context, a models.Activity) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := a.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = s.newID()
	a.CreatedAt = s.now().UTC()
	a.PhotoURLs = append([]string{}, a.PhotoURLs...)
	s.activities[a.ID] = a
	s.publishActivitiesLocked(a.UserID)
	return a.ID, nil
}

// GetActivity returns one of the owner's activities.
func (s *Store) GetActivity(ctx context.Context, ownerID, id string) (models.Activity, error) {
	if err := ctx.Err(); err != nil {
		return models.Activity{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.activities[id]
	if !ok || a.UserID != ownerID {
		return models.Activity{}, repository.ErrNotFound
	}
	return a, nil
}

// ListActivities returns the owner's activities in no particular order.
func (s *Store) ListActivities(ctx context.Context, ownerID string) ([]models.Activity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activitiesLocked(ownerID), nil
}

// ListActivitiesCreatedBetween returns every owner's activities created in
// [start, end), oldest first.
func (s *Store) ListActivitiesCreatedBetween(ctx context.Context, start, end time.Time) ([]models.Activity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Activity, 0)
	for _, a := range s.activities {
		if !a.CreatedAt.Before(start) && a.CreatedAt.Before(end) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// UpdateActivity replaces the mutable fields of an activity. Owner and
// creation timestamp are kept from the stored record.
func (s *Store) UpdateActivity(ctx context.Context, ownerID, id string, a models.Activity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.activities[id]
	if !ok || existing.UserID != ownerID {
		return repository.ErrNotFound
	}
	a.ID = id
	a.UserID = existing.UserID
	a.CreatedAt = existing.CreatedAt
	a.PhotoURLs = append([]string{}, a.PhotoURLs...)
	if err := a.Validate(); err != nil {
		return err
	}
	s.activities[id] = a
	s.publishActivitiesLocked(ownerID)
	return nil
}

// DeleteActivity removes an activity.
func (s *Store) DeleteActivity(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.activities[id]
	if !ok || a.UserID != ownerID {
		return repository.ErrNotFound
	}
	delete(s.activities, id)
	s.publishActivitiesLocked(ownerID)
	return nil
}

// SubscribeActivities streams the owner's full activity set on every change
// until ctx is cancelled, then closes the channel.
func (s *Store) SubscribeActivities(ctx context.Context, ownerID string) (<-chan repository.Snapshot[models.Activity], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub := &subscriber[models.Activity]{ownerID: ownerID, ch: make(chan repository.Snapshot[models.Activity], 1)}

	s.mu.Lock()
	s.activitySubs[sub] = struct{}{}
	sub.offer(s.activitiesLocked(ownerID))
	s.mu.Unlock()

	context.AfterFunc(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.activitySubs, sub)
		close(sub.ch)
	})
	return sub.ch, nil
}

func (s *Store) activitiesLocked(ownerID string) []models.Activity {
	out := make([]models.Activity, 0)
	for _, a := range s.activities {
		if a.UserID == ownerID {
			out = append(out, a)
		}
	}
	return out
}

func (s *Store) publishActivitiesLocked(ownerID string) {
	for sub := range s.activitySubs {
		if sub.ownerID == ownerID {
			sub.offer(s.activitiesLocked(ownerID))
		}
	}
}

// GetPreferences returns the owner's saved preferences or the defaults.
func (s *Store) GetPreferences(ctx context.Context, ownerID string) (models.Preferences, error) {
	if err := ctx.Err(); err != nil {
		return models.Preferences{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.preferences[ownerID]; ok {
		return p, nil
	}
	return models.DefaultPreferences(ownerID), nil
}

// SavePreferences stores the owner's preferences.
func (s *Store) SavePreferences(ctx context.Context, p models.Preferences) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.OwnerID == "" {
		return models.ErrOwnerRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferences[p.OwnerID] = p
	return nil
}
