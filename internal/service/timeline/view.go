// Package timeline keeps the owner's activity history ordered for display
// and feeds it to one-shot listings and live streams.
package timeline

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mamadbah2/kebunku/internal/domain/models"
	"github.com/mamadbah2/kebunku/internal/repository"
)

const (
	// FilterAll shows every activity type.
	FilterAll       = "all"
	DefaultPageSize = 20
	MaxPageSize     = 100

	deletedPlantLabel = "Tanaman dihapus"
)

// ErrFeedFailed marks a view whose live feed broke; it stays in that state
// until the client opens a new one.
var ErrFeedFailed = errors.New("live activity feed failed")

// Query selects one page of the timeline.
type Query struct {
	Filter   string
	Page     int
	PageSize int
}

// Entry is one activity ready for display.
type Entry struct {
	models.Activity
	Label  string   `json:"label"`
	Photos []string `json:"photos"`
}

// Page is one slice of the ordered timeline.
type Page struct {
	Filter     string  `json:"filter"`
	Entries    []Entry `json:"entries"`
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
	Total      int     `json:"total"`
	TotalPages int     `json:"totalPages"`
}

// View holds the latest delivered record set, sorted by logical date
// descending, plus the plants used to label variety-scoped entries.
type View struct {
	mu         sync.RWMutex
	activities []models.Activity
	plants     map[string]models.Plant
	err        error
}

// NewView returns an empty view.
func NewView() *View {
	return &View{plants: make(map[string]models.Plant)}
}

// ApplyActivities replaces the record set with a delivered snapshot. An error
// snapshot puts the view into its error state.
func (v *View) ApplyActivities(s repository.Snapshot[models.Activity]) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if s.Err != nil {
		v.err = fmt.Errorf("%w: %w", ErrFeedFailed, s.Err)
		return
	}
	sorted := append([]models.Activity(nil), s.Items...)
	SortByDateDesc(sorted)
	v.activities = sorted
}

// ApplyPlants replaces the plants used for labels.
func (v *View) ApplyPlants(s repository.Snapshot[models.Plant]) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if s.Err != nil {
		v.err = fmt.Errorf("%w: %w", ErrFeedFailed, s.Err)
		return
	}
	plants := make(map[string]models.Plant, len(s.Items))
	for _, p := range s.Items {
		plants[p.ID] = p
	}
	v.plants = plants
}

// Err returns the feed failure, if any.
func (v *View) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

// Page returns the requested slice of the filtered timeline.
func (v *View) Page(q Query) (Page, error) {
	filter, err := parseFilter(q.Filter)
	if err != nil {
		return Page{}, err
	}
	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.err != nil {
		return Page{}, v.err
	}

	matched := make([]models.Activity, 0, len(v.activities))
	for _, a := range v.activities {
		if filter == FilterAll || string(a.Type) == filter {
			matched = append(matched, a)
		}
	}

	out := Page{
		Filter:     filter,
		Entries:    make([]Entry, 0, size),
		Page:       page,
		PageSize:   size,
		Total:      len(matched),
		TotalPages: (len(matched) + size - 1) / size,
	}
	start := (page - 1) * size
	for i := start; i < len(matched) && i < start+size; i++ {
		a := matched[i]
		out.Entries = append(out.Entries, Entry{Activity: a, Label: v.label(a), Photos: a.Photos()})
	}
	return out, nil
}

func (v *View) label(a models.Activity) string {
	switch a.TargetScope {
	case models.ScopeCategory:
		return "Kategori: " + a.TargetValue
	case models.ScopeGroup:
		return "Kelompok: " + a.TargetValue
	default:
		p, ok := v.plants[a.PlantID]
		if !ok {
			return deletedPlantLabel
		}
		return p.Category + " - " + p.Variety
	}
}

func parseFilter(raw string) (string, error) {
	if raw == "" || raw == FilterAll {
		return FilterAll, nil
	}
	t, err := models.ParseActivityType(raw)
	if err != nil {
		return "", err
	}
	return string(t), nil
}

// SortByDateDesc orders activities newest logical date first; ties fall back
// to creation time, newest first, then id.
func SortByDateDesc(activities []models.Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		a, b := activities[i], activities[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
