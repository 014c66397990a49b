package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mamadbah2/kebunku/internal/domain/models"
	"github.com/mamadbah2/kebunku/internal/repository"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func monitorActivity(owner, target string) models.Activity {
	return models.Activity{
		UserID:      owner,
		TargetScope: models.ScopeCategory,
		TargetValue: target,
		Type:        models.ActivityMonitor,
		Condition:   models.WeatherSunny,
		Date:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPlantLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.CreatePlant(ctx, models.Plant{OwnerID: "u1", Category: " Anggur ", Variety: "Jupiter"})
	require.NoError(t, err)

	p, err := s.GetPlant(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, "Anggur", p.Category)
	assert.False(t, p.CreatedAt.IsZero())

	_, err = s.GetPlant(ctx, "u2", id)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	variety := "Akademik"
	updated, err := s.UpdatePlant(ctx, "u1", id, models.PlantUpdate{Variety: &variety})
	require.NoError(t, err)
	assert.Equal(t, "Akademik", updated.Variety)

	empty := "  "
	_, err = s.UpdatePlant(ctx, "u1", id, models.PlantUpdate{Category: &empty})
	assert.ErrorIs(t, err, models.ErrCategoryRequired)

	require.NoError(t, s.DeletePlant(ctx, "u1", id))
	assert.ErrorIs(t, s.DeletePlant(ctx, "u1", id), repository.ErrNotFound)
}

func TestCreatePlantRejectsBlankVariety(t *testing.T) {
	_, err := New().CreatePlant(context.Background(), models.Plant{OwnerID: "u1", Category: "Anggur", Variety: " "})
	assert.ErrorIs(t, err, models.ErrVarietyRequired)
}

func TestRecategorizePlantsIgnoresCase(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, cat := range []string{"Anggur", "anggur", "Mangga"} {
		_, err := s.CreatePlant(ctx, models.Plant{OwnerID: "u1", Category: cat, Variety: "x"})
		require.NoError(t, err)
	}
	_, err := s.CreatePlant(ctx, models.Plant{OwnerID: "u2", Category: "ANGGUR", Variety: "x"})
	require.NoError(t, err)

	n, err := s.RecategorizePlants(ctx, "u1", "ANGGUR", "Vitis")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	plants, err := s.ListPlants(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "ANGGUR", plants[0].Category)
}

func TestRecategorizeCountsOnlyChangedPlants(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, cat := range []string{"anggur", "Anggur"} {
		_, err := s.CreatePlant(ctx, models.Plant{OwnerID: "u1", Category: cat, Variety: "x"})
		require.NoError(t, err)
	}

	n, err := s.RecategorizePlants(ctx, "u1", "anggur", "Anggur")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.RecategorizePlants(ctx, "u1", "ANGGUR", "Anggur")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeletingPlantKeepsActivities(t *testing.T) {
	ctx := context.Background()
	s := New()
	pid, err := s.CreatePlant(ctx, models.Plant{OwnerID: "u1", Category: "Anggur", Variety: "Jupiter"})
	require.NoError(t, err)

	a := monitorActivity("u1", "")
	a.TargetScope = models.ScopeVariety
	a.PlantID = pid
	aid, err := s.CreateActivity(ctx, a)
	require.NoError(t, err)

	require.NoError(t, s.DeletePlant(ctx, "u1", pid))
	got, err := s.GetActivity(ctx, "u1", aid)
	require.NoError(t, err)
	assert.Equal(t, pid, got.PlantID)
}

func TestActivityUpdateKeepsOwnerAndCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := New()
	id, err := s.CreateActivity(ctx, monitorActivity("u1", "Anggur"))
	require.NoError(t, err)
	before, err := s.GetActivity(ctx, "u1", id)
	require.NoError(t, err)

	edit := monitorActivity("someone-else", "Mangga")
	require.NoError(t, s.UpdateActivity(ctx, "u1", id, edit))

	after, err := s.GetActivity(ctx, "u1", id)
	require.NoError(t, err)
	assert.Equal(t, "u1", after.UserID)
	assert.Equal(t, "Mangga", after.TargetValue)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)

	assert.ErrorIs(t, s.UpdateActivity(ctx, "u2", id, edit), repository.ErrNotFound)
}

func TestCreateActivityValidates(t *testing.T) {
	a := monitorActivity("u1", "Anggur")
	a.ProductName = "Urea"
	_, err := New().CreateActivity(context.Background(), a)
	assert.ErrorIs(t, err, models.ErrTreatmentLeakage)
}

func TestSubscribeActivitiesDeliversFullSets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New()

	_, err := s.CreateActivity(ctx, monitorActivity("u1", "Anggur"))
	require.NoError(t, err)

	feed, err := s.SubscribeActivities(ctx, "u1")
	require.NoError(t, err)

	first := <-feed
	require.NoError(t, first.Err)
	assert.Len(t, first.Items, 1)

	_, err = s.CreateActivity(ctx, monitorActivity("u2", "Mangga"))
	require.NoError(t, err)
	_, err = s.CreateActivity(ctx, monitorActivity("u1", "Jeruk"))
	require.NoError(t, err)

	second := <-feed
	assert.Len(t, second.Items, 2)

	cancel()
	for range feed {
	}
}

func TestSubscribeKeepsOnlyLatestUndelivered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := New()

	feed, err := s.SubscribePlants(ctx, "u1")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := s.CreatePlant(ctx, models.Plant{OwnerID: "u1", Category: "Anggur", Variety: "v"})
		require.NoError(t, err)
	}

	latest := <-feed
	assert.Len(t, latest.Items, 3)

	cancel()
	_, open := <-feed
	for open {
		_, open = <-feed
	}
}

func TestPreferencesDefaultAndSave(t *testing.T) {
	ctx := context.Background()
	s := New()

	p, err := s.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.ThemeOrange, p.Theme)

	require.NoError(t, s.SavePreferences(ctx, models.Preferences{OwnerID: "u1", Theme: models.ThemeTeal}))
	p, err = s.GetPreferences(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.ThemeTeal, p.Theme)
}

func TestListActivitiesCreatedBetween(t *testing.T) {
	ctx := context.Background()
	s := New()
	clock := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	_, err := s.CreateActivity(ctx, monitorActivity("u1", "Anggur"))
	require.NoError(t, err)
	clock = clock.Add(24 * time.Hour)
	_, err = s.CreateActivity(ctx, monitorActivity("u2", "Mangga"))
	require.NoError(t, err)

	got, err := s.ListActivitiesCreatedBetween(ctx, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Anggur", got[0].TargetValue)
}
