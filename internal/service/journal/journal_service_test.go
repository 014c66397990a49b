package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/kebunku/internal/domain/models"
)

type fakeSheet struct {
	rows    [][]interface{}
	appends int
	readErr error
}

func (f *fakeSheet) AppendRows(_ context.Context, sheetRange string, rows [][]interface{}) error {
	f.appends++
	f.rows = append(f.rows, rows...)
	return nil
}

func (f *fakeSheet) ReadRange(_ context.Context, sheetRange string) ([][]interface{}, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	ids := make([][]interface{}, 0, len(f.rows))
	for _, r := range f.rows {
		ids = append(ids, []interface{}{r[0]})
	}
	return ids, nil
}

type fakeSource []models.Activity

func (f fakeSource) ListActivitiesCreatedBetween(_ context.Context, start, end time.Time) ([]models.Activity, error) {
	out := make([]models.Activity, 0)
	for _, a := range f {
		if !a.CreatedAt.Before(start) && a.CreatedAt.Before(end) {
			out = append(out, a)
		}
	}
	return out, nil
}

var base = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func sample() fakeSource {
	return fakeSource{
		{
			ID: "a1", TargetScope: models.ScopeVariety, PlantID: "p1", TargetValue: "Anggur - Jupiter",
			Type: models.ActivityFertilize, ProductName: "Urea", Dosis: "1 gr/ltr", Volume: "5 ltr",
			Method: models.MethodSpray, Condition: models.WeatherSunny, Date: base.Truncate(24 * time.Hour),
			PhotoURLs: []string{"u1", "u2"}, UserID: "owner", CreatedAt: base,
		},
		{
			ID: "a2", TargetScope: models.ScopeGroup, TargetValue: "buah", Type: models.ActivityMonitor,
			Condition: models.WeatherCloudy, Date: base, UserID: "owner", CreatedAt: base.Add(time.Hour),
		},
	}
}

func TestExportWritesRows(t *testing.T) {
	sheet := &fakeSheet{}
	svc := NewService(sheet, sample(), nil, nil)

	n, err := svc.Export(context.Background(), base.Add(-time.Hour), base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, sheet.rows, 2)

	first := sheet.rows[0]
	assert.Len(t, first, 13)
	assert.Equal(t, "a1", first[0])
	assert.Equal(t, "2024-03-10T12:00:00Z", first[1])
	assert.Equal(t, "2024-03-10", first[2])
	assert.Equal(t, "1 gr/ltr", first[8])
	assert.Equal(t, "u1 u2", first[12])
}

func TestExportSkipsRowsAlreadyInSheet(t *testing.T) {
	sheet := &fakeSheet{}
	svc := NewService(sheet, sample(), nil, nil)
	ctx := context.Background()

	_, err := svc.Export(ctx, base, base.Add(30*time.Minute))
	require.NoError(t, err)

	n, err := svc.Export(ctx, base.Add(-time.Hour), base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, sheet.rows, 2)

	n, err = svc.Export(ctx, base.Add(-time.Hour), base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 2, sheet.appends)
}

func TestExportSurfacesSheetErrors(t *testing.T) {
	sheet := &fakeSheet{readErr: errors.New("quota")}
	svc := NewService(sheet, sample(), nil, nil)

	_, err := svc.Export(context.Background(), base, base.Add(time.Hour))
	require.Error(t, err)
	assert.Zero(t, sheet.appends)
}
