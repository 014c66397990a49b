// Package journal mirrors newly logged activities into a spreadsheet.
package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/kebunku/internal/domain/models"
	"github.com/mamadbah2/kebunku/internal/metrics"
)

const (
	journalRange = "Journal!A:M"
	idRange      = "Journal!A:A"
)

// Sheet is the spreadsheet surface the export writes to.
type Sheet interface {
	AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error
	ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error)
}

// ActivitySource lists activities across every owner by creation time.
type ActivitySource interface {
	ListActivitiesCreatedBetween(ctx context.Context, start, end time.Time) ([]models.Activity, error)
}

// Service exports activity rows to the journal sheet.
type Service struct {
	sheet   Sheet
	source  ActivitySource
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService wires a new journal service instance.
func NewService(sheet Sheet, source ActivitySource, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{sheet: sheet, source: source, metrics: m, logger: logger}
}

// Export appends every activity created in [start, end) that the sheet does
// not hold yet and returns how many rows were written.
func (s *Service) Export(ctx context.Context, start, end time.Time) (int, error) {
	activities, err := s.source.ListActivitiesCreatedBetween(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("load activities: %w", err)
	}
	if len(activities) == 0 {
		s.logger.Debug("no activities to export", zap.Time("start", start), zap.Time("end", end))
		return 0, nil
	}

	existing, err := s.sheet.ReadRange(ctx, idRange)
	if err != nil {
		return 0, fmt.Errorf("load exported ids: %w", err)
	}
	seen := make(map[string]struct{}, len(existing))
	for _, row := range existing {
		if len(row) > 0 {
			seen[fmt.Sprint(row[0])] = struct{}{}
		}
	}

	rows := make([][]interface{}, 0, len(activities))
	for _, a := range activities {
		if _, ok := seen[a.ID]; ok {
			continue
		}
		rows = append(rows, toRow(a))
	}
	if len(rows) == 0 {
		return 0, nil
	}

	if err := s.sheet.AppendRows(ctx, journalRange, rows); err != nil {
		return 0, fmt.Errorf("append journal rows: %w", err)
	}
	if s.metrics != nil {
		s.metrics.JournalRows.Add(float64(len(rows)))
	}
	s.logger.Info("journal exported", zap.Int("rows", len(rows)), zap.Int("skipped", len(activities)-len(rows)))
	return len(rows), nil
}

func toRow(a models.Activity) []interface{} {
	return []interface{}{
		a.ID,
		a.CreatedAt.UTC().Format(time.RFC3339),
		a.Date.Format(models.LogicalDateLayout),
		a.UserID,
		string(a.TargetScope),
		a.TargetValue,
		string(a.Type),
		a.ProductName,
		a.Dosis,
		a.Volume,
		string(a.Method),
		string(a.Condition),
		strings.Join(a.Photos(), " "),
	}
}
