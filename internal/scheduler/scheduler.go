package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/kebunku/internal/config"
)

// initialWindow is how far back the first export after startup reaches.
const initialWindow = 24 * time.Hour

// Exporter writes the activities created in a window to the journal.
type Exporter interface {
	Export(ctx context.Context, start, end time.Time) (int, error)
}

// Scheduler runs the journal export on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	exporter Exporter
	schedule string
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	lastEnd time.Time
}

// NewScheduler creates a new scheduler instance in the journal's timezone.
func NewScheduler(cfg config.JournalConfig, exporter Exporter, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", cfg.Timezone, err)
	}

	// robfig/cron/v3 default parser is standard cron (5 fields: min, hour, dom, month, dow).
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:     c,
		exporter: exporter,
		schedule: cfg.CronSchedule,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start registers the export job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.exportJournal); err != nil {
		return fmt.Errorf("failed to schedule journal export: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running export to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) exportJournal() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("failed to export journal", zap.Error(err))
	}
}

// RunOnce exports everything created since the previous successful run, or
// in the last day on the first run. A failed run leaves the window open so
// the next run retries it.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	end := s.now()
	start := s.lastEnd
	if start.IsZero() {
		start = end.Add(-initialWindow)
	}

	s.logger.Info("exporting journal", zap.Time("start", start), zap.Time("end", end))
	n, err := s.exporter.Export(ctx, start, end)
	if err != nil {
		return 0, err
	}
	s.lastEnd = end
	s.logger.Info("journal export finished", zap.Int("rows", n))
	return n, nil
}
