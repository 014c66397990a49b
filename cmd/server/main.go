package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/kebunku/internal/config"
	"github.com/mamadbah2/kebunku/internal/domain/models"
	"github.com/mamadbah2/kebunku/internal/media"
	"github.com/mamadbah2/kebunku/internal/media/local"
	"github.com/mamadbah2/kebunku/internal/metrics"
	"github.com/mamadbah2/kebunku/internal/repository"
	"github.com/mamadbah2/kebunku/internal/repository/memory"
	"github.com/mamadbah2/kebunku/internal/repository/mongodb"
	"github.com/mamadbah2/kebunku/internal/repository/sheets"
	"github.com/mamadbah2/kebunku/internal/scheduler"
	"github.com/mamadbah2/kebunku/internal/server/handlers"
	"github.com/mamadbah2/kebunku/internal/server/router"
	activitysvc "github.com/mamadbah2/kebunku/internal/service/activity"
	journalsvc "github.com/mamadbah2/kebunku/internal/service/journal"
	plantsvc "github.com/mamadbah2/kebunku/internal/service/plants"
	preferencesvc "github.com/mamadbah2/kebunku/internal/service/preferences"
	timelinesvc "github.com/mamadbah2/kebunku/internal/service/timeline"
	"github.com/mamadbah2/kebunku/pkg/clients/cloudinary"
	"github.com/mamadbah2/kebunku/pkg/logger"
)

// dataStore is what both document-store backends provide.
type dataStore interface {
	plantsvc.Store
	activitysvc.Store
	preferencesvc.Store
	ListActivities(ctx context.Context, ownerID string) ([]models.Activity, error)
	ListActivitiesCreatedBetween(ctx context.Context, start, end time.Time) ([]models.Activity, error)
	SubscribeActivities(ctx context.Context, ownerID string) (<-chan repository.Snapshot[models.Activity], error)
	SubscribePlants(ctx context.Context, ownerID string) (<-chan repository.Snapshot[models.Plant], error)
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)
	m := metrics.New()

	var store dataStore
	if cfg.MongoDB.URI != "" {
		connectCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		mongoRepo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
		cancel()
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		store = mongoRepo
	} else {
		baseLogger.Warn("MONGODB_URI missing, using in-memory store; data is lost on restart")
		store = memory.New()
	}

	var uploader media.Uploader
	var mediaHandler *handlers.MediaHandler
	switch cfg.Media.Backend {
	case config.MediaBackendCloudinary:
		uploader = cloudinary.NewClient(cfg.Media)
		baseLogger.Info("cloudinary media backend enabled", zap.String("cloud", cfg.Media.CloudinaryCloudName))
	default:
		photos, err := local.NewStore(cfg.Media.LocalPath, cfg.Media.LocalPublicURL, baseLogger.Named("media.local"))
		if err != nil {
			baseLogger.Fatal("failed to init local media store", zap.Error(err))
		}
		uploader = photos
		mediaHandler = handlers.NewMediaHandler(photos, baseLogger.Named("handlers.media"))
	}

	plantSvc := plantsvc.NewService(store, baseLogger.Named("svc.plants"))
	activitySvc := activitysvc.NewService(store, store, uploader, activitysvc.Options{
		UploadTimeout: cfg.Media.UploadTimeout,
		WriteTimeout:  cfg.Persistence.WriteTimeout,
		MaxPhotoBytes: cfg.Media.MaxPhotoBytes,
	}, m, baseLogger.Named("svc.activity"))
	timelineSvc := timelinesvc.NewService(store, m, baseLogger.Named("svc.timeline"))
	preferencesSvc := preferencesvc.NewService(store, baseLogger.Named("svc.preferences"))

	engine := router.New(router.Handlers{
		Plants:      handlers.NewPlantHandler(plantSvc, baseLogger.Named("handlers.plants")),
		Activities:  handlers.NewActivityHandler(activitySvc, timelineSvc, activitysvc.NewRegistry(), cfg.Media.MaxPhotoBytes, baseLogger.Named("handlers.activities")),
		Preferences: handlers.NewPreferencesHandler(preferencesSvc, baseLogger.Named("handlers.preferences")),
		Media:       mediaHandler,
	}, baseLogger.Named("router"))

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		journal := journalsvc.NewService(sheetsRepo, store, m, baseLogger.Named("svc.journal"))

		sched, err := scheduler.NewScheduler(cfg.Journal, journal, baseLogger.Named("scheduler"))
		if err != nil {
			baseLogger.Fatal("failed to init scheduler", zap.Error(err))
		}
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	} else {
		baseLogger.Info("google sheets not configured, journal export disabled")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		baseLogger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		baseLogger.Error("server stopped with error", zap.Error(err))
	}
}
