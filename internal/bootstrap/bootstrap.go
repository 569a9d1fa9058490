// Package bootstrap assembles the label service from configuration. The HTTP server and
// the labelctl command share it so both run the same rasterizer chain, spooler and quota gate.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	labelingapp "github.com/labelbridge/backend/internal/application/labeling"
	printingapp "github.com/labelbridge/backend/internal/application/printing"
	"github.com/labelbridge/backend/internal/domain/printing"
	"github.com/labelbridge/backend/internal/infrastructure/auth"
	"github.com/labelbridge/backend/internal/infrastructure/config"
	"github.com/labelbridge/backend/internal/infrastructure/labelimage"
	"github.com/labelbridge/backend/internal/infrastructure/logger"
	"github.com/labelbridge/backend/internal/infrastructure/persistence"
	"github.com/labelbridge/backend/internal/infrastructure/profiles"
	"github.com/labelbridge/backend/internal/infrastructure/quota"
	"github.com/labelbridge/backend/internal/infrastructure/rendering"
	"github.com/labelbridge/backend/internal/infrastructure/scheduler"
	"github.com/labelbridge/backend/internal/infrastructure/spool"
	"github.com/labelbridge/backend/internal/infrastructure/storage"
	"github.com/labelbridge/backend/internal/infrastructure/telemetry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Version is reported by the system endpoints and the tracer resource
var Version = "dev"

// App holds the assembled components
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        *persistence.Database
	Collector *telemetry.Collector
	Tracer    *telemetry.TracerProvider
	Profiles  *profiles.Registry
	Store     *storage.LabelStore
	Spooler   spool.Spooler
	Labels    *labelingapp.Service
	Printing  *printingapp.Service
	Tokens    *auth.JWTService
	// Retention is nil when labels are kept forever
	Retention *scheduler.RetentionSweeper

	closers []func() error
}

// New connects the database and builds every service. Close releases what New opened.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (app *App, err error) {
	if log == nil {
		log = zap.NewNop()
	}
	app = &App{
		Config:    cfg,
		Logger:    log,
		Collector: telemetry.NewCollector(),
	}
	defer func() {
		if err != nil {
			_ = app.Close()
			app = nil
		}
	}()

	app.Tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return app, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	app.closers = append(app.closers, func() error { return app.Tracer.Shutdown(context.Background()) })

	if err := app.openDatabase(); err != nil {
		return app, err
	}

	app.Store, err = storage.NewLabelStore(storage.LabelStoreConfig{
		BasePath:     cfg.Storage.BasePath,
		WorkspaceDir: cfg.Storage.WorkspaceDir,
		Logger:       log,
	})
	if err != nil {
		return app, fmt.Errorf("failed to initialize label store: %w", err)
	}

	rasterizer, text := app.buildRasterizers()
	source := profiles.NewSource(profiles.SourceConfig{Rasterizer: rasterizer, Text: text, Logger: log})
	app.Profiles, err = buildProfiles(cfg.Profiles, source, log)
	if err != nil {
		return app, fmt.Errorf("failed to build profile registry: %w", err)
	}

	labelOpts, err := app.labelingOptions(ctx, rasterizer)
	if err != nil {
		return app, err
	}
	app.Labels, err = labelingapp.NewService(
		persistence.NewGormSaleReader(app.DB.DB),
		persistence.NewGormPreparedLabelRepository(app.DB.DB),
		app.Profiles,
		app.Store,
		labelOpts...,
	)
	if err != nil {
		return app, fmt.Errorf("failed to create labeling service: %w", err)
	}

	if err := app.buildPrinting(); err != nil {
		return app, err
	}

	app.Tokens = auth.NewJWTService(cfg.Auth)

	if cfg.Storage.RetentionDays > 0 {
		maxAge := time.Duration(cfg.Storage.RetentionDays) * 24 * time.Hour
		app.Retention, err = scheduler.NewRetentionSweeper(scheduler.DefaultRetentionConfig(maxAge), app.Store, log)
		if err != nil {
			return app, err
		}
	}

	return app, nil
}

func (a *App) openDatabase() error {
	cfg := a.Config
	gormLog := logger.NewGormLogger(a.Logger, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		return err
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(); err != nil {
			return fmt.Errorf("failed to auto-migrate: %w", err)
		}
	}

	tracing := telemetry.DefaultDBTracingConfig()
	tracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	tracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	tracing.DBSystem = db.Driver
	if err := telemetry.RegisterDBTracing(db.DB, tracing, a.Logger); err != nil {
		return fmt.Errorf("failed to register database tracing: %w", err)
	}

	a.Logger.Info("Database connected", zap.String("driver", db.Driver))
	return nil
}

// buildRasterizers returns the label rasterizer chain and the text extractor.
// The in-process MuPDF backend is always last so a document never lacks a renderer.
func (a *App) buildRasterizers() (rendering.Rasterizer, rendering.TextExtractor) {
	cfg := a.Config.Rendering
	fitz := rendering.NewFitzRasterizer()

	var backends []rendering.Rasterizer
	if cfg.PdftoppmEnabled {
		backends = append(backends, rendering.NewPdftoppmRasterizer(&rendering.PdftoppmConfig{
			BinaryPath: cfg.PdftoppmPath,
			Timeout:    cfg.Timeout,
			TempDir:    cfg.TempDir,
			Logger:     a.Logger,
		}))
	}
	if cfg.ChromeEnabled {
		chrome := rendering.NewChromedpRasterizer(&rendering.ChromedpConfig{
			Timeout:   cfg.Timeout,
			RemoteURL: cfg.ChromeRemoteURL,
			NoSandbox: cfg.ChromeNoSandbox,
			Logger:    a.Logger,
		})
		a.closers = append(a.closers, chrome.Close)
		backends = append(backends, chrome)
	}
	backends = append(backends, fitz)

	chain := rendering.NewChain(a.Logger, backends, rendering.WithFailureObserver(a.Collector.RecordRenderFailure))
	a.Logger.Info("Rasterizer chain ready", zap.Strings("backends", chain.Backends()))
	return chain, fitz
}

func buildProfiles(cfg config.ProfilesConfig, source *profiles.Source, log *zap.Logger) (*profiles.Registry, error) {
	specific := []profiles.Profile{
		profiles.NewQuadrantProfile(cfg.QuadrantCarriers, cfg.QuadrantMarketplaces, cfg.TextDetection, source),
		profiles.NewHalfRotatedProfile(cfg.HalfRotatedCarriers, cfg.HalfRotatedMarketplaces, cfg.TextDetection, source),
	}
	opts := []profiles.RegistryOption{profiles.WithLogger(log)}
	if cfg.TextDetection {
		opts = append(opts, profiles.WithCarrierDiscovery(source))
	}
	return profiles.NewRegistry(profiles.NewUniversalProfile(source), specific, opts...)
}

func (a *App) labelingOptions(ctx context.Context, thumbnails rendering.Rasterizer) ([]labelingapp.Option, error) {
	cfg := a.Config
	style := labelimage.DefaultFooterStyle()
	if cfg.Footer.Separator != "" {
		style.Separator = cfg.Footer.Separator
	}
	if cfg.Footer.DateLayout != "" {
		style.DateLayout = cfg.Footer.DateLayout
	}
	compositor, err := labelimage.NewCompositor(style)
	if err != nil {
		return nil, fmt.Errorf("failed to create footer compositor: %w", err)
	}

	opts := []labelingapp.Option{
		labelingapp.WithCompositor(compositor),
		labelingapp.WithPDFWriter(labelimage.NewPDFWriter(cfg.App.Name)),
		labelingapp.WithThumbnailRasterizer(thumbnails),
		labelingapp.WithMetrics(a.Collector),
		labelingapp.WithAttachmentsDir(cfg.Storage.AttachmentsDir),
		labelingapp.WithLogger(a.Logger),
	}

	if cfg.Archive.Enabled {
		archive, err := storage.NewS3Archive(&cfg.Archive, storage.WithLogger(a.Logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create label archive: %w", err)
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare archive bucket: %w", err)
		}
		opts = append(opts, labelingapp.WithArchive(archive))
		a.Logger.Info("Label archive enabled", zap.String("bucket", archive.Bucket()))
	}
	return opts, nil
}

func (a *App) buildPrinting() error {
	cfg := a.Config
	// lp and PrintTo run under the service's per-label submit timeout
	native, err := spool.NewSystemSpooler(runtime.GOOS, &spool.ExecRunner{}, cfg.Printing.ListTimeout, a.Logger)
	if err != nil {
		return err
	}
	a.Spooler = native

	submitters := []printing.Submitter{native}
	if cfg.Printing.ExternalTool != "" {
		tool := spool.NewExternalToolSubmitter(cfg.Printing.ExternalTool, cfg.Printing.ExternalToolArgs, &spool.ExecRunner{}, a.Logger)
		submitters = append([]printing.Submitter{tool}, submitters...)
	}
	submitter := spool.NewSubmitterChain(a.Logger, submitters...).WithObserver(a.Collector.RecordSubmitterFailure)

	gate, err := a.quotaGate()
	if err != nil {
		return err
	}

	a.Printing = printingapp.NewService(
		persistence.NewGormPrintJobRepository(a.DB.DB),
		persistence.NewGormPreparedLabelRepository(a.DB.DB),
		a.Store,
		native,
		submitter,
		printingapp.WithQueuePurger(native),
		printingapp.WithQuotaGate(gate),
		printingapp.WithMetrics(a.Collector),
		printingapp.WithSubmitTimeout(cfg.Printing.SubmitTimeout),
		printingapp.WithRecentLimit(cfg.Printing.RecentJobsLimit),
		printingapp.WithLogger(a.Logger),
	)
	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return a.Printing.Shutdown(ctx)
	})
	return nil
}

func (a *App) quotaGate() (printing.QuotaGate, error) {
	cfg := a.Config
	if cfg.Quota.Mode != config.QuotaModeRedis {
		return quota.Unlimited{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	a.closers = append(a.closers, client.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	a.Logger.Info("Quota gate enabled",
		zap.String("redis", cfg.Redis.Addr()),
		zap.Int64("monthlyLimit", cfg.Quota.MonthlyLimit))
	return quota.NewRedisGate(client, cfg.Quota.MonthlyLimit,
		quota.WithKeyPrefix(cfg.Quota.KeyPrefix),
		quota.WithLogger(a.Logger),
	), nil
}

// Close releases resources in reverse order of acquisition. The print service is
// shut down first so running jobs persist their state before the database closes.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
