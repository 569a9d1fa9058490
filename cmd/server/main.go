package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/labelbridge/backend/internal/bootstrap"
	"github.com/labelbridge/backend/internal/infrastructure/config"
	"github.com/labelbridge/backend/internal/infrastructure/logger"
	"github.com/labelbridge/backend/internal/interfaces/http/handler"
	"github.com/labelbridge/backend/internal/interfaces/http/middleware"
	"github.com/labelbridge/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting label service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", bootstrap.Version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("Error releasing resources", zap.Error(err))
		}
	}()

	// Jobs left printing by a previous process can never finish; fail them now
	recovered, err := app.Printing.RecoverInterrupted(ctx)
	if err != nil {
		log.Error("Failed to recover interrupted print jobs", zap.Error(err))
	} else if recovered > 0 {
		log.Warn("Marked interrupted print jobs as failed", zap.Int("count", recovered))
	}

	if app.Retention != nil {
		if err := app.Retention.Start(ctx); err != nil {
			log.Error("Failed to start retention sweeper", zap.Error(err))
		}
	}

	engine, err := newEngine(app)
	if err != nil {
		log.Fatal("Failed to set up HTTP routes", zap.Error(err))
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Graceful shutdown
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		log.Error("Server failed", zap.Error(err))
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if app.Retention != nil {
		if err := app.Retention.Stop(shutdownCtx); err != nil {
			log.Warn("Retention sweeper stop timed out", zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}

// newEngine builds the gin engine with the middleware stack and every route
func newEngine(app *bootstrap.App) (*gin.Engine, error) {
	cfg := app.Config
	log := app.Logger

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	httpMetrics, err := middleware.HTTPMetrics(app.Collector.Registry())
	if err != nil {
		return nil, err
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSOrigins

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanAttributes(),
		middleware.CORSWithConfig(cors),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
		httpMetrics,
	)

	systemHandler := handler.NewSystemHandler(cfg.App.Name, bootstrap.Version, map[string]handler.HealthCheck{
		"database": func(context.Context) error { return app.DB.Ping() },
	})
	engine.GET("/health", systemHandler.Health)
	if cfg.Telemetry.MetricsEnabled {
		engine.GET("/metrics", gin.WrapH(app.Collector.Handler()))
	}

	r := router.NewRouter(engine)
	if cfg.Auth.Enabled {
		jwtCfg := middleware.DefaultJWTConfig(app.Tokens)
		jwtCfg.Logger = log
		r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtCfg))
	}

	printJobs := handler.NewPrintJobHandler(app.Printing, log)
	r.Register(handler.LabelRoutes(handler.NewLabelHandler(app.Labels))).
		Register(handler.ProfileRoutes(handler.NewProfileHandler(app.Profiles))).
		Register(handler.PrintJobRoutes(printJobs)).
		Register(handler.PrinterRoutes(printJobs)).
		Register(handler.SystemRoutes(systemHandler))
	r.Setup()

	return engine, nil
}
