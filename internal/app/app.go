package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"aadhaarpulse/internal/analytics"
	"aadhaarpulse/internal/anomaly"
	"aadhaarpulse/internal/config"
	"aadhaarpulse/internal/datagov"
	"aadhaarpulse/internal/dataset"
	apierrors "aadhaarpulse/internal/errors"
	"aadhaarpulse/internal/exporter"
	"aadhaarpulse/internal/forecast"
	"aadhaarpulse/internal/infrastructure"
	"aadhaarpulse/internal/insights"
	customMiddleware "aadhaarpulse/internal/middleware"
	"aadhaarpulse/internal/services"
	handlers "aadhaarpulse/internal/transport/http"
)

const (
	// VERSION identifies the running build in health and version responses
	VERSION = "1.0.0"
	// AppName is the human readable service name used in startup logs
	AppName = "AadhaarPulse Analytics Backend"
)

// BuildTime is set at compile time via -ldflags
var BuildTime = ""

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *customMiddleware.Metrics

	Repository *dataset.Repository
	Aggregator *analytics.Aggregator
	Detector   *anomaly.Detector
	Forecaster *forecast.Engine
	Insights   *insights.Engine
	Exporter   *exporter.Service
	Health     *services.HealthService

	districtRNG *rand.Rand

	Router chi.Router
	Server *http.Server
}

// NewApplication creates and wires the full application container
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	providers, err := infrastructure.InitializeOTel(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	metrics, err := customMiddleware.NewMetrics(providers)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the domain services in dependency order
func (a *Application) initializeServices() {
	cfg := a.Config

	seed := cfg.Analytics.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// A live client is only wired when an API key is configured; without
	// one the repository goes straight to the synthetic generator.
	var fetcher dataset.Fetcher
	if cfg.DataGov.APIKey != "" {
		fetcher = datagov.NewClient(cfg.DataGov, a.Logger)
	}

	gen := dataset.NewGenerator(rand.New(rand.NewSource(seed)))
	a.Repository = dataset.New(fetcher, cfg.DataGov.EnrolmentResourceID, cfg.DataGov.MaxRecords, gen, a.Logger)

	a.Aggregator = analytics.NewAggregator(a.Repository, rand.New(rand.NewSource(seed+1)), a.Logger)
	a.Detector = anomaly.NewDetector(a.Repository, nil, cfg.Analytics.ZScoreThreshold, a.Logger)
	a.Forecaster = forecast.NewEngine(a.Repository, cfg.Analytics.ForecastHorizonMonths, rand.New(rand.NewSource(seed+2)), a.Logger)
	a.Insights = insights.NewEngine(a.Repository, a.Aggregator, insights.NoopGenerator{}, a.Logger)
	a.Exporter = exporter.NewService(a.Repository, a.Detector, cfg.Exports.Dir, a.Logger)
	a.Health = services.NewHealthService(VERSION, BuildTime, a.Repository, a.Logger)
	a.districtRNG = rand.New(rand.NewSource(seed + 3))

	business := a.Metrics.Business()
	a.Repository.SetInstruments(dataset.Instruments{
		RefreshTotal:    business.DataRefreshTotal,
		RefreshDuration: business.DataRefreshDuration,
		Records:         business.DatasetRecords,
	})
	a.Detector.SetInstruments(business.AnomaliesDetected)
	a.Forecaster.SetInstruments(business.ForecastsGenerated)
	a.Exporter.SetInstruments(business.ExportsGenerated)
}

// setupRouter configures the HTTP router with the full middleware chain
// and all API routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(a.Metrics.Handler)

	if a.Config.Security.RateLimit.Enabled {
		limiter := customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		)
		r.Use(limiter.Handler)
	}

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.getCORSConfig()))
	}

	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.Compress(5))
	r.Use(customMiddleware.StripSlashes)

	a.setupAPIRoutes(r)

	a.Router = r
}

// setupAPIRoutes mounts the versioned API, the health endpoints and the
// Prometheus scrape endpoint
func (a *Application) setupAPIRoutes(r chi.Router) {
	errorHandler := apierrors.NewErrorHandler(a.Logger)

	overview := handlers.NewOverviewHandler(a.Aggregator, a.Logger, errorHandler)
	enrolments := handlers.NewEnrolmentHandler(a.Aggregator, a.Repository, a.Logger, errorHandler)
	updates := handlers.NewUpdateHandler(a.Aggregator, a.Repository, a.Logger, errorHandler)
	anomalies := handlers.NewAnomalyHandler(a.Detector, a.Logger, errorHandler)
	forecasts := handlers.NewForecastHandler(a.Forecaster, a.Logger, errorHandler)
	insightAPI := handlers.NewInsightHandler(a.Insights, a.Logger, errorHandler)
	geography := handlers.NewGeographyHandler(a.Aggregator, a.Repository, a.districtRNG, a.Logger, errorHandler)
	exports := handlers.NewExportHandler(a.Exporter, a.Logger, errorHandler)
	health := handlers.NewHealthHandler(a.Health, a.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/overview", overview.Routes())
		r.Mount("/enrolments", enrolments.Routes())
		r.Mount("/updates", updates.Routes())
		r.Mount("/anomalies", anomalies.Routes())
		r.Mount("/forecasts", forecasts.Routes())
		r.Mount("/insights", insightAPI.Routes())
		r.Mount("/geography", geography.Routes())
		r.Mount("/exports", exports.Routes())
	})

	r.Route("/api/health", func(r chi.Router) {
		r.Get("/", health.HealthCheck)
		r.Get("/ready", health.ReadinessCheck)
		r.Get("/live", health.LivenessCheck)
	})
	r.Get("/api/version", health.Version)
	r.Get("/healthz", health.HealthCheck)

	r.Method("GET", "/metrics", a.OTelProviders.PrometheusHTTP)
}

// getCORSConfig builds the CORS configuration from the security settings
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		Logger:         a.Logger,
	}
}

// createServer builds the HTTP server from the server configuration
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run loads the dataset and serves HTTP until interrupted
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Logger.InfoContext(ctx, "starting application",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level),
	)

	a.Repository.Initialize(ctx)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(ctx, "application started",
			slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)),
			slog.String("data_source", string(a.Repository.Source())),
		)
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "error shutting down telemetry", slog.String("error", err.Error()))
		}
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		a.Logger.ErrorContext(ctx, "error closing log file", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}
