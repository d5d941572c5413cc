package app

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"csvanalyst/internal/config"
	apierrors "csvanalyst/internal/errors"
	"csvanalyst/internal/exporter"
	"csvanalyst/internal/files"
	"csvanalyst/internal/infrastructure"
	customMiddleware "csvanalyst/internal/middleware"
	"csvanalyst/internal/runner"
	"csvanalyst/internal/services"
	handlers "csvanalyst/internal/transport/http"
	"csvanalyst/internal/validation"
	"csvanalyst/pkg/contracts"
)

// multipartSlack is the request body allowance on top of the upload limit
// for multipart boundaries and the other form fields.
const multipartSlack = 1 << 20

// BuildID is a short identifier for this build
var BuildID = generateBuildID()

func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(contracts.Version))
	h.Write([]byte(contracts.GitCommit))
	h.Write([]byte(contracts.BuildTime))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Options selects the files NewApplication loads configuration from
type Options = config.LoadOptions

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	Services      *ServiceContainer
	OTelProviders *infrastructure.OTelProviders
	ErrorHandler  *apierrors.ErrorHandler
	Sweeper       *files.Sweeper
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Analysis *services.AnalysisService
	Health   *services.HealthService
	Files    *validation.FileValidator
	Structs  *validation.StructValidator
	Runner   runner.Runner
	Metrics  *infrastructure.Metrics
}

// NewApplication loads configuration, initializes the global logger and
// wires the application.
func NewApplication(opts Options) (*Application, error) {
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires an application from an already loaded configuration
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("build_id", BuildID))

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	container, err := NewServiceContainer(cfg, logger, otelProviders)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		Services:      container,
		OTelProviders: otelProviders,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
		Sweeper:       files.NewSweeper(cfg.Paths.WorkDir, cfg.Analysis.WorkFileTTL, logger),
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// NewServiceContainer builds the services shared by the server and the
// command line tools. providers may be nil, in which case telemetry is a
// no-op.
func NewServiceContainer(cfg *config.Config, logger *slog.Logger, providers *infrastructure.OTelProviders) (*ServiceContainer, error) {
	files := validation.NewFileValidator(logger, cfg.Analysis.MaxUploadBytes)
	if err := files.ValidateOutputDirectory(cfg.Paths.WorkDir); err != nil {
		return nil, fmt.Errorf("work directory unusable: %w", err)
	}

	structs := validation.NewStructValidator()

	run := runner.New(runner.ExecConfig{
		Command:        cfg.Analysis.RunnerCommand,
		Args:           cfg.Analysis.RunnerArgs,
		Dir:            cfg.Analysis.RunnerDir,
		Timeout:        cfg.Analysis.RunnerTimeout,
		MaxOutputBytes: cfg.Analysis.MaxOutputBytes,
	}, logger)
	if !run.Configured() {
		logger.Warn("No analysis runner configured; machine learning, clustering and PCA are disabled")
	}

	var (
		metrics *infrastructure.Metrics
		err     error
	)
	analysisCfg := services.AnalysisServiceConfig{
		Files:         files,
		Structs:       structs,
		Writer:        exporter.NewCSVWriter(cfg.Paths.WorkDir, logger),
		Runner:        run,
		PreviewRows:   cfg.Analysis.PreviewRows,
		KeepWorkFiles: cfg.Analysis.KeepWorkFiles,
	}
	if providers != nil {
		metrics, err = infrastructure.NewMetrics(providers.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics: %w", err)
		}
		analysisCfg.Metrics = metrics
		analysisCfg.Tracer = providers.Tracer
	}

	health := services.NewHealthService(services.HealthServiceConfig{
		Version:   config.AppVersion,
		BuildTime: contracts.BuildTime,
		BuildID:   BuildID,
		WorkDir:   cfg.Paths.WorkDir,
		Runner:    run,
		Files:     files,
	}, logger)

	return &ServiceContainer{
		Analysis: services.NewAnalysisService(analysisCfg, logger),
		Health:   health,
		Files:    files,
		Structs:  structs,
		Runner:   run,
		Metrics:  metrics,
	}, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// RequestID → RealIP → OTel → Logger → Recoverer → the rest
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Services.Metrics).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))
	r.Use(customMiddleware.DefaultSecureHeaders().Handler)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
			Logger:         a.Logger,
		}))
	}

	// Prometheus scrapes skip rate limiting and the request deadline
	r.Method(http.MethodGet, "/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.ErrorHandler))

	r.Group(func(r chi.Router) {
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.ErrorHandler,
			).Handler)
		}
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.ErrorHandler))
		if limit := a.Config.Analysis.MaxUploadBytes; limit > 0 {
			r.Use(customMiddleware.MaxBodySize(limit + multipartSlack))
		}

		a.setupAPIRoutes(r)
		a.setupHTMLRoutes(r)
	})

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	analysisHandler := handlers.NewAnalysisHandler(a.Services.Analysis, a.Services.Structs, a.Logger, a.ErrorHandler)
	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)
		r.Mount("/"+contracts.APIVersion, analysisHandler.Routes())
	})
}

// setupHTMLRoutes configures the browser form
func (a *Application) setupHTMLRoutes(r chi.Router) {
	formHandler := handlers.NewFormHandler(a.Services.Analysis, a.Logger)
	r.Get("/", formHandler.Show)
	r.Post("/", formHandler.Submit)
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the HTTP server in the background. A listen failure cancels
// the context through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("address", a.Server.Addr),
		slog.String("work_dir", a.Config.Paths.WorkDir),
		slog.Bool("runner_configured", a.Services.Runner.Configured()),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if interval := a.Config.Analysis.SweepInterval; interval > 0 {
		go a.Sweeper.Run(ctx, interval)
	}

	status := a.Services.Health.ReadinessCheck(ctx)
	if status.Status != "ready" {
		a.Logger.WarnContext(ctx, "Startup readiness check failed",
			slog.Any("services", status.Services))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("url", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted or the server fails
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}
