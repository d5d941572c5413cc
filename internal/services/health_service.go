package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"csvanalyst/internal/runner"
	"csvanalyst/internal/validation"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	buildID   string
	workDir   string
	runner    runner.Runner
	files     *validation.FileValidator
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// HealthServiceConfig wires a HealthService
type HealthServiceConfig struct {
	Version   string
	BuildTime string
	BuildID   string
	WorkDir   string
	Runner    runner.Runner
	Files     *validation.FileValidator
}

// NewHealthService creates a new health service
func NewHealthService(cfg HealthServiceConfig, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Runner == nil {
		cfg.Runner = runner.UnconfiguredRunner{}
	}
	if cfg.Files == nil {
		cfg.Files = validation.NewFileValidator(logger, 0)
	}

	logger = logger.With(slog.String("component", "health_service"))
	logger.Info("health service initialized",
		slog.String("version", cfg.Version),
		slog.String("build_time", cfg.BuildTime),
		slog.String("build_id", cfg.BuildID),
		slog.Bool("runner_configured", cfg.Runner.Configured()))

	return &HealthService{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		buildID:   cfg.BuildID,
		workDir:   cfg.WorkDir,
		runner:    cfg.Runner,
		files:     cfg.Files,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports whether uploads can be processed. A missing runner
// is reported but does not make the service unready, since previews and
// statistical analyses still work without it.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"work_dir": hs.checkWorkDir(),
			"runner":   hs.checkRunner(),
		},
	}

	if status.Services["work_dir"].Status != "ready" {
		status.Status = "not_ready"
		hs.logger.WarnContext(ctx, "readiness check failed",
			slog.String("work_dir", hs.workDir),
			slog.String("reason", status.Services["work_dir"].Message))
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}

	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.buildID != "" {
		result["build_id"] = hs.buildID
	}

	return result
}

func (hs *HealthService) checkWorkDir() ServiceHealth {
	if hs.workDir == "" {
		return ServiceHealth{Status: "ready", Message: "no work directory configured"}
	}
	if err := hs.files.ValidateOutputDirectory(hs.workDir); err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("work directory unavailable: %v", err),
		}
	}
	return ServiceHealth{Status: "ready", Message: "work directory is writable"}
}

func (hs *HealthService) checkRunner() ServiceHealth {
	if !hs.runner.Configured() {
		return ServiceHealth{
			Status:  "disabled",
			Message: "no analysis runner configured; machine learning, clustering and PCA are unavailable",
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: "analysis runner configured",
		Uptime:  time.Since(hs.startTime).String(),
	}
}
