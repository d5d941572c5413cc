package http

import (
	"context"

	"csvanalyst/internal/analysis"
	"csvanalyst/internal/services"
)

// AnalysisServiceInterface defines the dataset operations the handlers use
type AnalysisServiceInterface interface {
	Preview(ctx context.Context, upload services.Upload, headerRow int) (*services.PreviewResult, error)
	Describe(ctx context.Context, upload services.Upload, req services.DescribeRequest) (*services.DescribeResult, error)
	Preprocess(ctx context.Context, upload services.Upload, req services.PreprocessRequest) (*services.PreprocessResult, error)
	Run(ctx context.Context, upload services.Upload, cfg analysis.RunConfig) (*services.RunResult, error)
	Options() analysis.Catalogue
	RunnerConfigured() bool
}

// HealthServiceInterface defines the probes the health handler serves
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}
