package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"csvanalyst/internal/analysis"
	"csvanalyst/internal/services"
)

type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Preview(ctx context.Context, upload services.Upload, headerRow int) (*services.PreviewResult, error) {
	args := m.Called(ctx, upload, headerRow)
	if res := args.Get(0); res != nil {
		return res.(*services.PreviewResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAnalysisService) Describe(ctx context.Context, upload services.Upload, req services.DescribeRequest) (*services.DescribeResult, error) {
	args := m.Called(ctx, upload, req)
	if res := args.Get(0); res != nil {
		return res.(*services.DescribeResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAnalysisService) Preprocess(ctx context.Context, upload services.Upload, req services.PreprocessRequest) (*services.PreprocessResult, error) {
	args := m.Called(ctx, upload, req)
	if res := args.Get(0); res != nil {
		return res.(*services.PreprocessResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAnalysisService) Run(ctx context.Context, upload services.Upload, cfg analysis.RunConfig) (*services.RunResult, error) {
	args := m.Called(ctx, upload, cfg)
	if res := args.Get(0); res != nil {
		return res.(*services.RunResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAnalysisService) Options() analysis.Catalogue {
	return analysis.Options()
}

func (m *MockAnalysisService) RunnerConfigured() bool {
	return m.Called().Bool(0)
}

type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) HealthCheck(ctx context.Context) services.HealthStatus {
	return m.Called(ctx).Get(0).(services.HealthStatus)
}

func (m *MockHealthService) ReadinessCheck(ctx context.Context) services.HealthStatus {
	return m.Called(ctx).Get(0).(services.HealthStatus)
}

func (m *MockHealthService) LivenessCheck(ctx context.Context) services.HealthStatus {
	return m.Called(ctx).Get(0).(services.HealthStatus)
}

func (m *MockHealthService) Version() map[string]interface{} {
	return m.Called().Get(0).(map[string]interface{})
}
