package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"csvanalyst/internal/runner"
)

// MockRunner is a testify mock for runner.Runner
type MockRunner struct {
	mock.Mock
}

// Run implements runner.Runner
func (m *MockRunner) Run(ctx context.Context, req runner.Request) (*runner.Result, error) {
	args := m.Called(ctx, req)
	if res := args.Get(0); res != nil {
		return res.(*runner.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

// Configured implements runner.Runner
func (m *MockRunner) Configured() bool {
	return m.Called().Bool(0)
}
