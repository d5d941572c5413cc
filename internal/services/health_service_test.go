package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csvanalyst/internal/shared/testutil"
)

func TestHealthService_HealthCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthService(HealthServiceConfig{Version: "1.2.3"}, logger)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.False(t, status.Timestamp.IsZero())
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	blocked := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	tests := []struct {
		name       string
		workDir    string
		configured bool
		wantStatus string
		wantRunner string
	}{
		{"writable work dir with runner", t.TempDir(), true, "ready", "ready"},
		{"runner missing stays ready", t.TempDir(), false, "ready", "disabled"},
		{"work dir under a file", filepath.Join(blocked, "work"), true, "not_ready", "ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr := &MockRunner{}
			mr.On("Configured").Return(tt.configured)
			logger, _ := testutil.NewTestLogger(t)
			hs := NewHealthService(HealthServiceConfig{Version: "1.0.0", WorkDir: tt.workDir, Runner: mr}, logger)

			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, tt.wantRunner, status.Services["runner"].Status)
			assert.Contains(t, status.Services, "work_dir")
		})
	}
}

func TestHealthService_LivenessAndVersion(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	hs := NewHealthService(HealthServiceConfig{Version: "1.0.0", BuildTime: "2026-01-01", BuildID: "abc"}, logger)
	assert.True(t, logs.ContainsMessage("health service initialized"))

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	v := hs.Version()
	assert.Equal(t, "1.0.0", v["version"])
	assert.Equal(t, "2026-01-01", v["build_time"])
	assert.Equal(t, "abc", v["build_id"])
}
