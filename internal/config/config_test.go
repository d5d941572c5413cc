package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	base := t.TempDir()
	t.Setenv("CSVA_PATHS_BASE_DIR", base)

	cfg, err := Load(LoadOptions{EnvFiles: []string{filepath.Join(base, "missing.env")}})
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, filepath.Join(base, "work"), cfg.Paths.WorkDir)
	assert.Equal(t, filepath.Join(base, "logs"), cfg.Paths.LogsDir)
	assert.Equal(t, filepath.Join(base, "logs", "app.log"), cfg.Logging.FilePath)
	assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.Analysis.MaxUploadBytes)
	assert.Equal(t, DefaultPreviewRows, cfg.Analysis.PreviewRows)
	assert.Equal(t, DefaultRunnerTimeout, cfg.Analysis.RunnerTimeout)
	assert.False(t, cfg.RunnerEnabled())
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
}

func TestLoad_Precedence(t *testing.T) {
	base := t.TempDir()
	file := writeFile(t, base, "config.yaml", `
server:
  port: 9000
  read_timeout: 5s
logging:
  level: debug
analysis:
  preview_rows: 10
  runner_command: python3
  runner_args: ["-m", "combinedpackmsnk"]
`)
	t.Setenv("CSVA_PATHS_BASE_DIR", base)
	t.Setenv("CSVA_SERVER_PORT", "9100")
	t.Setenv("CSVA_ANALYSIS_RUNNER_TIMEOUT", "90s")

	cfg, err := Load(LoadOptions{ConfigFile: file, EnvFiles: []string{filepath.Join(base, "none.env")}})
	require.NoError(t, err)

	// env beats file
	assert.Equal(t, 9100, cfg.Server.Port)
	// file beats defaults
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Analysis.PreviewRows)
	assert.Equal(t, []string{"-m", "combinedpackmsnk"}, cfg.Analysis.RunnerArgs)
	assert.Equal(t, 90*time.Second, cfg.Analysis.RunnerTimeout)
	assert.True(t, cfg.RunnerEnabled())
	// untouched keys keep defaults
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
}

func TestLoad_EnvFile(t *testing.T) {
	base := t.TempDir()
	envFile := writeFile(t, base, "test.env", "CSVA_ANALYSIS_RUNNER_COMMAND=analysis-runner\nCSVA_ANALYSIS_RUNNER_ARGS=--fast,--seed=1\n")
	t.Setenv("CSVA_PATHS_BASE_DIR", base)
	// registered so the variables set by godotenv are restored after the test
	t.Setenv("CSVA_ANALYSIS_RUNNER_COMMAND", "")
	t.Setenv("CSVA_ANALYSIS_RUNNER_ARGS", "")
	os.Unsetenv("CSVA_ANALYSIS_RUNNER_COMMAND")
	os.Unsetenv("CSVA_ANALYSIS_RUNNER_ARGS")

	cfg, err := Load(LoadOptions{EnvFiles: []string{envFile}})
	require.NoError(t, err)

	assert.Equal(t, "analysis-runner", cfg.Analysis.RunnerCommand)
	assert.Equal(t, []string{"--fast", "--seed=1"}, cfg.Analysis.RunnerArgs)
}

func TestLoad_Errors(t *testing.T) {
	base := t.TempDir()
	t.Setenv("CSVA_PATHS_BASE_DIR", base)
	noEnv := []string{filepath.Join(base, "none.env")}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(LoadOptions{ConfigFile: filepath.Join(base, "nope.yaml"), EnvFiles: noEnv})
		assert.ErrorContains(t, err, "failed to load config from file")
	})

	t.Run("bad yaml", func(t *testing.T) {
		file := writeFile(t, base, "bad.yaml", "server: [port")
		_, err := Load(LoadOptions{ConfigFile: file, EnvFiles: noEnv})
		assert.ErrorContains(t, err, "failed to load config from file")
	})

	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("CSVA_SERVER_PORT", "eighty")
		_, err := Load(LoadOptions{EnvFiles: noEnv})
		assert.ErrorContains(t, err, "failed to load config from env")
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("CSVA_ANALYSIS_PREVIEW_ROWS", "0")
		_, err := Load(LoadOptions{EnvFiles: noEnv})
		assert.ErrorContains(t, err, "preview rows must be positive")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "invalid server port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, "read timeout"},
		{"write timeout", func(c *Config) { c.Server.WriteTimeout = -1 }, "write timeout"},
		{"cors without origins", func(c *Config) { c.Security.AllowedOrigins = nil }, "allowed origin"},
		{"no cors no origins", func(c *Config) {
			c.Security.EnableCORS = false
			c.Security.AllowedOrigins = nil
		}, ""},
		{"rate limit", func(c *Config) { c.Security.RateLimit.RPS = 0 }, "rate limit"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "invalid log format"},
		{"log output", func(c *Config) { c.Logging.Output = "syslog" }, "invalid log output"},
		{"file output needs path", func(c *Config) {
			c.Logging.Output = "both"
			c.Logging.FilePath = ""
		}, "log file path"},
		{"work dir", func(c *Config) { c.Paths.WorkDir = "" }, "work directory"},
		{"upload size", func(c *Config) { c.Analysis.MaxUploadBytes = 0 }, "max upload bytes"},
		{"runner timeout", func(c *Config) { c.Analysis.RunnerTimeout = 0 }, "runner timeout"},
		{"trace exporter", func(c *Config) { c.Telemetry.TraceExporter = "jaeger" }, "invalid trace exporter"},
		{"negative sweep interval", func(c *Config) { c.Analysis.SweepInterval = -time.Minute }, "sweep interval"},
		{"sweep without ttl", func(c *Config) { c.Analysis.WorkFileTTL = 0 }, "work file ttl"},
		{"no sweep no ttl", func(c *Config) {
			c.Analysis.SweepInterval = 0
			c.Analysis.WorkFileTTL = 0
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestResolvePaths(t *testing.T) {
	base := t.TempDir()
	abs := filepath.Join(t.TempDir(), "elsewhere")

	cfg := Default()
	cfg.Paths.BaseDir = base
	cfg.Paths.WorkDir = abs
	cfg.Logging.FilePath = "/var/log/csva.log"
	require.NoError(t, cfg.resolvePaths())

	assert.Equal(t, abs, cfg.Paths.WorkDir)
	assert.Equal(t, filepath.Join(base, "logs"), cfg.Paths.LogsDir)
	assert.Equal(t, "/var/log/csva.log", cfg.Logging.FilePath)

	require.NoError(t, cfg.EnsureDirectories())
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestUsage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Usage(&buf))
	assert.Contains(t, buf.String(), "CSVA_ANALYSIS_RUNNER_COMMAND")
	assert.Contains(t, buf.String(), "CSVA_SERVER_PORT")
}
