package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load
const EnvPrefix = "CSVA"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST" desc:"listen host"`
	Port            int           `yaml:"port" envconfig:"PORT" desc:"listen port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	// RequestTimeout bounds a whole request, runner call included
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" desc:"debug, info, warn or error"`
	Format      string `yaml:"format" envconfig:"FORMAT" desc:"json or text"`
	Output      string `yaml:"output" envconfig:"OUTPUT" desc:"console, file or both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths. Relative directories are resolved
// against BaseDir, which defaults to the working directory.
type PathsConfig struct {
	BaseDir string `yaml:"base_dir" envconfig:"BASE_DIR"`
	WorkDir string `yaml:"work_dir" envconfig:"WORK_DIR" desc:"directory for per-run working files"`
	LogsDir string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// AnalysisConfig controls uploads and the external analysis runner
type AnalysisConfig struct {
	MaxUploadBytes int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
	PreviewRows    int           `yaml:"preview_rows" envconfig:"PREVIEW_ROWS"`
	RunnerCommand  string        `yaml:"runner_command" envconfig:"RUNNER_COMMAND" desc:"executable for delegated analyses; empty disables them"`
	RunnerArgs     []string      `yaml:"runner_args" envconfig:"RUNNER_ARGS"`
	RunnerDir      string        `yaml:"runner_dir" envconfig:"RUNNER_DIR"`
	RunnerTimeout  time.Duration `yaml:"runner_timeout" envconfig:"RUNNER_TIMEOUT"`
	MaxOutputBytes int           `yaml:"max_output_bytes" envconfig:"MAX_OUTPUT_BYTES"`
	KeepWorkFiles  bool          `yaml:"keep_work_files" envconfig:"KEEP_WORK_FILES"`
	// Working files older than WorkFileTTL are swept every SweepInterval;
	// a zero interval disables sweeping
	WorkFileTTL    time.Duration `yaml:"work_file_ttl" envconfig:"WORK_FILE_TTL"`
	SweepInterval  time.Duration `yaml:"sweep_interval" envconfig:"SWEEP_INTERVAL"`
}

// TelemetryConfig controls tracing and metrics
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" desc:"none or stdout"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// LoadOptions selects the optional files Load reads
type LoadOptions struct {
	// ConfigFile is a YAML file; when empty the usual locations are searched
	ConfigFile string
	// EnvFiles are dotenv files loaded before the environment is read
	EnvFiles []string
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment, in increasing order of precedence.
func Load(opts LoadOptions) (*Config, error) {
	if err := loadEnvFiles(opts.EnvFiles); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}

	cfg := Default()

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = os.Getenv(EnvPrefix + "_CONFIG_FILE")
	}
	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Usage writes the environment variables Load understands
func Usage(w io.Writer) error {
	return envconfig.Usagef(EnvPrefix, Default(), w, envconfig.DefaultTableFormat)
}

// loadEnvFiles loads dotenv files. Missing files are skipped and variables
// already present in the environment are never overridden.
func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("%s: %w", f, err)
		}
	}
	return nil
}

// loadFromFile overlays a YAML file onto cfg. Keys absent from the file keep
// their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%s: %w", filePath, err)
	}
	return nil
}

// resolvePaths makes every configured directory absolute
func (c *Config) resolvePaths() error {
	if c.Paths.BaseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		c.Paths.BaseDir = wd
	}
	base, err := filepath.Abs(c.Paths.BaseDir)
	if err != nil {
		return err
	}
	c.Paths.BaseDir = base
	c.Paths.WorkDir = c.resolve(c.Paths.WorkDir)
	c.Paths.LogsDir = c.resolve(c.Paths.LogsDir)
	if c.Logging.FilePath != "" && !filepath.IsAbs(c.Logging.FilePath) {
		c.Logging.FilePath = filepath.Join(c.Paths.LogsDir, c.Logging.FilePath)
	}
	return nil
}

func (c *Config) resolve(dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(c.Paths.BaseDir, dir)
}

// EnsureDirectories creates the work and logs directories
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// RunnerEnabled reports whether delegated analyses can run
func (c *Config) RunnerEnabled() bool {
	return strings.TrimSpace(c.Analysis.RunnerCommand) != ""
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified when CORS is enabled")
	}

	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}

	switch c.Logging.Output {
	case "console":
	case "file", "both":
		if c.Logging.FilePath == "" {
			return fmt.Errorf("log file path is required for output %q", c.Logging.Output)
		}
	default:
		return fmt.Errorf("invalid log output: %q", c.Logging.Output)
	}

	if c.Paths.WorkDir == "" {
		return fmt.Errorf("work directory must be set")
	}

	if c.Analysis.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}

	if c.Analysis.PreviewRows <= 0 {
		return fmt.Errorf("preview rows must be positive")
	}

	if c.Analysis.RunnerTimeout <= 0 {
		return fmt.Errorf("runner timeout must be positive")
	}

	if c.Analysis.SweepInterval < 0 {
		return fmt.Errorf("sweep interval must not be negative: %s", c.Analysis.SweepInterval)
	}
	if c.Analysis.SweepInterval > 0 && c.Analysis.WorkFileTTL <= 0 {
		return fmt.Errorf("work file ttl must be positive when sweeping is enabled")
	}

	switch c.Telemetry.TraceExporter {
	case "none", "stdout":
	default:
		return fmt.Errorf("invalid trace exporter: %q", c.Telemetry.TraceExporter)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    6 * time.Minute,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  6 * time.Minute,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "app.log",
		},
		Paths: PathsConfig{
			WorkDir: "work",
			LogsDir: "logs",
		},
		Analysis: AnalysisConfig{
			MaxUploadBytes: DefaultMaxUploadBytes,
			PreviewRows:    DefaultPreviewRows,
			RunnerTimeout:  DefaultRunnerTimeout,
			MaxOutputBytes: DefaultMaxOutputBytes,
			WorkFileTTL:    DefaultWorkFileTTL,
			SweepInterval:  DefaultSweepInterval,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    AppName,
			TraceExporter:  "none",
			MetricsEnabled: true,
		},
	}
}
