package config

import (
	"time"

	"csvanalyst/pkg/contracts"
)

// Application constants
const (
	AppName    = "csvanalyst"
	AppVersion = contracts.Version

	// Upload and preview limits
	DefaultMaxUploadBytes = 32 << 20
	DefaultPreviewRows    = 5

	// Runner limits
	DefaultRunnerTimeout  = 5 * time.Minute
	DefaultMaxOutputBytes = 16 << 20

	// Working file retention
	DefaultWorkFileTTL   = 24 * time.Hour
	DefaultSweepInterval = time.Hour
)
