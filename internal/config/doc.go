// Package config loads the csvanalyst configuration.
//
// Values are resolved in this order, later sources winning:
//
//  1. Default()
//  2. a YAML file (LoadOptions.ConfigFile, CSVA_CONFIG_FILE, or config.yaml
//     in the working directory or configs/)
//  3. environment variables prefixed with CSVA_, after any .env file has
//     been loaded with godotenv
//
// Environment variables follow the section layout of Config:
//
//	CSVA_SERVER_PORT=8080
//	CSVA_LOGGING_LEVEL=debug
//	CSVA_ANALYSIS_RUNNER_COMMAND=python3
//	CSVA_ANALYSIS_RUNNER_ARGS=-m,combinedpackmsnk
//	CSVA_ANALYSIS_MAX_UPLOAD_BYTES=33554432
//
// Relative directories under Paths are resolved against Paths.BaseDir, and a
// relative Logging.FilePath is placed inside Paths.LogsDir.
package config
