// Package services implements the business logic behind the HTTP handlers
// and the command line tool.
//
// AnalysisService owns the dataset pipeline: an upload is validated, parsed
// into a table, optionally preprocessed, and then previewed, described or
// handed to the external analysis runner through a working file. Handlers
// translate its sentinel errors into problem responses.
//
// HealthService answers the liveness, readiness and version probes.
//
// Services take their collaborators through a config struct and a logger:
//
//	svc := services.NewAnalysisService(services.AnalysisServiceConfig{
//		Files:  validation.NewFileValidator(logger, cfg.Analysis.MaxUploadBytes),
//		Writer: exporter.NewCSVWriter(cfg.Paths.WorkDir, logger),
//		Runner: runner.New(execCfg, logger),
//	}, logger)
package services
