// Package app wires configuration, logging, telemetry, services and HTTP
// routes into a runnable server.
//
// # Initialization Flow
//
//  1. Load configuration from defaults, YAML and CSVA_* environment variables
//  2. Initialize the global slog logger
//  3. Create the work and logs directories
//  4. Initialize OpenTelemetry tracing and the Prometheus metrics registry
//  5. Build the services (NewServiceContainer), which cmd/analyze reuses
//  6. Mount handlers behind the middleware chain and create the server
//
// # Usage
//
//	application, err := app.NewApplication(app.Options{})
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests within
// the configured shutdown timeout and flushes telemetry. Initialization
// errors are returned to the caller; the package never calls os.Exit.
package app
