// Package app wires the kpipulse HTTP service together and manages its
// lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration (config.Load: defaults, YAML file, .env, environment)
//	2. Initialize slog logging and OpenTelemetry (tracer, meter, Prometheus)
//	3. Create the dashboard and health services
//	4. Build the chi router and middleware chain
//	5. Create the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Tests build an Application from an explicit configuration with New and
// drive Router directly through httptest.
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, or until the server fails, then drains
// in-flight requests within Server.ShutdownTimeout and flushes telemetry.
// The package never calls os.Exit.
package app
