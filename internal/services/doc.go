// Package services implements the business logic layer of kpipulse.
// It sits between the HTTP handlers and the dataprocessing pipeline so that
// handlers stay thin and the pipeline stays free of transport concerns.
//
// # Services
//
//	DashboardService  runs the KPI pipeline over uploaded CSV text, returns
//	                  results or cards, and writes CSV/XLSX exports
//	HealthService     health, readiness and liveness probes plus version info
//
// # Common Service Pattern
//
// Services take their configuration and a *slog.Logger in the constructor:
//
//	svc, err := services.NewDashboardService(cfg.Dashboard, metrics, logger)
//	if err != nil {
//	    return fmt.Errorf("failed to create dashboard service: %w", err)
//	}
//
// # Error Handling
//
// Services return plain Go errors wrapped with %w. Pipeline anomalies stay
// on the result as diagnostics; only an empty upload, a catastrophic parse
// failure or an invalid export request is returned as an error. The
// transport layer maps these to RFC 7807 problem details.
package services
