// Package shared holds helpers used by more than one kpipulse package.
//
// The testutil subpackage provides a buffered slog handler for asserting on
// log output and CSV fixtures in the dashboard export format:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    svc, err := services.NewDashboardService(cfg.Dashboard, nil, logger)
//	    ...
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "pipeline run complete")
//	}
//
// Nothing in this package may contain business logic or import the
// domain packages.
package shared
