package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"kpipulse/internal/dataprocessing"
	"kpipulse/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	repoURL   string
	buildTime string
	buildID   string
	exportDir string
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// BuildInfo carries link-time build metadata.
type BuildInfo struct {
	Version   string
	RepoURL   string
	BuildTime string
	BuildID   string
}

// NewHealthService creates a new health service. exportDir is checked for
// readiness when non-empty.
func NewHealthService(info BuildInfo, exportDir string, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "health_service"))

	logger.Info("HealthService initialized",
		slog.String("version", info.Version),
		slog.String("build_time", info.BuildTime),
		slog.String("build_id", info.BuildID))

	return &HealthService{
		version:   info.Version,
		repoURL:   info.RepoURL,
		buildTime: info.BuildTime,
		buildID:   info.BuildID,
		exportDir: exportDir,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"pipeline": hs.checkPipelineHealth(ctx),
			"exports":  hs.checkExportHealth(),
		},
	}

	for name, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "service not ready",
				slog.String("service", name),
				slog.String("message", sh.Message))
		}
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"data_format":  contracts.DataFormatVersion,
		"api_version":  contracts.APIVersion,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}

	if hs.repoURL != "" {
		result["repo_url"] = hs.repoURL
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.buildID != "" {
		result["build_id"] = hs.buildID
	}

	return result
}

// pipelineProbe is a one-row document with a known answer.
const pipelineProbe = "Initiative Cards,Sub Initiative,Metric,Month,Actual,Forecast,YTD Actual Totals,YTD Forecast Totals\n" +
	"Probe,Probe,Total Sessions,January,1,1,1,1\n"

// checkPipelineHealth runs the pipeline over a fixed document.
func (hs *HealthService) checkPipelineHealth(ctx context.Context) ServiceHealth {
	result := dataprocessing.NewProcessor(hs.logger, dataprocessing.DefaultOptions()).Run(ctx, pipelineProbe)
	if result.RowCount != 1 || result.Count(dataprocessing.KindMalformedRow) > 0 || result.Count(dataprocessing.KindCatastrophicParse) > 0 {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Pipeline probe parsed %d rows", result.RowCount),
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: "Pipeline is healthy",
		Uptime:  time.Since(hs.startTime).String(),
	}
}

// checkExportHealth checks the export directory is usable
func (hs *HealthService) checkExportHealth() ServiceHealth {
	if hs.exportDir == "" {
		return ServiceHealth{Status: "ready", Message: "File exports disabled"}
	}

	if err := os.MkdirAll(hs.exportDir, 0755); err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Cannot write to export directory: %v", err),
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: "Export directory is writable",
	}
}
