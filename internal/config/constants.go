package config

import "time"

// Application constants for the KPI Pulse service
const (
	// Application Info
	AppName = "KPI Pulse"

	// Environment
	EnvPrefix      = "KPI"
	ConfigFileEnv  = "KPI_CONFIG_FILE"
	DefaultEnvFile = ".env"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultHTTPTimeout     = 30 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Uploads
	DefaultMaxUploadBytes = 10 << 20 // 10MB

	// File Paths (relative to working directory)
	DefaultLogsDir   = "logs"
	DefaultExportDir = "exports"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
