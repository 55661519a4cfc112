// Package config provides centralized configuration management for KPI Pulse.
// It handles loading configuration from multiple sources, validation, and provides
// a type-safe API for accessing configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority), including a local .env file
//	2. YAML configuration file (KPI_CONFIG_FILE, else config.yaml)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern KPI_<SECTION>_<FIELD>:
//
//	KPI_SERVER_PORT=8080
//	KPI_LOGGING_LEVEL=debug
//	KPI_DASHBOARD_LATEST_MONTH=May
//	KPI_DASHBOARD_TOTAL_METRICS="Organic Total Sessions:sum,Engagement Rate:mean"
//
// # Validation
//
// Fields carry go-playground/validator tags. Load fails on a port out of
// range, an unknown log level, a latest month that is not a calendar month
// name, or a malformed total metric.
package config
