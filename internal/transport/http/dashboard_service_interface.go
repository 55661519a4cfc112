package http

import (
	"context"
	"io"

	"kpipulse/internal/dataprocessing"
	"kpipulse/internal/services"
)

// DashboardServiceInterface defines the interface for dashboard operations
type DashboardServiceInterface interface {
	Process(ctx context.Context, csvText string) (*dataprocessing.Result, error)
	Cards(ctx context.Context, csvText, month string) (*dataprocessing.CardSet, error)
	Export(ctx context.Context, csvText string, req services.ExportRequest, out io.Writer) error
}
