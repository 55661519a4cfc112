package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"kpipulse/internal/config"
	"kpipulse/internal/dataprocessing"
	"kpipulse/internal/exporter"
	"kpipulse/internal/infrastructure"
)

// ExportFormat names an export encoding.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

// ExportFormats lists the accepted format query values.
func ExportFormats() []string {
	return []string{string(FormatCSV), string(FormatXLSX)}
}

// ContentType returns the MIME type of the encoded export.
func (f ExportFormat) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Filename returns the attachment name for an export of table.
func (f ExportFormat) Filename(table string) string {
	if f == FormatXLSX {
		return "kpi_dashboard.xlsx"
	}
	return fmt.Sprintf("kpi_%s.csv", table)
}

// ExportRequest selects what Export writes.
type ExportRequest struct {
	Format ExportFormat
	// Table is the table written by CSV exports. XLSX exports write every
	// table. Empty means the series table.
	Table string
	// Month overrides the reporting month for the cards table.
	Month string
	// Display renders values as dashboard strings instead of raw numbers.
	Display bool
}

// DashboardService runs the KPI pipeline for uploaded CSV text.
type DashboardService struct {
	processor *dataprocessing.Processor
	csv       *exporter.CSVWriter
	excel     *exporter.ExcelWriter
	metrics   *infrastructure.BusinessMetrics
	source    string
	logger    *slog.Logger
}

// NewDashboardService creates a dashboard service from the dashboard config.
// metrics may be nil.
func NewDashboardService(cfg config.DashboardConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) (*DashboardService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "dashboard_service")

	targets, err := cfg.TotalTargets()
	if err != nil {
		return nil, fmt.Errorf("failed to parse total metrics: %w", err)
	}

	options := dataprocessing.DefaultOptions()
	options.TotalTargets = targets
	options.LatestMonth = cfg.LatestMonth
	options.Reporter = dataprocessing.NewLogReporter(logger)

	logger.Info("DashboardService initialized",
		slog.Int("total_targets", len(targets)),
		slog.String("latest_month", cfg.LatestMonth),
		slog.String("export_dir", cfg.ExportDir))

	return &DashboardService{
		processor: dataprocessing.NewProcessor(logger, options),
		csv:       exporter.NewCSVWriter(cfg.ExportDir, logger),
		excel:     exporter.NewExcelWriter(logger),
		metrics:   metrics,
		source:    "http",
		logger:    logger,
	}, nil
}

// WithSource returns a copy that labels pipeline metrics with source.
func (s *DashboardService) WithSource(source string) *DashboardService {
	clone := *s
	clone.source = source
	return &clone
}

// Process runs the pipeline over csvText. Recoverable anomalies are returned
// as diagnostics on the result. A catastrophic parse failure is also
// returned as an error, together with the empty result.
func (s *DashboardService) Process(ctx context.Context, csvText string) (*dataprocessing.Result, error) {
	return s.run(ctx, csvText, "")
}

// ProcessMonth is Process with cards built for month instead of the
// configured or latest month.
func (s *DashboardService) ProcessMonth(ctx context.Context, csvText, month string) (*dataprocessing.Result, error) {
	return s.run(ctx, csvText, month)
}

// Cards runs the pipeline and returns the cards for month. An empty month
// uses the configured or latest month.
func (s *DashboardService) Cards(ctx context.Context, csvText, month string) (*dataprocessing.CardSet, error) {
	result, err := s.run(ctx, csvText, month)
	if err != nil {
		return nil, err
	}
	if month != "" && !hasMonth(result.Dataset, month) {
		return nil, fmt.Errorf("cards for %s: %w", month, &dataprocessing.MissingDataError{Month: month})
	}
	return result.Cards, nil
}

// Export runs the pipeline and writes the requested export to out.
func (s *DashboardService) Export(ctx context.Context, csvText string, req ExportRequest, out io.Writer) error {
	if req.Format != FormatCSV && req.Format != FormatXLSX {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, req.Format)
	}

	result, err := s.run(ctx, csvText, req.Month)
	if err != nil {
		return err
	}
	return s.ExportResult(ctx, result, req, out)
}

// ExportResult writes the requested export of an already computed result.
// req.Month is ignored; the cards are the ones result carries.
func (s *DashboardService) ExportResult(ctx context.Context, result *dataprocessing.Result, req ExportRequest, out io.Writer) error {
	if result == nil {
		return ErrNoResult
	}
	tables := exporter.BuildTables(result, exporter.TableOptions{Display: req.Display})

	switch req.Format {
	case FormatXLSX:
		if err := s.excel.Write(ctx, out, tables); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
	case FormatCSV:
		name := req.Table
		if name == "" {
			name = exporter.TableSeries
		}
		table, ok := findTable(tables, name)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownTable, name)
		}
		if err := s.csv.Write(out, table, true); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, req.Format)
	}

	s.logger.InfoContext(ctx, "export written",
		slog.String("run_id", result.RunID),
		slog.String("format", string(req.Format)),
		slog.String("table", req.Table),
		slog.Bool("display", req.Display))
	return nil
}

// SaveTables writes every table of result as CSV into the configured
// export directory. It returns the paths written.
func (s *DashboardService) SaveTables(ctx context.Context, result *dataprocessing.Result, prefix string, display bool) ([]string, error) {
	if result == nil {
		return nil, ErrNoResult
	}
	tables := exporter.BuildTables(result, exporter.TableOptions{Display: display})
	return s.csv.WriteTables(ctx, prefix, tables)
}

func (s *DashboardService) run(ctx context.Context, csvText, month string) (*dataprocessing.Result, error) {
	if strings.TrimSpace(csvText) == "" {
		return nil, ErrEmptyUpload
	}

	start := time.Now()
	result := s.processor.RunForMonth(ctx, csvText, month)
	infrastructure.RecordPipelineRun(ctx, s.metrics, result, s.source, time.Since(start))

	for _, d := range result.Diagnostics {
		if d.Kind == dataprocessing.KindCatastrophicParse {
			return result, fmt.Errorf("failed to parse upload: %w", d.Err)
		}
	}
	return result, nil
}

func hasMonth(ds *dataprocessing.Dataset, month string) bool {
	if ds == nil {
		return false
	}
	for _, m := range ds.Months() {
		if m == month {
			return true
		}
	}
	return false
}

func findTable(tables []exporter.Table, name string) (exporter.Table, bool) {
	for _, t := range tables {
		if t.Name == name {
			return t, true
		}
	}
	return exporter.Table{}, false
}
