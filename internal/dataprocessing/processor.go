package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "kpipulse.dataprocessing"

// Processor runs parse → structure → analyze → summarize over one CSV text.
// It holds configuration only; each run allocates fresh state.
type Processor struct {
	logger  *slog.Logger
	options ProcessingOptions
}

// NewProcessor creates a processor.
func NewProcessor(logger *slog.Logger, options ProcessingOptions) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if len(options.TotalTargets) == 0 {
		options.TotalTargets = DefaultTotalTargets()
	}
	return &Processor{
		logger:  logger.With(slog.String("component", "processor")),
		options: options,
	}
}

// Run processes csvText using the configured reporting month.
func (p *Processor) Run(ctx context.Context, csvText string) *Result {
	return p.RunForMonth(ctx, csvText, "")
}

// RunForMonth processes csvText and builds cards for month. An empty month
// falls back to the configured latest month, then to the latest month in
// the data.
func (p *Processor) RunForMonth(ctx context.Context, csvText, month string) *Result {
	runID := uuid.New().String()
	start := time.Now()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.String("run.id", runID)))
	defer span.End()

	recorder := NewRecorder()
	reporter := MultiReporter(recorder, p.options.Reporter)
	logger := p.logger.With(slog.String("run_id", runID))

	rows := p.parse(ctx, logger, reporter, csvText)
	dataset := p.structure(ctx, logger, reporter, rows)

	analyzer := NewAnalyzer(logger, reporter, p.options.TotalTargets)
	actx, analyzeSpan := otel.Tracer(tracerName).Start(ctx, "pipeline.analyze")
	result := &Result{
		RunID:       runID,
		RowCount:    len(rows),
		Dataset:     dataset,
		MoM:         analyzer.MoMChanges(actx, dataset),
		Totals:      analyzer.Totals(actx, dataset),
		Achievement: analyzer.YTDAchievement(actx, dataset),
	}
	analyzeSpan.End()

	result.LatestMonth = p.resolveMonth(month, dataset)
	summarizer := NewSummarizer(logger, reporter, p.options.Summarizer)
	result.Cards = summarizer.Cards(ctx, result, result.LatestMonth)

	result.Diagnostics = recorder.Diagnostics()

	span.SetAttributes(
		attribute.Int("rows", len(rows)),
		attribute.Int("triples", dataset.Len()),
		attribute.Int("diagnostics", len(result.Diagnostics)),
	)

	logger.InfoContext(ctx, "pipeline run complete",
		slog.Int("row_count", len(rows)),
		slog.Int("triple_count", dataset.Len()),
		slog.Int("diagnostic_count", len(result.Diagnostics)),
		slog.String("latest_month", result.LatestMonth),
		slog.Duration("duration", time.Since(start)))

	return result
}

func (p *Processor) parse(ctx context.Context, logger *slog.Logger, reporter Reporter, csvText string) []Row {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.parse")
	defer span.End()

	rows := NewParser(logger, reporter).Parse(ctx, csvText)
	span.SetAttributes(attribute.Int("rows", len(rows)))
	return rows
}

func (p *Processor) structure(ctx context.Context, logger *slog.Logger, reporter Reporter, rows []Row) *Dataset {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.structure")
	defer span.End()

	ds := NewStructurer(logger, reporter).Structure(ctx, rows)
	span.SetAttributes(attribute.Int("triples", ds.Len()))
	return ds
}

func (p *Processor) resolveMonth(month string, ds *Dataset) string {
	if month != "" {
		return month
	}
	if p.options.LatestMonth != "" {
		return p.options.LatestMonth
	}
	return LatestMonth(ds.Months())
}
