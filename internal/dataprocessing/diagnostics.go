package dataprocessing

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// DiagnosticKind classifies a recoverable anomaly found during a run.
type DiagnosticKind string

const (
	KindMalformedRow      DiagnosticKind = "malformed_row"
	KindMissingData       DiagnosticKind = "missing_data"
	KindCatastrophicParse DiagnosticKind = "catastrophic_parse"
)

// Diagnostic is one anomaly reported on the side channel.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Line    int            `json:"line,omitempty"`
	Triple  *Triple        `json:"triple,omitempty"`
	Metric  string         `json:"metric,omitempty"`
	Month   string         `json:"month,omitempty"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
}

// NewDiagnostic classifies err and copies its location fields.
func NewDiagnostic(err error) Diagnostic {
	d := Diagnostic{Message: err.Error(), Err: err}

	var malformed *MalformedRowError
	var missing *MissingDataError
	switch {
	case errors.As(err, &malformed):
		d.Kind = KindMalformedRow
		d.Line = malformed.Line
	case errors.As(err, &missing):
		d.Kind = KindMissingData
		if missing.Triple != (Triple{}) {
			t := missing.Triple
			d.Triple = &t
		}
		d.Metric = missing.Metric
		d.Month = missing.Month
	default:
		d.Kind = KindCatastrophicParse
	}
	return d
}

// Reporter receives diagnostics. Implementations must be safe for
// concurrent use when shared between runs.
type Reporter interface {
	Report(ctx context.Context, d Diagnostic)
}

// Recorder keeps diagnostics in memory.
type Recorder struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Report implements Reporter.
func (r *Recorder) Report(_ context.Context, d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diagnostics = append(r.diagnostics, d)
}

// Diagnostics returns a copy of everything recorded so far.
func (r *Recorder) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.diagnostics))
	copy(out, r.diagnostics)
	return out
}

// Count returns the number of diagnostics of the given kind.
func (r *Recorder) Count(kind DiagnosticKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, d := range r.diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Counts returns diagnostic totals per kind.
func (r *Recorder) Counts() map[DiagnosticKind]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[DiagnosticKind]int)
	for _, d := range r.diagnostics {
		counts[d.Kind]++
	}
	return counts
}

// LogReporter writes diagnostics through slog.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter creates a reporter that logs at WARN, or ERROR for
// catastrophic parse failures.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

// Report implements Reporter.
func (l *LogReporter) Report(ctx context.Context, d Diagnostic) {
	attrs := []any{
		slog.String("kind", string(d.Kind)),
		slog.String("error", d.Message),
	}
	if d.Line > 0 {
		attrs = append(attrs, slog.Int("line", d.Line))
	}
	if d.Triple != nil {
		attrs = append(attrs,
			slog.String("initiative", d.Triple.Initiative),
			slog.String("sub_initiative", d.Triple.SubInitiative),
			slog.String("metric", d.Triple.Metric))
	} else if d.Metric != "" {
		attrs = append(attrs, slog.String("metric", d.Metric))
	}
	if d.Month != "" {
		attrs = append(attrs, slog.String("month", d.Month))
	}

	if d.Kind == KindCatastrophicParse {
		l.logger.ErrorContext(ctx, "pipeline diagnostic", attrs...)
		return
	}
	l.logger.WarnContext(ctx, "pipeline diagnostic", attrs...)
}

type multiReporter []Reporter

func (m multiReporter) Report(ctx context.Context, d Diagnostic) {
	for _, r := range m {
		r.Report(ctx, d)
	}
}

// MultiReporter fans each diagnostic out to all non-nil reporters.
func MultiReporter(reporters ...Reporter) Reporter {
	out := make(multiReporter, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

type discardReporter struct{}

func (discardReporter) Report(context.Context, Diagnostic) {}

func orDiscard(r Reporter) Reporter {
	if r == nil {
		return discardReporter{}
	}
	return r
}
