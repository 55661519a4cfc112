package dataprocessing

// ProcessingOptions configures a pipeline run.
type ProcessingOptions struct {
	// TotalTargets lists the metrics aggregated across segments. Empty means
	// DefaultTotalTargets.
	TotalTargets []TotalTarget

	// LatestMonth is the reporting month used for cards. Empty means the
	// calendar-latest month present in the data.
	LatestMonth string

	// Reporter receives every diagnostic in addition to the run's own
	// recorder. Optional.
	Reporter Reporter

	// Summarizer configures card generation.
	Summarizer SummarizerConfig
}

// DefaultOptions returns default processing options
func DefaultOptions() ProcessingOptions {
	return ProcessingOptions{
		TotalTargets: DefaultTotalTargets(),
		Summarizer:   DefaultSummarizerConfig(),
	}
}

// Result is everything one pipeline run produces.
type Result struct {
	RunID       string            `json:"run_id"`
	RowCount    int               `json:"row_count"`
	LatestMonth string            `json:"latest_month"`
	Dataset     *Dataset          `json:"dataset"`
	MoM         *MoMTable         `json:"mom_changes"`
	Totals      *TotalsTable      `json:"totals"`
	Achievement *AchievementTable `json:"ytd_achievement"`
	Cards       *CardSet          `json:"cards"`
	Diagnostics []Diagnostic      `json:"diagnostics"`
}

// Count returns the number of diagnostics of the given kind.
func (r *Result) Count(kind DiagnosticKind) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Counts returns diagnostic totals per kind.
func (r *Result) Counts() map[DiagnosticKind]int {
	counts := make(map[DiagnosticKind]int)
	for _, d := range r.Diagnostics {
		counts[d.Kind]++
	}
	return counts
}
