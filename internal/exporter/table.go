package exporter

import (
	"sort"

	"kpipulse/internal/dataprocessing"
)

// Table names, also used as sheet names and CSV file stems.
const (
	TableSeries      = "series"
	TableTotals      = "totals"
	TableCards       = "cards"
	TableDiagnostics = "diagnostics"
)

// Table is one flat, exportable view of a pipeline result. Row values are
// strings or float64; a nil value is an absent cell.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// TableOptions controls how values are rendered.
type TableOptions struct {
	// Display formats numbers the way the dashboard shows them instead of
	// writing raw values.
	Display bool
}

// BuildTables returns every table that has content, in a stable order.
func BuildTables(result *dataprocessing.Result, opts TableOptions) []Table {
	if result == nil {
		return nil
	}

	tables := []Table{SeriesTable(result, opts), TotalsTable(result, opts)}
	if result.Cards != nil {
		tables = append(tables, CardsTable(result.Cards, opts))
	}
	tables = append(tables, DiagnosticsTable(result.Diagnostics))
	return tables
}

// SeriesTable has one row per triple and month with the raw measures, the
// month-over-month change and YTD achievement.
func SeriesTable(result *dataprocessing.Result, opts TableOptions) Table {
	t := Table{
		Name: TableSeries,
		Headers: []string{
			"Initiative", "Sub-Initiative", "Metric", "Month",
			"Actual", "Forecast", "YTD Actual", "YTD Forecast",
			"MoM Change %", "YTD Achievement %",
		},
	}
	if result.Dataset == nil {
		return t
	}

	for _, triple := range result.Dataset.Triples() {
		series, err := result.Dataset.Series(triple)
		if err != nil {
			continue
		}
		var mom, achievement map[string]float64
		if result.MoM != nil {
			mom = result.MoM.Values(triple)
		}
		if result.Achievement != nil {
			achievement = result.Achievement.Values(triple)
		}

		for _, month := range dataprocessing.SortMonths(series.Months) {
			t.Rows = append(t.Rows, []interface{}{
				triple.Initiative, triple.SubInitiative, triple.Metric, month,
				opts.value(series.Actual[month], triple.Metric),
				opts.value(series.Forecast[month], triple.Metric),
				opts.value(series.YTDActual[month], triple.Metric),
				opts.value(series.YTDForecast[month], triple.Metric),
				optional(mom, month, opts.change),
				optional(achievement, month, opts.percent),
			})
		}
	}
	return t
}

// TotalsTable has one row per aggregated metric and month.
func TotalsTable(result *dataprocessing.Result, opts TableOptions) Table {
	t := Table{
		Name: TableTotals,
		Headers: []string{
			"Metric", "Mode", "Pairs", "Month",
			"Actual", "Forecast", "YTD Actual", "YTD Forecast", "MoM Change %",
		},
	}
	if result.Totals == nil {
		return t
	}

	for _, total := range result.Totals.Series {
		for _, month := range result.Totals.Months {
			t.Rows = append(t.Rows, []interface{}{
				total.Metric, string(total.Mode), float64(total.Pairs), month,
				opts.value(total.Actual[month], total.Metric),
				opts.value(total.Forecast[month], total.Metric),
				opts.value(total.YTDActual[month], total.Metric),
				opts.value(total.YTDForecast[month], total.Metric),
				optional(total.MoMChange, month, opts.change),
			})
		}
	}
	return t
}

// CardsTable flattens a card set. Total cards leave the segment columns
// empty.
func CardsTable(cards *dataprocessing.CardSet, opts TableOptions) Table {
	t := Table{
		Name: TableCards,
		Headers: []string{
			"Scope", "Period", "Initiative", "Sub-Initiative", "Metric", "Month",
			"Actual", "Forecast", "Variance %", "Achievement %", "MoM Change %",
			"Variance Status", "Achievement Status",
		},
	}

	for _, c := range cards.Metrics {
		t.Rows = append(t.Rows, []interface{}{
			"metric", string(dataprocessing.PeriodMonthly), c.Initiative, c.SubInitiative, c.Metric, c.Month,
			opts.value(c.Actual, c.Metric), opts.value(c.Forecast, c.Metric),
			opts.change(c.VariancePercent), opts.percent(c.Achievement), opts.change(c.MoMChange),
			string(c.VarianceStatus), string(c.AchievementStatus),
		})
	}
	for _, group := range [][]dataprocessing.TotalCard{cards.TotalMonthly, cards.TotalYTD} {
		for _, c := range group {
			t.Rows = append(t.Rows, []interface{}{
				"total", string(c.Period), "", "", c.Metric, c.Month,
				opts.value(c.Actual, c.Metric), opts.value(c.Forecast, c.Metric),
				opts.change(c.VariancePercent), opts.percent(c.Achievement), opts.change(c.MoMChange),
				string(c.VarianceStatus), string(c.AchievementStatus),
			})
		}
	}
	return t
}

// DiagnosticsTable lists anomalies found during the run, grouped by kind.
func DiagnosticsTable(diagnostics []dataprocessing.Diagnostic) Table {
	t := Table{
		Name:    TableDiagnostics,
		Headers: []string{"Kind", "Line", "Series", "Metric", "Month", "Message"},
	}

	sorted := make([]dataprocessing.Diagnostic, len(diagnostics))
	copy(sorted, diagnostics)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Kind < sorted[j].Kind })

	for _, d := range sorted {
		var line interface{}
		if d.Line > 0 {
			line = float64(d.Line)
		}
		series := ""
		if d.Triple != nil {
			series = d.Triple.String()
		}
		t.Rows = append(t.Rows, []interface{}{string(d.Kind), line, series, d.Metric, d.Month, d.Message})
	}
	return t
}

func (o TableOptions) value(v float64, metric string) interface{} {
	if o.Display {
		return FormatValue(v, metric)
	}
	return v
}

func (o TableOptions) percent(v float64) interface{} {
	if o.Display {
		return ToFixed(v, 1) + "%"
	}
	return v
}

func (o TableOptions) change(v float64) interface{} {
	if o.Display {
		return FormatChange(v)
	}
	return v
}

// optional renders values[month], or an absent cell.
func optional(values map[string]float64, month string, render func(float64) interface{}) interface{} {
	v, ok := values[month]
	if !ok {
		return nil
	}
	return render(v)
}

// stringify renders a row value for text output.
func stringify(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return formatFloat(x)
	default:
		return ""
	}
}
