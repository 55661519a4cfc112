package dataprocessing

import (
	"context"
	"log/slog"

	"github.com/montanaflynn/stats"
)

// Analyzer computes the derived tables of a dataset. The three calculators
// are independent of each other and never modify the dataset.
type Analyzer struct {
	logger   *slog.Logger
	reporter Reporter
	targets  []TotalTarget
}

// NewAnalyzer creates an analyzer aggregating targets in Totals. An empty
// target list uses DefaultTotalTargets.
func NewAnalyzer(logger *slog.Logger, reporter Reporter, targets []TotalTarget) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if len(targets) == 0 {
		targets = DefaultTotalTargets()
	}
	return &Analyzer{
		logger:   logger.With(slog.String("component", "analyzer")),
		reporter: orDiscard(reporter),
		targets:  append([]TotalTarget{}, targets...),
	}
}

// Targets returns the metrics aggregated by Totals.
func (a *Analyzer) Targets() []TotalTarget {
	return append([]TotalTarget{}, a.targets...)
}

// MoMChanges computes the month-over-month percent change of the actual
// value for every triple, with months in calendar order.
func (a *Analyzer) MoMChanges(ctx context.Context, ds *Dataset) *MoMTable {
	table := &MoMTable{newTripleTable()}
	for _, t := range ds.triples {
		s := ds.lookup(t)
		table.put(t, momSeries(SortMonths(s.Months), s.Actual))
	}

	a.logger.DebugContext(ctx, "calculated month-over-month changes",
		slog.Int("triple_count", len(table.triples)))
	return table
}

// YTDAchievement computes YTD actual as a percent of YTD forecast for every
// month in each triple.
func (a *Analyzer) YTDAchievement(ctx context.Context, ds *Dataset) *AchievementTable {
	table := &AchievementTable{newTripleTable()}
	for _, t := range ds.triples {
		s := ds.lookup(t)
		values := make(map[string]float64, len(s.Months))
		for _, m := range s.Months {
			values[m] = AchievementPercent(s.YTDActual[m], s.YTDForecast[m])
		}
		table.put(t, values)
	}

	a.logger.DebugContext(ctx, "calculated ytd achievement",
		slog.Int("triple_count", len(table.triples)))
	return table
}

// Totals aggregates each target metric across every (initiative,
// sub-initiative) pair that reports it. Months are the union of all months in
// the dataset; a pair without a month contributes 0. Mean targets divide by
// the number of reporting pairs. A target nobody reports yields zeros and a
// MissingDataError diagnostic.
func (a *Analyzer) Totals(ctx context.Context, ds *Dataset) *TotalsTable {
	months := ds.Months()
	table := &TotalsTable{
		Months: months,
		Series: make([]*TotalSeries, 0, len(a.targets)),
	}

	for _, target := range a.targets {
		total := a.aggregate(ctx, ds, target, months)
		total.MoMChange = momSeries(months, total.Actual)
		table.Series = append(table.Series, total)
	}

	a.logger.DebugContext(ctx, "calculated totals",
		slog.Int("metric_count", len(table.Series)),
		slog.Int("month_count", len(months)))
	return table
}

func (a *Analyzer) aggregate(ctx context.Context, ds *Dataset, target TotalTarget, months []string) *TotalSeries {
	var sources []*Series
	for _, t := range ds.triples {
		if t.Metric == target.Metric {
			sources = append(sources, ds.lookup(t))
		}
	}

	if len(sources) == 0 {
		a.reporter.Report(ctx, NewDiagnostic(&MissingDataError{Metric: target.Metric}))
	}

	total := &TotalSeries{
		Metric:      target.Metric,
		Mode:        target.Mode,
		Pairs:       len(sources),
		Actual:      make(map[string]float64, len(months)),
		Forecast:    make(map[string]float64, len(months)),
		YTDActual:   make(map[string]float64, len(months)),
		YTDForecast: make(map[string]float64, len(months)),
	}

	for _, m := range months {
		actual := make([]float64, 0, len(sources))
		forecast := make([]float64, 0, len(sources))
		ytdActual := make([]float64, 0, len(sources))
		ytdForecast := make([]float64, 0, len(sources))
		for _, s := range sources {
			actual = append(actual, s.Actual[m])
			forecast = append(forecast, s.Forecast[m])
			ytdActual = append(ytdActual, s.YTDActual[m])
			ytdForecast = append(ytdForecast, s.YTDForecast[m])
		}

		total.Actual[m] = combine(actual, target.Mode)
		total.Forecast[m] = combine(forecast, target.Mode)
		total.YTDActual[m] = combine(ytdActual, target.Mode)
		total.YTDForecast[m] = combine(ytdForecast, target.Mode)
	}
	return total
}

// combine sums values, dividing by their count for mean targets. Empty input
// yields 0.
func combine(values []float64, mode TotalMode) float64 {
	sum, err := stats.Sum(values)
	if err != nil {
		return 0
	}
	if mode == TotalMean {
		return sum / float64(len(values))
	}
	return sum
}

// momSeries computes percent change between consecutive entries of sorted.
func momSeries(sorted []string, actual map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(sorted))
	for i := 1; i < len(sorted); i++ {
		out[sorted[i]] = PercentChange(actual[sorted[i-1]], actual[sorted[i]])
	}
	return out
}

// PercentChange returns (current-previous)/previous*100. From a zero
// baseline it returns 100 for a positive current value and 0 otherwise.
func PercentChange(previous, current float64) float64 {
	if previous != 0 {
		return (current - previous) / previous * 100
	}
	if current > 0 {
		return 100
	}
	return 0
}

// AchievementPercent returns actual/target*100, or 0 when target is 0.
func AchievementPercent(actual, target float64) float64 {
	if target == 0 {
		return 0
	}
	return actual / target * 100
}
