package dataprocessing

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TotalMode selects how a metric is aggregated across segments.
type TotalMode string

const (
	// TotalSum adds values across (initiative, sub-initiative) pairs.
	TotalSum TotalMode = "sum"
	// TotalMean divides the sum by the number of pairs reporting the metric.
	// Used for rates and durations.
	TotalMean TotalMode = "mean"
)

// TotalTarget is one metric aggregated by Analyzer.Totals.
type TotalTarget struct {
	Metric string    `json:"metric" yaml:"metric"`
	Mode   TotalMode `json:"mode" yaml:"mode"`
}

// DefaultTotalTargets returns the dashboard's six headline metrics.
func DefaultTotalTargets() []TotalTarget {
	return []TotalTarget{
		{Metric: "Organic Total Sessions", Mode: TotalSum},
		{Metric: "Organic Total Users", Mode: TotalSum},
		{Metric: "% of users clicking on to further pages", Mode: TotalSum},
		{Metric: "% of users clicking to partner pages", Mode: TotalSum},
		{Metric: "Avg Session Duration", Mode: TotalMean},
		{Metric: "Engagement Rate", Mode: TotalMean},
	}
}

// ParseTotalTarget parses "metric name:sum" or "metric name:mean". A value
// without a mode sums.
func ParseTotalTarget(value string) (TotalTarget, error) {
	name, mode := strings.TrimSpace(value), TotalSum
	if i := strings.LastIndex(value, ":"); i >= 0 {
		name = strings.TrimSpace(value[:i])
		mode = TotalMode(strings.ToLower(strings.TrimSpace(value[i+1:])))
	}
	if name == "" {
		return TotalTarget{}, fmt.Errorf("total target %q: empty metric name", value)
	}
	if mode != TotalSum && mode != TotalMean {
		return TotalTarget{}, fmt.Errorf("total target %q: mode must be sum or mean", value)
	}
	return TotalTarget{Metric: name, Mode: mode}, nil
}

// tripleTable maps triple → month → value.
type tripleTable struct {
	triples []Triple
	values  map[Triple]map[string]float64
}

func newTripleTable() tripleTable {
	return tripleTable{triples: []Triple{}, values: make(map[Triple]map[string]float64)}
}

func (t *tripleTable) put(triple Triple, values map[string]float64) {
	if _, ok := t.values[triple]; !ok {
		t.triples = append(t.triples, triple)
	}
	t.values[triple] = values
}

// At returns the value for triple and month.
func (t tripleTable) At(triple Triple, month string) (float64, error) {
	months, ok := t.values[triple]
	if !ok {
		return 0, &MissingDataError{Triple: triple}
	}
	v, ok := months[month]
	if !ok {
		return 0, &MissingDataError{Triple: triple, Month: month}
	}
	return v, nil
}

// Values returns a copy of the month map for triple, or nil if absent.
func (t tripleTable) Values(triple Triple) map[string]float64 {
	months, ok := t.values[triple]
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(months))
	for m, v := range months {
		out[m] = v
	}
	return out
}

// Triples returns the table's triples in dataset order.
func (t tripleTable) Triples() []Triple {
	return append([]Triple{}, t.triples...)
}

type tripleTableEntry struct {
	Triple
	Values map[string]float64 `json:"values"`
}

// MarshalJSON encodes the table as a list in triple order.
func (t tripleTable) MarshalJSON() ([]byte, error) {
	entries := make([]tripleTableEntry, 0, len(t.triples))
	for _, triple := range t.triples {
		entries = append(entries, tripleTableEntry{Triple: triple, Values: t.values[triple]})
	}
	return json.Marshal(entries)
}

// UnmarshalJSON decodes a table encoded by MarshalJSON.
func (t *tripleTable) UnmarshalJSON(data []byte) error {
	var entries []tripleTableEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("decode table: %w", err)
	}
	*t = newTripleTable()
	for _, e := range entries {
		if e.Values == nil {
			e.Values = make(map[string]float64)
		}
		t.put(e.Triple, e.Values)
	}
	return nil
}

// MoMTable holds month-over-month percent change of the actual value per
// triple. A triple's first month has no entry.
type MoMTable struct {
	tripleTable
}

// AchievementTable holds YTD actual as a percent of YTD forecast per triple
// and month.
type AchievementTable struct {
	tripleTable
}

// TotalSeries is the aggregate of one metric across all segments.
type TotalSeries struct {
	Metric      string             `json:"metric"`
	Mode        TotalMode          `json:"mode"`
	Pairs       int                `json:"pairs"`
	Actual      map[string]float64 `json:"actual"`
	Forecast    map[string]float64 `json:"forecast"`
	YTDActual   map[string]float64 `json:"ytd_actual"`
	YTDForecast map[string]float64 `json:"ytd_forecast"`
	MoMChange   map[string]float64 `json:"mom_change"`
}

// At returns one measure of the aggregate for a month.
func (s *TotalSeries) At(measure Measure, month string) (float64, error) {
	var values map[string]float64
	switch measure {
	case MeasureActual:
		values = s.Actual
	case MeasureForecast:
		values = s.Forecast
	case MeasureYTDActual:
		values = s.YTDActual
	case MeasureYTDForecast:
		values = s.YTDForecast
	case MeasureMoMChange:
		values = s.MoMChange
	default:
		return 0, fmt.Errorf("totals have no measure %q", measure)
	}
	v, ok := values[month]
	if !ok {
		return 0, &MissingDataError{Metric: s.Metric, Month: month}
	}
	return v, nil
}

// TotalsTable holds cross-segment aggregates for the target metrics.
type TotalsTable struct {
	Months []string       `json:"months"`
	Series []*TotalSeries `json:"metrics"`
}

// Metric returns the aggregate for a target metric.
func (t *TotalsTable) Metric(name string) (*TotalSeries, error) {
	for _, s := range t.Series {
		if s.Metric == name {
			return s, nil
		}
	}
	return nil, &MissingDataError{Metric: name}
}

// At returns one measure of a target metric for a month.
func (t *TotalsTable) At(metric string, measure Measure, month string) (float64, error) {
	s, err := t.Metric(metric)
	if err != nil {
		return 0, err
	}
	return s.At(measure, month)
}
