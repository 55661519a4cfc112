package dataprocessing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
)

// Triple identifies one time series.
type Triple struct {
	Initiative    string `json:"initiative"`
	SubInitiative string `json:"sub_initiative"`
	Metric        string `json:"metric"`
}

func (t Triple) String() string {
	return fmt.Sprintf("%s / %s / %s", t.Initiative, t.SubInitiative, t.Metric)
}

// Measure names one of the monthly values kept for a series.
type Measure string

const (
	MeasureActual      Measure = "actual"
	MeasureForecast    Measure = "forecast"
	MeasureYTDActual   Measure = "ytd_actual"
	MeasureYTDForecast Measure = "ytd_forecast"
	MeasureMoMChange   Measure = "mom_change"
)

// Series holds four parallel month-keyed maps for one triple. The key sets
// of the four maps are always identical.
type Series struct {
	Months      []string           `json:"months"`
	Actual      map[string]float64 `json:"actual"`
	Forecast    map[string]float64 `json:"forecast"`
	YTDActual   map[string]float64 `json:"ytd_actual"`
	YTDForecast map[string]float64 `json:"ytd_forecast"`
}

func newSeries() *Series {
	return &Series{
		Months:      []string{},
		Actual:      make(map[string]float64),
		Forecast:    make(map[string]float64),
		YTDActual:   make(map[string]float64),
		YTDForecast: make(map[string]float64),
	}
}

func (s *Series) set(row Row) {
	if _, ok := s.Actual[row.Month]; !ok {
		s.Months = append(s.Months, row.Month)
	}
	s.Actual[row.Month] = row.Actual
	s.Forecast[row.Month] = row.Forecast
	s.YTDActual[row.Month] = row.YTDActual
	s.YTDForecast[row.Month] = row.YTDForecast
}

// At returns one measure for a month.
func (s *Series) At(measure Measure, month string) (float64, error) {
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
	default:
		return 0, fmt.Errorf("series has no measure %q", measure)
	}
	v, ok := values[month]
	if !ok {
		return 0, &MissingDataError{Month: month}
	}
	return v, nil
}

func (s *Series) clone() *Series {
	out := &Series{
		Months:      append([]string{}, s.Months...),
		Actual:      make(map[string]float64, len(s.Actual)),
		Forecast:    make(map[string]float64, len(s.Forecast)),
		YTDActual:   make(map[string]float64, len(s.YTDActual)),
		YTDForecast: make(map[string]float64, len(s.YTDForecast)),
	}
	for m := range s.Actual {
		out.Actual[m] = s.Actual[m]
		out.Forecast[m] = s.Forecast[m]
		out.YTDActual[m] = s.YTDActual[m]
		out.YTDForecast[m] = s.YTDForecast[m]
	}
	return out
}

// Dataset is the structured form of a CSV export. It is never modified after
// Structure returns it; accessors hand out copies.
type Dataset struct {
	initiatives    []string
	subInitiatives []string
	metrics        []string
	triples        []Triple
	series         map[Triple]*Series
}

// Initiatives returns distinct initiatives in first-seen order.
func (d *Dataset) Initiatives() []string { return append([]string{}, d.initiatives...) }

// SubInitiatives returns distinct sub-initiatives across all initiatives in
// first-seen order.
func (d *Dataset) SubInitiatives() []string { return append([]string{}, d.subInitiatives...) }

// Metrics returns distinct metric names in first-seen order.
func (d *Dataset) Metrics() []string { return append([]string{}, d.metrics...) }

// Triples returns every triple with at least one matching row, ordered by
// initiative, then sub-initiative, then metric, each in first-seen order.
func (d *Dataset) Triples() []Triple { return append([]Triple{}, d.triples...) }

// Len returns the number of triples.
func (d *Dataset) Len() int { return len(d.triples) }

// Series returns a copy of the series for triple.
func (d *Dataset) Series(triple Triple) (*Series, error) {
	s, ok := d.series[triple]
	if !ok {
		return nil, &MissingDataError{Triple: triple}
	}
	return s.clone(), nil
}

// Months returns the union of all series months in calendar order.
func (d *Dataset) Months() []string {
	seen := newOrderedSet()
	for _, t := range d.triples {
		for _, m := range d.series[t].Months {
			seen.add(m)
		}
	}
	return SortMonths(seen.items)
}

// lookup returns the stored series without copying.
func (d *Dataset) lookup(triple Triple) *Series {
	return d.series[triple]
}

type seriesEntry struct {
	Triple
	Series *Series `json:"series"`
}

type datasetJSON struct {
	Initiatives    []string      `json:"initiatives"`
	SubInitiatives []string      `json:"sub_initiatives"`
	Metrics        []string      `json:"metrics"`
	Series         []seriesEntry `json:"series"`
}

// MarshalJSON encodes the dataset with series listed in triple order.
func (d *Dataset) MarshalJSON() ([]byte, error) {
	out := datasetJSON{
		Initiatives:    d.initiatives,
		SubInitiatives: d.subInitiatives,
		Metrics:        d.metrics,
		Series:         make([]seriesEntry, 0, len(d.triples)),
	}
	for _, t := range d.triples {
		out.Series = append(out.Series, seriesEntry{Triple: t, Series: d.series[t]})
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds a dataset encoded by MarshalJSON.
func (d *Dataset) UnmarshalJSON(data []byte) error {
	var in datasetJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode dataset: %w", err)
	}

	d.initiatives = nonNil(in.Initiatives)
	d.subInitiatives = nonNil(in.SubInitiatives)
	d.metrics = nonNil(in.Metrics)
	d.triples = make([]Triple, 0, len(in.Series))
	d.series = make(map[Triple]*Series, len(in.Series))
	for _, e := range in.Series {
		if _, dup := d.series[e.Triple]; dup {
			return fmt.Errorf("decode dataset: duplicate series for %s", e.Triple)
		}
		s := e.Series
		if s == nil {
			s = newSeries()
		}
		if s.Months == nil {
			s.Months = []string{}
		}
		for _, m := range []*map[string]float64{&s.Actual, &s.Forecast, &s.YTDActual, &s.YTDForecast} {
			if *m == nil {
				*m = make(map[string]float64)
			}
		}
		d.triples = append(d.triples, e.Triple)
		d.series[e.Triple] = s
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// orderedSet keeps distinct values in insertion order.
type orderedSet struct {
	items []string
	index map[string]int
}

func newOrderedSet() *orderedSet {
	return &orderedSet{items: []string{}, index: make(map[string]int)}
}

func (s *orderedSet) add(v string) {
	if _, ok := s.index[v]; ok {
		return
	}
	s.index[v] = len(s.items)
	s.items = append(s.items, v)
}

// Structurer groups rows into a Dataset.
type Structurer struct {
	logger   *slog.Logger
	reporter Reporter
}

// NewStructurer creates a structurer. Nil arguments fall back to
// slog.Default and a discarding reporter.
func NewStructurer(logger *slog.Logger, reporter Reporter) *Structurer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Structurer{
		logger:   logger.With(slog.String("component", "structurer")),
		reporter: orDiscard(reporter),
	}
}

// Structure builds the dataset for rows. Later rows overwrite earlier ones
// for the same triple and month. Rows without a month still register their
// triple but contribute no values; each is reported as MalformedRowError.
func (s *Structurer) Structure(ctx context.Context, rows []Row) *Dataset {
	initiatives := newOrderedSet()
	subInitiatives := newOrderedSet()
	metrics := newOrderedSet()

	ds := &Dataset{
		triples: []Triple{},
		series:  make(map[Triple]*Series),
	}

	for i, row := range rows {
		initiatives.add(row.Initiative)
		subInitiatives.add(row.SubInitiative)
		metrics.add(row.Metric)

		t := row.Triple()
		series, ok := ds.series[t]
		if !ok {
			series = newSeries()
			ds.series[t] = series
			ds.triples = append(ds.triples, t)
		}

		if row.Month == "" {
			s.reporter.Report(ctx, NewDiagnostic(&MalformedRowError{
				Reason: fmt.Sprintf("row %d for %s has no month", i+1, t),
			}))
			continue
		}
		series.set(row)
	}

	sort.SliceStable(ds.triples, func(i, j int) bool {
		a, b := ds.triples[i], ds.triples[j]
		if a.Initiative != b.Initiative {
			return initiatives.index[a.Initiative] < initiatives.index[b.Initiative]
		}
		if a.SubInitiative != b.SubInitiative {
			return subInitiatives.index[a.SubInitiative] < subInitiatives.index[b.SubInitiative]
		}
		return metrics.index[a.Metric] < metrics.index[b.Metric]
	})

	ds.initiatives = initiatives.items
	ds.subInitiatives = subInitiatives.items
	ds.metrics = metrics.items

	s.logger.DebugContext(ctx, "structured rows",
		slog.Int("row_count", len(rows)),
		slog.Int("triple_count", len(ds.triples)),
		slog.Int("initiative_count", len(ds.initiatives)),
		slog.Int("metric_count", len(ds.metrics)))

	return ds
}
