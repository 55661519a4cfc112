package dataprocessing

import (
	"context"
	"log/slog"
)

// CardStatus classifies a card value for display.
type CardStatus string

const (
	StatusPositive CardStatus = "positive"
	StatusWarning  CardStatus = "warning"
	StatusNegative CardStatus = "negative"
)

// CardPeriod distinguishes monthly from year-to-date total cards.
type CardPeriod string

const (
	PeriodMonthly CardPeriod = "monthly"
	PeriodYTD     CardPeriod = "ytd"
)

// MetricCard summarizes one triple at the reporting month.
type MetricCard struct {
	Initiative        string     `json:"initiative"`
	SubInitiative     string     `json:"sub_initiative"`
	Metric            string     `json:"metric"`
	Month             string     `json:"month"`
	Actual            float64    `json:"actual"`
	Forecast          float64    `json:"forecast"`
	VariancePercent   float64    `json:"variance_percent"`
	YTDActual         float64    `json:"ytd_actual"`
	YTDForecast       float64    `json:"ytd_forecast"`
	Achievement       float64    `json:"achievement"`
	MoMChange         float64    `json:"mom_change"`
	VarianceStatus    CardStatus `json:"variance_status"`
	AchievementStatus CardStatus `json:"achievement_status"`
}

// TotalCard summarizes an aggregate metric. Monthly cards compare the month's
// actual and forecast; YTD cards compare the YTD totals.
type TotalCard struct {
	Metric            string     `json:"metric"`
	Month             string     `json:"month"`
	Period            CardPeriod `json:"period"`
	Actual            float64    `json:"actual"`
	Forecast          float64    `json:"forecast"`
	VariancePercent   float64    `json:"variance_percent"`
	Achievement       float64    `json:"achievement"`
	MoMChange         float64    `json:"mom_change,omitempty"`
	VarianceStatus    CardStatus `json:"variance_status"`
	AchievementStatus CardStatus `json:"achievement_status"`
}

// CardSet is every card for one reporting month.
type CardSet struct {
	Month        string       `json:"month"`
	Metrics      []MetricCard `json:"metrics"`
	TotalYTD     []TotalCard  `json:"total_ytd"`
	TotalMonthly []TotalCard  `json:"total_monthly"`
}

// SummarizerConfig holds configuration options for the Summarizer.
type SummarizerConfig struct {
	ExcludedMetrics []string // metrics shown only as totals, never as triple cards
	DisplayTotals   []string // aggregate metrics that get total cards
}

// DefaultSummarizerConfig returns the dashboard's card layout.
func DefaultSummarizerConfig() SummarizerConfig {
	return SummarizerConfig{
		ExcludedMetrics: []string{
			"Engagement Rate",
			"Avg Session Duration",
			"Total Sessions",
			"Pageviews",
		},
		DisplayTotals: []string{
			"Organic Total Sessions",
			"Organic Total Users",
			"% of users clicking on to further pages",
			"% of users clicking to partner pages",
		},
	}
}

// Summarizer builds dashboard cards from a pipeline result.
type Summarizer struct {
	logger   *slog.Logger
	reporter Reporter
	excluded map[string]struct{}
	totals   []string
}

// NewSummarizer creates a card summarizer. A zero config uses
// DefaultSummarizerConfig.
func NewSummarizer(logger *slog.Logger, reporter Reporter, config SummarizerConfig) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.ExcludedMetrics == nil && config.DisplayTotals == nil {
		config = DefaultSummarizerConfig()
	}

	excluded := make(map[string]struct{}, len(config.ExcludedMetrics))
	for _, m := range config.ExcludedMetrics {
		excluded[m] = struct{}{}
	}
	return &Summarizer{
		logger:   logger.With(slog.String("component", "summarizer")),
		reporter: orDiscard(reporter),
		excluded: excluded,
		totals:   append([]string{}, config.DisplayTotals...),
	}
}

// Cards builds the card set for month. Values missing at month count as 0
// and are reported as MissingDataError.
func (s *Summarizer) Cards(ctx context.Context, result *Result, month string) *CardSet {
	set := &CardSet{
		Month:        month,
		Metrics:      []MetricCard{},
		TotalYTD:     []TotalCard{},
		TotalMonthly: []TotalCard{},
	}
	if month == "" || result == nil || result.Dataset == nil {
		s.logger.InfoContext(ctx, "no reporting month, skipping cards")
		return set
	}

	for _, t := range result.Dataset.triples {
		if _, skip := s.excluded[t.Metric]; skip {
			continue
		}
		set.Metrics = append(set.Metrics, s.metricCard(ctx, result, t, month))
	}

	for _, metric := range s.totals {
		total, err := result.Totals.Metric(metric)
		if err != nil {
			s.reporter.Report(ctx, NewDiagnostic(err))
			continue
		}
		ytd, monthly := s.totalCards(ctx, total, month)
		set.TotalYTD = append(set.TotalYTD, ytd)
		set.TotalMonthly = append(set.TotalMonthly, monthly)
	}

	s.logger.DebugContext(ctx, "built cards",
		slog.String("month", month),
		slog.Int("metric_cards", len(set.Metrics)),
		slog.Int("total_cards", len(set.TotalYTD)+len(set.TotalMonthly)))

	return set
}

func (s *Summarizer) metricCard(ctx context.Context, result *Result, t Triple, month string) MetricCard {
	card := MetricCard{
		Initiative:    t.Initiative,
		SubInitiative: t.SubInitiative,
		Metric:        t.Metric,
		Month:         month,
	}

	series := result.Dataset.lookup(t)
	if _, ok := series.Actual[month]; ok {
		card.Actual = series.Actual[month]
		card.Forecast = series.Forecast[month]
		card.YTDActual = series.YTDActual[month]
		card.YTDForecast = series.YTDForecast[month]
	} else {
		s.reporter.Report(ctx, NewDiagnostic(&MissingDataError{Triple: t, Month: month}))
	}

	card.VariancePercent = VariancePercent(card.Actual, card.Forecast)
	card.Achievement = orZero(result.Achievement.At(t, month))
	card.MoMChange = orZero(result.MoM.At(t, month))
	card.VarianceStatus = VarianceStatus(card.VariancePercent)
	card.AchievementStatus = AchievementStatus(card.Achievement)
	return card
}

func (s *Summarizer) totalCards(ctx context.Context, total *TotalSeries, month string) (TotalCard, TotalCard) {
	value := func(m Measure) float64 {
		v, err := total.At(m, month)
		if err != nil && m != MeasureMoMChange {
			s.reporter.Report(ctx, NewDiagnostic(err))
		}
		return v
	}

	actual, forecast := value(MeasureActual), value(MeasureForecast)
	ytdActual, ytdForecast := value(MeasureYTDActual), value(MeasureYTDForecast)
	achievement := AchievementPercent(ytdActual, ytdForecast)

	ytd := TotalCard{
		Metric:            total.Metric,
		Month:             month,
		Period:            PeriodYTD,
		Actual:            ytdActual,
		Forecast:          ytdForecast,
		VariancePercent:   VariancePercent(ytdActual, ytdForecast),
		Achievement:       achievement,
		AchievementStatus: AchievementStatus(achievement),
	}
	ytd.VarianceStatus = VarianceStatus(ytd.VariancePercent)

	monthly := TotalCard{
		Metric:            total.Metric,
		Month:             month,
		Period:            PeriodMonthly,
		Actual:            actual,
		Forecast:          forecast,
		VariancePercent:   VariancePercent(actual, forecast),
		Achievement:       achievement,
		MoMChange:         value(MeasureMoMChange),
		AchievementStatus: AchievementStatus(achievement),
	}
	monthly.VarianceStatus = VarianceStatus(monthly.VariancePercent)

	return ytd, monthly
}

// orZero drops lookup errors. A series' first month has no MoM entry, and
// absent triple months are already reported by metricCard.
func orZero(v float64, err error) float64 {
	if err != nil {
		return 0
	}
	return v
}

// VariancePercent returns (actual-forecast)/forecast*100, or 0 when forecast
// is 0.
func VariancePercent(actual, forecast float64) float64 {
	if forecast == 0 {
		return 0
	}
	return (actual - forecast) / forecast * 100
}

// VarianceStatus is positive for a non-negative variance.
func VarianceStatus(variancePercent float64) CardStatus {
	if variancePercent >= 0 {
		return StatusPositive
	}
	return StatusNegative
}

// AchievementStatus is positive at 100% or more, warning from 90%.
func AchievementStatus(achievement float64) CardStatus {
	switch {
	case achievement >= 100:
		return StatusPositive
	case achievement >= 90:
		return StatusWarning
	default:
		return StatusNegative
	}
}
