package dataprocessing

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func structure(t *testing.T, rows ...Row) *Dataset {
	t.Helper()
	return NewStructurer(nil, nil).Structure(context.Background(), rows)
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name          string
		prev, current float64
		want          float64
	}{
		{"drop to zero", 100, 0, -100},
		{"from zero to positive", 0, 50, 100},
		{"zero to zero", 0, 0, 0},
		{"from zero to negative", 0, -5, 0},
		{"doubling", 50, 100, 100},
		{"negative baseline", -10, -5, -50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PercentChange(tt.prev, tt.current))
		})
	}
}

func TestAnalyzer_MoMChanges(t *testing.T) {
	ctx := context.Background()
	a := NewAnalyzer(nil, nil, nil)
	triple := Triple{"Growth", "Website", "Sessions"}

	t.Run("boundaries", func(t *testing.T) {
		tests := []struct {
			name     string
			jan, feb float64
			want     float64
		}{
			{"hundred to zero", 100, 0, -100},
			{"zero to fifty", 0, 50, 100},
			{"zero to zero", 0, 0, 0},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				ds := structure(t,
					row("Growth", "Website", "Sessions", "January", tt.jan, 0, 0, 0),
					row("Growth", "Website", "Sessions", "February", tt.feb, 0, 0, 0),
				)
				mom := a.MoMChanges(ctx, ds)

				got, err := mom.At(triple, "February")
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)

				_, err = mom.At(triple, "January")
				assert.ErrorIs(t, err, ErrMissingData)
			})
		}
	})

	t.Run("calendar order not input order", func(t *testing.T) {
		ds := structure(t,
			row("Growth", "Website", "Sessions", "March", 150, 0, 0, 0),
			row("Growth", "Website", "Sessions", "January", 100, 0, 0, 0),
			row("Growth", "Website", "Sessions", "February", 120, 0, 0, 0),
		)
		mom := a.MoMChanges(ctx, ds)

		values := mom.Values(triple)
		require.Len(t, values, 2)
		assert.InDelta(t, 20.0, values["February"], 1e-9)
		assert.InDelta(t, 25.0, values["March"], 1e-9)
	})

	t.Run("unknown month sorts first", func(t *testing.T) {
		ds := structure(t,
			row("Growth", "Website", "Sessions", "January", 200, 0, 0, 0),
			row("Growth", "Website", "Sessions", "Q1", 100, 0, 0, 0),
		)
		mom := a.MoMChanges(ctx, ds)

		got, err := mom.At(triple, "January")
		require.NoError(t, err)
		assert.Equal(t, 100.0, got)
	})

	t.Run("absent triple", func(t *testing.T) {
		mom := a.MoMChanges(ctx, structure(t))
		_, err := mom.At(triple, "January")

		var missing *MissingDataError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, triple, missing.Triple)
		assert.Empty(t, missing.Month)
		assert.Nil(t, mom.Values(triple))
	})
}

func TestAnalyzer_YTDAchievement(t *testing.T) {
	ctx := context.Background()
	triple := Triple{"Growth", "Website", "Sessions"}
	ds := structure(t,
		row("Growth", "Website", "Sessions", "January", 0, 0, 50, 0),
		row("Growth", "Website", "Sessions", "February", 0, 0, 90, 100),
	)

	table := NewAnalyzer(nil, nil, nil).YTDAchievement(ctx, ds)

	jan, err := table.At(triple, "January")
	require.NoError(t, err)
	assert.Equal(t, 0.0, jan)

	feb, err := table.At(triple, "February")
	require.NoError(t, err)
	assert.Equal(t, 90.0, feb)
}

func TestAnalyzer_Totals(t *testing.T) {
	ctx := context.Background()
	ds := structure(t,
		row("Growth", "Website", "Engagement Rate", "January", 0.2, 0.5, 0.2, 0.5),
		row("Growth", "Blog", "Engagement Rate", "January", 0.4, 0.5, 0.4, 0.5),
		row("Growth", "Website", "Organic Total Sessions", "January", 100, 150, 100, 150),
		row("Growth", "Blog", "Organic Total Sessions", "January", 200, 150, 200, 150),
		row("Growth", "Blog", "Organic Total Sessions", "February", 330, 150, 530, 300),
	)

	rec := NewRecorder()
	totals := NewAnalyzer(nil, rec, nil).Totals(ctx, ds)

	assert.Equal(t, []string{"January", "February"}, totals.Months)
	require.Len(t, totals.Series, 6)

	rate, err := totals.At("Engagement Rate", MeasureActual, "January")
	require.NoError(t, err)
	assert.InDelta(t, 0.3, rate, 1e-12)

	// Website has no February row: it contributes 0 and still counts.
	rateFeb, err := totals.At("Engagement Rate", MeasureActual, "February")
	require.NoError(t, err)
	assert.Equal(t, 0.0, rateFeb)

	sessions, err := totals.At("Organic Total Sessions", MeasureActual, "January")
	require.NoError(t, err)
	assert.Equal(t, 300.0, sessions)

	forecast, err := totals.At("Organic Total Sessions", MeasureForecast, "January")
	require.NoError(t, err)
	assert.Equal(t, 300.0, forecast)

	mom, err := totals.At("Organic Total Sessions", MeasureMoMChange, "February")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, mom, 1e-9)

	_, err = totals.At("Organic Total Sessions", MeasureMoMChange, "January")
	assert.ErrorIs(t, err, ErrMissingData)

	series, err := totals.Metric("Engagement Rate")
	require.NoError(t, err)
	assert.Equal(t, 2, series.Pairs)
	assert.Equal(t, TotalMean, series.Mode)

	// Four default targets are not reported by any pair.
	assert.Equal(t, 4, rec.Count(KindMissingData))
	users, err := totals.At("Organic Total Users", MeasureActual, "January")
	require.NoError(t, err)
	assert.Equal(t, 0.0, users)

	_, err = totals.Metric("Pageviews")
	assert.ErrorIs(t, err, ErrMissingData)
}

func TestAnalyzer_TotalsCustomTargets(t *testing.T) {
	ds := structure(t,
		row("A", "X", "Bounce Rate", "May", 0.5, 0, 0, 0),
		row("A", "Y", "Bounce Rate", "May", 0.7, 0, 0, 0),
	)
	targets := []TotalTarget{{Metric: "Bounce Rate", Mode: TotalSum}}

	a := NewAnalyzer(nil, nil, targets)
	totals := a.Totals(context.Background(), ds)

	assert.Equal(t, targets, a.Targets())
	require.Len(t, totals.Series, 1)
	got, err := totals.At("Bounce Rate", MeasureActual, "May")
	require.NoError(t, err)
	assert.InDelta(t, 1.2, got, 1e-12)
}

func TestParseTotalTarget(t *testing.T) {
	tests := []struct {
		spec    string
		want    TotalTarget
		wantErr bool
	}{
		{spec: "Engagement Rate:mean", want: TotalTarget{"Engagement Rate", TotalMean}},
		{spec: " Sessions : SUM ", want: TotalTarget{"Sessions", TotalSum}},
		{spec: "Sessions", want: TotalTarget{"Sessions", TotalSum}},
		{spec: "Sessions:median", wantErr: true},
		{spec: ":sum", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseTotalTarget(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTripleTable_JSONRoundTrip(t *testing.T) {
	ds := structure(t,
		row("Growth", "Website", "Sessions", "January", 100, 0, 50, 100),
		row("Growth", "Website", "Sessions", "February", 110, 0, 90, 100),
	)
	a := NewAnalyzer(nil, nil, nil)
	mom := a.MoMChanges(context.Background(), ds)

	data, err := json.Marshal(mom)
	require.NoError(t, err)

	var decoded MoMTable
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, mom.Triples(), decoded.Triples())
	assert.Equal(t, mom.Values(Triple{"Growth", "Website", "Sessions"}),
		decoded.Values(Triple{"Growth", "Website", "Sessions"}))
}

func TestSortMonths(t *testing.T) {
	in := []string{"March", "Foo", "January", "December", "Bar"}
	assert.Equal(t, []string{"Foo", "Bar", "January", "March", "December"}, SortMonths(in))
	assert.Equal(t, []string{"March", "Foo", "January", "December", "Bar"}, in)
	assert.Equal(t, "December", LatestMonth(in))
	assert.Equal(t, "", LatestMonth([]string{"Q1"}))
}
