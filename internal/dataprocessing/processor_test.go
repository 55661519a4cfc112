package dataprocessing

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const endToEndCSV = kpiHeader + `
Growth,Website,Engagement Rate,January,45.0%,50.0%,45.0%,50.0%
Growth,Website,Engagement Rate,February,48.0%,50.0%,93.0%,100.0%
`

func TestProcessor_EndToEnd(t *testing.T) {
	triple := Triple{"Growth", "Website", "Engagement Rate"}

	result := NewProcessor(nil, DefaultOptions()).Run(context.Background(), endToEndCSV)

	require.NotNil(t, result)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, result.RowCount)
	assert.Equal(t, "February", result.LatestMonth)

	series, err := result.Dataset.Series(triple)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"January": 0.45, "February": 0.48}, series.Actual)

	mom, err := result.MoM.At(triple, "February")
	require.NoError(t, err)
	assert.InDelta(t, 6.667, mom, 0.001)

	achievement, err := result.Achievement.At(triple, "February")
	require.NoError(t, err)
	assert.Equal(t, 93.0, achievement)

	rate, err := result.Totals.At("Engagement Rate", MeasureActual, "February")
	require.NoError(t, err)
	assert.Equal(t, 0.48, rate)

	assert.Zero(t, result.Count(KindMalformedRow))
	assert.Zero(t, result.Count(KindCatastrophicParse))
}

func TestProcessor_MalformedRowTolerance(t *testing.T) {
	csv := kpiHeader + "\nGrowth,Website,Sessions,January,100,120,100\n"

	result := NewProcessor(nil, DefaultOptions()).Run(context.Background(), csv)

	assert.Zero(t, result.Dataset.Len())
	assert.Equal(t, 1, result.Count(KindMalformedRow))
	assert.Equal(t, "", result.LatestMonth)
	assert.Empty(t, result.Cards.Metrics)
}

func TestProcessor_Options(t *testing.T) {
	recorder := NewRecorder()
	opts := DefaultOptions()
	opts.LatestMonth = "January"
	opts.Reporter = recorder
	opts.TotalTargets = []TotalTarget{{Metric: "Engagement Rate", Mode: TotalMean}}

	p := NewProcessor(nil, opts)
	result := p.Run(context.Background(), endToEndCSV)

	assert.Equal(t, "January", result.LatestMonth)
	require.Len(t, result.Totals.Series, 1)
	assert.Equal(t, len(result.Diagnostics), len(recorder.Diagnostics()))

	override := p.RunForMonth(context.Background(), endToEndCSV, "February")
	assert.Equal(t, "February", override.LatestMonth)
	assert.Equal(t, "February", override.Cards.Month)
}

func TestProcessor_RunsAreIndependent(t *testing.T) {
	p := NewProcessor(nil, DefaultOptions())
	first := p.Run(context.Background(), endToEndCSV)
	second := p.Run(context.Background(), endToEndCSV)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Dataset, second.Dataset)
	assert.Equal(t, len(first.Diagnostics), len(second.Diagnostics))
}

func TestProcessor_NonFiniteInputs(t *testing.T) {
	triple := Triple{"Growth", "Website", "Sessions"}
	csv := kpiHeader + `
Growth,Website,Sessions,January,1e999,Infinity,1e999,Infinity
Growth,Website,Sessions,February,Infinity,1e999,Infinity,1e999
`

	result := NewProcessor(nil, DefaultOptions()).Run(context.Background(), csv)

	mom, err := result.MoM.At(triple, "February")
	require.NoError(t, err)
	assert.Equal(t, 0.0, mom)

	achievement, err := result.Achievement.At(triple, "February")
	require.NoError(t, err)
	assert.Equal(t, 0.0, achievement)

	_, err = json.Marshal(result)
	assert.NoError(t, err)
}

func TestResult_JSON(t *testing.T) {
	result := NewProcessor(nil, DefaultOptions()).Run(context.Background(), endToEndCSV)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded Result
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, result.Dataset, decoded.Dataset)
	assert.Equal(t, result.Totals, decoded.Totals)
	assert.Equal(t, result.MoM.Triples(), decoded.MoM.Triples())
	assert.Equal(t, result.Cards, decoded.Cards)
	assert.Len(t, decoded.Diagnostics, len(result.Diagnostics))
}
