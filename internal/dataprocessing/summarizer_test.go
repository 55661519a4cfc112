package dataprocessing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardsCSV = kpiHeader + `
Growth,Website,Organic Total Sessions,April,1000,800,1000,800
Growth,Website,Organic Total Sessions,May,900,1000,1900,1800
Growth,Blog,Organic Total Sessions,May,100,100,100,200
Growth,Website,Engagement Rate,May,50%,60%,50%,60%
Growth,Blog,Newsletter Signups,April,10,20,10,20
`

func TestSummarizer_Cards(t *testing.T) {
	ctx := context.Background()
	result := NewProcessor(nil, DefaultOptions()).Run(ctx, cardsCSV)
	require.Equal(t, "May", result.LatestMonth)

	cards := result.Cards
	require.NotNil(t, cards)
	assert.Equal(t, "May", cards.Month)

	// Engagement Rate is excluded from per-triple cards.
	require.Len(t, cards.Metrics, 3)

	website := cards.Metrics[0]
	assert.Equal(t, "Website", website.SubInitiative)
	assert.Equal(t, "Organic Total Sessions", website.Metric)
	assert.Equal(t, 900.0, website.Actual)
	assert.Equal(t, 1000.0, website.Forecast)
	assert.InDelta(t, -10.0, website.VariancePercent, 1e-9)
	assert.Equal(t, StatusNegative, website.VarianceStatus)
	assert.InDelta(t, 105.555, website.Achievement, 0.001)
	assert.Equal(t, StatusPositive, website.AchievementStatus)
	assert.InDelta(t, -10.0, website.MoMChange, 1e-9)

	blog := cards.Metrics[1]
	assert.Equal(t, "Blog", blog.SubInitiative)
	assert.Equal(t, 50.0, blog.Achievement)
	assert.Zero(t, blog.MoMChange)
	assert.Zero(t, blog.VariancePercent)
	assert.Equal(t, StatusPositive, blog.VarianceStatus)
	assert.Equal(t, StatusNegative, blog.AchievementStatus)

	// Newsletter Signups has no May row.
	signups := cards.Metrics[2]
	assert.Equal(t, "Newsletter Signups", signups.Metric)
	assert.Zero(t, signups.Actual)
	assert.Zero(t, signups.Achievement)

	// Display totals absent from the data still get zero-valued cards.
	require.Len(t, cards.TotalYTD, 4)
	require.Len(t, cards.TotalMonthly, 4)
	assert.Equal(t, "Organic Total Users", cards.TotalYTD[1].Metric)
	assert.Zero(t, cards.TotalYTD[1].Actual)
	assert.Equal(t, StatusNegative, cards.TotalYTD[1].AchievementStatus)

	ytd := cards.TotalYTD[0]
	assert.Equal(t, PeriodYTD, ytd.Period)
	assert.Equal(t, 2000.0, ytd.Actual)
	assert.Equal(t, 2000.0, ytd.Forecast)
	assert.Equal(t, 100.0, ytd.Achievement)
	assert.Equal(t, StatusPositive, ytd.AchievementStatus)

	monthly := cards.TotalMonthly[0]
	assert.Equal(t, PeriodMonthly, monthly.Period)
	assert.Equal(t, 1000.0, monthly.Actual)
	assert.Equal(t, 1100.0, monthly.Forecast)
	assert.InDelta(t, 0.0, monthly.MoMChange, 1e-9)

	// One missing triple month plus four unreported total targets.
	assert.Equal(t, 5, result.Count(KindMissingData))
}

func TestSummarizer_NoMonth(t *testing.T) {
	s := NewSummarizer(nil, nil, SummarizerConfig{})
	cards := s.Cards(context.Background(), &Result{}, "")

	assert.Empty(t, cards.Metrics)
	assert.Empty(t, cards.TotalYTD)
	assert.Empty(t, cards.TotalMonthly)
}

func TestAchievementStatus(t *testing.T) {
	tests := []struct {
		achievement float64
		want        CardStatus
	}{
		{120, StatusPositive},
		{100, StatusPositive},
		{99.9, StatusWarning},
		{90, StatusWarning},
		{89.9, StatusNegative},
		{0, StatusNegative},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, AchievementStatus(tt.achievement), "achievement %v", tt.achievement)
	}
}

func TestVariancePercent(t *testing.T) {
	assert.Zero(t, VariancePercent(50, 0))
	assert.Equal(t, 25.0, VariancePercent(125, 100))
	assert.Equal(t, StatusPositive, VarianceStatus(0))
	assert.Equal(t, StatusNegative, VarianceStatus(-0.1))
}
