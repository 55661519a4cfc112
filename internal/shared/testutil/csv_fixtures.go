package testutil

import "strings"

// KPIHeader is the column layout of a dashboard export.
const KPIHeader = "Initiative Cards,Sub Initiative,Metric,Month,Actual,Forecast,YTD Actual Totals,YTD Forecast Totals"

// KPICSV is a two-month export with two segments reporting a summed total
// metric, comma-grouped quoted counts and a percentage metric.
var KPICSV = KPIDocument(
	`Awareness,SEO,Organic Total Sessions,April,"12,000","10,000","12,000","10,000"`,
	`Awareness,SEO,Organic Total Sessions,May,"13,500","12,000","25,500","22,000"`,
	`Awareness,Social,Organic Total Sessions,April,"3,000","4,000","3,000","4,000"`,
	`Awareness,Social,Organic Total Sessions,May,"3,300","4,000","6,300","8,000"`,
	`Engagement,Website,Engagement Rate,April,45%,50%,45%,50%`,
	`Engagement,Website,Engagement Rate,May,48%,50%,93%,100%`,
)

// KPIDocument joins data lines under KPIHeader.
func KPIDocument(lines ...string) string {
	return KPIHeader + "\n" + strings.Join(lines, "\n") + "\n"
}
