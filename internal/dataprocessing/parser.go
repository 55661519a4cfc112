package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// Column names recognised in the CSV header. Matching is exact and
// case-sensitive.
const (
	ColumnInitiative    = "Initiative Cards"
	ColumnSubInitiative = "Sub Initiative"
	ColumnMetric        = "Metric"
	ColumnMonth         = "Month"
	ColumnActual        = "Actual"
	ColumnForecast      = "Forecast"
	ColumnYTDActual     = "YTD Actual Totals"
	ColumnYTDForecast   = "YTD Forecast Totals"
)

// Row is one parsed CSV data line. Percentages are stored as decimals.
type Row struct {
	Initiative    string            `json:"initiative"`
	SubInitiative string            `json:"sub_initiative"`
	Metric        string            `json:"metric"`
	Month         string            `json:"month"`
	Actual        float64           `json:"actual"`
	Forecast      float64           `json:"forecast"`
	YTDActual     float64           `json:"ytd_actual"`
	YTDForecast   float64           `json:"ytd_forecast"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// Triple returns the composite key the row belongs to.
func (r Row) Triple() Triple {
	return Triple{Initiative: r.Initiative, SubInitiative: r.SubInitiative, Metric: r.Metric}
}

// Parser reads KPI CSV text into rows.
type Parser struct {
	logger   *slog.Logger
	reporter Reporter
}

// NewParser creates a parser. A nil logger falls back to slog.Default and a
// nil reporter discards diagnostics.
func NewParser(logger *slog.Logger, reporter Reporter) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		logger:   logger.With(slog.String("component", "csv_parser")),
		reporter: orDiscard(reporter),
	}
}

// Parse converts csvText into rows in input order. Lines whose field count
// differs from the header are skipped and reported as MalformedRowError.
// Parse never fails: input with no data lines yields an empty slice, and an
// unexpected failure while scanning yields an empty slice plus a
// CatastrophicParseError diagnostic.
func (p *Parser) Parse(ctx context.Context, csvText string) (rows []Row) {
	defer func() {
		if r := recover(); r != nil {
			rows = []Row{}
			p.reporter.Report(ctx, NewDiagnostic(&CatastrophicParseError{
				Cause: fmt.Errorf("panic while scanning: %v", r),
			}))
		}
	}()

	lines := strings.Split(strings.TrimSpace(csvText), "\n")
	if len(lines) <= 1 {
		p.logger.InfoContext(ctx, "csv has no data rows", slog.Int("line_count", len(lines)))
		return []Row{}
	}

	headers := splitLine(lines[0])
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	rows = make([]Row, 0, len(lines)-1)
	for i := 1; i < len(lines); i++ {
		// A blank line has one field and is reported like any other mismatch.
		fields := splitLine(lines[i])
		if len(fields) != len(headers) {
			p.reporter.Report(ctx, NewDiagnostic(&MalformedRowError{
				Line: i + 1,
				Got:  len(fields),
				Want: len(headers),
			}))
			continue
		}
		rows = append(rows, buildRow(headers, fields))
	}

	p.logger.DebugContext(ctx, "parsed csv",
		slog.Int("row_count", len(rows)),
		slog.Int("column_count", len(headers)))

	return rows
}

// splitLine splits on commas outside double quotes. Every quote toggles the
// quoted state and is dropped; there is no escaped-quote form.
func splitLine(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	return append(fields, current.String())
}

func cleanField(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}

func buildRow(headers, fields []string) Row {
	var row Row
	for j, header := range headers {
		value := cleanField(fields[j])
		switch header {
		case ColumnInitiative:
			row.Initiative = value
		case ColumnSubInitiative:
			row.SubInitiative = value
		case ColumnMetric:
			row.Metric = value
		case ColumnMonth:
			row.Month = value
		case ColumnActual:
			row.Actual = parseMeasure(value)
		case ColumnForecast:
			row.Forecast = parseMeasure(value)
		case ColumnYTDActual:
			row.YTDActual = parseMeasure(value)
		case ColumnYTDForecast:
			row.YTDForecast = parseMeasure(value)
		default:
			if row.Extra == nil {
				row.Extra = make(map[string]string)
			}
			row.Extra[header] = value
		}
	}
	return row
}

func parseMeasure(value string) float64 {
	if strings.Contains(value, "%") {
		return ParsePercentage(value)
	}
	return ParseNumericValue(value)
}

// ParsePercentage converts "45.2%" to 0.452. Blank or unparseable input
// yields 0.
func ParsePercentage(value string) float64 {
	if strings.TrimSpace(value) == "" {
		return 0
	}
	n, ok := parseFloatPrefix(strings.Replace(value, "%", "", 1))
	if !ok {
		return 0
	}
	return n / 100
}

// ParseNumericValue converts "1,234" to 1234, ignoring commas and double
// quotes. Blank or unparseable input yields 0.
func ParseNumericValue(value string) float64 {
	if strings.TrimSpace(value) == "" {
		return 0
	}
	cleaned := strings.NewReplacer(",", "", `"`, "").Replace(value)
	n, ok := parseFloatPrefix(cleaned)
	if !ok {
		return 0
	}
	return n
}

// parseFloatPrefix parses the longest leading decimal number in s after
// leading whitespace, ignoring whatever follows it ("12abc" is 12). Only
// finite results are accepted.
func parseFloatPrefix(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t\r\n\v\f")

	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	end := i

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expDigits := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			expDigits++
		}
		if expDigits > 0 {
			end = j
		}
	}

	// Overflow parses as unparseable so no infinity reaches the series.
	n, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
