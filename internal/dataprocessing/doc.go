// Package dataprocessing turns a website KPI CSV export into the data behind
// the KPI dashboard. It consolidates parsing, structuring and the derived
// metrics into one in-memory pipeline that performs no I/O.
//
// # Architecture
//
// The package is organized into three main components:
//
// 1. Parser: Reads the CSV text and extracts typed Row records
// 2. Structurer: Groups rows by (initiative, sub-initiative, metric) into per-month series
// 3. Analyzer: Computes month-over-month change, cross-segment totals and YTD achievement
//
// A Processor chains the three and a Summarizer builds dashboard cards from
// the result.
//
// # Usage
//
// Running the whole pipeline:
//
//	processor := dataprocessing.NewProcessor(logger, dataprocessing.DefaultOptions())
//	result := processor.Run(ctx, csvText)
//
// Using the components directly:
//
//	rows := dataprocessing.NewParser(logger, reporter).Parse(ctx, csvText)
//	dataset := dataprocessing.NewStructurer(logger, reporter).Structure(ctx, rows)
//	mom := dataprocessing.NewAnalyzer(logger, reporter, nil).MoMChanges(ctx, dataset)
//
// # Data Flow
//
//	CSV text → Parser → []Row → Structurer → *Dataset → Analyzer → MoM / Totals / Achievement
//
// # Error Handling
//
// Bad input never aborts a run. Recoverable anomalies are sent to a Reporter
// as Diagnostic values:
//
//	- MalformedRowError for rows with the wrong field count or no month
//	- MissingDataError for lookups of an absent triple, metric or month
//	- CatastrophicParseError when scanning fails outright
//
// Table lookups (At, Series) return the same typed errors, so callers use
// errors.Is / errors.As instead of existence checks.
//
// # Concurrency
//
// Every call allocates its own output and never mutates its input. A
// Recorder may be shared by concurrent runs.
package dataprocessing
