// Package exporter renders pipeline results as flat tables and writes them
// as CSV or XLSX.
//
// BuildTables turns a dataprocessing.Result into named tables (series,
// totals, cards, diagnostics). CSVWriter writes one table per file with an
// optional UTF-8 BOM for Excel. ExcelWriter writes every table into one
// workbook, one sheet per table.
//
// Example usage:
//
//	tables := exporter.BuildTables(result, exporter.TableOptions{})
//	csvWriter := exporter.NewCSVWriter("exports", logger)
//	paths, err := csvWriter.WriteTables(ctx, "run-42", tables)
//
//	xlsx := exporter.NewExcelWriter(logger)
//	err = xlsx.Write(ctx, w, tables)
//
// FormatValue reproduces the dashboard's display formatting (percentages,
// m:ss durations, K/M/B suffixes) and is applied when TableOptions.Display
// is set.
package exporter
