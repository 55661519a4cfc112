package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// ExcelWriter writes tables into an XLSX workbook, one sheet per table.
type ExcelWriter struct {
	logger *slog.Logger
}

// NewExcelWriter creates a new workbook writer
func NewExcelWriter(logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{logger: logger.With(slog.String("component", "excel_exporter"))}
}

// Write builds the workbook and streams it to out.
func (x *ExcelWriter) Write(ctx context.Context, out io.Writer, tables []Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E2E8F0"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, table := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}

		if i == 0 {
			if err := f.SetSheetName(defaultSheet, table.Name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(table.Name); err != nil {
			return fmt.Errorf("create sheet %s: %w", table.Name, err)
		}

		if err := x.writeSheet(f, table, headerStyle); err != nil {
			return fmt.Errorf("write sheet %s: %w", table.Name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	x.logger.DebugContext(ctx, "workbook written", slog.Int("sheets", len(tables)))
	return nil
}

func (x *ExcelWriter) writeSheet(f *excelize.File, table Table, headerStyle int) error {
	headers := make([]interface{}, len(table.Headers))
	for i, h := range table.Headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(table.Name, "A1", &headers); err != nil {
		return err
	}
	if err := f.SetRowStyle(table.Name, 1, 1, headerStyle); err != nil {
		return err
	}

	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(table.Name, cell, &values); err != nil {
			return err
		}
	}

	if len(table.Headers) > 0 {
		last, err := excelize.ColumnNumberToName(len(table.Headers))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(table.Name, "A", last, 16); err != nil {
			return err
		}
	}

	return f.SetPanes(table.Name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
