package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"kpipulse/internal/config"
	"kpipulse/internal/dataprocessing"
	"kpipulse/internal/files"
	"kpipulse/internal/services"
)

type processOutput struct {
	File       string                 `json:"file"`
	DurationMS int64                  `json:"duration_ms"`
	Result     *dataprocessing.Result `json:"result"`
	Exports    []string               `json:"exports,omitempty"`
}

type processOptions struct {
	month       string
	outDir      string
	exportDir   string
	export      string
	display     bool
	concurrency int
}

func newProcessCmd(root *rootOptions) *cobra.Command {
	opts := &processOptions{}

	cmd := &cobra.Command{
		Use:   "process PATH...",
		Short: "Process CSV exports and print the pipeline results as JSON",
		Long:  "Process CSV exports and print the pipeline results as JSON.\nDirectories expand to the CSV files they contain.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := canonicalMonth(opts.month)
			if err != nil {
				return err
			}
			opts.month = month

			if opts.export != "" && !slices.Contains(services.ExportFormats(), opts.export) {
				return fmt.Errorf("invalid --export %q: must be one of %s", opts.export, strings.Join(services.ExportFormats(), ", "))
			}

			inputs, err := files.NewDiscovery("").ExpandInputs(args)
			if err != nil {
				return err
			}

			cfg, svc, logger, err := root.setup(cmd, func(cfg *config.Config) {
				if opts.exportDir != "" {
					cfg.Dashboard.ExportDir = opts.exportDir
				}
			})
			if err != nil {
				return err
			}

			outputs := make([]processOutput, len(inputs))
			g, ctx := errgroup.WithContext(cmd.Context())
			if opts.concurrency > 0 {
				g.SetLimit(opts.concurrency)
			}
			for i, path := range inputs {
				g.Go(func() error {
					out, err := processFile(ctx, svc, cfg.Dashboard.ExportDir, path, opts)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					outputs[i] = out
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			logger.Info("processed files", slog.Int("file_count", len(inputs)))

			if opts.outDir == "" {
				return writeJSON(cmd.OutOrStdout(), outputs)
			}

			written := make([]string, 0, len(outputs))
			for _, out := range outputs {
				path := filepath.Join(opts.outDir, baseName(out.File)+".json")
				if err := writeJSONFile(path, out); err != nil {
					return err
				}
				written = append(written, path)
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"written": written})
		},
	}

	cmd.Flags().StringVar(&opts.month, "month", "", "Reporting month for cards (defaults to the configured or latest month)")
	cmd.Flags().StringVar(&opts.outDir, "out-dir", "", "Write one JSON file per input into this directory instead of stdout")
	cmd.Flags().StringVar(&opts.export, "export", "", "Also export tables: csv or xlsx")
	cmd.Flags().StringVar(&opts.exportDir, "export-dir", "", "Export directory (defaults to dashboard.export_dir)")
	cmd.Flags().BoolVar(&opts.display, "display", false, "Export dashboard-formatted strings instead of raw numbers")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 4, "Maximum files processed at once (0 = unlimited)")
	return cmd
}

func processFile(ctx context.Context, svc *services.DashboardService, exportDir, path string, opts *processOptions) (processOutput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return processOutput{}, fmt.Errorf("failed to read: %w", err)
	}
	start := time.Now()
	result, err := svc.ProcessMonth(ctx, string(data), opts.month)
	if err != nil {
		return processOutput{}, err
	}
	out := processOutput{
		File:       path,
		DurationMS: time.Since(start).Milliseconds(),
		Result:     result,
	}

	switch services.ExportFormat(opts.export) {
	case services.FormatCSV:
		paths, err := svc.SaveTables(ctx, result, baseName(path), opts.display)
		if err != nil {
			return out, fmt.Errorf("failed to export csv: %w", err)
		}
		out.Exports = paths
	case services.FormatXLSX:
		target := filepath.Join(exportDir, baseName(path)+".xlsx")
		if err := exportWorkbook(ctx, svc, result, target, opts.display); err != nil {
			return out, err
		}
		out.Exports = []string{target}
	}

	return out, nil
}

func exportWorkbook(ctx context.Context, svc *services.DashboardService, result *dataprocessing.Result, target string, display bool) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}

	req := services.ExportRequest{Format: services.FormatXLSX, Display: display}
	if err := svc.ExportResult(ctx, result, req, f); err != nil {
		f.Close()
		return fmt.Errorf("failed to export xlsx: %w", err)
	}
	return f.Close()
}

// canonicalMonth accepts a month name in any case. Empty stays empty.
func canonicalMonth(month string) (string, error) {
	month = strings.TrimSpace(month)
	if month == "" {
		return "", nil
	}
	for _, m := range dataprocessing.CalendarMonths() {
		if strings.EqualFold(m, month) {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid --month %q: must be a full English month name", month)
}
