package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kpipulse/internal/dataprocessing"
	"kpipulse/internal/files"
)

type diagnosticsOutput struct {
	File        string                                `json:"file"`
	Rows        int                                   `json:"rows"`
	Counts      map[dataprocessing.DiagnosticKind]int `json:"counts"`
	Diagnostics []dataprocessing.Diagnostic           `json:"diagnostics,omitempty"`
}

var diagnosticKinds = []dataprocessing.DiagnosticKind{
	dataprocessing.KindMalformedRow,
	dataprocessing.KindMissingData,
	dataprocessing.KindCatastrophicParse,
}

func newDiagnosticsCmd(root *rootOptions) *cobra.Command {
	var (
		asJSON  bool
		verbose bool
		strict  bool
	)

	cmd := &cobra.Command{
		Use:   "diagnostics PATH...",
		Short: "Print anomaly counts per kind for CSV exports",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := files.NewDiscovery("").ExpandInputs(args)
			if err != nil {
				return err
			}

			_, svc, _, err := root.setup(cmd)
			if err != nil {
				return err
			}

			outputs := make([]diagnosticsOutput, 0, len(inputs))
			for _, path := range inputs {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("%s: failed to read: %w", path, err)
				}

				// A catastrophic parse still yields a result worth reporting.
				result, err := svc.Process(cmd.Context(), string(data))
				if result == nil {
					return fmt.Errorf("%s: %w", path, err)
				}

				out := diagnosticsOutput{File: path, Rows: result.RowCount, Counts: result.Counts()}
				if verbose {
					out.Diagnostics = result.Diagnostics
				}
				outputs = append(outputs, out)
			}

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), outputs); err != nil {
					return err
				}
			} else if err := writeDiagnosticsTable(cmd.OutOrStdout(), outputs); err != nil {
				return err
			}

			if strict {
				return strictCheck(outputs)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Include every diagnostic in JSON output")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any file has malformed rows or failed to parse")
	return cmd
}

func writeDiagnosticsTable(w io.Writer, outputs []diagnosticsOutput) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "FILE\tROWS")
	for _, kind := range diagnosticKinds {
		fmt.Fprintf(tw, "\t%s", kind)
	}
	fmt.Fprintln(tw)

	for _, out := range outputs {
		fmt.Fprintf(tw, "%s\t%d", out.File, out.Rows)
		for _, kind := range diagnosticKinds {
			fmt.Fprintf(tw, "\t%d", out.Counts[kind])
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func strictCheck(outputs []diagnosticsOutput) error {
	var errs []error
	for _, out := range outputs {
		if n := out.Counts[dataprocessing.KindMalformedRow]; n > 0 {
			errs = append(errs, fmt.Errorf("%s: %d malformed rows", out.File, n))
		}
		if out.Counts[dataprocessing.KindCatastrophicParse] > 0 {
			errs = append(errs, fmt.Errorf("%s: parse failed", out.File))
		}
	}
	return errors.Join(errs...)
}
