// Package files discovers CSV dashboard exports on disk.
//
// Discovery resolves paths relative to a base directory, so the CLI can be
// handed a mix of files and directories:
//
//	discovery := files.NewDiscovery(".")
//	inputs, err := discovery.ExpandInputs([]string{"exports/2025", "may.csv"})
package files
