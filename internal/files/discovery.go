package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoInputs is returned when expansion finds no CSV files.
var ErrNoInputs = errors.New("no csv files found")

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(path string) string {
	if filepath.IsAbs(path) || d.basePath == "" {
		return path
	}
	return filepath.Join(d.basePath, path)
}

// FindCSVFiles finds all CSV files directly inside dir, sorted by name.
func (d *Discovery) FindCSVFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsCSV(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// ExpandInputs replaces each directory in paths with the CSV files it
// contains. Plain files are kept as given whatever their extension.
// Duplicates are dropped, first occurrence wins.
func (d *Discovery) ExpandInputs(paths []string) ([]string, error) {
	seen := make(map[string]bool, len(paths))
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, p := range paths {
		full := d.resolve(p)
		info, err := os.Stat(full)
		if err != nil || !info.IsDir() {
			// Missing files surface when the caller reads them.
			add(full)
			continue
		}

		found, err := d.FindCSVFiles(full)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f.Path)
		}
	}

	if len(out) == 0 {
		return nil, ErrNoInputs
	}
	return out, nil
}

// IsCSV reports whether name has a .csv extension, ignoring case.
func IsCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}
