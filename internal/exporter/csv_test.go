package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		Name:    "sample",
		Headers: []string{"Metric", "Month", "Actual", "MoM Change %"},
		Rows: [][]interface{}{
			{"Organic Total Sessions", "April", 15000.0, nil},
			{"Organic Total Sessions", "May", 16800.0, 12.0},
			{"Metric, with comma", "May", 0.5, -3.25},
		},
	}
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVWriter_Write(t *testing.T) {
	tests := []struct {
		name    string
		bom     bool
		wantBOM bool
	}{
		{name: "with BOM", bom: true, wantBOM: true},
		{name: "without BOM", bom: false, wantBOM: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewCSVWriter("", nil)

			require.NoError(t, w.Write(&buf, sampleTable(), tt.bom))

			assert.Equal(t, tt.wantBOM, bytes.HasPrefix(buf.Bytes(), utf8BOM))
			records := readCSV(t, buf.Bytes())
			require.Len(t, records, 4)
			assert.Equal(t, []string{"Metric", "Month", "Actual", "MoM Change %"}, records[0])
			assert.Equal(t, []string{"Organic Total Sessions", "April", "15000", ""}, records[1])
			assert.Equal(t, []string{"Metric, with comma", "May", "0.5", "-3.25"}, records[3])
		})
	}
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, nil)

	require.NoError(t, w.WriteCSV("nested/out.csv", WriteOptions{
		Headers:   []string{"a", "b"},
		Records:   [][]string{{"1", "2"}},
		BOMPrefix: true,
	}))

	data, err := os.ReadFile(filepath.Join(dir, "nested", "out.csv"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "2"}}, readCSV(t, data))

	// A second write replaces the file.
	require.NoError(t, w.WriteCSV("nested/out.csv", WriteOptions{
		Headers: []string{"a", "b"},
		Records: [][]string{{"3", "4"}},
	}))

	data, err = os.ReadFile(filepath.Join(dir, "nested", "out.csv"))
	require.NoError(t, err)
	assert.False(t, bytes.HasPrefix(data, utf8BOM))
	assert.Equal(t, [][]string{{"a", "b"}, {"3", "4"}}, readCSV(t, data))
}

func TestCSVWriter_WriteTables(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, nil)
	tables := BuildTables(runFixture(t), TableOptions{})

	paths, err := w.WriteTables(context.Background(), "run", tables)
	require.NoError(t, err)
	require.Len(t, paths, len(tables))

	assert.Equal(t, filepath.Join(dir, "run_series.csv"), paths[0])
	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Len(t, readCSV(t, data), len(tables[0].Rows)+1)
}

func TestCSVWriter_WriteTablesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paths, err := NewCSVWriter(t.TempDir(), nil).WriteTables(ctx, "run", []Table{sampleTable()})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, paths)
}
