package dataprocessing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDiagnostic(t *testing.T) {
	triple := Triple{"Growth", "Website", "Sessions"}

	tests := []struct {
		name     string
		err      error
		kind     DiagnosticKind
		sentinel error
	}{
		{"malformed", &MalformedRowError{Line: 3, Got: 2, Want: 8}, KindMalformedRow, ErrMalformedRow},
		{"missing", &MissingDataError{Triple: triple, Month: "May"}, KindMissingData, ErrMissingData},
		{"catastrophic", &CatastrophicParseError{Cause: errors.New("boom")}, KindCatastrophicParse, ErrCatastrophicParse},
		{"wrapped malformed", fmt.Errorf("ingest: %w", &MalformedRowError{Reason: "no month"}), KindMalformedRow, ErrMalformedRow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDiagnostic(tt.err)
			assert.Equal(t, tt.kind, d.Kind)
			assert.ErrorIs(t, d.Err, tt.sentinel)
			assert.Equal(t, tt.err.Error(), d.Message)
		})
	}

	d := NewDiagnostic(&MissingDataError{Triple: triple, Month: "May"})
	require.NotNil(t, d.Triple)
	assert.Equal(t, triple, *d.Triple)
	assert.Equal(t, "May", d.Month)
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "malformed row at line 3: got 2 fields, want 8",
		(&MalformedRowError{Line: 3, Got: 2, Want: 8}).Error())
	assert.Equal(t, "malformed row: no month",
		(&MalformedRowError{Reason: "no month"}).Error())
	assert.Equal(t, `no data for metric "Pageviews"`,
		(&MissingDataError{Metric: "Pageviews"}).Error())
	assert.Equal(t, "no data for A / B / C in May",
		(&MissingDataError{Triple: Triple{"A", "B", "C"}, Month: "May"}).Error())

	cause := errors.New("boom")
	err := &CatastrophicParseError{Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrCatastrophicParse)
	assert.NotErrorIs(t, err, ErrMissingData)
}

func TestRecorder_Concurrent(t *testing.T) {
	rec := NewRecorder()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				rec.Report(ctx, NewDiagnostic(&MalformedRowError{Line: i}))
				return
			}
			rec.Report(ctx, NewDiagnostic(&MissingDataError{Month: "May"}))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, rec.Count(KindMalformedRow))
	assert.Equal(t, 25, rec.Count(KindMissingData))
	assert.Equal(t, map[DiagnosticKind]int{KindMalformedRow: 25, KindMissingData: 25}, rec.Counts())
	assert.Len(t, rec.Diagnostics(), 50)
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	reporter := NewLogReporter(logger)

	reporter.Report(context.Background(), NewDiagnostic(&CatastrophicParseError{Cause: errors.New("boom")}))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, string(KindCatastrophicParse), entry["kind"])
}

func TestMultiReporter(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	r := MultiReporter(a, nil, b)

	r.Report(context.Background(), NewDiagnostic(&MissingDataError{Metric: "X"}))

	assert.Equal(t, 1, a.Count(KindMissingData))
	assert.Equal(t, 1, b.Count(KindMissingData))
}
