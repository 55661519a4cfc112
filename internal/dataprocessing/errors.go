package dataprocessing

import (
	"errors"
	"fmt"
)

// Sentinel errors for matching with errors.Is.
var (
	ErrMalformedRow      = errors.New("malformed row")
	ErrMissingData       = errors.New("missing data")
	ErrCatastrophicParse = errors.New("catastrophic parse failure")
)

// MalformedRowError reports a data line that was skipped or partially ignored.
type MalformedRowError struct {
	Line   int    // 1-based line number in the CSV text, 0 when unknown
	Got    int    // field count found
	Want   int    // field count expected from the header
	Reason string // set when the row is rejected for something other than field count
}

func (e *MalformedRowError) Error() string {
	detail := e.Reason
	if detail == "" {
		detail = fmt.Sprintf("got %d fields, want %d", e.Got, e.Want)
	}
	if e.Line > 0 {
		return fmt.Sprintf("malformed row at line %d: %s", e.Line, detail)
	}
	return "malformed row: " + detail
}

func (e *MalformedRowError) Unwrap() error { return ErrMalformedRow }

// MissingDataError reports a lookup of a triple, metric or month that the
// data does not contain.
type MissingDataError struct {
	Triple Triple
	Metric string
	Month  string
}

func (e *MissingDataError) Error() string {
	switch {
	case e.Triple != (Triple{}) && e.Month != "":
		return fmt.Sprintf("no data for %s in %s", e.Triple, e.Month)
	case e.Triple != (Triple{}):
		return fmt.Sprintf("no data for %s", e.Triple)
	case e.Metric != "" && e.Month != "":
		return fmt.Sprintf("no data for metric %q in %s", e.Metric, e.Month)
	case e.Metric != "":
		return fmt.Sprintf("no data for metric %q", e.Metric)
	default:
		return fmt.Sprintf("no data for month %q", e.Month)
	}
}

func (e *MissingDataError) Unwrap() error { return ErrMissingData }

// CatastrophicParseError reports a failure that made the whole parse unusable.
type CatastrophicParseError struct {
	Cause error
}

func (e *CatastrophicParseError) Error() string {
	return fmt.Sprintf("parse csv: %v", e.Cause)
}

func (e *CatastrophicParseError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrCatastrophicParse}
	}
	return []error{ErrCatastrophicParse, e.Cause}
}
