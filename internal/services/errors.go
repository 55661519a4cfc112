package services

import "errors"

// Dashboard service errors
var (
	// Upload errors
	ErrEmptyUpload = errors.New("empty upload")

	// Export errors
	ErrUnknownFormat = errors.New("unknown export format")
	ErrUnknownTable  = errors.New("unknown export table")
	ErrNoResult      = errors.New("no pipeline result to export")

	// Month errors
	ErrMonthNotInData = errors.New("month not present in data")
)
