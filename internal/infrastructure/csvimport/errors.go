package csvimport

import (
	"errors"
	"fmt"
)

// Common import errors
var (
	// ErrEmptyFile is returned when the CSV file is empty
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrInvalidEncoding is returned when the file is not UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding: expected UTF-8")

	// ErrMissingHeader is returned when the CSV file has no header row
	ErrMissingHeader = errors.New("CSV file missing header row")
)

// RowError is a data row the CSV reader could not parse
type RowError struct {
	Ordinal int
	Line    int
	Err     error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d (line %d): %v", e.Ordinal, e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
