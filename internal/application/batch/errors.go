package batch

import (
	"errors"
	"fmt"
)

// RejectionError is a render call that completed with a non-success status.
type RejectionError struct {
	StatusCode int
	Body       string
}

func (e *RejectionError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("render rejected: status %d", e.StatusCode)
	}
	return fmt.Sprintf("render rejected: status %d: %s", e.StatusCode, e.Body)
}

// ExhaustedError is returned when a record used its whole retry budget.
// It is terminal for the record only.
type ExhaustedError struct {
	Index    int
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("record %d: retry budget exhausted after %d attempts: %v", e.Index, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// PersistenceError is a failed write of an artifact or report. It aborts
// the run.
type PersistenceError struct {
	Op    string
	Index int
	Err   error
}

func (e *PersistenceError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("%s (record %d): %v", e.Op, e.Index, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Attempt results reported to observers.
const (
	ResultSuccess   = "success"
	ResultRejected  = "rejected"
	ResultTransport = "transport"
)

// classify maps a render error to an attempt result.
func classify(err error) string {
	if err == nil {
		return ResultSuccess
	}
	var re *RejectionError
	if errors.As(err, &re) {
		return ResultRejected
	}
	return ResultTransport
}

// IsExhausted reports whether err is a record-level give-up.
func IsExhausted(err error) bool {
	var ee *ExhaustedError
	return errors.As(err, &ee)
}

// IsPersistence reports whether err is a fatal persistence failure.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
