package domain

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConcurrentUpdate is returned when a write carries a stale row version.
	ErrConcurrentUpdate = errors.New("record was modified by another user")
	// ErrConflict is returned when a write clashes with existing records.
	ErrConflict = errors.New("conflicts with existing records")
)

// PartialDataError reports that one or more record sets required to build a
// view were absent. Views are never rendered from partial data.
type PartialDataError struct {
	Missing []string
	Err     error
}

func (e *PartialDataError) Error() string {
	msg := "required data missing: " + strings.Join(e.Missing, ", ")
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PartialDataError) Unwrap() error {
	return e.Err
}
