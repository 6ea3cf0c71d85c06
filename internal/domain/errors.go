package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing column")

	// ErrMissingValue is returned when a required cell is empty.
	ErrMissingValue = errors.New("missing value")

	// ErrNotFinite is returned when a numeric cell holds an infinity.
	ErrNotFinite = errors.New("value is not finite")

	// ErrEmptyTable is returned by aggregators that need at least one row.
	ErrEmptyTable = errors.New("no rows to aggregate")
)

// ParseError reports a failure to read or coerce an input file.
// Row is the 1-based line number in the file (the header is line 1), or 0
// when the failure is not tied to a row.
type ParseError struct {
	Path   string
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Row > 0:
		return fmt.Sprintf("parse %s: line %d: column %q: value %q: %v", e.Path, e.Row, e.Column, e.Value, e.Err)
	case e.Column != "":
		return fmt.Sprintf("parse %s: column %q: %v", e.Path, e.Column, e.Err)
	default:
		return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports a table that does not satisfy a stage's preconditions.
type ValidationError struct {
	Stage  string
	Column string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: column %q: %v", e.Stage, e.Column, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func missingColumn(stage, column string) error {
	return &ValidationError{Stage: stage, Column: column, Err: ErrMissingColumn}
}
