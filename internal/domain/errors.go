package domain

import "errors"

var (
	// ErrInputFormat marks unparseable or structurally invalid input files:
	// a missing expected column, a bad timestamp, a non-numeric number.
	ErrInputFormat = errors.New("input format error")

	// ErrSchema marks an unreadable or malformed ModelSchema, or a feature
	// table that does not match the loaded model.
	ErrSchema = errors.New("schema error")

	// ErrUpstream marks a failure of an external collaborator (archive fetch).
	ErrUpstream = errors.New("upstream error")

	// ErrNotFound is returned when no daily file exists for a requested date.
	ErrNotFound = errors.New("not found")
)
