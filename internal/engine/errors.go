package engine

import "errors"

var (
	// ErrMissingInput signals a required upstream dataset is absent.
	ErrMissingInput = errors.New("missing input")
	// ErrEmptyDimension signals a dimension table with zero rows.
	ErrEmptyDimension = errors.New("empty dimension")
	// ErrInconsistentKey signals a grid/dimension key mismatch during a join.
	ErrInconsistentKey = errors.New("inconsistent key")
)
