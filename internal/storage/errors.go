package storage

import "errors"

// Result stores are append-only: a run, its scenario summaries, decision
// rows and valuations are written once per run_id and never updated.
var (
	// ErrNotFound is returned when no run or row matches the lookup key.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a run_id, or a row keyed by run_id
	// plus scenario or strategy, is already stored.
	ErrDuplicateKey = errors.New("duplicate key: run results are append-only")

	// ErrInvalidInput is returned for nil rows or rows missing their run_id
	// or strategy.
	ErrInvalidInput = errors.New("invalid input")
)
