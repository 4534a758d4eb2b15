package storage

import "errors"

// Sentinel errors shared by the memory, postgres and clickhouse stores.
// Runs, outcomes, summaries and bars are written once and never updated.
var (
	// ErrNotFound reports a run or summary id with no stored record.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey reports a second write of an existing run id,
	// outcome id, summary or bar time.
	ErrDuplicateKey = errors.New("duplicate key: records are write-once")

	// ErrInvalidInput reports a nil record, an empty key or a field
	// that cannot be encoded.
	ErrInvalidInput = errors.New("invalid input")
)
