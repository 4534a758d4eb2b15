package ingestion

import "errors"

// Bar loading errors
var (
	ErrMissingBarField = errors.New("missing mandatory bar field")
	ErrInvalidBarField = errors.New("invalid bar field")
	ErrInvalidOrdering = errors.New("bars are not in strictly increasing time order")
)
