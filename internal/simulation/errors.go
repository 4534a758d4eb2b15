package simulation

import "errors"

// Runner errors
var (
	ErrInvalidRequest = errors.New("invalid run request")
	ErrRunInProgress  = errors.New("run with the same identity is in progress")
)
