package params

import "errors"

// ErrInvalidParam is returned when a present parameter cannot be read as its declared type.
var ErrInvalidParam = errors.New("invalid parameter")
