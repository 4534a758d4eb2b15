package simulation

import (
	"errors"
	"fmt"
	"math"

	"zone-signal-lab/internal/domain"
)

var errMalformedSignal = errors.New("malformed signal")

// validateSignal rejects signals without a usable time, direction or entry price.
func validateSignal(sig *domain.Signal) error {
	switch {
	case sig == nil:
		return fmt.Errorf("%w: nil", errMalformedSignal)
	case sig.TimeMs <= 0:
		return fmt.Errorf("%w: time %d", errMalformedSignal, sig.TimeMs)
	case !sig.Direction.Valid():
		return fmt.Errorf("%w: direction %q", errMalformedSignal, sig.Direction)
	case math.IsNaN(sig.EntryPrice) || math.IsInf(sig.EntryPrice, 0) || sig.EntryPrice <= 0:
		return fmt.Errorf("%w: entry price %v", errMalformedSignal, sig.EntryPrice)
	}
	return nil
}
