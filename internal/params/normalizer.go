package params

import (
	"sort"
	"strings"

	"zone-signal-lab/internal/logger"
)

// MinGapParam is the gap threshold that receives an instrument-aware default.
const MinGapParam = "min_gap"

// DefaultMinGapPips is the min_gap supplied when a detector expects one and none is given.
const DefaultMinGapPips = 1.0

// Normalizer resolves aliases, coerces values, converts pip distances and
// filters a raw parameter mapping down to a detector schema.
type Normalizer struct {
	pipSizes          map[string]float64
	defaultMinGapPips float64
	log               *logger.Logger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithPipSizes sets per-instrument unit size overrides.
func WithPipSizes(sizes map[string]float64) Option {
	return func(n *Normalizer) {
		n.pipSizes = sizes
	}
}

// WithDefaultMinGapPips sets the min_gap default in pips.
func WithDefaultMinGapPips(pips float64) Option {
	return func(n *Normalizer) {
		n.defaultMinGapPips = pips
	}
}

// WithLogger sets the logger used for dropped and uncoerced values.
func WithLogger(l *logger.Logger) Option {
	return func(n *Normalizer) {
		n.log = l
	}
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		defaultMinGapPips: DefaultMinGapPips,
		log:               logger.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// PipSize returns the unit size the normalizer uses for instrument.
func (n *Normalizer) PipSize(instrument string) float64 {
	return PipSize(instrument, n.pipSizes)
}

// Normalize returns a typed mapping containing only parameters declared by schema.
// It never fails: unconvertible pip values are dropped and uncoercible
// values are kept raw for the detector to reject.
func (n *Normalizer) Normalize(raw map[string]any, schema Schema, instrument string) map[string]any {
	pipSize := n.PipSize(instrument)

	work := make(map[string]any, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		work[k] = v
	}

	// 1. Risk distances in pips to price units
	for _, key := range sortedKeys(work) {
		if !strings.HasSuffix(key, PipsSuffix) {
			continue
		}
		pips, ok := toFloat(work[key])
		var price float64
		if ok {
			price, ok = PipsToPrice(pips, pipSize)
		}
		if !ok {
			n.log.Warn("dropping pip parameter",
				logger.String("param", key),
				logger.Any("value", work[key]),
				logger.String("instrument", instrument),
			)
			delete(work, key)
			continue
		}

		base := strings.TrimSuffix(key, PipsSuffix)
		if _, supplied := work[base]; schema.Declares(base) && !supplied {
			work[base] = price
			delete(work, key)
			continue
		}
		work[key] = price
	}

	out := make(map[string]any, len(schema))
	for _, spec := range schema {
		// 2. Aliases
		v, ok := work[spec.Name]
		if !ok {
			for _, alias := range spec.Aliases {
				if av, found := work[alias]; found {
					v, ok = av, true
					break
				}
			}
		}
		if !ok {
			continue
		}

		// 3. Coercion
		t := spec.ExpectedType()
		cv, coerced := coerce(v, t)
		if !coerced {
			n.log.Warn("parameter left uncoerced",
				logger.String("param", spec.Name),
				logger.Any("value", v),
				logger.String("expected", t.String()),
			)
			cv = v
		}
		out[spec.Name] = cv
	}

	// 4. min_gap default
	if _, ok := out[MinGapParam]; !ok && schema.Declares(MinGapParam) {
		if gap, ok := PipsToPrice(n.defaultMinGapPips, pipSize); ok {
			out[MinGapParam] = gap
		}
	}

	// 5. Only declared names were copied to out
	var undeclared []string
	for _, key := range sortedKeys(work) {
		if !schema.Declares(key) {
			undeclared = append(undeclared, key)
		}
	}
	if len(undeclared) > 0 {
		n.log.Debug("discarded undeclared parameters", logger.Any("params", undeclared))
	}

	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
