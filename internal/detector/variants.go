package detector

import (
	"fmt"
	"sort"

	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/params"
)

// RuleKind selects the zone creation rule of a variant.
type RuleKind string

// Rule kinds
const (
	RuleGap         RuleKind = "gap"
	RuleReversal    RuleKind = "reversal"
	RuleGapReversal RuleKind = "gap_reversal" // reversal with non-overlapping confirmation
)

// Variant is one configuration of the scanning core.
type Variant struct {
	ID       string
	Rule     RuleKind
	Trend    bool
	Momentum bool
}

var variants = map[string]Variant{
	"gap":                         {ID: "gap", Rule: RuleGap},
	"gap_trend":                   {ID: "gap_trend", Rule: RuleGap, Trend: true},
	"gap_momentum":                {ID: "gap_momentum", Rule: RuleGap, Momentum: true},
	"gap_trend_momentum":          {ID: "gap_trend_momentum", Rule: RuleGap, Trend: true, Momentum: true},
	"reversal":                    {ID: "reversal", Rule: RuleReversal},
	"reversal_trend":              {ID: "reversal_trend", Rule: RuleReversal, Trend: true},
	"reversal_momentum":           {ID: "reversal_momentum", Rule: RuleReversal, Momentum: true},
	"gap_reversal":                {ID: "gap_reversal", Rule: RuleGapReversal},
	"gap_reversal_trend":          {ID: "gap_reversal_trend", Rule: RuleGapReversal, Trend: true},
	"gap_reversal_trend_momentum": {ID: "gap_reversal_trend_momentum", Rule: RuleGapReversal, Trend: true, Momentum: true},
}

// Lookup returns the detector registered under id.
func Lookup(id string) (Detector, error) {
	v, ok := variants[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDetector, id)
	}
	return New(v), nil
}

// IDs returns registered variant ids in sorted order.
func IDs() []string {
	ids := make([]string, 0, len(variants))
	for id := range variants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ZoneDetector runs the scanning core for one Variant.
type ZoneDetector struct {
	variant Variant
	schema  params.Schema
}

// New creates a detector for v.
func New(v Variant) *ZoneDetector {
	schema := commonSchema
	if v.Rule == RuleGap {
		schema = schema.Merge(gapSchema)
	}
	if v.Trend {
		schema = schema.Merge(trendSchema)
	}
	if v.Momentum {
		schema = schema.Merge(momentumSchema)
	}
	return &ZoneDetector{variant: v, schema: schema}
}

func (d *ZoneDetector) ID() string { return d.variant.ID }

func (d *ZoneDetector) Schema() params.Schema { return d.schema }

// Detect builds the scanner from values and runs it over bars.
func (d *ZoneDetector) Detect(bars []*domain.Bar, values map[string]any) (*Result, error) {
	s, err := d.build(values)
	if err != nil {
		return nil, err
	}
	return s.scan(bars), nil
}

func (d *ZoneDetector) build(values map[string]any) (*scanner, error) {
	r := params.NewReader(values, d.schema)

	cfg := scanConfig{
		MinWaitBars:          r.Int(ParamMinWaitBars),
		MaxWaitBars:          r.Int(ParamMaxWaitBars),
		MinOverlapRatio:      r.Float(ParamMinOverlapRatio),
		MaxTouches:           r.Int(ParamMaxTouches),
		AllowMultipleEntries: r.Bool(ParamAllowMultipleEntries),
		MaxActiveZones:       r.Int(ParamMaxActiveZones),
	}

	var rule ZoneRule
	switch d.variant.Rule {
	case RuleGap:
		rule = GapRule{MinGap: r.Float(ParamMinGap)}
	case RuleReversal:
		rule = ReversalRule{}
	case RuleGapReversal:
		rule = ReversalRule{GapConfirmed: true}
	default:
		return nil, fmt.Errorf("%w: rule %q", ErrUnknownDetector, d.variant.Rule)
	}

	var filters []Filter
	if d.variant.Trend {
		filters = append(filters, TrendFilter{
			Fast: r.String(ParamFastIndicator),
			Slow: r.String(ParamSlowIndicator),
		})
	}
	if d.variant.Momentum {
		filters = append(filters, MomentumFilter{
			Oscillator: r.String(ParamOscillator),
			LongBelow:  r.Float(ParamMomentumLongBelow),
			ShortAbove: r.Float(ParamMomentumShortAbove),
		})
	}

	if err := r.Err(); err != nil {
		return nil, err
	}
	if err := validate(cfg, rule); err != nil {
		return nil, err
	}

	return &scanner{rule: rule, filters: filters, cfg: cfg}, nil
}

func validate(cfg scanConfig, rule ZoneRule) error {
	switch {
	case cfg.MinWaitBars < 0:
		return fmt.Errorf("%w: %s must be >= 0", params.ErrInvalidParam, ParamMinWaitBars)
	case cfg.MaxWaitBars < 1:
		return fmt.Errorf("%w: %s must be >= 1", params.ErrInvalidParam, ParamMaxWaitBars)
	case cfg.MinOverlapRatio < 0 || cfg.MinOverlapRatio > 1:
		return fmt.Errorf("%w: %s must be within [0, 1]", params.ErrInvalidParam, ParamMinOverlapRatio)
	case cfg.MaxActiveZones < 0:
		return fmt.Errorf("%w: %s must be >= 0", params.ErrInvalidParam, ParamMaxActiveZones)
	}
	if g, ok := rule.(GapRule); ok && g.MinGap < 0 {
		return fmt.Errorf("%w: %s must be >= 0", params.ErrInvalidParam, ParamMinGap)
	}
	return nil
}

var _ Detector = (*ZoneDetector)(nil)
