package engine

// ============================================================================
// TREND CLASSIFIER — FeatureSet → TrendLabel
// ============================================================================
// Rule order:
//   1. fewer than 2 observations        → insufficient data
//   2. volatility ≥ Volatile            → volatile (wins over direction)
//   3. percent change ≥ Rising          → rising
//   4. percent change ≤ Falling         → falling
//   5. otherwise                        → stable
//
// When percent change is undefined (first value 0) the average YoY growth
// stands in for it; when both are undefined the series is stable.
// ============================================================================

// Thresholds are the tunable cutoffs of Classify. Rising and Falling are
// percentages; Volatile is a coefficient of variation.
type Thresholds struct {
	Volatile float64 `json:"volatile" yaml:"volatile" mapstructure:"volatile"`
	Rising   float64 `json:"rising" yaml:"rising" mapstructure:"rising"`
	Falling  float64 `json:"falling" yaml:"falling" mapstructure:"falling"`
}

// Default cutoffs.
const (
	DefaultVolatileCoV    = 0.25
	DefaultRisingPercent  = 5.0
	DefaultFallingPercent = -5.0
)

// DefaultThresholds returns the default cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Volatile: DefaultVolatileCoV,
		Rising:   DefaultRisingPercent,
		Falling:  DefaultFallingPercent,
	}
}

// Classify maps features to a trend label.
func Classify(fs FeatureSet, t Thresholds) TrendLabel {
	if fs.Count < 2 {
		return TrendInsufficientData
	}

	if cov, ok := fs.Volatility.Value(); ok && cov >= t.Volatile {
		return TrendVolatile
	}

	change, ok := fs.PercentChange.Value()
	if !ok {
		change, ok = fs.AvgYoYGrowth.Value()
	}
	if !ok {
		return TrendStable
	}

	switch {
	case change >= t.Rising:
		return TrendRising
	case change <= t.Falling:
		return TrendFalling
	default:
		return TrendStable
	}
}

// Direction returns the verb used in prose for a label.
func (l TrendLabel) Direction() string {
	switch l {
	case TrendRising:
		return "increased"
	case TrendFalling:
		return "decreased"
	case TrendVolatile:
		return "fluctuated"
	case TrendStable:
		return "held steady"
	default:
		return "insufficient data"
	}
}
