package engine

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ============================================================================
// FEATURE EXTRACTOR — Series → FeatureSet
// ============================================================================
// Dispersion uses the sample standard deviation (n−1). With one observation
// the sample std does not exist, so std, volatility, change and growth are
// all Undefined rather than zero.
// ============================================================================

// Extract computes the FeatureSet of a non-empty series. The series must be
// year-ordered, which Resolve guarantees. An empty series yields a zero
// FeatureSet with every optional field Undefined.
func Extract(s Series) FeatureSet {
	if len(s) == 0 {
		return FeatureSet{}
	}

	values := s.Values()
	first, last := s[0], s[len(s)-1]

	fs := FeatureSet{
		Count:      len(s),
		FirstYear:  first.Year,
		LastYear:   last.Year,
		Mean:       stat.Mean(values, nil),
		Min:        floats.Min(values),
		Max:        floats.Max(values),
		FirstValue: first.Value,
		LastValue:  last.Value,
	}

	if len(s) < 2 {
		return fs
	}

	fs.AbsoluteChange = Defined(last.Value - first.Value)
	fs.PercentChange = percentOf(last.Value-first.Value, first.Value)
	fs.AvgYoYGrowth = avgYoYGrowth(YearOverYear(s))

	sd := stat.StdDev(values, nil)
	fs.StdDev = Defined(sd)
	if fs.Mean != 0 {
		fs.Volatility = Defined(sd / math.Abs(fs.Mean))
	}
	return fs
}

// avgYoYGrowth averages the percent changes of consecutive-year pairs.
// Pairs across a gap or with a zero base are excluded.
func avgYoYGrowth(changes []PeriodChange) Metric {
	var sum float64
	var n int
	for _, c := range changes {
		if c.Gap {
			continue
		}
		if v, ok := c.Percent.Value(); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return Undefined()
	}
	return Defined(sum / float64(n))
}

// percentOf returns 100×delta/base, Undefined when base is zero.
func percentOf(delta, base float64) Metric {
	if base == 0 {
		return Undefined()
	}
	return Defined(100 * delta / base)
}

// ============================================================================
// PERIOD DELTAS
// ============================================================================

// YearOverYear lists the change between each pair of adjacent observations.
// Missing years are never interpolated; a pair that spans more than one
// year is flagged with Gap.
func YearOverYear(s Series) []PeriodChange {
	if len(s) < 2 {
		return []PeriodChange{}
	}
	out := make([]PeriodChange, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		prev, cur := s[i-1], s[i]
		delta := cur.Value - prev.Value
		out = append(out, PeriodChange{
			FromYear: prev.Year,
			ToYear:   cur.Year,
			Delta:    delta,
			Percent:  percentOf(delta, prev.Value),
			Gap:      cur.Year-prev.Year != 1,
		})
	}
	return out
}

// ============================================================================
// DESCRIPTIVE STATISTICS
// ============================================================================

// Describe returns count, mean, sample std and empirical quartiles.
func Describe(s Series) Descriptive {
	if len(s) == 0 {
		return Descriptive{}
	}

	sorted := s.Values()
	sort.Float64s(sorted)

	d := Descriptive{
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Min:    sorted[0],
		Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
	if len(sorted) > 1 {
		d.StdDev = Defined(stat.StdDev(sorted, nil))
	}
	return d
}
