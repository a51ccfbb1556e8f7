package engine

import (
	"fmt"
	"math"
	"strings"
)

// ============================================================================
// FILTER RESOLVER — Dataset + FilterSpec → Series
// ============================================================================
// Single pass: every tag constraint and the year window are checked per row.
// Matching rows are copied out (tags included), sorted by year, and checked
// for duplicate years. Non-finite values are dropped the way coerced
// non-numeric cells would be.
// ============================================================================

// Resolve returns the series selected by spec. An empty selection returns
// ErrEmptyResult; the caller decides how to present "no data".
func Resolve(data Dataset, spec FilterSpec) (Series, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmptyResult, spec)
	}

	want := spec.constraints()
	n := data.Len()
	out := make(Series, 0, min(n, 64))

	for i := 0; i < n; i++ {
		o := data.At(i)
		if !spec.InRange(o.Year) {
			continue
		}
		if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
			continue
		}
		if !matchesTags(o, want) {
			continue
		}
		out = append(out, o.clone())
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyResult, spec)
	}

	out.sortByYear()
	for i := 1; i < len(out); i++ {
		if out[i].Year == out[i-1].Year {
			return nil, fmt.Errorf("%w: %d (selection %s)", ErrDuplicateYear, out[i].Year, spec)
		}
	}
	return out, nil
}

// matchesTags reports whether o carries every wanted tag value.
func matchesTags(o Observation, want map[string]string) bool {
	for key, val := range want {
		if strings.ToLower(strings.TrimSpace(o.Tag(key))) != val {
			return false
		}
	}
	return true
}
