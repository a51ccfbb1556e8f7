package engine

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Metric is a number that may be undefined (division by zero, too few
// observations). Undefined is a distinct state from zero and encodes as JSON
// null. The zero value is undefined.
type Metric struct {
	value   float64
	defined bool
}

// Defined wraps v. NaN and ±Inf become Undefined.
func Defined(v float64) Metric {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Metric{}
	}
	return Metric{value: v, defined: true}
}

// Undefined returns the undefined sentinel.
func Undefined() Metric { return Metric{} }

// Value returns the number and whether it is defined.
func (m Metric) Value() (float64, bool) { return m.value, m.defined }

// IsDefined reports whether the metric carries a number.
func (m Metric) IsDefined() bool { return m.defined }

// Or returns the value, or fallback when undefined.
func (m Metric) Or(fallback float64) float64 {
	if !m.defined {
		return fallback
	}
	return m.value
}

// String formats the value, or "n/a".
func (m Metric) String() string {
	if !m.defined {
		return "n/a"
	}
	return strconv.FormatFloat(m.value, 'f', -1, 64)
}

func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.defined {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*m = Metric{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Defined(v)
	return nil
}
