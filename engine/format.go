package engine

import (
	"fmt"
	"math"
	"strings"
)

// ============================================================================
// DISPLAY FORMATTING — shared by narrative, render and CLI output
// ============================================================================

// FormatNumber formats with thousands separators and two decimals, dropping
// the decimals for whole numbers: 1234567 → "1,234,567", 0.5 → "0.50".
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	v = RoundTo2(v)
	negative := v < 0
	if negative {
		v = -v
	}

	intPart := int64(v)
	cents := int64(math.Round((v - float64(intPart)) * 100))
	if cents == 100 {
		intPart++
		cents = 0
	}

	result := FormatInt(intPart)
	if cents != 0 {
		result = fmt.Sprintf("%s.%02d", result, cents)
	}
	if negative && (intPart != 0 || cents != 0) {
		result = "-" + result
	}
	return result
}

// FormatInt formats an integer with thousands separators.
func FormatInt(n int64) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// FormatQuantity appends the unit when there is one: "1,250 t".
func FormatQuantity(v float64, unit string) string {
	s := FormatNumber(v)
	if unit = strings.TrimSpace(unit); unit != "" {
		s += " " + unit
	}
	return s
}

// FormatPercent renders a signed percentage with one decimal ("+21.0%"),
// or "n/a" when undefined.
func FormatPercent(m Metric) string {
	v, ok := m.Value()
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f%%", v)
}

// FormatRatio renders a ratio with three decimals, or "n/a".
func FormatRatio(m Metric) string {
	v, ok := m.Value()
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", v)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
