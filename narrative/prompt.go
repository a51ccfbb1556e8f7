package narrative

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spektr-org/agrolens/engine"
)

// ============================================================================
// PROMPT BUILDER — bundle-driven, deterministic
// ============================================================================
// Only derived features and the (small) series go to the model, never the
// source table. The prompt depends on nothing but the bundle: no clock, no
// map iteration, so the same bundle always yields the same bytes.
// ============================================================================

// BuildPrompt renders the analyst prompt for a bundle.
func BuildPrompt(bundle *engine.SummaryBundle) string {
	var b strings.Builder
	f := bundle.Filter
	fs := bundle.Features

	// ── Header ────────────────────────────────────────────────────────────
	b.WriteString("You are an agricultural economist writing a short analytical brief.\n\n")
	fmt.Fprintf(&b, "SELECTION: %s\n", f.String())
	fmt.Fprintf(&b, "PERIOD: %s (%d observations)\n", bundle.Series.Period(), fs.Count)
	if bundle.Unit != "" {
		fmt.Fprintf(&b, "UNIT: %s\n", bundle.Unit)
	}
	b.WriteString("\n")

	// ── Computed features ─────────────────────────────────────────────────
	b.WriteString("COMPUTED FEATURES (already calculated, do not recompute):\n")
	fmt.Fprintf(&b, "- trend label: %s\n", bundle.Trend)
	fmt.Fprintf(&b, "- first value (%d): %s\n", fs.FirstYear, engine.FormatNumber(fs.FirstValue))
	fmt.Fprintf(&b, "- last value (%d): %s\n", fs.LastYear, engine.FormatNumber(fs.LastValue))
	fmt.Fprintf(&b, "- mean: %s, min: %s, max: %s\n",
		engine.FormatNumber(fs.Mean), engine.FormatNumber(fs.Min), engine.FormatNumber(fs.Max))
	fmt.Fprintf(&b, "- absolute change: %s\n", formatMetric(fs.AbsoluteChange))
	fmt.Fprintf(&b, "- percent change: %s\n", engine.FormatPercent(fs.PercentChange))
	fmt.Fprintf(&b, "- average year-over-year growth: %s\n", engine.FormatPercent(fs.AvgYoYGrowth))
	fmt.Fprintf(&b, "- volatility (coefficient of variation): %s\n", engine.FormatRatio(fs.Volatility))
	b.WriteString("Values shown as n/a could not be computed; say so instead of guessing.\n\n")

	// ── Series ────────────────────────────────────────────────────────────
	b.WriteString("SERIES (year: value):\n")
	for _, o := range bundle.Series {
		fmt.Fprintf(&b, "%d: %s\n", o.Year, engine.FormatNumber(o.Value))
	}
	b.WriteString("\n")

	// ── Response format ───────────────────────────────────────────────────
	b.WriteString(responseFormat())
	return b.String()
}

func responseFormat() string {
	example := Report{
		Trend:      "one or two sentences on direction",
		Volatility: "one or two sentences on stability",
		Growth:     "one or two sentences on growth rate",
		Causes:     []string{"plausible cause", "plausible cause"},
		Outlook:    "one or two sentences on the near-term outlook",
	}
	raw, _ := json.MarshalIndent(example, "", "  ")
	return fmt.Sprintf(`RESPONSE FORMAT:
Reply with a single JSON object and nothing else:
%s
Causes are qualitative and must be framed as possibilities, not facts.
`, raw)
}

func formatMetric(m engine.Metric) string {
	v, ok := m.Value()
	if !ok {
		return "n/a"
	}
	return engine.FormatNumber(v)
}
