package narrative

import (
	"fmt"
	"strings"

	"github.com/spektr-org/agrolens/engine"
)

// ============================================================================
// RULE-BASED REPORT
// ============================================================================
// Mirrors the model report from the bundle alone. Every sentence is built
// from FeatureSet values; undefined metrics are named as unavailable rather
// than printed as zero.
// ============================================================================

// Fallback builds a Report without a model.
func Fallback(bundle *engine.SummaryBundle) Report {
	return Report{
		Trend:      trendSentence(bundle),
		Volatility: volatilitySentence(bundle),
		Growth:     growthSentence(bundle),
		Causes:     causes(bundle),
		Outlook:    outlookSentence(bundle),
		Source:     SourceRules,
	}
}

func subject(bundle *engine.SummaryBundle) string {
	f := bundle.Filter
	var parts []string
	if f.Metric != "" {
		parts = append(parts, f.Metric)
	}
	if f.Commodity != "" {
		if len(parts) > 0 {
			parts = append(parts, "of")
		}
		parts = append(parts, f.Commodity)
	}
	if len(parts) == 0 {
		parts = append(parts, "The series")
	}
	if f.Country != "" {
		parts = append(parts, "in", f.Country)
	}
	return strings.Join(parts, " ")
}

func trendSentence(bundle *engine.SummaryBundle) string {
	fs := bundle.Features
	if bundle.Trend == engine.TrendInsufficientData {
		return fmt.Sprintf("%s has a single observation (%d, %s), so no trend can be established.",
			subject(bundle), fs.FirstYear, engine.FormatQuantity(fs.FirstValue, bundle.Unit))
	}
	s := fmt.Sprintf("%s %s between %d and %d, moving from %s to %s",
		subject(bundle), bundle.Trend.Direction(), fs.FirstYear, fs.LastYear,
		engine.FormatQuantity(fs.FirstValue, bundle.Unit), engine.FormatQuantity(fs.LastValue, bundle.Unit))
	if fs.PercentChange.IsDefined() {
		s += fmt.Sprintf(" (%s)", engine.FormatPercent(fs.PercentChange))
	}
	return s + "."
}

func volatilitySentence(bundle *engine.SummaryBundle) string {
	cov, ok := bundle.Features.Volatility.Value()
	if !ok {
		return "Volatility cannot be measured for this selection."
	}
	limit := bundle.Thresholds.Volatile
	switch {
	case cov >= limit:
		return fmt.Sprintf("Year-to-year swings are large: the coefficient of variation is %.3f, at or above the %.2f threshold.", cov, limit)
	case cov >= limit/2:
		return fmt.Sprintf("Variability is moderate, with a coefficient of variation of %.3f.", cov)
	default:
		return fmt.Sprintf("Values are stable around the mean, with a coefficient of variation of %.3f.", cov)
	}
}

func growthSentence(bundle *engine.SummaryBundle) string {
	growth, ok := bundle.Features.AvgYoYGrowth.Value()
	if !ok {
		return "Average annual growth is not available: there are no consecutive years with a non-zero base."
	}
	gaps := 0
	for _, c := range bundle.Changes {
		if c.Gap {
			gaps++
		}
	}
	s := fmt.Sprintf("Average year-over-year growth is %+.1f%%", growth)
	if gaps > 0 {
		s += fmt.Sprintf(", computed over consecutive years only (%d gap(s) in the record)", gaps)
	}
	return s + "."
}

func causes(bundle *engine.SummaryBundle) []string {
	switch bundle.Trend {
	case engine.TrendRising:
		return []string{
			"expansion of cultivated area or herd size",
			"yield gains from improved inputs or varieties",
			"stronger domestic or export demand",
		}
	case engine.TrendFalling:
		return []string{
			"adverse weather such as drought or flooding",
			"policy or market shifts reducing incentives",
			"pest or disease pressure",
		}
	case engine.TrendVolatile:
		return []string{
			"weather-driven harvest swings",
			"price shocks feeding back into planting decisions",
			"changes in reporting or data revisions",
		}
	case engine.TrendStable:
		return []string{
			"mature production systems near capacity",
			"steady demand with limited policy change",
		}
	default:
		return []string{}
	}
}

func outlookSentence(bundle *engine.SummaryBundle) string {
	switch bundle.Trend {
	case engine.TrendRising:
		return "If current conditions hold, further increases are likely in the near term."
	case engine.TrendFalling:
		return "Without a change in conditions, the decline is likely to continue in the near term."
	case engine.TrendVolatile:
		return "The near-term direction is uncertain; expect continued swings."
	case engine.TrendStable:
		return "Little change is expected in the near term."
	default:
		return "More observations are needed before an outlook can be given."
	}
}
