package render

import (
	"fmt"
	"strconv"

	"github.com/spektr-org/agrolens/engine"
)

// ============================================================================
// CHART BUILDER — Produces ChartConfig from SummaryBundles
// ============================================================================
// One bundle gives a single-series line chart titled "<metric> Trend
// (<country>)". Several bundles (a comparison) give one series per bundle,
// named after what distinguishes it.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// BuildChart produces a line chart for one bundle.
func BuildChart(bundle *engine.SummaryBundle) *ChartConfig {
	if bundle == nil || len(bundle.Series) == 0 {
		return nil
	}
	f := bundle.Filter

	config := &ChartConfig{
		ChartType:  "line",
		Title:      chartTitle(f),
		XAxis:      "Year",
		YAxis:      axisLabel(metricName(f), bundle.Unit),
		Series:     []ChartSeries{buildSeries(seriesName(f), bundle.Series)},
		ShowLegend: false,
		ShowGrid:   true,
	}
	config.Colors = assignColors(config.Series)
	return config
}

// BuildComparisonChart overlays several bundles. Nil bundles (selections
// that matched nothing) are skipped.
func BuildComparisonChart(bundles []*engine.SummaryBundle) *ChartConfig {
	var (
		series []ChartSeries
		first  *engine.SummaryBundle
	)
	for _, b := range bundles {
		if b == nil || len(b.Series) == 0 {
			continue
		}
		if first == nil {
			first = b
		}
		series = append(series, buildSeries(seriesName(b.Filter), b.Series))
	}
	if first == nil {
		return nil
	}

	config := &ChartConfig{
		ChartType:  "line",
		Title:      metricName(first.Filter) + " Comparison",
		XAxis:      "Year",
		YAxis:      axisLabel(metricName(first.Filter), first.Unit),
		Series:     series,
		ShowLegend: len(series) > 1,
		ShowGrid:   true,
	}
	config.Colors = assignColors(config.Series)
	return config
}

// ============================================================================
// SERIES BUILDERS
// ============================================================================

func buildSeries(name string, s engine.Series) ChartSeries {
	points := make([]ChartPoint, 0, len(s))
	for _, o := range s {
		points = append(points, ChartPoint{
			Label: strconv.Itoa(o.Year),
			X:     float64(o.Year),
			Value: engine.RoundTo2(o.Value),
		})
	}
	return ChartSeries{Name: name, Data: points}
}

func chartTitle(f engine.FilterSpec) string {
	if f.Country == "" {
		return metricName(f) + " Trend"
	}
	return fmt.Sprintf("%s Trend (%s)", metricName(f), f.Country)
}

func metricName(f engine.FilterSpec) string {
	if f.Metric != "" {
		return f.Metric
	}
	return "Value"
}

func seriesName(f engine.FilterSpec) string {
	switch {
	case f.Country != "" && f.Commodity != "":
		return f.Country + " · " + f.Commodity
	case f.Country != "":
		return f.Country
	case f.Commodity != "":
		return f.Commodity
	}
	return metricName(f)
}

func axisLabel(metric, unit string) string {
	if unit == "" {
		return metric
	}
	return fmt.Sprintf("%s (%s)", metric, unit)
}

func assignColors(series []ChartSeries) []string {
	colors := make([]string, len(series))
	for i := range series {
		colors[i] = defaultColors[i%len(defaultColors)]
		series[i].Color = colors[i]
	}
	return colors
}
