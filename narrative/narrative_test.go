package narrative

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/agrolens/engine"
)

func summarize(t *testing.T, values map[int]float64, country string) *engine.SummaryBundle {
	t.Helper()
	var rows []engine.Observation
	for y, v := range values {
		rows = append(rows, engine.Observation{
			Year:  y,
			Value: v,
			Unit:  "t",
			Tags: map[string]string{
				engine.TagMetric:    "Production",
				engine.TagCommodity: "Wheat",
				engine.TagCountry:   country,
			},
		})
	}
	b, err := engine.Summarize(engine.NewSliceDataset(rows), engine.FilterSpec{
		Metric:    "Production",
		Commodity: "Wheat",
		Country:   country,
	})
	require.NoError(t, err)
	return b
}

func rising(t *testing.T) *engine.SummaryBundle {
	return summarize(t, map[int]float64{2018: 100, 2019: 110, 2020: 121}, "India")
}

func TestBuildPromptDeterministic(t *testing.T) {
	a := BuildPrompt(rising(t))
	b := BuildPrompt(rising(t))
	assert.Equal(t, a, b)

	assert.Contains(t, a, "SELECTION: Production · Wheat · India")
	assert.Contains(t, a, "PERIOD: 2018 – 2020 (3 observations)")
	assert.Contains(t, a, "- trend label: rising")
	assert.Contains(t, a, "- percent change: +21.0%")
	assert.Contains(t, a, "2019: 110\n")
	assert.Contains(t, a, `"causes": [`)
}

func TestBuildPromptUndefinedMetrics(t *testing.T) {
	p := BuildPrompt(summarize(t, map[int]float64{2020: 50}, "Kenya"))
	assert.Contains(t, p, "- percent change: n/a")
	assert.Contains(t, p, "- volatility (coefficient of variation): n/a")
	assert.NotContains(t, p, "+0.0%")
}

func TestParseReport(t *testing.T) {
	reply := "Here you go:\n```json\n" + `{
  "trend": " Output rose steadily. ",
  "volatility": "Low.",
  "growth": "About 10% a year.",
  "causes": ["better seed", "  "],
  "outlook": "More of the same."
}` + "\n```"

	r, err := ParseReport(reply)
	require.NoError(t, err)
	assert.Equal(t, "Output rose steadily.", r.Trend)
	assert.Equal(t, []string{"better seed"}, r.Causes)
	assert.Equal(t, SourceModel, r.Source)
}

func TestParseReportRejects(t *testing.T) {
	_, err := ParseReport("not json at all")
	assert.Error(t, err)

	_, err = ParseReport(`{"trend": "", "causes": []}`)
	assert.ErrorIs(t, err, ErrEmptyReport)
}

func TestFallbackRising(t *testing.T) {
	r := Fallback(rising(t))
	assert.Equal(t, SourceRules, r.Source)
	assert.Equal(t, "Production of Wheat in India increased between 2018 and 2020, moving from 100 t to 121 t (+21.0%).", r.Trend)
	assert.Contains(t, r.Volatility, "stable")
	assert.Equal(t, "Average year-over-year growth is +10.0%.", r.Growth)
	assert.NotEmpty(t, r.Causes)
	assert.Contains(t, r.Outlook, "increases")
}

func TestFallbackSingleObservation(t *testing.T) {
	r := Fallback(summarize(t, map[int]float64{2020: 50}, "Kenya"))
	assert.Contains(t, r.Trend, "single observation")
	assert.Contains(t, r.Volatility, "cannot be measured")
	assert.Contains(t, r.Growth, "not available")
	assert.Empty(t, r.Causes)
}

func TestFallbackNotesGaps(t *testing.T) {
	r := Fallback(summarize(t, map[int]float64{2000: 100, 2001: 104, 2005: 110}, "Chile"))
	assert.Contains(t, r.Growth, "1 gap(s)")
}

func TestFallbackNarrator(t *testing.T) {
	var n Narrator = FallbackNarrator{}
	r, err := n.Narrate(context.Background(), rising(t))
	require.NoError(t, err)
	assert.Equal(t, Fallback(rising(t)), *r)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = n.Narrate(ctx, rising(t))
	assert.ErrorIs(t, err, context.Canceled)
}
