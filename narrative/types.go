package narrative

import (
	"context"

	"github.com/spektr-org/agrolens/engine"
)

// ============================================================================
// NARRATIVE — SummaryBundle → analytical report
// ============================================================================
// A Narrator turns a bundle into prose. Model-backed narrators live outside
// this module; they send BuildPrompt(bundle) and hand the reply to
// ParseReport. FallbackNarrator produces the same Report shape from the
// bundle alone, so callers always have something to show.
// ============================================================================

// Narrator produces a report for one bundle.
type Narrator interface {
	Narrate(ctx context.Context, bundle *engine.SummaryBundle) (*Report, error)
}

// Report is the five-part analytical summary.
type Report struct {
	Trend      string   `json:"trend"`
	Volatility string   `json:"volatility"`
	Growth     string   `json:"growth"`
	Causes     []string `json:"causes"`
	Outlook    string   `json:"outlook"`
	Source     string   `json:"source,omitempty"` // "model" or "rules"
}

const (
	SourceModel = "model"
	SourceRules = "rules"
)

// FallbackNarrator is the rule-based Narrator.
type FallbackNarrator struct{}

// Narrate implements Narrator.
func (FallbackNarrator) Narrate(ctx context.Context, bundle *engine.SummaryBundle) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := Fallback(bundle)
	return &r, nil
}
