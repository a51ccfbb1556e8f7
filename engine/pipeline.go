package engine

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ============================================================================
// PIPELINE — Resolve → Extract → Classify → Build
// ============================================================================
// Entry point: Summarize(data, spec, opts...)
//
// Each stage is a pure function of its inputs. Only an empty selection stops
// the pipeline; undefined metrics flow through into the bundle. Identical
// inputs give bit-identical bundles, so callers may cache by FilterSpec.Key.
// ============================================================================

// Summarize runs the full pipeline for one selection.
func Summarize(data Dataset, spec FilterSpec, opts ...Option) (*SummaryBundle, error) {
	cfg := applyOptions(opts)
	return summarize(data, spec, cfg)
}

func summarize(data Dataset, spec FilterSpec, cfg *config) (*SummaryBundle, error) {
	log := cfg.Logger.With(zap.String("filter", spec.String()))

	series, err := Resolve(data, spec)
	if err != nil {
		if errors.Is(err, ErrEmptyResult) {
			log.Debug("no observations matched")
		}
		return nil, err
	}

	features := Extract(series)
	label := Classify(features, cfg.Thresholds)

	bundle := Build(BundleParts{
		Filter:      spec,
		Series:      series,
		Features:    features,
		Trend:       label,
		Descriptive: Describe(series),
		Changes:     YearOverYear(series),
		Thresholds:  cfg.Thresholds,
	})

	log.Debug("summary built",
		zap.Int("observations", features.Count),
		zap.String("period", series.Period()),
		zap.String("trend", string(label)),
		zap.Stringer("percentChange", features.PercentChange),
		zap.Stringer("volatility", features.Volatility),
	)
	return &bundle, nil
}

// ============================================================================
// COMPARISON — independent selections evaluated concurrently
// ============================================================================

// Comparison is the outcome for one selection. Exactly one of Bundle or Err
// is set.
type Comparison struct {
	Filter FilterSpec     `json:"filter"`
	Bundle *SummaryBundle `json:"bundle,omitempty"`
	Err    error          `json:"-"`
	Error  string         `json:"error,omitempty"`
}

// Empty reports whether the selection matched nothing.
func (c Comparison) Empty() bool { return errors.Is(c.Err, ErrEmptyResult) }

// Compare summarises each spec independently, at most WithWorkers at a time.
// Results keep the order of specs. Per-selection failures are recorded on
// the Comparison; only context cancellation fails the call.
func Compare(ctx context.Context, data Dataset, specs []FilterSpec, opts ...Option) ([]Comparison, error) {
	cfg := applyOptions(opts)
	results := make([]Comparison, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bundle, err := summarize(data, spec, cfg)
			results[i] = Comparison{Filter: spec, Bundle: bundle, Err: err}
			if err != nil {
				results[i].Error = err.Error()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	cfg.Logger.Debug("comparison complete", zap.Int("selections", len(specs)))
	return results, nil
}
