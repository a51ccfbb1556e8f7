package engine

// Version identifies the feature definitions a bundle was computed with.
const Version = "0.3.0"

// BundleParts carries the already-computed pieces of a SummaryBundle.
type BundleParts struct {
	Filter      FilterSpec
	Series      Series
	Features    FeatureSet
	Trend       TrendLabel
	Descriptive Descriptive
	Changes     []PeriodChange
	Thresholds  Thresholds
}

// Build assembles a SummaryBundle. It computes nothing; slices are copied so
// the bundle shares no memory with its inputs.
func Build(p BundleParts) SummaryBundle {
	changes := make([]PeriodChange, len(p.Changes))
	copy(changes, p.Changes)

	return SummaryBundle{
		Filter:      p.Filter,
		Series:      p.Series.Clone(),
		Unit:        p.Series.Unit(),
		Features:    p.Features,
		Trend:       p.Trend,
		Descriptive: p.Descriptive,
		Changes:     changes,
		Thresholds:  p.Thresholds,
		GeneratedBy: "agrolens/" + Version,
	}
}
