package ingest

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/spektr-org/agrolens/engine"
)

// ============================================================================
// SIMULATOR — deterministic demo series
// ============================================================================
// Produces a compounding series with multiplicative noise for each
// country × commodity pair. The same SimulateOptions always yield the same
// rows, so demos and tests are reproducible without network access.
// ============================================================================

// SimulateOptions controls Simulate.
type SimulateOptions struct {
	Seed        int64    `mapstructure:"seed"`
	Domain      string   `mapstructure:"domain"`
	Metric      string   `mapstructure:"metric"`
	Unit        string   `mapstructure:"unit"`
	Commodities []string `mapstructure:"commodities"`
	Countries   []string `mapstructure:"countries"`
	YearStart   int      `mapstructure:"year_start"`
	YearEnd     int      `mapstructure:"year_end"`
	Base        float64  `mapstructure:"base"`
	Growth      float64  `mapstructure:"growth"` // mean yearly growth, 0.03 = 3%
	Noise       float64  `mapstructure:"noise"`  // std of the yearly multiplicative shock
}

// DefaultSimulateOptions is a FAOSTAT-like production series.
func DefaultSimulateOptions() SimulateOptions {
	return SimulateOptions{
		Seed:        42,
		Domain:      "Production",
		Metric:      "Production",
		Unit:        "t",
		Commodities: []string{"Wheat", "Rice", "Maize"},
		Countries:   []string{"India", "Kenya", "Brazil", "USA"},
		YearStart:   2000,
		YearEnd:     2022,
		Base:        1000,
		Growth:      0.02,
		Noise:       0.08,
	}
}

// Simulate generates one series per country × commodity pair, in that order.
func Simulate(opts SimulateOptions) ([]engine.Observation, error) {
	if opts.YearEnd < opts.YearStart {
		return nil, fmt.Errorf("year_end %d before year_start %d", opts.YearEnd, opts.YearStart)
	}
	if opts.Base <= 0 {
		return nil, fmt.Errorf("base must be positive, got %v", opts.Base)
	}
	if len(opts.Countries) == 0 || len(opts.Commodities) == 0 {
		return nil, fmt.Errorf("at least one country and one commodity are required")
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	years := opts.YearEnd - opts.YearStart + 1
	out := make([]engine.Observation, 0, years*len(opts.Countries)*len(opts.Commodities))

	for _, country := range opts.Countries {
		for _, commodity := range opts.Commodities {
			// Per-series scale keeps countries visibly distinct.
			level := opts.Base * (0.5 + rng.Float64())
			for y := opts.YearStart; y <= opts.YearEnd; y++ {
				out = append(out, engine.Observation{
					Year:  y,
					Value: math.Round(level*100) / 100,
					Unit:  opts.Unit,
					Tags: map[string]string{
						engine.TagDomain:    opts.Domain,
						engine.TagMetric:    opts.Metric,
						engine.TagCommodity: commodity,
						engine.TagCountry:   country,
					},
				})
				shock := 1 + opts.Growth + rng.NormFloat64()*opts.Noise
				level *= math.Max(shock, 0.05)
			}
		}
	}
	return out, nil
}
