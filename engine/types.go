package engine

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ============================================================================
// AGROLENS ENGINE TYPES — Statistical Summarisation Core
// ============================================================================
// Shape of everything that flows through the pipeline:
//
//   Dataset (Observations) → Resolve(FilterSpec) → Series
//     → Extract → FeatureSet → Classify → TrendLabel → Build → SummaryBundle
//
// Each stage returns a fresh value. Nothing here reaches the network or the
// filesystem; ingestion and narrative generation live in other packages.
// ============================================================================

// Canonical tag keys carried by every normalised Observation.
const (
	TagDomain    = "domain"
	TagMetric    = "metric"
	TagCommodity = "commodity"
	TagCountry   = "country"
)

var (
	// ErrEmptyResult means no observation matched the filter selection.
	ErrEmptyResult = errors.New("no data for current filters")

	// ErrDuplicateYear means a resolved series holds the same year twice,
	// usually because the selection is missing a dimension (e.g. metric).
	ErrDuplicateYear = errors.New("duplicate year in resolved series")

	// ErrInvalidFilter wraps validation failures of a FilterSpec.
	ErrInvalidFilter = errors.New("invalid filter")
)

// ============================================================================
// OBSERVATION — one normalised row
// ============================================================================

// Observation is a single (year, value) point with its dimension tags.
type Observation struct {
	Year  int               `json:"year"`
	Value float64           `json:"value"`
	Unit  string            `json:"unit,omitempty"`
	Tags  map[string]string `json:"tags,omitempty"`
}

// Tag returns the tag value for key, or "" when absent.
func (o Observation) Tag(key string) string {
	if o.Tags == nil {
		return ""
	}
	return o.Tags[key]
}

func (o Observation) clone() Observation {
	if o.Tags == nil {
		return o
	}
	tags := make(map[string]string, len(o.Tags))
	for k, v := range o.Tags {
		tags[k] = v
	}
	o.Tags = tags
	return o
}

// ============================================================================
// SERIES — resolved, year-ordered observations
// ============================================================================

// Series holds observations for one resolved filter combination,
// sorted ascending by year with unique years.
type Series []Observation

// Len returns the number of observations.
func (s Series) Len() int { return len(s) }

// Years returns the years in order.
func (s Series) Years() []int {
	years := make([]int, len(s))
	for i, o := range s {
		years[i] = o.Year
	}
	return years
}

// Values returns the values in year order.
func (s Series) Values() []float64 {
	values := make([]float64, len(s))
	for i, o := range s {
		values[i] = o.Value
	}
	return values
}

// Unit returns the first non-empty unit in the series.
func (s Series) Unit() string {
	for _, o := range s {
		if o.Unit != "" {
			return o.Unit
		}
	}
	return ""
}

// Period renders the covered year range, e.g. "2000 – 2020".
func (s Series) Period() string {
	switch len(s) {
	case 0:
		return "No data"
	case 1:
		return fmt.Sprintf("%d", s[0].Year)
	}
	return fmt.Sprintf("%d – %d", s[0].Year, s[len(s)-1].Year)
}

// Clone returns a deep copy of the series.
func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	for i, o := range s {
		out[i] = o.clone()
	}
	return out
}

func (s Series) sortByYear() {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Year < s[j].Year })
}

// ============================================================================
// FILTERSPEC — user selection
// ============================================================================

// FilterSpec narrows a dataset to one series. Empty string fields and zero
// year bounds impose no restriction. Matching is case-insensitive.
type FilterSpec struct {
	Domain    string `json:"domain,omitempty" yaml:"domain,omitempty"`
	Metric    string `json:"metric,omitempty" yaml:"metric,omitempty"`
	Commodity string `json:"commodity,omitempty" yaml:"commodity,omitempty"`
	Country   string `json:"country,omitempty" yaml:"country,omitempty"`
	YearStart int    `json:"yearStart,omitempty" yaml:"yearStart,omitempty" validate:"omitempty,min=1900,max=2200"`
	YearEnd   int    `json:"yearEnd,omitempty" yaml:"yearEnd,omitempty" validate:"omitempty,min=1900,max=2200,gtefield=YearStart"`
}

var validate = validator.New()

// Validate checks year bounds. year_start must not exceed year_end.
func (f FilterSpec) Validate() error {
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q (value %v)", ErrInvalidFilter, fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return nil
}

// InRange reports whether year falls within the inclusive bounds.
func (f FilterSpec) InRange(year int) bool {
	if f.YearStart != 0 && year < f.YearStart {
		return false
	}
	if f.YearEnd != 0 && year > f.YearEnd {
		return false
	}
	return true
}

// constraints returns the active tag constraints, lowercased.
func (f FilterSpec) constraints() map[string]string {
	c := make(map[string]string, 4)
	add := func(key, val string) {
		if v := strings.ToLower(strings.TrimSpace(val)); v != "" {
			c[key] = v
		}
	}
	add(TagDomain, f.Domain)
	add(TagMetric, f.Metric)
	add(TagCommodity, f.Commodity)
	add(TagCountry, f.Country)
	return c
}

// Key is a stable cache key; equal selections produce equal keys.
func (f FilterSpec) Key() string {
	c := f.constraints()
	return fmt.Sprintf("domain=%s|metric=%s|commodity=%s|country=%s|from=%d|to=%d",
		c[TagDomain], c[TagMetric], c[TagCommodity], c[TagCountry], f.YearStart, f.YearEnd)
}

// String renders a human-readable selection label.
func (f FilterSpec) String() string {
	parts := []string{}
	for _, v := range []string{f.Domain, f.Metric, f.Commodity, f.Country} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	switch {
	case f.YearStart != 0 && f.YearEnd != 0:
		parts = append(parts, fmt.Sprintf("%d–%d", f.YearStart, f.YearEnd))
	case f.YearStart != 0:
		parts = append(parts, fmt.Sprintf("from %d", f.YearStart))
	case f.YearEnd != 0:
		parts = append(parts, fmt.Sprintf("until %d", f.YearEnd))
	}
	if len(parts) == 0 {
		return "All"
	}
	return strings.Join(parts, " · ")
}

// ============================================================================
// FEATURESET / TREND / BUNDLE
// ============================================================================

// FeatureSet is the statistical summary of a Series. Percent-valued fields
// (PercentChange, AvgYoYGrowth) are expressed in percent; Volatility is the
// coefficient of variation as a ratio.
type FeatureSet struct {
	Count          int     `json:"count"`
	FirstYear      int     `json:"firstYear"`
	LastYear       int     `json:"lastYear"`
	Mean           float64 `json:"mean"`
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	FirstValue     float64 `json:"firstValue"`
	LastValue      float64 `json:"lastValue"`
	StdDev         Metric  `json:"stdDev"`
	AbsoluteChange Metric  `json:"absoluteChange"`
	PercentChange  Metric  `json:"percentChange"`
	AvgYoYGrowth   Metric  `json:"avgYoyGrowth"`
	Volatility     Metric  `json:"volatility"`
}

// TrendLabel is the qualitative classification of a series.
type TrendLabel string

const (
	TrendRising           TrendLabel = "rising"
	TrendFalling          TrendLabel = "falling"
	TrendStable           TrendLabel = "stable"
	TrendVolatile         TrendLabel = "volatile"
	TrendInsufficientData TrendLabel = "insufficient data"
)

// Descriptive mirrors a describe() table: count, mean, std, quartiles.
type Descriptive struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev Metric  `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// PeriodChange is the delta between two adjacent observations.
// Gap is set when the years are not consecutive.
type PeriodChange struct {
	FromYear int     `json:"fromYear"`
	ToYear   int     `json:"toYear"`
	Delta    float64 `json:"delta"`
	Percent  Metric  `json:"percent"`
	Gap      bool    `json:"gap,omitempty"`
}

// SummaryBundle is the self-describing output handed to narrative,
// rendering and export collaborators.
type SummaryBundle struct {
	Filter      FilterSpec     `json:"filter"`
	Series      Series         `json:"series"`
	Unit        string         `json:"unit,omitempty"`
	Features    FeatureSet     `json:"features"`
	Trend       TrendLabel     `json:"trend"`
	Descriptive Descriptive    `json:"descriptive"`
	Changes     []PeriodChange `json:"changes"`
	Thresholds  Thresholds     `json:"thresholds"`
	GeneratedBy string         `json:"generatedBy"`
}
