package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// FIXTURES
// ============================================================================

func obs(year int, value float64, country string) Observation {
	return Observation{
		Year:  year,
		Value: value,
		Unit:  "t",
		Tags: map[string]string{
			TagDomain:    "Production",
			TagMetric:    "Production",
			TagCommodity: "Wheat",
			TagCountry:   country,
		},
	}
}

func fixture() Dataset {
	return NewSliceDataset([]Observation{
		obs(2020, 121, "India"),
		obs(2018, 100, "India"),
		obs(2019, 110, "India"),
		obs(2020, 50, "Kenya"),
		obs(2015, 10, "Brazil"),
		obs(2016, 40, "Brazil"),
		obs(2017, 5, "Brazil"),
		obs(2018, 45, "Brazil"),
	})
}

// ============================================================================
// FILTER RESOLVER
// ============================================================================

func TestResolveMatchesAndSorts(t *testing.T) {
	s, err := Resolve(fixture(), FilterSpec{Country: "india"})
	require.NoError(t, err)
	assert.Equal(t, []int{2018, 2019, 2020}, s.Years())
	assert.Equal(t, []float64{100, 110, 121}, s.Values())
}

func TestResolveYearWindowInclusive(t *testing.T) {
	s, err := Resolve(fixture(), FilterSpec{Country: "Brazil", YearStart: 2016, YearEnd: 2017})
	require.NoError(t, err)
	assert.Equal(t, []int{2016, 2017}, s.Years())
}

func TestResolveEmptyResult(t *testing.T) {
	_, err := Resolve(fixture(), FilterSpec{Country: "France"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyResult))

	_, err = Resolve(fixture(), FilterSpec{Country: "India", YearStart: 1990, YearEnd: 1995})
	assert.True(t, errors.Is(err, ErrEmptyResult))
}

func TestResolveIdempotent(t *testing.T) {
	data := fixture()
	spec := FilterSpec{Commodity: "WHEAT", Country: "Brazil"}
	a, err := Resolve(data, spec)
	require.NoError(t, err)
	b, err := Resolve(data, spec)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestResolveDoesNotAliasInput(t *testing.T) {
	rows := []Observation{obs(2018, 1, "India"), obs(2019, 2, "India")}
	s, err := Resolve(NewSliceDataset(rows), FilterSpec{})
	require.NoError(t, err)

	s[0].Tags[TagCountry] = "Mutated"
	assert.Equal(t, "India", rows[0].Tags[TagCountry])
}

func TestResolveRejectsInvertedYears(t *testing.T) {
	_, err := Resolve(fixture(), FilterSpec{YearStart: 2020, YearEnd: 2010})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidFilter))
}

func TestResolveDuplicateYear(t *testing.T) {
	// No country filter: India and Kenya both report 2020.
	_, err := Resolve(fixture(), FilterSpec{YearStart: 2020, YearEnd: 2020})
	assert.True(t, errors.Is(err, ErrDuplicateYear))
}

func TestFilterSpecValidate(t *testing.T) {
	cases := []struct {
		spec FilterSpec
		ok   bool
	}{
		{FilterSpec{}, true},
		{FilterSpec{YearStart: 2000}, true},
		{FilterSpec{YearEnd: 2000}, true},
		{FilterSpec{YearStart: 2000, YearEnd: 2000}, true},
		{FilterSpec{YearStart: 2001, YearEnd: 2000}, false},
		{FilterSpec{YearStart: 1200}, false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d-%d", tc.spec.YearStart, tc.spec.YearEnd), func(t *testing.T) {
			err := tc.spec.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidFilter)
			}
		})
	}
}

func TestFilterSpecKeyIgnoresCase(t *testing.T) {
	a := FilterSpec{Country: "India ", Commodity: "Wheat"}
	b := FilterSpec{Country: "india", Commodity: "WHEAT"}
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), FilterSpec{Country: "India", YearStart: 2000}.Key())
}

// ============================================================================
// FEATURE EXTRACTOR
// ============================================================================

func TestExtractReferenceSeries(t *testing.T) {
	s, err := Resolve(fixture(), FilterSpec{Country: "India"})
	require.NoError(t, err)

	fs := Extract(s)
	assert.Equal(t, 3, fs.Count)
	assert.InDelta(t, 110.33, fs.Mean, 0.01)
	assert.Equal(t, 100.0, fs.Min)
	assert.Equal(t, 121.0, fs.Max)
	assert.Equal(t, 100.0, fs.FirstValue)
	assert.Equal(t, 121.0, fs.LastValue)
	assert.Equal(t, "21", fs.AbsoluteChange.String())

	pct, ok := fs.PercentChange.Value()
	require.True(t, ok)
	assert.InDelta(t, 21.0, pct, 1e-9)

	growth, ok := fs.AvgYoYGrowth.Value()
	require.True(t, ok)
	assert.InDelta(t, 10.0, growth, 1e-9)

	cov, ok := fs.Volatility.Value()
	require.True(t, ok)
	assert.InDelta(t, 0.0952, cov, 0.001)
}

func TestExtractPercentChangeExact(t *testing.T) {
	series := []Series{
		{obs(2000, 3, "X"), obs(2001, 7, "X")},
		{obs(2000, 0.1, "X"), obs(2003, 0.7, "X"), obs(2004, 0.3, "X")},
		{obs(1999, -12.5, "X"), obs(2010, 4.25, "X")},
	}
	for _, s := range series {
		first, last := s[0].Value, s[len(s)-1].Value
		got, ok := Extract(s).PercentChange.Value()
		require.True(t, ok)
		assert.Equal(t, 100*(last-first)/first, got)
	}
}

func TestExtractSingleObservationIsUndefined(t *testing.T) {
	s, err := Resolve(fixture(), FilterSpec{Country: "Kenya"})
	require.NoError(t, err)

	fs := Extract(s)
	assert.Equal(t, 1, fs.Count)
	assert.Equal(t, 50.0, fs.Mean)
	assert.Equal(t, 50.0, fs.FirstValue)
	assert.Equal(t, 50.0, fs.LastValue)
	assert.False(t, fs.AbsoluteChange.IsDefined())
	assert.False(t, fs.PercentChange.IsDefined())
	assert.False(t, fs.AvgYoYGrowth.IsDefined())
	assert.False(t, fs.Volatility.IsDefined())
	assert.False(t, fs.StdDev.IsDefined())
}

func TestExtractZeroFirstValue(t *testing.T) {
	s := Series{obs(2000, 0, "X"), obs(2001, 10, "X"), obs(2002, 11, "X")}
	fs := Extract(s)

	assert.False(t, fs.PercentChange.IsDefined(), "division by zero must be undefined, not zero")
	assert.Equal(t, "10", fmt.Sprint(fs.AbsoluteChange.Or(-1)))

	// The 2000→2001 pair has a zero base and is excluded.
	growth, ok := fs.AvgYoYGrowth.Value()
	require.True(t, ok)
	assert.InDelta(t, 10.0, growth, 1e-9)
}

func TestExtractSkipsGapsForGrowth(t *testing.T) {
	s := Series{obs(2000, 100, "X"), obs(2001, 110, "X"), obs(2005, 220, "X")}
	growth, ok := Extract(s).AvgYoYGrowth.Value()
	require.True(t, ok)
	assert.InDelta(t, 10.0, growth, 1e-9)

	onlyGaps := Series{obs(2000, 100, "X"), obs(2005, 200, "X")}
	assert.False(t, Extract(onlyGaps).AvgYoYGrowth.IsDefined())
}

func TestYearOverYearFlagsGaps(t *testing.T) {
	s := Series{obs(2000, 100, "X"), obs(2001, 0, "X"), obs(2003, 50, "X")}
	changes := YearOverYear(s)
	require.Len(t, changes, 2)

	assert.Equal(t, 2000, changes[0].FromYear)
	assert.Equal(t, -100.0, changes[0].Delta)
	assert.Equal(t, "-100", changes[0].Percent.String())
	assert.False(t, changes[0].Gap)

	assert.True(t, changes[1].Gap)
	assert.False(t, changes[1].Percent.IsDefined())
}

func TestDescribe(t *testing.T) {
	d := Describe(Series{obs(2018, 100, "X"), obs(2019, 121, "X"), obs(2020, 110, "X")})
	assert.Equal(t, 3, d.Count)
	assert.Equal(t, 100.0, d.Min)
	assert.Equal(t, 100.0, d.Q1)
	assert.Equal(t, 110.0, d.Median)
	assert.Equal(t, 121.0, d.Q3)
	assert.Equal(t, 121.0, d.Max)
	assert.True(t, d.StdDev.IsDefined())

	single := Describe(Series{obs(2018, 7, "X")})
	assert.False(t, single.StdDev.IsDefined())
	assert.Equal(t, 7.0, single.Median)
}

// ============================================================================
// TREND CLASSIFIER
// ============================================================================

func TestClassify(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		name string
		fs   FeatureSet
		want TrendLabel
	}{
		{"single", FeatureSet{Count: 1}, TrendInsufficientData},
		{"rising", FeatureSet{Count: 3, PercentChange: Defined(21), Volatility: Defined(0.09)}, TrendRising},
		{"falling", FeatureSet{Count: 3, PercentChange: Defined(-12), Volatility: Defined(0.1)}, TrendFalling},
		{"stable", FeatureSet{Count: 3, PercentChange: Defined(2), Volatility: Defined(0.01)}, TrendStable},
		{"rising boundary", FeatureSet{Count: 2, PercentChange: Defined(th.Rising), Volatility: Defined(0)}, TrendRising},
		{"falling boundary", FeatureSet{Count: 2, PercentChange: Defined(th.Falling), Volatility: Defined(0)}, TrendFalling},
		{"volatile wins over rising", FeatureSet{Count: 4, PercentChange: Defined(350), Volatility: Defined(0.8)}, TrendVolatile},
		{"growth stands in", FeatureSet{Count: 3, PercentChange: Undefined(), AvgYoYGrowth: Defined(-9), Volatility: Defined(0.1)}, TrendFalling},
		{"nothing defined", FeatureSet{Count: 2}, TrendStable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.fs, th))
			assert.Equal(t, Classify(tc.fs, th), Classify(tc.fs, th))
		})
	}
}

func TestClassifyHonoursCustomThresholds(t *testing.T) {
	fs := FeatureSet{Count: 3, PercentChange: Defined(21), Volatility: Defined(0.0952)}
	assert.Equal(t, TrendStable, Classify(fs, Thresholds{Volatile: 1, Rising: 25, Falling: -25}))
	assert.Equal(t, TrendVolatile, Classify(fs, Thresholds{Volatile: 0.05, Rising: 5, Falling: -5}))
}

// ============================================================================
// PIPELINE
// ============================================================================

func TestSummarizeRising(t *testing.T) {
	b, err := Summarize(fixture(), FilterSpec{Country: "India", YearStart: 2018, YearEnd: 2020})
	require.NoError(t, err)

	assert.Equal(t, TrendRising, b.Trend)
	assert.Equal(t, "t", b.Unit)
	assert.Len(t, b.Series, 3)
	assert.Len(t, b.Changes, 2)
	assert.Equal(t, DefaultThresholds(), b.Thresholds)
}

func TestSummarizeInsufficientData(t *testing.T) {
	b, err := Summarize(fixture(), FilterSpec{Country: "Kenya"})
	require.NoError(t, err)
	assert.Equal(t, TrendInsufficientData, b.Trend)
	assert.Empty(t, b.Changes)
}

func TestSummarizeVolatile(t *testing.T) {
	b, err := Summarize(fixture(), FilterSpec{Country: "Brazil"})
	require.NoError(t, err)
	assert.Equal(t, TrendVolatile, b.Trend)
}

func TestSummarizeEmptyHalts(t *testing.T) {
	b, err := Summarize(fixture(), FilterSpec{Country: "India", YearStart: 1961, YearEnd: 1970})
	assert.Nil(t, b)
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestSummarizeDeterministic(t *testing.T) {
	spec := FilterSpec{Country: "Brazil"}
	a, err := Summarize(fixture(), spec)
	require.NoError(t, err)
	b, err := Summarize(fixture(), spec)
	require.NoError(t, err)

	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	assert.Equal(t, string(ja), string(jb))
}

func TestBundleJSONUsesNullForUndefined(t *testing.T) {
	b, err := Summarize(fixture(), FilterSpec{Country: "Kenya"})
	require.NoError(t, err)

	raw, err := json.Marshal(b)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	features := decoded["features"].(map[string]any)
	assert.Nil(t, features["volatility"])
	assert.Nil(t, features["percentChange"])
	assert.Equal(t, 50.0, features["mean"])

	var round SummaryBundle
	require.NoError(t, json.Unmarshal(raw, &round))
	assert.False(t, round.Features.Volatility.IsDefined())
	assert.Equal(t, b.Trend, round.Trend)
}

// ============================================================================
// COMPARE
// ============================================================================

func TestCompareKeepsOrderAndIsolatesEmpty(t *testing.T) {
	specs := []FilterSpec{
		{Country: "Brazil"},
		{Country: "Atlantis"},
		{Country: "India"},
		{Country: "Kenya"},
	}
	results, err := Compare(context.Background(), fixture(), specs, WithWorkers(2))
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, TrendVolatile, results[0].Bundle.Trend)
	assert.True(t, results[1].Empty())
	assert.Nil(t, results[1].Bundle)
	assert.NotEmpty(t, results[1].Error)
	assert.Equal(t, TrendRising, results[2].Bundle.Trend)
	assert.Equal(t, TrendInsufficientData, results[3].Bundle.Trend)
}

func TestCompareCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Compare(ctx, fixture(), []FilterSpec{{Country: "India"}})
	assert.ErrorIs(t, err, context.Canceled)
}

// ============================================================================
// DATASETS
// ============================================================================

type faoRow struct {
	Area  string
	Item  string
	Year  int
	Value float64
}

func TestDomainAdapterAndConcat(t *testing.T) {
	adapter := NewDomainAdapter[faoRow]().
		Year(func(r faoRow) int { return r.Year }).
		Value(func(r faoRow) float64 { return r.Value }).
		Unit(func(faoRow) string { return "t" }).
		Tag(TagCountry, func(r faoRow) string { return r.Area }).
		Tag(TagCommodity, func(r faoRow) string { return r.Item })

	typed := adapter.Bind([]faoRow{
		{Area: "Chile", Item: "Grapes", Year: 2001, Value: 12},
		{Area: "Chile", Item: "Grapes", Year: 2002, Value: 6},
	})
	plain := NewSliceDataset([]Observation{{Year: 2000, Value: 10, Tags: map[string]string{TagCountry: "Chile", TagCommodity: "Grapes"}}})

	data := Concat(typed, nil, plain)
	assert.Equal(t, 3, data.Len())

	b, err := Summarize(data, FilterSpec{Country: "chile", Commodity: "grapes"})
	require.NoError(t, err)
	assert.Equal(t, []int{2000, 2001, 2002}, b.Series.Years())
	assert.Equal(t, TrendVolatile, b.Trend)
}

func TestMetricJSON(t *testing.T) {
	var m Metric
	require.NoError(t, json.Unmarshal([]byte("null"), &m))
	assert.False(t, m.IsDefined())

	require.NoError(t, json.Unmarshal([]byte("0"), &m))
	v, ok := m.Value()
	assert.True(t, ok, "zero is a defined value")
	assert.Equal(t, 0.0, v)

	out, err := json.Marshal(Defined(12.5))
	require.NoError(t, err)
	assert.Equal(t, "12.5", string(out))
}
