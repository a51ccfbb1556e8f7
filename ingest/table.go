package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spektr-org/agrolens/engine"
)

// ============================================================================
// TABLE NORMALISATION — header row + string cells → []engine.Observation
// ============================================================================
// CSV and spreadsheet readers both produce a header plus rows of strings.
// Headers are matched against known candidates after snake-casing, so
// FAOSTAT bulk exports ("Area", "Item", "Element") and flat exports
// ("Country", "Commodity", "Metric") both load. Year and Value are required;
// rows whose year or value does not parse are counted and skipped.
// ============================================================================

// ErrMissingColumn is returned when a required column is absent.
var ErrMissingColumn = errors.New("missing required column")

// Batch is the result of reading one table.
type Batch struct {
	Observations []engine.Observation
	Skipped      int
}

type column int

const (
	colNone column = iota
	colYear
	colValue
	colUnit
	colCountry
	colCommodity
	colDomain
	colMetric
)

var headerCandidates = map[string]column{
	"year":      colYear,
	"value":     colValue,
	"unit":      colUnit,
	"area":      colCountry,
	"country":   colCountry,
	"item":      colCommodity,
	"commodity": colCommodity,
	"domain":    colDomain,
	"element":   colMetric,
	"metric":    colMetric,
}

var tagForColumn = map[column]string{
	colCountry:   engine.TagCountry,
	colCommodity: engine.TagCommodity,
	colDomain:    engine.TagDomain,
	colMetric:    engine.TagMetric,
}

func mapHeaders(headers []string) ([]column, error) {
	cols := make([]column, len(headers))
	seen := make(map[column]bool)
	for i, h := range headers {
		c := headerCandidates[toSnakeCase(strings.TrimSpace(h))]
		// Later duplicates of a column are ignored.
		if c != colNone && seen[c] {
			c = colNone
		}
		cols[i] = c
		seen[c] = true
	}
	if !seen[colYear] {
		return nil, fmt.Errorf("%w: year", ErrMissingColumn)
	}
	if !seen[colValue] {
		return nil, fmt.Errorf("%w: value", ErrMissingColumn)
	}
	return cols, nil
}

func normalizeRows(headers []string, rows [][]string) (*Batch, error) {
	cols, err := mapHeaders(headers)
	if err != nil {
		return nil, err
	}

	batch := &Batch{}
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		o, ok := toObservation(cols, row)
		if !ok {
			batch.Skipped++
			continue
		}
		batch.Observations = append(batch.Observations, o)
	}
	return batch, nil
}

func toObservation(cols []column, row []string) (engine.Observation, bool) {
	o := engine.Observation{Tags: make(map[string]string)}
	var hasYear, hasValue bool

	for i, val := range row {
		if i >= len(cols) {
			break
		}
		val = strings.TrimSpace(val)

		switch c := cols[i]; c {
		case colYear:
			y, err := parseYear(val)
			if err != nil {
				return o, false
			}
			o.Year, hasYear = y, true
		case colValue:
			f, err := parseNumber(val)
			if err != nil {
				return o, false
			}
			o.Value, hasValue = f, true
		case colUnit:
			o.Unit = val
		case colNone:
		default:
			if val != "" {
				o.Tags[tagForColumn[c]] = val
			}
		}
	}
	return o, hasYear && hasValue
}

// parseYear accepts "2019" and spreadsheet-style "2019.0".
func parseYear(s string) (int, error) {
	if y, err := strconv.Atoi(s); err == nil {
		return y, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return int(f), nil
}

// parseNumber strips thousands separators ("1,234.5").
func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// toSnakeCase converts "Column Name" → "column_name".
func toSnakeCase(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}
