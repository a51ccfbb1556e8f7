package narrative

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyReport is returned when a reply parses but carries no sections.
var ErrEmptyReport = errors.New("report has no content")

// ParseReport extracts a Report from a model reply. Markdown code fences
// and text around the JSON object are tolerated.
func ParseReport(response string) (*Report, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	if start, end := strings.Index(response, "{"), strings.LastIndex(response, "}"); start >= 0 && end > start {
		response = response[start : end+1]
	}

	var r Report
	if err := json.Unmarshal([]byte(response), &r); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w (response: %.200s)", err, response)
	}

	r.Trend = strings.TrimSpace(r.Trend)
	r.Volatility = strings.TrimSpace(r.Volatility)
	r.Growth = strings.TrimSpace(r.Growth)
	r.Outlook = strings.TrimSpace(r.Outlook)
	causes := r.Causes[:0]
	for _, c := range r.Causes {
		if c = strings.TrimSpace(c); c != "" {
			causes = append(causes, c)
		}
	}
	r.Causes = causes

	if r.Trend == "" && r.Volatility == "" && r.Growth == "" && r.Outlook == "" && len(r.Causes) == 0 {
		return nil, ErrEmptyReport
	}
	r.Source = SourceModel
	return &r, nil
}
