package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/spektr-org/agrolens/engine"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from a SummaryBundle
// ============================================================================
// BuildTable lists the series with each year's change on the previous
// observation; BuildStatsTable is the descriptive-statistics view.
// ============================================================================

// BuildTable lists every observation with its year-over-year change.
func BuildTable(bundle *engine.SummaryBundle) *TableData {
	if bundle == nil {
		return nil
	}

	columns := []Column{
		{Key: "year", Label: "Year", Type: "text", Align: "left"},
		{Key: "value", Label: valueLabel(bundle.Unit), Type: "number", Align: "right"},
		{Key: "yoy", Label: "YoY Change", Type: "percent", Align: "right"},
	}

	changeTo := make(map[int]engine.PeriodChange, len(bundle.Changes))
	for _, c := range bundle.Changes {
		changeTo[c.ToYear] = c
	}

	rows := make([][]string, 0, len(bundle.Series))
	for _, o := range bundle.Series {
		yoy := "—"
		if c, ok := changeTo[o.Year]; ok && !c.Gap {
			yoy = engine.FormatPercent(c.Percent)
		}
		rows = append(rows, []string{strconv.Itoa(o.Year), engine.FormatNumber(o.Value), yoy})
	}

	return &TableData{
		Title:   chartTitle(bundle.Filter),
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label: fmt.Sprintf("Change %s", bundle.Series.Period()),
			Value: engine.FormatPercent(bundle.Features.PercentChange),
		},
	}
}

// BuildStatsTable renders the descriptive statistics of a bundle.
func BuildStatsTable(bundle *engine.SummaryBundle) *TableData {
	if bundle == nil {
		return nil
	}
	d := bundle.Descriptive
	std := "n/a"
	if v, ok := d.StdDev.Value(); ok {
		std = engine.FormatNumber(v)
	}
	return &TableData{
		Title: "Descriptive Statistics",
		Columns: []Column{
			{Key: "stat", Label: "Statistic", Type: "text", Align: "left"},
			{Key: "value", Label: valueLabel(bundle.Unit), Type: "number", Align: "right"},
		},
		Rows: [][]string{
			{"count", strconv.Itoa(d.Count)},
			{"mean", engine.FormatNumber(d.Mean)},
			{"std", std},
			{"min", engine.FormatNumber(d.Min)},
			{"25%", engine.FormatNumber(d.Q1)},
			{"50%", engine.FormatNumber(d.Median)},
			{"75%", engine.FormatNumber(d.Q3)},
			{"max", engine.FormatNumber(d.Max)},
		},
	}
}

// BuildComparisonTable puts one selection per row. Selections that matched
// nothing show their error in place of figures.
func BuildComparisonTable(results []engine.Comparison) *TableData {
	table := &TableData{
		Title: "Comparison",
		Columns: []Column{
			{Key: "selection", Label: "Selection", Type: "text", Align: "left"},
			{Key: "period", Label: "Period", Type: "text", Align: "left"},
			{Key: "trend", Label: "Trend", Type: "text", Align: "left"},
			{Key: "change", Label: "Change", Type: "percent", Align: "right"},
			{Key: "growth", Label: "Avg YoY", Type: "percent", Align: "right"},
			{Key: "volatility", Label: "CoV", Type: "number", Align: "right"},
		},
	}
	for _, r := range results {
		if r.Bundle == nil {
			table.Rows = append(table.Rows, []string{r.Filter.String(), "—", "no data", "—", "—", "—"})
			continue
		}
		fs := r.Bundle.Features
		table.Rows = append(table.Rows, []string{
			r.Filter.String(),
			r.Bundle.Series.Period(),
			string(r.Bundle.Trend),
			engine.FormatPercent(fs.PercentChange),
			engine.FormatPercent(fs.AvgYoYGrowth),
			engine.FormatRatio(fs.Volatility),
		})
	}
	return table
}

func valueLabel(unit string) string {
	if unit == "" {
		return "Value"
	}
	return "Value (" + unit + ")"
}

// ============================================================================
// TERMINAL OUTPUT
// ============================================================================

// WriteTable renders a TableData as a bordered text table.
func WriteTable(w io.Writer, data *TableData) error {
	if data == nil {
		return nil
	}

	header := make([]string, len(data.Columns))
	align := make([]tw.Align, len(data.Columns))
	for i, c := range data.Columns {
		header[i] = c.Label
		align[i] = tw.AlignLeft
		if c.Align == "right" {
			align[i] = tw.AlignRight
		}
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{PerColumn: align},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.Off},
				Alignment:  tw.CellAlignment{Global: tw.AlignCenter},
			},
		}),
	)
	table.Header(header)
	if err := table.Bulk(data.Rows); err != nil {
		return err
	}
	if data.Summary != nil && len(header) > 1 {
		footer := make([]string, len(header))
		footer[0] = data.Summary.Label
		footer[len(footer)-1] = data.Summary.Value
		table.Footer(footer)
	}
	return table.Render()
}
