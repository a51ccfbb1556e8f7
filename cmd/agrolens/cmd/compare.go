package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spektr-org/agrolens/catalog"
	"github.com/spektr-org/agrolens/engine"
	"github.com/spektr-org/agrolens/render"
)

var (
	compareSource      sourceFlags
	compareFilter      filterFlags
	compareCountries   []string
	compareCommodities []string
	compareFormat      string
	compareOut         string
	compareChart       string
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare several countries or commodities side by side",
	Long: `Summarise every country × commodity combination independently.

Selections that match nothing are reported in place and do not stop the others.

Examples:
  agrolens compare --simulate --country India --country Kenya --country Brazil
  agrolens compare --file data.csv --commodity Wheat --commodity Rice --country India --chart cmp.png`,
	Args: cobra.NoArgs,
	RunE: runCompare,
}

func init() {
	compareSource.register(compareCmd)
	compareFilter.register(compareCmd, false)
	compareCmd.Flags().StringArrayVar(&compareCountries, "country", nil, "country to compare (repeatable)")
	compareCmd.Flags().StringArrayVar(&compareCommodities, "commodity", nil, "commodity to compare (repeatable)")
	compareCmd.Flags().StringVar(&compareFormat, "format", "table", "output format (table, json, pretty)")
	compareCmd.Flags().StringVarP(&compareOut, "out", "o", "", "write output to file instead of stdout")
	compareCmd.Flags().StringVar(&compareChart, "chart", "", "also write a PNG comparison chart to this path")
}

// comparisonSpecs expands the flag lists into one spec per combination.
func comparisonSpecs(base engine.FilterSpec, countries, commodities []string) []engine.FilterSpec {
	if len(countries) == 0 {
		countries = []string{base.Country}
	}
	if len(commodities) == 0 {
		commodities = []string{base.Commodity}
	}
	specs := make([]engine.FilterSpec, 0, len(countries)*len(commodities))
	for _, country := range countries {
		for _, commodity := range commodities {
			s := base
			s.Country, s.Commodity = country, commodity
			specs = append(specs, s)
		}
	}
	return specs
}

func runCompare(cmd *cobra.Command, args []string) error {
	if len(compareCountries) < 2 && len(compareCommodities) < 2 {
		return fmt.Errorf("give at least two --country or two --commodity values")
	}

	cat, err := catalog.Load()
	if err != nil {
		return err
	}
	data, err := compareSource.load(cat)
	if err != nil {
		return err
	}

	specs := comparisonSpecs(compareFilter.spec(), compareCountries, compareCommodities)
	for i := range specs {
		specs[i] = normalize(cat, specs[i])
	}

	results, err := engine.Compare(context.Background(), data, specs, append(cfg.EngineOptions(), engine.WithLogger(logger))...)
	if err != nil {
		return err
	}

	w, closeOut, err := outputWriter(cmd, compareOut)
	if err != nil {
		return err
	}
	defer closeOut()

	switch strings.ToLower(compareFormat) {
	case "json":
		err = writeJSON(w, results, false)
	case "pretty":
		err = writeJSON(w, results, true)
	case "table":
		for _, r := range results {
			if r.Bundle != nil {
				fmt.Fprintf(w, "%-40s %s\n", r.Filter.String(), trendBadge(r.Bundle.Trend))
			}
		}
		fmt.Fprintln(w)
		err = render.WriteTable(w, render.BuildComparisonTable(results))
	default:
		err = fmt.Errorf("unknown format %q (want table, json or pretty)", compareFormat)
	}
	if err != nil {
		return err
	}

	if compareChart != "" {
		bundles := make([]*engine.SummaryBundle, len(results))
		for i, r := range results {
			bundles[i] = r.Bundle
		}
		return writeChartFile(compareChart, render.BuildComparisonChart(bundles), 10, 5)
	}
	return nil
}
