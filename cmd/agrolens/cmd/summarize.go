package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/agrolens/catalog"
	"github.com/spektr-org/agrolens/engine"
	"github.com/spektr-org/agrolens/ingest"
	"github.com/spektr-org/agrolens/narrative"
	"github.com/spektr-org/agrolens/render"
)

var (
	summarizeSource sourceFlags
	summarizeFilter filterFlags
	summarizeFormat string
	summarizeOut    string
	summarizeChart  string
	summarizeWidth  float64
	summarizeHeight float64
)

// summarizeCmd represents the summarize command
var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarise one selection",
	Long: `Resolve a selection, compute its features and trend, and print the result.

Formats:
  json      Full summary bundle (default)
  pretty    Indented JSON
  table     Yearly values, changes and descriptive statistics
  text      Rule-based analytical report
  csv       The resolved series as a flat table
  prompt    The prompt a language model would receive for this bundle

Examples:
  agrolens summarize --file data.csv --domain QCL --commodity Wheat --country India
  agrolens summarize --simulate --country Brazil --format text
  agrolens summarize --file data.xlsx --sheet Data --country 100 --chart india.png`,
	Args: cobra.NoArgs,
	RunE: runSummarize,
}

func init() {
	summarizeSource.register(summarizeCmd)
	summarizeFilter.register(summarizeCmd, true)
	summarizeCmd.Flags().StringVar(&summarizeFormat, "format", "json", "output format (json, pretty, table, text, csv, prompt)")
	summarizeCmd.Flags().StringVarP(&summarizeOut, "out", "o", "", "write output to file instead of stdout")
	summarizeCmd.Flags().StringVar(&summarizeChart, "chart", "", "also write a PNG line chart to this path")
	summarizeCmd.Flags().Float64Var(&summarizeWidth, "chart-width", 10, "chart width in inches")
	summarizeCmd.Flags().Float64Var(&summarizeHeight, "chart-height", 5, "chart height in inches")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	cat, err := catalog.Load()
	if err != nil {
		return err
	}
	data, err := summarizeSource.load(cat)
	if err != nil {
		return err
	}

	spec := normalize(cat, summarizeFilter.spec())
	bundle, err := engine.Summarize(data, spec, append(cfg.EngineOptions(), engine.WithLogger(logger))...)
	if err != nil {
		return err
	}

	w, closeOut, err := outputWriter(cmd, summarizeOut)
	if err != nil {
		return err
	}
	defer closeOut()

	if err := writeBundle(w, bundle, summarizeFormat); err != nil {
		return err
	}

	if summarizeChart != "" {
		if err := writeChartFile(summarizeChart, render.BuildChart(bundle), summarizeWidth, summarizeHeight); err != nil {
			return err
		}
		logger.Info("chart written", zap.String("path", summarizeChart))
	}
	return nil
}

func writeBundle(w io.Writer, bundle *engine.SummaryBundle, format string) error {
	switch strings.ToLower(format) {
	case "json":
		return writeJSON(w, bundle, false)
	case "pretty":
		return writeJSON(w, bundle, true)
	case "table":
		return writeTables(w, bundle)
	case "text":
		return writeReport(w, bundle)
	case "csv":
		return ingest.WriteCSV(w, bundle.Series)
	case "prompt":
		_, err := io.WriteString(w, narrative.BuildPrompt(bundle))
		return err
	default:
		return fmt.Errorf("unknown format %q (want json, pretty, table, text, csv or prompt)", format)
	}
}

func writeTables(w io.Writer, bundle *engine.SummaryBundle) error {
	fs := bundle.Features
	fmt.Fprintf(w, "%s  %s\n", heading(bundle.Filter.String()), trendBadge(bundle.Trend))
	fmt.Fprintf(w, "Period %s · change %s · avg YoY %s · CoV %s\n\n",
		bundle.Series.Period(),
		engine.FormatPercent(fs.PercentChange),
		engine.FormatPercent(fs.AvgYoYGrowth),
		engine.FormatRatio(fs.Volatility))

	if err := render.WriteTable(w, render.BuildTable(bundle)); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return render.WriteTable(w, render.BuildStatsTable(bundle))
}

func writeReport(w io.Writer, bundle *engine.SummaryBundle) error {
	r := narrative.Fallback(bundle)
	fmt.Fprintf(w, "%s  %s\n\n", heading(bundle.Filter.String()), trendBadge(bundle.Trend))
	fmt.Fprintf(w, "%s\n%s\n\n", heading("Trend"), r.Trend)
	fmt.Fprintf(w, "%s\n%s\n\n", heading("Volatility"), r.Volatility)
	fmt.Fprintf(w, "%s\n%s\n\n", heading("Growth"), r.Growth)
	if len(r.Causes) > 0 {
		fmt.Fprintf(w, "%s\n", heading("Possible causes"))
		for _, c := range r.Causes {
			fmt.Fprintf(w, "  - %s\n", c)
		}
		fmt.Fprintln(w)
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", heading("Outlook"), r.Outlook)
	return err
}

func writeChartFile(path string, chart *render.ChartConfig, widthIn, heightIn float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	if err := render.WritePNG(f, chart, inches(widthIn), inches(heightIn)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
