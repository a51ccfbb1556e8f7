package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/spektr-org/agrolens/engine"
)

func configureColor() {
	if noColor {
		color.NoColor = true
		return
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		color.NoColor = true
	}
}

// trendBadge colours a trend label for terminal output.
func trendBadge(label engine.TrendLabel) string {
	switch label {
	case engine.TrendRising:
		return color.New(color.FgGreen, color.Bold).Sprint("▲ " + string(label))
	case engine.TrendFalling:
		return color.New(color.FgRed, color.Bold).Sprint("▼ " + string(label))
	case engine.TrendVolatile:
		return color.New(color.FgYellow, color.Bold).Sprint("≈ " + string(label))
	case engine.TrendStable:
		return color.New(color.FgCyan).Sprint("● " + string(label))
	default:
		return color.New(color.Faint).Sprint(string(label))
	}
}

func heading(s string) string {
	return color.New(color.Bold).Sprint(s)
}

// outputWriter returns the --out file or the command's stdout. The returned
// close func is always safe to call.
func outputWriter(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

func writeJSON(w io.Writer, v interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func inches(v float64) vg.Length {
	return vg.Length(v) * vg.Inch
}
