package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/agrolens/catalog"
	"github.com/spektr-org/agrolens/engine"
	"github.com/spektr-org/agrolens/ingest"
)

// ============================================================================
// DATA SOURCES — files and simulator shared by every command
// ============================================================================

type sourceFlags struct {
	files    []string
	sheet    string
	simulate bool
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&s.files, "file", "f", nil, "CSV or XLSX data file (repeatable)")
	cmd.Flags().StringVar(&s.sheet, "sheet", "", "worksheet to read from XLSX files (default: first sheet)")
	cmd.Flags().BoolVar(&s.simulate, "simulate", false, "use simulated data instead of files")
}

// load reads the configured sources and canonicalises their tags against
// the catalogue. Flags win over the data section of the config file.
func (s *sourceFlags) load(cat *catalog.Catalog) (engine.Dataset, error) {
	files, sheet := s.files, s.sheet
	if len(files) == 0 && !s.simulate {
		files = cfg.Data.Files
		if sheet == "" {
			sheet = cfg.Data.Sheet
		}
	}

	if len(files) == 0 {
		rows, err := ingest.Simulate(cfg.Data.Simulate)
		if err != nil {
			return nil, fmt.Errorf("simulating data: %w", err)
		}
		logger.Debug("using simulated data", zap.Int("observations", len(rows)))
		return engine.NewSliceDataset(cat.Canonicalize(rows)), nil
	}

	parts := make([]engine.Dataset, 0, len(files))
	for _, path := range files {
		batch, err := readFile(path, sheet)
		if err != nil {
			return nil, err
		}
		if batch.Skipped > 0 {
			logger.Warn("skipped unreadable rows", zap.String("file", path), zap.Int("rows", batch.Skipped))
		}
		logger.Debug("loaded file", zap.String("file", path), zap.Int("observations", len(batch.Observations)))
		parts = append(parts, engine.NewSliceDataset(cat.Canonicalize(batch.Observations)))
	}
	return engine.Concat(parts...), nil
}

func readFile(path, sheet string) (*ingest.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening data file: %w", err)
	}
	defer f.Close()

	var batch *ingest.Batch
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		batch, err = ingest.ReadXLSX(f, sheet)
	case ".csv", ".txt", "":
		batch, err = ingest.ReadCSV(f)
	default:
		return nil, fmt.Errorf("unsupported data file %s (want .csv or .xlsx)", path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return batch, nil
}

// ============================================================================
// FILTER FLAGS
// ============================================================================

type filterFlags struct {
	domain    string
	metric    string
	commodity string
	country   string
	from      int
	to        int
}

// register adds the filter flags. Commands that take several countries or
// commodities pass single=false and register their own list flags.
func (f *filterFlags) register(cmd *cobra.Command, single bool) {
	cmd.Flags().StringVar(&f.domain, "domain", "", "domain name or code (e.g. Production, QCL)")
	cmd.Flags().StringVar(&f.metric, "metric", "", "metric within the domain (e.g. Yield)")
	if single {
		cmd.Flags().StringVar(&f.commodity, "commodity", "", "commodity name or item code")
		cmd.Flags().StringVar(&f.country, "country", "", "country name or area code")
	}
	cmd.Flags().IntVar(&f.from, "from", 0, "first year (inclusive)")
	cmd.Flags().IntVar(&f.to, "to", 0, "last year (inclusive)")

	_ = cmd.RegisterFlagCompletionFunc("domain", completeDomains)
}

func completeDomains(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cat, err := catalog.Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return cat.DomainNames(), cobra.ShellCompDirectiveNoFileComp
}

func (f *filterFlags) spec() engine.FilterSpec {
	return engine.FilterSpec{
		Domain:    f.domain,
		Metric:    f.metric,
		Commodity: f.commodity,
		Country:   f.country,
		YearStart: f.from,
		YearEnd:   f.to,
	}
}

// normalize resolves catalogue codes and warns about unknown names.
func normalize(cat *catalog.Catalog, spec engine.FilterSpec) engine.FilterSpec {
	spec = cat.Normalize(spec)
	if err := cat.Check(spec); err != nil {
		logger.Warn("filter outside catalog", zap.Error(err))
	}
	return spec
}
