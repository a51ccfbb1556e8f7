// Package agrolens summarises agricultural time series.
// Trends, growth and volatility for FAOSTAT-style tables.
//
// Usage:
//
//	import "github.com/spektr-org/agrolens/engine"
//
//	bundle, err := engine.Summarize(dataset, engine.FilterSpec{
//	    Domain:    "Production",
//	    Commodity: "Wheat",
//	    Country:   "India",
//	    YearStart: 2000,
//	})
//
// The engine takes observations (year, value, unit and tags) and a filter,
// and returns a SummaryBundle: the resolved series, computed features, a
// trend label and year-over-year changes. Everything else consumes bundles:
// render builds charts and tables, narrative writes the analytical report,
// ingest reads and writes CSV/XLSX, and server exposes it all over HTTP.
//
// The engine never calls any external service. All computation is local.
package agrolens
