package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spektr-org/agrolens/engine"
)

// ============================================================================
// CATALOG — Names and codes the explorer understands
// ============================================================================
// Domains carry their metrics (FAOSTAT "elements"). Commodities and countries
// are grouped (crop/livestock, region) with their numeric FAOSTAT codes.
// Used at the ingestion boundary to canonicalise tags, and by callers to
// turn user input ("QCL", "231", "usa") into canonical FilterSpec values.
// ============================================================================

//go:embed catalog.yaml
var defaultCatalog []byte

// ErrUnknown is returned by Check for names or codes not in the catalogue.
var ErrUnknown = errors.New("not in catalog")

// Catalog is the set of known domains, commodities and countries.
type Catalog struct {
	Domains     []Domain `json:"domains" yaml:"domains"`
	Commodities []Group  `json:"commodities" yaml:"commodities"`
	Countries   []Group  `json:"countries" yaml:"countries"`
}

// Domain is a dataset category with the metrics it publishes.
type Domain struct {
	Name    string   `json:"name" yaml:"name"`
	Code    string   `json:"code" yaml:"code"`
	Metrics []string `json:"metrics" yaml:"metrics"`
}

// Group is a named list of coded entries (commodity type or region).
type Group struct {
	Group string  `json:"group" yaml:"group"`
	Items []Entry `json:"items" yaml:"items"`
}

// Entry is a named FAOSTAT code.
type Entry struct {
	Name string `json:"name" yaml:"name"`
	Code int    `json:"code" yaml:"code"`
}

// Load parses the built-in catalogue.
func Load() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse reads a catalogue from YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(c.Domains) == 0 {
		return nil, fmt.Errorf("catalog has no domains")
	}
	return &c, nil
}

// ============================================================================
// LOOKUPS
// ============================================================================

// Domain finds a domain by name or code, case-insensitively.
func (c *Catalog) Domain(nameOrCode string) (Domain, bool) {
	key := normalize(nameOrCode)
	if key == "" {
		return Domain{}, false
	}
	for _, d := range c.Domains {
		if normalize(d.Name) == key || normalize(d.Code) == key {
			return d, true
		}
	}
	return Domain{}, false
}

// Metric finds a metric of the given domain, case-insensitively.
func (c *Catalog) Metric(domain, metric string) (string, bool) {
	d, ok := c.Domain(domain)
	if !ok {
		return "", false
	}
	key := normalize(metric)
	for _, m := range d.Metrics {
		if normalize(m) == key {
			return m, true
		}
	}
	return "", false
}

// Commodity finds a commodity by name or item code. The second result is
// its group (e.g. "Crops").
func (c *Catalog) Commodity(nameOrCode string) (Entry, string, bool) {
	return lookup(c.Commodities, nameOrCode)
}

// Country finds a country by name or area code. The second result is its
// region. Codes shared by more than one country do not resolve.
func (c *Catalog) Country(nameOrCode string) (Entry, string, bool) {
	return lookup(c.Countries, nameOrCode)
}

func lookup(groups []Group, nameOrCode string) (Entry, string, bool) {
	key := normalize(nameOrCode)
	if key == "" {
		return Entry{}, "", false
	}

	for _, g := range groups {
		for _, e := range g.Items {
			if normalize(e.Name) == key {
				return e, g.Group, true
			}
		}
	}

	code, err := strconv.Atoi(key)
	if err != nil {
		return Entry{}, "", false
	}
	var (
		found      Entry
		foundGroup string
		matches    int
	)
	for _, g := range groups {
		for _, e := range g.Items {
			if e.Code == code {
				found, foundGroup = e, g.Group
				matches++
			}
		}
	}
	if matches != 1 {
		return Entry{}, "", false
	}
	return found, foundGroup, true
}

// ============================================================================
// NORMALISATION
// ============================================================================

// Normalize rewrites known names and codes in spec to their canonical
// catalogue names. Unknown values pass through unchanged.
func (c *Catalog) Normalize(spec engine.FilterSpec) engine.FilterSpec {
	if d, ok := c.Domain(spec.Domain); ok {
		spec.Domain = d.Name
		if m, ok := c.Metric(d.Name, spec.Metric); ok {
			spec.Metric = m
		}
	}
	if e, _, ok := c.Commodity(spec.Commodity); ok {
		spec.Commodity = e.Name
	}
	if e, _, ok := c.Country(spec.Country); ok {
		spec.Country = e.Name
	}
	return spec
}

// Canonicalize returns copies of rows whose known tags use catalogue names.
// This is the ingestion-boundary step: FAOSTAT exports carry domain codes
// ("QCL") and area codes, the engine compares names.
func (c *Catalog) Canonicalize(rows []engine.Observation) []engine.Observation {
	out := make([]engine.Observation, len(rows))
	for i, o := range rows {
		spec := c.Normalize(engine.FilterSpec{
			Domain:    o.Tag(engine.TagDomain),
			Metric:    o.Tag(engine.TagMetric),
			Commodity: o.Tag(engine.TagCommodity),
			Country:   o.Tag(engine.TagCountry),
		})

		tags := make(map[string]string, len(o.Tags))
		for k, v := range o.Tags {
			tags[k] = v
		}
		setIfPresent(tags, engine.TagDomain, spec.Domain)
		setIfPresent(tags, engine.TagMetric, spec.Metric)
		setIfPresent(tags, engine.TagCommodity, spec.Commodity)
		setIfPresent(tags, engine.TagCountry, spec.Country)

		o.Tags = tags
		out[i] = o
	}
	return out
}

func setIfPresent(tags map[string]string, key, val string) {
	if val != "" {
		tags[key] = val
	}
}

// DomainNames returns domain names in catalogue order.
func (c *Catalog) DomainNames() []string {
	names := make([]string, len(c.Domains))
	for i, d := range c.Domains {
		names[i] = d.Name
	}
	return names
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Check reports the first non-empty FilterSpec field the catalogue does not
// know. Fields are compared after Normalize.
func (c *Catalog) Check(spec engine.FilterSpec) error {
	if spec.Domain != "" {
		if _, ok := c.Domain(spec.Domain); !ok {
			return fmt.Errorf("%w: unknown domain %q", ErrUnknown, spec.Domain)
		}
		if spec.Metric != "" {
			if _, ok := c.Metric(spec.Domain, spec.Metric); !ok {
				return fmt.Errorf("%w: metric %q is not published by %s", ErrUnknown, spec.Metric, spec.Domain)
			}
		}
	}
	if spec.Commodity != "" {
		if _, _, ok := c.Commodity(spec.Commodity); !ok {
			return fmt.Errorf("%w: unknown commodity %q", ErrUnknown, spec.Commodity)
		}
	}
	if spec.Country != "" {
		if _, _, ok := c.Country(spec.Country); !ok {
			return fmt.Errorf("%w: unknown country %q", ErrUnknown, spec.Country)
		}
	}
	return nil
}
