package engine

// ============================================================================
// DATASET — Read-only access to normalised observations
// ============================================================================
// The engine never owns caller data. It reads through this interface.
//
// Implementations:
//   SliceDataset   — wraps []Observation (CSV/XLSX ingestion, simulator)
//   DomainView[T]  — reads typed rows via accessor functions
//   ConcatDataset  — virtual concatenation of several datasets
// ============================================================================

// Dataset provides indexed access to observations.
// Resolve calls At in a tight loop. Implementations should be cheap.
type Dataset interface {
	Len() int
	At(index int) Observation
}

// ============================================================================
// SLICE DATASET
// ============================================================================

// SliceDataset wraps a []Observation slice.
type SliceDataset struct {
	rows []Observation
}

// NewSliceDataset creates a Dataset over rows. The slice is not copied.
func NewSliceDataset(rows []Observation) *SliceDataset {
	return &SliceDataset{rows: rows}
}

func (d *SliceDataset) Len() int { return len(d.rows) }

func (d *SliceDataset) At(i int) Observation {
	if i < 0 || i >= len(d.rows) {
		return Observation{}
	}
	return d.rows[i]
}

// ============================================================================
// CONCAT DATASET
// ============================================================================

// ConcatDataset logically concatenates datasets, e.g. several input files.
type ConcatDataset struct {
	parts []Dataset
	total int
}

// Concat joins datasets without copying. Nil parts are ignored.
func Concat(parts ...Dataset) *ConcatDataset {
	c := &ConcatDataset{}
	for _, p := range parts {
		if p == nil {
			continue
		}
		c.parts = append(c.parts, p)
		c.total += p.Len()
	}
	return c
}

func (c *ConcatDataset) Len() int { return c.total }

func (c *ConcatDataset) At(i int) Observation {
	for _, p := range c.parts {
		if i < p.Len() {
			return p.At(i)
		}
		i -= p.Len()
	}
	return Observation{}
}

// ============================================================================
// DOMAIN ADAPTER — typed rows without conversion
// ============================================================================
//
// Usage:
//
//	adapter := engine.NewDomainAdapter[faoRow]().
//	    Year(func(r faoRow) int { return r.Year }).
//	    Value(func(r faoRow) float64 { return r.Value }).
//	    Tag(engine.TagCountry, func(r faoRow) string { return r.Area })
//
//	data := adapter.Bind(rows)
//	bundle, err := engine.Summarize(data, spec)
//
// ============================================================================

// DomainAdapter builds a Dataset from typed structs.
// Declare once, bind many times.
type DomainAdapter[T any] struct {
	year  func(T) int
	value func(T) float64
	unit  func(T) string
	tags  map[string]func(T) string
}

// NewDomainAdapter creates a new adapter for type T.
func NewDomainAdapter[T any]() *DomainAdapter[T] {
	return &DomainAdapter[T]{tags: make(map[string]func(T) string)}
}

// Year registers the year accessor.
func (a *DomainAdapter[T]) Year(fn func(T) int) *DomainAdapter[T] {
	a.year = fn
	return a
}

// Value registers the value accessor.
func (a *DomainAdapter[T]) Value(fn func(T) float64) *DomainAdapter[T] {
	a.value = fn
	return a
}

// Unit registers the unit accessor.
func (a *DomainAdapter[T]) Unit(fn func(T) string) *DomainAdapter[T] {
	a.unit = fn
	return a
}

// Tag registers a dimension tag accessor.
func (a *DomainAdapter[T]) Tag(key string, fn func(T) string) *DomainAdapter[T] {
	a.tags[key] = fn
	return a
}

// Bind creates a Dataset over data. Holds a reference, no copy.
func (a *DomainAdapter[T]) Bind(data []T) *DomainView[T] {
	return &DomainView[T]{data: data, adapter: a}
}

// DomainView reads typed rows through a DomainAdapter.
type DomainView[T any] struct {
	data    []T
	adapter *DomainAdapter[T]
}

func (v *DomainView[T]) Len() int { return len(v.data) }

func (v *DomainView[T]) At(i int) Observation {
	if i < 0 || i >= len(v.data) {
		return Observation{}
	}
	row := v.data[i]
	a := v.adapter

	var o Observation
	if a.year != nil {
		o.Year = a.year(row)
	}
	if a.value != nil {
		o.Value = a.value(row)
	}
	if a.unit != nil {
		o.Unit = a.unit(row)
	}
	if len(a.tags) > 0 {
		o.Tags = make(map[string]string, len(a.tags))
		for key, fn := range a.tags {
			o.Tags[key] = fn(row)
		}
	}
	return o
}
