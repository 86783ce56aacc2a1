package engine

import (
	"strings"

	"github.com/spektr-org/retailscope/ledger"
)

// ============================================================================
// FILTERS — Dimension-Based Filtering via RecordView
// ============================================================================
// Single-pass filter: checks ALL constraints per record in one loop.
// Returns a SubView (index list into parent) with no data copy.
// ============================================================================

// Filters define which records to include.
// Include: OR within a dimension, AND across dimensions. Empty = all.
// Exclude: a record matching any excluded value is dropped.
// Predicate, when set, is AND-ed with everything else.
// Value matching is case-insensitive.
type Filters struct {
	Include   map[DimensionID][]string        `yaml:"include,omitempty" json:"include,omitempty"`
	Exclude   map[DimensionID][]string        `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Predicate func(item ledger.LineItem) bool `yaml:"-" json:"-"`
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	if f.Predicate != nil {
		return false
	}
	for _, vals := range f.Include {
		if len(vals) > 0 {
			return false
		}
	}
	for _, vals := range f.Exclude {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// With returns a copy of f whose Include additionally restricts dimension
// to values. The receiver's maps are not modified.
func (f Filters) With(dimension DimensionID, values ...string) Filters {
	include := make(map[DimensionID][]string, len(f.Include)+1)
	for k, v := range f.Include {
		include[k] = v
	}
	include[dimension] = values
	f.Include = include
	return f
}

type dimensionSet struct {
	dim    Dimension
	values map[string]bool
}

// ApplyFilters returns a view of records matching filters.
// Empty filter = no restriction (returns original view).
func ApplyFilters(view RecordView, filters Filters, opts ...Option) (RecordView, error) {
	return applyFilters(view, filters, applyOptions(opts).catalog)
}

func applyFilters(view RecordView, filters Filters, cat *Catalog) (RecordView, error) {
	if filters.IsEmpty() {
		return view, nil
	}

	include, err := buildSets(cat, filters.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := buildSets(cat, filters.Exclude)
	if err != nil {
		return nil, err
	}

	// Single pass: a record passes if it matches ALL constraints
	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		item := view.At(i)
		if matches(item, include, exclude, filters.Predicate) {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices), nil
}

func matches(item ledger.LineItem, include, exclude []dimensionSet, predicate func(ledger.LineItem) bool) bool {
	for _, s := range include {
		if !s.values[strings.ToLower(s.dim.Select(item))] {
			return false
		}
	}
	for _, s := range exclude {
		if s.values[strings.ToLower(s.dim.Select(item))] {
			return false
		}
	}
	return predicate == nil || predicate(item)
}

func buildSets(cat *Catalog, filters map[DimensionID][]string) ([]dimensionSet, error) {
	sets := make([]dimensionSet, 0, len(filters))
	for id, allowed := range filters {
		if len(allowed) == 0 {
			continue
		}
		dim, ok := cat.LookupDimension(id)
		if !ok {
			return nil, invalidRequest("filter", "unknown dimension %q", id)
		}
		sets = append(sets, dimensionSet{dim: dim, values: toLowerSet(allowed)})
	}
	return sets, nil
}

// toLowerSet converts a string slice to a lowercase lookup set.
func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(strings.TrimSpace(item))] = true
	}
	return set
}
