// Package toxicity holds the immutable lookup table mapping a nanoparticle
// element and concentration level to its unit toxicity.
package toxicity

import (
	"maps"
	"math"
	"slices"
)

// Entry is a single table cell.
type Entry struct {
	Element       string  `json:"element" yaml:"element"`
	Concentration float64 `json:"concentration" yaml:"concentration"`
	Value         float64 `json:"value" yaml:"value"`
}

// Table maps (element, concentration) to unit toxicity. A Table is never
// modified after construction and is safe for concurrent use. A nil *Table
// behaves as an empty table.
type Table struct {
	source         string
	elements       []string
	concentrations []float64
	values         map[string]map[float64]float64
	size           int
}

// FromEntries builds a table from individual cells. Elements keep the order
// of their first appearance. Gaps are allowed: an element only needs entries
// for the concentrations it has data for.
func FromEntries(source string, entries []Entry) (*Table, error) {
	if len(entries) == 0 {
		return nil, loadErrorf(source, "table is empty")
	}

	t := &Table{
		source: source,
		values: make(map[string]map[float64]float64),
	}
	levels := make(map[float64]bool)

	for _, e := range entries {
		if e.Element == "" {
			return nil, loadErrorf(source, "empty element name")
		}
		if !isFinite(e.Concentration) || e.Concentration <= 0 {
			return nil, loadErrorf(source, "invalid concentration %v for %s", e.Concentration, e.Element)
		}
		if !isFinite(e.Value) || e.Value < 0 {
			return nil, loadErrorf(source, "invalid toxicity %v for %s at %s",
				e.Value, e.Element, FormatConcentration(e.Concentration))
		}

		row, ok := t.values[e.Element]
		if !ok {
			row = make(map[float64]float64)
			t.values[e.Element] = row
			t.elements = append(t.elements, e.Element)
		}
		if _, dup := row[e.Concentration]; dup {
			return nil, loadErrorf(source, "duplicate entry for %s at %s",
				e.Element, FormatConcentration(e.Concentration))
		}
		row[e.Concentration] = e.Value
		levels[e.Concentration] = true
		t.size++
	}

	t.concentrations = slices.Sorted(maps.Keys(levels))
	return t, nil
}

// FromMap builds a table from a literal mapping. Elements are ordered
// lexically and every element must carry the same concentration levels.
func FromMap(source string, m map[string]map[float64]float64) (*Table, error) {
	if len(m) == 0 {
		return nil, loadErrorf(source, "table is empty")
	}

	names := slices.Sorted(maps.Keys(m))
	levels := slices.Sorted(maps.Keys(m[names[0]]))

	entries := make([]Entry, 0, len(names)*len(levels))
	for _, name := range names {
		row := m[name]
		keys := slices.Sorted(maps.Keys(row))
		if !slices.Equal(keys, levels) {
			return nil, loadErrorf(source, "element %s does not share the concentration levels of %s", name, names[0])
		}
		for _, c := range keys {
			entries = append(entries, Entry{Element: name, Concentration: c, Value: row[c]})
		}
	}

	return FromEntries(source, entries)
}

// Lookup returns the unit toxicity for the pair or a *NotFoundError.
func (t *Table) Lookup(element string, concentration float64) (float64, error) {
	if t != nil {
		if v, ok := t.values[element][concentration]; ok {
			return v, nil
		}
	}
	return 0, &NotFoundError{Element: element, Concentration: concentration}
}

// Has reports whether the pair is tabulated.
func (t *Table) Has(element string, concentration float64) bool {
	_, err := t.Lookup(element, concentration)
	return err == nil
}

// Elements returns the known element identifiers in table order.
func (t *Table) Elements() []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.elements)
}

// Concentrations returns every known concentration level, ascending.
func (t *Table) Concentrations() []float64 {
	if t == nil {
		return nil
	}
	return slices.Clone(t.concentrations)
}

// Entries returns all cells, grouped by element in table order and sorted
// by concentration within each element.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	list := make([]Entry, 0, t.size)
	for _, name := range t.elements {
		row := t.values[name]
		for _, c := range slices.Sorted(maps.Keys(row)) {
			list = append(list, Entry{Element: name, Concentration: c, Value: row[c]})
		}
	}
	return list
}

// Len returns the number of tabulated cells.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.size
}

// Source names where the table was loaded from.
func (t *Table) Source() string {
	if t == nil {
		return ""
	}
	return t.source
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
