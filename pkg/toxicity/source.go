package toxicity

import (
	"encoding/csv"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	formatCSV  = ".csv"
	formatYAML = ".yaml"
	formatYML  = ".yml"
)

// FromRecords builds a table from spreadsheet-style records. The first
// record is the header: its first cell is a label (usually "Element") and
// the rest are concentration levels. Every following record holds an
// element name and one value per concentration column; an empty cell means
// there is no data for that pair.
func FromRecords(source string, records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, loadErrorf(source, "missing header row")
	}

	header := records[0]
	if len(header) < 2 {
		return nil, loadErrorf(source, "header has no concentration columns")
	}

	levels := make([]float64, 0, len(header)-1)
	for _, cell := range header[1:] {
		c, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return nil, loadErrorf(source, "non-numeric concentration column %q", cell)
		}
		if !isFinite(c) || c <= 0 {
			return nil, loadErrorf(source, "invalid concentration column %q", cell)
		}
		if slices.Contains(levels, c) {
			return nil, loadErrorf(source, "duplicate concentration column %q", cell)
		}
		levels = append(levels, c)
	}

	if len(records) == 1 {
		return nil, loadErrorf(source, "table has no element rows")
	}

	seen := make(map[string]bool, len(records)-1)
	entries := make([]Entry, 0, (len(records)-1)*len(levels))
	for i, row := range records[1:] {
		line := i + 2
		if len(row) == 0 {
			return nil, loadErrorf(source, "row %d is empty", line)
		}
		if len(row) > len(header) {
			return nil, loadErrorf(source, "row %d has %d cells, header has %d", line, len(row), len(header))
		}

		name := strings.TrimSpace(row[0])
		if name == "" {
			return nil, loadErrorf(source, "row %d has no element name", line)
		}
		if seen[name] {
			return nil, loadErrorf(source, "row %d: duplicate element %s", line, name)
		}
		seen[name] = true

		found := 0
		for j, cell := range row[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, loadErrorf(source, "row %d: non-numeric value %q for %s", line, cell, name)
			}
			entries = append(entries, Entry{Element: name, Concentration: levels[j], Value: v})
			found++
		}
		if found == 0 {
			return nil, loadErrorf(source, "row %d: element %s has no values", line, name)
		}
	}

	return FromEntries(source, entries)
}

// ReadCSV parses CSV data into a table using the FromRecords layout.
func ReadCSV(source string, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, wrapLoadError(source, err, "invalid CSV")
	}
	return FromRecords(source, records)
}

type yamlDocument struct {
	Elements []yamlElement `yaml:"elements"`
}

type yamlElement struct {
	Name   string              `yaml:"name"`
	Values map[float64]float64 `yaml:"values"`
}

// ReadYAML parses a YAML table document:
//
//	elements:
//	  - name: Element1
//	    values: {0.49: 0.1, 0.98: 0.2}
func ReadYAML(source string, r io.Reader) (*Table, error) {
	var doc yamlDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, loadErrorf(source, "table is empty")
		}
		return nil, wrapLoadError(source, err, "invalid YAML")
	}

	seen := make(map[string]bool, len(doc.Elements))
	entries := make([]Entry, 0)
	for _, el := range doc.Elements {
		if seen[el.Name] {
			return nil, loadErrorf(source, "duplicate element %s", el.Name)
		}
		seen[el.Name] = true
		if len(el.Values) == 0 {
			return nil, loadErrorf(source, "element %q has no values", el.Name)
		}
		for _, c := range slices.Sorted(maps.Keys(el.Values)) {
			entries = append(entries, Entry{Element: el.Name, Concentration: c, Value: el.Values[c]})
		}
	}
	return FromEntries(source, entries)
}

// LoadFile reads a table from a .csv, .yaml or .yml file.
func LoadFile(path string) (*Table, error) {
	if path == "" {
		return nil, loadErrorf("file", "path not specified")
	}

	var read func(string, io.Reader) (*Table, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case formatCSV:
		read = ReadCSV
	case formatYAML, formatYML:
		read = ReadYAML
	default:
		return nil, loadErrorf(path, "unsupported file format (expected %s, %s or %s)", formatCSV, formatYAML, formatYML)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, wrapLoadError(path, err, "cannot open file")
	}
	defer f.Close()

	return read(path, f)
}
