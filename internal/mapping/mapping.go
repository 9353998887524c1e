// Package mapping loads export mapping files: YAML documents that bind
// output field names to query strings, with optional type overrides and a
// group-by field. A mapping compiles into the QuerySet the runner consumes.
package mapping

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rhoneyager-tomorrow/ioda-converters-1/bufr"
)

// Field binds one output name to its query alternatives.
type Field struct {
	// Name is the caller-chosen output name.
	Name string `yaml:"name"`
	// Query is the single query string form; mutually exclusive with
	// Queries.
	Query string `yaml:"query,omitempty"`
	// Queries lists alternatives tried in order against each subset.
	Queries []string `yaml:"queries,omitempty"`
	// Type optionally overrides the output container: one of int, int32,
	// int64, float, double, string.
	Type string `yaml:"type,omitempty"`
}

// QueryStrings returns the field's alternatives, whichever form was used.
func (f *Field) QueryStrings() []string {
	if f.Query != "" {
		return []string{f.Query}
	}
	return f.Queries
}

// Mapping is a parsed export mapping document.
type Mapping struct {
	Fields  []Field `yaml:"fields"`
	GroupBy string  `yaml:"group_by,omitempty"`
}

// Load reads and validates a mapping document.
func Load(r io.Reader) (*Mapping, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}

	var m Mapping
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadFile reads and validates the mapping document at path.
func LoadFile(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mapping: %w", err)
	}
	defer f.Close()
	return Load(f)
}

var overrideTypes = map[string]bool{
	"int": true, "int32": true, "int64": true,
	"float": true, "double": true, "string": true,
}

// Validate checks that the mapping is internally consistent: unique field
// names, at least one query per field, parseable query strings, recognized
// override types, and a group-by that names a declared field.
func (m *Mapping) Validate() error {
	if len(m.Fields) == 0 {
		return fmt.Errorf("mapping declares no fields")
	}

	seen := make(map[string]bool, len(m.Fields))
	for i := range m.Fields {
		f := &m.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("field %d has no name", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field name %q", f.Name)
		}
		seen[f.Name] = true

		if f.Query != "" && len(f.Queries) > 0 {
			return fmt.Errorf("field %q sets both query and queries", f.Name)
		}
		strs := f.QueryStrings()
		if len(strs) == 0 {
			return fmt.Errorf("field %q has no queries", f.Name)
		}
		for _, s := range strs {
			if _, err := bufr.ParseQuery(s); err != nil {
				return fmt.Errorf("field %q: %w", f.Name, err)
			}
		}

		if f.Type != "" && !overrideTypes[f.Type] {
			return fmt.Errorf("field %q: unknown type override %q", f.Name, f.Type)
		}
	}

	if m.GroupBy != "" && !seen[m.GroupBy] {
		return fmt.Errorf("group_by %q is not a declared field", m.GroupBy)
	}
	return nil
}

// BuildQuerySet compiles the mapping into a QuerySet, preserving field
// order.
func (m *Mapping) BuildQuerySet() (*bufr.QuerySet, error) {
	qs := bufr.NewQuerySet()
	for i := range m.Fields {
		f := &m.Fields[i]
		if err := qs.AddStrings(f.Name, f.QueryStrings()...); err != nil {
			return nil, err
		}
	}
	return qs, nil
}

// OverrideFor returns the container override declared for a field, or the
// empty string.
func (m *Mapping) OverrideFor(name string) string {
	for i := range m.Fields {
		if m.Fields[i].Name == name {
			return m.Fields[i].Type
		}
	}
	return ""
}
