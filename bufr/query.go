package bufr

import (
	"fmt"
	"strconv"
	"strings"
)

// AnySubset is the wildcard subset selector. A query whose subset component
// is "*" (or "ANY") applies to every subset encountered.
const AnySubset = "*"

// QueryComponent is one element of a parsed query path: a mnemonic plus an
// optional 1-based occurrence index. Index zero means no selector.
type QueryComponent struct {
	Name  string
	Index int
}

// Query is a parsed path from a subset down to a leaf element.
type Query struct {
	Subset      QueryComponent
	IsAnySubset bool
	Path        []QueryComponent
	Str         string
}

// ParseQuery parses a slash-separated query string such as
// "NC002001/TMPSQ/TMDB" or "*/ROSEQ/HEIT[2]". The first component selects
// the subset ("*" matches any); the remainder names the replicated sequences
// leading to the leaf, with an optional [n] occurrence selector on the last
// component.
func ParseQuery(str string) (Query, error) {
	parts := strings.Split(str, "/")
	if len(parts) < 2 {
		return Query{}, fmt.Errorf("query %q must have at least a subset and a leaf component", str)
	}

	q := Query{Str: str}

	subset := parts[0]
	if subset == "" {
		return Query{}, fmt.Errorf("query %q has an empty subset component", str)
	}
	if subset == AnySubset || strings.EqualFold(subset, "ANY") {
		q.IsAnySubset = true
		subset = AnySubset
	}
	q.Subset = QueryComponent{Name: subset}

	for i, part := range parts[1:] {
		comp, err := parseComponent(part)
		if err != nil {
			return Query{}, fmt.Errorf("query %q: %w", str, err)
		}
		if comp.Index > 0 && i != len(parts)-2 {
			return Query{}, fmt.Errorf("query %q: index selector is only allowed on the last component", str)
		}
		q.Path = append(q.Path, comp)
	}

	return q, nil
}

func parseComponent(part string) (QueryComponent, error) {
	if part == "" {
		return QueryComponent{}, fmt.Errorf("empty path component")
	}

	name := part
	index := 0
	if open := strings.IndexByte(part, '['); open >= 0 {
		if !strings.HasSuffix(part, "]") {
			return QueryComponent{}, fmt.Errorf("component %q has an unterminated index selector", part)
		}
		idxStr := part[open+1 : len(part)-1]
		idx, err := strconv.Atoi(idxStr)
		if err != nil || idx < 1 {
			return QueryComponent{}, fmt.Errorf("component %q must use a positive integer index", part)
		}
		name = part[:open]
		index = idx
	}
	if name == "" {
		return QueryComponent{}, fmt.Errorf("component %q has no mnemonic", part)
	}

	return QueryComponent{Name: name, Index: index}, nil
}

// QuerySet maps caller-chosen output names to ordered lists of alternative
// queries. During resolution the first alternative that matches the current
// subset wins. Names keep their insertion order; that order fixes the target
// index used by DataFrame and ResultSet.
type QuerySet struct {
	names   []string
	queries map[string][]Query
}

// NewQuerySet returns an empty query set.
func NewQuerySet() *QuerySet {
	return &QuerySet{queries: make(map[string][]Query)}
}

// Add registers the alternatives for an output name. Adding to an existing
// name appends further alternatives.
func (qs *QuerySet) Add(name string, queries ...Query) {
	if _, ok := qs.queries[name]; !ok {
		qs.names = append(qs.names, name)
	}
	qs.queries[name] = append(qs.queries[name], queries...)
}

// AddStrings parses and registers the given query strings for an output name.
func (qs *QuerySet) AddStrings(name string, strs ...string) error {
	for _, s := range strs {
		q, err := ParseQuery(s)
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		qs.Add(name, q)
	}
	return nil
}

// Names returns the output names in insertion order.
func (qs *QuerySet) Names() []string { return qs.names }

// QueriesFor returns the alternatives registered for a name.
func (qs *QuerySet) QueriesFor(name string) []Query { return qs.queries[name] }

// Size returns the number of output names.
func (qs *QuerySet) Size() int { return len(qs.names) }
