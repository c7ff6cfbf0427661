package carrier

import (
	"sort"
)

// CodeTable is a bidirectional mapping between human-readable names and
// carrier wire codes. Lookups miss softly: adapters decide per call site
// whether a miss is fatal or falls back to a default.
type CodeTable struct {
	codes map[string]string // name -> code
	names map[string]string // code -> name
}

// NewCodeTable builds a table from one or more name->code maps. Maps are
// merged in argument order with keys applied in sorted order within each
// map, so when two names share a code the reverse winner is deterministic:
// the lexicographically last name of the last map that defines the code.
func NewCodeTable(tables ...map[string]string) *CodeTable {
	t := &CodeTable{
		codes: make(map[string]string),
		names: make(map[string]string),
	}
	for _, table := range tables {
		keys := make([]string, 0, len(table))
		for name := range table {
			keys = append(keys, name)
		}
		sort.Strings(keys)
		for _, name := range keys {
			code := table[name]
			t.codes[name] = code
			t.names[code] = name
		}
	}
	return t
}

// Code resolves a human-readable name to its wire code.
func (t *CodeTable) Code(name string) (string, bool) {
	code, ok := t.codes[name]
	return code, ok
}

// Name resolves a wire code back to its human-readable name.
func (t *CodeTable) Name(code string) (string, bool) {
	name, ok := t.names[code]
	return name, ok
}

// NameOr resolves a wire code, returning fallback on a miss.
func (t *CodeTable) NameOr(code, fallback string) string {
	if name, ok := t.names[code]; ok {
		return name
	}
	return fallback
}

// Names returns every known human-readable name in sorted order.
func (t *CodeTable) Names() []string {
	names := make([]string, 0, len(t.codes))
	for name := range t.codes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of name entries.
func (t *CodeTable) Len() int { return len(t.codes) }
