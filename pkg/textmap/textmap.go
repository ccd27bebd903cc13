// Package textmap parses line-oriented key/value tool output into a
// case-insensitive lookup structure. SDK manifest listings and AVD
// config.ini files do not agree on key casing or separator, so lookups
// ignore case and both ":" and "=" act as separators.
package textmap

import "strings"

// Map is a case-insensitive string map. Keys keep their original casing
// for enumeration; lookups fold case.
type Map struct {
	entries map[string]entry
}

type entry struct {
	key   string
	value string
}

// New returns an empty Map.
func New() *Map {
	return &Map{entries: make(map[string]entry)}
}

// FromString parses key/value lines. The first ":" or "=" on each line is
// the separator, whichever comes first; surrounding whitespace is trimmed;
// lines without a separator are skipped.
func FromString(text string) *Map {
	m := New()
	for _, line := range strings.Split(text, "\n") {
		colon := strings.Index(line, ":")
		equals := strings.Index(line, "=")

		sep := colon
		if sep == -1 || (equals != -1 && equals < sep) {
			sep = equals
		}
		if sep == -1 {
			continue
		}

		key := strings.TrimSpace(line[:sep])
		value := strings.TrimSpace(line[sep+1:])
		if key == "" {
			continue
		}
		m.Set(key, value)
	}
	return m
}

// Set stores a value under the key, replacing any entry that matches
// case-insensitively.
func (m *Map) Set(key, value string) {
	m.entries[strings.ToLower(key)] = entry{key: key, value: value}
}

// Get returns the value for the key under any casing.
func (m *Map) Get(key string) (string, bool) {
	e, ok := m.entries[strings.ToLower(key)]
	return e.value, ok
}

// Has reports whether the key is present under any casing.
func (m *Map) Has(key string) bool {
	_, ok := m.entries[strings.ToLower(key)]
	return ok
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.entries)
}

// Keys returns the original-cased keys in unspecified order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		keys = append(keys, e.key)
	}
	return keys
}

// FilterMap returns a new map holding the entries the predicate keeps.
// The input map is never mutated.
func FilterMap[K comparable, V any](in map[K]V, keep func(K, V) bool) map[K]V {
	out := make(map[K]V)
	for k, v := range in {
		if keep(k, v) {
			out[k] = v
		}
	}
	return out
}

// FilterSlice returns a new slice holding the elements the predicate keeps,
// preserving order. The input slice is never mutated.
func FilterSlice[T any](in []T, keep func(T) bool) []T {
	var out []T
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
