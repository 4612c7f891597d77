package crossfilter

import "sort"

// Set is a set of cell values.
type Set map[string]struct{}

// NewSet returns a set holding values.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Add inserts v.
func (s Set) Add(v string) { s[v] = struct{}{} }

// Remove deletes v.
func (s Set) Remove(v string) { delete(s, v) }

// Len returns the number of members.
func (s Set) Len() int { return len(s) }

// Values returns the members sorted ascending.
func (s Set) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

// Contains reports whether every member of other is in s.
func (s Set) Contains(other Set) bool {
	for v := range other {
		if !s.Has(v) {
			return false
		}
	}
	return true
}

// Equal reports whether both sets hold the same members.
func (s Set) Equal(other Set) bool {
	return len(s) == len(other) && s.Contains(other)
}

// Selections maps a dimension name to its selected values.
type Selections map[string]Set

// Clone deep-copies the selections.
func (s Selections) Clone() Selections {
	out := make(Selections, len(s))
	for k, v := range s {
		out[k] = v.Clone()
	}
	return out
}

// Get returns the selection of a dimension, or an empty set.
func (s Selections) Get(name string) Set {
	if set, ok := s[name]; ok {
		return set
	}
	return Set{}
}
