package domain

import (
	"sort"
	"strings"
)

// HostSet is a set of normalized host names. Entries are whitespace-trimmed,
// case-preserved and never empty.
type HostSet map[string]struct{}

// NewHostSet builds a set from raw entries, dropping blanks and duplicates.
func NewHostSet(hosts ...string) HostSet {
	s := make(HostSet, len(hosts))
	for _, h := range hosts {
		s.Add(h)
	}
	return s
}

// Add normalizes h and inserts it. It reports whether h was usable.
func (s HostSet) Add(h string) bool {
	h = strings.TrimSpace(h)
	if h == "" {
		return false
	}
	s[h] = struct{}{}
	return true
}

func (s HostSet) Has(h string) bool {
	_, ok := s[h]
	return ok
}

func (s HostSet) Len() int { return len(s) }

// Sorted returns the hosts in lexical order, the persisted form.
func (s HostSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for h := range s {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy. A nil set clones to an empty one.
func (s HostSet) Clone() HostSet {
	out := make(HostSet, len(s))
	for h := range s {
		out[h] = struct{}{}
	}
	return out
}

// Equal reports whether both sets hold exactly the same hosts.
func (s HostSet) Equal(other HostSet) bool {
	if len(s) != len(other) {
		return false
	}
	for h := range s {
		if !other.Has(h) {
			return false
		}
	}
	return true
}

// Diff returns current - previous: hosts seen now that were never seen before.
func Diff(previous, current HostSet) HostSet {
	out := HostSet{}
	for h := range current {
		if !previous.Has(h) {
			out[h] = struct{}{}
		}
	}
	return out
}

// Union returns previous ∪ current. Persisted state is always the union so a
// host that drops out of a later scan is never forgotten.
func Union(previous, current HostSet) HostSet {
	out := make(HostSet, len(previous)+len(current))
	for h := range previous {
		out[h] = struct{}{}
	}
	for h := range current {
		out[h] = struct{}{}
	}
	return out
}

// HasNews reports whether a diff carries anything worth announcing.
func HasNews(newHosts HostSet) bool {
	return len(newHosts) > 0
}
