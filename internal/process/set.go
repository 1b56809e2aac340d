package process

import (
	"fmt"
	"math"
	"slices"

	"github.com/nilvalls/TTHTauTau-Roast/internal/histo"
)

// Set is an ordered collection of records keyed by short name.
type Set struct {
	order   []string
	records map[string]*Record
}

// NewSet returns a set holding recs in order. Later duplicates replace
// earlier ones in place.
func NewSet(recs ...*Record) *Set {
	s := &Set{records: make(map[string]*Record)}
	for _, r := range recs {
		s.Put(r)
	}
	return s
}

// Put inserts r, replacing any record with the same short name in place.
func (s *Set) Put(r *Record) {
	if _, ok := s.records[r.ShortName]; !ok {
		s.order = append(s.order, r.ShortName)
	}
	s.records[r.ShortName] = r
}

// Remove drops the record named name and reports whether it was present.
func (s *Set) Remove(name string) bool {
	if _, ok := s.records[name]; !ok {
		return false
	}
	delete(s.records, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })
	return true
}

// Get returns the record named name.
func (s *Set) Get(name string) (*Record, bool) {
	r, ok := s.records[name]
	return r, ok
}

// Len returns the number of records.
func (s *Set) Len() int { return len(s.order) }

// Names returns short names in insertion order.
func (s *Set) Names() []string { return slices.Clone(s.order) }

// All returns every record in insertion order.
func (s *Set) All() []*Record {
	return s.filter(func(*Record) bool { return true })
}

// Backgrounds returns the simulated background records.
func (s *Set) Backgrounds() []*Record { return s.filter((*Record).IsBackground) }

// Signals returns the signal records.
func (s *Set) Signals() []*Record { return s.filter((*Record).IsSignal) }

// Collisions returns the collisions-data records.
func (s *Set) Collisions() []*Record { return s.filter((*Record).IsCollisions) }

// NormalizeAll normalizes every record to intLumi.
func (s *Set) NormalizeAll(intLumi float64) []Normalization {
	out := make([]Normalization, 0, len(s.order))
	for _, r := range s.All() {
		out = append(out, r.NormalizeToLumi(intLumi))
	}
	return out
}

// BuildNormalizedCutFlows rebuilds the normalized cut-flow of every record.
func (s *Set) BuildNormalizedCutFlows() {
	for _, r := range s.All() {
		r.BuildNormalizedCutFlow()
	}
}

// Combine merges members into a new record named target. The combined
// record takes the first member's place in the set and the members are
// removed, so sums over the set count each sample once. The first member
// provides the metadata and counters.
//
// Members must agree on whether they are normalized. On error the set is
// left unchanged.
func (s *Set) Combine(target string, members ...string) (*Record, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("combine %q: no members given", target)
	}
	recs := make([]*Record, len(members))
	for i, name := range members {
		r, ok := s.Get(name)
		if !ok {
			return nil, fmt.Errorf("combine %q: unknown process %q", target, name)
		}
		if i > 0 && r.NormalizedHistos() != recs[0].NormalizedHistos() {
			return nil, fmt.Errorf("combine %q: %q and %q differ in normalization", target, recs[0].ShortName, name)
		}
		recs[i] = r
	}

	combined := recs[0].Clone()
	combined.ShortName = target
	for _, r := range recs[1:] {
		if err := combined.Add(r); err != nil {
			return nil, fmt.Errorf("combine %q: %w", target, err)
		}
	}
	s.replace(members, combined)
	return combined, nil
}

// replace swaps the records named in members for r, which lands at the
// first member's position.
func (s *Set) replace(members []string, r *Record) {
	at := slices.Index(s.order, members[0])
	order := make([]string, 0, len(s.order))
	for i, name := range s.order {
		switch {
		case i == at:
			order = append(order, r.ShortName)
		case slices.Contains(members, name), name == r.ShortName:
		default:
			order = append(order, name)
		}
	}
	for _, name := range members {
		delete(s.records, name)
	}
	s.order = order
	s.records[r.ShortName] = r
}

// BackgroundSum returns a new wrapper holding the sum of histName over all
// background records. It returns nil when no background has the histogram.
func (s *Set) BackgroundSum(histName string) (*histo.Wrapper, error) {
	var sum *histo.Wrapper
	for _, r := range s.Backgrounds() {
		w, ok := r.Histogram(histName)
		if !ok || w == nil {
			continue
		}
		if sum == nil {
			sum = w.Clone()
			continue
		}
		if err := sum.Add(w.Histo()); err != nil {
			return nil, fmt.Errorf("background sum %q: %s: %w", histName, r.ShortName, err)
		}
	}
	return sum, nil
}

// Integrals returns histName's integral for each record holding a filled
// copy of it, keyed by short name.
func (s *Set) Integrals(histName string) map[string]float64 {
	out := make(map[string]float64)
	for _, r := range s.All() {
		if w, ok := r.Histogram(histName); ok && w != nil && w.Histo() != nil {
			out[r.ShortName] = w.Histo().Integral()
		}
	}
	return out
}

// Maximum returns the largest bin content of histName across the set,
// optionally including the bin error. Returns -Inf when nothing is filled.
func (s *Set) Maximum(histName string, withError bool) float64 {
	m := math.Inf(-1)
	for _, r := range s.All() {
		w, ok := r.Histogram(histName)
		if !ok || w == nil || w.Histo() == nil {
			continue
		}
		if withError {
			m = math.Max(m, w.Histo().MaximumWithError())
		} else {
			m = math.Max(m, w.Histo().Maximum())
		}
	}
	return m
}

func (s *Set) filter(keep func(*Record) bool) []*Record {
	var out []*Record
	for _, name := range s.order {
		if r := s.records[name]; keep(r) {
			out = append(out, r)
		}
	}
	return out
}
