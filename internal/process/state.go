package process

import (
	"slices"

	"github.com/nilvalls/TTHTauTau-Roast/internal/cutflow"
	"github.com/nilvalls/TTHTauTau-Roast/internal/histo"
)

// State is the persisted form of a record, minus histograms.
type State struct {
	Metadata          Metadata      `json:"metadata"`
	Counters          Counters      `json:"counters"`
	Flags             Flags         `json:"flags"`
	GoodEvents        []Event       `json:"good_events"`
	CutFlow           []cutflow.Row `json:"cut_flow"`
	NormalizedCutFlow []cutflow.Row `json:"normalized_cut_flow"`
}

// State returns a detached snapshot of r.
func (r *Record) State() State {
	md := r.Metadata
	md.NtuplePaths = slices.Clone(r.NtuplePaths)
	return State{
		Metadata:          md,
		Counters:          r.Counters,
		Flags:             r.flags,
		GoodEvents:        slices.Clone(r.goodEvents),
		CutFlow:           r.cutFlow.Rows(),
		NormalizedCutFlow: r.normalizedCutFlow.Rows(),
	}
}

// Restore rebuilds a record from a snapshot and its histograms. Flags are
// taken verbatim, so a restored record that was normalized stays
// normalized. The record takes ownership of the wrappers.
func Restore(s State, histos map[string]*histo.Wrapper) *Record {
	r := New()
	r.Metadata = s.Metadata
	r.NtuplePaths = slices.Clone(s.Metadata.NtuplePaths)
	r.Counters = s.Counters
	r.flags = s.Flags
	r.goodEvents = slices.Clone(s.GoodEvents)
	r.cutFlow = cutflow.New(s.CutFlow...)
	r.normalizedCutFlow = cutflow.New(s.NormalizedCutFlow...)
	for name, w := range histos {
		r.histos[name] = w
	}
	return r
}
