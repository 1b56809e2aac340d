package process

import (
	"github.com/nilvalls/TTHTauTau-Roast/internal/cutflow"
)

// lumiNormOffset selects the cut-flow row the lumi-norm row is derived
// from: two positions before the new row.
const lumiNormOffset = 2

// Normalization describes one NormalizeToLumi call.
type Normalization struct {
	Process string `json:"process"`

	// Applied is false when the record is collisions data or was already
	// normalized; the derived values are then zero.
	Applied bool `json:"applied"`

	IntLumi           float64 `json:"int_lumi"`
	CrossSection      float64 `json:"cross_section"`
	BranchingRatio    float64 `json:"branching_ratio"`
	InDataset         int64   `json:"in_dataset"`
	AnalyzedEvents    int64   `json:"analyzed_events"`
	InNtuple          int64   `json:"in_ntuple"`
	OtherScaleFactor  float64 `json:"other_scale_factor"`
	RelSysUncertainty float64 `json:"rel_sys_uncertainty"`

	// ExpectedEvents = IntLumi * CrossSection * BranchingRatio.
	ExpectedEvents float64 `json:"expected_events"`
	// RawEvents = InDataset * AnalyzedEvents / InNtuple.
	RawEvents float64 `json:"raw_events"`
	// ScaleFactor = ExpectedEvents / RawEvents * OtherScaleFactor.
	ScaleFactor float64 `json:"scale_factor"`

	// CutFlowErr is set when the lumi-norm row could not be registered
	// because the cut-flow is shorter than the reference offset.
	CutFlowErr error `json:"-"`
}

// LumiScaleFactor computes the luminosity scale factor without touching
// the record. Divisions are unguarded.
func (r *Record) LumiScaleFactor(intLumi float64) (expected, raw, sf float64) {
	expected = intLumi * r.CrossSection * r.BranchingRatio
	raw = float64(r.InDataset) * (float64(r.AnalyzedEvents) / float64(r.InNtuple))
	sf = expected / raw
	sf *= r.OtherScaleFactor
	return expected, raw, sf
}

// NormalizeToLumi scales a simulated record's histograms to intLumi and
// appends a "Lumi norm" row to the raw cut-flow. Collisions records and
// records already normalized are left untouched. The normalized flag is
// set in every case.
func (r *Record) NormalizeToLumi(intLumi float64) Normalization {
	n := Normalization{
		Process:           r.ShortName,
		IntLumi:           intLumi,
		CrossSection:      r.CrossSection,
		BranchingRatio:    r.BranchingRatio,
		InDataset:         r.InDataset,
		AnalyzedEvents:    r.AnalyzedEvents,
		InNtuple:          r.InNtuple,
		OtherScaleFactor:  r.OtherScaleFactor,
		RelSysUncertainty: r.RelSysUncertainty,
	}

	if !r.IsCollisions() && !r.flags.NormalizedHistos {
		n.Applied = true
		n.ExpectedEvents, n.RawEvents, n.ScaleFactor = r.LumiScaleFactor(intLumi)

		r.ScaleHistograms(n.ScaleFactor)
		n.CutFlowErr = r.cutFlow.RegisterCutFromLast(cutflow.LumiNormCut, lumiNormOffset, n.ScaleFactor)
		r.ExpectedEvents = n.ExpectedEvents

		r.notify(n)
	}

	r.flags.NormalizedHistos = true
	return n
}

func (r *Record) notify(n Normalization) {
	o := r.observer
	if o == nil {
		o = defaultObserver()
	}
	o.ObserveNormalization(n)
}
