// Package testutil holds builders and fakes shared by package tests.
package testutil

import (
	"github.com/nilvalls/TTHTauTau-Roast/internal/histo"
	"github.com/nilvalls/TTHTauTau-Roast/internal/process"
)

// TauPt is the histogram every built record carries.
const TauPt = "tau_pt"

// Record builds an analyzed record of type typ whose counters give a
// lumi scale factor of intLumi/10000 for unit cross-section.
//
// The tau_pt histogram has four 25 GeV bins filled with content events
// spread 1:2:3:4, and the cut-flow has the two upstream rows plus a
// "tau ID" and an "opposite sign" selection.
func Record(name, typ string, content float64) *process.Record {
	r := process.NewRecord(process.Metadata{
		ShortName:      name,
		NiceName:       name,
		LabelForLegend: name,
		Type:           typ,
		TreeName:       "TTbarTree",
		NtuplePaths:    []string{"/store/user/roast/" + name + "/*.root"},
		Color:          1,
		Plot:           true,
		CrossSection:   1,
		BranchingRatio: 1,
	}, process.Counters{
		InDataset:           20000,
		ReadByPreprocessing: 16000,
		InNtuple:            4000,
		AnalyzedEvents:      2000,
	})
	r.CutFlow().SetCutCounts(process.CutReadFromDS, 20000)
	r.CutFlow().SetCutCounts(process.CutSkimming, 16000)
	r.CutFlow().RegisterCut("tau ID", 1200)
	r.CutFlow().RegisterCut("opposite sign", content)

	h := histo.NewHist1D(TauPt, 4, 0, 100)
	h.Title = "#tau p_{T}"
	for bin, share := range []float64{1, 2, 3, 4} {
		h.Fill(12.5+25*float64(bin), content*share/10)
	}
	w := histo.NewWrapper(h)
	w.XLabel = "p_{T} [GeV]"
	w.YLabel = "Events"
	r.SetHistogram(TauPt, w)
	r.SetAnalyzed()
	r.SetObserver(&process.Recorder{})
	return r
}

// Set builds the standard four-process set: collisions, two backgrounds
// and one signal.
func Set() *process.Set {
	return process.NewSet(
		Record("collisions", process.TypeCollisions, 500),
		Record("ttbar", process.TypeMCBackground, 400),
		Record("zjets", process.TypeMCBackground, 100),
		Record("tth", process.TypeSignal, 20),
	)
}
