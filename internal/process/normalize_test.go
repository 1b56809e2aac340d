package process

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilvalls/TTHTauTau-Roast/internal/cutflow"
	"github.com/nilvalls/TTHTauTau-Roast/internal/histo"
)

// newSample builds a background record with two filled histograms and the
// two upstream cut-flow rows.
func newSample(t *testing.T, typ string) (*Record, *Recorder) {
	t.Helper()

	r := NewRecord(Metadata{
		ShortName:        "ttbar",
		Type:             typ,
		CrossSection:     2,
		BranchingRatio:   0.5,
		OtherScaleFactor: 1.5,
	}, Counters{
		InDataset:           10000,
		ReadByPreprocessing: 8000,
		InNtuple:            1000,
		AnalyzedEvents:      500,
	})
	r.CutFlow().SetCutCounts(CutReadFromDS, 10000)
	r.CutFlow().SetCutCounts(CutSkimming, 8000)
	r.CutFlow().RegisterCut("tau ID", 400)

	h1 := histo.NewHist1D("h1", 2, 0, 2)
	h1.Fill(0.5, 10)
	h1.Fill(1.5, 20)
	h2 := histo.NewHist1D("h2", 1, 0, 1)
	h2.Fill(0.5, 4)
	r.SetHistogram("h1", histo.NewWrapper(h1))
	r.SetHistogram("h2", histo.NewWrapper(h2))

	rec := &Recorder{}
	r.SetObserver(rec)
	return r, rec
}

func TestLumiScaleFactor_Formula(t *testing.T) {
	r, _ := newSample(t, TypeMCBackground)

	expected, raw, sf := r.LumiScaleFactor(1000)

	// L*sigma*b = 1000*2*0.5
	assert.InDelta(t, 1000.0, expected, 1e-9)
	// N_DS*(N_ana/N_ntuple) = 10000*(500/1000)
	assert.InDelta(t, 5000.0, raw, 1e-9)
	// 1000/5000*1.5
	assert.InDelta(t, 0.3, sf, 1e-12)
}

func TestNormalizeToLumi_ScalesHistogramsByFactor(t *testing.T) {
	r, rec := newSample(t, TypeMCBackground)

	n := r.NormalizeToLumi(1000)

	require.True(t, n.Applied)
	assert.InDelta(t, 0.3, n.ScaleFactor, 1e-12)
	assert.NoError(t, n.CutFlowErr)

	h1, _ := r.Histogram("h1")
	h2, _ := r.Histogram("h2")
	assert.InDelta(t, 3.0, h1.Histo().BinContent(1), 1e-9)
	assert.InDelta(t, 6.0, h1.Histo().BinContent(2), 1e-9)
	assert.InDelta(t, 1.2, h2.Histo().BinContent(1), 1e-9)

	assert.True(t, r.NormalizedHistos())
	assert.InDelta(t, 1000.0, r.ExpectedEvents, 1e-9)

	require.Len(t, rec.Normalizations(), 1)
	assert.Equal(t, "ttbar", rec.Normalizations()[0].Process)
}

func TestNormalizeToLumi_AppendsLumiNormRow(t *testing.T) {
	r, _ := newSample(t, TypeSignal)

	r.NormalizeToLumi(1000)

	last, ok := r.CutFlow().Last()
	require.True(t, ok)
	assert.Equal(t, cutflow.LumiNormCut, last.Name)
	// derived from the row two positions before the new row ("skimming + PAT")
	assert.InDelta(t, 8000*0.3, last.Count, 1e-9)
	assert.InDelta(t, 0.3, last.Multiplier, 1e-12)
	assert.Equal(t, 4, r.CutFlow().Len())
}

func TestNormalizeToLumi_Idempotent(t *testing.T) {
	once, _ := newSample(t, TypeMCBackground)
	twice, rec := newSample(t, TypeMCBackground)

	once.NormalizeToLumi(1000)
	twice.NormalizeToLumi(1000)
	second := twice.NormalizeToLumi(1000)

	assert.False(t, second.Applied)
	assert.Len(t, rec.Normalizations(), 1, "observer only notified when applied")

	for _, name := range once.HistogramNames() {
		a, _ := once.Histogram(name)
		b, _ := twice.Histogram(name)
		assert.Equal(t, a.Histo().Data(), b.Histo().Data(), name)
	}
	assert.Equal(t, once.CutFlow().Rows(), twice.CutFlow().Rows())
}

func TestNormalizeToLumi_CollisionsNeverScaled(t *testing.T) {
	r, rec := newSample(t, TypeCollisions)
	before := r.Clone()

	n := r.NormalizeToLumi(1000)

	assert.False(t, n.Applied)
	assert.True(t, r.NormalizedHistos())
	assert.Empty(t, rec.Normalizations())
	for _, name := range r.HistogramNames() {
		a, _ := before.Histogram(name)
		b, _ := r.Histogram(name)
		assert.Equal(t, a.Histo().Data(), b.Histo().Data(), name)
	}
	assert.Equal(t, before.CutFlow().Rows(), r.CutFlow().Rows())
}

func TestNormalizeToLumi_UpdateReenablesNormalization(t *testing.T) {
	r, _ := newSample(t, TypeMCBackground)
	r.NormalizeToLumi(1000)

	r.Update(r.Clone())
	assert.False(t, r.NormalizedHistos())

	n := r.NormalizeToLumi(1000)
	assert.True(t, n.Applied)
}

func TestNormalizeToLumi_ZeroNtupleAndAnalyzedIsNaN(t *testing.T) {
	r, _ := newSample(t, TypeMCBackground)
	r.InNtuple = 0
	r.AnalyzedEvents = 0

	n := r.NormalizeToLumi(1000)

	assert.True(t, math.IsNaN(n.ScaleFactor))
	h1, _ := r.Histogram("h1")
	assert.True(t, math.IsNaN(h1.Histo().BinContent(1)))
	assert.True(t, r.NormalizedHistos())
}

func TestNormalizeToLumi_ZeroNtupleWithAnalyzedEventsGivesZeroFactor(t *testing.T) {
	r, _ := newSample(t, TypeMCBackground)
	r.InNtuple = 0

	n := r.NormalizeToLumi(1000)

	// 500/0 = +Inf, 10000*Inf = +Inf, 1000/Inf = 0
	assert.True(t, math.IsInf(n.RawEvents, 1))
	assert.Equal(t, 0.0, n.ScaleFactor)
}

func TestNormalizeToLumi_ZeroDatasetIsInf(t *testing.T) {
	r, _ := newSample(t, TypeMCBackground)
	r.InDataset = 0

	n := r.NormalizeToLumi(1000)

	assert.True(t, math.IsInf(n.ScaleFactor, 1))
	h2, _ := r.Histogram("h2")
	assert.True(t, math.IsInf(h2.Histo().BinContent(1), 1))
}

func TestNormalizeToLumi_ShortCutFlowReportsError(t *testing.T) {
	r, _ := newSample(t, TypeMCBackground)
	r.SetCutFlow(cutflow.New(cutflow.Row{Name: CutReadFromDS, Count: 10000}))

	n := r.NormalizeToLumi(1000)

	require.Error(t, n.CutFlowErr)
	assert.True(t, n.Applied)
	assert.Equal(t, 1, r.CutFlow().Len())
	// histograms are still scaled
	h2, _ := r.Histogram("h2")
	assert.InDelta(t, 1.2, h2.Histo().BinContent(1), 1e-9)
}

func TestNormalizeToLumi_SkipsEmptyWrappers(t *testing.T) {
	r, _ := newSample(t, TypeMCBackground)
	r.SetHistogram("booked", histo.NewWrapper(nil))

	assert.NotPanics(t, func() { r.NormalizeToLumi(1000) })
}

func TestNormalizeToLumi_DefaultObserverDoesNotPanic(t *testing.T) {
	r, _ := newSample(t, TypeMCBackground)
	r.SetObserver(nil)

	assert.NotPanics(t, func() { r.NormalizeToLumi(1000) })
}

func TestObserverFunc(t *testing.T) {
	r, _ := newSample(t, TypeMCBackground)
	var got []Normalization
	r.SetObserver(ObserverFunc(func(n Normalization) { got = append(got, n) }))

	r.NormalizeToLumi(500)

	require.Len(t, got, 1)
	assert.InDelta(t, 0.15, got[0].ScaleFactor, 1e-12)
}
