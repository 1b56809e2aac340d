package process

import (
	"slices"

	"github.com/nilvalls/TTHTauTau-Roast/internal/cutflow"
	"github.com/nilvalls/TTHTauTau-Roast/internal/histo"
)

// Process categories.
const (
	TypeCollisions   = "collisions"
	TypeMCBackground = "mcBackground"
	TypeSignal       = "signal"
)

// Cut-flow rows kept in sync with the upstream counters by Update.
const (
	CutReadFromDS = "Read from DS"
	CutSkimming   = "skimming + PAT"
)

// Metadata identifies a process and holds its physics constants.
// All fields are plain data; assignments are never validated.
type Metadata struct {
	ShortName      string   `json:"short_name" yaml:"name"`
	NiceName       string   `json:"nice_name" yaml:"alias"`
	LabelForLegend string   `json:"label_for_legend" yaml:"title"`
	Type           string   `json:"type" yaml:"type"`
	TreeName       string   `json:"tree_name" yaml:"tree"`
	NtuplePaths    []string `json:"ntuple_paths" yaml:"paths"`
	Color          int      `json:"color" yaml:"color"`
	CheckReality   bool     `json:"check_reality" yaml:"genmatch"`
	Plot           bool     `json:"plot" yaml:"plot"`

	CrossSection      float64 `json:"cross_section" yaml:"xsec"`
	BranchingRatio    float64 `json:"branching_ratio" yaml:"branch"`
	OtherScaleFactor  float64 `json:"other_scale_factor" yaml:"other_sf"`
	RelSysUncertainty float64 `json:"rel_sys_uncertainty" yaml:"rel_sys"`
}

// Counters holds the event counts collected along the processing chain.
type Counters struct {
	// InDataset is the number of events in the original dataset (N_DS).
	InDataset int64 `json:"in_dataset"`
	// ReadByPreprocessing is the number of events read by the ntuplizer.
	ReadByPreprocessing int64 `json:"read_by_preprocessing"`
	// InNtuple is the number of events written to the ntuples (N_ntuple).
	InNtuple int64 `json:"in_ntuple"`
	// AnalyzedEvents is the number of ntuple events actually analyzed.
	AnalyzedEvents int64 `json:"analyzed_events"`
	// ExpectedEvents is the luminosity-expected yield, set by normalization.
	ExpectedEvents float64 `json:"expected_events"`
}

// Event is one selected event. Its meaning belongs to the selection code.
type Event struct {
	Run       uint64  `json:"run"`
	LumiBlock uint64  `json:"lumi_block"`
	Number    uint64  `json:"number"`
	Weight    float64 `json:"weight"`
}

// Flags are the one-way progress markers of a record.
type Flags struct {
	Analyzed           bool `json:"analyzed"`
	ObtainedGoodEvents bool `json:"obtained_good_events"`
	FilledHistos       bool `json:"filled_histos"`
	NormalizedHistos   bool `json:"normalized_histos"`
}

// Record is one process sample with its histograms and cut-flows.
type Record struct {
	Metadata
	Counters

	flags      Flags
	goodEvents []Event
	histos     map[string]*histo.Wrapper

	cutFlow           cutflow.Table
	normalizedCutFlow cutflow.Table

	observer Observer
}

// New returns an empty record. OtherScaleFactor is left at zero, matching a
// default-constructed record; use NewRecord for a usable sample.
func New() *Record {
	return &Record{histos: make(map[string]*histo.Wrapper)}
}

// NewRecord builds a record from explicit metadata and counters. A zero
// OtherScaleFactor is replaced by the default of 1.
func NewRecord(md Metadata, c Counters) *Record {
	r := New()
	r.Metadata = md
	r.NtuplePaths = slices.Clone(md.NtuplePaths)
	if r.OtherScaleFactor == 0 {
		r.OtherScaleFactor = 1
	}
	r.Counters = c
	return r
}

// IsCollisions reports whether the record holds collisions data.
func (r *Record) IsCollisions() bool { return r.Type == TypeCollisions }

// IsBackground reports whether the record is a simulated background.
func (r *Record) IsBackground() bool { return r.Type == TypeMCBackground }

// IsSignal reports whether the record is a simulated signal.
func (r *Record) IsSignal() bool { return r.Type == TypeSignal }

// IsMC reports whether the record is simulated (background or signal).
func (r *Record) IsMC() bool { return r.IsBackground() || r.IsSignal() }

// Flags returns a snapshot of the progress flags.
func (r *Record) Flags() Flags { return r.flags }

// Analyzed reports whether SetAnalyzed was called.
func (r *Record) Analyzed() bool { return r.flags.Analyzed }

// SetAnalyzed marks the record as analyzed.
func (r *Record) SetAnalyzed() { r.flags.Analyzed = true }

// ObtainedGoodEvents reports whether good events were stored.
func (r *Record) ObtainedGoodEvents() bool { return r.flags.ObtainedGoodEvents }

// FilledHistos reports whether histograms were filled.
func (r *Record) FilledHistos() bool { return r.flags.FilledHistos }

// MarkFilled records that the pipeline finished filling histograms.
func (r *Record) MarkFilled() { r.flags.FilledHistos = true }

// NormalizedHistos reports whether luminosity normalization has run.
func (r *Record) NormalizedHistos() bool { return r.flags.NormalizedHistos }

// GoodEvents returns a copy of the selected events.
func (r *Record) GoodEvents() []Event { return slices.Clone(r.goodEvents) }

// SetGoodEvents stores a copy of events and marks good events as obtained.
func (r *Record) SetGoodEvents(events []Event) {
	r.goodEvents = slices.Clone(events)
	r.flags.ObtainedGoodEvents = true
}

// CutFlow returns the raw cut-flow for in-place updates.
func (r *Record) CutFlow() *cutflow.Table { return &r.cutFlow }

// NormalizedCutFlow returns the normalized cut-flow for in-place updates.
func (r *Record) NormalizedCutFlow() *cutflow.Table { return &r.normalizedCutFlow }

// SetCutFlow replaces the raw cut-flow with a copy of t.
func (r *Record) SetCutFlow(t cutflow.Table) { r.cutFlow = t.Clone() }

// SetNormalizedCutFlow replaces the normalized cut-flow with a copy of t.
func (r *Record) SetNormalizedCutFlow(t cutflow.Table) { r.normalizedCutFlow = t.Clone() }

// BuildNormalizedCutFlow derives the normalized cut-flow from the raw one.
func (r *Record) BuildNormalizedCutFlow() {
	r.normalizedCutFlow.BuildNormalizedCutFlow(r.cutFlow)
}

// SetObserver installs the observer notified on normalization. nil restores
// the default slog observer.
func (r *Record) SetObserver(o Observer) { r.observer = o }

// Clone returns a deep copy: new histogram wrappers, value copies of both
// cut-flows, and copies of paths and events. The observer is shared.
func (r *Record) Clone() *Record {
	c := &Record{
		Metadata:          r.Metadata,
		Counters:          r.Counters,
		flags:             r.flags,
		goodEvents:        slices.Clone(r.goodEvents),
		histos:            make(map[string]*histo.Wrapper, len(r.histos)),
		cutFlow:           r.cutFlow.Clone(),
		normalizedCutFlow: r.normalizedCutFlow.Clone(),
		observer:          r.observer,
	}
	c.NtuplePaths = slices.Clone(r.NtuplePaths)
	for name, w := range r.histos {
		if w != nil {
			w = w.Clone()
		}
		c.histos[name] = w
	}
	return c
}

// Update overwrites r's mutable metadata with other's, clears the
// normalization flag and writes other's dataset and preprocessing counts
// into the first two cut-flow rows. Short name, ntuple paths, good events,
// histograms and counters are left alone.
func (r *Record) Update(other *Record) {
	r.TreeName = other.TreeName
	r.NiceName = other.NiceName
	r.LabelForLegend = other.LabelForLegend
	r.Type = other.Type
	r.CheckReality = other.CheckReality
	r.Color = other.Color

	r.CrossSection = other.CrossSection
	r.BranchingRatio = other.BranchingRatio
	r.OtherScaleFactor = other.OtherScaleFactor
	r.RelSysUncertainty = other.RelSysUncertainty

	r.Plot = other.Plot

	r.flags.NormalizedHistos = false

	r.cutFlow.SetCutCounts(CutReadFromDS, float64(other.InDataset))
	r.cutFlow.SetCutCounts(CutSkimming, float64(other.ReadByPreprocessing))
}
