package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nilvalls/TTHTauTau-Roast/internal/cutflow"
	"github.com/nilvalls/TTHTauTau-Roast/internal/histo"
	"github.com/nilvalls/TTHTauTau-Roast/internal/process"
)

type storedRow struct {
	Name       string         `json:"name"`
	Count      cutflow.Number `json:"count"`
	Derived    bool           `json:"derived,omitempty"`
	Multiplier cutflow.Number `json:"multiplier,omitempty"`
}

type storedCounters struct {
	InDataset           int64          `json:"in_dataset"`
	ReadByPreprocessing int64          `json:"read_by_preprocessing"`
	InNtuple            int64          `json:"in_ntuple"`
	AnalyzedEvents      int64          `json:"analyzed_events"`
	ExpectedEvents      cutflow.Number `json:"expected_events"`
}

// storedMetadata mirrors process.Metadata with the catalog floats as
// cutflow.Number, so a NaN cross-section still encodes.
type storedMetadata struct {
	ShortName      string   `json:"short_name"`
	NiceName       string   `json:"nice_name"`
	LabelForLegend string   `json:"label_for_legend"`
	Type           string   `json:"type"`
	TreeName       string   `json:"tree_name"`
	NtuplePaths    []string `json:"ntuple_paths"`
	Color          int      `json:"color"`
	CheckReality   bool     `json:"check_reality"`
	Plot           bool     `json:"plot"`

	CrossSection      cutflow.Number `json:"cross_section"`
	BranchingRatio    cutflow.Number `json:"branching_ratio"`
	OtherScaleFactor  cutflow.Number `json:"other_scale_factor"`
	RelSysUncertainty cutflow.Number `json:"rel_sys_uncertainty"`
}

type storedEvent struct {
	Run       uint64         `json:"run"`
	LumiBlock uint64         `json:"lumi_block"`
	Number    uint64         `json:"number"`
	Weight    cutflow.Number `json:"weight"`
}

type storedState struct {
	Metadata          storedMetadata  `json:"metadata"`
	Counters          storedCounters  `json:"counters"`
	Flags             process.Flags   `json:"flags"`
	GoodEvents        []storedEvent   `json:"good_events,omitempty"`
	CutFlow           []storedRow     `json:"cut_flow"`
	NormalizedCutFlow []storedRow     `json:"normalized_cut_flow,omitempty"`
}

type storedHistMeta struct {
	Name    string  `json:"name,omitempty"`
	Title   string  `json:"title,omitempty"`
	SubDir  string  `json:"sub_dir,omitempty"`
	XLabel  string  `json:"x_label,omitempty"`
	YLabel  string  `json:"y_label,omitempty"`
	MinXVis float64 `json:"min_x_vis"`
	MaxXVis float64 `json:"max_x_vis"`
	Booked  bool    `json:"booked"`
}

func toStoredMetadata(m process.Metadata) storedMetadata {
	return storedMetadata{
		ShortName:         m.ShortName,
		NiceName:          m.NiceName,
		LabelForLegend:    m.LabelForLegend,
		Type:              m.Type,
		TreeName:          m.TreeName,
		NtuplePaths:       m.NtuplePaths,
		Color:             m.Color,
		CheckReality:      m.CheckReality,
		Plot:              m.Plot,
		CrossSection:      cutflow.Number(m.CrossSection),
		BranchingRatio:    cutflow.Number(m.BranchingRatio),
		OtherScaleFactor:  cutflow.Number(m.OtherScaleFactor),
		RelSysUncertainty: cutflow.Number(m.RelSysUncertainty),
	}
}

func fromStoredMetadata(m storedMetadata) process.Metadata {
	return process.Metadata{
		ShortName:         m.ShortName,
		NiceName:          m.NiceName,
		LabelForLegend:    m.LabelForLegend,
		Type:              m.Type,
		TreeName:          m.TreeName,
		NtuplePaths:       m.NtuplePaths,
		Color:             m.Color,
		CheckReality:      m.CheckReality,
		Plot:              m.Plot,
		CrossSection:      float64(m.CrossSection),
		BranchingRatio:    float64(m.BranchingRatio),
		OtherScaleFactor:  float64(m.OtherScaleFactor),
		RelSysUncertainty: float64(m.RelSysUncertainty),
	}
}

func toStoredEvents(evs []process.Event) []storedEvent {
	if evs == nil {
		return nil
	}
	out := make([]storedEvent, len(evs))
	for i, e := range evs {
		out[i] = storedEvent{Run: e.Run, LumiBlock: e.LumiBlock, Number: e.Number, Weight: cutflow.Number(e.Weight)}
	}
	return out
}

func fromStoredEvents(evs []storedEvent) []process.Event {
	if len(evs) == 0 {
		return nil
	}
	out := make([]process.Event, len(evs))
	for i, e := range evs {
		out[i] = process.Event{Run: e.Run, LumiBlock: e.LumiBlock, Number: e.Number, Weight: float64(e.Weight)}
	}
	return out
}

func toStoredRows(rows []cutflow.Row) []storedRow {
	if rows == nil {
		return nil
	}
	out := make([]storedRow, len(rows))
	for i, r := range rows {
		out[i] = storedRow{Name: r.Name, Count: cutflow.Number(r.Count), Derived: r.Derived, Multiplier: cutflow.Number(r.Multiplier)}
	}
	return out
}

func fromStoredRows(rows []storedRow) []cutflow.Row {
	if len(rows) == 0 {
		return nil
	}
	out := make([]cutflow.Row, len(rows))
	for i, r := range rows {
		out[i] = cutflow.Row{Name: r.Name, Count: float64(r.Count), Derived: r.Derived, Multiplier: float64(r.Multiplier)}
	}
	return out
}

// marshalState converts a record snapshot to JSON TEXT for storage.
func marshalState(st process.State) (string, error) {
	stored := storedState{
		Metadata: toStoredMetadata(st.Metadata),
		Counters: storedCounters{
			InDataset:           st.Counters.InDataset,
			ReadByPreprocessing: st.Counters.ReadByPreprocessing,
			InNtuple:            st.Counters.InNtuple,
			AnalyzedEvents:      st.Counters.AnalyzedEvents,
			ExpectedEvents:      cutflow.Number(st.Counters.ExpectedEvents),
		},
		Flags:             st.Flags,
		GoodEvents:        toStoredEvents(st.GoodEvents),
		CutFlow:           toStoredRows(st.CutFlow),
		NormalizedCutFlow: toStoredRows(st.NormalizedCutFlow),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // legend labels carry ROOT TLatex like "#bar{t}"
	if err := enc.Encode(stored); err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalState parses JSON TEXT written by marshalState.
func unmarshalState(data string) (process.State, error) {
	var stored storedState
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return process.State{}, fmt.Errorf("unmarshal state: %w", err)
	}
	return process.State{
		Metadata: fromStoredMetadata(stored.Metadata),
		Counters: process.Counters{
			InDataset:           stored.Counters.InDataset,
			ReadByPreprocessing: stored.Counters.ReadByPreprocessing,
			InNtuple:            stored.Counters.InNtuple,
			AnalyzedEvents:      stored.Counters.AnalyzedEvents,
			ExpectedEvents:      float64(stored.Counters.ExpectedEvents),
		},
		Flags:             stored.Flags,
		GoodEvents:        fromStoredEvents(stored.GoodEvents),
		CutFlow:           fromStoredRows(stored.CutFlow),
		NormalizedCutFlow: fromStoredRows(stored.NormalizedCutFlow),
	}, nil
}

// marshalHistogram splits a wrapper into JSON metadata and the hbook bin
// blob. An unbooked wrapper yields a nil blob.
func marshalHistogram(w *histo.Wrapper) (meta string, bins []byte, err error) {
	m := storedHistMeta{
		SubDir:  w.SubDir,
		XLabel:  w.XLabel,
		YLabel:  w.YLabel,
		MinXVis: w.MinXVis,
		MaxXVis: w.MaxXVis,
	}
	if h := w.Histo(); h != nil {
		m.Name = h.Name
		m.Title = h.Title
		m.Booked = true
		bins, err = h.MarshalBinary()
		if err != nil {
			return "", nil, err
		}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", nil, fmt.Errorf("marshal histogram meta: %w", err)
	}
	return string(data), bins, nil
}

// unmarshalHistogram rebuilds the wrapper stored under name.
func unmarshalHistogram(name, meta string, bins []byte) (*histo.Wrapper, error) {
	var m storedHistMeta
	if err := json.Unmarshal([]byte(meta), &m); err != nil {
		return nil, fmt.Errorf("unmarshal histogram %q meta: %w", name, err)
	}

	if m.Name == "" {
		m.Name = name
	}

	w := histo.NewWrapper(nil)
	if m.Booked {
		h, err := histo.Decode(m.Name, m.Title, bins)
		if err != nil {
			return nil, fmt.Errorf("histogram %q: %w", name, err)
		}
		w.SetHisto(h)
	}
	w.SubDir = m.SubDir
	w.XLabel = m.XLabel
	w.YLabel = m.YLabel
	w.MinXVis = m.MinXVis
	w.MaxXVis = m.MaxXVis
	return w, nil
}
