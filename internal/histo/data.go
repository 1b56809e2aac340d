package histo

import (
	"fmt"

	"go-hep.org/x/hep/hbook"
)

// Data is a detached view of a Hist1D. SumW and SumW2 include the
// underflow (index 0) and overflow (index NBins+1) bins.
type Data struct {
	Name    string    `json:"name"`
	Title   string    `json:"title,omitempty"`
	Binning Binning   `json:"binning"`
	SumW    []float64 `json:"sumw"`
	SumW2   []float64 `json:"sumw2"`
	Entries int64     `json:"entries"`
}

// Data returns a detached copy of h's state.
func (h *Hist1D) Data() Data {
	n := h.NBins() + 2
	d := Data{
		Name:    h.Name,
		Title:   h.Title,
		Binning: h.Binning(),
		SumW:    make([]float64, n),
		SumW2:   make([]float64, n),
		Entries: h.Entries(),
	}
	for i := range n {
		b := h.dist(i)
		d.SumW[i] = b.SumW
		d.SumW2[i] = b.SumW2
	}
	return d
}

// MarshalBinary encodes the bin moments with hbook's bit-exact codec.
// Name and Title are not part of the encoding; the caller stores them.
func (h *Hist1D) MarshalBinary() ([]byte, error) {
	// An empty annotation keeps the encoding deterministic; gob walks maps
	// in random order.
	hh := hbook.H1D{Binning: h.h.Binning, Ann: hbook.Annotation{}}
	data, err := hh.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("histo: %s: %w", h.Name, err)
	}
	return data, nil
}

// Decode rebuilds a histogram from MarshalBinary output.
func Decode(name, title string, data []byte) (h *Hist1D, err error) {
	// hbook slices without bounds checks and panics on truncated input.
	defer func() {
		if r := recover(); r != nil {
			h, err = nil, fmt.Errorf("histo: %s: corrupt encoding: %v", name, r)
		}
	}()

	var hh hbook.H1D
	if err := hh.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("histo: %s: %w", name, err)
	}
	if len(hh.Binning.Bins) < 1 || !(hh.Binning.XRange.Max > hh.Binning.XRange.Min) {
		return nil, fmt.Errorf("histo: %s: invalid binning %d bins over [%g, %g)",
			name, len(hh.Binning.Bins), hh.Binning.XRange.Min, hh.Binning.XRange.Max)
	}
	hh.Ann = make(hbook.Annotation)
	return &Hist1D{Name: name, Title: title, h: &hh}, nil
}
