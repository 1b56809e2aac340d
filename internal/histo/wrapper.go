package histo

import "fmt"

// Wrapper owns one histogram plus the presentation metadata a plotting
// front-end needs. The wrapped histogram may be nil (booked but never
// produced); every operation on the wrapper tolerates that.
type Wrapper struct {
	histo *Hist1D

	// SubDir is the output sub-directory the histogram is drawn into.
	SubDir string
	// XLabel and YLabel are axis titles.
	XLabel string
	YLabel string
	// MinXVis and MaxXVis restrict the drawn x-range.
	MinXVis float64
	MaxXVis float64
}

// NewWrapper wraps h. The visible range defaults to the full axis.
func NewWrapper(h *Hist1D) *Wrapper {
	w := &Wrapper{histo: h}
	if h != nil {
		w.MinXVis, w.MaxXVis = h.XMin(), h.XMax()
	}
	return w
}

// Histo returns the wrapped histogram, or nil.
func (w *Wrapper) Histo() *Hist1D { return w.histo }

// SetHisto replaces the wrapped histogram. The previous one is dropped.
func (w *Wrapper) SetHisto(h *Hist1D) { w.histo = h }

// Reset empties the wrapped histogram, if any.
func (w *Wrapper) Reset() {
	if w.histo != nil {
		w.histo.Reset()
	}
}

// ScaleBy scales the wrapped histogram, if any.
func (w *Wrapper) ScaleBy(f float64) {
	if w.histo != nil {
		w.histo.Scale(f)
	}
}

// Add accumulates other into the wrapped histogram. Adding into an empty
// wrapper adopts a copy of other.
func (w *Wrapper) Add(other *Hist1D) error {
	if other == nil {
		return nil
	}
	if w.histo == nil {
		w.histo = other.Clone()
		return nil
	}
	if err := w.histo.Add(other); err != nil {
		return fmt.Errorf("wrapper add: %w", err)
	}
	return nil
}

// Integral returns the wrapped histogram's integral, or 0 when empty.
func (w *Wrapper) Integral() float64 {
	if w.histo == nil {
		return 0
	}
	return w.histo.Integral()
}

// Clone deep-copies the wrapper and its histogram.
func (w *Wrapper) Clone() *Wrapper {
	c := *w
	if w.histo != nil {
		c.histo = w.histo.Clone()
	}
	return &c
}
