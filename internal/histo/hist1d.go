package histo

import (
	"fmt"
	"math"

	"go-hep.org/x/hep/hbook"
)

// Hist1D is a uniformly binned 1-D histogram with under/overflow bins,
// backed by an hbook.H1D.
type Hist1D struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`

	h *hbook.H1D
}

// NewHist1D creates an empty histogram with nbins regular bins over [xmin, xmax).
// Panics if nbins < 1 or xmax <= xmin; binning is fixed at construction.
func NewHist1D(name string, nbins int, xmin, xmax float64) *Hist1D {
	if nbins < 1 {
		panic(fmt.Sprintf("histo: %s: nbins must be positive, got %d", name, nbins))
	}
	if !(xmax > xmin) {
		panic(fmt.Sprintf("histo: %s: invalid range [%g, %g)", name, xmin, xmax))
	}
	return &Hist1D{Name: name, h: hbook.NewH1D(nbins, xmin, xmax)}
}

// NBins returns the number of regular bins.
func (h *Hist1D) NBins() int { return h.h.Len() }

// XMin returns the lower edge of the first regular bin.
func (h *Hist1D) XMin() float64 { return h.h.XMin() }

// XMax returns the upper edge of the last regular bin.
func (h *Hist1D) XMax() float64 { return h.h.XMax() }

// Entries returns the number of Fill calls since the last Reset.
func (h *Hist1D) Entries() int64 { return h.h.Entries() }

// BinWidth returns the (uniform) bin width.
func (h *Hist1D) BinWidth() float64 {
	return (h.XMax() - h.XMin()) / float64(h.NBins())
}

// BinCenter returns the center of regular bin i.
func (h *Hist1D) BinCenter(i int) float64 {
	return h.XMin() + (float64(i)-0.5)*h.BinWidth()
}

// FindBin returns the bin index x falls into, including under/overflow.
// NaN goes to the overflow bin.
func (h *Hist1D) FindBin(x float64) int {
	switch {
	case x < h.XMin():
		return 0
	case !(x < h.XMax()):
		return h.NBins() + 1
	}
	bin := 1 + int((x-h.XMin())/h.BinWidth())
	if bin > h.NBins() {
		bin = h.NBins()
	}
	return bin
}

// Fill adds weight w at x. NaN coordinates land in the overflow bin.
func (h *Hist1D) Fill(x, w float64) {
	h.h.Fill(x, w)
}

// dist returns the weight moments of bin i, nil when i is out of range.
func (h *Hist1D) dist(i int) *hbook.Dist0D {
	n := h.NBins()
	switch {
	case i == 0:
		return &h.h.Binning.Outflows[0].Dist
	case i == n+1:
		return &h.h.Binning.Outflows[1].Dist
	case i > 0 && i <= n:
		return &h.h.Binning.Bins[i-1].Dist.Dist
	}
	return nil
}

// BinContent returns the sum of weights in bin i. Out-of-range bins read as zero.
func (h *Hist1D) BinContent(i int) float64 {
	if d := h.dist(i); d != nil {
		return d.SumW
	}
	return 0
}

// SetBinContent overwrites the content of bin i. Out-of-range bins are ignored.
func (h *Hist1D) SetBinContent(i int, v float64) {
	if d := h.dist(i); d != nil {
		d.SumW = v
	}
}

// BinError returns sqrt(sum of squared weights) for bin i.
func (h *Hist1D) BinError(i int) float64 {
	if d := h.dist(i); d != nil {
		return math.Sqrt(d.SumW2)
	}
	return 0
}

// SetBinError overwrites the error of bin i.
func (h *Hist1D) SetBinError(i int, e float64) {
	if d := h.dist(i); d != nil {
		d.SumW2 = e * e
	}
}

// Integral returns the sum of the regular bins (under/overflow excluded).
func (h *Hist1D) Integral() float64 {
	var sum float64
	for i := 0; i < h.h.Len(); i++ {
		sum += h.h.Value(i)
	}
	return sum
}

// Maximum returns the largest regular-bin content.
func (h *Hist1D) Maximum() float64 {
	m := math.Inf(-1)
	for i := 0; i < h.h.Len(); i++ {
		m = math.Max(m, h.h.Value(i))
	}
	return m
}

// MaximumWithError returns the largest content+error over the regular bins.
func (h *Hist1D) MaximumWithError() float64 {
	m := math.Inf(-1)
	for i := 0; i < h.h.Len(); i++ {
		m = math.Max(m, h.h.Value(i)+h.h.Error(i))
	}
	return m
}

// Reset zeroes all bins and the entry count. Binning is kept.
func (h *Hist1D) Reset() {
	b := &h.h.Binning
	b.Dist = hbook.Dist1D{}
	b.Outflows = [2]hbook.Dist1D{}
	for i := range b.Bins {
		b.Bins[i].Dist = hbook.Dist1D{}
	}
}

// Scale multiplies every bin content by f and every squared error by f².
// No check is made on f: a non-finite factor propagates into every bin.
func (h *Hist1D) Scale(f float64) {
	h.h.Scale(f)
}

// Add accumulates other bin-by-bin. Binnings must be identical.
func (h *Hist1D) Add(other *Hist1D) error {
	if other == nil {
		return fmt.Errorf("histo: %s: cannot add nil histogram", h.Name)
	}
	if !h.SameBinning(other) {
		return &BinningError{
			Name:  h.Name,
			Want:  h.Binning(),
			Found: other.Binning(),
		}
	}
	h.h = hbook.AddH1D(h.h, other.h)
	return nil
}

// SameBinning reports whether h and other share bin count and range.
func (h *Hist1D) SameBinning(other *Hist1D) bool {
	return h.Binning() == other.Binning()
}

// Clone returns a deep copy.
func (h *Hist1D) Clone() *Hist1D {
	return &Hist1D{Name: h.Name, Title: h.Title, h: h.h.Clone()}
}

// Binning describes a histogram's axis.
type Binning struct {
	NBins int     `json:"nbins"`
	XMin  float64 `json:"xmin"`
	XMax  float64 `json:"xmax"`
}

// Binning returns the axis description of h.
func (h *Hist1D) Binning() Binning {
	return Binning{NBins: h.NBins(), XMin: h.XMin(), XMax: h.XMax()}
}

// BinningError is returned when two histograms with different axes are combined.
type BinningError struct {
	Name  string
	Want  Binning
	Found Binning
}

func (e *BinningError) Error() string {
	return fmt.Sprintf("histo: %s: binning mismatch: want %d bins [%g, %g), got %d bins [%g, %g)",
		e.Name, e.Want.NBins, e.Want.XMin, e.Want.XMax, e.Found.NBins, e.Found.XMin, e.Found.XMax)
}
