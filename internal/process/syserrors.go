package process

import (
	"fmt"
	"math"

	"github.com/nilvalls/TTHTauTau-Roast/internal/histo"
)

// BinShift is the systematic band of one regular bin.
type BinShift struct {
	Up   float64 `json:"up"`
	Down float64 `json:"down"`
}

// SysErrors returns the systematic band of the background sum of histName,
// one entry per regular bin. Each side is the square root of the summed
// squared differences between a shifted set's background sum and s's.
// up and down hold the sets produced with each shift applied, already
// normalized and combined like s.
func (s *Set) SysErrors(histName string, up, down []*Set) ([]BinShift, error) {
	nominal, err := s.BackgroundSum(histName)
	if err != nil {
		return nil, err
	}
	if nominal == nil || nominal.Histo() == nil {
		return nil, fmt.Errorf("sys errors %q: no background histogram", histName)
	}
	h := nominal.Histo()

	upSq, err := squaredShifts(h, histName, up)
	if err != nil {
		return nil, fmt.Errorf("sys errors %q: up: %w", histName, err)
	}
	downSq, err := squaredShifts(h, histName, down)
	if err != nil {
		return nil, fmt.Errorf("sys errors %q: down: %w", histName, err)
	}

	out := make([]BinShift, h.NBins())
	for i := range out {
		out[i] = BinShift{Up: math.Sqrt(upSq[i]), Down: math.Sqrt(downSq[i])}
	}
	return out, nil
}

func squaredShifts(nominal *histo.Hist1D, histName string, shifted []*Set) ([]float64, error) {
	res := make([]float64, nominal.NBins())
	for n, set := range shifted {
		sum, err := set.BackgroundSum(histName)
		if err != nil {
			return nil, err
		}
		if sum == nil || sum.Histo() == nil {
			return nil, fmt.Errorf("shift %d: no background histogram", n)
		}
		h := sum.Histo()
		if !h.SameBinning(nominal) {
			return nil, fmt.Errorf("shift %d: %w", n, &histo.BinningError{
				Name:  histName,
				Want:  nominal.Binning(),
				Found: h.Binning(),
			})
		}
		for i := range res {
			d := h.BinContent(i+1) - nominal.BinContent(i+1)
			res[i] += d * d
		}
	}
	return res, nil
}
