package histo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHist1D_FillAndBinning(t *testing.T) {
	h := NewHist1D("pt", 4, 0, 100)

	h.Fill(-5, 1)  // underflow
	h.Fill(10, 2)  // bin 1
	h.Fill(30, 1)  // bin 2
	h.Fill(30, 3)  // bin 2
	h.Fill(100, 1) // overflow (upper edge is exclusive)

	assert.Equal(t, 1.0, h.BinContent(0))
	assert.Equal(t, 2.0, h.BinContent(1))
	assert.Equal(t, 4.0, h.BinContent(2))
	assert.Equal(t, 0.0, h.BinContent(3))
	assert.Equal(t, 1.0, h.BinContent(5))
	assert.Equal(t, int64(5), h.Entries())

	// Integral excludes under/overflow
	assert.Equal(t, 6.0, h.Integral())
	assert.InDelta(t, math.Sqrt(1+9), h.BinError(2), 1e-12)
	assert.Equal(t, 25.0, h.BinWidth())
	assert.Equal(t, 37.5, h.BinCenter(2))
}

func TestHist1D_OutOfRangeBinsReadZero(t *testing.T) {
	h := NewHist1D("x", 2, 0, 1)
	assert.Equal(t, 0.0, h.BinContent(-1))
	assert.Equal(t, 0.0, h.BinContent(99))
	h.SetBinContent(99, 5) // ignored
	assert.Equal(t, 0.0, h.Integral())
}

func TestHist1D_Scale(t *testing.T) {
	h := NewHist1D("x", 2, 0, 2)
	h.Fill(0.5, 2)
	h.Fill(1.5, 3)

	h.Scale(0.5)

	assert.Equal(t, 1.0, h.BinContent(1))
	assert.Equal(t, 1.5, h.BinContent(2))
	assert.InDelta(t, 1.0, h.BinError(1), 1e-12)
	assert.InDelta(t, 1.5, h.BinError(2), 1e-12)
}

func TestHist1D_ScaleNonFinitePropagates(t *testing.T) {
	h := NewHist1D("x", 1, 0, 1)
	h.Fill(0.5, 1)

	h.Scale(math.NaN())
	assert.True(t, math.IsNaN(h.BinContent(1)))
}

func TestHist1D_Add(t *testing.T) {
	a := NewHist1D("x", 2, 0, 2)
	b := NewHist1D("x", 2, 0, 2)
	a.Fill(0.5, 1)
	b.Fill(0.5, 2)
	b.Fill(1.5, 4)

	require.NoError(t, a.Add(b))
	assert.Equal(t, 3.0, a.BinContent(1))
	assert.Equal(t, 4.0, a.BinContent(2))
	assert.Equal(t, int64(3), a.Entries())
	assert.InDelta(t, math.Sqrt(1+4), a.BinError(1), 1e-12)
}

func TestHist1D_AddBinningMismatch(t *testing.T) {
	a := NewHist1D("x", 2, 0, 2)
	b := NewHist1D("x", 3, 0, 2)

	err := a.Add(b)
	require.Error(t, err)

	var be *BinningError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 3, be.Found.NBins)
	assert.Contains(t, err.Error(), "binning mismatch")
}

func TestHist1D_ResetKeepsBinning(t *testing.T) {
	h := NewHist1D("x", 3, -1, 1)
	h.Fill(0, 1)
	h.Reset()

	assert.Equal(t, 0.0, h.Integral())
	assert.Equal(t, int64(0), h.Entries())
	assert.Equal(t, Binning{NBins: 3, XMin: -1, XMax: 1}, h.Binning())
}

func TestHist1D_CloneIsIndependent(t *testing.T) {
	h := NewHist1D("x", 1, 0, 1)
	h.Fill(0.5, 1)

	c := h.Clone()
	c.Fill(0.5, 1)

	assert.Equal(t, 1.0, h.BinContent(1))
	assert.Equal(t, 2.0, c.BinContent(1))
}

func TestHist1D_MaximumWithError(t *testing.T) {
	h := NewHist1D("x", 2, 0, 2)
	h.Fill(0.5, 4) // content 4, error 4
	h.Fill(1.5, 5) // content 5, error 5

	assert.Equal(t, 5.0, h.Maximum())
	assert.Equal(t, 10.0, h.MaximumWithError())
}

func TestNewHist1D_InvalidBinningPanics(t *testing.T) {
	assert.Panics(t, func() { NewHist1D("x", 0, 0, 1) })
	assert.Panics(t, func() { NewHist1D("x", 1, 1, 1) })
}

func TestHist1D_FillNaNGoesToOverflow(t *testing.T) {
	h := NewHist1D("x", 2, 0, 1)

	require.NotPanics(t, func() { h.Fill(math.NaN(), 2) })
	assert.Equal(t, 3, h.FindBin(math.NaN()))
	assert.Equal(t, 2.0, h.BinContent(3))
	assert.Equal(t, 0.0, h.Integral())
	assert.Equal(t, int64(1), h.Entries())
}

func TestHist1D_BinaryRoundTrip(t *testing.T) {
	h := NewHist1D("m_vis", 3, 0, 300)
	h.Title = "visible mass"
	h.Fill(50, 1.5)
	h.Fill(500, 1)
	h.Fill(-1, math.Inf(1))

	data, err := h.MarshalBinary()
	require.NoError(t, err)

	got, err := Decode(h.Name, h.Title, data)
	require.NoError(t, err)
	assert.Equal(t, h.Data(), got.Data())
}

func TestHist1D_MarshalBinaryIsDeterministic(t *testing.T) {
	h := NewHist1D("x", 4, 0, 1)
	h.Fill(0.3, 2)

	a, err := h.MarshalBinary()
	require.NoError(t, err)
	b, err := h.Clone().MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecode_RejectsTruncatedInput(t *testing.T) {
	h := NewHist1D("x", 2, 0, 1)
	data, err := h.MarshalBinary()
	require.NoError(t, err)

	_, err = Decode("bad", "", data[:len(data)/2])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}
