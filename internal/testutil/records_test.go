package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilvalls/TTHTauTau-Roast/internal/process"
)

func TestRecord_Shape(t *testing.T) {
	r := Record("ttbar", process.TypeMCBackground, 400)

	w, ok := r.Histogram(TauPt)
	require.True(t, ok)
	assert.InDelta(t, 400.0, w.Integral(), 1e-9)
	assert.Equal(t, 4, r.CutFlow().Len())
	assert.NoError(t, r.CheckCounters())

	_, _, sf := r.LumiScaleFactor(10000)
	assert.InDelta(t, 1.0, sf, 1e-12)
}

func TestSet_Types(t *testing.T) {
	s := Set()

	assert.Len(t, s.Collisions(), 1)
	assert.Len(t, s.Backgrounds(), 2)
	assert.Len(t, s.Signals(), 1)
}
