package report

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilvalls/TTHTauTau-Roast/internal/process"
	"github.com/nilvalls/TTHTauTau-Roast/internal/testutil"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// normalizedSet is the standard set normalized to 5000/pb, a scale factor
// of one half for every simulated process.
func normalizedSet(t *testing.T) *process.Set {
	t.Helper()
	set := testutil.Set()
	set.NormalizeAll(5000)
	set.BuildNormalizedCutFlows()
	return set
}

func TestWriteCutFlowText_Raw(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCutFlowText(&buf, testutil.Set().All(), false))

	newGoldie(t).Assert(t, "cutflow_raw", buf.Bytes())
}

func TestWriteCutFlowText_RawAfterNormalization(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCutFlowText(&buf, normalizedSet(t).All(), false))

	newGoldie(t).Assert(t, "cutflow_raw_after_normalization", buf.Bytes())
}

func TestWriteCutFlowText_Normalized(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCutFlowText(&buf, normalizedSet(t).All(), true))

	newGoldie(t).Assert(t, "cutflow_normalized", buf.Bytes())
}

func TestCutFlowJSON_Normalized(t *testing.T) {
	data, err := CutFlowJSON(normalizedSet(t).All(), true)
	require.NoError(t, err)

	newGoldie(t).Assert(t, "cutflow_normalized_json", data)
}

func TestCutFlowJSON_NonFinite(t *testing.T) {
	r := testutil.Record("broken", process.TypeSignal, 10)
	r.InDataset = 0
	r.NormalizeToLumi(1000)

	data, err := CutFlowJSON([]*process.Record{r}, false)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
	assert.Contains(t, string(data), `"+Inf"`)
}

func TestBuildCutFlowView_Empty(t *testing.T) {
	v := BuildCutFlowView(nil, false)
	assert.Empty(t, v.Processes)
	assert.NotNil(t, v.Cuts)

	var buf bytes.Buffer
	require.NoError(t, WriteCutFlowText(&buf, nil, false))
	assert.Equal(t, "Cut flow (raw)\nCut\n", buf.String())
}

func TestBuildCutFlowView_UnionOfCuts(t *testing.T) {
	a := testutil.Record("a", process.TypeSignal, 1)
	b := testutil.Record("b", process.TypeSignal, 2)
	b.CutFlow().RegisterCut("b-jet veto", 1)

	v := BuildCutFlowView([]*process.Record{a, b}, false)

	last := v.Cuts[len(v.Cuts)-1]
	assert.Equal(t, "b-jet veto", last.Name)
	assert.Nil(t, last.Counts[0])
	require.NotNil(t, last.Counts[1])
	assert.Equal(t, 1.0, float64(*last.Counts[1]))
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		in         float64
		normalized bool
		want       string
	}{
		{1200, false, "1200"},
		{12.5, false, "12.50"},
		{1200, true, "1200.00"},
		{0.125, true, "0.13"},
		{math.NaN(), false, "NaN"},
		{math.Inf(1), true, "+Inf"},
		{math.Inf(-1), false, "-Inf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCount(tt.in, tt.normalized), "%v/%v", tt.in, tt.normalized)
	}
}

func TestWriteCutFlowText_ColumnsAligned(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCutFlowText(&buf, normalizedSet(t).All(), true))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")[1:]
	for _, l := range lines[1:] {
		assert.Len(t, l, len(lines[0]), l)
	}
}
