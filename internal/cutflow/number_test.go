package cutflow

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumber_JSON(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1.5, `1.5`},
		{0, `0`},
		{1e300, `1e+300`},
		{math.Inf(1), `"+Inf"`},
		{math.Inf(-1), `"-Inf"`},
		{math.NaN(), `"NaN"`},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			data, err := json.Marshal(Number(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))

			var back Number
			require.NoError(t, json.Unmarshal(data, &back))
			if math.IsNaN(tt.in) {
				assert.True(t, math.IsNaN(float64(back)))
			} else {
				assert.Equal(t, tt.in, float64(back))
			}
		})
	}
}

func TestNumber_RejectsUnknownString(t *testing.T) {
	var n Number
	assert.Error(t, json.Unmarshal([]byte(`"infinity"`), &n))
}
