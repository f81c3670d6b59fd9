package mesh

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePosition(t *testing.T) {
	p, err := ParsePosition("v 1.5 -2 3e-1")
	require.NoError(t, err)
	assert.Equal(t, 1.5, p.X)
	assert.Equal(t, -2.0, p.Y)
	assert.InDelta(t, 0.3, p.Z, 1e-12)
}

func TestParsePosition_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "wrong tag", text: "vt 1 2 3", want: "missing position tag"},
		{name: "too few", text: "v 1 2", want: "exactly 3 components"},
		{name: "too many", text: "v 1 2 3 4", want: "exactly 3 components"},
		{name: "not a number", text: "v 1 x 3", want: "component 2 is not a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePosition(tt.text)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseTexture(t *testing.T) {
	tv, err := ParseTexture("vt 0.25 0.75", DefaultMarker)
	require.NoError(t, err)
	assert.False(t, tv.Corrupted)
	assert.Equal(t, []float64{0.25, 0.75}, tv.Components)

	tv, err = ParseTexture("vt 0.25 0.75 0", DefaultMarker)
	require.NoError(t, err)
	assert.Len(t, tv.Components, 3)
}

func TestParseTexture_Corrupted(t *testing.T) {
	tv, err := ParseTexture("vt -1.#QNAN0 -1.#QNAN0", DefaultMarker)
	require.NoError(t, err)
	assert.True(t, tv.Corrupted)
	assert.Empty(t, tv.Components)
}

func TestParseTexture_Errors(t *testing.T) {
	_, err := ParseTexture("vt 1", DefaultMarker)
	assert.Error(t, err)

	_, err = ParseTexture("v 1 2", DefaultMarker)
	assert.Error(t, err)

	_, err = ParseTexture("vt 1 nope", DefaultMarker)
	assert.Error(t, err)
}

func TestParse_RejectsNonFinite(t *testing.T) {
	for _, text := range []string{"v nan 0 0", "v 0 inf 0", "v 0 0 -Inf"} {
		_, err := ParsePosition(text)
		var malformed *MalformedRecordError
		require.ErrorAs(t, err, &malformed, text)
		assert.Contains(t, malformed.Message, "not finite")
	}

	for _, text := range []string{"vt NaN 0", "vt 0 +Inf", "vt 0 0 inf"} {
		_, err := ParseTexture(text, DefaultMarker)
		var malformed *MalformedRecordError
		require.ErrorAs(t, err, &malformed, text)
	}
}

func TestPositionDistance(t *testing.T) {
	a, _ := ParsePosition("v 0 0 0")
	b, _ := ParsePosition("v 3 4 0")
	assert.InDelta(t, 5.0, a.Distance(b), 1e-12)
	assert.Equal(t, 0.0, a.Distance(a))
}

func TestTextureDistance(t *testing.T) {
	a := TextureVector{Components: []float64{0, 0}}
	b := TextureVector{Components: []float64{0.3, 0.4}}

	d, ok := a.Distance(b)
	require.True(t, ok)
	assert.InDelta(t, 0.5, d, 1e-12)

	_, ok = a.Distance(TextureVector{Corrupted: true})
	assert.False(t, ok)

	_, ok = a.Distance(TextureVector{Components: []float64{0, 0, 0}})
	assert.False(t, ok, "dimension mismatch is not comparable")
}

func TestTextureDistance_NaNNeverCompatible(t *testing.T) {
	a := TextureVector{Components: []float64{math.NaN(), 0}}
	b := TextureVector{Components: []float64{0, 0}}
	d, ok := a.Distance(b)
	require.True(t, ok)
	assert.False(t, d <= 1000)
}
