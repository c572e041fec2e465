package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqVolume builds a volume whose samples are 0, 1, 2, ... in row-major
// order, so expected plane values can be computed by hand.
func seqVolume(t *testing.T, shape ...int) *Volume {
	t.Helper()
	n := 1
	for _, s := range shape {
		n *= s
	}
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(i)
	}
	v, err := NewVolume(shape, data)
	require.NoError(t, err)
	return v
}

func TestResolveChannelAxis(t *testing.T) {
	tests := []struct {
		name   string
		shape  []int
		maxIdx int
		axis   int
	}{
		{"channel first", []int{4, 1, 512, 512}, 2, 0},
		{"channel second", []int{1, 4, 512, 512}, 2, 1},
		{"earliest axis wins on ties", []int{5, 5, 512, 512}, 2, 0},
		{"spatial axis can win", []int{512, 512, 4}, 2, 0},
		{"exact fit", []int{3, 128, 128}, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			axis, err := ResolveChannelAxis(tt.shape, tt.maxIdx)
			require.NoError(t, err)
			assert.Equal(t, tt.axis, axis)
		})
	}
}

func TestResolveChannelAxisNoAxis(t *testing.T) {
	_, err := ResolveChannelAxis([]int{2, 2}, 2)
	assert.ErrorIs(t, err, ErrNoChannelAxis)

	_, err = ResolveChannelAxis([]int{3, 3, 3}, 7)
	assert.ErrorIs(t, err, ErrNoChannelAxis)
}

func TestExtractPlaneChannelFirst(t *testing.T) {
	vol := seqVolume(t, 6, 1, 4, 5)

	plane, err := ExtractPlane(vol, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, plane.H)
	assert.Equal(t, 5, plane.W)

	// Channel 3 occupies offsets [60, 80).
	for i := 0; i < 20; i++ {
		assert.Equal(t, float32(60+i), plane.Pix[i])
	}
}

func TestExtractPlaneChannelSecond(t *testing.T) {
	vol := seqVolume(t, 1, 3, 4, 5)

	plane, err := ExtractPlane(vol, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, plane.H)
	assert.Equal(t, 5, plane.W)
	assert.Equal(t, float32(40), plane.Pix[0])
	assert.Equal(t, float32(59), plane.Pix[19])
}

func TestExtractPlaneTruncatesDepth(t *testing.T) {
	// Axis 1 is a Z-stack of size 2; only the first Z-slice survives.
	vol := seqVolume(t, 3, 2, 4, 5)

	plane, err := ExtractPlane(vol, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, plane.H)
	assert.Equal(t, 5, plane.W)

	// Channel 1 starts at offset 40; Z=0 covers [40, 60).
	assert.Equal(t, float32(40), plane.Pix[0])
	assert.Equal(t, float32(59), plane.Pix[19])
}

func TestExtractPlaneFiveDims(t *testing.T) {
	vol := seqVolume(t, 2, 4, 1, 3, 5)

	plane, err := ExtractPlane(vol, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, plane.H)
	assert.Equal(t, 5, plane.W)

	// Timepoint 0, channel 2: offset 2*15 = 30.
	assert.Equal(t, float32(30), plane.Pix[0])
	assert.Equal(t, float32(44), plane.Pix[14])
}

func TestExtractPlane2DDegenerate(t *testing.T) {
	vol := seqVolume(t, 4, 5)

	// Channel resolution is skipped for 2-D images; index is irrelevant.
	a, err := ExtractPlane(vol, 0, 0)
	require.NoError(t, err)
	b, err := ExtractPlane(vol, 0, 3)
	require.NoError(t, err)

	assert.Equal(t, a.Pix, b.Pix)
	assert.Equal(t, 4, a.H)
	assert.Equal(t, 5, a.W)
	assert.Equal(t, vol.Data, a.Pix)
}

func TestExtractPlaneOutOfBounds(t *testing.T) {
	vol := seqVolume(t, 3, 4, 5)

	_, err := ExtractPlane(vol, 0, 3)
	assert.ErrorIs(t, err, ErrChannelOutOfBounds)

	_, err = ExtractPlane(vol, 0, -1)
	assert.ErrorIs(t, err, ErrChannelOutOfBounds)
}

func TestBuildComposite(t *testing.T) {
	a := &Plane{H: 2, W: 3, Pix: []float32{1, 2, 3, 4, 5, 6}}
	b := &Plane{H: 2, W: 3, Pix: []float32{7, 8, 9, 10, 11, 12}}

	c, err := BuildComposite(a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, c.H)
	assert.Equal(t, 3, c.W)
	require.Len(t, c.Pix, 18)

	for i := 0; i < 6; i++ {
		assert.Equal(t, float32(0), c.Pix[i*3], "band 0 must stay zero")
		assert.Equal(t, a.Pix[i], c.Pix[i*3+1])
		assert.Equal(t, b.Pix[i], c.Pix[i*3+2])
	}
}

func TestBuildCompositeShapeMismatch(t *testing.T) {
	a := &Plane{H: 100, W: 100, Pix: make([]float32, 100*100)}
	b := &Plane{H: 100, W: 99, Pix: make([]float32, 100*99)}

	c, err := BuildComposite(a, b)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	assert.Nil(t, c)
}

func TestSqueeze(t *testing.T) {
	vol := seqVolume(t, 1, 3, 1, 4, 5)
	sq := vol.Squeeze()
	assert.Equal(t, []int{3, 4, 5}, sq.Shape)
	assert.Equal(t, vol.Data, sq.Data)
}
