package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutShapes(t *testing.T) {
	assert.Equal(t, []int{1, 1, 2, 3}, LayoutNHWC.Shape(2, 1))
	assert.Equal(t, []int{1, 3, 1, 2}, LayoutNCHW.Shape(2, 1))
}

func TestGeometryOfShape(t *testing.T) {
	g, err := GeometryOf(LayoutNHWC.Shape(640, 480), LayoutNCHW)
	require.NoError(t, err)
	assert.Equal(t, TensorGeometry{Layout: LayoutNHWC, Width: 640, Height: 480}, g)

	g, err = GeometryOf(LayoutNCHW.Shape(640, 480), LayoutNHWC)
	require.NoError(t, err)
	assert.Equal(t, TensorGeometry{Layout: LayoutNCHW, Width: 640, Height: 480}, g)
}

func TestGeometryOfAmbiguousShapeUsesHint(t *testing.T) {
	// 3x3 image: both the second and last axis have three entries
	g, err := GeometryOf([]int{1, 3, 3, 3}, LayoutNCHW)
	require.NoError(t, err)
	assert.Equal(t, LayoutNCHW, g.Layout)

	g, err = GeometryOf([]int{1, 3, 3, 3}, LayoutNHWC)
	require.NoError(t, err)
	assert.Equal(t, LayoutNHWC, g.Layout)
}

func TestGeometryOfRejectsBadShapes(t *testing.T) {
	for _, shape := range [][]int{
		{1, 2, 3},
		{2, 1, 2, 3},
		{1, 4, 5, 6},
		{1, 0, 2, 3},
	} {
		_, err := GeometryOf(shape, LayoutNHWC)
		assert.Error(t, err, "%v", shape)
	}
}

func TestParseLayout(t *testing.T) {
	l, err := ParseLayout("NCHW")
	require.NoError(t, err)
	assert.Equal(t, LayoutNCHW, l)

	l, err = ParseLayout("")
	require.NoError(t, err)
	assert.Equal(t, LayoutNHWC, l)

	_, err = ParseLayout("hwc")
	assert.Error(t, err)
}
