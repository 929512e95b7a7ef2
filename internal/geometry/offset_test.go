package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"
)

func TestOffsetGeometry_PointBuffer(t *testing.T) {
	pt := geom.NewPointFlat(geom.XY, []float64{2, 3})

	got, err := OffsetGeometry(pt, 5, 8)
	require.NoError(t, err)

	poly, ok := got.(*geom.Polygon)
	require.True(t, ok)

	// 8 segments per quadrant approximates the disc with 32 vertices.
	ring := openRing(poly.LinearRing(0).Coords())
	assert.Len(t, ring, 32)

	want := math.Pi * 25
	assert.InDelta(t, want, Area(poly), want*0.02)

	for _, c := range ring {
		r := math.Hypot(c[0]-2, c[1]-3)
		assert.InDelta(t, 5.0, r, 1e-9)
	}
}

func TestOffsetGeometry_ZeroDistance(t *testing.T) {
	p := square(0, 0, 10)

	got, err := OffsetGeometry(p, 0, 8)
	require.NoError(t, err)
	assert.InDelta(t, Area(p), AreaOf(got), 1e-9)
}

func TestOffsetGeometry_DilateGrowsArea(t *testing.T) {
	p := square(0, 0, 10)

	got, err := OffsetGeometry(p, 2, 8)
	require.NoError(t, err)

	// Between the inscribed (no corners) and circumscribed (square corners)
	// dilations.
	area := AreaOf(got)
	assert.Greater(t, area, 100.0+4*10*2)
	assert.Less(t, area, 100.0+4*10*2+4*2*2+1e-9)
}

func TestOffsetGeometry_ErodeShrinksArea(t *testing.T) {
	p := square(0, 0, 10)

	got, err := OffsetGeometry(p, -2, 8)
	require.NoError(t, err)
	assert.InDelta(t, 36.0, AreaOf(got), 1e-6)
}

func TestOffsetGeometry_DilateThenErode(t *testing.T) {
	p := square(0, 0, 10)

	grown, err := OffsetGeometry(p, 3, 8)
	require.NoError(t, err)
	back, err := OffsetGeometry(grown, -3, 8)
	require.NoError(t, err)

	// Round joins do not regrow corners: the round trip never exceeds the
	// original area.
	assert.LessOrEqual(t, AreaOf(back), Area(p)+1e-6)
	assert.InDelta(t, Area(p), AreaOf(back), Area(p)*0.05)
}

func TestOffsetGeometry_ErosionCollapses(t *testing.T) {
	p := square(0, 0, 4)

	got, err := OffsetGeometry(p, -3, 8)
	require.NoError(t, err)
	assert.True(t, IsEmpty(got))
}

func TestOffsetGeometry_NegativeOnPointIsEmpty(t *testing.T) {
	pt := geom.NewPointFlat(geom.XY, []float64{0, 0})

	got, err := OffsetGeometry(pt, -1, 8)
	require.NoError(t, err)
	assert.True(t, IsEmpty(got))
}

func TestOffsetGeometry_LineBuffer(t *testing.T) {
	line := geom.NewLineStringFlat(geom.XY, []float64{0, 0, 10, 0})

	got, err := OffsetGeometry(line, 2, 8)
	require.NoError(t, err)

	// Rectangle plus two half-disc end caps.
	want := 10*4 + math.Pi*4
	assert.InDelta(t, want, AreaOf(got), want*0.02)
}

func TestOffsetGeometry_HolePreserved(t *testing.T) {
	p := NewPolygonFromRings(
		[]geom.Coord{{0, 0}, {20, 0}, {20, 20}, {0, 20}, {0, 0}},
		[]geom.Coord{{8, 8}, {12, 8}, {12, 12}, {8, 12}, {8, 8}},
	)

	got, err := OffsetGeometry(p, 1, 8)
	require.NoError(t, err)

	poly, ok := got.(*geom.Polygon)
	require.True(t, ok)
	// Outer grows, hole shrinks but survives.
	require.Equal(t, 2, poly.NumLinearRings())
	assert.Greater(t, AreaOf(got), Area(p))
}
