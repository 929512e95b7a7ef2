package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"
)

// shiftReprojector fakes a projection by translating x. Points only; raster
// reprojection is out of its scope.
type shiftReprojector struct {
	dx float64
}

func (s shiftReprojector) ReprojectGeometry(g geom.T, from, to CRS) (geom.T, error) {
	p, ok := g.(*geom.Point)
	if !ok {
		return nil, assert.AnError
	}
	c := p.Coords()
	return geom.NewPointFlat(geom.XY, []float64{c[0] + s.dx, c[1]}), nil
}

func (s shiftReprojector) ReprojectRaster(r *RasterLayer, to CRS) (*RasterLayer, error) {
	return nil, assert.AnError
}

func TestReprojectVector(t *testing.T) {
	l, err := NewVectorLayer("pts", CRS{Code: "EPSG:3857"}, Schema{}, []Feature{
		{Geometry: geom.NewPointFlat(geom.XY, []float64{1, 2})},
	})
	require.NoError(t, err)

	out, err := ReprojectVector(shiftReprojector{dx: 10}, l, WGS84)
	require.NoError(t, err)
	assert.Equal(t, WGS84, out.CRS)
	assert.Equal(t, []float64{11, 2}, out.Feature(0).Geometry.FlatCoords())
}

func TestReprojectVector_SameCRSIsNoOp(t *testing.T) {
	l, err := NewVectorLayer("pts", WGS84, Schema{}, nil)
	require.NoError(t, err)

	out, err := ReprojectVector(shiftReprojector{dx: 10}, l, WGS84)
	require.NoError(t, err)
	assert.Same(t, l, out)
}

func TestReprojectVector_PropagatesError(t *testing.T) {
	l, err := NewVectorLayer("polys", CRS{Code: "EPSG:3857"}, Schema{}, []Feature{
		{Geometry: testPolygon(0, 0, 1)},
	})
	require.NoError(t, err)

	_, err = ReprojectVector(shiftReprojector{}, l, WGS84)
	assert.Error(t, err)
}
