package geoprocess

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"

	"github.com/sells-group/geocore/internal/gerr"
	"github.com/sells-group/geocore/internal/geometry"
	"github.com/sells-group/geocore/internal/layer"
)

func TestClip_PartialOverlap(t *testing.T) {
	in := newLayer(t, "zones", layer.Schema{{Name: "id", Type: layer.FieldInt}}, []layer.Feature{
		{Geometry: poly(0, 0, 10), Attrs: []any{int64(1)}},
	})
	boundary := newLayer(t, "aoi", layer.Schema{}, []layer.Feature{
		{Geometry: poly(5, 5, 10)},
	})

	out, err := Clip(context.Background(), in, boundary, Options{})
	require.NoError(t, err)

	assert.Equal(t, "zones_clip", out.Name)
	require.Equal(t, 1, out.NumFeatures())
	f := out.Feature(0)
	assert.Equal(t, []any{int64(1)}, f.Attrs)
	assert.InDelta(t, 25.0, geometry.AreaOf(f.Geometry), 1e-9)
}

func TestClip_ContainedPassesThrough(t *testing.T) {
	in := newLayer(t, "zones", layer.Schema{}, []layer.Feature{
		{Geometry: poly(2, 2, 3)},
	})
	boundary := newLayer(t, "aoi", layer.Schema{}, []layer.Feature{
		{Geometry: poly(0, 0, 10)},
	})

	out, err := Clip(context.Background(), in, boundary, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, out.NumFeatures())
	assert.InDelta(t, 9.0, geometry.AreaOf(out.Feature(0).Geometry), 1e-9)
}

func TestClip_DisjointDropped(t *testing.T) {
	in := newLayer(t, "zones", layer.Schema{}, []layer.Feature{
		{Geometry: poly(0, 0, 2)},
		{Geometry: poly(100, 100, 2)},
	})
	boundary := newLayer(t, "aoi", layer.Schema{}, []layer.Feature{
		{Geometry: poly(0, 0, 10)},
	})

	out, err := Clip(context.Background(), in, boundary, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.NumFeatures())
}

func TestClip_CRSMismatch(t *testing.T) {
	in := newLayer(t, "zones", layer.Schema{}, []layer.Feature{{Geometry: poly(0, 0, 1)}})
	boundary, err := layer.NewVectorLayer("aoi", layer.CRS{Code: "EPSG:3857"}, layer.Schema{}, []layer.Feature{
		{Geometry: poly(0, 0, 1)},
	})
	require.NoError(t, err)

	_, err = Clip(context.Background(), in, boundary, Options{})
	assert.ErrorIs(t, err, gerr.ErrCrsMismatch)
}

func TestClip_NonPolygonalBoundary(t *testing.T) {
	in := newLayer(t, "zones", layer.Schema{}, []layer.Feature{{Geometry: poly(0, 0, 10)}})
	boundary := newLayer(t, "aoi", layer.Schema{}, []layer.Feature{
		{Geometry: geom.NewLineStringFlat(geom.XY, []float64{0, 0, 10, 10})},
	})

	_, err := Clip(context.Background(), in, boundary, Options{})
	assert.ErrorIs(t, err, gerr.ErrInvalidGeometry)
}

func TestClip_LineInputAgainstPolygonBoundary(t *testing.T) {
	in := newLayer(t, "roads", layer.Schema{}, []layer.Feature{
		{Geometry: geom.NewLineStringFlat(geom.XY, []float64{-5, 5, 15, 5})},
	})
	boundary := newLayer(t, "aoi", layer.Schema{}, []layer.Feature{
		{Geometry: poly(0, 0, 10)},
	})

	out, err := Clip(context.Background(), in, boundary, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, out.NumFeatures())

	mls, ok := out.Feature(0).Geometry.(*geom.MultiLineString)
	require.True(t, ok)
	require.Equal(t, 1, mls.NumLineStrings())
	assert.InDelta(t, 10.0, geometry.Length(mls.LineString(0)), 1e-9)
}
