package gisio

import (
	"path/filepath"
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"

	"github.com/sells-group/geocore/internal/geometry"
	"github.com/sells-group/geocore/internal/layer"
)

func TestShapefile_PolygonRoundTrip(t *testing.T) {
	p := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0},
	}})
	schema := layer.Schema{
		{Name: "name", Type: layer.FieldString},
		{Name: "pop", Type: layer.FieldInt},
		{Name: "area", Type: layer.FieldFloat},
	}
	src, err := layer.NewVectorLayer("zones", layer.WGS84, schema, []layer.Feature{
		{Geometry: p, Attrs: []any{"downtown", int64(1200), 100.0}},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "zones.shp")
	require.NoError(t, SaveShapefile(src, path))

	got, err := LoadShapefile(path, layer.WGS84)
	require.NoError(t, err)

	assert.Equal(t, "zones", got.Name)
	require.Equal(t, 1, got.NumFeatures())

	require.Len(t, got.Schema, 3)
	assert.Equal(t, "name", got.Schema[0].Name)
	assert.Equal(t, layer.FieldString, got.Schema[0].Type)
	assert.Equal(t, layer.FieldInt, got.Schema[1].Type)
	assert.Equal(t, layer.FieldFloat, got.Schema[2].Type)

	f := got.Feature(0)
	assert.Equal(t, "downtown", f.Attrs[0])
	assert.Equal(t, int64(1200), f.Attrs[1])
	assert.InDelta(t, 100.0, f.Attrs[2].(float64), 1e-9)
	assert.InDelta(t, 100.0, geometry.AreaOf(f.Geometry), 1e-9)
}

func TestShapefile_PolygonWithHoleRoundTrip(t *testing.T) {
	p := geometry.NewPolygonFromRings(
		[]geom.Coord{{0, 0}, {20, 0}, {20, 20}, {0, 20}, {0, 0}},
		[]geom.Coord{{5, 5}, {10, 5}, {10, 10}, {5, 10}, {5, 5}},
	)
	src, err := layer.NewVectorLayer("donut", layer.WGS84, layer.Schema{}, []layer.Feature{
		{Geometry: p},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "donut.shp")
	require.NoError(t, SaveShapefile(src, path))

	got, err := LoadShapefile(path, layer.WGS84)
	require.NoError(t, err)
	require.Equal(t, 1, got.NumFeatures())

	poly, ok := got.Feature(0).Geometry.(*geom.Polygon)
	require.True(t, ok)
	assert.Equal(t, 2, poly.NumLinearRings())
	assert.InDelta(t, 375.0, geometry.Area(poly), 1e-9)
}

func TestShapefile_PointRoundTrip(t *testing.T) {
	src, err := layer.NewVectorLayer("sensors", layer.WGS84,
		layer.Schema{{Name: "id", Type: layer.FieldInt}},
		[]layer.Feature{
			{Geometry: geom.NewPointFlat(geom.XY, []float64{3, 4}), Attrs: []any{int64(1)}},
			{Geometry: geom.NewPointFlat(geom.XY, []float64{-1, 2}), Attrs: []any{int64(2)}},
		})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "sensors.shp")
	require.NoError(t, SaveShapefile(src, path))

	got, err := LoadShapefile(path, layer.WGS84)
	require.NoError(t, err)
	require.Equal(t, 2, got.NumFeatures())

	pt, ok := got.Feature(0).Geometry.(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, []float64{3, 4}, pt.FlatCoords())
}

func TestSaveShapefile_EmptyLayerRejected(t *testing.T) {
	l, err := layer.NewVectorLayer("empty", layer.WGS84, layer.Schema{}, nil)
	require.NoError(t, err)

	err = SaveShapefile(l, filepath.Join(t.TempDir(), "empty.shp"))
	assert.Error(t, err)
}

func TestDbfFieldType(t *testing.T) {
	assert.Equal(t, layer.FieldInt, dbfFieldType(shp.Field{Fieldtype: 'N', Precision: 0}))
	assert.Equal(t, layer.FieldFloat, dbfFieldType(shp.Field{Fieldtype: 'N', Precision: 4}))
	assert.Equal(t, layer.FieldFloat, dbfFieldType(shp.Field{Fieldtype: 'F'}))
	assert.Equal(t, layer.FieldString, dbfFieldType(shp.Field{Fieldtype: 'C'}))
}

func TestParseAttr(t *testing.T) {
	assert.Nil(t, parseAttr("", layer.FieldString))
	assert.Equal(t, int64(42), parseAttr("42", layer.FieldInt))
	assert.Nil(t, parseAttr("x", layer.FieldInt))
	assert.Equal(t, 2.5, parseAttr("2.5", layer.FieldFloat))
	assert.Equal(t, "hi", parseAttr("hi", layer.FieldString))
}

func TestDbfValue(t *testing.T) {
	// The DBF writer only takes int, float64 and string.
	assert.Equal(t, 42, dbfValue(int64(42)))
	assert.Equal(t, 2.5, dbfValue(2.5))
	assert.Equal(t, "hi", dbfValue("hi"))
}

func TestRingSignedArea(t *testing.T) {
	ccw := []float64{0, 0, 10, 0, 10, 10, 0, 10}
	cw := []float64{0, 0, 0, 10, 10, 10, 10, 0}

	assert.InDelta(t, 100.0, ringSignedArea(ccw), 1e-12)
	assert.InDelta(t, -100.0, ringSignedArea(cw), 1e-12)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "zones", baseName("/data/export/zones.shp"))
	assert.Equal(t, "grid", baseName("grid.asc"))
	assert.Equal(t, "plain", baseName("plain"))
}
