package geoprocess

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geocore/internal/geometry"
	"github.com/sells-group/geocore/internal/layer"
)

func TestIntersect_OverlappingSquares(t *testing.T) {
	a := newLayer(t, "zoning", layer.Schema{{Name: "zone", Type: layer.FieldString}}, []layer.Feature{
		{Geometry: poly(0, 0, 10), Attrs: []any{"res"}},
	})
	b := newLayer(t, "flood", layer.Schema{{Name: "risk", Type: layer.FieldInt}}, []layer.Feature{
		{Geometry: poly(5, 5, 10), Attrs: []any{int64(3)}},
	})

	out, err := Intersect(context.Background(), a, b, Options{})
	require.NoError(t, err)

	assert.Equal(t, "zoning_flood_intersect", out.Name)
	require.Equal(t, 1, out.NumFeatures())
	f := out.Feature(0)
	assert.Equal(t, []any{"res", int64(3)}, f.Attrs)
	assert.InDelta(t, 25.0, geometry.AreaOf(f.Geometry), 1e-9)
}

func TestIntersect_MergedSchemaSuffixesCollisions(t *testing.T) {
	a := newLayer(t, "a", layer.Schema{{Name: "name", Type: layer.FieldString}}, []layer.Feature{
		{Geometry: poly(0, 0, 4), Attrs: []any{"left"}},
	})
	b := newLayer(t, "b", layer.Schema{{Name: "name", Type: layer.FieldString}}, []layer.Feature{
		{Geometry: poly(2, 2, 4), Attrs: []any{"right"}},
	})

	out, err := Intersect(context.Background(), a, b, Options{})
	require.NoError(t, err)

	require.Len(t, out.Schema, 2)
	assert.Equal(t, "name", out.Schema[0].Name)
	assert.Equal(t, "name_2", out.Schema[1].Name)
	require.Equal(t, 1, out.NumFeatures())
	assert.Equal(t, []any{"left", "right"}, out.Feature(0).Attrs)
}

func TestIntersect_CommutativeArea(t *testing.T) {
	a := newLayer(t, "a", layer.Schema{}, []layer.Feature{
		{Geometry: poly(0, 0, 10)},
		{Geometry: poly(20, 0, 10)},
	})
	b := newLayer(t, "b", layer.Schema{}, []layer.Feature{
		{Geometry: poly(5, 5, 10)},
		{Geometry: poly(25, 5, 10)},
	})

	ab, err := Intersect(context.Background(), a, b, Options{})
	require.NoError(t, err)
	ba, err := Intersect(context.Background(), b, a, Options{})
	require.NoError(t, err)

	assert.InDelta(t, totalArea(ab), totalArea(ba), 1e-9)
	assert.InDelta(t, 50.0, totalArea(ab), 1e-9)
}

func TestIntersect_DisjointProducesNothing(t *testing.T) {
	a := newLayer(t, "a", layer.Schema{}, []layer.Feature{{Geometry: poly(0, 0, 1)}})
	b := newLayer(t, "b", layer.Schema{}, []layer.Feature{{Geometry: poly(100, 100, 1)}})

	out, err := Intersect(context.Background(), a, b, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, out.NumFeatures())
}

func TestIntersect_SkipsEmptyGeometries(t *testing.T) {
	// Empty geometries in either layer are carried rows, not errors: they
	// pair with nothing and the real overlap still comes through.
	a := newLayer(t, "a", layer.Schema{}, []layer.Feature{
		{Geometry: poly(0, 0, 10)},
		{Geometry: geometry.EmptyPolygon()},
	})
	b := newLayer(t, "b", layer.Schema{}, []layer.Feature{
		{Geometry: geometry.EmptyPolygon()},
		{Geometry: poly(5, 5, 10)},
	})

	out, err := Intersect(context.Background(), a, b, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, out.NumFeatures())
	assert.InDelta(t, 25.0, geometry.AreaOf(out.Feature(0).Geometry), 1e-9)
}

func TestIntersect_IndexPrunesPairs(t *testing.T) {
	// One a-feature overlapping exactly one of many b-features: the output
	// must contain a single pair, not the cross product.
	var bf []layer.Feature
	for i := 0; i < 20; i++ {
		bf = append(bf, layer.Feature{Geometry: poly(float64(i*10), 100, 5)})
	}
	bf = append(bf, layer.Feature{Geometry: poly(2, 2, 5)})

	a := newLayer(t, "a", layer.Schema{}, []layer.Feature{{Geometry: poly(0, 0, 4)}})
	b := newLayer(t, "b", layer.Schema{}, bf)

	out, err := Intersect(context.Background(), a, b, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.NumFeatures())
}

func totalArea(l *layer.VectorLayer) float64 {
	var sum float64
	for i := 0; i < l.NumFeatures(); i++ {
		sum += geometry.AreaOf(l.Feature(i).Geometry)
	}
	return sum
}
