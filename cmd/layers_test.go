package main

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"

	"github.com/sells-group/geocore/internal/layer"
)

func TestLayerCRS(t *testing.T) {
	assert.Equal(t, layer.WGS84, layerCRS(""))
	assert.Equal(t, layer.CRS{Code: "EPSG:3857"}, layerCRS("EPSG:3857"))
}

func TestSplitSpec(t *testing.T) {
	path, style := splitSpec("parcels.shp")
	assert.Equal(t, "parcels.shp", path)
	assert.Empty(t, style)

	path, style = splitSpec("parcels.shp=blue.yaml")
	assert.Equal(t, "parcels.shp", path)
	assert.Equal(t, "blue.yaml", style)
}

func TestParseFieldSpecs(t *testing.T) {
	fields, err := parseFieldSpecs([]string{"name", "pop:int", "area:float", "zone:text"})
	require.NoError(t, err)
	require.Len(t, fields, 4)
	assert.Equal(t, layer.Field{Name: "name", Type: layer.FieldString}, fields[0])
	assert.Equal(t, layer.Field{Name: "pop", Type: layer.FieldInt}, fields[1])
	assert.Equal(t, layer.Field{Name: "area", Type: layer.FieldFloat}, fields[2])
	assert.Equal(t, layer.Field{Name: "zone", Type: layer.FieldString}, fields[3])

	_, err = parseFieldSpecs([]string{"pop:bignum"})
	assert.Error(t, err)
}

func TestCombinedBounds(t *testing.T) {
	v1 := testBoundsLayer(t, 0, 0, 10)
	v2 := testBoundsLayer(t, 20, 20, 5)

	entries := []layer.StackEntry{
		{ID: uuid.New(), Layer: v1, Visible: true},
		{ID: uuid.New(), Layer: v2, Visible: true},
	}

	b := combinedBounds(entries)
	require.NotNil(t, b)
	assert.Equal(t, 0.0, b.Min(0))
	assert.Equal(t, 25.0, b.Max(0))
	assert.Equal(t, 25.0, b.Max(1))
}

func TestCombinedBounds_Empty(t *testing.T) {
	assert.Nil(t, combinedBounds(nil))

	empty, err := layer.NewVectorLayer("empty", layer.WGS84, layer.Schema{}, nil)
	require.NoError(t, err)
	assert.Nil(t, combinedBounds([]layer.StackEntry{{ID: uuid.New(), Layer: empty, Visible: true}}))
}

func testBoundsLayer(t *testing.T, minX, minY, size float64) *layer.VectorLayer {
	t.Helper()
	p := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{minX, minY}, {minX + size, minY}, {minX + size, minY + size}, {minX, minY + size}, {minX, minY},
	}})
	l, err := layer.NewVectorLayer("l", layer.WGS84, layer.Schema{}, []layer.Feature{{Geometry: p}})
	require.NoError(t, err)
	return l
}

func TestCombinedBounds_InfUnused(t *testing.T) {
	// Guard against Inf leaking out of the fold for valid layers.
	b := combinedBounds([]layer.StackEntry{
		{ID: uuid.New(), Layer: testBoundsLayer(t, -5, -5, 1), Visible: true},
	})
	require.NotNil(t, b)
	assert.False(t, math.IsInf(b.Min(0), -1))
}
