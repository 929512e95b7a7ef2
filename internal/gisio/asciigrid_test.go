package gisio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geocore/internal/layer"
)

func writeGrid(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grid.asc")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadASCIIGrid(t *testing.T) {
	path := writeGrid(t, `ncols 3
nrows 2
xllcorner 100
yllcorner 200
cellsize 10
NODATA_value -9999
1 2 3
4 -9999 6
`)

	r, err := LoadASCIIGrid(path, layer.WGS84)
	require.NoError(t, err)

	assert.Equal(t, "grid", r.Name)
	assert.Equal(t, 3, r.Width)
	assert.Equal(t, 2, r.Height)
	assert.Equal(t, layer.Affine{OriginX: 100, OriginY: 220, ScaleX: 10, ScaleY: -10}, r.Transform)
	assert.Equal(t, []float64{1, 2, 3, 4, -9999, 6}, r.Bands[0].Data)
	assert.True(t, r.Bands[0].IsNoData(-9999))
}

func TestLoadASCIIGrid_CenterOrigin(t *testing.T) {
	path := writeGrid(t, `ncols 1
nrows 1
xllcenter 5
yllcenter 5
cellsize 10
7
`)

	r, err := LoadASCIIGrid(path, layer.WGS84)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Transform.OriginX)
	assert.Equal(t, 10.0, r.Transform.OriginY)
}

func TestLoadASCIIGrid_NoNodataHeaderDefaultsToNaN(t *testing.T) {
	path := writeGrid(t, `ncols 1
nrows 1
xllcorner 0
yllcorner 0
cellsize 1
3
`)

	r, err := LoadASCIIGrid(path, layer.WGS84)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(r.Bands[0].NoData))
}

func TestLoadASCIIGrid_Errors(t *testing.T) {
	_, err := LoadASCIIGrid(filepath.Join(t.TempDir(), "missing.asc"), layer.WGS84)
	assert.Error(t, err)

	short := writeGrid(t, `ncols 2
nrows 2
xllcorner 0
yllcorner 0
cellsize 1
1 2 3
`)
	_, err = LoadASCIIGrid(short, layer.WGS84)
	assert.Error(t, err)

	noHeader := writeGrid(t, "1 2 3\n")
	_, err = LoadASCIIGrid(noHeader, layer.WGS84)
	assert.Error(t, err)
}

func TestSaveASCIIGrid_RoundTrip(t *testing.T) {
	src, err := layer.NewRasterLayer("out", layer.WGS84, 2, 2,
		layer.Affine{OriginX: 10, OriginY: 30, ScaleX: 5, ScaleY: -5},
		[]*layer.Band{{Data: []float64{1.5, math.NaN(), 3, 4}, NoData: math.NaN()}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.asc")
	require.NoError(t, SaveASCIIGrid(src, 0, path))

	got, err := LoadASCIIGrid(path, layer.WGS84)
	require.NoError(t, err)

	assert.Equal(t, src.Width, got.Width)
	assert.Equal(t, src.Height, got.Height)
	assert.Equal(t, src.Transform, got.Transform)

	// NaN nodata is written as the -9999 sentinel.
	assert.Equal(t, -9999.0, got.Bands[0].NoData)
	assert.Equal(t, []float64{1.5, -9999, 3, 4}, got.Bands[0].Data)
}

func TestSaveASCIIGrid_RejectsSkewedGrid(t *testing.T) {
	r, err := layer.NewRasterLayer("skewed", layer.WGS84, 1, 1,
		layer.Affine{OriginX: 0, OriginY: 1, ScaleX: 1, ScaleY: -1, SkewX: 0.1},
		[]*layer.Band{{Data: []float64{1}}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "skewed.asc")
	assert.Error(t, SaveASCIIGrid(r, 0, path))
}

func TestSaveASCIIGrid_BadBand(t *testing.T) {
	r, err := layer.NewRasterLayer("r", layer.WGS84, 1, 1,
		layer.Affine{OriginX: 0, OriginY: 1, ScaleX: 1, ScaleY: -1},
		[]*layer.Band{{Data: []float64{1}}})
	require.NoError(t, err)

	assert.Error(t, SaveASCIIGrid(r, 3, filepath.Join(t.TempDir(), "x.asc")))
}
