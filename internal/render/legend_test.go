package render

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geocore/internal/layer"
)

func legendRaster(t *testing.T, data []float64) *layer.RasterLayer {
	t.Helper()
	r, err := layer.NewRasterLayer("lst", layer.WGS84, len(data), 1,
		layer.Affine{OriginX: 0, OriginY: 1, ScaleX: 1, ScaleY: -1},
		[]*layer.Band{{Data: data, NoData: math.NaN()}})
	require.NoError(t, err)
	return r
}

func TestLegend_EqualInterval(t *testing.T) {
	r := legendRaster(t, []float64{0, 10, 20, 30, 40})

	classes, err := Legend(r, 0, 4, EqualInterval, layer.DefaultRamp())
	require.NoError(t, err)
	require.Len(t, classes, 4)

	assert.InDelta(t, 0.0, classes[0].From, 1e-12)
	assert.InDelta(t, 10.0, classes[0].To, 1e-12)
	assert.InDelta(t, 30.0, classes[3].From, 1e-12)
	assert.InDelta(t, 40.0, classes[3].To, 1e-12)

	for _, c := range classes {
		assert.NotZero(t, c.Color.A)
	}
}

func TestLegend_Quantile(t *testing.T) {
	// Skewed distribution: quantile breaks follow the data, not the range.
	r := legendRaster(t, []float64{1, 1, 1, 1, 100})

	classes, err := Legend(r, 0, 2, Quantile, layer.DefaultRamp())
	require.NoError(t, err)
	require.Len(t, classes, 2)

	assert.Equal(t, 1.0, classes[0].From)
	assert.Equal(t, 1.0, classes[0].To)
	assert.Equal(t, 100.0, classes[1].To)
}

func TestLegend_SkipsNoData(t *testing.T) {
	r := legendRaster(t, []float64{math.NaN(), 5, 15})

	classes, err := Legend(r, 0, 1, EqualInterval, layer.DefaultRamp())
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, 5.0, classes[0].From)
	assert.Equal(t, 15.0, classes[0].To)
}

func TestLegend_Errors(t *testing.T) {
	r := legendRaster(t, []float64{1, 2})

	_, err := Legend(r, 5, 2, EqualInterval, layer.DefaultRamp())
	assert.Error(t, err)

	_, err = Legend(r, 0, 0, EqualInterval, layer.DefaultRamp())
	assert.Error(t, err)

	empty := legendRaster(t, []float64{math.NaN()})
	_, err = Legend(empty, 0, 2, EqualInterval, layer.DefaultRamp())
	assert.Error(t, err)
}

func TestParseClassMode(t *testing.T) {
	m, err := ParseClassMode("")
	require.NoError(t, err)
	assert.Equal(t, EqualInterval, m)

	m, err = ParseClassMode("quantile")
	require.NoError(t, err)
	assert.Equal(t, Quantile, m)

	_, err = ParseClassMode("jenks")
	assert.Error(t, err)
}

func TestRenderLegend_Swatches(t *testing.T) {
	r := legendRaster(t, []float64{0, 50, 100})
	classes, err := Legend(r, 0, 2, EqualInterval, layer.DefaultRamp())
	require.NoError(t, err)

	img := RenderLegend(classes, 40, 10)
	assert.Equal(t, 40, img.Bounds().Dx())

	left := img.NRGBAAt(5, 5)
	right := img.NRGBAAt(35, 5)
	assert.Equal(t, classes[0].Color, left)
	assert.Equal(t, classes[1].Color, right)
	assert.NotEqual(t, left, right)
}

func TestRampColor(t *testing.T) {
	ramp := layer.DefaultRamp()

	assert.Equal(t, ramp[0].Color, rampColor(ramp, -1))
	assert.Equal(t, ramp[len(ramp)-1].Color, rampColor(ramp, 2))

	mid := rampColor(ramp, 0.165)
	assert.NotEqual(t, ramp[0].Color, mid)
	assert.NotEqual(t, ramp[1].Color, mid)
}
