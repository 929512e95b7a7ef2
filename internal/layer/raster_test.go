package layer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func northUp(originX, originY, cell float64) Affine {
	return Affine{OriginX: originX, OriginY: originY, ScaleX: cell, ScaleY: -cell}
}

func TestAffine_ApplyInvertRoundTrip(t *testing.T) {
	tr := Affine{OriginX: 100, OriginY: 200, ScaleX: 30, ScaleY: -30, SkewX: 0.5, SkewY: -0.25}

	x, y := tr.Apply(3.5, 7.25)
	col, row, ok := tr.Invert(x, y)
	require.True(t, ok)
	assert.InDelta(t, 3.5, col, 1e-9)
	assert.InDelta(t, 7.25, row, 1e-9)
}

func TestAffine_InvertSingular(t *testing.T) {
	_, _, ok := Affine{}.Invert(1, 1)
	assert.False(t, ok)
}

func TestNewRasterLayer_Validation(t *testing.T) {
	tr := northUp(0, 2, 1)

	_, err := NewRasterLayer("r", WGS84, 0, 2, tr, []*Band{{Data: nil}})
	assert.Error(t, err)

	_, err = NewRasterLayer("r", WGS84, 2, 2, tr, nil)
	assert.Error(t, err)

	_, err = NewRasterLayer("r", WGS84, 2, 2, tr, []*Band{{Data: make([]float64, 3)}})
	assert.Error(t, err)

	r, err := NewRasterLayer("r", WGS84, 2, 2, tr, []*Band{{Data: make([]float64, 4)}})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Width)
}

func TestBand_IsNoData(t *testing.T) {
	sentinel := &Band{NoData: -9999}
	assert.True(t, sentinel.IsNoData(-9999))
	assert.False(t, sentinel.IsNoData(0))

	nan := &Band{NoData: math.NaN()}
	assert.True(t, nan.IsNoData(math.NaN()))
	assert.False(t, nan.IsNoData(0))
}

func TestRasterLayer_Stats(t *testing.T) {
	r, err := NewRasterLayer("r", WGS84, 2, 2, northUp(0, 2, 1), []*Band{
		{Data: []float64{1, 5, -9999, 3}, NoData: -9999},
	})
	require.NoError(t, err)

	s := r.Stats()[0]
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 3, s.Count)
}

func TestRasterLayer_SameGrid(t *testing.T) {
	a, err := NewRasterLayer("a", WGS84, 2, 2, northUp(0, 2, 1), []*Band{{Data: make([]float64, 4)}})
	require.NoError(t, err)
	b, err := NewRasterLayer("b", WGS84, 2, 2, northUp(0, 2, 1), []*Band{{Data: make([]float64, 4)}})
	require.NoError(t, err)
	c, err := NewRasterLayer("c", WGS84, 2, 2, northUp(5, 2, 1), []*Band{{Data: make([]float64, 4)}})
	require.NoError(t, err)

	assert.True(t, a.SameGrid(b, 1e-9))
	assert.False(t, a.SameGrid(c, 1e-9))
}

func TestRasterLayer_Bounds(t *testing.T) {
	r, err := NewRasterLayer("r", WGS84, 4, 2, northUp(10, 20, 5), []*Band{{Data: make([]float64, 8)}})
	require.NoError(t, err)

	b := r.Bounds()
	assert.Equal(t, 10.0, b.Min(0))
	assert.Equal(t, 10.0, b.Min(1))
	assert.Equal(t, 30.0, b.Max(0))
	assert.Equal(t, 20.0, b.Max(1))
}
