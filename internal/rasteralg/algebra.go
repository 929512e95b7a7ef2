// Package rasteralg implements per-pixel band algebra: the spectral indices
// (NDVI, NDBI, LST, UHI) and the resampling pre-step. All computations
// require identical grids — dimensions and affine transform — and fail with
// ErrGridMismatch otherwise; nothing here resamples implicitly.
//
// Nodata discipline: a pixel is nodata in the output when any input band is
// nodata there or the operation is undefined there (zero denominator).
// Outputs use NaN as the nodata sentinel and float64 samples regardless of
// input dtype.
package rasteralg

import (
	"context"
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geocore/internal/gerr"
	"github.com/sells-group/geocore/internal/layer"
)

// gridTolerance bounds the allowed drift between affine transforms that
// are considered "the same grid". Transforms are authored values, not
// accumulated arithmetic, so this is tight.
const gridTolerance = 1e-9

// BandRef addresses one band of a raster layer.
type BandRef struct {
	Raster *layer.RasterLayer
	Band   int
}

func (r BandRef) valid() error {
	if r.Raster == nil {
		return eris.New("rasteralg: nil raster")
	}
	if r.Band < 0 || r.Band >= len(r.Raster.Bands) {
		return eris.Errorf("rasteralg: raster %q has no band %d", r.Raster.Name, r.Band)
	}
	return nil
}

// requireSameGrid fails fast with ErrGridMismatch unless all rasters share
// one grid.
func requireSameGrid(refs ...BandRef) error {
	for _, r := range refs {
		if err := r.valid(); err != nil {
			return err
		}
	}
	base := refs[0].Raster
	for _, r := range refs[1:] {
		if !base.SameGrid(r.Raster, gridTolerance) {
			return eris.Wrapf(gerr.ErrGridMismatch,
				"rasteralg: raster %q (%dx%d, %+v) vs raster %q (%dx%d, %+v)",
				base.Name, base.Width, base.Height, base.Transform,
				r.Raster.Name, r.Raster.Width, r.Raster.Height, r.Raster.Transform)
		}
	}
	return nil
}

// binaryOp computes one output sample from two inputs. ok=false marks the
// pixel nodata.
type binaryOp func(a, b float64) (v float64, ok bool)

// combine runs a binary per-pixel operation over two aligned bands.
// Cancellation is observed at row granularity; on cancel the partial output
// is discarded.
func combine(ctx context.Context, name string, a, b BandRef, op binaryOp) (*layer.RasterLayer, error) {
	if err := requireSameGrid(a, b); err != nil {
		return nil, err
	}
	ra := a.Raster
	ba, bb := ra.Bands[a.Band], b.Raster.Bands[b.Band]
	out := make([]float64, ra.Width*ra.Height)

	for row := 0; row < ra.Height; row++ {
		select {
		case <-ctx.Done():
			return nil, eris.Wrap(gerr.ErrCancelled, ctx.Err().Error())
		default:
		}
		base := row * ra.Width
		for col := 0; col < ra.Width; col++ {
			va, vb := ba.Data[base+col], bb.Data[base+col]
			if ba.IsNoData(va) || bb.IsNoData(vb) || math.IsNaN(va) || math.IsNaN(vb) {
				out[base+col] = math.NaN()
				continue
			}
			v, ok := op(va, vb)
			if !ok {
				out[base+col] = math.NaN()
				continue
			}
			out[base+col] = v
		}
	}

	return layer.NewRasterLayer(name, ra.CRS, ra.Width, ra.Height, ra.Transform,
		[]*layer.Band{{Data: out, NoData: math.NaN()}})
}

// mapBand runs a unary per-pixel operation over one band.
func mapBand(ctx context.Context, name string, src BandRef, op func(float64) (float64, bool)) (*layer.RasterLayer, error) {
	if err := src.valid(); err != nil {
		return nil, err
	}
	r := src.Raster
	band := r.Bands[src.Band]
	out := make([]float64, r.Width*r.Height)

	for row := 0; row < r.Height; row++ {
		select {
		case <-ctx.Done():
			return nil, eris.Wrap(gerr.ErrCancelled, ctx.Err().Error())
		default:
		}
		base := row * r.Width
		for col := 0; col < r.Width; col++ {
			v := band.Data[base+col]
			if band.IsNoData(v) || math.IsNaN(v) {
				out[base+col] = math.NaN()
				continue
			}
			res, ok := op(v)
			if !ok {
				out[base+col] = math.NaN()
				continue
			}
			out[base+col] = res
		}
	}

	return layer.NewRasterLayer(name, r.CRS, r.Width, r.Height, r.Transform,
		[]*layer.Band{{Data: out, NoData: math.NaN()}})
}

// BandMean returns the mean of a band's non-nodata samples. ok is false
// when every sample is nodata.
func BandMean(ref BandRef) (mean float64, ok bool) {
	if err := ref.valid(); err != nil {
		return 0, false
	}
	band := ref.Raster.Bands[ref.Band]
	var sum float64
	var n int
	for _, v := range band.Data {
		if band.IsNoData(v) || math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
