package render

import (
	"image"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geocore/internal/gerr"
	"github.com/sells-group/geocore/internal/layer"
)

// Composite renders a stack snapshot into a single image: bottom entry
// first, later entries painted over earlier ones, hidden entries skipped.
// All visible layers must share one CRS; the composite refuses to mix
// reference systems rather than draw spatially wrong output.
func Composite(entries []layer.StackEntry, vp Viewport) (*image.NRGBA, error) {
	img := image.NewNRGBA(image.Rect(0, 0, vp.Width, vp.Height))

	var crs *layer.CRS
	for _, e := range entries {
		if !e.Visible {
			continue
		}
		c := e.Layer.LayerCRS()
		if crs == nil {
			crs = &c
		} else if !crs.Equal(c) {
			return nil, eris.Wrapf(gerr.ErrCrsMismatch,
				"render: layer %q is %q, expected %q", e.Layer.LayerName(), c, *crs)
		}
	}

	for _, e := range entries {
		if !e.Visible {
			continue
		}
		switch l := e.Layer.(type) {
		case *layer.RasterLayer:
			style := e.Style.Raster
			if style == nil {
				style = layer.DefaultRasterStyle()
			}
			drawRaster(img, l, vp, style)
		case *layer.VectorLayer:
			style := e.Style.Vector
			if style == nil {
				style = layer.DefaultVectorStyle()
			}
			for _, f := range l.Features() {
				drawGeometry(img, f.Geometry, vp, style)
			}
		default:
			zap.L().Warn("render: skipping unknown layer kind",
				zap.String("layer", e.Layer.LayerName()))
		}
	}
	return img, nil
}

// drawRaster resamples band 0 into the viewport (nearest neighbor) and
// maps samples through the style's color ramp, stretched over the band's
// non-nodata min/max. Nodata pixels stay transparent.
func drawRaster(img *image.NRGBA, r *layer.RasterLayer, vp Viewport, style *layer.RasterStyle) {
	stats := r.Stats()[0]
	if stats.Count == 0 {
		return
	}
	band := r.Bands[0]
	for py := 0; py < vp.Height; py++ {
		for px := 0; px < vp.Width; px++ {
			wx, wy := vp.ToWorld(float64(px)+0.5, float64(py)+0.5)
			col, row, ok := r.Transform.Invert(wx, wy)
			if !ok {
				return
			}
			ci, ri := int(math.Floor(col)), int(math.Floor(row))
			if ci < 0 || ci >= r.Width || ri < 0 || ri >= r.Height {
				continue
			}
			v := band.Data[ri*r.Width+ci]
			if band.IsNoData(v) || math.IsNaN(v) {
				continue
			}
			c := rampColor(style.Ramp, normalize(v, stats.Min, stats.Max))
			blend(img, px, py, applyOpacity(c, style.Opacity))
		}
	}
}
