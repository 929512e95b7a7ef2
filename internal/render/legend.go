package render

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geocore/internal/layer"
)

// ClassMode selects how legend break values are derived from the value
// distribution.
type ClassMode int

const (
	EqualInterval ClassMode = iota
	Quantile
)

// ParseClassMode maps a user-facing name to a ClassMode.
func ParseClassMode(s string) (ClassMode, error) {
	switch s {
	case "equal", "equal-interval", "":
		return EqualInterval, nil
	case "quantile":
		return Quantile, nil
	default:
		return 0, eris.Errorf("render: unknown class mode %q", s)
	}
}

// LegendClass is one legend bin: the half-open value range [From, To) and
// its color. The last class includes its upper bound.
type LegendClass struct {
	From  float64     `json:"from"`
	To    float64     `json:"to"`
	Color color.NRGBA `json:"-"`
}

// Legend derives class breaks from a band's non-nodata distribution and
// colors each class from the gradient at the class midpoint.
func Legend(r *layer.RasterLayer, band, classes int, mode ClassMode, ramp []layer.RampStop) ([]LegendClass, error) {
	if band < 0 || band >= len(r.Bands) {
		return nil, eris.Errorf("render: raster %q has no band %d", r.Name, band)
	}
	if classes < 1 {
		return nil, eris.Errorf("render: legend needs at least one class, got %d", classes)
	}
	b := r.Bands[band]
	values := make([]float64, 0, len(b.Data))
	for _, v := range b.Data {
		if b.IsNoData(v) || math.IsNaN(v) {
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, eris.Errorf("render: raster %q band %d has no valid samples", r.Name, band)
	}
	sort.Float64s(values)
	min, max := values[0], values[len(values)-1]

	breaks := make([]float64, classes+1)
	switch mode {
	case Quantile:
		for i := 0; i <= classes; i++ {
			pos := float64(i) / float64(classes) * float64(len(values)-1)
			breaks[i] = values[int(math.Round(pos))]
		}
	default:
		for i := 0; i <= classes; i++ {
			breaks[i] = min + (max-min)*float64(i)/float64(classes)
		}
	}

	out := make([]LegendClass, classes)
	for i := 0; i < classes; i++ {
		mid := (breaks[i] + breaks[i+1]) / 2
		out[i] = LegendClass{
			From:  breaks[i],
			To:    breaks[i+1],
			Color: rampColor(ramp, normalize(mid, min, max)),
		}
	}
	return out, nil
}

// RenderLegend paints legend classes as a horizontal swatch strip, the
// table-of-contents presentation of a raster gradient.
func RenderLegend(classes []LegendClass, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	if len(classes) == 0 || width <= 0 || height <= 0 {
		return img
	}
	per := float64(width) / float64(len(classes))
	for x := 0; x < width; x++ {
		ci := int(float64(x) / per)
		if ci >= len(classes) {
			ci = len(classes) - 1
		}
		for y := 0; y < height; y++ {
			img.SetNRGBA(x, y, classes[ci].Color)
		}
	}
	return img
}
