package render

import (
	"image/color"
	"math"
	"sort"

	"github.com/sells-group/geocore/internal/layer"
)

// rampColor interpolates the gradient at a normalized position t in [0, 1].
// Stops must be ordered by offset; positions outside the stop range clamp
// to the end colors.
func rampColor(stops []layer.RampStop, t float64) color.NRGBA {
	if len(stops) == 0 {
		return color.NRGBA{}
	}
	if math.IsNaN(t) {
		return color.NRGBA{}
	}
	if t <= stops[0].Offset {
		return stops[0].Color
	}
	if t >= stops[len(stops)-1].Offset {
		return stops[len(stops)-1].Color
	}
	i := sort.Search(len(stops), func(i int) bool { return stops[i].Offset >= t })
	a, b := stops[i-1], stops[i]
	span := b.Offset - a.Offset
	if span <= 0 {
		return b.Color
	}
	f := (t - a.Offset) / span
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + f*(float64(y)-float64(x))))
	}
	return color.NRGBA{
		R: lerp(a.Color.R, b.Color.R),
		G: lerp(a.Color.G, b.Color.G),
		B: lerp(a.Color.B, b.Color.B),
		A: lerp(a.Color.A, b.Color.A),
	}
}

// normalize maps a sample into [0, 1] over the given range; degenerate
// ranges collapse to the midpoint.
func normalize(v, min, max float64) float64 {
	if max <= min {
		return 0.5
	}
	t := (v - min) / (max - min)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
