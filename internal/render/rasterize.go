package render

import (
	"image"
	"image/color"
	"math"
	"sort"

	geom "github.com/twpayne/go-geom"

	"github.com/sells-group/geocore/internal/geometry"
	"github.com/sells-group/geocore/internal/layer"
)

// blend paints src over the destination pixel, straight-alpha source-over.
func blend(img *image.NRGBA, x, y int, src color.NRGBA) {
	if src.A == 0 || x < 0 || y < 0 || x >= img.Rect.Dx() || y >= img.Rect.Dy() {
		return
	}
	dst := img.NRGBAAt(x, y)
	sa := float64(src.A) / 255
	da := float64(dst.A) / 255
	outA := sa + da*(1-sa)
	if outA == 0 {
		img.SetNRGBA(x, y, color.NRGBA{})
		return
	}
	mix := func(s, d uint8) uint8 {
		v := (float64(s)*sa + float64(d)*da*(1-sa)) / outA
		return uint8(math.Round(v))
	}
	img.SetNRGBA(x, y, color.NRGBA{
		R: mix(src.R, dst.R),
		G: mix(src.G, dst.G),
		B: mix(src.B, dst.B),
		A: uint8(math.Round(outA * 255)),
	})
}

// applyOpacity scales a color's alpha by a [0, 1] opacity.
func applyOpacity(c color.NRGBA, opacity float64) color.NRGBA {
	if opacity >= 1 {
		return c
	}
	if opacity < 0 {
		opacity = 0
	}
	c.A = uint8(math.Round(float64(c.A) * opacity))
	return c
}

// projectRing maps ring coordinates into pixel space.
func projectRing(ring []geom.Coord, vp Viewport) [][2]float64 {
	out := make([][2]float64, len(ring))
	for i, c := range ring {
		px, py := vp.ToPixel(c[0], c[1])
		out[i] = [2]float64{px, py}
	}
	return out
}

// fillPolygon scanline-fills a polygon (outer ring plus holes) using the
// even-odd rule, which handles holes without distinguishing ring roles.
func fillPolygon(img *image.NRGBA, poly *geom.Polygon, vp Viewport, fill color.NRGBA) {
	if fill.A == 0 {
		return
	}
	rings := make([][][2]float64, 0, poly.NumLinearRings())
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i := 0; i < poly.NumLinearRings(); i++ {
		pr := projectRing(poly.LinearRing(i).Coords(), vp)
		for _, p := range pr {
			if p[1] < minY {
				minY = p[1]
			}
			if p[1] > maxY {
				maxY = p[1]
			}
		}
		rings = append(rings, pr)
	}
	y0 := int(math.Max(0, math.Floor(minY)))
	y1 := int(math.Min(float64(vp.Height-1), math.Ceil(maxY)))

	for y := y0; y <= y1; y++ {
		cy := float64(y) + 0.5
		var xs []float64
		for _, ring := range rings {
			n := len(ring)
			for i := 0; i < n; i++ {
				a, b := ring[i], ring[(i+1)%n]
				if (a[1] > cy) == (b[1] > cy) {
					continue
				}
				x := a[0] + (cy-a[1])/(b[1]-a[1])*(b[0]-a[0])
				xs = append(xs, x)
			}
		}
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			x0 := int(math.Max(0, math.Ceil(xs[i]-0.5)))
			x1 := int(math.Min(float64(vp.Width-1), math.Floor(xs[i+1]-0.5)))
			for x := x0; x <= x1; x++ {
				blend(img, x, y, fill)
			}
		}
	}
}

// strokeSegment draws a line segment with the given pixel width.
func strokeSegment(img *image.NRGBA, a, b [2]float64, width float64, c color.NRGBA) {
	if c.A == 0 {
		return
	}
	dx, dy := b[0]-a[0], b[1]-a[1]
	length := math.Hypot(dx, dy)
	if width < 1 {
		width = 1
	}
	steps := int(math.Ceil(length)) + 1
	r := width / 2
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		cx, cy := a[0]+t*dx, a[1]+t*dy
		for py := int(math.Floor(cy - r)); py <= int(math.Ceil(cy+r)); py++ {
			for px := int(math.Floor(cx - r)); px <= int(math.Ceil(cx+r)); px++ {
				if math.Hypot(float64(px)+0.5-cx, float64(py)+0.5-cy) <= r+0.25 {
					blend(img, px, py, c)
				}
			}
		}
	}
}

// strokeRing outlines a closed ring.
func strokeRing(img *image.NRGBA, ring [][2]float64, width float64, c color.NRGBA) {
	n := len(ring)
	for i := 0; i < n; i++ {
		strokeSegment(img, ring[i], ring[(i+1)%n], width, c)
	}
}

// drawGeometry rasterizes one feature geometry with the layer's vector
// style.
func drawGeometry(img *image.NRGBA, g geom.T, vp Viewport, style *layer.VectorStyle) {
	if geometry.IsEmpty(g) {
		return
	}
	switch t := g.(type) {
	case *geom.Point:
		px, py := vp.ToPixel(t.Coords()[0], t.Coords()[1])
		r := style.StrokeWidth + 1.5
		strokeSegment(img, [2]float64{px, py}, [2]float64{px, py}, 2*r, style.Stroke)
	case *geom.MultiPoint:
		for i := 0; i < t.NumPoints(); i++ {
			drawGeometry(img, t.Point(i), vp, style)
		}
	case *geom.LineString:
		pr := projectRing(t.Coords(), vp)
		for i := 0; i+1 < len(pr); i++ {
			strokeSegment(img, pr[i], pr[i+1], style.StrokeWidth, style.Stroke)
		}
	case *geom.MultiLineString:
		for i := 0; i < t.NumLineStrings(); i++ {
			drawGeometry(img, t.LineString(i), vp, style)
		}
	case *geom.Polygon:
		fillPolygon(img, t, vp, style.Fill)
		for i := 0; i < t.NumLinearRings(); i++ {
			strokeRing(img, projectRing(t.LinearRing(i).Coords(), vp), style.StrokeWidth, style.Stroke)
		}
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			drawGeometry(img, t.Polygon(i), vp, style)
		}
	}
}
