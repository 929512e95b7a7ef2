// Package render maps a layer stack and viewport to a composited image,
// and derives legends from raster value distributions. Rendering is a pure
// function of (stack snapshot, viewport, styles): it never mutates the
// stack, so identical inputs always reproduce the same image.
package render

import (
	geom "github.com/twpayne/go-geom"
)

// Viewport frames a world-coordinate window onto an output image. MinX and
// MaxY anchor the top-left corner; Resolution is world units per pixel.
type Viewport struct {
	MinX       float64 `json:"min_x"`
	MaxY       float64 `json:"max_y"`
	Resolution float64 `json:"resolution"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// ToPixel projects world coordinates into fractional pixel coordinates.
func (v Viewport) ToPixel(x, y float64) (px, py float64) {
	return (x - v.MinX) / v.Resolution, (v.MaxY - y) / v.Resolution
}

// ToWorld maps fractional pixel coordinates back to world coordinates.
func (v Viewport) ToWorld(px, py float64) (x, y float64) {
	return v.MinX + px*v.Resolution, v.MaxY - py*v.Resolution
}

// Bounds returns the world extent covered by the viewport.
func (v Viewport) Bounds() *geom.Bounds {
	b := geom.NewBounds(geom.XY)
	b.SetCoords(
		geom.Coord{v.MinX, v.MaxY - float64(v.Height)*v.Resolution},
		geom.Coord{v.MinX + float64(v.Width)*v.Resolution, v.MaxY},
	)
	return b
}

// Zoom scales the resolution by factor around the given pixel anchor, so
// the world point under the anchor stays put. factor < 1 zooms in.
func (v Viewport) Zoom(factor float64, anchorPx, anchorPy float64) Viewport {
	if factor <= 0 {
		return v
	}
	wx, wy := v.ToWorld(anchorPx, anchorPy)
	out := v
	out.Resolution = v.Resolution * factor
	out.MinX = wx - anchorPx*out.Resolution
	out.MaxY = wy + anchorPy*out.Resolution
	return out
}

// Pan shifts the viewport by a pixel delta.
func (v Viewport) Pan(dxPx, dyPx float64) Viewport {
	out := v
	out.MinX += dxPx * v.Resolution
	out.MaxY += dyPx * v.Resolution
	return out
}

// FitBounds frames the given world extent in an output of the given pixel
// dimensions, preserving aspect ratio and adding a fractional margin.
func FitBounds(b *geom.Bounds, width, height int, margin float64) Viewport {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	spanX := b.Max(0) - b.Min(0)
	spanY := b.Max(1) - b.Min(1)
	if spanX <= 0 {
		spanX = 1
	}
	if spanY <= 0 {
		spanY = 1
	}
	spanX *= 1 + 2*margin
	spanY *= 1 + 2*margin
	res := spanX / float64(width)
	if r := spanY / float64(height); r > res {
		res = r
	}
	cx := (b.Min(0) + b.Max(0)) / 2
	cy := (b.Min(1) + b.Max(1)) / 2
	return Viewport{
		MinX:       cx - float64(width)/2*res,
		MaxY:       cy + float64(height)/2*res,
		Resolution: res,
		Width:      width,
		Height:     height,
	}
}
