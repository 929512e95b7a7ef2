package layer

import (
	"math"
	"sync"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
)

// Affine maps raster cell indices to world coordinates, GDAL geotransform
// style: the origin is the outer corner of cell (0, 0) and ScaleY is
// negative for north-up rasters.
type Affine struct {
	OriginX float64 `json:"origin_x" yaml:"origin_x"`
	OriginY float64 `json:"origin_y" yaml:"origin_y"`
	ScaleX  float64 `json:"scale_x" yaml:"scale_x"`
	ScaleY  float64 `json:"scale_y" yaml:"scale_y"`
	SkewX   float64 `json:"skew_x,omitempty" yaml:"skew_x,omitempty"`
	SkewY   float64 `json:"skew_y,omitempty" yaml:"skew_y,omitempty"`
}

// Apply maps fractional (col, row) to world (x, y).
func (a Affine) Apply(col, row float64) (x, y float64) {
	x = a.OriginX + col*a.ScaleX + row*a.SkewX
	y = a.OriginY + col*a.SkewY + row*a.ScaleY
	return x, y
}

// Invert maps world (x, y) back to fractional (col, row). ok is false for
// a singular transform.
func (a Affine) Invert(x, y float64) (col, row float64, ok bool) {
	det := a.ScaleX*a.ScaleY - a.SkewX*a.SkewY
	if det == 0 {
		return 0, 0, false
	}
	dx, dy := x-a.OriginX, y-a.OriginY
	col = (dx*a.ScaleY - dy*a.SkewX) / det
	row = (dy*a.ScaleX - dx*a.SkewY) / det
	return col, row, true
}

// ApproxEqual compares transforms within tol on every coefficient.
func (a Affine) ApproxEqual(o Affine, tol float64) bool {
	return math.Abs(a.OriginX-o.OriginX) <= tol &&
		math.Abs(a.OriginY-o.OriginY) <= tol &&
		math.Abs(a.ScaleX-o.ScaleX) <= tol &&
		math.Abs(a.ScaleY-o.ScaleY) <= tol &&
		math.Abs(a.SkewX-o.SkewX) <= tol &&
		math.Abs(a.SkewY-o.SkewY) <= tol
}

// Band is one raster band: row-major samples with a nodata sentinel.
// Samples are held as float64 regardless of the source dtype so index
// arithmetic never loses precision.
type Band struct {
	Data   []float64
	NoData float64
}

// IsNoData reports whether v is this band's sentinel. NaN sentinels match
// NaN samples.
func (b *Band) IsNoData(v float64) bool {
	if math.IsNaN(b.NoData) {
		return math.IsNaN(v)
	}
	return v == b.NoData
}

// RasterLayer is an immutable grid of one or more bands sharing dimensions
// and georeferencing.
type RasterLayer struct {
	Name      string
	CRS       CRS
	Width     int
	Height    int
	Transform Affine
	Bands     []*Band

	statsOnce sync.Once
	stats     []BandStats
}

// BandStats summarizes the non-nodata value distribution of one band.
type BandStats struct {
	Min, Max float64
	Count    int
}

// NewRasterLayer validates that every band matches the grid dimensions.
func NewRasterLayer(name string, crs CRS, width, height int, tr Affine, bands []*Band) (*RasterLayer, error) {
	if width <= 0 || height <= 0 {
		return nil, eris.Errorf("layer: raster %q has invalid dimensions %dx%d", name, width, height)
	}
	if len(bands) == 0 {
		return nil, eris.Errorf("layer: raster %q has no bands", name)
	}
	for i, b := range bands {
		if len(b.Data) != width*height {
			return nil, eris.Errorf("layer: raster %q band %d has %d samples, grid is %dx%d", name, i, len(b.Data), width, height)
		}
	}
	return &RasterLayer{Name: name, CRS: crs, Width: width, Height: height, Transform: tr, Bands: bands}, nil
}

// At returns the sample of band b at (col, row).
func (r *RasterLayer) At(b, col, row int) float64 {
	return r.Bands[b].Data[row*r.Width+col]
}

// SameGrid reports whether another raster shares this raster's dimensions
// and affine transform within tol.
func (r *RasterLayer) SameGrid(o *RasterLayer, tol float64) bool {
	return r.Width == o.Width && r.Height == o.Height && r.Transform.ApproxEqual(o.Transform, tol)
}

// Stats returns per-band min/max over non-nodata samples, computed once.
func (r *RasterLayer) Stats() []BandStats {
	r.statsOnce.Do(func() {
		r.stats = make([]BandStats, len(r.Bands))
		for i, b := range r.Bands {
			s := BandStats{Min: math.Inf(1), Max: math.Inf(-1)}
			for _, v := range b.Data {
				if b.IsNoData(v) || math.IsNaN(v) {
					continue
				}
				if v < s.Min {
					s.Min = v
				}
				if v > s.Max {
					s.Max = v
				}
				s.Count++
			}
			r.stats[i] = s
		}
	})
	return r.stats
}

// Bounds returns the world-space extent of the grid.
func (r *RasterLayer) Bounds() *geom.Bounds {
	x0, y0 := r.Transform.Apply(0, 0)
	x1, y1 := r.Transform.Apply(float64(r.Width), float64(r.Height))
	b := geom.NewBounds(geom.XY)
	b.SetCoords(
		geom.Coord{math.Min(x0, x1), math.Min(y0, y1)},
		geom.Coord{math.Max(x0, x1), math.Max(y0, y1)},
	)
	return b
}

// LayerName implements Layer.
func (r *RasterLayer) LayerName() string { return r.Name }

// LayerCRS implements Layer.
func (r *RasterLayer) LayerCRS() CRS { return r.CRS }

// LayerBounds implements Layer.
func (r *RasterLayer) LayerBounds() *geom.Bounds { return r.Bounds() }
