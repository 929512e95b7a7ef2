// Package geometry is the computational kernel under the geoprocessing
// engine: predicates, segment intersection, polygon clipping, and offset
// (buffer) construction over go-geom types. Everything operates on
// double-precision planar coordinates; robustness comes from a single
// configurable tolerance scaled to the magnitude of the geometry involved,
// not from exact arithmetic.
package geometry

import (
	"math"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"

	"github.com/sells-group/geocore/internal/gerr"
)

// DefaultEpsilon is the base relative tolerance for all predicates. It is
// scaled by the coordinate magnitude of the inputs, so geometries in meters
// and geometries in degrees get comparable behavior.
const DefaultEpsilon = 1e-9

var epsilon = DefaultEpsilon

// SetEpsilon overrides the base tolerance. Called once at startup from
// configuration; not safe to call concurrently with kernel operations.
func SetEpsilon(e float64) {
	if e > 0 {
		epsilon = e
	}
}

// Epsilon returns the configured base tolerance.
func Epsilon() float64 { return epsilon }

// tolerance returns the absolute tolerance for coordinates of the given
// magnitude.
func tolerance(magnitude float64) float64 {
	if magnitude < 1 {
		magnitude = 1
	}
	return epsilon * magnitude
}

// coordMagnitude is the largest absolute ordinate over a set of coordinates.
func coordMagnitude(rings ...[]geom.Coord) float64 {
	var m float64
	for _, ring := range rings {
		for _, c := range ring {
			if a := math.Abs(c[0]); a > m {
				m = a
			}
			if a := math.Abs(c[1]); a > m {
				m = a
			}
		}
	}
	return m
}

// ValidatePolygon checks the simple-feature invariants the engine relies on:
// every ring is closed (first vertex equals last) and has at least three
// distinct vertices. Violations return ErrInvalidGeometry.
func ValidatePolygon(p *geom.Polygon) error {
	if p == nil || p.NumLinearRings() == 0 {
		return eris.Wrap(gerr.ErrInvalidGeometry, "geometry: polygon has no rings")
	}
	for i := 0; i < p.NumLinearRings(); i++ {
		ring := p.LinearRing(i).Coords()
		if len(ring) < 4 {
			return eris.Wrapf(gerr.ErrInvalidGeometry, "geometry: ring %d has %d vertices, need at least 4 (closed triangle)", i, len(ring))
		}
		first, last := ring[0], ring[len(ring)-1]
		tol := tolerance(coordMagnitude(ring))
		if math.Abs(first[0]-last[0]) > tol || math.Abs(first[1]-last[1]) > tol {
			return eris.Wrapf(gerr.ErrInvalidGeometry, "geometry: ring %d is not closed", i)
		}
	}
	return nil
}

// openRing returns the ring coordinates with the closing vertex dropped.
func openRing(ring []geom.Coord) []geom.Coord {
	if len(ring) > 1 {
		first, last := ring[0], ring[len(ring)-1]
		tol := tolerance(coordMagnitude(ring))
		if math.Abs(first[0]-last[0]) <= tol && math.Abs(first[1]-last[1]) <= tol {
			return ring[:len(ring)-1]
		}
	}
	return ring
}

// closeRing appends the first vertex so the ring satisfies the closed-ring
// invariant expected by go-geom consumers.
func closeRing(ring []geom.Coord) []geom.Coord {
	if len(ring) == 0 {
		return ring
	}
	first, last := ring[0], ring[len(ring)-1]
	if first[0] == last[0] && first[1] == last[1] {
		return ring
	}
	out := make([]geom.Coord, len(ring)+1)
	copy(out, ring)
	out[len(ring)] = geom.Coord{first[0], first[1]}
	return out
}

// NewPolygonFromRings builds a 2-D polygon from an outer ring and optional
// holes, closing rings as needed.
func NewPolygonFromRings(outer []geom.Coord, holes ...[]geom.Coord) *geom.Polygon {
	p := geom.NewPolygon(geom.XY)
	p.Push(geom.NewLinearRing(geom.XY).MustSetCoords(closeRing(outer)))
	for _, h := range holes {
		p.Push(geom.NewLinearRing(geom.XY).MustSetCoords(closeRing(h)))
	}
	return p
}

// EmptyPolygon is the canonical empty geometry produced by operations that
// erode or clip a feature to nothing. It is a valid result, not an error.
func EmptyPolygon() *geom.Polygon { return geom.NewPolygon(geom.XY) }

// IsEmpty reports whether a geometry carries no coordinates.
func IsEmpty(g geom.T) bool {
	if g == nil {
		return true
	}
	switch t := g.(type) {
	case *geom.Point:
		return len(t.FlatCoords()) == 0
	case *geom.MultiPoint:
		return t.NumPoints() == 0
	case *geom.LineString:
		return t.NumCoords() == 0
	case *geom.MultiLineString:
		return t.NumLineStrings() == 0
	case *geom.Polygon:
		return t.NumLinearRings() == 0
	case *geom.MultiPolygon:
		return t.NumPolygons() == 0
	case *geom.GeometryCollection:
		return t.NumGeoms() == 0
	default:
		return len(g.FlatCoords()) == 0
	}
}

// BoundsIntersect reports whether two bounding boxes overlap, expanded by
// the scaled tolerance so touching boxes count.
func BoundsIntersect(a, b *geom.Bounds) bool {
	tol := tolerance(math.Max(
		math.Max(math.Abs(a.Min(0)), math.Abs(a.Max(0))),
		math.Max(math.Abs(b.Min(0)), math.Abs(b.Max(0))),
	))
	return a.Min(0) <= b.Max(0)+tol && b.Min(0) <= a.Max(0)+tol &&
		a.Min(1) <= b.Max(1)+tol && b.Min(1) <= a.Max(1)+tol
}
