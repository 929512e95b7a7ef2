package geometry

import (
	"math"

	geom "github.com/twpayne/go-geom"
)

// SignedArea computes the shoelace area of a ring. Positive for
// counter-clockwise winding, negative for clockwise. The closing vertex may
// be present or absent.
func SignedArea(ring []geom.Coord) float64 {
	ring = openRing(ring)
	if len(ring) < 3 {
		return 0
	}
	var sum float64
	for i := range ring {
		j := (i + 1) % len(ring)
		sum += ring[i][0]*ring[j][1] - ring[j][0]*ring[i][1]
	}
	return sum / 2
}

// Area returns the unsigned area of a polygon: outer ring magnitude minus
// the magnitude of every hole. Orientation-independent; never negative.
func Area(p *geom.Polygon) float64 {
	if p == nil || p.NumLinearRings() == 0 {
		return 0
	}
	area := math.Abs(SignedArea(p.LinearRing(0).Coords()))
	for i := 1; i < p.NumLinearRings(); i++ {
		area -= math.Abs(SignedArea(p.LinearRing(i).Coords()))
	}
	if area < 0 {
		return 0
	}
	return area
}

// AreaOf returns the unsigned area of any polygonal geometry; zero for
// points and lines.
func AreaOf(g geom.T) float64 {
	switch t := g.(type) {
	case *geom.Polygon:
		return Area(t)
	case *geom.MultiPolygon:
		var sum float64
		for i := 0; i < t.NumPolygons(); i++ {
			sum += Area(t.Polygon(i))
		}
		return sum
	default:
		return 0
	}
}

// Length returns the planar length of a line string.
func Length(ls *geom.LineString) float64 {
	if ls == nil {
		return 0
	}
	coords := ls.Coords()
	var sum float64
	for i := 1; i < len(coords); i++ {
		sum += math.Hypot(coords[i][0]-coords[i-1][0], coords[i][1]-coords[i-1][1])
	}
	return sum
}

// pointOnSegment reports whether p lies on segment ab within tol.
func pointOnSegment(p, a, b geom.Coord, tol float64) bool {
	minX, maxX := math.Min(a[0], b[0]), math.Max(a[0], b[0])
	minY, maxY := math.Min(a[1], b[1]), math.Max(a[1], b[1])
	if p[0] < minX-tol || p[0] > maxX+tol || p[1] < minY-tol || p[1] > maxY+tol {
		return false
	}
	dx, dy := b[0]-a[0], b[1]-a[1]
	segLen := math.Hypot(dx, dy)
	if segLen <= tol {
		return math.Hypot(p[0]-a[0], p[1]-a[1]) <= tol
	}
	// Perpendicular distance via the cross product.
	cross := (p[0]-a[0])*dy - (p[1]-a[1])*dx
	return math.Abs(cross)/segLen <= tol
}

// pointInRing ray-casts a point against a ring, ignoring the boundary.
func pointInRing(p geom.Coord, ring []geom.Coord) bool {
	ring = openRing(ring)
	inside := false
	n := len(ring)
	for i := 0; i < n; i++ {
		a, b := ring[i], ring[(i+1)%n]
		if (a[1] > p[1]) != (b[1] > p[1]) {
			x := a[0] + (p[1]-a[1])/(b[1]-a[1])*(b[0]-a[0])
			if p[0] < x {
				inside = !inside
			}
		}
	}
	return inside
}

// pointOnRing reports whether p lies on any edge of the ring within tol.
func pointOnRing(p geom.Coord, ring []geom.Coord, tol float64) bool {
	ring = openRing(ring)
	n := len(ring)
	for i := 0; i < n; i++ {
		if pointOnSegment(p, ring[i], ring[(i+1)%n], tol) {
			return true
		}
	}
	return false
}

// PointInPolygon reports whether a point is inside the polygon, including
// holes. Boundary policy: points on any ring, outer or hole, count as
// inside.
func PointInPolygon(p geom.Coord, poly *geom.Polygon) bool {
	if poly == nil || poly.NumLinearRings() == 0 {
		return false
	}
	outer := poly.LinearRing(0).Coords()
	tol := tolerance(coordMagnitude(outer, []geom.Coord{p}))
	if pointOnRing(p, outer, tol) {
		return true
	}
	if !pointInRing(p, outer) {
		return false
	}
	for i := 1; i < poly.NumLinearRings(); i++ {
		hole := poly.LinearRing(i).Coords()
		if pointOnRing(p, hole, tol) {
			return true
		}
		if pointInRing(p, hole) {
			return false
		}
	}
	return true
}

// segmentParams solves the intersection of segments ab and cd, returning
// line parameters t along ab and u along cd. ok is false for parallel,
// collinear, or degenerate (zero-length) configurations, which the kernel
// resolves as no-intersection.
func segmentParams(a, b, c, d geom.Coord) (t, u float64, ok bool) {
	rx, ry := b[0]-a[0], b[1]-a[1]
	sx, sy := d[0]-c[0], d[1]-c[1]
	tol := tolerance(coordMagnitude([]geom.Coord{a, b, c, d}))
	lr, ls := math.Hypot(rx, ry), math.Hypot(sx, sy)
	if lr <= tol || ls <= tol {
		return 0, 0, false
	}
	// Normalizing by segment lengths makes this a test on the sine of the
	// angle between the segments, independent of coordinate scale.
	denom := rx*sy - ry*sx
	if math.Abs(denom) <= epsilon*lr*ls {
		return 0, 0, false
	}
	qpx, qpy := c[0]-a[0], c[1]-a[1]
	t = (qpx*sy - qpy*sx) / denom
	u = (qpx*ry - qpy*rx) / denom
	return t, u, true
}

// SegmentIntersection returns the intersection point of segments ab and cd,
// or ok=false when they do not cross. Endpoint contact counts as an
// intersection; parallel, collinear, and zero-length inputs resolve to
// no-intersection.
func SegmentIntersection(a, b, c, d geom.Coord) (geom.Coord, bool) {
	t, u, ok := segmentParams(a, b, c, d)
	if !ok {
		return nil, false
	}
	// Endpoint tolerance in parameter space.
	tol := epsilon * 1e3
	if t < -tol || t > 1+tol || u < -tol || u > 1+tol {
		return nil, false
	}
	return geom.Coord{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}, true
}
