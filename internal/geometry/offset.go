package geometry

import (
	"math"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"

	"github.com/sells-group/geocore/internal/gerr"
)

// Offset (buffer) construction. Round joins are approximated by arcs of
// line segments, segmentsPerQuadrant per quarter turn. Negative distances
// erode polygons; erosion past collapse yields an empty geometry, which is
// a valid result.

// DefaultSegmentsPerQuadrant is used when a caller passes a non-positive
// segment count.
const DefaultSegmentsPerQuadrant = 8

func normalizeSegs(segs int) int {
	if segs <= 0 {
		return DefaultSegmentsPerQuadrant
	}
	return segs
}

// appendArc appends points along the arc around center from angle a0
// through delta radians (signed), radius r. The end point is included, the
// start point is not.
func appendArc(out []geom.Coord, center geom.Coord, r, a0, delta float64, segs int) []geom.Coord {
	steps := int(math.Ceil(math.Abs(delta) / (math.Pi / 2) * float64(segs)))
	if steps < 1 {
		steps = 1
	}
	for i := 1; i <= steps; i++ {
		a := a0 + delta*float64(i)/float64(steps)
		out = append(out, geom.Coord{center[0] + r*math.Cos(a), center[1] + r*math.Sin(a)})
	}
	return out
}

// circle builds a full ring of exactly 4*segs vertices around center.
func circle(center geom.Coord, r float64, segs int) []geom.Coord {
	n := 4 * segs
	ring := make([]geom.Coord, 0, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		ring = append(ring, geom.Coord{center[0] + r*math.Cos(a), center[1] + r*math.Sin(a)})
	}
	return ring
}

// shortestSweep normalizes an angular difference into (-pi, pi].
func shortestSweep(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// offsetRing offsets an open CCW ring by dist: positive outward, negative
// inward. Convex corners (relative to the offset direction) get round
// joins; reflex corners get the intersection of the adjacent offset edges.
// Returns nil when the ring collapses.
func offsetRing(ring []geom.Coord, dist float64, segs int) []geom.Coord {
	ring = openRing(ring)
	n := len(ring)
	if n < 3 {
		return nil
	}
	tol := tolerance(coordMagnitude(ring))

	// Outward unit normal per edge: for CCW winding the interior is on the
	// left, so outward is the right-hand perpendicular.
	normals := make([]geom.Coord, n)
	for i := 0; i < n; i++ {
		a, b := ring[i], ring[(i+1)%n]
		dx, dy := b[0]-a[0], b[1]-a[1]
		l := math.Hypot(dx, dy)
		if l <= tol {
			normals[i] = geom.Coord{0, 0}
			continue
		}
		normals[i] = geom.Coord{dy / l, -dx / l}
	}

	var out []geom.Coord
	for i := 0; i < n; i++ {
		prev := (i - 1 + n) % n
		v := ring[i]
		np, nc := normals[prev], normals[i]
		if np[0] == 0 && np[1] == 0 {
			np = nc
		}
		if nc[0] == 0 && nc[1] == 0 {
			nc = np
		}
		pIn := geom.Coord{v[0] + np[0]*dist, v[1] + np[1]*dist}
		pOut := geom.Coord{v[0] + nc[0]*dist, v[1] + nc[1]*dist}

		ea := geom.Coord{v[0] - ring[prev][0], v[1] - ring[prev][1]}
		eb := geom.Coord{ring[(i+1)%n][0] - v[0], ring[(i+1)%n][1] - v[1]}
		turn := ea[0]*eb[1] - ea[1]*eb[0]
		// A full reversal (line end cap) has zero cross product but opposed
		// directions; it always gets a semicircular arc.
		reversal := math.Abs(turn) <= tol && ea[0]*eb[0]+ea[1]*eb[1] < 0

		if turn*dist > tol || reversal {
			// Offset edges separate here: join with a round arc.
			out = append(out, pIn)
			a0 := math.Atan2(pIn[1]-v[1], pIn[0]-v[0])
			a1 := math.Atan2(pOut[1]-v[1], pOut[0]-v[0])
			out = appendArc(out, v, math.Abs(dist), a0, shortestSweep(a1-a0), segs)
		} else {
			// Offset edges overlap: miter at their intersection when one
			// exists, otherwise fall back to the midpoint join.
			a1 := geom.Coord{ring[prev][0] + np[0]*dist, ring[prev][1] + np[1]*dist}
			b2 := geom.Coord{ring[(i+1)%n][0] + nc[0]*dist, ring[(i+1)%n][1] + nc[1]*dist}
			if t, _, ok := segmentParams(a1, pIn, pOut, b2); ok {
				out = append(out, geom.Coord{a1[0] + t*(pIn[0]-a1[0]), a1[1] + t*(pIn[1]-a1[1])})
			} else {
				out = append(out, geom.Coord{(pIn[0] + pOut[0]) / 2, (pIn[1] + pOut[1]) / 2})
			}
		}
	}

	out = dedupeRing(out, tol)
	if len(out) < 3 {
		return nil
	}
	// Erosion past the medial axis flips orientation or kills the area.
	if sa := SignedArea(out); sa <= tol {
		return nil
	}
	if dist < 0 {
		// An over-eroded ring can invert completely: the traversal comes
		// back counter-clockwise with positive area, but its vertices sit
		// closer to the source boundary than the offset distance. A valid
		// inward offset keeps every vertex at least |dist| away.
		limit := math.Abs(dist) * (1 - 1e-6)
		for _, c := range out {
			if distToRing(c, ring) < limit {
				return nil
			}
		}
	}
	return out
}

// distToRing is the minimum distance from p to the edges of an open ring.
func distToRing(p geom.Coord, ring []geom.Coord) float64 {
	min := math.Inf(1)
	n := len(ring)
	for i := 0; i < n; i++ {
		if d := distToSegment(p, ring[i], ring[(i+1)%n]); d < min {
			min = d
		}
	}
	return min
}

// distToSegment is the distance from p to the closest point of segment ab.
func distToSegment(p, a, b geom.Coord) float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p[0]-a[0], p[1]-a[1])
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return math.Hypot(p[0]-(a[0]+t*dx), p[1]-(a[1]+t*dy))
}

// bufferPolygon buffers a polygon: the outer ring grows (or erodes) by
// dist, holes move the opposite way and are dropped once they collapse.
func bufferPolygon(p *geom.Polygon, dist float64, segs int) (*geom.Polygon, error) {
	if err := ValidatePolygon(p); err != nil {
		return nil, err
	}
	outer := offsetRing(ccw(p.LinearRing(0).Coords()), dist, segs)
	if outer == nil {
		return EmptyPolygon(), nil
	}
	var holes [][]geom.Coord
	for i := 1; i < p.NumLinearRings(); i++ {
		h := offsetRing(ccw(p.LinearRing(i).Coords()), -dist, segs)
		if h != nil {
			holes = append(holes, h)
		}
	}
	return NewPolygonFromRings(outer, holes...), nil
}

// bufferLine builds the sausage polygon around a polyline: both offset
// sides with round joins plus semicircular end caps.
func bufferLine(coords []geom.Coord, dist float64, segs int) *geom.Polygon {
	if dist <= 0 || len(coords) < 2 {
		return EmptyPolygon()
	}
	if len(coords) == 2 {
		// A single segment's out-and-back ring has only two distinct
		// vertices, below the ring minimum; build its capsule directly.
		return NewPolygonFromRings(segmentCapsule(coords[0], coords[1], dist, segs))
	}
	// Treat the polyline out-and-back as a degenerate ring and offset it;
	// the end caps come from the two 180-degree turns at the ends.
	ring := make([]geom.Coord, 0, 2*len(coords)-2)
	ring = append(ring, coords...)
	for i := len(coords) - 2; i > 0; i-- {
		ring = append(ring, coords[i])
	}
	out := offsetRing(ring, dist, segs)
	if out == nil {
		return EmptyPolygon()
	}
	return NewPolygonFromRings(out)
}

// segmentCapsule builds the counter-clockwise buffer ring of one segment:
// both offset sides joined by semicircular end caps. A zero-length segment
// degrades to a disc.
func segmentCapsule(a, b geom.Coord, dist float64, segs int) []geom.Coord {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l := math.Hypot(dx, dy)
	tol := tolerance(coordMagnitude([]geom.Coord{a, b}))
	if l <= tol {
		return circle(a, dist, segs)
	}
	r := geom.Coord{dy / l, -dx / l}
	ring := []geom.Coord{
		{a[0] + r[0]*dist, a[1] + r[1]*dist},
		{b[0] + r[0]*dist, b[1] + r[1]*dist},
	}
	a0 := math.Atan2(r[1], r[0])
	ring = appendArc(ring, b, dist, a0, math.Pi, segs)
	ring = append(ring, geom.Coord{a[0] - r[0]*dist, a[1] - r[1]*dist})
	ring = appendArc(ring, a, dist, a0+math.Pi, math.Pi, segs)
	return dedupeRing(ring, tol)
}

// OffsetGeometry buffers any supported geometry by dist. Distance zero
// returns a copy of the input. Negative distance is erosion: polygons may
// collapse to the empty geometry, points and lines always do.
func OffsetGeometry(g geom.T, dist float64, segmentsPerQuadrant int) (geom.T, error) {
	segs := normalizeSegs(segmentsPerQuadrant)
	if dist == 0 {
		return cloneGeometry(g)
	}
	switch t := g.(type) {
	case *geom.Point:
		if dist < 0 || IsEmpty(t) {
			return EmptyPolygon(), nil
		}
		return NewPolygonFromRings(circle(t.Coords(), dist, segs)), nil
	case *geom.MultiPoint:
		out := geom.NewMultiPolygon(geom.XY)
		if dist < 0 {
			return out, nil
		}
		for i := 0; i < t.NumPoints(); i++ {
			if err := out.Push(NewPolygonFromRings(circle(t.Point(i).Coords(), dist, segs))); err != nil {
				return nil, err
			}
		}
		return out, nil
	case *geom.LineString:
		return bufferLine(t.Coords(), dist, segs), nil
	case *geom.MultiLineString:
		out := geom.NewMultiPolygon(geom.XY)
		for i := 0; i < t.NumLineStrings(); i++ {
			p := bufferLine(t.LineString(i).Coords(), dist, segs)
			if IsEmpty(p) {
				continue
			}
			if err := out.Push(p); err != nil {
				return nil, err
			}
		}
		return out, nil
	case *geom.Polygon:
		return bufferPolygon(t, dist, segs)
	case *geom.MultiPolygon:
		out := geom.NewMultiPolygon(geom.XY)
		for i := 0; i < t.NumPolygons(); i++ {
			p, err := bufferPolygon(t.Polygon(i), dist, segs)
			if err != nil {
				return nil, err
			}
			if IsEmpty(p) {
				continue
			}
			if err := out.Push(p); err != nil {
				return nil, err
			}
		}
		return out, nil
	default:
		return nil, eris.Wrapf(gerr.ErrInvalidGeometry, "geometry: cannot buffer %T", g)
	}
}

// cloneGeometry deep-copies a geometry so callers can hand out results
// without aliasing layer-owned coordinates.
func cloneGeometry(g geom.T) (geom.T, error) {
	switch t := g.(type) {
	case *geom.Point:
		if IsEmpty(t) {
			return geom.NewPointEmpty(geom.XY), nil
		}
		return geom.NewPoint(geom.XY).MustSetCoords(t.Coords()), nil
	case *geom.MultiPoint:
		return geom.NewMultiPoint(geom.XY).MustSetCoords(t.Coords()), nil
	case *geom.LineString:
		return geom.NewLineString(geom.XY).MustSetCoords(t.Coords()), nil
	case *geom.MultiLineString:
		return geom.NewMultiLineString(geom.XY).MustSetCoords(t.Coords()), nil
	case *geom.Polygon:
		return geom.NewPolygon(geom.XY).MustSetCoords(t.Coords()), nil
	case *geom.MultiPolygon:
		return geom.NewMultiPolygon(geom.XY).MustSetCoords(t.Coords()), nil
	default:
		return nil, eris.Wrapf(gerr.ErrInvalidGeometry, "geometry: cannot clone %T", g)
	}
}
