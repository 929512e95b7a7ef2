package geometry

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"

	"github.com/sells-group/geocore/internal/gerr"
)

// Polygon clipping after Greiner–Hormann: both rings are cut at their
// mutual intersection points, intersections are classified as entries or
// exits, and result rings are traced by switching between the two rings at
// each intersection. Handles concave rings and multiple result pieces.
// Degenerate contact (a vertex exactly on the other ring's edge) is resolved
// by the containment fallback rather than by perturbation, which is within
// the simple-feature validity contract.

type ghNode struct {
	c          geom.Coord
	next, prev *ghNode
	neighbor   *ghNode
	intersect  bool
	entry      bool
	visited    bool
	alpha      float64
}

// buildRing turns ring coordinates into a circular doubly-linked list.
func buildRing(ring []geom.Coord) *ghNode {
	var head *ghNode
	var tail *ghNode
	for _, c := range ring {
		n := &ghNode{c: geom.Coord{c[0], c[1]}}
		if head == nil {
			head = n
			tail = n
			n.next = n
			n.prev = n
			continue
		}
		n.prev = tail
		n.next = head
		tail.next = n
		head.prev = n
		tail = n
	}
	return head
}

// insertIntersection places an intersection node between segment start and
// the segment's end, ordered by alpha among intersections already inserted
// on that segment.
func insertIntersection(segStart *ghNode, node *ghNode) {
	at := segStart
	for at.next.intersect && at.next.alpha < node.alpha {
		at = at.next
	}
	node.next = at.next
	node.prev = at
	at.next.prev = node
	at.next = node
}

func ringFromList(head *ghNode) []geom.Coord {
	var out []geom.Coord
	n := head
	for {
		out = append(out, n.c)
		n = n.next
		if n == head {
			break
		}
	}
	return out
}

func samePoint(a, b geom.Coord, tol float64) bool {
	return math.Abs(a[0]-b[0]) <= tol && math.Abs(a[1]-b[1]) <= tol
}

// ccw returns the ring with counter-clockwise winding.
func ccw(ring []geom.Coord) []geom.Coord {
	if SignedArea(ring) >= 0 {
		return ring
	}
	out := make([]geom.Coord, len(ring))
	for i, c := range ring {
		out[len(ring)-1-i] = c
	}
	return out
}

// segment pairs collected before list surgery so that insertion does not
// disturb edge enumeration.
type ringEdge struct {
	start *ghNode
	a, b  geom.Coord
}

func edgesOf(head *ghNode) []ringEdge {
	var edges []ringEdge
	n := head
	for {
		edges = append(edges, ringEdge{start: n, a: n.c, b: n.next.c})
		n = n.next
		if n == head {
			break
		}
	}
	return edges
}

// clipRings computes subject ∩ clip for two simple rings. Returns zero or
// more result rings (open, CCW).
func clipRings(subject, clip []geom.Coord) [][]geom.Coord {
	subject = ccw(openRing(subject))
	clip = ccw(openRing(clip))
	if len(subject) < 3 || len(clip) < 3 {
		return nil
	}
	tol := tolerance(coordMagnitude(subject, clip))

	subjHead := buildRing(subject)
	clipHead := buildRing(clip)

	// Phase 1: find and insert intersection points into both lists.
	var found int
	for _, se := range edgesOf(subjHead) {
		for _, ce := range edgesOf(clipHead) {
			t, u, ok := segmentParams(se.a, se.b, ce.a, ce.b)
			if !ok {
				continue
			}
			// Strictly interior crossings only. A crossing at a vertex is a
			// degenerate contact handled by the containment fallback.
			const pTol = 1e-12
			if t <= pTol || t >= 1-pTol || u <= pTol || u >= 1-pTol {
				continue
			}
			pt := geom.Coord{se.a[0] + t*(se.b[0]-se.a[0]), se.a[1] + t*(se.b[1]-se.a[1])}
			sn := &ghNode{c: pt, intersect: true, alpha: t}
			cn := &ghNode{c: pt, intersect: true, alpha: u}
			sn.neighbor = cn
			cn.neighbor = sn
			insertIntersection(se.start, sn)
			insertIntersection(ce.start, cn)
			found++
		}
	}

	if found == 0 {
		return containmentFallback(subject, clip)
	}

	// Phase 2: classify each intersection as entry or exit by walking the
	// ring and toggling from the containment state of the ring's start.
	markEntries(subjHead, clip)
	markEntries(clipHead, subject)

	// Phase 3: trace result rings, switching lists at every intersection.
	var rings [][]geom.Coord
	maxSteps := 4 * (len(subject) + len(clip) + 2*found)
	for {
		start := firstUnvisited(subjHead)
		if start == nil {
			break
		}
		ring := []geom.Coord{start.c}
		cur := start
		cur.visited = true
		cur.neighbor.visited = true
		steps := 0
		for {
			if cur.entry {
				for {
					cur = cur.next
					if cur.intersect {
						break
					}
					ring = append(ring, cur.c)
				}
			} else {
				for {
					cur = cur.prev
					if cur.intersect {
						break
					}
					ring = append(ring, cur.c)
				}
			}
			cur.visited = true
			cur.neighbor.visited = true
			cur = cur.neighbor
			if samePoint(cur.c, start.c, tol) {
				break
			}
			ring = append(ring, cur.c)
			steps++
			if steps > maxSteps {
				// Numerical stalemate; abandon this ring rather than loop.
				ring = nil
				break
			}
		}
		ring = dedupeRing(ring, tol)
		if len(ring) >= 3 && math.Abs(SignedArea(ring)) > tol {
			rings = append(rings, ccw(ring))
		}
	}
	return rings
}

// containmentFallback resolves the no-crossings case: one ring inside the
// other, or disjoint rings.
func containmentFallback(subject, clip []geom.Coord) [][]geom.Coord {
	if ringInRing(subject, clip) {
		return [][]geom.Coord{subject}
	}
	if ringInRing(clip, subject) {
		return [][]geom.Coord{clip}
	}
	return nil
}

// ringInRing reports whether every vertex of inner lies inside (or on)
// outer.
func ringInRing(inner, outer []geom.Coord) bool {
	tol := tolerance(coordMagnitude(inner, outer))
	for _, c := range inner {
		if !pointInRing(c, outer) && !pointOnRing(c, outer, tol) {
			return false
		}
	}
	return true
}

func markEntries(head *ghNode, other []geom.Coord) {
	inside := pointInRing(head.c, other)
	entry := !inside
	n := head
	for {
		if n.intersect {
			n.entry = entry
			entry = !entry
		}
		n = n.next
		if n == head {
			break
		}
	}
}

func firstUnvisited(head *ghNode) *ghNode {
	n := head
	for {
		if n.intersect && !n.visited {
			return n
		}
		n = n.next
		if n == head {
			return nil
		}
	}
}

func dedupeRing(ring []geom.Coord, tol float64) []geom.Coord {
	if len(ring) == 0 {
		return ring
	}
	out := ring[:1]
	for _, c := range ring[1:] {
		if !samePoint(c, out[len(out)-1], tol) {
			out = append(out, c)
		}
	}
	if len(out) > 1 && samePoint(out[0], out[len(out)-1], tol) {
		out = out[:len(out)-1]
	}
	return out
}

// PolygonIntersection computes p ∩ q, returning zero or more polygons as a
// MultiPolygon. Holes in either input are subtracted from the result.
// An empty MultiPolygon is a valid outcome, not an error.
func PolygonIntersection(p, q *geom.Polygon) (*geom.MultiPolygon, error) {
	if err := ValidatePolygon(p); err != nil {
		return nil, err
	}
	if err := ValidatePolygon(q); err != nil {
		return nil, err
	}
	out := geom.NewMultiPolygon(geom.XY)
	if !BoundsIntersect(p.Bounds(), q.Bounds()) {
		return out, nil
	}
	pieces := clipRings(p.LinearRing(0).Coords(), q.LinearRing(0).Coords())
	tol := tolerance(coordMagnitude(p.LinearRing(0).Coords(), q.LinearRing(0).Coords()))

	var holes [][]geom.Coord
	for i := 1; i < p.NumLinearRings(); i++ {
		holes = append(holes, p.LinearRing(i).Coords())
	}
	for i := 1; i < q.NumLinearRings(); i++ {
		holes = append(holes, q.LinearRing(i).Coords())
	}

	for _, piece := range pieces {
		pieceArea := math.Abs(SignedArea(piece))
		var pieceHoles [][]geom.Coord
		swallowed := false
		for _, hole := range holes {
			for _, h := range clipRings(hole, piece) {
				if math.Abs(SignedArea(h)) >= pieceArea-tol {
					swallowed = true
					break
				}
				pieceHoles = append(pieceHoles, h)
			}
			if swallowed {
				break
			}
		}
		if swallowed {
			continue
		}
		if err := out.Push(NewPolygonFromRings(piece, pieceHoles...)); err != nil {
			// Construction of a traced ring cannot fail structurally; guard anyway.
			continue
		}
	}
	return out, nil
}

// clipLineToRing keeps the parts of a line string that fall inside the
// polygon. Returns zero or more line strings.
func clipLineToPolygon(coords []geom.Coord, poly *geom.Polygon) [][]geom.Coord {
	var pieces [][]geom.Coord
	var current []geom.Coord
	flush := func() {
		if len(current) >= 2 {
			pieces = append(pieces, current)
		}
		current = nil
	}
	for i := 1; i < len(coords); i++ {
		a, b := coords[i-1], coords[i]
		cuts := []float64{0, 1}
		for r := 0; r < poly.NumLinearRings(); r++ {
			ring := openRing(poly.LinearRing(r).Coords())
			for j := range ring {
				c, d := ring[j], ring[(j+1)%len(ring)]
				t, u, ok := segmentParams(a, b, c, d)
				if ok && t > 0 && t < 1 && u >= 0 && u <= 1 {
					cuts = append(cuts, t)
				}
			}
		}
		sort.Float64s(cuts)
		for k := 1; k < len(cuts); k++ {
			t0, t1 := cuts[k-1], cuts[k]
			if t1-t0 < 1e-12 {
				continue
			}
			mid := geom.Coord{a[0] + (t0+t1)/2*(b[0]-a[0]), a[1] + (t0+t1)/2*(b[1]-a[1])}
			p0 := geom.Coord{a[0] + t0*(b[0]-a[0]), a[1] + t0*(b[1]-a[1])}
			p1 := geom.Coord{a[0] + t1*(b[0]-a[0]), a[1] + t1*(b[1]-a[1])}
			if PointInPolygon(mid, poly) {
				if len(current) == 0 {
					current = append(current, p0)
				}
				current = append(current, p1)
			} else {
				flush()
			}
		}
	}
	flush()
	return pieces
}

// IntersectGeometry clips any supported geometry against a polygon. Points
// survive when inside, lines are cut to their inside parts, polygons go
// through PolygonIntersection. Empty results are valid values.
func IntersectGeometry(g geom.T, boundary *geom.Polygon) (geom.T, error) {
	if err := ValidatePolygon(boundary); err != nil {
		return nil, err
	}
	switch t := g.(type) {
	case *geom.Point:
		if PointInPolygon(t.Coords(), boundary) {
			return geom.NewPoint(geom.XY).MustSetCoords(t.Coords()), nil
		}
		return geom.NewPointEmpty(geom.XY), nil
	case *geom.MultiPoint:
		out := geom.NewMultiPoint(geom.XY)
		for i := 0; i < t.NumPoints(); i++ {
			if PointInPolygon(t.Point(i).Coords(), boundary) {
				if err := out.Push(geom.NewPoint(geom.XY).MustSetCoords(t.Point(i).Coords())); err != nil {
					return nil, err
				}
			}
		}
		return out, nil
	case *geom.LineString:
		out := geom.NewMultiLineString(geom.XY)
		for _, piece := range clipLineToPolygon(t.Coords(), boundary) {
			if err := out.Push(geom.NewLineString(geom.XY).MustSetCoords(piece)); err != nil {
				return nil, err
			}
		}
		return out, nil
	case *geom.MultiLineString:
		out := geom.NewMultiLineString(geom.XY)
		for i := 0; i < t.NumLineStrings(); i++ {
			for _, piece := range clipLineToPolygon(t.LineString(i).Coords(), boundary) {
				if err := out.Push(geom.NewLineString(geom.XY).MustSetCoords(piece)); err != nil {
					return nil, err
				}
			}
		}
		return out, nil
	case *geom.Polygon:
		return PolygonIntersection(t, boundary)
	case *geom.MultiPolygon:
		out := geom.NewMultiPolygon(geom.XY)
		for i := 0; i < t.NumPolygons(); i++ {
			mp, err := PolygonIntersection(t.Polygon(i), boundary)
			if err != nil {
				return nil, err
			}
			for j := 0; j < mp.NumPolygons(); j++ {
				if err := out.Push(mp.Polygon(j)); err != nil {
					return nil, err
				}
			}
		}
		return out, nil
	default:
		return nil, eris.Wrapf(gerr.ErrInvalidGeometry, "geometry: unsupported type %T", g)
	}
}
