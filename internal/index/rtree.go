// Package index provides a static bounding-box index over feature
// collections. Layers are immutable after construction, so the index is
// bulk-loaded once (Sort-Tile-Recursive packing) and never updated; a
// changed layer gets a fresh index.
//
// The index is a pruning structure only: Query returns a superset of the
// exact answer and callers must re-verify candidates with exact geometric
// predicates.
package index

import (
	"math"
	"sort"

	geom "github.com/twpayne/go-geom"
)

// Box is an axis-aligned bounding box.
type Box struct {
	MinX, MinY, MaxX, MaxY float64
}

// BoxFromBounds converts go-geom bounds.
func BoxFromBounds(b *geom.Bounds) Box {
	return Box{MinX: b.Min(0), MinY: b.Min(1), MaxX: b.Max(0), MaxY: b.Max(1)}
}

// Intersects reports whether two boxes overlap, touching included. An
// inverted box (Min greater than Max, the empty-geometry sentinel)
// intersects nothing.
func (b Box) Intersects(o Box) bool {
	if b.MinX > b.MaxX || b.MinY > b.MaxY || o.MinX > o.MaxX || o.MinY > o.MaxY {
		return false
	}
	return b.MinX <= o.MaxX && o.MinX <= b.MaxX && b.MinY <= o.MaxY && o.MinY <= b.MaxY
}

func (b Box) extend(o Box) Box {
	return Box{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

func (b Box) centerX() float64 { return (b.MinX + b.MaxX) / 2 }
func (b Box) centerY() float64 { return (b.MinY + b.MaxY) / 2 }

const nodeCapacity = 16

type node struct {
	box      Box
	children []*node
	// leaf entries
	items []entry
}

type entry struct {
	box Box
	idx int
}

// RTree is a static STR-packed R-tree over indexed bounding boxes.
type RTree struct {
	root *node
	size int
}

// Build constructs the index from one box per feature, in feature order.
// Runs in O(n log n).
func Build(boxes []Box) *RTree {
	entries := make([]entry, len(boxes))
	for i, b := range boxes {
		entries[i] = entry{box: b, idx: i}
	}
	t := &RTree{size: len(boxes)}
	if len(entries) == 0 {
		return t
	}
	t.root = packLeaves(entries)
	return t
}

// packLeaves sorts entries into vertical slices by center X, then packs
// each slice by center Y into leaf nodes, and builds the tree bottom-up.
func packLeaves(entries []entry) *node {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].box.centerX() < entries[j].box.centerX()
	})
	leafCount := (len(entries) + nodeCapacity - 1) / nodeCapacity
	sliceCount := int(math.Ceil(math.Sqrt(float64(leafCount))))
	sliceSize := sliceCount * nodeCapacity

	var leaves []*node
	for s := 0; s < len(entries); s += sliceSize {
		end := s + sliceSize
		if end > len(entries) {
			end = len(entries)
		}
		slice := entries[s:end]
		sort.Slice(slice, func(i, j int) bool {
			return slice[i].box.centerY() < slice[j].box.centerY()
		})
		for l := 0; l < len(slice); l += nodeCapacity {
			lend := l + nodeCapacity
			if lend > len(slice) {
				lend = len(slice)
			}
			leaf := &node{items: slice[l:lend]}
			leaf.box = slice[l].box
			for _, e := range slice[l:lend] {
				leaf.box = leaf.box.extend(e.box)
			}
			leaves = append(leaves, leaf)
		}
	}
	return packUpward(leaves)
}

func packUpward(nodes []*node) *node {
	for len(nodes) > 1 {
		var parents []*node
		for s := 0; s < len(nodes); s += nodeCapacity {
			end := s + nodeCapacity
			if end > len(nodes) {
				end = len(nodes)
			}
			p := &node{children: nodes[s:end]}
			p.box = nodes[s].box
			for _, c := range nodes[s:end] {
				p.box = p.box.extend(c.box)
			}
			parents = append(parents, p)
		}
		nodes = parents
	}
	return nodes[0]
}

// Size returns the number of indexed boxes.
func (t *RTree) Size() int { return t.size }

// Query returns the indices of all boxes intersecting q, in no particular
// order. False positives relative to exact geometry are expected; false
// negatives never occur.
func (t *RTree) Query(q Box) []int {
	if t.root == nil {
		return nil
	}
	var out []int
	var walk func(n *node)
	walk = func(n *node) {
		if !n.box.Intersects(q) {
			return
		}
		for _, e := range n.items {
			if e.box.Intersects(q) {
				out = append(out, e.idx)
			}
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(t.root)
	return out
}
