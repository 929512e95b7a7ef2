package layer

import (
	"image/color"
	"sync"

	"github.com/google/uuid"
	geom "github.com/twpayne/go-geom"
)

// Layer is either a VectorLayer or a RasterLayer.
type Layer interface {
	LayerName() string
	LayerCRS() CRS
	LayerBounds() *geom.Bounds
}

// RampStop is one color stop of a raster gradient, at a normalized offset
// in [0, 1].
type RampStop struct {
	Offset float64
	Color  color.NRGBA
}

// DefaultRamp mirrors the engine's historical raster gradient:
// red, yellow, green, blue.
func DefaultRamp() []RampStop {
	return []RampStop{
		{Offset: 0.0, Color: color.NRGBA{R: 255, A: 255}},
		{Offset: 0.33, Color: color.NRGBA{R: 255, G: 255, A: 255}},
		{Offset: 0.66, Color: color.NRGBA{G: 128, A: 255}},
		{Offset: 1.0, Color: color.NRGBA{B: 255, A: 255}},
	}
}

// VectorStyle controls polygon fill, stroke, and stroke width in viewport
// pixels.
type VectorStyle struct {
	Fill        color.NRGBA
	Stroke      color.NRGBA
	StrokeWidth float64
}

// RasterStyle maps raster samples onto a color ramp with a layer opacity.
type RasterStyle struct {
	Ramp    []RampStop
	Opacity float64
}

// Style is the per-stack-entry presentation state; exactly one of Vector or
// Raster is set, matching the layer kind.
type Style struct {
	Vector *VectorStyle
	Raster *RasterStyle
}

// DefaultVectorStyle matches the historical rendering: blue stroke, no fill.
func DefaultVectorStyle() *VectorStyle {
	return &VectorStyle{
		Fill:        color.NRGBA{},
		Stroke:      color.NRGBA{B: 255, A: 255},
		StrokeWidth: 1,
	}
}

// DefaultRasterStyle renders with the default ramp, fully opaque.
func DefaultRasterStyle() *RasterStyle {
	return &RasterStyle{Ramp: DefaultRamp(), Opacity: 1}
}

// StackEntry is one slot in the layer stack.
type StackEntry struct {
	ID      uuid.UUID
	Layer   Layer
	Style   Style
	Visible bool
}

// LayerStack is the ordered, bottom-first set of layers the render engine
// composites. Layers themselves are immutable; the stack guards only its
// own ordering, visibility, and style metadata. Every mutation bumps the
// revision so renders can be memoized against a (revision, viewport) key.
type LayerStack struct {
	mu       sync.RWMutex
	entries  []StackEntry
	revision uint64
}

// NewLayerStack returns an empty stack.
func NewLayerStack() *LayerStack { return &LayerStack{} }

// Add publishes a layer at the top of the stack with a default style for
// its kind, returning the entry ID. This is the single brief exclusive
// step by which a completed operation makes its output visible.
func (s *LayerStack) Add(l Layer) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := StackEntry{ID: uuid.New(), Layer: l, Visible: true}
	switch l.(type) {
	case *RasterLayer:
		e.Style = Style{Raster: DefaultRasterStyle()}
	default:
		e.Style = Style{Vector: DefaultVectorStyle()}
	}
	s.entries = append(s.entries, e)
	s.revision++
	return e.ID
}

// Remove deletes the entry with the given ID. The layer is owned by the
// stack, so removal is destruction as far as the engine is concerned.
func (s *LayerStack) Remove(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			s.revision++
			return true
		}
	}
	return false
}

// SetVisible toggles an entry's visibility.
func (s *LayerStack) SetVisible(id uuid.UUID, visible bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Visible = visible
			s.revision++
			return true
		}
	}
	return false
}

// SetStyle replaces an entry's style.
func (s *LayerStack) SetStyle(id uuid.UUID, style Style) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].Style = style
			s.revision++
			return true
		}
	}
	return false
}

// Get returns the entry with the given ID.
func (s *LayerStack) Get(id uuid.UUID) (StackEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return StackEntry{}, false
}

// Find returns the topmost entry whose layer has the given name.
func (s *LayerStack) Find(name string) (StackEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].Layer.LayerName() == name {
			return s.entries[i], true
		}
	}
	return StackEntry{}, false
}

// Snapshot returns a copy of the entries (bottom first) and the revision it
// reflects. Renders and operations work from snapshots, never from the
// live slice, so no lock is held across a computation.
func (s *LayerStack) Snapshot() ([]StackEntry, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StackEntry, len(s.entries))
	copy(out, s.entries)
	return out, s.revision
}

// Len returns the number of entries.
func (s *LayerStack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Revision returns the current mutation counter.
func (s *LayerStack) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}
