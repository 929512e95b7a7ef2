package layer

import (
	"sync"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"

	"github.com/sells-group/geocore/internal/geometry"
	"github.com/sells-group/geocore/internal/index"
)

// VectorLayer is an immutable ordered collection of features sharing one
// attribute schema and one CRS. The bounding box and spatial index are
// derived lazily and cached; immutability makes both safe to share.
type VectorLayer struct {
	Name   string
	CRS    CRS
	Schema Schema

	features []Feature

	boundsOnce sync.Once
	bounds     *geom.Bounds

	indexOnce sync.Once
	idx       *index.RTree
}

// NewVectorLayer validates every attribute row against the schema and
// returns the constructed layer. Geometry validity is the concern of the
// operations that consume geometry, not of construction: a layer may hold
// empty geometries.
func NewVectorLayer(name string, crs CRS, schema Schema, features []Feature) (*VectorLayer, error) {
	for i, f := range features {
		if err := schema.Validate(f.Attrs); err != nil {
			return nil, eris.Wrapf(err, "layer: feature %d of %q", i, name)
		}
	}
	return &VectorLayer{Name: name, CRS: crs, Schema: schema, features: features}, nil
}

// NumFeatures returns the feature count.
func (l *VectorLayer) NumFeatures() int { return len(l.features) }

// Feature returns the i-th feature. Callers must not mutate it.
func (l *VectorLayer) Feature(i int) Feature { return l.features[i] }

// Features returns the underlying feature slice, read-only by convention.
func (l *VectorLayer) Features() []Feature { return l.features }

// Bounds returns the layer bounding box over non-empty geometries, nil for
// a layer with no coordinates.
func (l *VectorLayer) Bounds() *geom.Bounds {
	l.boundsOnce.Do(func() {
		var b *geom.Bounds
		for _, f := range l.features {
			if geometry.IsEmpty(f.Geometry) {
				continue
			}
			if b == nil {
				b = geom.NewBounds(geom.XY)
			}
			b.Extend(f.Geometry)
		}
		l.bounds = b
	})
	return l.bounds
}

// Index returns the layer's spatial index, building it on first use.
// Features with empty geometries are indexed with empty boxes that never
// match a query.
func (l *VectorLayer) Index() *index.RTree {
	l.indexOnce.Do(func() {
		boxes := make([]index.Box, len(l.features))
		for i, f := range l.features {
			if geometry.IsEmpty(f.Geometry) {
				boxes[i] = index.Box{MinX: 1, MinY: 1, MaxX: 0, MaxY: 0}
				continue
			}
			boxes[i] = index.BoxFromBounds(f.Geometry.Bounds())
		}
		l.idx = index.Build(boxes)
	})
	return l.idx
}

// LayerName implements Layer.
func (l *VectorLayer) LayerName() string { return l.Name }

// LayerCRS implements Layer.
func (l *VectorLayer) LayerCRS() CRS { return l.CRS }

// LayerBounds implements Layer.
func (l *VectorLayer) LayerBounds() *geom.Bounds { return l.Bounds() }
