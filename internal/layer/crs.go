// Package layer holds the shared data model of the engine: coordinate
// reference systems, vector layers (features with a fixed attribute
// schema), raster layers (banded grids with affine georeferencing), and the
// ordered layer stack consumed by the render engine.
//
// Layers are immutable once constructed. Every operation produces a new
// layer; only stack-level metadata (style, visibility, order) mutates.
package layer

import (
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
)

// CRS identifies a coordinate reference system. Code is the authority
// identifier (for example "EPSG:4326"); Definition optionally carries the
// projection parameters a Reprojector needs.
type CRS struct {
	Code       string `json:"code" yaml:"code"`
	Definition string `json:"definition,omitempty" yaml:"definition,omitempty"`
}

// WGS84 is the default CRS for layers that do not declare one.
var WGS84 = CRS{Code: "EPSG:4326"}

// Equal compares by authority code. An empty CRS only equals another empty
// CRS, so untagged layers never silently combine with tagged ones.
func (c CRS) Equal(o CRS) bool { return c.Code == o.Code }

// String returns the authority code.
func (c CRS) String() string { return c.Code }

// Reprojector transforms geometries and rasters between reference systems.
// The engine treats reprojection as a pluggable collaborator and never
// reprojects implicitly.
type Reprojector interface {
	ReprojectGeometry(g geom.T, from, to CRS) (geom.T, error)
	ReprojectRaster(r *RasterLayer, to CRS) (*RasterLayer, error)
}

// ReprojectVector runs every feature of a layer through a Reprojector and
// returns a new layer tagged with the target CRS. A layer already in the
// target system comes back unchanged.
func ReprojectVector(rp Reprojector, l *VectorLayer, to CRS) (*VectorLayer, error) {
	if l.CRS.Equal(to) {
		return l, nil
	}
	features := make([]Feature, l.NumFeatures())
	for i, f := range l.Features() {
		g, err := rp.ReprojectGeometry(f.Geometry, l.CRS, to)
		if err != nil {
			return nil, eris.Wrapf(err, "layer: reproject feature %d of %q", i, l.Name)
		}
		features[i] = Feature{Geometry: g, Attrs: f.Attrs}
	}
	return NewVectorLayer(l.Name, to, l.Schema, features)
}
