// Package geoprocess implements the vector geoprocessing operations:
// Buffer, Clip, and Intersect. Operations never mutate their input layers;
// each produces a new VectorLayer. Inputs are snapshot-safe because layers
// are immutable, so no locking happens here — cancellation and progress are
// the only runtime concerns.
package geoprocess

import (
	"context"
	"runtime"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"

	"github.com/sells-group/geocore/internal/gerr"
	"github.com/sells-group/geocore/internal/geometry"
	"github.com/sells-group/geocore/internal/layer"
)

// Progress receives completion counts as an operation advances. Callbacks
// arrive from worker goroutines and must be cheap and concurrency-safe.
type Progress func(done, total int)

// Options tunes an operation run.
type Options struct {
	// Parallelism bounds concurrent per-feature work; zero means GOMAXPROCS.
	Parallelism int
	// Progress is invoked after each feature when set.
	Progress Progress
}

func (o Options) workers() int {
	if o.Parallelism > 0 {
		return o.Parallelism
	}
	return runtime.GOMAXPROCS(0)
}

func (o Options) report(done, total int) {
	if o.Progress != nil {
		o.Progress(done, total)
	}
}

// requireSameCRS fails fast when two layers cannot legally combine.
func requireSameCRS(a, b *layer.VectorLayer) error {
	if !a.CRS.Equal(b.CRS) {
		return eris.Wrapf(gerr.ErrCrsMismatch, "geoprocess: layer %q is %q, layer %q is %q",
			a.Name, a.CRS, b.Name, b.CRS)
	}
	return nil
}

// checkCancelled translates context state into the engine's cancellation
// outcome.
func checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return eris.Wrap(gerr.ErrCancelled, ctx.Err().Error())
	default:
		return nil
	}
}

// asPolygons normalizes a polygonal geometry to its member polygons.
// Returns nil for non-polygonal or empty geometries.
func asPolygons(g geom.T) []*geom.Polygon {
	switch t := g.(type) {
	case *geom.Polygon:
		if geometry.IsEmpty(t) {
			return nil
		}
		return []*geom.Polygon{t}
	case *geom.MultiPolygon:
		var out []*geom.Polygon
		for i := 0; i < t.NumPolygons(); i++ {
			out = append(out, t.Polygon(i))
		}
		return out
	default:
		return nil
	}
}

// mergeGeometries folds per-candidate clip results into one geometry of
// the appropriate multi type. nil when everything was empty.
func mergeGeometries(parts []geom.T) (geom.T, error) {
	var polys *geom.MultiPolygon
	var lines *geom.MultiLineString
	var points *geom.MultiPoint
	for _, p := range parts {
		if geometry.IsEmpty(p) {
			continue
		}
		switch t := p.(type) {
		case *geom.Polygon:
			if polys == nil {
				polys = geom.NewMultiPolygon(geom.XY)
			}
			if err := polys.Push(t); err != nil {
				return nil, err
			}
		case *geom.MultiPolygon:
			if polys == nil {
				polys = geom.NewMultiPolygon(geom.XY)
			}
			for i := 0; i < t.NumPolygons(); i++ {
				if err := polys.Push(t.Polygon(i)); err != nil {
					return nil, err
				}
			}
		case *geom.LineString:
			if lines == nil {
				lines = geom.NewMultiLineString(geom.XY)
			}
			if err := lines.Push(t); err != nil {
				return nil, err
			}
		case *geom.MultiLineString:
			if lines == nil {
				lines = geom.NewMultiLineString(geom.XY)
			}
			for i := 0; i < t.NumLineStrings(); i++ {
				if err := lines.Push(t.LineString(i)); err != nil {
					return nil, err
				}
			}
		case *geom.Point:
			if points == nil {
				points = geom.NewMultiPoint(geom.XY)
			}
			if err := points.Push(t); err != nil {
				return nil, err
			}
		case *geom.MultiPoint:
			if points == nil {
				points = geom.NewMultiPoint(geom.XY)
			}
			for i := 0; i < t.NumPoints(); i++ {
				if err := points.Push(t.Point(i)); err != nil {
					return nil, err
				}
			}
		}
	}
	switch {
	case polys != nil:
		return polys, nil
	case lines != nil:
		return lines, nil
	case points != nil:
		return points, nil
	default:
		return nil, nil
	}
}
