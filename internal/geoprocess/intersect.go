package geoprocess

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/geocore/internal/geometry"
	"github.com/sells-group/geocore/internal/index"
	"github.com/sells-group/geocore/internal/layer"
)

// Intersect overlays two layers: every candidate feature pair (pruned by
// b's spatial index) contributes one output feature per non-empty geometric
// intersection. Output attributes concatenate a's and b's rows, with b's
// colliding field names suffixed. Expected cost is O(n log m) under a
// balanced index; pathological bounding-box overlap degrades to O(n·m).
func Intersect(ctx context.Context, a, b *layer.VectorLayer, opts Options) (*layer.VectorLayer, error) {
	if err := requireSameCRS(a, b); err != nil {
		return nil, err
	}

	schema := a.Schema.Merge(b.Schema)
	total := a.NumFeatures()
	bIndex := b.Index()

	// Per-a-feature buckets keep output ordering deterministic regardless
	// of worker scheduling.
	buckets := make([][]layer.Feature, total)

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())

	for i := 0; i < total; i++ {
		g.Go(func() error {
			if err := checkCancelled(gctx); err != nil {
				return err
			}
			fa := a.Feature(i)
			if geometry.IsEmpty(fa.Geometry) {
				opts.report(int(done.Add(1)), total)
				return nil
			}
			var bucket []layer.Feature
			for _, j := range bIndex.Query(index.BoxFromBounds(fa.Geometry.Bounds())) {
				fb := b.Feature(j)
				if geometry.IsEmpty(fb.Geometry) {
					continue
				}
				gi, err := intersectPair(fa.Geometry, fb.Geometry)
				if err != nil {
					return eris.Wrapf(err, "geoprocess: intersect feature %d of %q with feature %d of %q",
						i, a.Name, j, b.Name)
				}
				if gi == nil || geometry.IsEmpty(gi) {
					continue
				}
				attrs := make([]any, 0, len(fa.Attrs)+len(fb.Attrs))
				attrs = append(attrs, fa.Attrs...)
				attrs = append(attrs, fb.Attrs...)
				bucket = append(bucket, layer.Feature{Geometry: gi, Attrs: attrs})
			}
			buckets[i] = bucket
			opts.report(int(done.Add(1)), total)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []layer.Feature
	for _, bucket := range buckets {
		out = append(out, bucket...)
	}

	result, err := layer.NewVectorLayer(
		fmt.Sprintf("%s_%s_intersect", a.Name, b.Name), a.CRS, schema, out,
	)
	if err != nil {
		return nil, err
	}
	zap.L().Info("intersect complete",
		zap.String("layer_a", a.Name),
		zap.String("layer_b", b.Name),
		zap.Int("out_features", len(out)),
	)
	return result, nil
}

// intersectPair intersects two feature geometries. Polygon/polygon pairs go
// through the clipping kernel; mixed pairs clip the non-polygonal side
// against the polygonal one. Pairs with no polygonal side produce nothing.
func intersectPair(ga, gb geom.T) (geom.T, error) {
	pa, pb := asPolygons(ga), asPolygons(gb)
	switch {
	case pa != nil && pb != nil:
		out := geom.NewMultiPolygon(geom.XY)
		for _, p := range pa {
			for _, q := range pb {
				mp, err := geometry.PolygonIntersection(p, q)
				if err != nil {
					return nil, err
				}
				for k := 0; k < mp.NumPolygons(); k++ {
					if err := out.Push(mp.Polygon(k)); err != nil {
						return nil, err
					}
				}
			}
		}
		return out, nil
	case pb != nil:
		var parts []geom.T
		for _, q := range pb {
			g, err := geometry.IntersectGeometry(ga, q)
			if err != nil {
				return nil, err
			}
			parts = append(parts, g)
		}
		return mergeGeometries(parts)
	case pa != nil:
		var parts []geom.T
		for _, p := range pa {
			g, err := geometry.IntersectGeometry(gb, p)
			if err != nil {
				return nil, err
			}
			parts = append(parts, g)
		}
		return mergeGeometries(parts)
	default:
		return nil, nil
	}
}
