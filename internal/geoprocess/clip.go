package geoprocess

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/geocore/internal/gerr"
	"github.com/sells-group/geocore/internal/geometry"
	"github.com/sells-group/geocore/internal/index"
	"github.com/sells-group/geocore/internal/layer"
)

// Clip cuts every feature of input to the extent of the boundary layer.
// Boundary candidates come from the boundary layer's spatial index and are
// re-verified by exact clipping. Features clipped to nothing are dropped:
// absence from the boundary extent means absence from the output. Output
// attributes are the input feature's only.
func Clip(ctx context.Context, input, boundary *layer.VectorLayer, opts Options) (*layer.VectorLayer, error) {
	if err := requireSameCRS(input, boundary); err != nil {
		return nil, err
	}

	total := input.NumFeatures()
	results := make([]geom.T, total)
	bIndex := boundary.Index()

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())

	for i := 0; i < total; i++ {
		g.Go(func() error {
			if err := checkCancelled(gctx); err != nil {
				return err
			}
			f := input.Feature(i)
			if geometry.IsEmpty(f.Geometry) {
				opts.report(int(done.Add(1)), total)
				return nil
			}
			candidates := bIndex.Query(index.BoxFromBounds(f.Geometry.Bounds()))
			var parts []geom.T
			for _, ci := range candidates {
				bf := boundary.Feature(ci)
				polys := asPolygons(bf.Geometry)
				if polys == nil {
					if geometry.IsEmpty(bf.Geometry) {
						continue
					}
					return eris.Wrapf(gerr.ErrInvalidGeometry,
						"geoprocess: boundary feature %d of %q is not polygonal", ci, boundary.Name)
				}
				for _, poly := range polys {
					clipped, err := geometry.IntersectGeometry(f.Geometry, poly)
					if err != nil {
						return eris.Wrapf(err, "geoprocess: clip feature %d of %q against feature %d of %q",
							i, input.Name, ci, boundary.Name)
					}
					parts = append(parts, clipped)
				}
			}
			merged, err := mergeGeometries(parts)
			if err != nil {
				return err
			}
			results[i] = merged
			opts.report(int(done.Add(1)), total)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]layer.Feature, 0, total)
	for i, r := range results {
		if r == nil || geometry.IsEmpty(r) {
			continue
		}
		out = append(out, layer.Feature{Geometry: r, Attrs: input.Feature(i).Attrs})
	}

	result, err := layer.NewVectorLayer(
		fmt.Sprintf("%s_clip", input.Name), input.CRS, input.Schema, out,
	)
	if err != nil {
		return nil, err
	}
	zap.L().Info("clip complete",
		zap.String("input", input.Name),
		zap.String("boundary", boundary.Name),
		zap.Int("in_features", total),
		zap.Int("out_features", len(out)),
	)
	return result, nil
}
