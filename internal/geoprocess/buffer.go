package geoprocess

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/geocore/internal/layer"
	"github.com/sells-group/geocore/internal/geometry"
)

// Buffer offsets every feature of a layer by distance, with round joins
// approximated at segmentsPerQuadrant segments per quarter circle. Negative
// distances erode; a feature eroded to nothing keeps its attribute row with
// an empty geometry so attribute alignment survives the operation.
func Buffer(ctx context.Context, l *layer.VectorLayer, distance float64, segmentsPerQuadrant int, opts Options) (*layer.VectorLayer, error) {
	total := l.NumFeatures()
	out := make([]layer.Feature, total)

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())

	for i := 0; i < total; i++ {
		g.Go(func() error {
			if err := checkCancelled(gctx); err != nil {
				return err
			}
			f := l.Feature(i)
			buffered, err := geometry.OffsetGeometry(f.Geometry, distance, segmentsPerQuadrant)
			if err != nil {
				return eris.Wrapf(err, "geoprocess: buffer feature %d of %q", i, l.Name)
			}
			out[i] = layer.Feature{Geometry: buffered, Attrs: f.Attrs}
			opts.report(int(done.Add(1)), total)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result, err := layer.NewVectorLayer(
		fmt.Sprintf("%s_buffer", l.Name), l.CRS, l.Schema, out,
	)
	if err != nil {
		return nil, err
	}
	zap.L().Info("buffer complete",
		zap.String("layer", l.Name),
		zap.Float64("distance", distance),
		zap.Int("features", total),
	)
	return result, nil
}
