package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/geocore/internal/engine"
	"github.com/sells-group/geocore/internal/geoprocess"
	"github.com/sells-group/geocore/internal/layer"
	"github.com/sells-group/geocore/internal/rasteralg"
)

// jobRequest carries the inputs for any job operation. Layer is always the
// primary input; Other and Third name further inputs where the operation
// takes them (clip boundary, intersect partner, NIR band, baseline).
type jobRequest struct {
	Layer    uuid.UUID `json:"layer"`
	Other    uuid.UUID `json:"other,omitempty"`
	Third    uuid.UUID `json:"third,omitempty"`
	Distance float64   `json:"distance,omitempty"`
	Segments int       `json:"segments,omitempty"`
	Band     int       `json:"band,omitempty"`
	Method   string    `json:"method,omitempty"`
}

func (a *apiServer) vectorEntry(id uuid.UUID) (*layer.VectorLayer, error) {
	e, ok := a.stack.Get(id)
	if !ok {
		return nil, eris.Errorf("layer %s not found", id)
	}
	v, ok := e.Layer.(*layer.VectorLayer)
	if !ok {
		return nil, eris.Errorf("layer %s is not a vector layer", id)
	}
	return v, nil
}

func (a *apiServer) rasterEntry(id uuid.UUID) (*layer.RasterLayer, error) {
	e, ok := a.stack.Get(id)
	if !ok {
		return nil, eris.Errorf("layer %s not found", id)
	}
	r, ok := e.Layer.(*layer.RasterLayer)
	if !ok {
		return nil, eris.Errorf("layer %s is not a raster layer", id)
	}
	return r, nil
}

func (a *apiServer) bandRef(id uuid.UUID, band int) (rasteralg.BandRef, error) {
	r, err := a.rasterEntry(id)
	if err != nil {
		return rasteralg.BandRef{}, err
	}
	return rasteralg.BandRef{Raster: r, Band: band}, nil
}

// buildOp resolves the request's inputs against the current stack and
// returns the closure the worker will run. Inputs are captured now;
// later stack mutations do not affect a queued job.
func (a *apiServer) buildOp(operation string, req jobRequest) (engine.OpFunc, error) {
	opts := func(report engine.ProgressFunc) geoprocess.Options {
		return geoprocess.Options{
			Parallelism: cfg.Engine.Parallelism,
			Progress:    geoprocess.Progress(report),
		}
	}

	switch operation {
	case "buffer":
		in, err := a.vectorEntry(req.Layer)
		if err != nil {
			return nil, err
		}
		segments := req.Segments
		if segments == 0 {
			segments = 8
		}
		return func(ctx context.Context, report engine.ProgressFunc) (layer.Layer, error) {
			out, err := geoprocess.Buffer(ctx, in, req.Distance, segments, opts(report))
			return out, err
		}, nil

	case "clip":
		in, err := a.vectorEntry(req.Layer)
		if err != nil {
			return nil, err
		}
		boundary, err := a.vectorEntry(req.Other)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, report engine.ProgressFunc) (layer.Layer, error) {
			out, err := geoprocess.Clip(ctx, in, boundary, opts(report))
			return out, err
		}, nil

	case "intersect":
		va, err := a.vectorEntry(req.Layer)
		if err != nil {
			return nil, err
		}
		vb, err := a.vectorEntry(req.Other)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, report engine.ProgressFunc) (layer.Layer, error) {
			out, err := geoprocess.Intersect(ctx, va, vb, opts(report))
			return out, err
		}, nil

	case "ndvi", "ndbi":
		first, err := a.bandRef(req.Layer, req.Band)
		if err != nil {
			return nil, err
		}
		nir, err := a.bandRef(req.Other, req.Band)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, report engine.ProgressFunc) (layer.Layer, error) {
			if operation == "ndvi" {
				out, err := rasteralg.NDVI(ctx, first, nir)
				return out, err
			}
			out, err := rasteralg.NDBI(ctx, first, nir)
			return out, err
		}, nil

	case "lst":
		thermal, err := a.bandRef(req.Layer, req.Band)
		if err != nil {
			return nil, err
		}
		var ndvi *layer.RasterLayer
		if req.Other != uuid.Nil {
			ndvi, err = a.rasterEntry(req.Other)
			if err != nil {
				return nil, err
			}
		}
		return func(ctx context.Context, report engine.ProgressFunc) (layer.Layer, error) {
			out, err := rasteralg.LST(ctx, thermal, ndvi, cfg.Calibration)
			return out, err
		}, nil

	case "uhi":
		lst, err := a.bandRef(req.Layer, req.Band)
		if err != nil {
			return nil, err
		}
		if req.Other == uuid.Nil {
			return func(ctx context.Context, report engine.ProgressFunc) (layer.Layer, error) {
				out, err := rasteralg.UHIFromMean(ctx, lst)
				return out, err
			}, nil
		}
		baseline, err := a.bandRef(req.Other, req.Band)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, report engine.ProgressFunc) (layer.Layer, error) {
			out, err := rasteralg.UHI(ctx, lst, baseline)
			return out, err
		}, nil

	case "overlay":
		lst, err := a.bandRef(req.Layer, req.Band)
		if err != nil {
			return nil, err
		}
		ndvi, err := a.bandRef(req.Other, req.Band)
		if err != nil {
			return nil, err
		}
		ndbi, err := a.bandRef(req.Third, req.Band)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, report engine.ProgressFunc) (layer.Layer, error) {
			out, err := rasteralg.Overlay(ctx, lst, ndvi, ndbi)
			return out, err
		}, nil

	case "resample":
		src, err := a.rasterEntry(req.Layer)
		if err != nil {
			return nil, err
		}
		target, err := a.rasterEntry(req.Other)
		if err != nil {
			return nil, err
		}
		method, err := rasteralg.ParseMethod(req.Method)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, report engine.ProgressFunc) (layer.Layer, error) {
			out, err := rasteralg.AlignTo(ctx, src, target, method)
			return out, err
		}, nil

	default:
		return nil, eris.Errorf("unknown operation %q", operation)
	}
}
