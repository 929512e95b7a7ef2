package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geocore/internal/geoprocess"
	"github.com/sells-group/geocore/internal/gisio"
	"github.com/sells-group/geocore/internal/layer"
)

// layerCRS resolves the --crs flag, defaulting to WGS84.
func layerCRS(code string) layer.CRS {
	if code == "" {
		return layer.WGS84
	}
	return layer.CRS{Code: code}
}

// splitSpec splits a "path" or "path=style.yaml" layer argument.
func splitSpec(spec string) (path, stylePath string) {
	if i := strings.LastIndex(spec, "="); i >= 0 {
		return spec[:i], spec[i+1:]
	}
	return spec, ""
}

// loadVectorSpec loads a shapefile layer spec with an optional style file.
func loadVectorSpec(spec string, crs layer.CRS) (*layer.VectorLayer, layer.Style, error) {
	path, stylePath := splitSpec(spec)
	l, err := gisio.LoadShapefile(path, crs)
	if err != nil {
		return nil, layer.Style{}, err
	}
	style := layer.Style{Vector: layer.DefaultVectorStyle()}
	if stylePath != "" {
		style, err = gisio.LoadStyle(stylePath)
		if err != nil {
			return nil, layer.Style{}, err
		}
		if style.Vector == nil {
			return nil, layer.Style{}, eris.Errorf("style %s has no vector section", stylePath)
		}
	}
	return l, style, nil
}

// loadRasterSpec loads an ASCII grid layer spec with an optional style file.
func loadRasterSpec(spec string, crs layer.CRS) (*layer.RasterLayer, layer.Style, error) {
	path, stylePath := splitSpec(spec)
	r, err := gisio.LoadASCIIGrid(path, crs)
	if err != nil {
		return nil, layer.Style{}, err
	}
	style := layer.Style{Raster: layer.DefaultRasterStyle()}
	if stylePath != "" {
		style, err = gisio.LoadStyle(stylePath)
		if err != nil {
			return nil, layer.Style{}, err
		}
		if style.Raster == nil {
			return nil, layer.Style{}, eris.Errorf("style %s has no raster section", stylePath)
		}
	}
	return r, style, nil
}

// processOpts builds geoprocessing options from config, logging progress at
// debug so long runs are observable.
func processOpts() geoprocess.Options {
	return geoprocess.Options{
		Parallelism: cfg.Engine.Parallelism,
		Progress: func(done, total int) {
			zap.L().Debug("progress", zap.Int("done", done), zap.Int("total", total))
		},
	}
}
