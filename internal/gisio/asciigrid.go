package gisio

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/geocore/internal/gerr"
	"github.com/sells-group/geocore/internal/layer"
)

// LoadASCIIGrid reads an ESRI ASCII grid into a single-band raster. The
// format carries no CRS, so the caller supplies it.
func LoadASCIIGrid(path string, crs layer.CRS) (*layer.RasterLayer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(gerr.ErrAdapter, "gisio: open grid %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	header := map[string]float64{}
	var data []float64

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		// Header lines are "key value" pairs; the first line that does not
		// start with a letter begins the sample block.
		if len(data) == 0 && len(fields) == 2 && !isNumeric(fields[0]) {
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, eris.Wrapf(gerr.ErrAdapter, "gisio: grid %s: bad header line %q", path, line)
			}
			header[strings.ToLower(fields[0])] = v
			continue
		}
		for _, s := range fields {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, eris.Wrapf(gerr.ErrAdapter, "gisio: grid %s: bad sample %q", path, s)
			}
			data = append(data, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrapf(gerr.ErrAdapter, "gisio: read grid %s: %v", path, err)
	}

	ncols := int(header["ncols"])
	nrows := int(header["nrows"])
	cell, ok := header["cellsize"]
	if ncols <= 0 || nrows <= 0 || !ok {
		return nil, eris.Wrapf(gerr.ErrAdapter, "gisio: grid %s: incomplete header", path)
	}
	if len(data) != ncols*nrows {
		return nil, eris.Wrapf(gerr.ErrAdapter,
			"gisio: grid %s: %d samples for %dx%d grid", path, len(data), ncols, nrows)
	}

	// xllcorner/yllcorner address the lower-left corner; the affine origin
	// is the upper-left.
	xll, yll := header["xllcorner"], header["yllcorner"]
	if v, ok := header["xllcenter"]; ok {
		xll = v - cell/2
	}
	if v, ok := header["yllcenter"]; ok {
		yll = v - cell/2
	}
	tr := layer.Affine{
		OriginX: xll,
		OriginY: yll + float64(nrows)*cell,
		ScaleX:  cell,
		ScaleY:  -cell,
	}

	nodata := math.NaN()
	if v, ok := header["nodata_value"]; ok {
		nodata = v
	}

	return layer.NewRasterLayer(baseName(path), crs, ncols, nrows, tr,
		[]*layer.Band{{Data: data, NoData: nodata}})
}

// SaveASCIIGrid writes one band of a raster as an ESRI ASCII grid. Only
// axis-aligned square-cell grids fit the format.
func SaveASCIIGrid(r *layer.RasterLayer, band int, path string) error {
	if band < 0 || band >= len(r.Bands) {
		return eris.Errorf("gisio: raster %q has no band %d", r.Name, band)
	}
	tr := r.Transform
	if tr.SkewX != 0 || tr.SkewY != 0 || tr.ScaleX != -tr.ScaleY {
		return eris.Wrapf(gerr.ErrAdapter,
			"gisio: raster %q grid cannot be expressed as an ASCII grid", r.Name)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(gerr.ErrAdapter, "gisio: create grid %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	b := r.Bands[band]
	nodata := b.NoData
	if math.IsNaN(nodata) {
		nodata = -9999
	}

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "ncols %d\n", r.Width)
	fmt.Fprintf(w, "nrows %d\n", r.Height)
	fmt.Fprintf(w, "xllcorner %s\n", formatFloat(tr.OriginX))
	fmt.Fprintf(w, "yllcorner %s\n", formatFloat(tr.OriginY+float64(r.Height)*tr.ScaleY))
	fmt.Fprintf(w, "cellsize %s\n", formatFloat(tr.ScaleX))
	fmt.Fprintf(w, "NODATA_value %s\n", formatFloat(nodata))

	for row := 0; row < r.Height; row++ {
		for col := 0; col < r.Width; col++ {
			if col > 0 {
				w.WriteByte(' ')
			}
			v := b.Data[row*r.Width+col]
			if b.IsNoData(v) || math.IsNaN(v) {
				v = nodata
			}
			w.WriteString(formatFloat(v))
		}
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return eris.Wrapf(gerr.ErrAdapter, "gisio: write grid %s: %v", path, err)
	}
	return nil
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
