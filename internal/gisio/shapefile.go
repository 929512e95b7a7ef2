// Package gisio reads and writes the file formats the engine exchanges
// with other GIS tools: shapefiles for vector layers, ESRI ASCII grids for
// rasters, PNG for rendered output, and YAML for layer styles.
package gisio

import (
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/geocore/internal/gerr"
	"github.com/sells-group/geocore/internal/geometry"
	"github.com/sells-group/geocore/internal/layer"
)

// LoadShapefile reads a shapefile into a vector layer. Shapefiles carry no
// usable CRS metadata through this reader, so the caller supplies it. The
// attribute schema is derived from the DBF field descriptors.
func LoadShapefile(path string, crs layer.CRS) (*layer.VectorLayer, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(gerr.ErrAdapter, "gisio: open shapefile %s: %v", path, err)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	schema := make(layer.Schema, len(fields))
	for i, f := range fields {
		schema[i] = layer.Field{
			Name: strings.ToLower(strings.TrimRight(f.String(), "\x00")),
			Type: dbfFieldType(f),
		}
	}

	var features []layer.Feature
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		g := shapeToGeom(shape)
		if g == nil {
			skipped++
			continue
		}

		attrs := make([]any, len(fields))
		for i := range fields {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			attrs[i] = parseAttr(val, schema[i].Type)
		}
		features = append(features, layer.Feature{Geometry: g, Attrs: attrs})
	}

	if skipped > 0 {
		zap.L().Debug("gisio: skipped shapefile records",
			zap.String("path", path), zap.Int("skipped", skipped))
	}

	name := baseName(path)
	l, err := layer.NewVectorLayer(name, crs, schema, features)
	if err != nil {
		return nil, eris.Wrapf(err, "gisio: layer from %s", path)
	}
	return l, nil
}

// SaveShapefile writes a vector layer to a shapefile. The shape type comes
// from the first non-empty geometry; features whose geometry cannot be
// expressed in that type are skipped.
func SaveShapefile(l *layer.VectorLayer, path string) error {
	shapeType := shp.NULL
	for _, f := range l.Features() {
		if geometry.IsEmpty(f.Geometry) {
			continue
		}
		shapeType = shapeTypeOf(f.Geometry)
		break
	}
	if shapeType == shp.NULL {
		return eris.Wrapf(gerr.ErrAdapter, "gisio: layer %q has no writable geometry", l.Name)
	}

	writer, err := shp.Create(path, shapeType)
	if err != nil {
		return eris.Wrapf(gerr.ErrAdapter, "gisio: create shapefile %s: %v", path, err)
	}
	defer writer.Close()

	dbfFields := make([]shp.Field, len(l.Schema))
	for i, f := range l.Schema {
		switch f.Type {
		case layer.FieldInt:
			dbfFields[i] = shp.NumberField(f.Name, 19)
		case layer.FieldFloat:
			dbfFields[i] = shp.FloatField(f.Name, 24, 10)
		default:
			dbfFields[i] = shp.StringField(f.Name, 80)
		}
	}
	if err := writer.SetFields(dbfFields); err != nil {
		return eris.Wrapf(gerr.ErrAdapter, "gisio: set dbf fields for %s: %v", path, err)
	}

	row := 0
	var skipped int
	for _, f := range l.Features() {
		shape := geomToShape(f.Geometry, shapeType)
		if shape == nil {
			skipped++
			continue
		}
		writer.Write(shape)
		for i, v := range f.Attrs {
			if v == nil {
				continue
			}
			if err := writer.WriteAttribute(row, i, dbfValue(v)); err != nil {
				zap.L().Warn("gisio: attribute write failed",
					zap.String("layer", l.Name), zap.Int("row", row), zap.Int("field", i), zap.Error(err))
			}
		}
		row++
	}

	if skipped > 0 {
		zap.L().Debug("gisio: skipped unwritable features",
			zap.String("layer", l.Name), zap.Int("skipped", skipped))
	}
	return nil
}

// dbfValue narrows canonical attribute types to what the DBF writer
// accepts: int64 rows go out as int, everything else passes through.
func dbfValue(v any) any {
	if n, ok := v.(int64); ok {
		return int(n)
	}
	return v
}

// dbfFieldType maps a DBF field descriptor to a schema type. Numeric
// fields with no decimal places become integers.
func dbfFieldType(f shp.Field) layer.FieldType {
	switch f.Fieldtype {
	case 'N':
		if f.Precision == 0 {
			return layer.FieldInt
		}
		return layer.FieldFloat
	case 'F':
		return layer.FieldFloat
	default:
		return layer.FieldString
	}
}

func parseAttr(val string, t layer.FieldType) any {
	if val == "" {
		return nil
	}
	switch t {
	case layer.FieldInt:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return nil
		}
		return n
	case layer.FieldFloat:
		x, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil
		}
		return x
	default:
		return val
	}
}

// shapeToGeom converts a go-shp shape to a geometry. Multi-part shapes
// become multi geometries.
func shapeToGeom(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y})
	case *shp.PolyLine:
		return partsToMultiLineString(s.NumParts, s.Parts, s.Points)
	case *shp.Polygon:
		return partsToPolygon(s.NumParts, s.Parts, s.Points)
	default:
		return nil
	}
}

func partsToMultiLineString(numParts int32, parts []int32, points []shp.Point) geom.T {
	if numParts == 0 || len(points) == 0 {
		return nil
	}
	mls := geom.NewMultiLineString(geom.XY)
	for i := int32(0); i < numParts; i++ {
		flat := partFlatCoords(i, numParts, parts, points)
		if len(flat) < 4 {
			continue
		}
		if err := mls.Push(geom.NewLineStringFlat(geom.XY, flat)); err != nil {
			zap.L().Debug("gisio: skipping malformed linestring part", zap.Int32("part", i), zap.Error(err))
		}
	}
	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}

// partsToPolygon assembles shapefile rings into a polygon. Shapefile
// convention winds outer rings clockwise and holes counter-clockwise; a
// counter-clockwise part attaches as a hole of the preceding outer ring.
func partsToPolygon(numParts int32, parts []int32, points []shp.Point) geom.T {
	if numParts == 0 || len(points) == 0 {
		return nil
	}
	mp := geom.NewMultiPolygon(geom.XY)
	var current *geom.Polygon
	for i := int32(0); i < numParts; i++ {
		flat := partFlatCoords(i, numParts, parts, points)
		if len(flat) < 8 {
			continue
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)
		cw := ringSignedArea(flat) < 0
		if cw || current == nil {
			current = geom.NewPolygon(geom.XY)
			if err := current.Push(ring); err != nil {
				zap.L().Debug("gisio: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
				current = nil
				continue
			}
			if err := mp.Push(current); err != nil {
				zap.L().Debug("gisio: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
				current = nil
			}
			continue
		}
		if err := current.Push(ring); err != nil {
			zap.L().Debug("gisio: skipping malformed hole ring", zap.Int32("part", i), zap.Error(err))
		}
	}
	if mp.NumPolygons() == 0 {
		return nil
	}
	if mp.NumPolygons() == 1 {
		return mp.Polygon(0)
	}
	return mp
}

func partFlatCoords(i, numParts int32, parts []int32, points []shp.Point) []float64 {
	start := parts[i]
	end := int32(len(points))
	if i+1 < numParts {
		end = parts[i+1]
	}
	flat := make([]float64, 0, (end-start)*2)
	for j := start; j < end; j++ {
		flat = append(flat, points[j].X, points[j].Y)
	}
	return flat
}

func ringSignedArea(flat []float64) float64 {
	var sum float64
	n := len(flat) / 2
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += flat[i*2]*flat[j*2+1] - flat[j*2]*flat[i*2+1]
	}
	return sum / 2
}

func shapeTypeOf(g geom.T) shp.ShapeType {
	switch g.(type) {
	case *geom.Point, *geom.MultiPoint:
		return shp.POINT
	case *geom.LineString, *geom.MultiLineString:
		return shp.POLYLINE
	case *geom.Polygon, *geom.MultiPolygon:
		return shp.POLYGON
	default:
		return shp.NULL
	}
}

// geomToShape converts a geometry to the target shape type, nil if it
// cannot be expressed.
func geomToShape(g geom.T, shapeType shp.ShapeType) shp.Shape {
	if g == nil || geometry.IsEmpty(g) {
		return nil
	}
	switch shapeType {
	case shp.POINT:
		p, ok := g.(*geom.Point)
		if !ok {
			return nil
		}
		return &shp.Point{X: p.Coords()[0], Y: p.Coords()[1]}
	case shp.POLYLINE:
		var parts [][]shp.Point
		switch t := g.(type) {
		case *geom.LineString:
			parts = append(parts, coordsToPoints(t.Coords()))
		case *geom.MultiLineString:
			for i := 0; i < t.NumLineStrings(); i++ {
				parts = append(parts, coordsToPoints(t.LineString(i).Coords()))
			}
		default:
			return nil
		}
		return shp.NewPolyLine(parts)
	case shp.POLYGON:
		var parts [][]shp.Point
		appendPoly := func(p *geom.Polygon) {
			for i := 0; i < p.NumLinearRings(); i++ {
				pts := coordsToPoints(p.LinearRing(i).Coords())
				// Shapefile outer rings are clockwise, holes the reverse.
				if (i == 0) == (geometry.SignedArea(p.LinearRing(i).Coords()) > 0) {
					reversePoints(pts)
				}
				parts = append(parts, pts)
			}
		}
		switch t := g.(type) {
		case *geom.Polygon:
			appendPoly(t)
		case *geom.MultiPolygon:
			for i := 0; i < t.NumPolygons(); i++ {
				appendPoly(t.Polygon(i))
			}
		default:
			return nil
		}
		poly := shp.Polygon(*shp.NewPolyLine(parts))
		return &poly
	default:
		return nil
	}
}

func coordsToPoints(coords []geom.Coord) []shp.Point {
	pts := make([]shp.Point, len(coords))
	for i, c := range coords {
		pts[i] = shp.Point{X: c[0], Y: c[1]}
	}
	return pts
}

func reversePoints(pts []shp.Point) {
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
}

func baseName(path string) string {
	name := path
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name
}
