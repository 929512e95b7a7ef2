// Package postgis moves vector layers between the engine and a PostGIS
// database. Import materializes a table (or a spatially filtered subset)
// as an in-memory vector layer; Export writes a layer back out with COPY.
package postgis

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/sells-group/geocore/internal/db"
	"github.com/sells-group/geocore/internal/gerr"
	"github.com/sells-group/geocore/internal/layer"
)

// Store reads and writes vector layers against a PostGIS database.
type Store struct {
	pool db.Pool
}

// NewStore creates a Store on the given pool.
func NewStore(pool db.Pool) *Store {
	return &Store{pool: pool}
}

// ImportOptions selects what to pull from a table.
type ImportOptions struct {
	// GeomColumn is the geometry column name; defaults to "geom".
	GeomColumn string
	// Fields are the attribute columns to carry over. Empty means
	// geometry only.
	Fields []layer.Field
	// BBox, when non-nil, restricts the import to geometries whose
	// envelope intersects it: [minX, minY, maxX, maxY].
	BBox *[4]float64
}

// Import reads a table into a vector layer. The layer CRS is taken from
// the SRID of the geometry column; geometries are decoded from EWKB.
func (s *Store) Import(ctx context.Context, table string, opts ImportOptions) (*layer.VectorLayer, error) {
	geomCol := opts.GeomColumn
	if geomCol == "" {
		geomCol = "geom"
	}

	cols := make([]string, 0, len(opts.Fields)+1)
	for _, f := range opts.Fields {
		cols = append(cols, pgx.Identifier{f.Name}.Sanitize())
	}
	cols = append(cols, fmt.Sprintf("ST_AsEWKB(%s)", pgx.Identifier{geomCol}.Sanitize()))

	sql := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), sanitizeTable(table))
	var args []any
	if opts.BBox != nil {
		sql += fmt.Sprintf(" WHERE %s && ST_MakeEnvelope($1, $2, $3, $4, ST_SRID(%s))",
			pgx.Identifier{geomCol}.Sanitize(), pgx.Identifier{geomCol}.Sanitize())
		args = append(args, opts.BBox[0], opts.BBox[1], opts.BBox[2], opts.BBox[3])
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrapf(gerr.ErrAdapter, "postgis: query %s: %v", table, err)
	}
	defer rows.Close()

	schema := layer.Schema(opts.Fields)
	var features []layer.Feature
	srid := 0
	var skipped int

	for rows.Next() {
		dest := make([]any, len(opts.Fields)+1)
		attrs := make([]any, len(opts.Fields))
		for i := range attrs {
			dest[i] = &attrs[i]
		}
		var raw []byte
		dest[len(opts.Fields)] = &raw

		if err := rows.Scan(dest...); err != nil {
			return nil, eris.Wrapf(gerr.ErrAdapter, "postgis: scan %s: %v", table, err)
		}
		if raw == nil {
			skipped++
			continue
		}
		g, err := ewkb.Unmarshal(raw)
		if err != nil {
			skipped++
			continue
		}
		if srid == 0 {
			srid = g.SRID()
		}
		features = append(features, layer.Feature{Geometry: g, Attrs: normalizeAttrs(attrs)})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(gerr.ErrAdapter, "postgis: read %s: %v", table, err)
	}

	if skipped > 0 {
		zap.L().Warn("postgis: skipped rows with unreadable geometry",
			zap.String("table", table), zap.Int("skipped", skipped))
	}

	crs := layer.WGS84
	if srid != 0 {
		crs = layer.CRS{Code: fmt.Sprintf("EPSG:%d", srid)}
	}
	name := table
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	out, err := layer.NewVectorLayer(name, crs, schema, features)
	if err != nil {
		return nil, eris.Wrapf(err, "postgis: layer from %s", table)
	}
	zap.L().Info("postgis: imported layer",
		zap.String("table", table),
		zap.Int("features", out.NumFeatures()),
		zap.Stringer("crs", crs),
	)
	return out, nil
}

// Export writes a vector layer into a new table, creating it first. The
// geometry column is written as EWKB with the layer's SRID.
func (s *Store) Export(ctx context.Context, l *layer.VectorLayer, table string) (int64, error) {
	srid := sridOf(l.LayerCRS())

	colDefs := make([]string, 0, len(l.Schema)+1)
	cols := make([]string, 0, len(l.Schema)+1)
	for _, f := range l.Schema {
		colDefs = append(colDefs, fmt.Sprintf("%s %s", pgx.Identifier{f.Name}.Sanitize(), sqlType(f.Type)))
		cols = append(cols, f.Name)
	}
	colDefs = append(colDefs, fmt.Sprintf("geom geometry(Geometry, %d)", srid))
	cols = append(cols, "geom")

	create := fmt.Sprintf("CREATE TABLE %s (%s)", sanitizeTable(table), strings.Join(colDefs, ", "))
	if _, err := s.pool.Exec(ctx, create); err != nil {
		return 0, eris.Wrapf(gerr.ErrAdapter, "postgis: create %s: %v", table, err)
	}

	rows := make([][]any, 0, l.NumFeatures())
	for _, f := range l.Features() {
		g := f.Geometry
		if g.SRID() == 0 {
			g = setSRID(g, srid)
		}
		wkb, err := ewkb.Marshal(g, ewkb.NDR)
		if err != nil {
			return 0, eris.Wrap(err, "postgis: encode geometry")
		}
		row := make([]any, 0, len(f.Attrs)+1)
		row = append(row, f.Attrs...)
		row = append(row, wkb)
		rows = append(rows, row)
	}

	var n int64
	var err error
	if parts := strings.SplitN(table, ".", 2); len(parts) == 2 {
		n, err = db.CopyFromSchema(ctx, s.pool, parts[0], parts[1], cols, rows)
	} else {
		n, err = db.CopyFrom(ctx, s.pool, table, cols, rows)
	}
	if err != nil {
		return 0, err
	}
	zap.L().Info("postgis: exported layer",
		zap.String("layer", l.Name), zap.String("table", table), zap.Int64("rows", n))
	return n, nil
}

// normalizeAttrs widens scanned values to the schema's canonical Go types.
func normalizeAttrs(attrs []any) []any {
	for i, v := range attrs {
		switch t := v.(type) {
		case int32:
			attrs[i] = int64(t)
		case int:
			attrs[i] = int64(t)
		case float32:
			attrs[i] = float64(t)
		}
	}
	return attrs
}

// setSRID tags a geometry with an SRID so EWKB carries it on the wire.
func setSRID(g geom.T, srid int) geom.T {
	switch t := g.(type) {
	case *geom.Point:
		return t.SetSRID(srid)
	case *geom.MultiPoint:
		return t.SetSRID(srid)
	case *geom.LineString:
		return t.SetSRID(srid)
	case *geom.MultiLineString:
		return t.SetSRID(srid)
	case *geom.Polygon:
		return t.SetSRID(srid)
	case *geom.MultiPolygon:
		return t.SetSRID(srid)
	default:
		return g
	}
}

func sridOf(crs layer.CRS) int {
	var srid int
	if _, err := fmt.Sscanf(crs.Code, "EPSG:%d", &srid); err != nil {
		return 4326
	}
	return srid
}

func sqlType(t layer.FieldType) string {
	switch t {
	case layer.FieldInt:
		return "bigint"
	case layer.FieldFloat:
		return "double precision"
	default:
		return "text"
	}
}

// sanitizeTable handles schema-qualified table names like "gis.parcels".
func sanitizeTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}
