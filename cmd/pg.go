package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geocore/internal/db"
	"github.com/sells-group/geocore/internal/gisio"
	"github.com/sells-group/geocore/internal/layer"
	"github.com/sells-group/geocore/internal/postgis"
)

var pgCmd = &cobra.Command{
	Use:   "pg",
	Short: "Move vector layers between files and PostGIS",
}

var (
	pgGeomColumn string
	pgFields     []string
	pgBBox       []float64
	pgImportOut  string
)

var pgImportCmd = &cobra.Command{
	Use:   "import <table>",
	Short: "Import a PostGIS table as a shapefile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := db.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		fields, err := parseFieldSpecs(pgFields)
		if err != nil {
			return err
		}
		opts := postgis.ImportOptions{GeomColumn: pgGeomColumn, Fields: fields}
		if len(pgBBox) == 4 {
			opts.BBox = &[4]float64{pgBBox[0], pgBBox[1], pgBBox[2], pgBBox[3]}
		} else if len(pgBBox) != 0 {
			return eris.Errorf("bbox needs 4 values minx,miny,maxx,maxy, got %d", len(pgBBox))
		}

		l, err := postgis.NewStore(pool).Import(ctx, args[0], opts)
		if err != nil {
			return err
		}
		return gisio.SaveShapefile(l, pgImportOut)
	},
}

var pgExportCRS string

var pgExportCmd = &cobra.Command{
	Use:   "export <input.shp> <table>",
	Short: "Export a shapefile into a new PostGIS table",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		l, _, err := loadVectorSpec(args[0], layerCRS(pgExportCRS))
		if err != nil {
			return err
		}

		pool, err := db.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		n, err := postgis.NewStore(pool).Export(ctx, l, args[1])
		if err != nil {
			return err
		}
		zap.L().Info("exported", zap.String("table", args[1]), zap.Int64("rows", n))
		return nil
	},
}

// parseFieldSpecs parses "name:type" attribute column specs.
func parseFieldSpecs(specs []string) ([]layer.Field, error) {
	fields := make([]layer.Field, 0, len(specs))
	for _, s := range specs {
		name, typ, _ := strings.Cut(s, ":")
		f := layer.Field{Name: name}
		switch typ {
		case "", "string", "text":
			f.Type = layer.FieldString
		case "int":
			f.Type = layer.FieldInt
		case "float":
			f.Type = layer.FieldFloat
		default:
			return nil, eris.Errorf("unknown field type %q in %q", typ, s)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func init() {
	pgImportCmd.Flags().StringVar(&pgGeomColumn, "geom-column", "geom", "geometry column name")
	pgImportCmd.Flags().StringArrayVar(&pgFields, "field", nil, "attribute column as name:type (repeatable)")
	pgImportCmd.Flags().Float64SliceVar(&pgBBox, "bbox", nil, "spatial filter minx,miny,maxx,maxy")
	pgImportCmd.Flags().StringVarP(&pgImportOut, "out", "o", "", "output shapefile path")
	_ = pgImportCmd.MarkFlagRequired("out")

	pgExportCmd.Flags().StringVar(&pgExportCRS, "crs", "", "input CRS code (default EPSG:4326)")

	pgCmd.AddCommand(pgImportCmd, pgExportCmd)
	rootCmd.AddCommand(pgCmd)
}
