package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geocore/internal/geoprocess"
	"github.com/sells-group/geocore/internal/gisio"
)

var (
	intersectOut string
	intersectCRS string
)

var intersectCmd = &cobra.Command{
	Use:   "intersect <a.shp> <b.shp>",
	Short: "Intersect two vector layers, merging their attributes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		crs := layerCRS(intersectCRS)
		a, _, err := loadVectorSpec(args[0], crs)
		if err != nil {
			return err
		}
		b, _, err := loadVectorSpec(args[1], crs)
		if err != nil {
			return err
		}

		out, err := geoprocess.Intersect(cmd.Context(), a, b, processOpts())
		if err != nil {
			return err
		}
		if out.NumFeatures() == 0 {
			zap.L().Warn("intersect produced no features",
				zap.String("a", a.Name), zap.String("b", b.Name))
		}

		if err := gisio.SaveShapefile(out, intersectOut); err != nil {
			return err
		}
		zap.L().Info("intersect written",
			zap.String("output", intersectOut),
			zap.Int("features", out.NumFeatures()),
		)
		return nil
	},
}

func init() {
	intersectCmd.Flags().StringVarP(&intersectOut, "out", "o", "", "output shapefile path")
	intersectCmd.Flags().StringVar(&intersectCRS, "crs", "", "CRS code for both layers (default EPSG:4326)")
	_ = intersectCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(intersectCmd)
}
