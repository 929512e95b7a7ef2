package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geocore/internal/geoprocess"
	"github.com/sells-group/geocore/internal/gisio"
)

var (
	clipBoundary string
	clipOut      string
	clipCRS      string
)

var clipCmd = &cobra.Command{
	Use:   "clip <input.shp>",
	Short: "Clip a vector layer to a polygonal boundary layer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		crs := layerCRS(clipCRS)
		in, _, err := loadVectorSpec(args[0], crs)
		if err != nil {
			return err
		}
		boundary, _, err := loadVectorSpec(clipBoundary, crs)
		if err != nil {
			return err
		}

		out, err := geoprocess.Clip(cmd.Context(), in, boundary, processOpts())
		if err != nil {
			return err
		}
		if out.NumFeatures() == 0 {
			zap.L().Warn("clip produced no features", zap.String("input", in.Name))
		}

		if err := gisio.SaveShapefile(out, clipOut); err != nil {
			return err
		}
		zap.L().Info("clip written",
			zap.String("output", clipOut),
			zap.Int("features", out.NumFeatures()),
		)
		return nil
	},
}

func init() {
	clipCmd.Flags().StringVarP(&clipBoundary, "boundary", "b", "", "boundary shapefile (polygons)")
	clipCmd.Flags().StringVarP(&clipOut, "out", "o", "", "output shapefile path")
	clipCmd.Flags().StringVar(&clipCRS, "crs", "", "CRS code for both layers (default EPSG:4326)")
	_ = clipCmd.MarkFlagRequired("boundary")
	_ = clipCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(clipCmd)
}
