package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geocore/internal/geoprocess"
	"github.com/sells-group/geocore/internal/gisio"
)

var (
	bufferDistance float64
	bufferSegments int
	bufferOut      string
	bufferCRS      string
)

var bufferCmd = &cobra.Command{
	Use:   "buffer <input.shp>",
	Short: "Buffer every feature of a vector layer by a distance",
	Long:  "Dilates (positive distance) or erodes (negative distance) each feature with round joins. Distances are in layer CRS units.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _, err := loadVectorSpec(args[0], layerCRS(bufferCRS))
		if err != nil {
			return err
		}

		out, err := geoprocess.Buffer(cmd.Context(), in, bufferDistance, bufferSegments, processOpts())
		if err != nil {
			return err
		}

		if err := gisio.SaveShapefile(out, bufferOut); err != nil {
			return err
		}
		zap.L().Info("buffer written",
			zap.String("output", bufferOut),
			zap.Int("features", out.NumFeatures()),
		)
		return nil
	},
}

func init() {
	bufferCmd.Flags().Float64VarP(&bufferDistance, "distance", "d", 0, "buffer distance in CRS units (negative erodes)")
	bufferCmd.Flags().IntVar(&bufferSegments, "segments", 8, "arc segments per quadrant")
	bufferCmd.Flags().StringVarP(&bufferOut, "out", "o", "", "output shapefile path")
	bufferCmd.Flags().StringVar(&bufferCRS, "crs", "", "input CRS code (default EPSG:4326)")
	_ = bufferCmd.MarkFlagRequired("distance")
	_ = bufferCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(bufferCmd)
}
