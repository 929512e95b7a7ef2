package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geocore/internal/gisio"
	"github.com/sells-group/geocore/internal/rasteralg"
)

var (
	resampleTarget string
	resampleMethod string
	resampleOut    string
	resampleCRS    string
)

var resampleCmd = &cobra.Command{
	Use:   "resample <input.asc>",
	Short: "Resample a raster onto another raster's grid",
	Long:  "Aligns the input onto the target's dimensions and transform so the two can enter band algebra together. Nodata never interpolates into data.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		crs := layerCRS(resampleCRS)
		src, err := gisio.LoadASCIIGrid(args[0], crs)
		if err != nil {
			return err
		}
		target, err := gisio.LoadASCIIGrid(resampleTarget, crs)
		if err != nil {
			return err
		}
		method, err := rasteralg.ParseMethod(resampleMethod)
		if err != nil {
			return err
		}

		out, err := rasteralg.AlignTo(cmd.Context(), src, target, method)
		if err != nil {
			return err
		}

		if err := gisio.SaveASCIIGrid(out, 0, resampleOut); err != nil {
			return err
		}
		zap.L().Info("resample written",
			zap.String("output", resampleOut),
			zap.Int("width", out.Width),
			zap.Int("height", out.Height),
		)
		return nil
	},
}

func init() {
	resampleCmd.Flags().StringVarP(&resampleTarget, "target", "t", "", "grid whose geometry to resample onto")
	resampleCmd.Flags().StringVarP(&resampleMethod, "method", "m", "nearest", "nearest or bilinear")
	resampleCmd.Flags().StringVarP(&resampleOut, "out", "o", "", "output ASCII grid path")
	resampleCmd.Flags().StringVar(&resampleCRS, "crs", "", "CRS code for both grids (default EPSG:4326)")
	_ = resampleCmd.MarkFlagRequired("target")
	_ = resampleCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(resampleCmd)
}
