package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geocore/internal/gisio"
	"github.com/sells-group/geocore/internal/layer"
	"github.com/sells-group/geocore/internal/rasteralg"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Compute spectral indices and thermal products from raster bands",
}

var (
	indexOut string
	indexCRS string
)

// loadBand loads an ASCII grid and returns its band 0 as a BandRef.
func loadBand(path string) (rasteralg.BandRef, error) {
	r, err := gisio.LoadASCIIGrid(path, layerCRS(indexCRS))
	if err != nil {
		return rasteralg.BandRef{}, err
	}
	return rasteralg.BandRef{Raster: r, Band: 0}, nil
}

func writeIndex(r *layer.RasterLayer) error {
	if err := gisio.SaveASCIIGrid(r, 0, indexOut); err != nil {
		return err
	}
	stats := r.Stats()[0]
	zap.L().Info("index written",
		zap.String("output", indexOut),
		zap.String("product", r.Name),
		zap.Float64("min", stats.Min),
		zap.Float64("max", stats.Max),
	)
	return nil
}

var ndviCmd = &cobra.Command{
	Use:   "ndvi <red.asc> <nir.asc>",
	Short: "Normalized difference vegetation index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		red, err := loadBand(args[0])
		if err != nil {
			return err
		}
		nir, err := loadBand(args[1])
		if err != nil {
			return err
		}
		out, err := rasteralg.NDVI(cmd.Context(), red, nir)
		if err != nil {
			return err
		}
		return writeIndex(out)
	},
}

var ndbiCmd = &cobra.Command{
	Use:   "ndbi <swir.asc> <nir.asc>",
	Short: "Normalized difference built-up index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		swir, err := loadBand(args[0])
		if err != nil {
			return err
		}
		nir, err := loadBand(args[1])
		if err != nil {
			return err
		}
		out, err := rasteralg.NDBI(cmd.Context(), swir, nir)
		if err != nil {
			return err
		}
		return writeIndex(out)
	},
}

var lstNDVIPath string

var lstCmd = &cobra.Command{
	Use:   "lst <thermal.asc>",
	Short: "Land surface temperature in Celsius from a thermal band",
	Long:  "Converts raw thermal samples through the configured radiometric calibration. With --ndvi the brightness temperature is corrected for NDVI-derived emissivity.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		thermal, err := loadBand(args[0])
		if err != nil {
			return err
		}
		var ndvi *layer.RasterLayer
		if lstNDVIPath != "" {
			ref, err := loadBand(lstNDVIPath)
			if err != nil {
				return err
			}
			ndvi = ref.Raster
		}
		out, err := rasteralg.LST(cmd.Context(), thermal, ndvi, cfg.Calibration)
		if err != nil {
			return err
		}
		return writeIndex(out)
	},
}

var uhiBaseline string

var uhiCmd = &cobra.Command{
	Use:   "uhi <lst.asc>",
	Short: "Urban heat island intensity from an LST raster",
	Long:  "Subtracts a baseline from LST. With --baseline the baseline is another raster on the same grid; without it the scene mean is used.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lst, err := loadBand(args[0])
		if err != nil {
			return err
		}
		var out *layer.RasterLayer
		if uhiBaseline != "" {
			baseline, err := loadBand(uhiBaseline)
			if err != nil {
				return err
			}
			out, err = rasteralg.UHI(cmd.Context(), lst, baseline)
			if err != nil {
				return err
			}
		} else {
			out, err = rasteralg.UHIFromMean(cmd.Context(), lst)
			if err != nil {
				return err
			}
		}
		return writeIndex(out)
	},
}

var overlayCmd = &cobra.Command{
	Use:   "overlay <lst.asc> <ndvi.asc> <ndbi.asc>",
	Short: "Heat overlay: LST minus the mean of NDVI and NDBI",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		lst, err := loadBand(args[0])
		if err != nil {
			return err
		}
		ndvi, err := loadBand(args[1])
		if err != nil {
			return err
		}
		ndbi, err := loadBand(args[2])
		if err != nil {
			return err
		}
		out, err := rasteralg.Overlay(cmd.Context(), lst, ndvi, ndbi)
		if err != nil {
			return err
		}
		return writeIndex(out)
	},
}

func init() {
	indexCmd.PersistentFlags().StringVarP(&indexOut, "out", "o", "", "output ASCII grid path")
	indexCmd.PersistentFlags().StringVar(&indexCRS, "crs", "", "input CRS code (default EPSG:4326)")
	_ = indexCmd.MarkPersistentFlagRequired("out")

	lstCmd.Flags().StringVar(&lstNDVIPath, "ndvi", "", "NDVI grid for emissivity correction")
	uhiCmd.Flags().StringVar(&uhiBaseline, "baseline", "", "baseline LST grid (default: scene mean)")

	indexCmd.AddCommand(ndviCmd, ndbiCmd, lstCmd, uhiCmd, overlayCmd)
	rootCmd.AddCommand(indexCmd)
}
