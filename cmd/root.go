package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geocore/internal/config"
	"github.com/sells-group/geocore/internal/geometry"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "geocore",
	Short: "Desktop geospatial analysis engine",
	Long:  "Runs vector geoprocessing (buffer, clip, intersect), raster band algebra (NDVI, NDBI, LST, UHI), and layer compositing over shapefiles, ASCII grids, and PostGIS tables.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		geometry.SetEpsilon(cfg.Geometry.Epsilon)

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
