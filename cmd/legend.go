package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/geocore/internal/gisio"
	"github.com/sells-group/geocore/internal/layer"
	"github.com/sells-group/geocore/internal/render"
)

var (
	legendClasses int
	legendMode    string
	legendOut     string
	legendWidth   int
	legendHeight  int
)

var legendCmd = &cobra.Command{
	Use:   "legend <input.asc>",
	Short: "Derive legend classes from a raster and print them",
	Long:  "Bins the raster's value distribution into classes (equal-interval or quantile) colored from the default gradient. With --out the swatch strip is also written as a PNG.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := gisio.LoadASCIIGrid(args[0], layer.WGS84)
		if err != nil {
			return err
		}
		mode, err := render.ParseClassMode(legendMode)
		if err != nil {
			return err
		}

		classes, err := render.Legend(r, 0, legendClasses, mode, layer.DefaultRamp())
		if err != nil {
			return err
		}
		for i, c := range classes {
			fmt.Printf("%2d  %12.4f .. %-12.4f  %s\n", i+1, c.From, c.To, gisio.FormatHexColor(c.Color))
		}

		if legendOut != "" {
			img := render.RenderLegend(classes, legendWidth, legendHeight)
			if err := gisio.WritePNG(img, legendOut); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	legendCmd.Flags().IntVarP(&legendClasses, "classes", "c", 5, "number of legend classes")
	legendCmd.Flags().StringVarP(&legendMode, "mode", "m", "equal", "classification: equal or quantile")
	legendCmd.Flags().StringVarP(&legendOut, "out", "o", "", "optional swatch strip PNG path")
	legendCmd.Flags().IntVar(&legendWidth, "width", 300, "swatch strip width")
	legendCmd.Flags().IntVar(&legendHeight, "height", 24, "swatch strip height")
	rootCmd.AddCommand(legendCmd)
}
