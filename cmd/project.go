package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geocore/internal/gisio"
	"github.com/sells-group/geocore/internal/layer"
	"github.com/sells-group/geocore/internal/render"
	"github.com/sells-group/geocore/internal/store"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Save and reopen named layer manifests",
	Long:  "A project records layer sources, styles, and stacking order so a session can be rebuilt. Layer data stays in its source files; the project stores only the manifest.",
}

func openProjectStore() (*store.SQLiteStore, error) {
	s, err := store.NewSQLite(cfg.Project.Path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

var (
	projVectors []string
	projRasters []string
	projCRS     string
)

var projectSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save a project manifest from layer specs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		crs := layerCRS(projCRS)

		var layers []store.ProjectLayer
		add := func(spec, kind string) error {
			path, stylePath := splitSpec(spec)
			pl := store.ProjectLayer{
				Name:    path,
				Kind:    kind,
				Source:  path,
				CRS:     crs.Code,
				ZOrder:  len(layers),
				Visible: true,
			}
			if stylePath != "" {
				raw, err := os.ReadFile(stylePath)
				if err != nil {
					return eris.Wrapf(err, "read style %s", stylePath)
				}
				pl.Style = string(raw)
			}
			layers = append(layers, pl)
			return nil
		}
		for _, spec := range projRasters {
			if err := add(spec, "raster"); err != nil {
				return err
			}
		}
		for _, spec := range projVectors {
			if err := add(spec, "vector"); err != nil {
				return err
			}
		}
		if len(layers) == 0 {
			return eris.New("project: no layers given")
		}

		s, err := openProjectStore()
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Migrate(ctx); err != nil {
			return err
		}

		p := &store.Project{Name: args[0], Layers: layers}
		if err := s.SaveProject(ctx, p); err != nil {
			return err
		}
		zap.L().Info("project saved", zap.String("name", p.Name), zap.Int("layers", len(p.Layers)))
		return nil
	},
}

var projectOpenOut string

var projectOpenCmd = &cobra.Command{
	Use:   "open <name>",
	Short: "Rebuild a project's layer stack, optionally rendering it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := openProjectStore()
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Migrate(ctx); err != nil {
			return err
		}

		p, err := s.GetProject(ctx, args[0])
		if err != nil {
			return err
		}

		var entries []layer.StackEntry
		for _, pl := range p.Layers {
			e, err := manifestEntry(pl)
			if err != nil {
				return err
			}
			entries = append(entries, e)
			fmt.Printf("%-7s %-40s %s\n", pl.Kind, pl.Source, pl.CRS)
		}

		if projectOpenOut != "" {
			bounds := combinedBounds(entries)
			if bounds == nil {
				return eris.Errorf("project %s: layers have no extent", p.Name)
			}
			vp := render.FitBounds(bounds, cfg.Render.Width, cfg.Render.Height, cfg.Render.Margin)
			img, err := render.Composite(entries, vp)
			if err != nil {
				return err
			}
			if err := gisio.WritePNG(img, projectOpenOut); err != nil {
				return err
			}
			zap.L().Info("project rendered", zap.String("name", p.Name), zap.String("output", projectOpenOut))
		}
		return nil
	},
}

// manifestEntry loads one manifest layer back into a stack entry.
func manifestEntry(pl store.ProjectLayer) (layer.StackEntry, error) {
	crs := layer.CRS{Code: pl.CRS}
	e := layer.StackEntry{ID: uuid.New(), Visible: pl.Visible}

	switch pl.Kind {
	case "raster":
		r, err := gisio.LoadASCIIGrid(pl.Source, crs)
		if err != nil {
			return layer.StackEntry{}, err
		}
		e.Layer = r
		e.Style = layer.Style{Raster: layer.DefaultRasterStyle()}
	case "vector":
		v, err := gisio.LoadShapefile(pl.Source, crs)
		if err != nil {
			return layer.StackEntry{}, err
		}
		e.Layer = v
		e.Style = layer.Style{Vector: layer.DefaultVectorStyle()}
	default:
		return layer.StackEntry{}, eris.Errorf("project: unknown layer kind %q", pl.Kind)
	}

	if pl.Style != "" {
		style, err := gisio.ParseStyle([]byte(pl.Style))
		if err != nil {
			return layer.StackEntry{}, err
		}
		e.Style = style
	}
	return e, nil
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := openProjectStore()
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Migrate(ctx); err != nil {
			return err
		}

		projects, err := s.ListProjects(ctx)
		if err != nil {
			return err
		}
		for _, p := range projects {
			fmt.Printf("%-24s %2d layers  updated %s\n",
				p.Name, len(p.Layers), p.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		s, err := openProjectStore()
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Migrate(ctx); err != nil {
			return err
		}
		return s.DeleteProject(ctx, args[0])
	},
}

func init() {
	projectSaveCmd.Flags().StringArrayVar(&projVectors, "vector", nil, "shapefile layer spec (repeatable)")
	projectSaveCmd.Flags().StringArrayVar(&projRasters, "raster", nil, "ASCII grid layer spec (repeatable)")
	projectSaveCmd.Flags().StringVar(&projCRS, "crs", "", "CRS code recorded for all layers (default EPSG:4326)")

	projectOpenCmd.Flags().StringVarP(&projectOpenOut, "render", "r", "", "composite the stack to this PNG")

	projectCmd.AddCommand(projectSaveCmd, projectOpenCmd, projectListCmd, projectDeleteCmd)
	rootCmd.AddCommand(projectCmd)
}
