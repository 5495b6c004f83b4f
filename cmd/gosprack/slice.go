package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/philipparndt/gosprack/internal/app"
)

var (
	sliceCount     int
	sliceThickness float64
	sliceHeights   []float64
	sliceWidth     int
	sliceHeight    int
	sliceOut       string
	sliceSheet     string
	sliceScale     int
	sliceLabels    bool
	sliceBundle    string
	sliceSave      string
)

var sliceCmd = &cobra.Command{
	Use:   "slice [file]",
	Short: "Slice a model into layer PNGs",
	Long: `Slice a model into horizontal layers and write one PNG per layer.

Layers are evenly spaced by default. Use --heights to place layers at
explicit height percentages instead. The result can additionally be written
as a sprite sheet, a .sprack bundle or a project in the configured store.`,
	Args: cobra.ExactArgs(1),
	RunE: runSlice,
}

func init() {
	rootCmd.AddCommand(sliceCmd)
	addSliceFlags(sliceCmd)

	sliceCmd.Flags().StringVar(&sliceSheet, "sheet", "", "Write a sprite sheet PNG to this path")
	sliceCmd.Flags().IntVar(&sliceScale, "scale", 1, "Sprite sheet scale factor")
	sliceCmd.Flags().BoolVar(&sliceLabels, "labels", false, "Draw layer names under sprite sheet frames")
	sliceCmd.Flags().StringVar(&sliceBundle, "bundle", "", "Write a .sprack bundle to this path")
	sliceCmd.Flags().StringVar(&sliceSave, "save", "", "Save the result as a named project in the store")
}

// addSliceFlags registers the flags shared by slice and watch
func addSliceFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&sliceCount, "count", "n", 0, "Number of evenly spaced layers (default from config)")
	cmd.Flags().Float64VarP(&sliceThickness, "thickness", "t", 0, "Layer thickness in percent (default from config)")
	cmd.Flags().Float64SliceVar(&sliceHeights, "heights", nil, "Explicit layer heights in percent")
	cmd.Flags().IntVar(&sliceWidth, "width", 0, "Layer width in pixels (default from config)")
	cmd.Flags().IntVar(&sliceHeight, "height", 0, "Layer height in pixels (default from config)")
	cmd.Flags().StringVarP(&sliceOut, "out", "o", "slices", "Output directory for layer PNGs")
}

// applySliceFlags overrides the config with explicitly set flags
func applySliceFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("count") {
		cfg.Layers.Count = sliceCount
	}
	if cmd.Flags().Changed("thickness") {
		cfg.Layers.Thickness = sliceThickness
	}
	if cmd.Flags().Changed("width") {
		cfg.Layers.Width = sliceWidth
	}
	if cmd.Flags().Changed("height") {
		cfg.Layers.Height = sliceHeight
	}
}

// createLayers builds the layer set on a session with a loaded model
func createLayers(a *app.App) error {
	if len(sliceHeights) == 0 {
		_, err := a.Layers.CreateEvenlySpacedLayers(cfg.Layers.Count, cfg.Layers.Thickness)
		return err
	}
	for i, h := range sliceHeights {
		if _, err := a.Layers.CreateLayer(h, cfg.Layers.Thickness, fmt.Sprintf("Layer %d", i+1)); err != nil {
			return err
		}
	}
	return nil
}

func runSlice(cmd *cobra.Command, args []string) error {
	applySliceFlags(cmd)

	ctx := cmd.Context()
	a, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.LoadModel(ctx, args[0]); err != nil {
		return err
	}
	if err := createLayers(a); err != nil {
		return err
	}

	written, err := writeSlices(a, sliceOut)
	if err != nil {
		return err
	}
	slog.Info("slices written", "count", len(written), "dir", sliceOut)

	if sliceSheet != "" {
		sheet, err := a.SpriteSheet(sliceScale, sliceLabels)
		if err != nil {
			return err
		}
		if err := writePNG(sliceSheet, sheet); err != nil {
			return err
		}
		slog.Info("sprite sheet written", "path", sliceSheet)
	}

	if sliceBundle != "" {
		if err := writeBundle(a, sliceBundle); err != nil {
			return err
		}
		slog.Info("bundle written", "path", sliceBundle)
	}

	if sliceSave != "" {
		info, err := a.SaveProject(ctx, sliceSave)
		if err != nil {
			return err
		}
		fmt.Printf("Saved project %s (%d bytes, etag %s)\n", info.Key, info.Size, info.ETag)
	}

	for _, path := range written {
		fmt.Println(filepath.ToSlash(path))
	}
	return nil
}
