package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/philipparndt/gosprack/internal/stack"
)

var (
	stackScale   int
	stackAngle   float64
	stackSpacing float64
	stackOut     string
)

var stackCmd = &cobra.Command{
	Use:   "stack [file]",
	Short: "Render a sprite-stack preview of a model",
	Long:  "Slice a model and composite the layers bottom to top into a single rotated sprite-stack image.",
	Args:  cobra.ExactArgs(1),
	RunE:  runStack,
}

func init() {
	rootCmd.AddCommand(stackCmd)

	stackCmd.Flags().IntVarP(&sliceCount, "count", "n", 0, "Number of evenly spaced layers (default from config)")
	stackCmd.Flags().Float64VarP(&sliceThickness, "thickness", "t", 0, "Layer thickness in percent (default from config)")
	stackCmd.Flags().IntVar(&sliceWidth, "width", 0, "Layer width in pixels (default from config)")
	stackCmd.Flags().IntVar(&sliceHeight, "height", 0, "Layer height in pixels (default from config)")
	stackCmd.Flags().IntVarP(&stackScale, "scale", "s", 4, "Scale factor")
	stackCmd.Flags().Float64VarP(&stackAngle, "angle", "a", 45, "Rotation in degrees")
	stackCmd.Flags().Float64Var(&stackSpacing, "spacing", 1, "Pixel offset between layers before scaling")
	stackCmd.Flags().StringVarP(&stackOut, "out", "o", "stack.png", "Output PNG path")
}

func runStack(cmd *cobra.Command, args []string) error {
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

	img, err := a.StackPreview(stack.PreviewOptions{
		Scale:   stackScale,
		Angle:   stackAngle,
		Spacing: stackSpacing,
	})
	if err != nil {
		return err
	}
	if err := writePNG(stackOut, img); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%dx%d, %d layers)\n", stackOut, img.Bounds().Dx(), img.Bounds().Dy(), a.Layers.Len())
	return nil
}
