package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [file]",
	Short: "Re-slice a model whenever it changes",
	Long: `Slice a model and rewrite the layer PNGs every time the file changes.
For OpenSCAD sources every included or used file is watched as well.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addSliceFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	applySliceFlags(cmd)

	ctx, stop := signalContext()
	defer stop()

	a, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	write := func() {
		written, err := writeSlices(a, sliceOut)
		if err != nil {
			slog.Error("failed to write slices", "error", err)
			return
		}
		slog.Info("slices written", "count", len(written), "dir", sliceOut)
	}

	err = a.Watch(ctx, args[0], func(err error) {
		if err == nil {
			write()
		}
	})
	if err != nil {
		return err
	}
	if err := createLayers(a); err != nil {
		return err
	}
	write()

	<-ctx.Done()
	slog.Info("stopped watching")
	return nil
}
