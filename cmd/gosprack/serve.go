package main

import (
	"github.com/spf13/cobra"

	"github.com/philipparndt/gosprack/internal/server"
)

var (
	serveAddr  string
	serveModel string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the slicing session over HTTP",
	Long:  "Start an HTTP API for loading models, editing layers, rendering previews and managing stored projects.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().StringVarP(&serveModel, "model", "m", "", "Model to load on startup")
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "Re-slice when the startup model changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signalContext()
	defer stop()

	a, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if serveModel != "" {
		if serveWatch {
			err = a.Watch(ctx, serveModel, nil)
		} else {
			_, err = a.LoadModel(ctx, serveModel)
		}
		if err != nil {
			return err
		}
	}

	return server.New(a).Run(ctx, cfg.Server.Addr)
}
