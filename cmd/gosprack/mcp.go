package main

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/philipparndt/gosprack/internal/mcptools"
)

var mcpModel string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server on stdin/stdout",
	Long: `Expose the slicing session as Model Context Protocol tools over stdio.
Logs go to stderr so they do not interfere with the protocol stream.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().StringVarP(&mcpModel, "model", "m", "", "Model to load on startup")
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := newSession(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if mcpModel != "" {
		if _, err := a.LoadModel(ctx, mcpModel); err != nil {
			return err
		}
	}

	slog.Info("mcp server started", "storage", a.Store.Driver())
	return mcptools.NewServer(a).Run(ctx, &mcp.StdioTransport{})
}
