package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/philipparndt/gosprack/version"
)

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print build information",
	Args:              cobra.NoArgs,
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gosprack %s\n", version.GetVersion())
		fmt.Printf("  Commit: %s\n", version.GitCommit)
		fmt.Printf("  Built:  %s\n", version.BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
