package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is overridden by -ldflags on release builds.
var version = "0.1.0-dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ticktree",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ticktree version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
