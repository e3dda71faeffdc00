package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ticktree/ticktree/internal/core/bt"
)

var renderCmd = &cobra.Command{
	Use:   "render [config]",
	Short: "Print a tree without running it",
	Long:  `Loads a tree config (or the built-in squad demo) and prints its structure.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 && !cmd.Flags().Changed("config") {
			_ = cmd.Flags().Set("config", args[0])
		}
		build, err := treeBuilder(cmd)
		if err != nil {
			fmt.Printf("Error loading tree: %v\n", err)
			os.Exit(1)
		}
		tree, _ := build()

		ascii, _ := cmd.Flags().GetBool("ascii")
		if ascii {
			fmt.Print(bt.RenderTreeASCII(tree.Root()))
			return
		}
		fmt.Print(bt.RenderTree(tree.Root()))
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().Bool("ascii", false, "Plain ASCII connectors without state icons")
}
