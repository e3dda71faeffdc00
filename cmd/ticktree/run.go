package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ticktree/ticktree/internal/core/bt"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Tick a tree in the foreground",
	Long: `Runs the agent loop in the foreground, printing one line per tick.
With --ticks it steps a fixed number of times as fast as possible and exits;
otherwise it ticks on the interval until interrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		build, err := treeBuilder(cmd)
		if err != nil {
			fmt.Printf("Error loading tree: %v\n", err)
			os.Exit(1)
		}
		ticks, _ := cmd.Flags().GetInt("ticks")
		interval, _ := cmd.Flags().GetDuration("interval")
		stats, _ := cmd.Flags().GetBool("stats")
		quiet, _ := cmd.Flags().GetBool("quiet")
		render, _ := cmd.Flags().GetBool("render")

		tree, sensors := build()
		agent := bt.NewAgent(tree,
			bt.WithSensors(sensors...),
			bt.WithInterval(interval),
			bt.WithLogger(newLogger(cmd)),
			bt.WithOnTick(func(rep bt.TickReport) {
				if quiet {
					return
				}
				fmt.Printf("tick %4d  %-7s %8.2fms\n",
					rep.TickID, rep.State, float64(rep.Duration)/float64(time.Millisecond))
				if render {
					fmt.Print(bt.RenderTree(tree.Root()))
					fmt.Println()
				}
			}),
		)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if ticks > 0 {
			for i := 0; i < ticks && ctx.Err() == nil; i++ {
				agent.Step(ctx)
			}
		} else {
			if err := agent.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				fmt.Printf("Agent error: %v\n", err)
				os.Exit(1)
			}
		}

		fmt.Println()
		fmt.Print(bt.RenderTree(tree.Root()))
		if stats {
			fmt.Println()
			fmt.Print(bt.RenderStats(tree.Root()))
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("ticks", 0, "Stop after this many ticks (0 runs until interrupted)")
	runCmd.Flags().Duration("interval", 100*time.Millisecond, "Tick interval")
	runCmd.Flags().Bool("render", false, "Render the full tree after every tick")
	runCmd.Flags().Bool("stats", false, "Print accumulated per-node runtimes on exit")
	runCmd.Flags().BoolP("quiet", "q", false, "Suppress the per-tick line")
}
