package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ticktree/ticktree/internal/bot"
	"github.com/ticktree/ticktree/internal/core/bt"
	"github.com/ticktree/ticktree/internal/core/observability/log"
	"github.com/ticktree/ticktree/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "ticktree",
	Short: "Ticktree runs and monitors behavior trees",
	Long: `Ticktree ticks behavior trees loaded from YAML/JSON configs or the
built-in squad demo, and can serve a live monitor over HTTP and websockets.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Tree config file (YAML or JSON); empty uses the built-in squad demo")
	rootCmd.PersistentFlags().String("role", "follower", "Squad demo role: leader or follower")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
}

func newLogger(cmd *cobra.Command) log.Log {
	levelStr, _ := cmd.Flags().GetString("log-level")
	return log.New(log.ParseLevel(levelStr))
}

// treeBuilder resolves --config/--role into a build function. Config files
// are parsed and built once up front so bad configs fail before anything
// starts; the returned function rebuilds fresh node instances on every call.
func treeBuilder(cmd *cobra.Command) (server.BuildFunc, error) {
	path, _ := cmd.Flags().GetString("config")
	roleStr, _ := cmd.Flags().GetString("role")

	if path == "" {
		role := bot.Role(roleStr)
		if role != bot.RoleLeader && role != bot.RoleFollower {
			return nil, fmt.Errorf("unknown role %q (want leader or follower)", roleStr)
		}
		cfg := bot.Config{Role: role}
		return func() (*bt.BehaviorTree, []bt.Sensor) {
			return bot.NewTree(cfg), bot.Sensors(cfg)
		}, nil
	}

	cfg, err := bt.LoadFile(path)
	if err != nil {
		return nil, err
	}
	reg := bt.NewRegistry()
	bt.RegisterBuiltins(reg)
	bt.RegisterSensors(reg)
	if _, _, err := cfg.Build(reg); err != nil {
		return nil, err
	}
	name := cfg.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return func() (*bt.BehaviorTree, []bt.Sensor) {
		root, sensors, err := cfg.Build(reg)
		if err != nil {
			// the config already built once at startup
			panic(err)
		}
		return bt.New(name, root), sensors
	}, nil
}
