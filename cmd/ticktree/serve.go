package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ticktree/ticktree/internal/core/storage"
	"github.com/ticktree/ticktree/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the live monitor server",
	Long: `Starts the tick loop and serves the monitor page, the websocket tick
stream and the JSON API over HTTP. Flags left unset fall back to TICKTREE_*
environment variables, optionally loaded from a .env file.`,
	Run: func(cmd *cobra.Command, args []string) {
		// .env is optional
		_ = godotenv.Load()

		addr := flagOrEnv(cmd, "addr", "TICKTREE_ADDR")
		dbPath := flagOrEnv(cmd, "db", "TICKTREE_DB")
		interval, _ := cmd.Flags().GetDuration("interval")
		historyLimit, _ := cmd.Flags().GetInt("history-limit")

		build, err := treeBuilder(cmd)
		if err != nil {
			fmt.Printf("Error loading tree: %v\n", err)
			os.Exit(1)
		}

		var store *storage.Store
		switch dbPath {
		case "":
		case "default":
			store, err = storage.OpenDefault()
		default:
			store, err = storage.Open(dbPath)
		}
		if err != nil {
			fmt.Printf("Error opening tick store: %v\n", err)
			os.Exit(1)
		}

		srv := server.New(server.Config{
			Addr:         addr,
			TickInterval: interval,
			HistoryLimit: historyLimit,
			Store:        store,
			Log:          newLogger(cmd),
		}, build)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Monitor listening on %s\n", addr)
		err = srv.Start(ctx)
		if store != nil {
			_ = store.Close()
		}
		if err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Monitor stopped gracefully")
	},
}

func flagOrEnv(cmd *cobra.Command, flag, env string) string {
	v, _ := cmd.Flags().GetString(flag)
	if !cmd.Flags().Changed(flag) {
		if ev := os.Getenv(env); ev != "" {
			v = ev
		}
	}
	return v
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", ":8080", "HTTP listen address")
	serveCmd.Flags().Duration("interval", 100*time.Millisecond, "Tick interval")
	serveCmd.Flags().String("db", "", `SQLite tick history path ("default" for ~/.ticktree/ticks.db, empty disables persistence)`)
	serveCmd.Flags().Int("history-limit", 200, "Maximum records served by /api/history")
}
