package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/poolkit/internal/logger"
)

var (
	// Global flags
	verbose bool
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:   "pooldemo",
	Short: "Exercise fixed-block pool allocators",
	Long: `pooldemo drives the poolkit block pool through a small workload:
ordered maps and vectors filled from a pool and from the Go heap, with
per-pool statistics on request.

Pool settings come from POOLKIT_* environment variables and can be
overridden with flags.`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(logger.Options{
			Enabled: verbose,
			Writer:  cmd.ErrOrStderr(),
			Level:   slog.LevelDebug,
			JSON:    jsonOut,
		})
	},
	SilenceUsage: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging to stderr")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output statistics and logs in JSON format")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// printJSON outputs data as indented JSON
func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
