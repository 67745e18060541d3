// Package cmd provides CLI commands for ledger-tools.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	cfgFile string
	debug   bool
	logFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ledger-tools",
	Short: "Maintain a tree of monthly hledger journals",
	Long: `ledger-tools maintains a plain-text accounting tree of monthly
hledger journals (one YYYY-MM directory per month).

It supports:
- Validating journals with hledger's check suite
- Canonical reformatting via hledger print
- Literal text replacement across all journals
- Shifting balance assertions of one account by a fixed amount
- Inserting month-end depreciation entries
- Run statistics from the SQLite run history

Journals whose content is unchanged since the last successful run of the
same command are skipped via a content-addressed cache; rebuilding the
binary or editing a configured prelude file invalidates the cache.

Example:
  ledger-tools check
  ledger-tools format --check
  ledger-tools shift --from 2024-01 --to 2024-06 assets:bank 100 USD
  ledger-tools stats`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}

		var w io.Writer = os.Stderr
		if logFile != "" {
			w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
			})
		}

		logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also log to a rotating file")

	// Add subcommands
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(formatCmd)
	rootCmd.AddCommand(replaceCmd)
	rootCmd.AddCommand(shiftCmd)
	rootCmd.AddCommand(depreciateCmd)
	rootCmd.AddCommand(statsCmd)
}

// Helper function to get config file path.
func getConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "" // Will use default .env loading
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
