package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/ledger-tools/pkg/config"
	"github.com/shunichi-ikebuchi/ledger-tools/pkg/db"
	"github.com/shunichi-ikebuchi/ledger-tools/pkg/pathutil"
)

var statsCommand string

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display run statistics",
	Long: `Display statistics from the run history database.

Shows:
- Total, successful and failed runs
- Total processed and skipped journals
- The most recent runs, optionally filtered by command

Example:
  ledger-tools stats
  ledger-tools stats --command check`,
	Run: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsCommand, "command", "", "only list recent runs of this command")
}

func runStats(cmd *cobra.Command, args []string) {
	slog.Info("Loading configuration")

	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")
	exitOnError(cfg.Validate("ledger.root"), "invalid configuration")

	exe, err := os.Executable()
	exitOnError(err, "failed to locate executable")

	pathResolver := pathutil.New(pathutil.Config{
		LedgerRoot:   cfg.Ledger.Root,
		CachePath:    cfg.Ledger.CachePath,
		DatabasePath: cfg.Ledger.DBPath,
		ToolName:     strings.TrimSuffix(filepath.Base(exe), filepath.Ext(exe)),
	})

	dbPath := pathResolver.DatabasePath()
	slog.Debug("Opening database", "path", dbPath)

	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	history := db.NewRunHistory(conn)

	stats, err := history.GetStats()
	exitOnError(err, "failed to get statistics")

	fmt.Println("\n=== Run Statistics ===")
	fmt.Printf("Total runs:        %d\n", stats.TotalRuns)
	fmt.Printf("Successful runs:   %d\n", stats.SuccessfulRuns)
	fmt.Printf("Failed runs:       %d\n", stats.FailedRuns)
	fmt.Printf("Journals processed: %d\n", stats.TotalProcessed)
	fmt.Printf("Journals skipped:   %d\n", stats.TotalSkipped)

	if stats.LastRun.Valid {
		fmt.Printf("Last run:          %s\n", stats.LastRun.String)
	} else {
		fmt.Printf("Last run:          (never)\n")
	}

	recent, err := history.RecentRuns(statsCommand, 10)
	exitOnError(err, "failed to get recent runs")

	if len(recent) > 0 {
		fmt.Println("\n=== Recent Runs ===")
		for _, r := range recent {
			fmt.Printf("%s  %-10s %-7s candidates=%d processed=%d skipped=%d\n",
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Command, string(r.Outcome), r.Candidates, r.Processed, r.Skipped)
		}
	}

	fmt.Println()
}
