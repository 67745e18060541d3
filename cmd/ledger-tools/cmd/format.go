package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/ledger-tools/pkg/journal"
	"github.com/shunichi-ikebuchi/ledger-tools/pkg/transform"
)

var formatCheck bool

// formatCmd represents the format command.
var formatCmd = &cobra.Command{
	Use:   "format [journals...]",
	Short: "Rewrite journals into hledger's canonical form",
	Long: `Rewrite monthly journals into the canonical form produced by
hledger print, preserving any include header lines and sorting comment
key:value properties. Files are only rewritten when the canonical form
differs from the current content.

The transform depends on the journal content alone, but hledger print
output can change between hledger versions, so format always re-reads
every journal instead of consulting the run cache.

Example:
  ledger-tools format
  ledger-tools format --check`,
	Run: runFormat,
}

func init() {
	formatCmd.Flags().BoolVar(&formatCheck, "check", false, "list files that would change and exit non-zero")
}

func runFormat(cmd *cobra.Command, args []string) {
	env := newRunEnv("format")
	defer env.Close()

	journals, err := journal.FindMonthlyJournals(env.cfg.Ledger.Root, args)
	exitOnError(err, "failed to discover journals")

	runner, err := env.newRunner()
	exitOnError(err, "failed to set up hledger")

	started := time.Now()
	slog.Info("formatting journals", "candidates", len(journals), "check_only", formatCheck)

	var (
		mu      sync.Mutex
		changed []string
	)

	runErr := forEachJournal(cmd.Context(), journals, func(ctx context.Context, j string) error {
		res, err := runner.Run(ctx, j, "print")
		if err != nil {
			return err
		}

		if formatCheck {
			data, err := os.ReadFile(j)
			if err != nil {
				return fmt.Errorf("failed to read journal: %w", err)
			}
			if transform.Format(string(data), res.Stdout) == string(data) {
				return nil
			}
		} else {
			wrote, err := journal.UpdateFileIfChanged(j, func(read string) string {
				return transform.Format(read, res.Stdout)
			})
			if err != nil {
				return err
			}
			if !wrote {
				return nil
			}
		}

		mu.Lock()
		changed = append(changed, j)
		mu.Unlock()
		return nil
	})

	sort.Strings(changed)
	env.recordRun("format", started, len(journals), len(changed), len(journals)-len(changed), runErr)
	exitOnError(runErr, "format failed")

	if formatCheck {
		if len(changed) > 0 {
			fmt.Println(journal.FormatList(changed, 20))
			fmt.Println("not formatted")
			os.Exit(1)
		}
		fmt.Printf("All %d journals formatted\n", len(journals))
		return
	}

	fmt.Printf("Formatted %d of %d journals\n", len(changed), len(journals))
}
