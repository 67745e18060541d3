package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/ledger-tools/pkg/journal"
)

// checkKinds are the hledger checks run against every journal.
var checkKinds = []string{
	"accounts", "assertions", "autobalanced", "balanced",
	"commodities", "ordereddates", "parseable", "payees", "tags",
}

// checkCmd represents the check command.
var checkCmd = &cobra.Command{
	Use:   "check [journals...]",
	Short: "Validate journals with hledger's check suite",
	Long: `Validate monthly journals by running hledger's built-in checks
(accounts, assertions, autobalanced, balanced, commodities, ordereddates,
parseable, payees, tags) against each one.

Journals unchanged since the last successful check run are skipped.
Without arguments every monthly journal under the ledger root is checked.

Example:
  ledger-tools check
  ledger-tools check 2024-01/main.journal`,
	Run: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) {
	env := newRunEnv("check")
	defer env.Close()

	journals, err := journal.FindMonthlyJournals(env.cfg.Ledger.Root, args)
	exitOnError(err, "failed to discover journals")

	runner, err := env.newRunner()
	exitOnError(err, "failed to set up hledger")

	sess, err := env.store.Begin(env.identity, journals)
	exitOnError(err, "failed to open run session")

	started := time.Now()
	slog.Info("checking journals",
		"candidates", len(journals),
		"to_process", len(sess.ToProcess),
		"skipped", len(sess.Skipped),
	)

	runErr := forEachJournal(cmd.Context(), sess.ToProcess, func(ctx context.Context, j string) error {
		checkArgs := append([]string{"check"}, checkKinds...)
		if _, err := runner.Run(ctx, j, checkArgs...); err != nil {
			return err
		}
		return sess.ReportSuccess(j)
	})

	closeErr := sess.Close(runErr)
	env.recordRun("check", started, len(journals), len(sess.Reported()), len(sess.Skipped), closeErr)
	exitOnError(closeErr, "check failed")

	fmt.Printf("Checked %d journals (%d skipped, unchanged)\n",
		len(sess.ToProcess), len(sess.Skipped))
}
