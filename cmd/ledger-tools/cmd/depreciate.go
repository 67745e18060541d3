package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/ledger-tools/pkg/config"
	"github.com/shunichi-ikebuchi/ledger-tools/pkg/journal"
	"github.com/shunichi-ikebuchi/ledger-tools/pkg/transform"
)

var (
	depreciateFrom string
	depreciateTo   string
)

// depreciateCmd represents the depreciate command.
var depreciateCmd = &cobra.Command{
	Use:   "depreciate <item> <amount> <currency>",
	Short: "Insert month-end depreciation entries",
	Long: `Insert a depreciation posting for one item into every selected
monthly journal. If the journal already has a depreciation transaction on
the month's final day the posting is appended to it; otherwise a whole new
month-end transaction is appended.

The expense and accumulated-depreciation accounts and the timezone tag come
from the YAML profile named by LEDGER_DEPRECIATION_PROFILE, with defaults
when unset.

Journals unchanged since the last successful depreciate run are skipped.

Example:
  ledger-tools depreciate --from 2024-01 --to 2024-12 laptop -35.42 USD`,
	Args: cobra.ExactArgs(3),
	Run:  runDepreciate,
}

func init() {
	depreciateCmd.Flags().StringVarP(&depreciateFrom, "from", "f", "", "start of the period (YYYY[-MM[-DD]])")
	depreciateCmd.Flags().StringVarP(&depreciateTo, "to", "t", "", "end of the period (YYYY[-MM[-DD]])")
}

func runDepreciate(cmd *cobra.Command, args []string) {
	item := args[0]
	amount, err := journal.ParseAmount(args[1])
	exitOnError(err, "invalid amount")
	currency := args[2]

	from, to, err := parsePeriodFlags(depreciateFrom, depreciateTo)
	exitOnError(err, "invalid period")

	env := newRunEnv("depreciate")
	defer env.Close()

	profile, err := config.LoadDepreciationProfile(env.cfg.Ledger.DepreciationProfile)
	exitOnError(err, "failed to load depreciation profile")

	journals, err := journal.FindMonthlyJournals(env.cfg.Ledger.Root, nil)
	exitOnError(err, "failed to discover journals")
	journals = journal.FilterBetween(journals, from, to)

	sess, err := env.store.Begin(env.identity, journals)
	exitOnError(err, "failed to open run session")

	started := time.Now()
	slog.Info("inserting depreciation entries",
		"item", item,
		"amount", journal.FormatAmount(amount),
		"currency", currency,
		"candidates", len(journals),
		"to_process", len(sess.ToProcess),
		"skipped", len(sess.Skipped),
	)

	dep := &transform.Depreciation{
		Item:     item,
		Amount:   amount,
		Currency: currency,
		Profile:  profile,
	}

	runErr := forEachJournal(cmd.Context(), sess.ToProcess, func(ctx context.Context, j string) error {
		lastDate, err := journal.MonthEndDate(j)
		if err != nil {
			return err
		}
		if _, err := journal.UpdateFileIfChanged(j, func(read string) string {
			return dep.Apply(read, lastDate)
		}); err != nil {
			return err
		}
		return sess.ReportSuccess(j)
	})

	closeErr := sess.Close(runErr)
	env.recordRun("depreciate", started, len(journals), len(sess.Reported()), len(sess.Skipped), closeErr)
	exitOnError(closeErr, "depreciate failed")

	fmt.Printf("Depreciated %s in %d journals (%d skipped, unchanged)\n",
		item, len(sess.ToProcess), len(sess.Skipped))
}
