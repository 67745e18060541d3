package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/ledger-tools/pkg/journal"
	"github.com/shunichi-ikebuchi/ledger-tools/pkg/transform"
)

var (
	shiftFrom string
	shiftTo   string
)

// shiftCmd represents the shift command.
var shiftCmd = &cobra.Command{
	Use:   "shift <account> <amount> <currency>",
	Short: "Shift an account's balance assertions by a fixed amount",
	Long: `Shift the balance assertions of one account by a fixed amount
inside a date window. Postings of the form

    <account>  <amount> <currency> = <amount> <currency>

are rewritten: the asserted amount moves everywhere except inside closing
balances transactions, and the posted amount moves only inside opening and
closing balances transactions, keeping running balances consistent across
month boundaries.

Journals unchanged since the last successful shift run are skipped.

Example:
  ledger-tools shift --from 2024-01 --to 2024-06 assets:bank 100 USD`,
	Args: cobra.ExactArgs(3),
	Run:  runShift,
}

func init() {
	shiftCmd.Flags().StringVarP(&shiftFrom, "from", "f", "", "start of the period (YYYY[-MM[-DD]])")
	shiftCmd.Flags().StringVarP(&shiftTo, "to", "t", "", "end of the period (YYYY[-MM[-DD]])")
}

// parsePeriodFlags turns the optional --from/--to values into an inclusive
// window; an empty value leaves that side of the window open.
func parsePeriodFlags(from, to string) (*time.Time, *time.Time, error) {
	var fromTime, toTime *time.Time

	if from != "" {
		dt, err := journal.ParsePeriodStart(from)
		if err != nil {
			return nil, nil, err
		}
		fromTime = &dt
	}
	if to != "" {
		dt, err := journal.ParsePeriodEnd(to)
		if err != nil {
			return nil, nil, err
		}
		toTime = &dt
	}
	return fromTime, toTime, nil
}

func runShift(cmd *cobra.Command, args []string) {
	account := args[0]
	amount, err := journal.ParseAmount(args[1])
	exitOnError(err, "invalid amount")
	currency := args[2]

	from, to, err := parsePeriodFlags(shiftFrom, shiftTo)
	exitOnError(err, "invalid period")

	env := newRunEnv("shift")
	defer env.Close()

	journals, err := journal.FindMonthlyJournals(env.cfg.Ledger.Root, nil)
	exitOnError(err, "failed to discover journals")
	journals = journal.FilterBetween(journals, from, to)

	sess, err := env.store.Begin(env.identity, journals)
	exitOnError(err, "failed to open run session")

	started := time.Now()
	slog.Info("shifting balance assertions",
		"account", account,
		"amount", journal.FormatAmount(amount),
		"currency", currency,
		"candidates", len(journals),
		"to_process", len(sess.ToProcess),
		"skipped", len(sess.Skipped),
	)

	shift := transform.NewShift(account, amount, currency, from, to)

	runErr := forEachJournal(cmd.Context(), sess.ToProcess, func(ctx context.Context, j string) error {
		if _, err := journal.UpdateFileIfChanged(j, shift.Apply); err != nil {
			return err
		}
		return sess.ReportSuccess(j)
	})

	closeErr := sess.Close(runErr)
	env.recordRun("shift", started, len(journals), len(sess.Reported()), len(sess.Skipped), closeErr)
	exitOnError(closeErr, "shift failed")

	fmt.Printf("Shifted %s by %s %s in %d journals (%d skipped, unchanged)\n",
		account, journal.FormatAmount(amount), currency, len(sess.ToProcess), len(sess.Skipped))
}
