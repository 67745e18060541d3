package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/ledger-tools/pkg/journal"
	"github.com/shunichi-ikebuchi/ledger-tools/pkg/transform"
)

// replaceCmd represents the replace command.
var replaceCmd = &cobra.Command{
	Use:   "replace <find> <replace>",
	Short: "Replace literal text across all journals",
	Long: `Replace every occurrence of a literal string across all journal
files under the ledger root, including non-monthly ones such as account
declarations. Matching is literal, not regular-expression based, and files
are only rewritten when something actually matched.

The result depends on the arguments of each invocation, so replace never
consults the run cache.

Example:
  ledger-tools replace expenses:food expenses:groceries`,
	Args: cobra.ExactArgs(2),
	Run:  runReplace,
}

func runReplace(cmd *cobra.Command, args []string) {
	find, repl := args[0], args[1]

	env := newRunEnv("replace")
	defer env.Close()

	journals, err := journal.FindAllJournals(env.cfg.Ledger.Root)
	exitOnError(err, "failed to discover journals")

	started := time.Now()
	slog.Info("replacing text", "find", find, "journals", len(journals))

	update := transform.Replacer(find, repl)
	var changed atomic.Int64

	runErr := forEachJournal(cmd.Context(), journals, func(ctx context.Context, j string) error {
		wrote, err := journal.UpdateFileIfChanged(j, update)
		if err != nil {
			return err
		}
		if wrote {
			changed.Add(1)
		}
		return nil
	})

	n := int(changed.Load())
	env.recordRun("replace", started, len(journals), n, len(journals)-n, runErr)
	exitOnError(runErr, "replace failed")

	fmt.Printf("Replaced in %d of %d journals\n", n, len(journals))
}
