package transform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shunichi-ikebuchi/ledger-tools/pkg/journal"
)

var depreciationHeaderRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} +(?:[!*] +)?depreciation`)

// DepreciationProfile names the accounts and timezone tag used when writing
// depreciation entries. Defaults match the ledger's conventions; a YAML
// profile can override them.
type DepreciationProfile struct {
	ExpenseAccount     string `yaml:"expense_account"`
	AccumulatedAccount string `yaml:"accumulated_account"`
	Timezone           string `yaml:"timezone"`
}

// DefaultDepreciationProfile returns the conventional accounts and timezone.
func DefaultDepreciationProfile() DepreciationProfile {
	return DepreciationProfile{
		ExpenseAccount:     "expenses:depreciation",
		AccumulatedAccount: "assets:accumulated depreciation",
		Timezone:           "UTC+08:00",
	}
}

// Depreciation inserts one item's depreciation posting into a monthly
// journal: if the journal already has a month-end depreciation transaction
// the posting is appended to it, otherwise a whole new transaction is
// appended to the journal.
type Depreciation struct {
	Item     string
	Amount   float64
	Currency string
	Profile  DepreciationProfile
}

// posting renders the accumulated-depreciation posting line.
func (d *Depreciation) posting() string {
	return fmt.Sprintf("    %s  %s %s  ; item: %s\n",
		d.Profile.AccumulatedAccount, journal.FormatAmount(d.Amount), d.Currency, d.Item)
}

// Apply rewrites the journal text. lastDate is the journal month's final day
// in YYYY-MM-DD form; only a depreciation transaction dated on that day is
// extended.
func (d *Depreciation) Apply(read, lastDate string) string {
	var b strings.Builder
	found, done := false, false

	for _, line := range splitAfterLines(read) {
		if !found {
			found = depreciationHeaderRe.MatchString(line) && strings.HasPrefix(line, lastDate)
			b.WriteString(line)
			continue
		}

		if !done && strings.TrimSpace(line) == "" {
			// End of the existing depreciation transaction: slot the new
			// posting in before the blank line.
			done = true
			b.WriteString(d.posting())
			b.WriteString(line)
			continue
		}

		b.WriteString(line)
	}

	if found && !done {
		// The transaction ran to end-of-file without a blank line.
		done = true
		b.WriteString(d.posting())
	}

	if !done {
		b.WriteString(fmt.Sprintf(
			"%s ! depreciation  ; activity: depreciation, time: 23:59:59, timezone: %s\n",
			lastDate, d.Profile.Timezone))
		b.WriteString(fmt.Sprintf("    %s\n", d.Profile.ExpenseAccount))
		b.WriteString(d.posting())
		b.WriteString("\n")
	}

	return b.String()
}
