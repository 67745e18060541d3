package transform

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shunichi-ikebuchi/ledger-tools/pkg/journal"
)

var (
	openingBalancesRe = regexp.MustCompile(`opening balances`)
	closingBalancesRe = regexp.MustCompile(`closing balances`)
)

// Shift adjusts balance-assertion postings of one account by a fixed amount.
// It targets lines of the form
//
//	    <account>  <amount> <currency> = <amount> <currency>
//
// inside transactions dated within the inclusive [From, To] window. The
// posted amount moves only inside `opening balances` (+) and `closing
// balances` (-) transactions; the assertion amount moves everywhere except
// inside closing transactions, which keeps the running balances consistent
// across month boundaries.
type Shift struct {
	Account  string
	Amount   float64
	Currency string
	From     *time.Time
	To       *time.Time

	line *regexp.Regexp
}

// NewShift compiles the line matcher for account and currency.
func NewShift(account string, amount float64, currency string, from, to *time.Time) *Shift {
	amountPattern := `(-?[\d ,]+(?:\.[\d ,]*)?)`
	pattern := fmt.Sprintf(`^( +)%s( +)%s( +)%s( *)=( *)%s( +)%s( *)$`,
		regexp.QuoteMeta(account), amountPattern,
		regexp.QuoteMeta(currency), amountPattern, regexp.QuoteMeta(currency))
	return &Shift{
		Account:  account,
		Amount:   amount,
		Currency: currency,
		From:     from,
		To:       to,
		line:     regexp.MustCompile(pattern),
	}
}

// Apply rewrites the journal text, returning it unchanged when no line
// matches inside the window.
func (s *Shift) Apply(read string) string {
	fromFilter, toFilter := journal.RangeFilters(s.From, s.To)

	var b strings.Builder
	var current time.Time
	haveDate := false
	opening, closing := false, false

	for _, line := range splitAfterLines(read) {
		if len(line) >= 10 {
			if dt, err := time.Parse("2006-01-02", line[:10]); err == nil {
				current = dt
				haveDate = true
				opening = openingBalancesRe.MatchString(line)
				closing = closingBalancesRe.MatchString(line)
			}
		}

		if !haveDate || !fromFilter(current) || !toFilter(current) {
			b.WriteString(line)
			continue
		}

		m := s.line.FindStringSubmatch(strings.TrimSuffix(line, "\n"))
		if m == nil {
			b.WriteString(line)
			continue
		}

		posted, err := journal.ParseAmount(m[3])
		if err != nil {
			b.WriteString(line)
			continue
		}
		assertion, err := journal.ParseAmount(m[7])
		if err != nil {
			b.WriteString(line)
			continue
		}

		postedDelta := 0.0
		if opening {
			postedDelta += s.Amount
		}
		if closing {
			postedDelta -= s.Amount
		}
		assertionDelta := s.Amount
		if closing {
			assertionDelta = 0
		}

		b.WriteString(m[1] + s.Account + m[2] + journal.FormatAmount(posted+postedDelta) +
			m[4] + s.Currency + m[5] + "=" + m[6] + journal.FormatAmount(assertion+assertionDelta) +
			m[8] + s.Currency + m[9] + "\n")
	}
	return b.String()
}
