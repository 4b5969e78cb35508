// Package audit reports missing periods across registered account ledgers.
// It runs independently of any analyzer so gaps are caught even for accounts
// that are not currently aggregated.
package audit

import (
	"github.com/mdunlap/budget-analyzer/pkg/ledger"
	"github.com/mdunlap/budget-analyzer/pkg/period"
)

// Audit runs gap detection over every ledger and returns the labels with
// missing periods. Accounts with fully contiguous data do not appear in the
// result.
func Audit(ledgers []*ledger.Ledger) map[string][]period.Period {
	gaps := make(map[string][]period.Period)
	for _, l := range ledgers {
		if missing := l.Gaps(); len(missing) > 0 {
			gaps[l.Label()] = missing
		}
	}
	return gaps
}
