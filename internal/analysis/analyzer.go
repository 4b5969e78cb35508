// Package analysis composes account ledgers and a category rule set into a
// period by category expense matrix, with budget-limit evaluation.
package analysis

import (
	"fmt"

	"github.com/mdunlap/budget-analyzer/pkg/constants"
	"github.com/mdunlap/budget-analyzer/pkg/ledger"
	"github.com/mdunlap/budget-analyzer/pkg/period"
	"github.com/mdunlap/budget-analyzer/pkg/rules"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Analyzer aggregates one or more account ledgers against a category rule
// set. It holds only inputs; every matrix is a fresh snapshot produced by
// Build, so editing rules or reloading accounts just means building again.
type Analyzer struct {
	label            string
	targetTotalLimit decimal.Decimal
	set              *rules.Set
	intersectDates   bool
	accounts         []*ledger.Ledger
	logger           *zap.Logger
}

// Collision records a location matched by more than one category rule.
type Collision struct {
	Location   string
	Categories []string
}

// OverLimit flags one matrix cell that exceeded its budget limit. Category is
// constants.CategoryTotal when a period's total exceeded the analyzer's
// target total limit.
type OverLimit struct {
	Period   period.Period
	Category string
	Amount   decimal.Decimal
	Limit    decimal.Decimal
}

// Matrix is the derived period by category amount table for one analyzer,
// together with the classification findings the user iterates against. It is
// recomputed in full by every Build and never mutated afterwards.
type Matrix struct {
	Label string

	// Periods is the active period set, ascending: the intersection or the
	// union of the member ledgers' periods depending on the analyzer mode.
	Periods []period.Period

	// Categories holds the rule names in rule order followed by the
	// uncategorized and total pseudo-categories.
	Categories []string

	// Cells maps every active period to a dense category -> amount row
	// summed across all member accounts.
	Cells map[period.Period]map[string]decimal.Decimal

	// AccountCells holds the same rows broken out per account, for stacked
	// presentation.
	AccountCells map[string]map[period.Period]map[string]decimal.Decimal

	// Uncategorized sums the amounts of every location that matched no rule,
	// keyed by location.
	Uncategorized map[string]decimal.Decimal

	// Collisions lists locations matched by more than one rule, in first
	// encounter order.
	Collisions []Collision

	// OverLimit lists every cell that exceeded its category's monthly limit
	// and every period whose total exceeded the target total limit.
	OverLimit []OverLimit
}

// NewAnalyzer constructs an analyzer over at least one account ledger. The
// account order is preserved in reports. A nil logger is replaced with a
// no-op logger.
func NewAnalyzer(label string, targetTotalLimit decimal.Decimal, set *rules.Set, intersectDates bool, accounts []*ledger.Ledger, logger *zap.Logger) (*Analyzer, error) {
	if set == nil {
		return nil, fmt.Errorf("analyzer %q: rule set is required", label)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("analyzer %q: at least one account is required", label)
	}
	seen := make(map[string]bool)
	for _, account := range accounts {
		if seen[account.Label()] {
			return nil, fmt.Errorf("analyzer %q: duplicate account label %q", label, account.Label())
		}
		seen[account.Label()] = true
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Analyzer{
		label:            label,
		targetTotalLimit: targetTotalLimit,
		set:              set,
		intersectDates:   intersectDates,
		accounts:         accounts,
		logger:           logger,
	}, nil
}

// Label returns the analyzer label.
func (a *Analyzer) Label() string {
	return a.label
}

// activePeriods computes the analyzer's period domain: the intersection of
// all member ledgers' period sets, or their union, ascending.
func (a *Analyzer) activePeriods() []period.Period {
	counts := make(map[period.Period]int)
	for _, account := range a.accounts {
		for _, p := range account.Periods() {
			counts[p]++
		}
	}

	var periods []period.Period
	for p, n := range counts {
		if !a.intersectDates || n == len(a.accounts) {
			periods = append(periods, p)
		}
	}
	period.SortAscending(periods)
	return periods
}

// Build classifies every member transaction within the active period domain
// and produces a fresh matrix snapshot. A transaction's amount is added to
// every matching category cell, so a collision double-counts on purpose; the
// collision report is how the user finds out. Zero-match amounts accumulate
// under the uncategorized pseudo-category. The total row is the sum of all
// amounts regardless of classification outcome. Build does not mutate the
// ledgers or the rule set, and building twice yields identical matrices.
func (a *Analyzer) Build() *Matrix {
	m := &Matrix{
		Label:         a.label,
		Periods:       a.activePeriods(),
		Categories:    append(a.set.Names(), constants.CategoryUncategorized, constants.CategoryTotal),
		Cells:         make(map[period.Period]map[string]decimal.Decimal),
		AccountCells:  make(map[string]map[period.Period]map[string]decimal.Decimal),
		Uncategorized: make(map[string]decimal.Decimal),
	}

	for _, p := range m.Periods {
		m.Cells[p] = emptyRow(m.Categories)
	}

	collided := make(map[string]bool)
	for _, account := range a.accounts {
		rows := make(map[period.Period]map[string]decimal.Decimal, len(m.Periods))
		for _, p := range m.Periods {
			rows[p] = emptyRow(m.Categories)
		}

		for _, p := range m.Periods {
			// Under union mode an account without this period simply
			// contributes nothing.
			for _, txn := range account.Transactions(p) {
				categories := a.set.Classify(txn.Location)

				if len(categories) == 0 {
					categories = []string{constants.CategoryUncategorized}
					m.Uncategorized[txn.Location] = m.Uncategorized[txn.Location].Add(txn.Amount)
				} else if len(categories) > 1 && !collided[txn.Location] {
					collided[txn.Location] = true
					m.Collisions = append(m.Collisions, Collision{Location: txn.Location, Categories: categories})
					a.logger.Debug("location matches multiple categories",
						zap.String("op", "analysis.Build"),
						zap.String("analyzer", a.label),
						zap.String("location", txn.Location),
						zap.Strings("categories", categories),
					)
				}

				for _, category := range categories {
					m.Cells[p][category] = m.Cells[p][category].Add(txn.Amount)
					rows[p][category] = rows[p][category].Add(txn.Amount)
				}
				m.Cells[p][constants.CategoryTotal] = m.Cells[p][constants.CategoryTotal].Add(txn.Amount)
				rows[p][constants.CategoryTotal] = rows[p][constants.CategoryTotal].Add(txn.Amount)
			}
		}
		m.AccountCells[account.Label()] = rows
	}

	m.OverLimit = m.EvaluateBudgets(a.set, a.targetTotalLimit)
	return m
}

// EvaluateBudgets compares every cell against its category's monthly limit
// and every period's total against targetTotalLimit. Categories with a zero
// limit are not checked, and a non-positive target disables the total check.
// Over-limit entries are report data, not errors.
func (m *Matrix) EvaluateBudgets(set *rules.Set, targetTotalLimit decimal.Decimal) []OverLimit {
	var over []OverLimit
	for _, p := range m.Periods {
		for _, rule := range set.Rules() {
			if rule.Limit.IsZero() {
				continue
			}
			if amount := m.Cells[p][rule.Name]; amount.GreaterThan(rule.Limit) {
				over = append(over, OverLimit{Period: p, Category: rule.Name, Amount: amount, Limit: rule.Limit})
			}
		}
		if targetTotalLimit.IsPositive() {
			if total := m.Cells[p][constants.CategoryTotal]; total.GreaterThan(targetTotalLimit) {
				over = append(over, OverLimit{Period: p, Category: constants.CategoryTotal, Amount: total, Limit: targetTotalLimit})
			}
		}
	}
	return over
}

func emptyRow(categories []string) map[string]decimal.Decimal {
	row := make(map[string]decimal.Decimal, len(categories))
	for _, category := range categories {
		row[category] = decimal.Zero
	}
	return row
}
