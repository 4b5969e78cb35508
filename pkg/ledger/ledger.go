// Package ledger implements per-account ingestion of monthly statement files
// and gap detection over the observed periods.
package ledger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mdunlap/budget-analyzer/pkg/period"
	"github.com/shopspring/decimal"
)

// Transaction is one expense parsed from a statement file.
type Transaction struct {
	Location string
	Amount   decimal.Decimal
}

// Record is one raw statement row as produced by a StatementParser, before
// the exclusion hook has been consulted.
type Record struct {
	Date     string
	Amount   decimal.Decimal
	Location string
}

// StatementParser is the extension point for institution-specific statement
// formats. Parse converts one raw statement file into records; Exclude
// reports whether a record should be dropped (true = drop).
type StatementParser interface {
	Parse(r io.Reader) ([]Record, error)
	Exclude(rec Record) bool
}

// DuplicatePeriodError indicates that two statement files mapped to the same
// period within one account.
type DuplicatePeriodError struct {
	Label  string
	Period period.Period
}

func (e *DuplicatePeriodError) Error() string {
	return fmt.Sprintf("account %q: period %s ingested twice", e.Label, e.Period)
}

// Ledger holds one account's transactions keyed by period. It is mutated only
// during ingestion, one period at a time, and is read-only afterwards.
type Ledger struct {
	label   string
	parser  StatementParser
	periods map[period.Period][]Transaction
}

// NewLedger creates an empty ledger for the labeled account. The parser is
// the sole institution-specific piece; the ledger itself is format-agnostic.
func NewLedger(label string, parser StatementParser) *Ledger {
	return &Ledger{
		label:   label,
		parser:  parser,
		periods: make(map[period.Period][]Transaction),
	}
}

// Label returns the account label.
func (l *Ledger) Label() string {
	return l.label
}

// Ingest parses one statement file and stores the surviving transactions
// under p. Locations are upper-cased so classification patterns only need to
// handle one case. Ingesting a period twice fails with DuplicatePeriodError.
func (l *Ledger) Ingest(p period.Period, r io.Reader) error {
	if _, ok := l.periods[p]; ok {
		return &DuplicatePeriodError{Label: l.label, Period: p}
	}

	records, err := l.parser.Parse(r)
	if err != nil {
		return fmt.Errorf("account %q: period %s: %w", l.label, p, err)
	}

	transactions := make([]Transaction, 0, len(records))
	for _, rec := range records {
		rec.Location = strings.ToUpper(rec.Location)
		if l.parser.Exclude(rec) {
			continue
		}
		transactions = append(transactions, Transaction{
			Location: rec.Location,
			Amount:   rec.Amount,
		})
	}
	l.periods[p] = transactions

	return nil
}

// LoadDirectory locates every statement file under dir and ingests each one.
func (l *Ledger) LoadDirectory(dir string) error {
	files, err := Locate(dir)
	if err != nil {
		return fmt.Errorf("account %q: %w", l.label, err)
	}
	for _, pf := range files {
		f, err := os.Open(pf.Path)
		if err != nil {
			return fmt.Errorf("account %q: %w", l.label, err)
		}
		err = l.Ingest(pf.Period, f)
		_ = f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// Periods returns every period with data, ascending.
func (l *Ledger) Periods() []period.Period {
	periods := make([]period.Period, 0, len(l.periods))
	for p := range l.periods {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Before(periods[j])
	})
	return periods
}

// HasPeriod reports whether the ledger holds data for p.
func (l *Ledger) HasPeriod(p period.Period) bool {
	_, ok := l.periods[p]
	return ok
}

// Transactions returns the transactions ingested for p, or nil if the period
// has no data. The returned slice must not be modified.
func (l *Ledger) Transactions(p period.Period) []Transaction {
	return l.periods[p]
}

// Gaps returns every calendar month strictly between the ledger's first and
// last observed periods that has no data, ascending.
func (l *Ledger) Gaps() []period.Period {
	periods := l.Periods()
	if len(periods) < 2 {
		return nil
	}

	var gaps []period.Period
	last := periods[len(periods)-1]
	for p := periods[0].Next(); p.Before(last); p = p.Next() {
		if !l.HasPeriod(p) {
			gaps = append(gaps, p)
		}
	}
	return gaps
}
