// Package institution provides statement parsers for supported source
// institutions. Each parser implements ledger.StatementParser; supporting a
// new institution means adding an implementation here, nothing else changes.
package institution

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/mdunlap/budget-analyzer/pkg/ledger"
	"github.com/shopspring/decimal"
)

// CSVLayout describes where an institution's CSV export keeps the fields the
// analyzer needs. Column indexes are zero-based.
type CSVLayout struct {
	DateColumn     int
	AmountColumn   int
	LocationColumn int

	// SkipHeader drops the first row of every statement file.
	SkipHeader bool

	// NegateAmounts flips the sign of every amount, for institutions that
	// export expenses as negative values.
	NegateAmounts bool
}

// CSVParser reads one institution's CSV statement export.
type CSVParser struct {
	layout     CSVLayout
	exclusions []*regexp.Regexp
}

// NewCSVParser builds a parser for the given column layout. Exclusion
// patterns are regexes matched against the upper-cased location of each
// record; matching records are dropped at ingestion.
func NewCSVParser(layout CSVLayout, exclusions []string) (*CSVParser, error) {
	if layout.DateColumn < 0 || layout.AmountColumn < 0 || layout.LocationColumn < 0 {
		return nil, fmt.Errorf("csv layout columns must be non-negative, got %+v", layout)
	}

	compiled := make([]*regexp.Regexp, 0, len(exclusions))
	for _, pattern := range exclusions {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclusion pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}

	return &CSVParser{layout: layout, exclusions: compiled}, nil
}

// Parse implements ledger.StatementParser. Amounts may carry thousands
// separators; they are stripped before decimal parsing.
func (p *CSVParser) Parse(r io.Reader) ([]ledger.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv statement: %w", err)
	}

	width := p.layout.DateColumn
	if p.layout.AmountColumn > width {
		width = p.layout.AmountColumn
	}
	if p.layout.LocationColumn > width {
		width = p.layout.LocationColumn
	}

	var records []ledger.Record
	for i, row := range rows {
		if i == 0 && p.layout.SkipHeader {
			continue
		}
		if len(row) <= width {
			return nil, fmt.Errorf("row %d has %d fields, need at least %d", i+1, len(row), width+1)
		}

		raw := strings.ReplaceAll(strings.TrimSpace(row[p.layout.AmountColumn]), ",", "")
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid amount %q: %w", i+1, row[p.layout.AmountColumn], err)
		}
		if p.layout.NegateAmounts {
			amount = amount.Neg()
		}

		records = append(records, ledger.Record{
			Date:     strings.TrimSpace(row[p.layout.DateColumn]),
			Amount:   amount,
			Location: strings.TrimSpace(row[p.layout.LocationColumn]),
		})
	}

	return records, nil
}

// Exclude implements ledger.StatementParser. The location it receives has
// already been upper-cased by the ledger.
func (p *CSVParser) Exclude(rec ledger.Record) bool {
	for _, re := range p.exclusions {
		if re.MatchString(rec.Location) {
			return true
		}
	}
	return false
}
