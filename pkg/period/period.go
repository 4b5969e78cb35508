// Package period provides the (year, month) key that identifies one monthly
// data file and reporting interval, including its derivation from file names.
package period

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/mdunlap/budget-analyzer/pkg/constants"
)

// Period identifies one calendar month of account data. Periods are totally
// ordered by (Year, Month).
type Period struct {
	Year  int
	Month time.Month
}

// NamingConventionError indicates that a data file name does not yield a
// consistent (year, month) period. It aborts the affected account's load.
type NamingConventionError struct {
	File   string
	Reason string
}

func (e *NamingConventionError) Error() string {
	return fmt.Sprintf("file %q violates the period naming convention: %s", e.File, e.Reason)
}

var numericRuns = regexp.MustCompile(`[0-9]+`)

// FromFilename derives a Period from a data file name. The first two numeric
// runs in the name are taken as year then month; all other characters are
// treated as separators. Names with fewer than two numeric runs, or with a
// month outside 1-12, fail with a NamingConventionError.
func FromFilename(name string) (Period, error) {
	runs := numericRuns.FindAllString(name, 2)
	if len(runs) < 2 {
		return Period{}, &NamingConventionError{File: name, Reason: "fewer than two numeric runs"}
	}
	year, err := strconv.Atoi(runs[0])
	if err != nil {
		return Period{}, &NamingConventionError{File: name, Reason: fmt.Sprintf("year %q out of range", runs[0])}
	}
	month, err := strconv.Atoi(runs[1])
	if err != nil || month < 1 || month > 12 {
		return Period{}, &NamingConventionError{File: name, Reason: fmt.Sprintf("month %q out of range", runs[1])}
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// Parse parses a period in the PeriodLayout textual form, e.g. "2023-04".
func Parse(s string) (Period, error) {
	t, err := time.Parse(constants.PeriodLayout, s)
	if err != nil {
		return Period{}, err
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// Time returns the first instant of the period in UTC.
func (p Period) Time() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// String formats the period in the PeriodLayout form.
func (p Period) String() string {
	return p.Time().Format(constants.PeriodLayout)
}

// Next returns the following calendar month.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Before returns true if p is strictly earlier than other.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// Compare returns -1, 0, or 1 depending on whether p is earlier than, equal
// to, or later than other.
func (p Period) Compare(other Period) int {
	switch {
	case p.Before(other):
		return -1
	case other.Before(p):
		return 1
	default:
		return 0
	}
}

// SortAscending sorts periods chronologically in place.
func SortAscending(periods []Period) {
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Before(periods[j])
	})
}

// MarshalText implements encoding.TextMarshaler so periods can key JSON maps.
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Period) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
