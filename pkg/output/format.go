// Package output provides utilities for formatting and displaying analysis results.
package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mdunlap/budget-analyzer/internal/analysis"
	"github.com/mdunlap/budget-analyzer/pkg/format"
	"github.com/mdunlap/budget-analyzer/pkg/period"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat outputs a human-readable rather than machine-readable report:
// one table per analyzer followed by its classification findings, then the
// gap audit across all accounts.
func PrettyFormat(result *analysis.Result) {
	p := message.NewPrinter(language.English)
	for i, m := range result.Matrices {
		fmt.Printf("--- Results for analyzer %s ---\n", m.Label)
		fmt.Printf("Period  | Category      | Amount\n")
		fmt.Printf("______  | ________      | ______\n")
		overLimit := overLimitIndex(m)
		for _, pd := range m.Periods {
			for _, category := range m.Categories {
				note := ""
				if limit, ok := overLimit[cellKey{period: pd, category: category}]; ok {
					note = fmt.Sprintf(" (over limit %s)", format.Currency(limit))
				}
				_, _ = p.Printf("%s | %-13s | $%.2f%s\n", pd, category, m.Cells[pd][category].InexactFloat64(), note)
			}
		}

		if len(m.Collisions) > 0 {
			fmt.Printf("\nLocations matching multiple categories:\n")
			for _, collision := range m.Collisions {
				fmt.Printf("  %s -> %s\n", collision.Location, strings.Join(collision.Categories, ", "))
			}
		}
		if len(m.Uncategorized) > 0 {
			fmt.Printf("\nUncategorized locations:\n")
			for _, location := range sortedLocations(m.Uncategorized) {
				fmt.Printf("  %s (%s)\n", location, format.Currency(m.Uncategorized[location]))
			}
		}
		if i < len(result.Matrices)-1 {
			fmt.Printf("\n")
		}
	}

	if len(result.Gaps) > 0 {
		fmt.Printf("\nWARNING missing data in:\n")
		for _, label := range sortedLabels(result.Gaps) {
			var periods []string
			for _, pd := range result.Gaps[label] {
				periods = append(periods, pd.String())
			}
			fmt.Printf("  %s: %s\n", label, strings.Join(periods, ", "))
		}
	}
}

// CsvFormat outputs every analyzer matrix in comma-separated value format.
// Classification findings and the gap audit are pretty-output concerns; in
// CSV mode they are surfaced through the logs instead.
func CsvFormat(result *analysis.Result) {
	for i, m := range result.Matrices {
		fmt.Printf(`"analyzer","%s"`, m.Label)
		fmt.Printf("\n")
		fmt.Printf(`"period"`)
		for _, category := range m.Categories {
			fmt.Printf(`,"%s"`, category)
		}
		fmt.Printf("\n")
		for _, pd := range m.Periods {
			fmt.Printf(`"%s"`, pd)
			for _, category := range m.Categories {
				fmt.Printf(`,"%s"`, m.Cells[pd][category].StringFixed(2))
			}
			fmt.Printf("\n")
		}
		if i < len(result.Matrices)-1 {
			fmt.Printf("\n")
		}
	}
}

type cellKey struct {
	period   period.Period
	category string
}

func overLimitIndex(m *analysis.Matrix) map[cellKey]decimal.Decimal {
	index := make(map[cellKey]decimal.Decimal, len(m.OverLimit))
	for _, over := range m.OverLimit {
		index[cellKey{period: over.Period, category: over.Category}] = over.Limit
	}
	return index
}

func sortedLocations(amounts map[string]decimal.Decimal) []string {
	locations := make([]string, 0, len(amounts))
	for location := range amounts {
		locations = append(locations, location)
	}
	sort.Strings(locations)
	return locations
}

func sortedLabels(gaps map[string][]period.Period) []string {
	labels := make([]string, 0, len(gaps))
	for label := range gaps {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
