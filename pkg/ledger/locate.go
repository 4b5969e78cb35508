package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mdunlap/budget-analyzer/pkg/period"
)

// PeriodFile pairs a statement file with the period derived from its name.
type PeriodFile struct {
	Period period.Period
	Path   string
}

// Locate scans dir for statement files and returns them ordered by period,
// ascending. Dotfiles and subdirectories are skipped.
//
// The naming convention requires that lexicographic filename order equal
// chronological period order; Locate verifies this and reports a violation
// as a NamingConventionError rather than correcting it. Two files deriving
// the same period are left for Ingest to reject.
func Locate(dir string) ([]PeriodFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	files := make([]PeriodFile, 0, len(names))
	for _, name := range names {
		p, err := period.FromFilename(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", dir, err)
		}
		files = append(files, PeriodFile{Period: p, Path: filepath.Join(dir, name)})
	}

	for i := 1; i < len(files); i++ {
		if files[i].Period.Before(files[i-1].Period) {
			return nil, &period.NamingConventionError{
				File: names[i],
				Reason: fmt.Sprintf("lexicographic order disagrees with chronological order (%s listed after %s)",
					files[i].Period, files[i-1].Period),
			}
		}
	}

	return files, nil
}
