// Package rules implements the ordered category rule set used to classify
// transaction locations into budget categories.
package rules

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/mdunlap/budget-analyzer/pkg/constants"
	"github.com/shopspring/decimal"
)

// Rule binds a budget category to the regex that recognizes its locations.
// A zero Limit means the category has no monthly limit.
type Rule struct {
	Name    string
	Limit   decimal.Decimal
	Pattern *regexp.Regexp
}

// Set is an ordered collection of category rules. Order is preserved for
// reporting; it does not grant match precedence because classification always
// evaluates every rule.
type Set struct {
	rules  []Rule
	limits map[string]decimal.Decimal
}

// UnknownCategoryError indicates a budget lookup for a category that is not
// present in the rule set.
type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q", e.Category)
}

// Load reads a rules file: one rule per row, tab-separated as category name,
// monthly limit, regex pattern. Blank lines are skipped.
func Load(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rules file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	set, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return set, nil
}

// Parse reads tab-separated rule rows from r. The reserved category names
// cannot be redefined and rule names must be unique.
func Parse(r io.Reader) (*Set, error) {
	set := &Set{limits: make(map[string]decimal.Decimal)}

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		row := strings.TrimSpace(scanner.Text())
		if row == "" {
			continue
		}
		fields := strings.Split(row, "\t")
		if len(fields) != constants.RulesFieldCount {
			return nil, fmt.Errorf("line %d: expected %d tab-separated fields, got %d", line, constants.RulesFieldCount, len(fields))
		}

		name := strings.TrimSpace(fields[0])
		if name == "" {
			return nil, fmt.Errorf("line %d: empty category name", line)
		}
		if strings.EqualFold(name, constants.CategoryUncategorized) || strings.EqualFold(name, constants.CategoryTotal) {
			return nil, fmt.Errorf("line %d: category name %q is reserved", line, name)
		}
		if _, ok := set.limits[name]; ok {
			return nil, fmt.Errorf("line %d: duplicate category %q", line, name)
		}

		limit, err := decimal.NewFromString(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid limit for category %q: %w", line, name, err)
		}
		if limit.IsNegative() {
			return nil, fmt.Errorf("line %d: negative limit for category %q", line, name)
		}

		pattern, err := regexp.Compile(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid pattern for category %q: %w", line, name, err)
		}

		set.rules = append(set.rules, Rule{Name: name, Limit: limit, Pattern: pattern})
		set.limits[name] = limit
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	if len(set.rules) == 0 {
		return nil, fmt.Errorf("no rules defined")
	}

	return set, nil
}

// Classify applies every rule's pattern to location and returns the names of
// all rules whose pattern is found anywhere in the string, in rule order. An
// empty result means the location is uncategorized; two or more names are a
// collision. Classification is total and never fails.
//
// Every rule is evaluated on purpose; stopping at the first match would hide
// collisions.
func (s *Set) Classify(location string) []string {
	var matches []string
	for _, rule := range s.rules {
		if rule.Pattern.MatchString(location) {
			matches = append(matches, rule.Name)
		}
	}
	return matches
}

// Budget returns the monthly limit for the named category.
func (s *Set) Budget(name string) (decimal.Decimal, error) {
	limit, ok := s.limits[name]
	if !ok {
		return decimal.Decimal{}, &UnknownCategoryError{Category: name}
	}
	return limit, nil
}

// Names returns the category names in rule order.
func (s *Set) Names() []string {
	names := make([]string, len(s.rules))
	for i, rule := range s.rules {
		names[i] = rule.Name
	}
	return names
}

// Rules returns the rule sequence in declaration order.
func (s *Set) Rules() []Rule {
	return s.rules
}
