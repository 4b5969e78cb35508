package config

import "fmt"

// ValidateConfiguration performs general validation of the configuration and
// returns warnings. Structural problems that would abort an analysis run
// (unknown account references, unreadable directories) are reported by the
// run itself; warnings cover configurations that load but likely do not do
// what the user intended.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if len(c.Accounts) == 0 {
		warnings = append(warnings, "No accounts configured; nothing will be ingested")
	}
	if len(c.Analyzers) == 0 {
		warnings = append(warnings, "No analyzers configured; accounts will only be gap-audited")
	}

	seenAccounts := make(map[string]bool)
	for _, account := range c.Accounts {
		if account.Label == "" {
			warnings = append(warnings, "Account with empty label")
			continue
		}
		if seenAccounts[account.Label] {
			warnings = append(warnings, fmt.Sprintf("Account %q is defined more than once", account.Label))
		}
		seenAccounts[account.Label] = true
		if account.DataDir == "" {
			warnings = append(warnings, fmt.Sprintf("Account %q has no dataDir", account.Label))
		}
	}

	referenced := make(map[string]bool)
	for _, analyzer := range c.Analyzers {
		if analyzer.Label == "" {
			warnings = append(warnings, "Analyzer with empty label")
		}
		if analyzer.RulesFile == "" {
			warnings = append(warnings, fmt.Sprintf("Analyzer %q has no rulesFile", analyzer.Label))
		}
		if len(analyzer.Accounts) == 0 {
			warnings = append(warnings, fmt.Sprintf("Analyzer %q aggregates no accounts", analyzer.Label))
		}
		if analyzer.TargetTotalLimit <= 0 {
			warnings = append(warnings, fmt.Sprintf("Analyzer %q has no positive targetTotalLimit; the total check is disabled", analyzer.Label))
		}
		for _, label := range analyzer.Accounts {
			referenced[label] = true
			if !seenAccounts[label] {
				warnings = append(warnings, fmt.Sprintf("Analyzer %q references unknown account %q", analyzer.Label, label))
			}
		}
	}

	for _, account := range c.Accounts {
		if account.Label != "" && !referenced[account.Label] {
			warnings = append(warnings, fmt.Sprintf("Account %q is not aggregated by any analyzer; it will still be gap-audited", account.Label))
		}
	}

	return warnings
}
