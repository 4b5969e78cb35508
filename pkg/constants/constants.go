// Package constants provides shared constants for the budget-analyzer application.
package constants

// PeriodLayout is the textual form of a reporting period. It is used when
// parsing period strings and is also the output date format.
const PeriodLayout = "2006-01"

// Reserved category names. Both are appended to every expense matrix and may
// not appear as category names in a rules file.
const (
	// CategoryUncategorized collects amounts whose location matched no rule.
	CategoryUncategorized = "uncategorized"

	// CategoryTotal is the per-period sum of all amounts regardless of
	// classification outcome.
	CategoryTotal = "total"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultRulesFile is the default category rules file name within an
	// analyzer's configuration directory
	DefaultRulesFile = "config.txt"

	// RulesFieldCount is the number of tab-separated fields in one category
	// rules row: name, monthly limit, pattern
	RulesFieldCount = 3
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the snapshot API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)
