// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"fmt"
	"io"

	"github.com/spf13/viper"
)

// ParserCSV names the built-in CSV statement parser.
const ParserCSV = "csv"

// Configuration holds all configuration for budget-analyzer.
type Configuration struct {
	Accounts  []AccountConfig
	Analyzers []AnalyzerConfig
	Logging   LoggingConfig `yaml:"logging,omitempty"`
	Output    OutputConfig  `yaml:"output,omitempty"`
	Server    ServerConfig  `yaml:"server,omitempty"`
}

// AccountConfig describes one account's monthly data directory and the
// parser that understands its statement format.
type AccountConfig struct {
	Label   string
	DataDir string
	Parser  string // defaults to ParserCSV
	CSV     CSVConfig
	Exclude []string // regexes; matching locations are dropped at ingestion
}

// CSVConfig locates the fields of interest within an institution's CSV
// export. Column indexes are zero-based.
type CSVConfig struct {
	DateColumn     int
	AmountColumn   int
	LocationColumn int
	SkipHeader     bool
	NegateAmounts  bool
}

// AnalyzerConfig describes one expense analyzer: which accounts it
// aggregates, the rules file that classifies their locations, and the target
// limit for each period's total.
type AnalyzerConfig struct {
	Label            string
	RulesFile        string
	TargetTotalLimit float64
	IntersectDates   bool
	Accounts         []string
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// ServerConfig holds runtime parameters for the HTTP snapshot API.
type ServerConfig struct {
	Address       string `yaml:"address,omitempty"`
	MaxUploadSize int64  `yaml:"maxUploadSize,omitempty"` // bytes
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()

	viper.SetConfigType("yml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := viper.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	return &configuration, nil
}

// LoadConfigurationFromReader loads a YAML configuration from r. It is used
// by the snapshot API so uploaded configs parse identically to file configs.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}

	var configuration Configuration
	err := v.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	return &configuration, nil
}
