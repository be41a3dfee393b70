// Package config builds component configurations from CLI inputs.
package config

import (
	"bank-reconciliation-engine/internal/money"
	"bank-reconciliation-engine/internal/parsers"
	"bank-reconciliation-engine/internal/reporter"
	"bank-reconciliation-engine/pkg/errors"
)

// CreateParseConfig creates the CSV parse configuration used by all
// file parsers.
func CreateParseConfig(hasHeader bool) *parsers.ParseConfig {
	config := parsers.DefaultParseConfig()
	config.HasHeader = hasHeader
	return config
}

// CreateMoneyPolicy builds a rounding policy from CLI values.
func CreateMoneyPolicy(precision int32, roundingMode string) (money.Policy, error) {
	mode, err := money.ParseRoundingMode(roundingMode)
	if err != nil {
		return money.Policy{}, errors.ConfigurationError("rounding_mode", roundingMode, err)
	}

	policy := money.Policy{
		Precision: precision,
		Mode:      mode,
	}
	if err := policy.Validate(); err != nil {
		return money.Policy{}, errors.ConfigurationError("precision", precision, err)
	}

	return policy, nil
}

// CreateReportConfig builds a report configuration from CLI values.
func CreateReportConfig(format string) (*reporter.ReportConfig, error) {
	outputFormat, err := reporter.ParseOutputFormat(format)
	if err != nil {
		return nil, errors.ConfigurationError("output_format", format, err)
	}

	config := reporter.DefaultReportConfig()
	config.Format = outputFormat
	return config, nil
}
