// Package money provides the monetary rounding primitives used throughout
// the allocation engine.
//
// All monetary values are represented as decimal.Decimal and rounded to a
// fixed number of decimal places under a configurable rounding policy.
// Accounting deployments differ on which convention they rely on, so both
// common modes are supported:
//   - RoundHalfToEven ("banker's rounding"), the default
//   - RoundHalfAwayFromZero ("commercial rounding")
//
// Amounts that originate as binary floating-point values must be ingested
// through FromFloat, which preserves the exact binary value. This matters at
// rounding boundaries: the float literal 2.005 is actually slightly below
// 2.005, so rounding it to two places yields 2.00 under either mode.
package money

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// RoundingMode selects the tie-breaking behavior when a value is exactly
// halfway between two representable amounts.
type RoundingMode int

const (
	// RoundHalfToEven rounds ties to the nearest even digit (banker's rounding).
	RoundHalfToEven RoundingMode = iota

	// RoundHalfAwayFromZero rounds ties away from zero (commercial rounding).
	RoundHalfAwayFromZero
)

// String returns the string representation of RoundingMode
func (m RoundingMode) String() string {
	switch m {
	case RoundHalfToEven:
		return "half-to-even"
	case RoundHalfAwayFromZero:
		return "half-away-from-zero"
	default:
		return "unknown"
	}
}

// IsValid checks if the rounding mode is a known mode
func (m RoundingMode) IsValid() bool {
	return m == RoundHalfToEven || m == RoundHalfAwayFromZero
}

// ParseRoundingMode parses a rounding mode from its string form
func ParseRoundingMode(s string) (RoundingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "half-to-even", "banker", "bankers":
		return RoundHalfToEven, nil
	case "half-away-from-zero", "commercial":
		return RoundHalfAwayFromZero, nil
	default:
		return RoundHalfToEven, fmt.Errorf("invalid rounding mode '%s': must be half-to-even or half-away-from-zero", s)
	}
}

// Policy defines the rounding discipline applied to monetary values.
// Precision is the number of decimal places; Mode is the tie-breaking rule.
type Policy struct {
	Precision int32        `json:"precision"`
	Mode      RoundingMode `json:"mode"`
}

// DefaultPolicy returns the standard accounting policy: two decimal places
// with banker's rounding.
func DefaultPolicy() Policy {
	return Policy{
		Precision: 2,
		Mode:      RoundHalfToEven,
	}
}

// Validate checks if the policy is usable
func (p Policy) Validate() error {
	if p.Precision < 0 || p.Precision > 10 {
		return fmt.Errorf("precision must be between 0 and 10: %d", p.Precision)
	}

	if !p.Mode.IsValid() {
		return fmt.Errorf("invalid rounding mode: %d", int(p.Mode))
	}

	return nil
}

// Round rounds a monetary value to the policy's precision using its mode.
func (p Policy) Round(d decimal.Decimal) decimal.Decimal {
	switch p.Mode {
	case RoundHalfAwayFromZero:
		return d.Round(p.Precision)
	default:
		return d.RoundBank(p.Precision)
	}
}

// Unit returns the smallest representable amount under the policy's
// precision (0.01 at two decimal places).
func (p Policy) Unit() decimal.Decimal {
	return decimal.New(1, -p.Precision)
}

// String returns a human-readable description of the policy
func (p Policy) String() string {
	return fmt.Sprintf("Policy{Precision: %d, Mode: %s}", p.Precision, p.Mode)
}

// FromFloat converts a binary floating-point amount to a decimal without
// snapping it to a shorter decimal form. The exact binary value is kept, so
// rounding behavior at boundaries matches what the float actually holds.
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloatWithExponent(f, math.MinInt32)
}

// ParseAmount parses a monetary amount from a string, tolerating currency
// symbols and thousand separators. Malformed or empty input normalizes to
// zero rather than failing; the engine treats all numeric coercion
// permissively and surfaces imbalances through its outputs instead.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}

	return d
}
