package scoring

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"bank-reconciliation-engine/internal/models"

	"github.com/shopspring/decimal"
)

// RuleTransactionType restricts a classification rule to one transaction
// direction, or matches any
type RuleTransactionType string

const (
	RuleTransactionAny        RuleTransactionType = "Any"
	RuleTransactionWithdrawal RuleTransactionType = "Withdrawal"
	RuleTransactionDeposit    RuleTransactionType = "Deposit"
)

// IsValid checks if the rule transaction type is known
func (rt RuleTransactionType) IsValid() bool {
	switch rt {
	case RuleTransactionAny, RuleTransactionWithdrawal, RuleTransactionDeposit, "":
		return true
	default:
		return false
	}
}

// EntryClassification is the entry type a matching rule recommends creating
type EntryClassification string

const (
	ClassifyBankEntry    EntryClassification = "Bank Entry"
	ClassifyPaymentEntry EntryClassification = "Payment Entry"
	ClassifyTransfer     EntryClassification = "Transfer"
)

// IsValid checks if the classification is known
func (ec EntryClassification) IsValid() bool {
	switch ec {
	case ClassifyBankEntry, ClassifyPaymentEntry, ClassifyTransfer:
		return true
	default:
		return false
	}
}

// DescriptionRuleKind selects how a description pattern is applied
type DescriptionRuleKind string

const (
	DescriptionContains   DescriptionRuleKind = "Contains"
	DescriptionStartsWith DescriptionRuleKind = "StartsWith"
	DescriptionEndsWith   DescriptionRuleKind = "EndsWith"
	DescriptionRegex      DescriptionRuleKind = "Regex"
)

// IsValid checks if the description rule kind is known
func (dk DescriptionRuleKind) IsValid() bool {
	switch dk {
	case DescriptionContains, DescriptionStartsWith, DescriptionEndsWith, DescriptionRegex:
		return true
	default:
		return false
	}
}

// DescriptionRule is one predicate over a transaction description.
// Matching is case-sensitive throughout.
type DescriptionRule struct {
	Kind    DescriptionRuleKind `json:"kind"`
	Pattern string              `json:"pattern"`

	// compiled regex, populated by Validate or on first evaluation
	re *regexp.Regexp
}

// Matches evaluates the predicate against a description. An invalid regex
// pattern never matches; pattern problems are a load-time concern reported
// by Validate, not an evaluation-time error.
func (dr *DescriptionRule) Matches(description string) bool {
	switch dr.Kind {
	case DescriptionContains:
		return strings.Contains(description, dr.Pattern)
	case DescriptionStartsWith:
		return strings.HasPrefix(description, dr.Pattern)
	case DescriptionEndsWith:
		return strings.HasSuffix(description, dr.Pattern)
	case DescriptionRegex:
		if dr.re == nil {
			re, err := regexp.Compile(dr.Pattern)
			if err != nil {
				return false
			}
			dr.re = re
		}
		return dr.re.MatchString(description)
	default:
		return false
	}
}

// Validate checks the description rule's kind and pattern, caching the
// compiled regex so evaluation never recompiles it.
func (dr *DescriptionRule) Validate() error {
	if !dr.Kind.IsValid() {
		return fmt.Errorf("invalid description rule kind: %s", dr.Kind)
	}

	if dr.Pattern == "" {
		return fmt.Errorf("description rule pattern cannot be empty")
	}

	if dr.Kind == DescriptionRegex {
		re, err := regexp.Compile(dr.Pattern)
		if err != nil {
			return fmt.Errorf("invalid regex pattern '%s': %w", dr.Pattern, err)
		}
		dr.re = re
	}

	return nil
}

// Rule is one priority-ordered classification rule over bank transaction
// attributes. Lower priority numbers are evaluated first. Amount bounds
// are optional; a nil bound is unbounded on that side.
type Rule struct {
	Name             string              `json:"name"`
	Priority         int                 `json:"priority"`
	TransactionType  RuleTransactionType `json:"transaction_type"`
	MinAmount        *decimal.Decimal    `json:"min_amount,omitempty"`
	MaxAmount        *decimal.Decimal    `json:"max_amount,omitempty"`
	DescriptionRules []DescriptionRule   `json:"description_rules"`
	ClassifyAs       EntryClassification `json:"classify_as"`
}

// Validate performs basic validation on the Rule
func (r *Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule name cannot be empty")
	}

	if !r.TransactionType.IsValid() {
		return fmt.Errorf("invalid transaction type: %s", r.TransactionType)
	}

	if !r.ClassifyAs.IsValid() {
		return fmt.Errorf("invalid classification: %s", r.ClassifyAs)
	}

	if r.MinAmount != nil && r.MaxAmount != nil && r.MinAmount.GreaterThan(*r.MaxAmount) {
		return fmt.Errorf("min amount %s exceeds max amount %s", r.MinAmount.String(), r.MaxAmount.String())
	}

	if len(r.DescriptionRules) == 0 {
		return fmt.Errorf("rule must have at least one description rule")
	}

	for i := range r.DescriptionRules {
		if err := r.DescriptionRules[i].Validate(); err != nil {
			return fmt.Errorf("invalid description rule at position %d: %w", i, err)
		}
	}

	return nil
}

// Matches reports whether the rule matches the transaction: the direction
// is compatible, the amount falls within the configured bounds, and at
// least one description rule matches.
func (r *Rule) Matches(txn *models.BankTransaction) bool {
	if txn == nil {
		return false
	}

	switch r.TransactionType {
	case RuleTransactionWithdrawal:
		if txn.Direction() != models.DirectionWithdrawal {
			return false
		}
	case RuleTransactionDeposit:
		if txn.Direction() != models.DirectionDeposit {
			return false
		}
	}

	amount := txn.Amount()
	if r.MinAmount != nil && amount.LessThan(*r.MinAmount) {
		return false
	}
	if r.MaxAmount != nil && amount.GreaterThan(*r.MaxAmount) {
		return false
	}

	for i := range r.DescriptionRules {
		if r.DescriptionRules[i].Matches(txn.Description) {
			return true
		}
	}

	return false
}

// String returns a string representation of the Rule
func (r *Rule) String() string {
	return fmt.Sprintf("Rule{Name: %s, Priority: %d, Type: %s, ClassifyAs: %s}",
		r.Name, r.Priority, r.TransactionType, r.ClassifyAs)
}

// FirstMatchingRule evaluates rules in ascending priority order against a
// transaction and returns the first match, or nil when none matches. The
// evaluation works over a copy; the caller's slice is never reordered
// (rule ordering and priority editing belong to the rule store).
func FirstMatchingRule(txn *models.BankTransaction, rules []*Rule) *Rule {
	if len(rules) == 0 {
		return nil
	}

	ordered := make([]*Rule, 0, len(rules))
	for _, rule := range rules {
		if rule != nil {
			ordered = append(ordered, rule)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	for _, rule := range ordered {
		if rule.Matches(txn) {
			return rule
		}
	}

	return nil
}
