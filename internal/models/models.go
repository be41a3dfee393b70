// Package models defines the domain entities shared by the allocation
// engine, the match scorer, and the surrounding service layer.
//
// All monetary fields are decimal.Decimal in a single working currency per
// operation; callers convert currencies before constructing these values.
// Entities consumed from external services (BankTransaction,
// CandidateVoucher) are treated as read-only by every engine operation.
package models

import (
	"fmt"
	"strings"
	"time"

	"bank-reconciliation-engine/internal/money"

	"github.com/shopspring/decimal"
)

// PaymentType represents the direction of a payment entry
type PaymentType string

const (
	// PaymentTypeReceive represents money received from a party
	PaymentTypeReceive PaymentType = "Receive"
	// PaymentTypePay represents money paid to a party
	PaymentTypePay PaymentType = "Pay"
	// PaymentTypeInternalTransfer represents a transfer between own accounts
	PaymentTypeInternalTransfer PaymentType = "Internal Transfer"
)

// String returns the string representation of PaymentType
func (pt PaymentType) String() string {
	return string(pt)
}

// IsValid checks if the payment type is valid
func (pt PaymentType) IsValid() bool {
	return pt == PaymentTypeReceive || pt == PaymentTypePay || pt == PaymentTypeInternalTransfer
}

// ParsePaymentType parses and validates a payment type from string
func ParsePaymentType(s string) (PaymentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "receive":
		return PaymentTypeReceive, nil
	case "pay":
		return PaymentTypePay, nil
	case "internal transfer", "internal-transfer", "transfer":
		return PaymentTypeInternalTransfer, nil
	default:
		return "", fmt.Errorf("invalid payment type '%s': must be Receive, Pay, or Internal Transfer", s)
	}
}

// PartyRole represents the role of the counterparty on a payment
type PartyRole string

const (
	PartyRoleCustomer    PartyRole = "Customer"
	PartyRoleSupplier    PartyRole = "Supplier"
	PartyRoleEmployee    PartyRole = "Employee"
	PartyRoleShareholder PartyRole = "Shareholder"
	// PartyRoleNone indicates no party is set on the payment
	PartyRoleNone PartyRole = ""
)

// String returns the string representation of PartyRole
func (pr PartyRole) String() string {
	if pr == PartyRoleNone {
		return "None"
	}
	return string(pr)
}

// IsValid checks if the party role is a known role
func (pr PartyRole) IsValid() bool {
	switch pr {
	case PartyRoleCustomer, PartyRoleSupplier, PartyRoleEmployee, PartyRoleShareholder, PartyRoleNone:
		return true
	default:
		return false
	}
}

// ParsePartyRole parses and validates a party role from string
func ParsePartyRole(s string) (PartyRole, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "customer":
		return PartyRoleCustomer, nil
	case "supplier":
		return PartyRoleSupplier, nil
	case "employee":
		return PartyRoleEmployee, nil
	case "shareholder":
		return PartyRoleShareholder, nil
	case "", "none":
		return PartyRoleNone, nil
	default:
		return PartyRoleNone, fmt.Errorf("invalid party role '%s'", s)
	}
}

// TransactionDirection represents which side of a bank transaction carries
// the amount
type TransactionDirection string

const (
	DirectionWithdrawal TransactionDirection = "Withdrawal"
	DirectionDeposit    TransactionDirection = "Deposit"
)

// String returns the string representation of TransactionDirection
func (td TransactionDirection) String() string {
	return string(td)
}

// ReferenceMatchClass classifies how a candidate voucher's reference number
// relates to a bank transaction's reference and description fields
type ReferenceMatchClass string

const (
	// ReferenceMatchFull means the candidate reference equals the
	// transaction reference number or description exactly
	ReferenceMatchFull ReferenceMatchClass = "Full"
	// ReferenceMatchPartial means the candidate reference appears as a
	// substring of the transaction reference number or description
	ReferenceMatchPartial ReferenceMatchClass = "Partial"
	// ReferenceMatchNone means no reference relationship was found
	ReferenceMatchNone ReferenceMatchClass = "None"
)

// String returns the string representation of ReferenceMatchClass
func (rc ReferenceMatchClass) String() string {
	return string(rc)
}

// Reference is one outstanding obligation (invoice, order, or similar)
// eligible for payment allocation. OutstandingAmount is signed: positive
// means owed to the counterparty, negative means a credit or advance.
// AllocatedAmount is the engine's output field; it is recomputed and
// overwritten on every full allocation pass, so a stale or caller-supplied
// value is never trusted across passes.
type Reference struct {
	ReferenceID       string          `json:"reference_id"`
	ReferenceType     string          `json:"reference_type,omitempty"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
	AllocatedAmount   decimal.Decimal `json:"allocated_amount"`
}

// NewReference creates a new Reference with a zero allocation
func NewReference(id string, outstanding decimal.Decimal) *Reference {
	return &Reference{
		ReferenceID:       id,
		OutstandingAmount: outstanding,
	}
}

// Validate performs basic validation on the Reference
func (r *Reference) Validate() error {
	if strings.TrimSpace(r.ReferenceID) == "" {
		return fmt.Errorf("reference ID cannot be empty")
	}
	return nil
}

// String returns a string representation of the Reference
func (r *Reference) String() string {
	return fmt.Sprintf("Reference{ID: %s, Outstanding: %s, Allocated: %s}",
		r.ReferenceID, r.OutstandingAmount.String(), r.AllocatedAmount.String())
}

// Deduction is a charge or rounding adjustment subtracted from the payment
// amount before allocation. Amount is treated as a positive reduction; the
// account and description fields are opaque to the engine.
type Deduction struct {
	Account     string          `json:"account,omitempty"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

// PaymentContext is the aggregate input/output state for one allocation
// pass. Outputs (TotalAllocatedAmount, UnallocatedAmount, DifferenceAmount)
// are always fully recomputed from inputs; there is no cached state that
// can desynchronize.
//
// The source system carries parallel base-currency and display-currency
// fields for every amount. This implementation scopes to a single working
// currency and collapses each pair to one field, but PaidAmount and
// ReceivedAmount remain distinct so the original branch structure survives
// intact if multi-currency support is added later.
//
// Company and Party are threaded explicitly rather than read from ambient
// session state.
type PaymentContext struct {
	Company     string      `json:"company,omitempty"`
	Party       string      `json:"party"`
	PartyRole   PartyRole   `json:"party_role"`
	PaymentType PaymentType `json:"payment_type"`

	PaidAmount     decimal.Decimal `json:"paid_amount"`
	ReceivedAmount decimal.Decimal `json:"received_amount"`
	TotalTaxes     decimal.Decimal `json:"total_taxes"`

	References []*Reference `json:"references"`
	Deductions []Deduction  `json:"deductions"`

	TotalAllocatedAmount decimal.Decimal `json:"total_allocated_amount"`
	UnallocatedAmount    decimal.Decimal `json:"unallocated_amount"`
	DifferenceAmount     decimal.Decimal `json:"difference_amount"`
}

// HasParty reports whether a party is set on the context
func (pc *PaymentContext) HasParty() bool {
	return strings.TrimSpace(pc.Party) != ""
}

// TotalDeductions returns the sum of all deduction amounts
func (pc *PaymentContext) TotalDeductions() decimal.Decimal {
	total := decimal.Zero
	for _, d := range pc.Deductions {
		total = total.Add(d.Amount)
	}
	return total
}

// Validate performs basic validation on the PaymentContext
func (pc *PaymentContext) Validate() error {
	if !pc.PaymentType.IsValid() {
		return fmt.Errorf("invalid payment type: %s", pc.PaymentType)
	}

	if !pc.PartyRole.IsValid() {
		return fmt.Errorf("invalid party role: %s", pc.PartyRole)
	}

	for i, ref := range pc.References {
		if ref == nil {
			return fmt.Errorf("reference at position %d is nil", i)
		}
		if err := ref.Validate(); err != nil {
			return fmt.Errorf("invalid reference at position %d: %w", i, err)
		}
	}

	return nil
}

// String returns a string representation of the PaymentContext
func (pc *PaymentContext) String() string {
	return fmt.Sprintf("PaymentContext{Type: %s, Party: %s (%s), Paid: %s, Allocated: %s, Unallocated: %s, Difference: %s}",
		pc.PaymentType, pc.Party, pc.PartyRole,
		pc.PaidAmount.String(), pc.TotalAllocatedAmount.String(),
		pc.UnallocatedAmount.String(), pc.DifferenceAmount.String())
}

// BankTransaction is one imported bank statement line. Exactly one of
// Withdrawal and Deposit is positive in the domain. The engine consumes it
// read-only.
type BankTransaction struct {
	ID                string          `json:"id"`
	Date              time.Time       `json:"date"`
	Withdrawal        decimal.Decimal `json:"withdrawal"`
	Deposit           decimal.Decimal `json:"deposit"`
	UnallocatedAmount decimal.Decimal `json:"unallocated_amount"`
	Description       string          `json:"description"`
	ReferenceNumber   string          `json:"reference_number"`
	Currency          string          `json:"currency,omitempty"`
}

// NewBankTransaction creates a new BankTransaction instance. The
// unallocated amount starts at the full transaction amount.
func NewBankTransaction(id string, date time.Time, withdrawal, deposit decimal.Decimal) *BankTransaction {
	return &BankTransaction{
		ID:                id,
		Date:              date,
		Withdrawal:        withdrawal,
		Deposit:           deposit,
		UnallocatedAmount: withdrawal.Add(deposit),
	}
}

// Validate performs basic validation on the BankTransaction
func (bt *BankTransaction) Validate() error {
	if strings.TrimSpace(bt.ID) == "" {
		return fmt.Errorf("bank transaction ID cannot be empty")
	}

	if bt.Withdrawal.IsPositive() && bt.Deposit.IsPositive() {
		return fmt.Errorf("bank transaction cannot have both withdrawal and deposit amounts")
	}

	if bt.Date.IsZero() {
		return fmt.Errorf("bank transaction date cannot be zero")
	}

	return nil
}

// Direction returns whether the transaction is a withdrawal or a deposit
func (bt *BankTransaction) Direction() TransactionDirection {
	if bt.Withdrawal.IsPositive() {
		return DirectionWithdrawal
	}
	return DirectionDeposit
}

// Amount returns the positive side of the transaction
func (bt *BankTransaction) Amount() decimal.Decimal {
	if bt.Withdrawal.IsPositive() {
		return bt.Withdrawal
	}
	return bt.Deposit
}

// String returns a string representation of the BankTransaction
func (bt *BankTransaction) String() string {
	return fmt.Sprintf("BankTransaction{ID: %s, %s: %s, Date: %s, Ref: %s}",
		bt.ID, bt.Direction(), bt.Amount().String(),
		bt.Date.Format("2006-01-02"), bt.ReferenceNumber)
}

// CandidateVoucher is a posted accounting document (payment entry, journal
// entry) fetched by the external voucher lookup as a potential counterpart
// for a bank transaction. The lookup pre-sorts candidates by relevance;
// position in the returned slice is the candidate's rank.
type CandidateVoucher struct {
	VoucherID     string          `json:"voucher_id"`
	VoucherType   string          `json:"voucher_type,omitempty"`
	Party         string          `json:"party,omitempty"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PostingDate   time.Time       `json:"posting_date"`
	ReferenceDate *time.Time      `json:"reference_date,omitempty"`
	ReferenceNo   string          `json:"reference_no"`
}

// Validate performs basic validation on the CandidateVoucher
func (cv *CandidateVoucher) Validate() error {
	if strings.TrimSpace(cv.VoucherID) == "" {
		return fmt.Errorf("voucher ID cannot be empty")
	}

	if cv.PostingDate.IsZero() {
		return fmt.Errorf("voucher posting date cannot be zero")
	}

	return nil
}

// String returns a string representation of the CandidateVoucher
func (cv *CandidateVoucher) String() string {
	return fmt.Sprintf("CandidateVoucher{ID: %s, Amount: %s, PostingDate: %s, Ref: %s}",
		cv.VoucherID, cv.PaidAmount.String(),
		cv.PostingDate.Format("2006-01-02"), cv.ReferenceNo)
}

// MatchAnnotation is the computed, ephemeral result of scoring one
// candidate voucher against a bank transaction. It is never persisted.
type MatchAnnotation struct {
	AmountMatches        bool                `json:"amount_matches"`
	PostingDateMatches   bool                `json:"posting_date_matches"`
	ReferenceDateMatches bool                `json:"reference_date_matches"`
	ReferenceMatchClass  ReferenceMatchClass `json:"reference_match_class"`
	Suggested            bool                `json:"suggested"`
}

// SameDay reports whether two timestamps fall on the same calendar date
func SameDay(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

// ParseTimeWithFormats attempts to parse a date from string using the
// formats commonly seen in statement exports
func ParseTimeWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("time string cannot be empty")
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
		"01/02/2006",
		"2006/01/02",
		"02-01-2006",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time '%s': %w", s, lastErr)
}

// CreateBankTransactionFromCSV creates a BankTransaction from CSV field
// values. Amounts parse permissively (malformed values normalize to zero);
// the date must be well formed.
func CreateBankTransactionFromCSV(id, dateStr, withdrawalStr, depositStr, description, referenceNo string) (*BankTransaction, error) {
	date, err := ParseTimeWithFormats(dateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction date in CSV: %w", err)
	}

	txn := NewBankTransaction(strings.TrimSpace(id), date,
		money.ParseAmount(withdrawalStr), money.ParseAmount(depositStr))
	txn.Description = strings.TrimSpace(description)
	txn.ReferenceNumber = strings.TrimSpace(referenceNo)

	if err := txn.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bank transaction data: %w", err)
	}

	return txn, nil
}

// CreateCandidateVoucherFromCSV creates a CandidateVoucher from CSV field
// values. The reference date is optional and omitted when blank.
func CreateCandidateVoucherFromCSV(id, voucherType, amountStr, postingDateStr, referenceDateStr, referenceNo string) (*CandidateVoucher, error) {
	postingDate, err := ParseTimeWithFormats(postingDateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid posting date in CSV: %w", err)
	}

	voucher := &CandidateVoucher{
		VoucherID:   strings.TrimSpace(id),
		VoucherType: strings.TrimSpace(voucherType),
		PaidAmount:  money.ParseAmount(amountStr),
		PostingDate: postingDate,
		ReferenceNo: strings.TrimSpace(referenceNo),
	}

	if strings.TrimSpace(referenceDateStr) != "" {
		refDate, err := ParseTimeWithFormats(referenceDateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid reference date in CSV: %w", err)
		}
		voucher.ReferenceDate = &refDate
	}

	if err := voucher.Validate(); err != nil {
		return nil, fmt.Errorf("invalid candidate voucher data: %w", err)
	}

	return voucher, nil
}

// CreateReferenceFromCSV creates a Reference from CSV field values
func CreateReferenceFromCSV(id, refType, outstandingStr string) (*Reference, error) {
	ref := NewReference(strings.TrimSpace(id), money.ParseAmount(outstandingStr))
	ref.ReferenceType = strings.TrimSpace(refType)

	if err := ref.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reference data: %w", err)
	}

	return ref, nil
}
