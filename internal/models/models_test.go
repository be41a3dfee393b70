package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParsePaymentType(t *testing.T) {
	tests := []struct {
		input     string
		expected  PaymentType
		expectErr bool
	}{
		{"Receive", PaymentTypeReceive, false},
		{"pay", PaymentTypePay, false},
		{" RECEIVE ", PaymentTypeReceive, false},
		{"Internal Transfer", PaymentTypeInternalTransfer, false},
		{"transfer", PaymentTypeInternalTransfer, false},
		{"refund", "", true},
		{"", "", true},
	}

	for _, test := range tests {
		result, err := ParsePaymentType(test.input)
		if test.expectErr {
			if err == nil {
				t.Errorf("Expected error for input '%s'", test.input)
			}
			continue
		}

		if err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
			continue
		}

		if result != test.expected {
			t.Errorf("Expected %s for input '%s', got %s", test.expected, test.input, result)
		}
	}
}

func TestParsePartyRole(t *testing.T) {
	tests := []struct {
		input     string
		expected  PartyRole
		expectErr bool
	}{
		{"Customer", PartyRoleCustomer, false},
		{"supplier", PartyRoleSupplier, false},
		{"EMPLOYEE", PartyRoleEmployee, false},
		{"shareholder", PartyRoleShareholder, false},
		{"", PartyRoleNone, false},
		{"none", PartyRoleNone, false},
		{"vendor", PartyRoleNone, true},
	}

	for _, test := range tests {
		result, err := ParsePartyRole(test.input)
		if test.expectErr {
			if err == nil {
				t.Errorf("Expected error for input '%s'", test.input)
			}
			continue
		}

		if err != nil {
			t.Errorf("Unexpected error for input '%s': %v", test.input, err)
			continue
		}

		if result != test.expected {
			t.Errorf("Expected %s for input '%s', got %s", test.expected, test.input, result)
		}
	}
}

func TestPaymentContext_TotalDeductions(t *testing.T) {
	ctx := &PaymentContext{
		Deductions: []Deduction{
			{Account: "Bank Charges", Amount: decimal.RequireFromString("5.00")},
			{Account: "Rounding", Amount: decimal.RequireFromString("0.25")},
		},
	}

	total := ctx.TotalDeductions()
	expected := decimal.RequireFromString("5.25")
	if !total.Equal(expected) {
		t.Errorf("Expected total deductions %s, got %s", expected.String(), total.String())
	}

	empty := &PaymentContext{}
	if !empty.TotalDeductions().IsZero() {
		t.Error("Expected zero deductions for empty context")
	}
}

func TestPaymentContext_HasParty(t *testing.T) {
	ctx := &PaymentContext{Party: "ACME Corp"}
	if !ctx.HasParty() {
		t.Error("Expected HasParty to be true")
	}

	ctx = &PaymentContext{Party: "   "}
	if ctx.HasParty() {
		t.Error("Expected HasParty to be false for whitespace party")
	}
}

func TestPaymentContext_Validate(t *testing.T) {
	valid := &PaymentContext{
		PaymentType: PaymentTypeReceive,
		PartyRole:   PartyRoleCustomer,
		References: []*Reference{
			NewReference("INV-1", decimal.RequireFromString("100.00")),
		},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid context, got: %v", err)
	}

	invalid := &PaymentContext{PaymentType: "Refund"}
	if err := invalid.Validate(); err == nil {
		t.Error("Expected error for invalid payment type")
	}

	invalid = &PaymentContext{
		PaymentType: PaymentTypePay,
		References:  []*Reference{{ReferenceID: ""}},
	}
	if err := invalid.Validate(); err == nil {
		t.Error("Expected error for reference with empty ID")
	}
}

func TestBankTransaction_Direction(t *testing.T) {
	withdrawal := NewBankTransaction("BT-1",
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		decimal.RequireFromString("100.00"), decimal.Zero)
	if withdrawal.Direction() != DirectionWithdrawal {
		t.Errorf("Expected Withdrawal, got %s", withdrawal.Direction())
	}
	if !withdrawal.Amount().Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("Expected amount 100.00, got %s", withdrawal.Amount().String())
	}

	deposit := NewBankTransaction("BT-2",
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		decimal.Zero, decimal.RequireFromString("50.00"))
	if deposit.Direction() != DirectionDeposit {
		t.Errorf("Expected Deposit, got %s", deposit.Direction())
	}
}

func TestBankTransaction_Validate(t *testing.T) {
	valid := NewBankTransaction("BT-1",
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		decimal.Zero, decimal.RequireFromString("50.00"))
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid transaction, got: %v", err)
	}

	bothSides := NewBankTransaction("BT-2",
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		decimal.RequireFromString("10.00"), decimal.RequireFromString("50.00"))
	if err := bothSides.Validate(); err == nil {
		t.Error("Expected error when both withdrawal and deposit are positive")
	}

	noID := NewBankTransaction(" ",
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		decimal.Zero, decimal.RequireFromString("50.00"))
	if err := noID.Validate(); err == nil {
		t.Error("Expected error for empty ID")
	}

	noDate := NewBankTransaction("BT-3", time.Time{},
		decimal.Zero, decimal.RequireFromString("50.00"))
	if err := noDate.Validate(); err == nil {
		t.Error("Expected error for zero date")
	}
}

func TestSameDay(t *testing.T) {
	morning := time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 1, 5, 22, 30, 0, 0, time.UTC)
	nextDay := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)

	if !SameDay(morning, evening) {
		t.Error("Expected same day for different times on one date")
	}
	if SameDay(morning, nextDay) {
		t.Error("Expected different days")
	}
	if SameDay(morning, time.Time{}) {
		t.Error("Expected zero time to never match")
	}
}

func TestCreateBankTransactionFromCSV(t *testing.T) {
	txn, err := CreateBankTransactionFromCSV("BT-1", "2024-01-05", "", "100.00", "payment for INV-1", "INV-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if txn.ID != "BT-1" {
		t.Errorf("Expected ID BT-1, got %s", txn.ID)
	}
	if txn.Direction() != DirectionDeposit {
		t.Errorf("Expected Deposit, got %s", txn.Direction())
	}
	if !txn.UnallocatedAmount.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("Expected unallocated 100.00, got %s", txn.UnallocatedAmount.String())
	}

	// Malformed amounts normalize to zero rather than failing
	txn, err = CreateBankTransactionFromCSV("BT-2", "2024-01-05", "abc", "50.00", "", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !txn.Withdrawal.IsZero() {
		t.Errorf("Expected malformed withdrawal to normalize to zero, got %s", txn.Withdrawal.String())
	}

	// Bad dates are rejected
	if _, err := CreateBankTransactionFromCSV("BT-3", "not-a-date", "", "50.00", "", ""); err == nil {
		t.Error("Expected error for invalid date")
	}
}

func TestCreateCandidateVoucherFromCSV(t *testing.T) {
	voucher, err := CreateCandidateVoucherFromCSV("PE-1", "Payment Entry", "100.00", "2024-01-05", "2024-01-04", "INV-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if voucher.ReferenceDate == nil {
		t.Fatal("Expected reference date to be set")
	}
	if voucher.ReferenceDate.Format("2006-01-02") != "2024-01-04" {
		t.Errorf("Expected reference date 2024-01-04, got %s", voucher.ReferenceDate.Format("2006-01-02"))
	}

	// Blank reference date is optional
	voucher, err = CreateCandidateVoucherFromCSV("PE-2", "Payment Entry", "50.00", "2024-01-05", "", "")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if voucher.ReferenceDate != nil {
		t.Error("Expected nil reference date for blank input")
	}
}

func TestCreateReferenceFromCSV(t *testing.T) {
	ref, err := CreateReferenceFromCSV("INV-1", "Sales Invoice", "-25.50")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !ref.OutstandingAmount.Equal(decimal.RequireFromString("-25.50")) {
		t.Errorf("Expected outstanding -25.50, got %s", ref.OutstandingAmount.String())
	}
	if !ref.AllocatedAmount.IsZero() {
		t.Error("Expected new reference to start with zero allocation")
	}

	if _, err := CreateReferenceFromCSV("  ", "Sales Invoice", "10"); err == nil {
		t.Error("Expected error for blank reference ID")
	}
}
