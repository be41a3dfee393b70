package recon

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/scoring"
	"bank-reconciliation-engine/pkg/errors"
)

// Test fakes

type fakeVoucherLookup struct {
	vouchers []*models.CandidateVoucher
	err      error
}

func (f *fakeVoucherLookup) CandidateVouchers(_ context.Context, _ *models.BankTransaction) ([]*models.CandidateVoucher, error) {
	return f.vouchers, f.err
}

type fakeReferenceProvider struct {
	refs []*models.Reference
	err  error

	gotCompany string
	gotParty   string
	gotRole    models.PartyRole
}

func (f *fakeReferenceProvider) OutstandingReferences(_ context.Context, company, party string, role models.PartyRole) ([]*models.Reference, error) {
	f.gotCompany = company
	f.gotParty = party
	f.gotRole = role
	return f.refs, f.err
}

type fakeRuleProvider struct {
	rules []*scoring.Rule
	err   error
}

func (f *fakeRuleProvider) Rules(_ context.Context) ([]*scoring.Rule, error) {
	return f.rules, f.err
}

type fakeCommand struct {
	mu       sync.Mutex
	executed []*ReconciliationPayload
	err      error
	block    chan struct{} // when non-nil, Execute waits until closed
	started  chan struct{} // when non-nil, closed once Execute begins
}

func (f *fakeCommand) Execute(_ context.Context, payload *ReconciliationPayload) error {
	if f.started != nil {
		close(f.started)
		f.started = nil
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.executed = append(f.executed, payload)
	f.mu.Unlock()
	return f.err
}

func amt(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testTxn() *models.BankTransaction {
	txn := models.NewBankTransaction("TXN001", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), decimal.Zero, amt("100.00"))
	txn.Description = "Payment from Acme Corp"
	txn.ReferenceNumber = "INV-001"
	return txn
}

func newTestService(t *testing.T, config Config) *Service {
	t.Helper()
	if config.Vouchers == nil {
		config.Vouchers = &fakeVoucherLookup{}
	}
	svc, err := NewService(config)
	if err != nil {
		t.Fatalf("NewService() failed: %v", err)
	}
	return svc
}

func TestNewService_RequiresVoucherLookup(t *testing.T) {
	_, err := NewService(Config{})
	if err == nil {
		t.Fatal("NewService should require a voucher lookup")
	}
	reconErr, ok := errors.AsReconError(err)
	if !ok || reconErr.Category != errors.CategoryConfiguration {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestSuggestMatches(t *testing.T) {
	vouchers := []*models.CandidateVoucher{
		{
			VoucherID:   "SI-001",
			VoucherType: "Sales Invoice",
			Party:       "Acme Corp",
			PaidAmount:  amt("100.00"),
			PostingDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			ReferenceNo: "INV-001",
		},
		{
			VoucherID:   "SI-002",
			VoucherType: "Sales Invoice",
			Party:       "Acme Corp",
			PaidAmount:  amt("250.00"),
			PostingDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			ReferenceNo: "INV-002",
		},
	}

	svc := newTestService(t, Config{Vouchers: &fakeVoucherLookup{vouchers: vouchers}})

	scored, err := svc.SuggestMatches(context.Background(), testTxn())
	if err != nil {
		t.Fatalf("SuggestMatches() failed: %v", err)
	}
	if len(scored) != 2 {
		t.Fatalf("got %d scored candidates, want 2", len(scored))
	}

	first := scored[0]
	if !first.Annotation.Suggested {
		t.Error("first candidate with amount and date match should be suggested")
	}
	if first.Annotation.ReferenceMatchClass != models.ReferenceMatchFull {
		t.Errorf("reference class = %s, want %s", first.Annotation.ReferenceMatchClass, models.ReferenceMatchFull)
	}
	if scored[1].Annotation.Suggested {
		t.Error("second candidate must never be suggested")
	}
}

func TestSuggestMatches_Errors(t *testing.T) {
	svc := newTestService(t, Config{Vouchers: &fakeVoucherLookup{err: fmt.Errorf("db down")}})

	if _, err := svc.SuggestMatches(context.Background(), nil); err == nil {
		t.Error("nil transaction should fail validation")
	}

	_, err := svc.SuggestMatches(context.Background(), testTxn())
	if !errors.HasCode(err, errors.CodeLookupFailed) {
		t.Errorf("lookup failure should surface as lookup_failed, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	rules := []*scoring.Rule{
		{
			Name:            "fees",
			Priority:        2,
			TransactionType: scoring.RuleTransactionAny,
			DescriptionRules: []scoring.DescriptionRule{
				{Kind: scoring.DescriptionContains, Pattern: "fee"},
			},
			ClassifyAs: scoring.ClassifyBankEntry,
		},
		{
			Name:            "customer payments",
			Priority:        1,
			TransactionType: scoring.RuleTransactionDeposit,
			DescriptionRules: []scoring.DescriptionRule{
				{Kind: scoring.DescriptionContains, Pattern: "Payment"},
			},
			ClassifyAs: scoring.ClassifyPaymentEntry,
		},
	}

	svc := newTestService(t, Config{Rules: &fakeRuleProvider{rules: rules}})

	rule, err := svc.Classify(context.Background(), testTxn())
	if err != nil {
		t.Fatalf("Classify() failed: %v", err)
	}
	if rule == nil {
		t.Fatal("expected a matching rule")
	}
	if rule.Name != "customer payments" {
		t.Errorf("matched rule = %s, want the lower-priority-number rule", rule.Name)
	}
}

func TestClassify_NoProvider(t *testing.T) {
	svc := newTestService(t, Config{})

	_, err := svc.Classify(context.Background(), testTxn())
	reconErr, ok := errors.AsReconError(err)
	if !ok || reconErr.Category != errors.CategoryConfiguration {
		t.Errorf("expected configuration error without a rule provider, got %v", err)
	}
}

func TestPreparePayment_DepositAllocates(t *testing.T) {
	refs := []*models.Reference{
		models.NewReference("INV-001", amt("60.00")),
		models.NewReference("INV-002", amt("70.00")),
	}
	provider := &fakeReferenceProvider{refs: refs}
	svc := newTestService(t, Config{References: provider})

	voucher := &models.CandidateVoucher{
		VoucherID:   "SI-001",
		VoucherType: "Sales Invoice",
		Party:       "Acme Corp",
		PaidAmount:  amt("100.00"),
		PostingDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}

	pc, err := svc.PreparePayment(context.Background(), testTxn(), voucher, "Acme Holdings")
	if err != nil {
		t.Fatalf("PreparePayment() failed: %v", err)
	}

	if pc.Company != "Acme Holdings" {
		t.Errorf("company = %q, want Acme Holdings", pc.Company)
	}
	if provider.gotCompany != "Acme Holdings" {
		t.Errorf("reference lookup company = %q, want Acme Holdings", provider.gotCompany)
	}
	if provider.gotParty != "Acme Corp" || provider.gotRole != models.PartyRoleCustomer {
		t.Errorf("reference lookup scoped to %q/%s, want Acme Corp/Customer", provider.gotParty, provider.gotRole)
	}

	if pc.PaymentType != models.PaymentTypeReceive {
		t.Errorf("payment type = %s, want %s for a deposit", pc.PaymentType, models.PaymentTypeReceive)
	}
	if pc.PartyRole != models.PartyRoleCustomer {
		t.Errorf("party role = %s, want %s", pc.PartyRole, models.PartyRoleCustomer)
	}
	if !pc.TotalAllocatedAmount.Equal(amt("100.00")) {
		t.Errorf("total allocated = %s, want 100.00", pc.TotalAllocatedAmount)
	}
	if !pc.References[0].AllocatedAmount.Equal(amt("60.00")) {
		t.Errorf("first reference allocated = %s, want 60.00", pc.References[0].AllocatedAmount)
	}
	if !pc.References[1].AllocatedAmount.Equal(amt("40.00")) {
		t.Errorf("second reference allocated = %s, want 40.00", pc.References[1].AllocatedAmount)
	}
	if !pc.UnallocatedAmount.IsZero() {
		t.Errorf("unallocated = %s, want 0", pc.UnallocatedAmount)
	}
}

func TestPreparePayment_WithdrawalPaysSupplier(t *testing.T) {
	svc := newTestService(t, Config{})

	txn := models.NewBankTransaction("TXN002", time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), amt("80.00"), decimal.Zero)
	voucher := &models.CandidateVoucher{
		VoucherID:   "PI-001",
		VoucherType: "Purchase Invoice",
		Party:       "Globex Inc",
		PaidAmount:  amt("80.00"),
		PostingDate: txn.Date,
	}

	pc, err := svc.PreparePayment(context.Background(), txn, voucher, "")
	if err != nil {
		t.Fatalf("PreparePayment() failed: %v", err)
	}
	if pc.PaymentType != models.PaymentTypePay {
		t.Errorf("payment type = %s, want %s for a withdrawal", pc.PaymentType, models.PaymentTypePay)
	}
	if pc.PartyRole != models.PartyRoleSupplier {
		t.Errorf("party role = %s, want %s", pc.PartyRole, models.PartyRoleSupplier)
	}
	if !pc.PaidAmount.Equal(amt("80.00")) {
		t.Errorf("paid amount = %s, want 80.00", pc.PaidAmount)
	}
}

func TestSubmitReconciliation(t *testing.T) {
	cmd := &fakeCommand{}
	svc := newTestService(t, Config{Command: cmd})

	payload := &ReconciliationPayload{
		TransactionID: "TXN001",
		VoucherID:     "SI-001",
		Party:         "Acme Corp",
	}

	if err := svc.SubmitReconciliation(context.Background(), payload); err != nil {
		t.Fatalf("SubmitReconciliation() failed: %v", err)
	}
	if len(cmd.executed) != 1 {
		t.Fatalf("command executed %d times, want 1", len(cmd.executed))
	}

	// After completion the transaction can be submitted again.
	if err := svc.SubmitReconciliation(context.Background(), payload); err != nil {
		t.Fatalf("second sequential submission failed: %v", err)
	}
}

func TestSubmitReconciliation_Validation(t *testing.T) {
	svc := newTestService(t, Config{Command: &fakeCommand{}})

	if err := svc.SubmitReconciliation(context.Background(), nil); err == nil {
		t.Error("nil payload should fail")
	}
	if err := svc.SubmitReconciliation(context.Background(), &ReconciliationPayload{VoucherID: "SI-001"}); err == nil {
		t.Error("missing transaction id should fail")
	}
	if err := svc.SubmitReconciliation(context.Background(), &ReconciliationPayload{TransactionID: "TXN001"}); err == nil {
		t.Error("missing voucher id should fail")
	}
}

func TestSubmitReconciliation_SecondInFlightRejected(t *testing.T) {
	cmd := &fakeCommand{
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	svc := newTestService(t, Config{Command: cmd})

	payload := &ReconciliationPayload{TransactionID: "TXN001", VoucherID: "SI-001"}

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- svc.SubmitReconciliation(context.Background(), payload)
	}()
	<-cmd.started

	err := svc.SubmitReconciliation(context.Background(), payload)
	if !errors.HasCode(err, errors.CodeSubmissionInFlight) {
		t.Errorf("concurrent submission should fail with submission_in_flight, got %v", err)
	}

	// A different transaction is not blocked.
	other := &ReconciliationPayload{TransactionID: "TXN002", VoucherID: "SI-002"}
	otherCmd := &fakeCommand{}
	otherSvc := newTestService(t, Config{Command: otherCmd})
	if err := otherSvc.SubmitReconciliation(context.Background(), other); err != nil {
		t.Errorf("unrelated transaction should submit, got %v", err)
	}

	close(cmd.block)
	if err := <-firstDone; err != nil {
		t.Errorf("first submission should succeed once unblocked, got %v", err)
	}
}

func TestSubmitReconciliation_CommandFailureReleasesSlot(t *testing.T) {
	cmd := &fakeCommand{err: fmt.Errorf("gateway timeout")}
	svc := newTestService(t, Config{Command: cmd})

	payload := &ReconciliationPayload{TransactionID: "TXN001", VoucherID: "SI-001"}

	err := svc.SubmitReconciliation(context.Background(), payload)
	if err == nil {
		t.Fatal("command failure should surface")
	}

	// The failed attempt must not leave the transaction locked.
	cmd.err = nil
	if err := svc.SubmitReconciliation(context.Background(), payload); err != nil {
		t.Errorf("retry after failure should succeed, got %v", err)
	}
}
