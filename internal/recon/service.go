// Package recon coordinates match suggestion, rule classification, payment
// preparation, and reconciliation submission over pluggable data sources.
package recon

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"bank-reconciliation-engine/internal/allocation"
	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/money"
	"bank-reconciliation-engine/internal/scoring"
	"bank-reconciliation-engine/pkg/errors"
	"bank-reconciliation-engine/pkg/logger"
)

// VoucherLookup supplies candidate vouchers for a bank transaction.
type VoucherLookup interface {
	CandidateVouchers(ctx context.Context, txn *models.BankTransaction) ([]*models.CandidateVoucher, error)
}

// ReferenceProvider supplies outstanding references for a party.
type ReferenceProvider interface {
	OutstandingReferences(ctx context.Context, company, party string, role models.PartyRole) ([]*models.Reference, error)
}

// RuleProvider supplies the classification rule set.
type RuleProvider interface {
	Rules(ctx context.Context) ([]*scoring.Rule, error)
}

// ReconcileCommand executes a reconciliation submission against the
// system of record.
type ReconcileCommand interface {
	Execute(ctx context.Context, payload *ReconciliationPayload) error
}

// ReconciliationPayload carries everything a submission needs.
type ReconciliationPayload struct {
	TransactionID   string              `json:"transaction_id"`
	VoucherID       string              `json:"voucher_id"`
	VoucherType     string              `json:"voucher_type"`
	Company         string              `json:"company"`
	Party           string              `json:"party"`
	PartyRole       models.PartyRole    `json:"party_role"`
	PaymentType     models.PaymentType  `json:"payment_type"`
	AllocatedAmount decimal.Decimal     `json:"allocated_amount"`
	References      []*models.Reference `json:"references,omitempty"`
}

// Validate checks that the payload identifies a transaction and a voucher.
func (p *ReconciliationPayload) Validate() error {
	if p.TransactionID == "" {
		return errors.ValidationError(errors.CodeMissingField, "transaction_id", nil, nil)
	}
	if p.VoucherID == "" {
		return errors.ValidationError(errors.CodeMissingField, "voucher_id", nil, nil)
	}
	return nil
}

// Service wires the scoring and allocation engines to external data
// sources and guards submissions so that at most one reconciliation is
// in flight per transaction.
type Service struct {
	vouchers   VoucherLookup
	references ReferenceProvider
	rules      RuleProvider
	command    ReconcileCommand
	engine     *allocation.Engine
	logger     logger.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// Config holds the collaborators and policy for a Service.
type Config struct {
	Vouchers   VoucherLookup
	References ReferenceProvider
	Rules      RuleProvider
	Command    ReconcileCommand
	Policy     money.Policy
	Logger     logger.Logger
}

// NewService creates a reconciliation service from the given config.
// The voucher lookup is required; the remaining collaborators are
// optional and gate the operations that need them.
func NewService(config Config) (*Service, error) {
	if config.Vouchers == nil {
		return nil, errors.ConfigurationError("vouchers", nil, nil).
			WithSuggestion("provide a VoucherLookup implementation")
	}

	log := config.Logger
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	return &Service{
		vouchers:   config.Vouchers,
		references: config.References,
		rules:      config.Rules,
		command:    config.Command,
		engine:     allocation.NewEngine(config.Policy),
		logger:     log.WithComponent("recon"),
		inFlight:   make(map[string]struct{}),
	}, nil
}

// SuggestMatches scores every candidate voucher against the transaction
// and returns the candidates in lookup order with their annotations.
// At most the first candidate can be flagged as suggested.
func (s *Service) SuggestMatches(ctx context.Context, txn *models.BankTransaction) ([]scoring.ScoredCandidate, error) {
	if txn == nil {
		return nil, errors.ValidationError(errors.CodeMissingField, "transaction", nil, nil)
	}
	if err := txn.Validate(); err != nil {
		return nil, err
	}

	candidates, err := s.vouchers.CandidateVouchers(ctx, txn)
	if err != nil {
		return nil, errors.ReconciliationError(errors.CodeLookupFailed, "voucher lookup for "+txn.ID, err)
	}

	scored := scoring.ScoreCandidates(txn, candidates)
	s.logger.WithFields(logger.Fields{
		"transaction_id": txn.ID,
		"candidates":     len(scored),
	}).Debug("scored candidate vouchers")

	return scored, nil
}

// Classify returns the highest-priority rule matching the transaction,
// or nil when no rule matches.
func (s *Service) Classify(ctx context.Context, txn *models.BankTransaction) (*scoring.Rule, error) {
	if txn == nil {
		return nil, errors.ValidationError(errors.CodeMissingField, "transaction", nil, nil)
	}
	if s.rules == nil {
		return nil, errors.ConfigurationError("rules", nil, nil).
			WithSuggestion("provide a RuleProvider to use classification")
	}

	rules, err := s.rules.Rules(ctx)
	if err != nil {
		return nil, errors.ReconciliationError(errors.CodeLookupFailed, "rule lookup", err)
	}

	return scoring.FirstMatchingRule(txn, rules), nil
}

// PreparePayment builds a payment context for reconciling the
// transaction against the voucher, loads the party's outstanding
// references scoped to the given company, and runs auto allocation
// over them. An empty company leaves the reference lookup unscoped.
func (s *Service) PreparePayment(ctx context.Context, txn *models.BankTransaction, voucher *models.CandidateVoucher, company string) (*models.PaymentContext, error) {
	if txn == nil {
		return nil, errors.ValidationError(errors.CodeMissingField, "transaction", nil, nil)
	}
	if voucher == nil {
		return nil, errors.ValidationError(errors.CodeMissingField, "voucher", nil, nil)
	}

	pc := &models.PaymentContext{
		Company: company,
		Party:   voucher.Party,
	}

	// Deposits are money in, so the payment receives from a customer;
	// withdrawals pay a supplier.
	switch txn.Direction() {
	case models.DirectionDeposit:
		pc.PaymentType = models.PaymentTypeReceive
		pc.PartyRole = models.PartyRoleCustomer
		pc.ReceivedAmount = txn.Amount()
		pc.PaidAmount = txn.Amount()
	default:
		pc.PaymentType = models.PaymentTypePay
		pc.PartyRole = models.PartyRoleSupplier
		pc.PaidAmount = txn.Amount()
		pc.ReceivedAmount = txn.Amount()
	}

	if s.references != nil && pc.HasParty() {
		refs, err := s.references.OutstandingReferences(ctx, pc.Company, pc.Party, pc.PartyRole)
		if err != nil {
			return nil, errors.ReconciliationError(errors.CodeLookupFailed, "reference lookup for "+pc.Party, err)
		}
		pc.References = refs
	}

	s.engine.AutoAllocate(pc, pc.PaidAmount)

	s.logger.WithFields(logger.Fields{
		"transaction_id": txn.ID,
		"voucher_id":     voucher.VoucherID,
		"allocated":      pc.TotalAllocatedAmount.String(),
		"unallocated":    pc.UnallocatedAmount.String(),
	}).Debug("prepared payment context")

	return pc, nil
}

// SubmitReconciliation executes the reconciliation command for the
// payload. A second submission for the same transaction while one is
// pending fails with a reconciliation error; submissions for distinct
// transactions proceed independently.
func (s *Service) SubmitReconciliation(ctx context.Context, payload *ReconciliationPayload) error {
	if payload == nil {
		return errors.ValidationError(errors.CodeMissingField, "payload", nil, nil)
	}
	if err := payload.Validate(); err != nil {
		return err
	}
	if s.command == nil {
		return errors.ConfigurationError("command", nil, nil).
			WithSuggestion("provide a ReconcileCommand to submit reconciliations")
	}

	if err := s.acquire(payload.TransactionID); err != nil {
		return err
	}
	defer s.release(payload.TransactionID)

	s.logger.WithFields(logger.Fields{
		"transaction_id": payload.TransactionID,
		"voucher_id":     payload.VoucherID,
	}).Info("submitting reconciliation")

	if err := s.command.Execute(ctx, payload); err != nil {
		return errors.ReconciliationError(errors.CodeUnexpectedError, "submission for "+payload.TransactionID, err).
			WithSuggestion("review the submission payload and retry")
	}

	return nil
}

func (s *Service) acquire(transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, pending := s.inFlight[transactionID]; pending {
		return errors.ReconciliationError(errors.CodeSubmissionInFlight, "transaction "+transactionID, nil)
	}
	s.inFlight[transactionID] = struct{}{}
	return nil
}

func (s *Service) release(transactionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, transactionID)
}
