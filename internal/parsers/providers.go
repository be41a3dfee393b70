package parsers

import (
	"context"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/scoring"
)

// File-backed implementations of the recon service's data source
// interfaces. Each loads its file once at construction time; the CLI
// works over static exports, so there is no reload path.

// FileVoucherLookup serves candidate vouchers loaded from a CSV file.
type FileVoucherLookup struct {
	vouchers []*models.CandidateVoucher
}

// NewFileVoucherLookup loads vouchers from the file
func NewFileVoucherLookup(filePath string, config *ParseConfig) (*FileVoucherLookup, *ParseStats, error) {
	vouchers, stats, err := NewVoucherParser(config).ParseVouchers(filePath)
	if err != nil {
		return nil, nil, err
	}
	return &FileVoucherLookup{vouchers: vouchers}, stats, nil
}

// CandidateVouchers returns all loaded vouchers in file order. Candidate
// filtering is the scorer's job; the lookup stays dumb.
func (f *FileVoucherLookup) CandidateVouchers(_ context.Context, _ *models.BankTransaction) ([]*models.CandidateVoucher, error) {
	return f.vouchers, nil
}

// FileReferenceProvider serves outstanding references loaded from a CSV
// file, filtered by party.
type FileReferenceProvider struct {
	records []*ReferenceRecord
}

// NewFileReferenceProvider loads reference records from the file
func NewFileReferenceProvider(filePath string, config *ParseConfig) (*FileReferenceProvider, *ParseStats, error) {
	records, stats, err := NewReferenceParser(config).ParseReferences(filePath)
	if err != nil {
		return nil, nil, err
	}
	return &FileReferenceProvider{records: records}, stats, nil
}

// OutstandingReferences returns the references for the given party in
// file order. Company and role filters apply only when the record
// carries a value, so exports without those columns still work.
func (f *FileReferenceProvider) OutstandingReferences(_ context.Context, company, party string, role models.PartyRole) ([]*models.Reference, error) {
	var refs []*models.Reference
	for _, record := range f.records {
		if record.Party != party {
			continue
		}
		if record.Company != "" && company != "" && record.Company != company {
			continue
		}
		if record.PartyRole != models.PartyRoleNone && role != models.PartyRoleNone && record.PartyRole != role {
			continue
		}
		refs = append(refs, record.Reference)
	}
	return refs, nil
}

// FileRuleProvider serves classification rules loaded from a JSON file.
type FileRuleProvider struct {
	rules []*scoring.Rule
}

// NewFileRuleProvider loads and validates rules from the file
func NewFileRuleProvider(filePath string) (*FileRuleProvider, error) {
	rules, err := LoadRules(filePath)
	if err != nil {
		return nil, err
	}
	return &FileRuleProvider{rules: rules}, nil
}

// Rules returns the loaded rule set
func (f *FileRuleProvider) Rules(_ context.Context) ([]*scoring.Rule, error) {
	return f.rules, nil
}
