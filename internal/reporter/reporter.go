// Package reporter renders match-scoring and allocation results for
// terminal display and for machine consumption.
//
// Supported output formats:
//   - Console: human-readable tabular output
//   - JSON: structured data for programmatic consumption
//   - CSV: rows for spreadsheet applications
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/scoring"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ParseOutputFormat converts a string to an OutputFormat
func ParseOutputFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if !format.IsValid() {
		return "", fmt.Errorf("invalid output format: %s (expected console, json, or csv)", s)
	}
	return format, nil
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// Console options
	ShowUnsuggested bool `json:"show_unsuggested"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:          FormatConsole,
		ShowUnsuggested: true,
		CSVDelimiter:    ',',
		CSVHeaders:      true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// Reporter generates reports in the configured format
type Reporter struct {
	config *ReportConfig
}

// NewReporter creates a Reporter with the given configuration
func NewReporter(config *ReportConfig) (*Reporter, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Reporter{config: config}, nil
}

// MatchReport is the serializable shape of a match-scoring run for one
// transaction.
type MatchReport struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	Transaction *models.BankTransaction   `json:"transaction"`
	Candidates  []scoring.ScoredCandidate `json:"candidates"`
}

// AllocationReport is the serializable shape of an allocation run.
type AllocationReport struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Payment     *models.PaymentContext `json:"payment"`
}

// ClassificationReport is the serializable shape of a classification run.
type ClassificationReport struct {
	GeneratedAt time.Time               `json:"generated_at"`
	Transaction *models.BankTransaction `json:"transaction"`
	Matched     bool                    `json:"matched"`
	Rule        *scoring.Rule           `json:"rule,omitempty"`
}

// WriteMatchReport renders the scored candidates for a transaction
func (r *Reporter) WriteMatchReport(w io.Writer, txn *models.BankTransaction, candidates []scoring.ScoredCandidate) error {
	report := &MatchReport{
		GeneratedAt: time.Now().UTC(),
		Transaction: txn,
		Candidates:  candidates,
	}

	switch r.config.Format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatCSV:
		return r.writeMatchCSV(w, report)
	default:
		return r.writeMatchConsole(w, report)
	}
}

// WriteAllocationReport renders an allocated payment context
func (r *Reporter) WriteAllocationReport(w io.Writer, pc *models.PaymentContext) error {
	report := &AllocationReport{
		GeneratedAt: time.Now().UTC(),
		Payment:     pc,
	}

	switch r.config.Format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatCSV:
		return r.writeAllocationCSV(w, report)
	default:
		return r.writeAllocationConsole(w, report)
	}
}

// WriteClassificationReport renders a rule classification result
func (r *Reporter) WriteClassificationReport(w io.Writer, txn *models.BankTransaction, rule *scoring.Rule) error {
	report := &ClassificationReport{
		GeneratedAt: time.Now().UTC(),
		Transaction: txn,
		Matched:     rule != nil,
		Rule:        rule,
	}

	if r.config.Format == FormatJSON {
		return writeJSON(w, report)
	}

	if rule == nil {
		_, err := fmt.Fprintf(w, "Transaction %s: no rule matched\n", txn.ID)
		return err
	}
	_, err := fmt.Fprintf(w, "Transaction %s: rule %q classifies as %s\n", txn.ID, rule.Name, rule.ClassifyAs)
	return err
}

func writeJSON(w io.Writer, report interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func (r *Reporter) writeMatchConsole(w io.Writer, report *MatchReport) error {
	txn := report.Transaction
	fmt.Fprintf(w, "Match Report\n")
	fmt.Fprintf(w, "============\n")
	fmt.Fprintf(w, "Transaction: %s  %s  %s %s\n",
		txn.ID, txn.Date.Format("2006-01-02"), txn.Direction(), txn.Amount().StringFixed(2))
	if txn.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", txn.Description)
	}
	fmt.Fprintf(w, "\n")

	if len(report.Candidates) == 0 {
		fmt.Fprintf(w, "No candidate vouchers.\n")
		return nil
	}

	fmt.Fprintf(w, "%-4s %-12s %-18s %-10s %-8s %-8s %-9s %s\n",
		"Rank", "Voucher", "Type", "Amount", "AmtEq", "DateEq", "RefMatch", "Suggested")
	for _, candidate := range report.Candidates {
		if !r.config.ShowUnsuggested && !candidate.Annotation.Suggested {
			continue
		}
		dateEq := candidate.Annotation.PostingDateMatches || candidate.Annotation.ReferenceDateMatches
		fmt.Fprintf(w, "%-4d %-12s %-18s %-10s %-8t %-8t %-9s %t\n",
			candidate.Rank,
			candidate.Candidate.VoucherID,
			candidate.Candidate.VoucherType,
			candidate.Candidate.PaidAmount.StringFixed(2),
			candidate.Annotation.AmountMatches,
			dateEq,
			candidate.Annotation.ReferenceMatchClass,
			candidate.Annotation.Suggested)
	}

	return nil
}

func (r *Reporter) writeMatchCSV(w io.Writer, report *MatchReport) error {
	writer := csv.NewWriter(w)
	writer.Comma = r.config.CSVDelimiter
	defer writer.Flush()

	if r.config.CSVHeaders {
		header := []string{"transaction_id", "rank", "voucher_id", "voucher_type", "amount",
			"amount_matches", "posting_date_matches", "reference_date_matches", "reference_match_class", "suggested"}
		if err := writer.Write(header); err != nil {
			return err
		}
	}

	for _, candidate := range report.Candidates {
		row := []string{
			report.Transaction.ID,
			strconv.Itoa(candidate.Rank),
			candidate.Candidate.VoucherID,
			candidate.Candidate.VoucherType,
			candidate.Candidate.PaidAmount.StringFixed(2),
			strconv.FormatBool(candidate.Annotation.AmountMatches),
			strconv.FormatBool(candidate.Annotation.PostingDateMatches),
			strconv.FormatBool(candidate.Annotation.ReferenceDateMatches),
			string(candidate.Annotation.ReferenceMatchClass),
			strconv.FormatBool(candidate.Annotation.Suggested),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return writer.Error()
}

func (r *Reporter) writeAllocationConsole(w io.Writer, report *AllocationReport) error {
	pc := report.Payment
	fmt.Fprintf(w, "Allocation Report\n")
	fmt.Fprintf(w, "=================\n")
	fmt.Fprintf(w, "Payment: %s", pc.PaymentType)
	if pc.HasParty() {
		fmt.Fprintf(w, "  %s (%s)", pc.Party, pc.PartyRole)
	}
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Paid: %s  Received: %s\n", pc.PaidAmount.StringFixed(2), pc.ReceivedAmount.StringFixed(2))
	fmt.Fprintf(w, "\n")

	if len(pc.References) > 0 {
		fmt.Fprintf(w, "%-14s %-18s %-12s %s\n", "Reference", "Type", "Outstanding", "Allocated")
		for _, ref := range pc.References {
			fmt.Fprintf(w, "%-14s %-18s %-12s %s\n",
				ref.ReferenceID, ref.ReferenceType,
				ref.OutstandingAmount.StringFixed(2), ref.AllocatedAmount.StringFixed(2))
		}
		fmt.Fprintf(w, "\n")
	}

	fmt.Fprintf(w, "Total allocated: %s\n", pc.TotalAllocatedAmount.StringFixed(2))
	fmt.Fprintf(w, "Unallocated:     %s\n", pc.UnallocatedAmount.StringFixed(2))
	fmt.Fprintf(w, "Difference:      %s\n", pc.DifferenceAmount.StringFixed(2))

	return nil
}

func (r *Reporter) writeAllocationCSV(w io.Writer, report *AllocationReport) error {
	writer := csv.NewWriter(w)
	writer.Comma = r.config.CSVDelimiter
	defer writer.Flush()

	if r.config.CSVHeaders {
		header := []string{"party", "party_role", "payment_type", "reference_id", "reference_type",
			"outstanding_amount", "allocated_amount"}
		if err := writer.Write(header); err != nil {
			return err
		}
	}

	pc := report.Payment
	for _, ref := range pc.References {
		row := []string{
			pc.Party,
			pc.PartyRole.String(),
			pc.PaymentType.String(),
			ref.ReferenceID,
			ref.ReferenceType,
			ref.OutstandingAmount.StringFixed(2),
			ref.AllocatedAmount.StringFixed(2),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return writer.Error()
}
