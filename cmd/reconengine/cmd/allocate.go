package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bank-reconciliation-engine/cmd/reconengine/config"
	"bank-reconciliation-engine/internal/allocation"
	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/money"
	"bank-reconciliation-engine/internal/parsers"
	"bank-reconciliation-engine/internal/recon"
	"bank-reconciliation-engine/internal/reporter"
	"bank-reconciliation-engine/pkg/errors"
)

var (
	allocateTransactionsFile string
	allocateVouchersFile     string
	allocateReferencesFile   string
	allocateTransactionID    string
	allocateVoucherID        string
	allocateCompany          string
	allocatePaidAmount       string
	allocatePaymentType      string
	allocateParty            string
	allocatePartyRole        string
	allocateDeductions       []string
)

var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Allocate a payment amount across outstanding references",
	Long: `Allocate spreads a payment across a party's outstanding references in
order and reports the resulting allocation, unallocated remainder, and
difference.

Two input modes are supported. Transaction mode resolves the payment
from a bank transaction and a voucher (the suggested match when no
voucher is named). Direct mode takes the payment fields on the command
line and needs no transaction or voucher files.

Examples:
  reconengine allocate --references refs.csv --transactions bank.csv --vouchers vouchers.csv --transaction-id TXN001
  reconengine allocate --references refs.csv --paid-amount 100.00 --payment-type Pay --party "Acme Supplies" --party-role Supplier --deduction 5.00`,
	RunE: runAllocate,
}

func init() {
	rootCmd.AddCommand(allocateCmd)

	allocateCmd.Flags().StringVar(&allocateReferencesFile, "references", "", "outstanding references CSV file (required)")
	allocateCmd.Flags().StringVar(&allocateTransactionsFile, "transactions", "", "bank transactions CSV file (transaction mode)")
	allocateCmd.Flags().StringVar(&allocateVouchersFile, "vouchers", "", "candidate vouchers CSV file (transaction mode)")
	allocateCmd.Flags().StringVar(&allocateTransactionID, "transaction-id", "", "transaction to allocate (transaction mode)")
	allocateCmd.Flags().StringVar(&allocateVoucherID, "voucher-id", "", "voucher to allocate against (default: suggested match)")
	allocateCmd.Flags().StringVar(&allocateCompany, "company", "", "company to scope the reference lookup to")
	allocateCmd.Flags().StringVar(&allocatePaidAmount, "paid-amount", "", "payment amount (direct mode)")
	allocateCmd.Flags().StringVar(&allocatePaymentType, "payment-type", "", "payment type: Receive or Pay (direct mode)")
	allocateCmd.Flags().StringVar(&allocateParty, "party", "", "party name (direct mode)")
	allocateCmd.Flags().StringVar(&allocatePartyRole, "party-role", "", "party role: Customer, Supplier, Employee, Shareholder (direct mode)")
	allocateCmd.Flags().StringSliceVar(&allocateDeductions, "deduction", nil, "deduction amount, repeatable (direct mode)")

	allocateCmd.MarkFlagRequired("references")
}

func runAllocate(cmd *cobra.Command, args []string) error {
	handler := NewCLIErrorHandler()

	policy, err := config.CreateMoneyPolicy(int32(viper.GetInt("precision")), viper.GetString("rounding_mode"))
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	parseConfig := config.CreateParseConfig(true)
	references, _, err := parsers.NewFileReferenceProvider(allocateReferencesFile, parseConfig)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	var pc *models.PaymentContext
	if allocatePaidAmount != "" {
		pc, err = allocateDirect(references, policy)
	} else {
		pc, err = allocateFromTransaction(parseConfig, references, policy)
	}
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	reportConfig, err := config.CreateReportConfig(viper.GetString("output_format"))
	if err != nil {
		os.Exit(handler.HandleError(err))
	}
	rep, err := reporter.NewReporter(reportConfig)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	if err := rep.WriteAllocationReport(cmd.OutOrStdout(), pc); err != nil {
		os.Exit(handler.HandleError(err))
	}

	return nil
}

// allocateDirect builds the payment context from command-line fields and
// runs auto allocation over the party's references.
func allocateDirect(references *parsers.FileReferenceProvider, policy money.Policy) (*models.PaymentContext, error) {
	paymentType, err := models.ParsePaymentType(allocatePaymentType)
	if err != nil {
		return nil, errors.ValidationError(errors.CodeMissingField, "payment-type", allocatePaymentType, err)
	}
	partyRole, err := models.ParsePartyRole(allocatePartyRole)
	if err != nil {
		return nil, errors.ValidationError(errors.CodeMissingField, "party-role", allocatePartyRole, err)
	}
	if allocateParty == "" {
		return nil, errors.ValidationError(errors.CodeMissingField, "party", nil, nil).
			WithSuggestion("direct mode needs --party along with --paid-amount")
	}

	amount := money.ParseAmount(allocatePaidAmount)
	pc := &models.PaymentContext{
		Company:        allocateCompany,
		Party:          allocateParty,
		PartyRole:      partyRole,
		PaymentType:    paymentType,
		PaidAmount:     amount,
		ReceivedAmount: amount,
	}
	for _, deduction := range allocateDeductions {
		pc.Deductions = append(pc.Deductions, models.Deduction{Amount: money.ParseAmount(deduction)})
	}

	refs, err := references.OutstandingReferences(context.Background(), pc.Company, pc.Party, pc.PartyRole)
	if err != nil {
		return nil, err
	}
	pc.References = refs

	allocation.NewEngine(policy).AutoAllocate(pc, pc.PaidAmount)
	return pc, nil
}

// allocateFromTransaction resolves the payment from the transactions and
// vouchers files, delegating to the reconciliation service.
func allocateFromTransaction(parseConfig *parsers.ParseConfig, references *parsers.FileReferenceProvider, policy money.Policy) (*models.PaymentContext, error) {
	if allocateTransactionsFile == "" || allocateVouchersFile == "" || allocateTransactionID == "" {
		return nil, errors.ValidationError(errors.CodeMissingField, "transaction-id", nil, nil).
			WithSuggestion("transaction mode needs --transactions, --vouchers, and --transaction-id; or use --paid-amount for direct mode")
	}

	ctx := context.Background()

	transactions, _, err := parsers.NewTransactionParser(parseConfig).ParseTransactions(allocateTransactionsFile)
	if err != nil {
		return nil, err
	}

	var txn *models.BankTransaction
	for _, candidate := range transactions {
		if candidate.ID == allocateTransactionID {
			txn = candidate
			break
		}
	}
	if txn == nil {
		return nil, errors.ValidationError(errors.CodeMissingField, "transaction-id", allocateTransactionID, nil).
			WithSuggestion("check the transaction id against the transactions file")
	}

	lookup, _, err := parsers.NewFileVoucherLookup(allocateVouchersFile, parseConfig)
	if err != nil {
		return nil, err
	}

	svc, err := recon.NewService(recon.Config{
		Vouchers:   lookup,
		References: references,
		Policy:     policy,
	})
	if err != nil {
		return nil, err
	}

	voucher, err := selectVoucher(ctx, svc, txn)
	if err != nil {
		return nil, err
	}

	return svc.PreparePayment(ctx, txn, voucher, allocateCompany)
}

// selectVoucher resolves the voucher to allocate against: the explicitly
// named one, otherwise the suggested match, otherwise the first candidate.
func selectVoucher(ctx context.Context, svc *recon.Service, txn *models.BankTransaction) (*models.CandidateVoucher, error) {
	scored, err := svc.SuggestMatches(ctx, txn)
	if err != nil {
		return nil, err
	}
	if len(scored) == 0 {
		return nil, errors.ReconciliationError(errors.CodeLookupFailed, "voucher selection for "+txn.ID, nil).
			WithSuggestion("the vouchers file has no candidates for this transaction")
	}

	if allocateVoucherID != "" {
		for _, candidate := range scored {
			if candidate.Candidate.VoucherID == allocateVoucherID {
				return candidate.Candidate, nil
			}
		}
		return nil, errors.ValidationError(errors.CodeMissingField, "voucher-id", allocateVoucherID, nil).
			WithSuggestion("check the voucher id against the vouchers file")
	}

	for _, candidate := range scored {
		if candidate.Annotation.Suggested {
			return candidate.Candidate, nil
		}
	}
	return scored[0].Candidate, nil
}
