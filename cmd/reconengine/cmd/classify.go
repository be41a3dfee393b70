package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bank-reconciliation-engine/cmd/reconengine/config"
	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/parsers"
	"bank-reconciliation-engine/internal/recon"
	"bank-reconciliation-engine/internal/reporter"
)

// emptyVoucherLookup satisfies the service's required collaborator for
// commands that never touch vouchers.
type emptyVoucherLookup struct{}

func (emptyVoucherLookup) CandidateVouchers(_ context.Context, _ *models.BankTransaction) ([]*models.CandidateVoucher, error) {
	return nil, nil
}

var (
	classifyTransactionsFile string
	classifyRulesFile        string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify bank transactions with description rules",
	Long: `Classify evaluates the rule file against each bank transaction and
reports the first matching rule in priority order. Rules restrict by
direction, amount bounds, and case-sensitive description predicates.

Examples:
  reconengine classify --transactions bank.csv --rules rules.json
  reconengine classify --transactions bank.csv --rules rules.json --output-format json`,
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().StringVar(&classifyTransactionsFile, "transactions", "", "bank transactions CSV file (required)")
	classifyCmd.Flags().StringVar(&classifyRulesFile, "rules", "", "classification rules JSON file (required)")

	classifyCmd.MarkFlagRequired("transactions")
	classifyCmd.MarkFlagRequired("rules")
}

func runClassify(cmd *cobra.Command, args []string) error {
	handler := NewCLIErrorHandler()
	ctx := context.Background()

	parseConfig := config.CreateParseConfig(true)

	transactions, _, err := parsers.NewTransactionParser(parseConfig).ParseTransactions(classifyTransactionsFile)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	rules, err := parsers.NewFileRuleProvider(classifyRulesFile)
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	svc, err := recon.NewService(recon.Config{
		Vouchers: emptyVoucherLookup{},
		Rules:    rules,
	})
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

	for _, txn := range transactions {
		rule, err := svc.Classify(ctx, txn)
		if err != nil {
			os.Exit(handler.HandleError(err))
		}
		if err := rep.WriteClassificationReport(cmd.OutOrStdout(), txn, rule); err != nil {
			os.Exit(handler.HandleError(err))
		}
	}

	return nil
}
