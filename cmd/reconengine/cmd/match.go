package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bank-reconciliation-engine/cmd/reconengine/config"
	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/internal/parsers"
	"bank-reconciliation-engine/internal/recon"
	"bank-reconciliation-engine/internal/reporter"
	"bank-reconciliation-engine/pkg/logger"
)

var (
	matchTransactionsFile string
	matchVouchersFile     string
	matchTransactionID    string
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Score candidate vouchers against bank transactions",
	Long: `Match scores every candidate voucher against each bank transaction,
annotating amount, date, and reference agreement. At most the first
candidate per transaction can be flagged as the suggested match.

Examples:
  reconengine match --transactions bank.csv --vouchers vouchers.csv
  reconengine match --transactions bank.csv --vouchers vouchers.csv --transaction-id TXN001 --output-format json`,
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringVar(&matchTransactionsFile, "transactions", "", "bank transactions CSV file (required)")
	matchCmd.Flags().StringVar(&matchVouchersFile, "vouchers", "", "candidate vouchers CSV file (required)")
	matchCmd.Flags().StringVar(&matchTransactionID, "transaction-id", "", "limit matching to one transaction")

	matchCmd.MarkFlagRequired("transactions")
	matchCmd.MarkFlagRequired("vouchers")
}

func runMatch(cmd *cobra.Command, args []string) error {
	handler := NewCLIErrorHandler()

	svc, transactions, rep, err := buildMatchPipeline()
	if err != nil {
		os.Exit(handler.HandleError(err))
	}

	log := logger.GetGlobalLogger().WithComponent("match")
	ctx := context.Background()

	for _, txn := range transactions {
		if matchTransactionID != "" && txn.ID != matchTransactionID {
			continue
		}

		scored, err := svc.SuggestMatches(ctx, txn)
		if err != nil {
			os.Exit(handler.HandleError(err))
		}

		if err := rep.WriteMatchReport(cmd.OutOrStdout(), txn, scored); err != nil {
			os.Exit(handler.HandleError(err))
		}
		fmt.Fprintln(cmd.OutOrStdout())
	}

	log.WithField("transactions", len(transactions)).Debug("match run complete")
	return nil
}

func buildMatchPipeline() (*recon.Service, []*models.BankTransaction, *reporter.Reporter, error) {
	parseConfig := config.CreateParseConfig(true)

	transactions, _, err := parsers.NewTransactionParser(parseConfig).ParseTransactions(matchTransactionsFile)
	if err != nil {
		return nil, nil, nil, err
	}

	lookup, _, err := parsers.NewFileVoucherLookup(matchVouchersFile, parseConfig)
	if err != nil {
		return nil, nil, nil, err
	}

	policy, err := config.CreateMoneyPolicy(int32(viper.GetInt("precision")), viper.GetString("rounding_mode"))
	if err != nil {
		return nil, nil, nil, err
	}

	svc, err := recon.NewService(recon.Config{
		Vouchers: lookup,
		Policy:   policy,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	reportConfig, err := config.CreateReportConfig(viper.GetString("output_format"))
	if err != nil {
		return nil, nil, nil, err
	}
	rep, err := reporter.NewReporter(reportConfig)
	if err != nil {
		return nil, nil, nil, err
	}

	return svc, transactions, rep, nil
}
