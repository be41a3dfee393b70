package parsers

import (
	"io"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/pkg/errors"
	"bank-reconciliation-engine/pkg/logger"
)

// Columns expected in a bank transaction export.
var transactionHeaders = []string{"id", "date", "withdrawal", "deposit"}

// TransactionParser parses bank transaction CSV files
type TransactionParser struct {
	*BaseParser
	logger logger.Logger
}

// NewTransactionParser creates a parser for bank transaction files
func NewTransactionParser(config *ParseConfig) *TransactionParser {
	return &TransactionParser{
		BaseParser: NewBaseParser(config),
		logger:     logger.GetGlobalLogger().WithComponent("transaction_parser"),
	}
}

// ParseTransactions reads the file and returns the valid transactions
// together with parsing statistics. Rows that fail to parse are recorded
// in the stats and skipped; the parse only aborts on structural errors.
func (tp *TransactionParser) ParseTransactions(filePath string) ([]*models.BankTransaction, *ParseStats, error) {
	file, reader, err := tp.OpenFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := NewParseContext(filePath)
	stats := &ParseStats{}

	if err := tp.ReadHeaders(reader, parseCtx, transactionHeaders); err != nil {
		return nil, nil, err
	}

	var transactions []*models.BankTransaction
	for {
		record, err := tp.ReadRecord(reader, parseCtx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.ParseError(errors.CodeInvalidFormat, filePath, parseCtx.LineNumber+1, "", "", err)
		}

		stats.RecordsParsed++

		txn, err := models.CreateBankTransactionFromCSV(
			tp.GetFieldValue(record, parseCtx, "id"),
			tp.GetFieldValue(record, parseCtx, "date"),
			tp.GetFieldValue(record, parseCtx, "withdrawal"),
			tp.GetFieldValue(record, parseCtx, "deposit"),
			tp.GetFieldValue(record, parseCtx, "description"),
			tp.GetFieldValue(record, parseCtx, "reference_number"),
		)
		if err != nil {
			stats.AddError(errors.ParseError(errors.CodeInvalidData, filePath, parseCtx.LineNumber, "", "", err))
			tp.logger.WithError(err).WithField("line", parseCtx.LineNumber).Warn("skipping invalid transaction row")
			continue
		}

		if currency := tp.GetFieldValue(record, parseCtx, "currency"); currency != "" {
			txn.Currency = currency
		}

		stats.RecordsValid++
		transactions = append(transactions, txn)
	}

	stats.TotalLines = parseCtx.LineNumber
	tp.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"valid":     stats.RecordsValid,
		"errors":    stats.ErrorCount,
	}).Info("parsed bank transactions")

	return transactions, stats, nil
}
