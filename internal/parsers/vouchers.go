package parsers

import (
	"io"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/pkg/errors"
	"bank-reconciliation-engine/pkg/logger"
)

// Columns expected in a voucher export.
var voucherHeaders = []string{"voucher_id", "voucher_type", "paid_amount", "posting_date"}

// VoucherParser parses candidate voucher CSV files
type VoucherParser struct {
	*BaseParser
	logger logger.Logger
}

// NewVoucherParser creates a parser for candidate voucher files
func NewVoucherParser(config *ParseConfig) *VoucherParser {
	return &VoucherParser{
		BaseParser: NewBaseParser(config),
		logger:     logger.GetGlobalLogger().WithComponent("voucher_parser"),
	}
}

// ParseVouchers reads the file and returns the valid vouchers together
// with parsing statistics.
func (vp *VoucherParser) ParseVouchers(filePath string) ([]*models.CandidateVoucher, *ParseStats, error) {
	file, reader, err := vp.OpenFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := NewParseContext(filePath)
	stats := &ParseStats{}

	if err := vp.ReadHeaders(reader, parseCtx, voucherHeaders); err != nil {
		return nil, nil, err
	}

	var vouchers []*models.CandidateVoucher
	for {
		record, err := vp.ReadRecord(reader, parseCtx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.ParseError(errors.CodeInvalidFormat, filePath, parseCtx.LineNumber+1, "", "", err)
		}

		stats.RecordsParsed++

		voucher, err := models.CreateCandidateVoucherFromCSV(
			vp.GetFieldValue(record, parseCtx, "voucher_id"),
			vp.GetFieldValue(record, parseCtx, "voucher_type"),
			vp.GetFieldValue(record, parseCtx, "paid_amount"),
			vp.GetFieldValue(record, parseCtx, "posting_date"),
			vp.GetFieldValue(record, parseCtx, "reference_date"),
			vp.GetFieldValue(record, parseCtx, "reference_no"),
		)
		if err != nil {
			stats.AddError(errors.ParseError(errors.CodeInvalidData, filePath, parseCtx.LineNumber, "", "", err))
			vp.logger.WithError(err).WithField("line", parseCtx.LineNumber).Warn("skipping invalid voucher row")
			continue
		}

		voucher.Party = vp.GetFieldValue(record, parseCtx, "party")

		stats.RecordsValid++
		vouchers = append(vouchers, voucher)
	}

	stats.TotalLines = parseCtx.LineNumber
	vp.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"valid":     stats.RecordsValid,
		"errors":    stats.ErrorCount,
	}).Info("parsed candidate vouchers")

	return vouchers, stats, nil
}
