package parsers

import (
	"io"

	"bank-reconciliation-engine/internal/models"
	"bank-reconciliation-engine/pkg/errors"
	"bank-reconciliation-engine/pkg/logger"
)

// Columns expected in an outstanding reference export.
var referenceHeaders = []string{"reference_id", "outstanding_amount", "party"}

// ReferenceRecord is an outstanding reference row together with the
// party it belongs to.
type ReferenceRecord struct {
	Company   string
	Party     string
	PartyRole models.PartyRole
	Reference *models.Reference
}

// ReferenceParser parses outstanding reference CSV files
type ReferenceParser struct {
	*BaseParser
	logger logger.Logger
}

// NewReferenceParser creates a parser for outstanding reference files
func NewReferenceParser(config *ParseConfig) *ReferenceParser {
	return &ReferenceParser{
		BaseParser: NewBaseParser(config),
		logger:     logger.GetGlobalLogger().WithComponent("reference_parser"),
	}
}

// ParseReferences reads the file and returns the valid reference records
// together with parsing statistics.
func (rp *ReferenceParser) ParseReferences(filePath string) ([]*ReferenceRecord, *ParseStats, error) {
	file, reader, err := rp.OpenFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := NewParseContext(filePath)
	stats := &ParseStats{}

	if err := rp.ReadHeaders(reader, parseCtx, referenceHeaders); err != nil {
		return nil, nil, err
	}

	var records []*ReferenceRecord
	for {
		record, err := rp.ReadRecord(reader, parseCtx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.ParseError(errors.CodeInvalidFormat, filePath, parseCtx.LineNumber+1, "", "", err)
		}

		stats.RecordsParsed++

		ref, err := models.CreateReferenceFromCSV(
			rp.GetFieldValue(record, parseCtx, "reference_id"),
			rp.GetFieldValue(record, parseCtx, "reference_type"),
			rp.GetFieldValue(record, parseCtx, "outstanding_amount"),
		)
		if err != nil {
			stats.AddError(errors.ParseError(errors.CodeInvalidData, filePath, parseCtx.LineNumber, "", "", err))
			rp.logger.WithError(err).WithField("line", parseCtx.LineNumber).Warn("skipping invalid reference row")
			continue
		}

		role := models.PartyRole(rp.GetFieldValue(record, parseCtx, "party_role"))
		if !role.IsValid() {
			role = models.PartyRoleNone
		}

		stats.RecordsValid++
		records = append(records, &ReferenceRecord{
			Company:   rp.GetFieldValue(record, parseCtx, "company"),
			Party:     rp.GetFieldValue(record, parseCtx, "party"),
			PartyRole: role,
			Reference: ref,
		})
	}

	stats.TotalLines = parseCtx.LineNumber
	rp.logger.WithFields(logger.Fields{
		"file_path": filePath,
		"valid":     stats.RecordsValid,
		"errors":    stats.ErrorCount,
	}).Info("parsed outstanding references")

	return records, stats, nil
}
