// Package parsers loads bank transactions, candidate vouchers, outstanding
// references, and classification rules from CSV and JSON files, and exposes
// file-backed providers for the reconciliation service.
package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"bank-reconciliation-engine/pkg/errors"
	"bank-reconciliation-engine/pkg/logger"
)

// ParseConfig holds configuration for CSV parsing. ColumnAliases maps
// alternative header names seen in the wild onto the canonical column
// names the parsers ask for.
type ParseConfig struct {
	HasHeader        bool
	Delimiter        rune
	TrimLeadingSpace bool
	SkipEmptyRows    bool
	ColumnAliases    map[string]string
}

// DefaultParseConfig returns a configuration with sensible defaults,
// including aliases for common export-tool header variants.
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		HasHeader:        true,
		Delimiter:        ',',
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
		ColumnAliases: map[string]string{
			"transaction_id":   "id",
			"txn_id":           "id",
			"transaction_date": "date",
			"posting_dt":       "posting_date",
			"debit":            "withdrawal",
			"credit":           "deposit",
			"ref":              "reference_number",
			"ref_no":           "reference_no",
			"memo":             "description",
			"narration":        "description",
			"amount":           "paid_amount",
			"outstanding":      "outstanding_amount",
		},
	}
}

// BaseParser provides common CSV parsing functionality
type BaseParser struct {
	config *ParseConfig
	logger logger.Logger
}

// NewBaseParser creates a new BaseParser with the given configuration
func NewBaseParser(config *ParseConfig) *BaseParser {
	if config == nil {
		config = DefaultParseConfig()
	}

	return &BaseParser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("parser"),
	}
}

// ParseContext holds state during a parsing operation
type ParseContext struct {
	FilePath   string
	LineNumber int
	Headers    []string
	HeaderMap  map[string]int
}

// NewParseContext creates a new parsing context for a file
func NewParseContext(filePath string) *ParseContext {
	return &ParseContext{
		FilePath:  filePath,
		HeaderMap: make(map[string]int),
	}
}

// GetColumnIndex returns the index of a column by name, or -1 if not found.
// Lookup is case-insensitive to accommodate varying export tools.
func (pc *ParseContext) GetColumnIndex(name string) int {
	if index, exists := pc.HeaderMap[name]; exists {
		return index
	}

	lowerName := strings.ToLower(name)
	for header, index := range pc.HeaderMap {
		if strings.ToLower(header) == lowerName {
			return index
		}
	}

	return -1
}

// OpenFile opens a CSV file and returns a configured csv.Reader
func (bp *BaseParser) OpenFile(filePath string) (*os.File, *csv.Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		if os.IsPermission(err) {
			return nil, nil, errors.FileError(errors.CodeFilePermission, filePath, err)
		}
		return nil, nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
	}

	reader := csv.NewReader(file)
	reader.Comma = bp.config.Delimiter
	reader.TrimLeadingSpace = bp.config.TrimLeadingSpace
	reader.FieldsPerRecord = -1

	bp.logger.WithField("file_path", filePath).Debug("opened CSV file")
	return file, reader, nil
}

// ReadHeaders reads the header row and verifies the required columns exist
func (bp *BaseParser) ReadHeaders(reader *csv.Reader, parseCtx *ParseContext, requiredHeaders []string) error {
	if !bp.config.HasHeader {
		parseCtx.Headers = append([]string(nil), requiredHeaders...)
		bp.buildHeaderMap(parseCtx)
		return nil
	}

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return errors.ParseError(errors.CodeInvalidFormat, parseCtx.FilePath, 1, "headers", "", err).
				WithSuggestion("ensure the file contains a header row and data rows")
		}
		return errors.ParseError(errors.CodeInvalidFormat, parseCtx.FilePath, 1, "headers", "", err)
	}

	parseCtx.LineNumber++
	parseCtx.Headers = make([]string, len(headers))
	for i, header := range headers {
		parseCtx.Headers[i] = strings.TrimSpace(header)
	}
	bp.buildHeaderMap(parseCtx)

	var missing []string
	for _, header := range requiredHeaders {
		if parseCtx.GetColumnIndex(header) == -1 {
			missing = append(missing, header)
		}
	}
	if len(missing) > 0 {
		return errors.ParseError(errors.CodeMissingColumn, parseCtx.FilePath, parseCtx.LineNumber,
			strings.Join(missing, ", "), "", nil)
	}

	return nil
}

// buildHeaderMap indexes headers by name, also registering the canonical
// name for any header matching a configured alias. The original header
// keeps its own entry so exports using canonical names are unaffected.
func (bp *BaseParser) buildHeaderMap(parseCtx *ParseContext) {
	parseCtx.HeaderMap = make(map[string]int)
	for i, header := range parseCtx.Headers {
		parseCtx.HeaderMap[header] = i
		if canonical, ok := bp.config.ColumnAliases[strings.ToLower(header)]; ok {
			if _, taken := parseCtx.HeaderMap[canonical]; !taken {
				parseCtx.HeaderMap[canonical] = i
			}
		}
	}
}

// ReadRecord reads the next data record, skipping empty rows when configured.
// Returns io.EOF at end of file.
func (bp *BaseParser) ReadRecord(reader *csv.Reader, parseCtx *ParseContext) ([]string, error) {
	for {
		record, err := reader.Read()
		if err != nil {
			return nil, err
		}

		parseCtx.LineNumber++

		if bp.config.SkipEmptyRows && isEmptyRecord(record) {
			continue
		}

		return record, nil
	}
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// GetFieldValue retrieves a trimmed field value by column name. Missing
// columns or short rows yield an empty string so that optional columns
// stay optional.
func (bp *BaseParser) GetFieldValue(record []string, parseCtx *ParseContext, fieldName string) string {
	index := parseCtx.GetColumnIndex(fieldName)
	if index == -1 || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}

// ParseStats holds statistics about a parsing operation
type ParseStats struct {
	TotalLines    int
	RecordsParsed int
	RecordsValid  int
	ErrorCount    int
	Errors        []error
}

// AddError records a per-record error without aborting the parse
func (ps *ParseStats) AddError(err error) {
	ps.Errors = append(ps.Errors, err)
	ps.ErrorCount++
}

// HasErrors returns true if there were any parsing errors
func (ps *ParseStats) HasErrors() bool {
	return ps.ErrorCount > 0
}

// String returns a human-readable summary of parsing statistics
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Parsed %d lines, %d records (%d valid), %d errors",
		ps.TotalLines, ps.RecordsParsed, ps.RecordsValid, ps.ErrorCount)
}
