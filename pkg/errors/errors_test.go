package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestReconError_Error(t *testing.T) {
	err := New(CategoryFile, CodeFileNotFound, "file not found: test.csv")
	if err.Error() != "file not found: test.csv" {
		t.Errorf("Error() = %q, want %q", err.Error(), "file not found: test.csv")
	}

	err = err.WithSuggestion("check the path")
	want := "file not found: test.csv (suggestion: check the path)"
	if err.Error() != want {
		t.Errorf("Error() with suggestion = %q, want %q", err.Error(), want)
	}
}

func TestReconError_ExitCode(t *testing.T) {
	tests := []struct {
		category Category
		want     int
	}{
		{CategoryFile, 2},
		{CategoryParse, 3},
		{CategoryValidation, 3},
		{CategoryConfiguration, 4},
		{CategoryReconciliation, 5},
		{CategoryInternal, 5},
		{Category("unknown"), 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := New(tt.category, CodeUnexpectedError, "test")
			if got := err.ExitCode(); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying failure")
	err := Wrap(cause, CategoryParse, CodeInvalidData, "parse failed")

	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the wrapped cause")
	}

	if Wrap(nil, CategoryParse, CodeInvalidData, "x") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestFileError(t *testing.T) {
	err := FileError(CodeFileNotFound, "/tmp/missing.csv", nil)

	if err.Category != CategoryFile {
		t.Errorf("Category = %s, want %s", err.Category, CategoryFile)
	}
	if err.Code != CodeFileNotFound {
		t.Errorf("Code = %s, want %s", err.Code, CodeFileNotFound)
	}
	if err.Context["file_path"] != "/tmp/missing.csv" {
		t.Errorf("missing file_path context, got %v", err.Context)
	}
	if err.Suggestion == "" {
		t.Error("expected a suggestion")
	}
}

func TestParseError(t *testing.T) {
	err := ParseError(CodeInvalidData, "txns.csv", 12, "deposit", "abc", nil)

	if err.Category != CategoryParse {
		t.Errorf("Category = %s, want %s", err.Category, CategoryParse)
	}
	if err.Context["line"] != 12 {
		t.Errorf("line context = %v, want 12", err.Context["line"])
	}
	if !strings.Contains(err.Message, "deposit") {
		t.Errorf("message should name the column: %s", err.Message)
	}
}

func TestReconciliationError_InFlight(t *testing.T) {
	err := ReconciliationError(CodeSubmissionInFlight, "transaction TXN001", nil)

	if err.Code != CodeSubmissionInFlight {
		t.Errorf("Code = %s, want %s", err.Code, CodeSubmissionInFlight)
	}
	if !strings.Contains(err.Message, "TXN001") {
		t.Errorf("message should name the transaction: %s", err.Message)
	}
	if !HasCode(err, CodeSubmissionInFlight) {
		t.Error("HasCode should find the in-flight code")
	}
}

func TestAsReconError(t *testing.T) {
	recon := ValidationError(CodeMissingField, "party", nil, nil)
	wrapped := fmt.Errorf("context: %w", recon)

	got, ok := AsReconError(wrapped)
	if !ok {
		t.Fatal("AsReconError should unwrap through fmt.Errorf")
	}
	if got.Code != CodeMissingField {
		t.Errorf("Code = %s, want %s", got.Code, CodeMissingField)
	}

	if _, ok := AsReconError(fmt.Errorf("plain")); ok {
		t.Error("AsReconError should reject plain errors")
	}
	if IsReconError(fmt.Errorf("plain")) {
		t.Error("IsReconError should reject plain errors")
	}
}

func TestFormatForDisplay(t *testing.T) {
	err := ConfigurationError("rounding_mode", "half-up", nil)
	out := FormatForDisplay(err)

	if !strings.Contains(out, "Error [configuration/invalid_config]") {
		t.Errorf("missing category/code header: %s", out)
	}
	if !strings.Contains(out, "Suggestion:") {
		t.Errorf("missing suggestion line: %s", out)
	}

	plain := fmt.Errorf("boom")
	if FormatForDisplay(plain) != "boom" {
		t.Errorf("plain errors should pass through, got %q", FormatForDisplay(plain))
	}
}
