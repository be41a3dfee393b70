package parsers

import (
	"encoding/json"
	"fmt"
	"os"

	"bank-reconciliation-engine/internal/scoring"
	"bank-reconciliation-engine/pkg/errors"
)

// ruleFile is the on-disk shape of a classification rule set.
type ruleFile struct {
	Rules []*scoring.Rule `json:"rules"`
}

// LoadRules reads a JSON rule file and validates every rule. Invalid
// rules fail the load so that bad regex patterns surface here rather
// than silently never matching.
func LoadRules(filePath string) ([]*scoring.Rule, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		return nil, errors.FileError(errors.CodeFilePermission, filePath, err)
	}

	var rf ruleFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, filePath, 0, "rules", "", err).
			WithSuggestion("check the JSON syntax of the rule file")
	}

	for i, rule := range rf.Rules {
		if rule == nil {
			return nil, errors.ParseError(errors.CodeInvalidData, filePath, 0, "rules", "null", nil)
		}
		if err := rule.Validate(); err != nil {
			return nil, errors.ParseError(errors.CodeInvalidData, filePath, 0,
				fmt.Sprintf("rules[%d]", i), rule.Name, err)
		}
	}

	return rf.Rules, nil
}
