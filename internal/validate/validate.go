package validate

import (
	"fmt"
	"strings"

	"tickmill/internal/domain"
)

// Severity classifies a rule outcome.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Result is the outcome of one rule applied to one field.
type Result struct {
	Passed    bool     `json:"passed"`
	FieldPath string   `json:"field_path"`
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
}

// Rule is a single built-in validation rule for a ticket record.
type Rule interface {
	RuleKey() string
	Validate(rec domain.Record) []Result
}

// Record runs all built-in rules against a record.
func Record(rec domain.Record) []Result {
	var results []Result
	for _, r := range builtinRules {
		results = append(results, r.Validate(rec)...)
	}
	return results
}

// Errors filters results down to failed error-severity entries.
func Errors(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed && r.Severity == SeverityError {
			out = append(out, r)
		}
	}
	return out
}

// Check validates a record and wraps any error-severity failures in
// domain.ErrInvalidRecord. Warnings never fail the check.
func Check(rec domain.Record) error {
	failed := Errors(Record(rec))
	if len(failed) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(failed))
	for _, r := range failed {
		msgs = append(msgs, r.Message)
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidRecord, strings.Join(msgs, "; "))
}
