package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"tickmill/internal/domain"
)

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// Loads above this are treated as implausible for a single truck.
const maxPlausibleTons = 60.0

// formatRule checks a single field with a closure.
type formatRule struct {
	ruleKey  string
	validate func(rec domain.Record) []Result
}

func (r *formatRule) RuleKey() string { return r.ruleKey }

func (r *formatRule) Validate(rec domain.Record) []Result {
	return r.validate(rec)
}

var builtinRules = []Rule{
	&formatRule{
		ruleKey: "ticket_number_required",
		validate: func(rec domain.Record) []Result {
			v := rec.Field("ticket_number").Value
			return []Result{{
				Passed:    v != "",
				FieldPath: "ticket_number",
				Severity:  SeverityError,
				Message:   "ticket_number must not be empty",
			}}
		},
	},
	&formatRule{
		ruleKey: "transaction_date_format",
		validate: func(rec domain.Record) []Result {
			v := rec.Field("transaction_date").Value
			if v == "" {
				return []Result{passed("transaction_date", SeverityWarning, "transaction_date is empty")}
			}
			if !datePattern.MatchString(v) {
				return []Result{failed("transaction_date", SeverityError,
					fmt.Sprintf("transaction_date %q is not in YYYY-MM-DD format", v))}
			}
			if _, err := time.Parse("2006-01-02", v); err != nil {
				return []Result{failed("transaction_date", SeverityError,
					fmt.Sprintf("transaction_date %q is not a real date", v))}
			}
			return []Result{passed("transaction_date", SeverityError, "transaction_date is well-formed")}
		},
	},
	&formatRule{
		ruleKey: "transaction_time_format",
		validate: func(rec domain.Record) []Result {
			v := rec.Field("transaction_time").Value
			if v == "" {
				return []Result{passed("transaction_time", SeverityWarning, "transaction_time is empty")}
			}
			if !timePattern.MatchString(v) {
				return []Result{failed("transaction_time", SeverityWarning,
					fmt.Sprintf("transaction_time %q is not in HH:MM format", v))}
			}
			if _, err := time.Parse("15:04", v); err != nil {
				return []Result{failed("transaction_time", SeverityWarning,
					fmt.Sprintf("transaction_time %q is not a valid time of day", v))}
			}
			return []Result{passed("transaction_time", SeverityWarning, "transaction_time is well-formed")}
		},
	},
	&formatRule{
		ruleKey: "net_weight_numeric",
		validate: func(rec domain.Record) []Result {
			v := rec.Field("net_weight_tons").Value
			if v == "" {
				return []Result{passed("net_weight_tons", SeverityWarning, "net_weight_tons is empty")}
			}
			w, err := strconv.ParseFloat(domain.CleanNumeric(v), 64)
			if err != nil {
				return []Result{failed("net_weight_tons", SeverityError,
					fmt.Sprintf("net_weight_tons %q is not numeric", v))}
			}
			if w <= 0 {
				return []Result{failed("net_weight_tons", SeverityError,
					fmt.Sprintf("net_weight_tons %v must be positive", w))}
			}
			if w > maxPlausibleTons {
				return []Result{failed("net_weight_tons", SeverityWarning,
					fmt.Sprintf("net_weight_tons %v exceeds plausible single-load weight", w))}
			}
			return []Result{passed("net_weight_tons", SeverityError, "net_weight_tons is a plausible weight")}
		},
	},
	&formatRule{
		ruleKey: "vendor_name_present",
		validate: func(rec domain.Record) []Result {
			v := rec.Field("vendor_name").Value
			return []Result{{
				Passed:    v != "",
				FieldPath: "vendor_name",
				Severity:  SeverityWarning,
				Message:   "vendor_name should not be empty",
			}}
		},
	},
}

func passed(field string, sev Severity, msg string) Result {
	return Result{Passed: true, FieldPath: field, Severity: sev, Message: msg}
}

func failed(field string, sev Severity, msg string) Result {
	return Result{Passed: false, FieldPath: field, Severity: sev, Message: msg}
}
