// Package rules implements the triage core: predicate evaluation of
// user-defined conditions against stored messages, action execution against
// the mail transport, and batch application with per-message isolation.
package rules

import (
	"fmt"
	"strings"
)

// Field identifies a message attribute a condition can test.
type Field string

// Field vocabulary. "message" is an alias for the body and both
// received_date and received_at resolve to the received timestamp.
const (
	FieldFrom         Field = "from"
	FieldTo           Field = "to"
	FieldSubject      Field = "subject"
	FieldBody         Field = "body"
	FieldLabels       Field = "labels"
	FieldReceivedDate Field = "received_date"
	FieldReceivedAt   Field = "received_at"
)

// IsDate reports whether the field routes to date predicates.
func (f Field) IsDate() bool {
	return f == FieldReceivedDate || f == FieldReceivedAt
}

// ParseField resolves a wire-format field name, folding aliases.
func ParseField(name string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "from":
		return FieldFrom, nil
	case "to":
		return FieldTo, nil
	case "subject":
		return FieldSubject, nil
	case "body", "message":
		return FieldBody, nil
	case "labels":
		return FieldLabels, nil
	case "received_date":
		return FieldReceivedDate, nil
	case "received_at":
		return FieldReceivedAt, nil
	default:
		return "", fmt.Errorf("unknown field %q", name)
	}
}

// StringOp is a string predicate operator.
type StringOp int

const (
	StringOpInvalid StringOp = iota
	StringOpContains
	StringOpEquals
	StringOpNotEquals
	StringOpNotContains
	StringOpStartsWith
	StringOpEndsWith
	StringOpRegex
)

func (op StringOp) String() string {
	switch op {
	case StringOpContains:
		return "contains"
	case StringOpEquals:
		return "equals"
	case StringOpNotEquals:
		return "does not equal"
	case StringOpNotContains:
		return "does not contain"
	case StringOpStartsWith:
		return "starts with"
	case StringOpEndsWith:
		return "ends with"
	case StringOpRegex:
		return "matches"
	default:
		return "invalid"
	}
}

// normalizeToken lowercases a wire token and folds hyphen and underscore
// separators to single spaces.
func normalizeToken(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	return strings.Join(strings.Fields(name), " ")
}

// ParseStringOp resolves a wire-format string predicate name. Rule files
// spell names with spaces, hyphens, or underscores.
func ParseStringOp(name string) (StringOp, error) {
	switch normalizeToken(name) {
	case "contains":
		return StringOpContains, nil
	case "equals":
		return StringOpEquals, nil
	case "does not equal", "not equals":
		return StringOpNotEquals, nil
	case "does not contain", "not contains":
		return StringOpNotContains, nil
	case "starts with":
		return StringOpStartsWith, nil
	case "ends with":
		return StringOpEndsWith, nil
	case "matches", "regex match":
		return StringOpRegex, nil
	default:
		return StringOpInvalid, fmt.Errorf("unknown string predicate %q", name)
	}
}

// DateOp is a date predicate operator.
type DateOp int

const (
	DateOpInvalid DateOp = iota
	DateOpLessThanDaysAgo
	DateOpGreaterThanDaysAgo
	DateOpEqualsDate
	DateOpBeforeDate
	DateOpAfterDate
)

func (op DateOp) String() string {
	switch op {
	case DateOpLessThanDaysAgo:
		return "less than"
	case DateOpGreaterThanDaysAgo:
		return "greater than"
	case DateOpEqualsDate:
		return "equals"
	case DateOpBeforeDate:
		return "before"
	case DateOpAfterDate:
		return "after"
	default:
		return "invalid"
	}
}

// ParseDateOp resolves a wire-format date predicate name.
func ParseDateOp(name string) (DateOp, error) {
	switch normalizeToken(name) {
	case "less than":
		return DateOpLessThanDaysAgo, nil
	case "greater than":
		return DateOpGreaterThanDaysAgo, nil
	case "equals":
		return DateOpEqualsDate, nil
	case "before":
		return DateOpBeforeDate, nil
	case "after":
		return DateOpAfterDate, nil
	default:
		return DateOpInvalid, fmt.Errorf("unknown date predicate %q", name)
	}
}

// Condition is one field/predicate/operand triple inside a rule set.
// Exactly one of StringOp/DateOp is set, chosen by the field's class.
type Condition struct {
	Field    Field
	StringOp StringOp
	DateOp   DateOp
	Operand  string
}

// Aggregate combines per-condition results.
type Aggregate int

const (
	AggregateAll Aggregate = iota
	AggregateAny
)

func (a Aggregate) String() string {
	if a == AggregateAny {
		return "ANY"
	}
	return "ALL"
}

// ParseAggregate resolves the wire aggregate operator. Unrecognized values
// degrade to ALL; the caller logs the warning so a zero-value Aggregate
// always has defined semantics.
func ParseAggregate(name string) (Aggregate, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "ALL", "AND", "":
		return AggregateAll, true
	case "ANY", "OR":
		return AggregateAny, true
	default:
		return AggregateAll, false
	}
}

// RuleSet is a validated, loaded rule definition: an aggregate operator over
// ordered conditions, plus the ordered actions to run on a match.
type RuleSet struct {
	ID         string
	Name       string
	Aggregate  Aggregate
	Conditions []Condition
	Actions    []Action
}
