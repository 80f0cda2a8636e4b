package rules

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	apperrors "github.com/sortdesk/mailsift-backend/internal/errors"
)

// ruleSetWire is the external JSON shape of a rule definition.
type ruleSetWire struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Predicate string          `json:"predicate"`
	Rules     []conditionWire `json:"rules"`
	Actions   []string        `json:"actions"`
}

type conditionWire struct {
	Field     string `json:"field"`
	Predicate string `json:"predicate"`
	Value     string `json:"value"`
}

// LoadFile loads and validates a rule definition from a JSON file. A missing
// file maps to ErrRuleSourceNotFound; malformed JSON or unknown
// field/predicate/action names map to ErrInvalidRule. Rule definitions are
// loaded fresh per call, never cached.
func LoadFile(path string, log *slog.Logger) (*RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrRuleSourceNotFound, path)
		}
		return nil, fmt.Errorf("failed to open rule file %s: %w", path, err)
	}
	defer f.Close()

	set, err := Parse(f, log)
	if err != nil {
		return nil, fmt.Errorf("rule file %s: %w", path, err)
	}
	log.Info("loaded rule set", slog.String("path", path), slog.String("rule", set.Name))
	return set, nil
}

// Parse decodes and validates a rule definition. Field names, predicate
// names and action tokens are resolved into their closed typed forms here,
// so a malformed definition fails once at load instead of silently
// evaluating to false per message.
func Parse(r io.Reader, log *slog.Logger) (*RuleSet, error) {
	var wire ruleSetWire
	dec := json.NewDecoder(r)
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidRule, err)
	}

	set := &RuleSet{
		ID:   wire.ID,
		Name: wire.Name,
	}
	if set.ID == "" {
		set.ID = "unnamed_rule"
	}
	if set.Name == "" {
		set.Name = "Rule " + set.ID
	}

	aggregate, known := ParseAggregate(wire.Predicate)
	if !known {
		log.Warn("unknown aggregate predicate, defaulting to ALL",
			slog.String("predicate", wire.Predicate),
			slog.String("rule", set.Name),
		)
	}
	set.Aggregate = aggregate

	for i, cw := range wire.Rules {
		cond, err := parseCondition(cw)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d: %v", apperrors.ErrInvalidRule, i, err)
		}
		set.Conditions = append(set.Conditions, cond)
	}

	for i, token := range wire.Actions {
		action, err := ParseAction(token)
		if err != nil {
			return nil, fmt.Errorf("%w: action %d: %v", apperrors.ErrInvalidRule, i, err)
		}
		set.Actions = append(set.Actions, action)
	}

	return set, nil
}

func parseCondition(cw conditionWire) (Condition, error) {
	field, err := ParseField(cw.Field)
	if err != nil {
		return Condition{}, err
	}

	cond := Condition{Field: field, Operand: cw.Value}
	if field.IsDate() {
		cond.DateOp, err = ParseDateOp(cw.Predicate)
	} else {
		cond.StringOp, err = ParseStringOp(cw.Predicate)
	}
	if err != nil {
		return Condition{}, err
	}
	return cond, nil
}
