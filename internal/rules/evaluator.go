package rules

import (
	"log/slog"
	"time"

	"github.com/sortdesk/mailsift-backend/internal/models"
)

// Evaluator evaluates conditions and rule sets against messages. Malformed
// input (unknown field or predicate, bad regex, unparseable operand)
// degrades to false with a logged warning; evaluation never fails.
type Evaluator struct {
	log     *slog.Logger
	nowFn   func() time.Time
	regexes *regexCache
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(log *slog.Logger) *Evaluator {
	return &Evaluator{
		log:     log,
		nowFn:   func() time.Time { return time.Now().UTC() },
		regexes: newRegexCache(),
	}
}

// Evaluate evaluates a single condition against a message.
func (e *Evaluator) Evaluate(cond Condition, msg *models.Message) bool {
	value, ok := ResolveField(msg, cond.Field)
	if !ok {
		e.log.Warn("unknown field in condition", slog.String("field", string(cond.Field)))
		return false
	}

	if cond.Field.IsDate() {
		return e.evaluateDate(cond, msg.ReceivedAt.UTC())
	}
	return e.evaluateString(cond, value)
}

// EvaluateAll evaluates every condition of a rule set against the message
// and combines the results with the set's aggregate operator. A set with
// zero conditions never matches.
func (e *Evaluator) EvaluateAll(set *RuleSet, msg *models.Message) bool {
	if len(set.Conditions) == 0 {
		return false
	}

	results := make([]bool, len(set.Conditions))
	for i, cond := range set.Conditions {
		results[i] = e.Evaluate(cond, msg)
		e.log.Debug("condition evaluated",
			slog.String("field", string(cond.Field)),
			slog.String("operand", cond.Operand),
			slog.Bool("result", results[i]),
		)
	}

	switch set.Aggregate {
	case AggregateAny:
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	default:
		for _, r := range results {
			if !r {
				return false
			}
		}
		return true
	}
}

func (e *Evaluator) evaluateString(cond Condition, value string) bool {
	switch cond.StringOp {
	case StringOpContains:
		return Contains(value, cond.Operand)
	case StringOpEquals:
		return Equals(value, cond.Operand)
	case StringOpNotEquals:
		return NotEquals(value, cond.Operand)
	case StringOpNotContains:
		return NotContains(value, cond.Operand)
	case StringOpStartsWith:
		return StartsWith(value, cond.Operand)
	case StringOpEndsWith:
		return EndsWith(value, cond.Operand)
	case StringOpRegex:
		re, err := e.regexes.get(cond.Operand)
		if err != nil {
			e.log.Warn("invalid regex pattern", slog.String("pattern", cond.Operand), slog.Any("error", err))
			return false
		}
		return re.MatchString(value)
	default:
		e.log.Warn("unknown string predicate", slog.String("predicate", cond.StringOp.String()))
		return false
	}
}

func (e *Evaluator) evaluateDate(cond Condition, receivedAt time.Time) bool {
	switch cond.DateOp {
	case DateOpLessThanDaysAgo, DateOpGreaterThanDaysAgo:
		days, err := parseDayCount(cond.Operand)
		if err != nil {
			e.log.Warn("invalid day-count operand", slog.String("operand", cond.Operand), slog.Any("error", err))
			return false
		}
		if cond.DateOp == DateOpLessThanDaysAgo {
			return LessThanDaysAgo(receivedAt, e.nowFn(), days)
		}
		return GreaterThanDaysAgo(receivedAt, e.nowFn(), days)
	case DateOpEqualsDate:
		target, err := parseDateOperand(cond.Operand)
		if err != nil {
			e.log.Warn("invalid date operand", slog.String("operand", cond.Operand), slog.Any("error", err))
			return false
		}
		return SameCalendarDate(receivedAt, target)
	case DateOpBeforeDate, DateOpAfterDate:
		target, err := parseDateOperand(cond.Operand)
		if err != nil {
			e.log.Warn("invalid date operand", slog.String("operand", cond.Operand), slog.Any("error", err))
			return false
		}
		if cond.DateOp == DateOpBeforeDate {
			return receivedAt.Before(target)
		}
		return receivedAt.After(target)
	default:
		e.log.Warn("unknown date predicate", slog.String("predicate", cond.DateOp.String()))
		return false
	}
}
