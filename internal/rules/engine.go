package rules

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sortdesk/mailsift-backend/internal/models"
)

// Stats are the aggregate counters of one batch run. A message whose rule
// matched but whose every action failed is not recorded and not counted in
// Matched.
type Stats struct {
	Processed int `json:"processed"`
	Matched   int `json:"matched"`
	Failed    int `json:"failed"`
}

// MultiStats aggregates per-rule-file results of applying several rule sets
// to the same messages.
type MultiStats struct {
	TotalMessages  int              `json:"total_messages"`
	TotalRuleSets  int              `json:"total_rule_sets"`
	RuleSetResults map[string]Stats `json:"rule_set_results"`
}

// ApplicationRecorder persists the record that a rule's actions were applied
// to a message.
type ApplicationRecorder interface {
	Record(ctx context.Context, messageID uint, ruleID, ruleName string, actionTokens []string) (*models.RuleApplication, error)
}

// Observer receives batch and action outcomes (metrics). Implementations
// must not panic.
type Observer interface {
	ActionExecuted(actionType string, ok bool)
	BatchCompleted(stats Stats)
}

// Notifier is told about new application records (websocket fan-out).
type Notifier interface {
	ApplicationRecorded(record *models.RuleApplication)
}

// Engine applies rule sets to stored messages: evaluate, execute actions,
// record applications. Messages are processed sequentially in caller order;
// a failure on one message never aborts the batch.
type Engine struct {
	eval     *Evaluator
	exec     *Executor
	recorder ApplicationRecorder
	observer Observer
	notifier Notifier
	log      *slog.Logger
}

// EngineConfig holds the engine's collaborators. Observer and Notifier are
// optional.
type EngineConfig struct {
	Transport Transport
	Store     ReadFlagStore
	Recorder  ApplicationRecorder
	Observer  Observer
	Notifier  Notifier
	Logger    *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(cfg EngineConfig) *Engine {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		eval:     NewEvaluator(log),
		exec:     NewExecutor(cfg.Transport, cfg.Store, log),
		recorder: cfg.Recorder,
		observer: cfg.Observer,
		notifier: cfg.Notifier,
		log:      log,
	}
}

// Evaluator exposes the engine's evaluator for callers that only need
// matching without side effects.
func (e *Engine) Evaluator() *Evaluator {
	return e.eval
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger {
	return e.log
}

// ApplyFile loads a rule definition and applies it to the messages. A load
// failure is fatal for the whole batch and returns zero-valued Stats.
func (e *Engine) ApplyFile(ctx context.Context, messages []models.Message, path string) Stats {
	set, err := LoadFile(path, e.log)
	if err != nil {
		e.log.Error("failed to load rule set", slog.String("path", path), slog.Any("error", err))
		return Stats{}
	}
	return e.Apply(ctx, messages, set)
}

// ApplyFiles applies several rule files to the same messages and reports
// per-file statistics.
func (e *Engine) ApplyFiles(ctx context.Context, messages []models.Message, paths []string) MultiStats {
	multi := MultiStats{
		TotalMessages:  len(messages),
		TotalRuleSets:  len(paths),
		RuleSetResults: make(map[string]Stats, len(paths)),
	}
	for _, path := range paths {
		e.log.Info("applying rule set", slog.String("path", path))
		multi.RuleSetResults[path] = e.ApplyFile(ctx, messages, path)
	}
	return multi
}

// Apply runs one rule set across the messages, isolating per-message
// failures into the Failed counter.
func (e *Engine) Apply(ctx context.Context, messages []models.Message, set *RuleSet) Stats {
	var stats Stats
	for i := range messages {
		msg := &messages[i]
		stats.Processed++

		applied, err := e.applyToMessage(ctx, set, msg)
		if err != nil {
			e.log.Error("error processing message",
				slog.String("external_id", msg.ExternalID),
				slog.Any("error", err),
			)
			stats.Failed++
			continue
		}
		if applied {
			stats.Matched++
		}
	}

	e.log.Info("rule application complete",
		slog.String("rule", set.Name),
		slog.Int("processed", stats.Processed),
		slog.Int("matched", stats.Matched),
		slog.Int("failed", stats.Failed),
	)
	if e.observer != nil {
		e.observer.BatchCompleted(stats)
	}
	return stats
}

// applyToMessage evaluates the set against one message and, on a match,
// executes every action in declared order. It reports true only when at
// least one action succeeded and the application was recorded. Panics from
// any collaborator are converted into an error so the batch continues.
func (e *Engine) applyToMessage(ctx context.Context, set *RuleSet, msg *models.Message) (applied bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			applied = false
			err = &panicError{value: r}
		}
	}()

	if !e.eval.EvaluateAll(set, msg) {
		return false, nil
	}

	if len(set.Actions) == 0 {
		e.log.Warn("rule matched but defines no actions", slog.String("rule", set.Name))
		return false, nil
	}

	target := TargetMessage{ID: msg.ID, ExternalID: msg.ExternalID}
	var succeeded []string
	for _, action := range set.Actions {
		ok := e.exec.Execute(ctx, action, target)
		if e.observer != nil {
			e.observer.ActionExecuted(action.Type.String(), ok)
		}
		if ok {
			succeeded = append(succeeded, action.Token)
		}
	}

	if len(succeeded) == 0 {
		return false, nil
	}

	record, err := e.recorder.Record(ctx, msg.ID, set.ID, set.Name, succeeded)
	if err != nil {
		return false, err
	}
	e.log.Info("applied rule to message",
		slog.String("rule", set.Name),
		slog.String("external_id", msg.ExternalID),
		slog.Int("actions_succeeded", len(succeeded)),
	)
	if e.notifier != nil {
		e.notifier.ApplicationRecorded(record)
	}
	return true, nil
}

// panicError wraps a recovered panic as an error for the failure counter.
type panicError struct {
	value any
}

func (p *panicError) Error() string {
	return fmt.Sprintf("panic during message processing: %v", p.value)
}
