package rules

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/sortdesk/mailsift-backend/internal/errors"
)

// ActionType enumerates the supported action kinds.
type ActionType int

const (
	ActionInvalid ActionType = iota
	ActionMarkRead
	ActionMarkUnread
	ActionMove
	ActionArchive
	ActionDelete
)

func (t ActionType) String() string {
	switch t {
	case ActionMarkRead:
		return "mark_as_read"
	case ActionMarkUnread:
		return "mark_as_unread"
	case ActionMove:
		return "move"
	case ActionArchive:
		return "archive"
	case ActionDelete:
		return "delete"
	default:
		return "invalid"
	}
}

// Action is a parsed action token. Token preserves the original wire form
// for application records.
type Action struct {
	Type  ActionType
	Param string
	Token string
}

// ParseAction parses an action token, splitting type from parameter on the
// first colon. move requires a non-empty label parameter.
func ParseAction(token string) (Action, error) {
	token = strings.TrimSpace(token)
	kind, param := token, ""
	if idx := strings.Index(token, ":"); idx >= 0 {
		kind, param = token[:idx], strings.TrimSpace(token[idx+1:])
	}

	action := Action{Param: param, Token: token}
	// Rule files spell keywords with either hyphens or underscores.
	kind = strings.ReplaceAll(strings.ToLower(kind), "-", "_")
	switch kind {
	case "mark_as_read", "mark_read":
		action.Type = ActionMarkRead
	case "mark_as_unread", "mark_unread":
		action.Type = ActionMarkUnread
	case "move":
		if param == "" {
			return Action{}, fmt.Errorf("move action %q has no label", token)
		}
		action.Type = ActionMove
	case "archive":
		action.Type = ActionArchive
	case "delete":
		action.Type = ActionDelete
	default:
		return Action{}, fmt.Errorf("unknown action %q", token)
	}
	return action, nil
}

// Transport is the narrow mail-service surface the executor drives.
// Implementations report failure through the error return; they are expected
// not to panic.
type Transport interface {
	MarkRead(ctx context.Context, externalID string) error
	MarkUnread(ctx context.Context, externalID string) error
	MoveToLabel(ctx context.Context, externalID, label string) error
	Archive(ctx context.Context, externalID string) error
	Trash(ctx context.Context, externalID string) error
}

// UnavailableTransport rejects every action. It stands in when no mail
// service connection is configured, so rule evaluation still runs but every
// action fails and nothing is recorded.
type UnavailableTransport struct{}

func (UnavailableTransport) MarkRead(ctx context.Context, externalID string) error {
	return apperrors.ErrTransportUnavailable
}

func (UnavailableTransport) MarkUnread(ctx context.Context, externalID string) error {
	return apperrors.ErrTransportUnavailable
}

func (UnavailableTransport) MoveToLabel(ctx context.Context, externalID, label string) error {
	return apperrors.ErrTransportUnavailable
}

func (UnavailableTransport) Archive(ctx context.Context, externalID string) error {
	return apperrors.ErrTransportUnavailable
}

func (UnavailableTransport) Trash(ctx context.Context, externalID string) error {
	return apperrors.ErrTransportUnavailable
}

// ReadFlagStore mirrors the transport's read-state onto the stored message.
type ReadFlagStore interface {
	SetReadFlag(ctx context.Context, id uint, isRead bool) error
}

// TargetMessage is the slice of a message the executor needs.
type TargetMessage struct {
	ID         uint
	ExternalID string
}

// Executor maps parsed actions onto transport calls, absorbing every
// collaborator failure into a false return. Actions are independent: a
// failure neither stops nor rolls back its siblings.
type Executor struct {
	transport Transport
	store     ReadFlagStore
	log       *slog.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(transport Transport, store ReadFlagStore, log *slog.Logger) *Executor {
	return &Executor{transport: transport, store: store, log: log}
}

// Execute runs one action against one message and reports success. The
// stored read flag is updated only after the transport call succeeds; a
// store failure is logged but does not retract the action's success.
func (x *Executor) Execute(ctx context.Context, action Action, msg TargetMessage) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			x.log.Error("action panicked",
				slog.String("action", action.Token),
				slog.String("external_id", msg.ExternalID),
				slog.Any("panic", r),
			)
			ok = false
		}
	}()

	var err error
	switch action.Type {
	case ActionMarkRead:
		if err = x.transport.MarkRead(ctx, msg.ExternalID); err == nil {
			x.updateReadFlag(ctx, msg, true)
		}
	case ActionMarkUnread:
		if err = x.transport.MarkUnread(ctx, msg.ExternalID); err == nil {
			x.updateReadFlag(ctx, msg, false)
		}
	case ActionMove:
		err = x.transport.MoveToLabel(ctx, msg.ExternalID, action.Param)
	case ActionArchive:
		err = x.transport.Archive(ctx, msg.ExternalID)
	case ActionDelete:
		err = x.transport.Trash(ctx, msg.ExternalID)
	default:
		x.log.Warn("unknown action", slog.String("action", action.Token))
		return false
	}

	if err != nil {
		x.log.Error("action failed",
			slog.String("action", action.Token),
			slog.String("external_id", msg.ExternalID),
			slog.Any("error", err),
		)
		return false
	}
	return true
}

func (x *Executor) updateReadFlag(ctx context.Context, msg TargetMessage, isRead bool) {
	if x.store == nil {
		return
	}
	if err := x.store.SetReadFlag(ctx, msg.ID, isRead); err != nil {
		x.log.Error("failed to update stored read flag",
			slog.Uint64("message_id", uint64(msg.ID)),
			slog.Any("error", err),
		)
	}
}
