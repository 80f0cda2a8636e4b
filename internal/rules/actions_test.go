package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport records calls and fails on demand
type fakeTransport struct {
	calls   []string
	failOn  map[string]error
	panicOn string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{failOn: make(map[string]error)}
}

func (f *fakeTransport) record(op, externalID string) error {
	if op == f.panicOn {
		panic("transport exploded")
	}
	f.calls = append(f.calls, op+":"+externalID)
	return f.failOn[op]
}

func (f *fakeTransport) MarkRead(ctx context.Context, externalID string) error {
	return f.record("mark_read", externalID)
}

func (f *fakeTransport) MarkUnread(ctx context.Context, externalID string) error {
	return f.record("mark_unread", externalID)
}

func (f *fakeTransport) MoveToLabel(ctx context.Context, externalID, label string) error {
	return f.record("move:"+label, externalID)
}

func (f *fakeTransport) Archive(ctx context.Context, externalID string) error {
	return f.record("archive", externalID)
}

func (f *fakeTransport) Trash(ctx context.Context, externalID string) error {
	return f.record("trash", externalID)
}

// fakeReadFlagStore records read-flag updates
type fakeReadFlagStore struct {
	updates map[uint]bool
	err     error
}

func newFakeReadFlagStore() *fakeReadFlagStore {
	return &fakeReadFlagStore{updates: make(map[uint]bool)}
}

func (f *fakeReadFlagStore) SetReadFlag(ctx context.Context, id uint, isRead bool) error {
	if f.err != nil {
		return f.err
	}
	f.updates[id] = isRead
	return nil
}

// TestParseAction_Tokens tests action token parsing
func TestParseAction_Tokens(t *testing.T) {
	tests := []struct {
		token     string
		wantType  ActionType
		wantParam string
	}{
		{"mark_as_read", ActionMarkRead, ""},
		{"mark_read", ActionMarkRead, ""},
		{"mark-as-read", ActionMarkRead, ""},
		{"mark_as_unread", ActionMarkUnread, ""},
		{"mark-as-unread", ActionMarkUnread, ""},
		{"move:Receipts", ActionMove, "Receipts"},
		{"move:Project X", ActionMove, "Project X"},
		{"archive", ActionArchive, ""},
		{"delete", ActionDelete, ""},
	}

	for _, tt := range tests {
		action, err := ParseAction(tt.token)
		require.NoError(t, err, "token %q", tt.token)
		assert.Equal(t, tt.wantType, action.Type, "token %q", tt.token)
		assert.Equal(t, tt.wantParam, action.Param, "token %q", tt.token)
		assert.Equal(t, tt.token, action.Token, "token %q", tt.token)
	}
}

// TestParseAction_Invalid tests rejection of malformed tokens
func TestParseAction_Invalid(t *testing.T) {
	_, err := ParseAction("move:")
	assert.Error(t, err)

	_, err = ParseAction("move")
	assert.Error(t, err)

	_, err = ParseAction("snooze")
	assert.Error(t, err)
}

// TestExecute_Dispatch tests that each action hits its transport call
func TestExecute_Dispatch(t *testing.T) {
	transport := newFakeTransport()
	store := newFakeReadFlagStore()
	exec := NewExecutor(transport, store, discardLogger())
	msg := TargetMessage{ID: 1, ExternalID: "msg-001"}

	for _, token := range []string{"mark_as_read", "move:Receipts", "archive", "delete"} {
		action, err := ParseAction(token)
		require.NoError(t, err)
		assert.True(t, exec.Execute(context.Background(), action, msg))
	}

	assert.Equal(t, []string{
		"mark_read:msg-001",
		"move:Receipts:msg-001",
		"archive:msg-001",
		"trash:msg-001",
	}, transport.calls)
}

// TestExecute_MirrorsReadFlag tests that mark actions update the stored flag
func TestExecute_MirrorsReadFlag(t *testing.T) {
	transport := newFakeTransport()
	store := newFakeReadFlagStore()
	exec := NewExecutor(transport, store, discardLogger())
	msg := TargetMessage{ID: 7, ExternalID: "msg-007"}

	action, _ := ParseAction("mark_as_read")
	assert.True(t, exec.Execute(context.Background(), action, msg))
	assert.Equal(t, map[uint]bool{7: true}, store.updates)

	action, _ = ParseAction("mark_as_unread")
	assert.True(t, exec.Execute(context.Background(), action, msg))
	assert.Equal(t, map[uint]bool{7: false}, store.updates)
}

// TestExecute_TransportFailureSkipsStore tests that the flag is untouched on failure
func TestExecute_TransportFailureSkipsStore(t *testing.T) {
	transport := newFakeTransport()
	transport.failOn["mark_read"] = errors.New("rate limited")
	store := newFakeReadFlagStore()
	exec := NewExecutor(transport, store, discardLogger())

	action, _ := ParseAction("mark_as_read")
	ok := exec.Execute(context.Background(), action, TargetMessage{ID: 3, ExternalID: "msg-003"})

	assert.False(t, ok)
	assert.Empty(t, store.updates)
}

// TestExecute_StoreFailureKeepsSuccess tests that a store error does not retract success
func TestExecute_StoreFailureKeepsSuccess(t *testing.T) {
	transport := newFakeTransport()
	store := newFakeReadFlagStore()
	store.err = errors.New("database locked")
	exec := NewExecutor(transport, store, discardLogger())

	action, _ := ParseAction("mark_as_read")
	ok := exec.Execute(context.Background(), action, TargetMessage{ID: 3, ExternalID: "msg-003"})

	assert.True(t, ok)
}

// TestExecute_PanicBecomesFailure tests panic absorption
func TestExecute_PanicBecomesFailure(t *testing.T) {
	transport := newFakeTransport()
	transport.panicOn = "archive"
	exec := NewExecutor(transport, newFakeReadFlagStore(), discardLogger())

	action, _ := ParseAction("archive")
	ok := exec.Execute(context.Background(), action, TargetMessage{ID: 3, ExternalID: "msg-003"})

	assert.False(t, ok)
}

// TestUnavailableTransport tests that every action fails without a connection
func TestUnavailableTransport(t *testing.T) {
	exec := NewExecutor(UnavailableTransport{}, nil, discardLogger())

	for _, token := range []string{"mark_as_read", "move:Later", "archive", "delete"} {
		action, err := ParseAction(token)
		require.NoError(t, err)
		assert.False(t, exec.Execute(context.Background(), action, TargetMessage{ID: 1, ExternalID: "x"}))
	}
}
