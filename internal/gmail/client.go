// Package gmail adapts the Gmail API to the narrow transport surface the
// triage engine drives, plus raw-message fetching for ingestion.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/api/gmail/v1"
)

const (
	labelUnread = "UNREAD"
	labelInbox  = "INBOX"
)

// RawMessage is one fetched message before MIME parsing.
type RawMessage struct {
	ID         string
	ThreadID   string
	Raw        []byte
	InternalAt time.Time
	Unread     bool
	Labels     []string
}

// Client wraps *gmail.Service behind the engine's transport interface.
// Label name→id resolution is cached per client.
type Client struct {
	svc *gmail.Service
	log *slog.Logger

	mu           sync.Mutex
	labelsByName map[string]string
	labelsByID   map[string]string
}

// NewClient creates a Client around an authenticated service.
func NewClient(svc *gmail.Service, log *slog.Logger) *Client {
	return &Client{svc: svc, log: log}
}

// MarkRead removes the UNREAD label.
func (c *Client) MarkRead(ctx context.Context, externalID string) error {
	req := &gmail.ModifyMessageRequest{RemoveLabelIds: []string{labelUnread}}
	_, err := c.svc.Users.Messages.Modify("me", externalID, req).Context(ctx).Do()
	return err
}

// MarkUnread adds the UNREAD label.
func (c *Client) MarkUnread(ctx context.Context, externalID string) error {
	req := &gmail.ModifyMessageRequest{AddLabelIds: []string{labelUnread}}
	_, err := c.svc.Users.Messages.Modify("me", externalID, req).Context(ctx).Do()
	return err
}

// MoveToLabel applies the named label (creating it if absent) and removes
// the message from the inbox.
func (c *Client) MoveToLabel(ctx context.Context, externalID, label string) error {
	labelID, err := c.ensureLabel(ctx, label)
	if err != nil {
		return err
	}
	req := &gmail.ModifyMessageRequest{
		AddLabelIds:    []string{labelID},
		RemoveLabelIds: []string{labelInbox},
	}
	_, err = c.svc.Users.Messages.Modify("me", externalID, req).Context(ctx).Do()
	return err
}

// Archive removes the message from the inbox.
func (c *Client) Archive(ctx context.Context, externalID string) error {
	req := &gmail.ModifyMessageRequest{RemoveLabelIds: []string{labelInbox}}
	_, err := c.svc.Users.Messages.Modify("me", externalID, req).Context(ctx).Do()
	return err
}

// Trash moves the message to the trash.
func (c *Client) Trash(ctx context.Context, externalID string) error {
	_, err := c.svc.Users.Messages.Trash("me", externalID).Context(ctx).Do()
	return err
}

// FetchRaw lists up to max messages matching the query and downloads each
// in raw RFC 822 form. Per-message download failures are logged and
// skipped.
func (c *Client) FetchRaw(ctx context.Context, max int64, query string) ([]RawMessage, error) {
	call := c.svc.Users.Messages.List("me").MaxResults(max)
	if query != "" {
		call = call.Q(query)
	}
	res, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	out := make([]RawMessage, 0, len(res.Messages))
	for _, stub := range res.Messages {
		msg, err := c.fetchOne(ctx, stub.Id)
		if err != nil {
			c.log.Error("failed to fetch message", slog.String("id", stub.Id), slog.Any("error", err))
			continue
		}
		out = append(out, msg)
	}
	c.log.Info("fetched messages", slog.Int("count", len(out)))
	return out, nil
}

func (c *Client) fetchOne(ctx context.Context, id string) (RawMessage, error) {
	msg, err := c.svc.Users.Messages.Get("me", id).Format("raw").Context(ctx).Do()
	if err != nil {
		return RawMessage{}, err
	}

	raw, err := base64.URLEncoding.DecodeString(msg.Raw)
	if err != nil {
		raw, err = base64.RawURLEncoding.DecodeString(msg.Raw)
		if err != nil {
			return RawMessage{}, fmt.Errorf("failed to decode raw body: %w", err)
		}
	}

	unread := false
	for _, l := range msg.LabelIds {
		if l == labelUnread {
			unread = true
			break
		}
	}

	return RawMessage{
		ID:         msg.Id,
		ThreadID:   msg.ThreadId,
		Raw:        raw,
		InternalAt: time.UnixMilli(msg.InternalDate).UTC(),
		Unread:     unread,
		Labels:     c.labelNames(ctx, msg.LabelIds),
	}, nil
}

// labelNames maps label IDs to display names, falling back to the raw IDs
// when the label list cannot be fetched.
func (c *Client) labelNames(ctx context.Context, ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	if err := c.refreshLabels(ctx, false); err != nil {
		c.log.Warn("failed to list labels", slog.Any("error", err))
		return ids
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := c.labelsByID[id]; ok {
			names = append(names, name)
		} else {
			names = append(names, id)
		}
	}
	return names
}

// ensureLabel returns the ID for a label name, creating the label when it
// does not exist.
func (c *Client) ensureLabel(ctx context.Context, name string) (string, error) {
	if err := c.refreshLabels(ctx, false); err != nil {
		return "", err
	}

	c.mu.Lock()
	id, ok := c.labelsByName[name]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	// Another process may have created it since the cache was filled.
	if err := c.refreshLabels(ctx, true); err != nil {
		return "", err
	}
	c.mu.Lock()
	id, ok = c.labelsByName[name]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	created, err := c.svc.Users.Labels.Create("me", &gmail.Label{
		Name:                  name,
		MessageListVisibility: "show",
		LabelListVisibility:   "labelShow",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create label %q: %w", name, err)
	}
	c.log.Info("created label", slog.String("name", name))

	c.mu.Lock()
	c.labelsByName[name] = created.Id
	c.labelsByID[created.Id] = name
	c.mu.Unlock()
	return created.Id, nil
}

func (c *Client) refreshLabels(ctx context.Context, force bool) error {
	c.mu.Lock()
	cached := c.labelsByName != nil
	c.mu.Unlock()
	if cached && !force {
		return nil
	}

	res, err := c.svc.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return err
	}

	byName := make(map[string]string, len(res.Labels))
	byID := make(map[string]string, len(res.Labels))
	for _, l := range res.Labels {
		byName[l.Name] = l.Id
		byID[l.Id] = l.Name
	}

	c.mu.Lock()
	c.labelsByName = byName
	c.labelsByID = byID
	c.mu.Unlock()
	return nil
}
