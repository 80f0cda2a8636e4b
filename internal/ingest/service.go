// Package ingest turns raw messages from any source (Gmail fetch, inbound
// SMTP) into stored triage messages.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sortdesk/mailsift-backend/internal/gmail"
	"github.com/sortdesk/mailsift-backend/internal/models"
	"github.com/sortdesk/mailsift-backend/internal/repository"
)

// Service ingests messages into the store. Storage is idempotent on the
// external ID: re-ingesting a known message is a no-op.
type Service struct {
	messages repository.MessageRepository
	log      *slog.Logger
}

// NewService creates a Service.
func NewService(messages repository.MessageRepository, log *slog.Logger) *Service {
	return &Service{messages: messages, log: log}
}

// RawInput is one message to ingest.
type RawInput struct {
	ExternalID string
	ThreadID   string
	Raw        []byte
	// ReceivedAt is the source's receive time, used when the message
	// carries no parseable Date header.
	ReceivedAt time.Time
	Unread     bool
	Labels     []string
}

// Ingest parses and stores one raw message, returning the stored row and
// whether it was newly created.
func (s *Service) Ingest(ctx context.Context, in RawInput) (*models.Message, bool, error) {
	env, err := ParseEnvelope(bytes.NewReader(in.Raw))
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse message %s: %w", in.ExternalID, err)
	}

	receivedAt := env.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = in.ReceivedAt
	}
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	msg := &models.Message{
		ExternalID:  in.ExternalID,
		ThreadID:    in.ThreadID,
		FromAddress: env.From,
		ToAddress:   env.To,
		Subject:     env.Subject,
		BodyText:    env.BodyText,
		IsRead:      !in.Unread,
		ReceivedAt:  receivedAt.UTC(),
	}
	msg.SetLabelNames(in.Labels)

	stored, err := s.messages.Save(ctx, msg)
	if err != nil {
		return nil, false, err
	}
	// Save returns the caller's pointer only on a fresh insert
	created := stored == msg
	if created {
		s.log.Info("ingested message",
			slog.String("external_id", stored.ExternalID),
			slog.String("from", stored.FromAddress),
		)
	} else {
		s.log.Debug("message already stored", slog.String("external_id", in.ExternalID))
	}
	return stored, created, nil
}

// FromGmail fetches up to max messages matching the query and ingests each
// one, returning how many were newly stored. Per-message parse or store
// failures are logged and skipped.
func (s *Service) FromGmail(ctx context.Context, client *gmail.Client, max int64, query string) (int, error) {
	raws, err := client.FetchRaw(ctx, max, query)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, raw := range raws {
		_, isNew, err := s.Ingest(ctx, RawInput{
			ExternalID: raw.ID,
			ThreadID:   raw.ThreadID,
			Raw:        raw.Raw,
			ReceivedAt: raw.InternalAt,
			Unread:     raw.Unread,
			Labels:     raw.Labels,
		})
		if err != nil {
			s.log.Error("failed to ingest message", slog.String("external_id", raw.ID), slog.Any("error", err))
			continue
		}
		if isNew {
			created++
		}
	}
	s.log.Info("gmail ingestion complete", slog.Int("fetched", len(raws)), slog.Int("created", created))
	return created, nil
}
