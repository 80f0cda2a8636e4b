package ingest

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sortdesk/mailsift-backend/internal/models"
	"github.com/sortdesk/mailsift-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testService(t *testing.T) (*Service, repository.MessageRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Message{}, &models.RuleApplication{}))

	repo := repository.NewMessageRepository(db)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, log), repo
}

const rawSample = `From: newsletter@deals.example.com
To: me@example.com
Subject: Weekly digest
Date: Mon, 10 Jun 2024 09:30:00 +0000

Unsubscribe at any time.`

// TestIngest_StoresParsedMessage tests the parse and store path
func TestIngest_StoresParsedMessage(t *testing.T) {
	svc, repo := testService(t)

	msg, created, err := svc.Ingest(context.Background(), RawInput{
		ExternalID: "gm-1",
		ThreadID:   "thread-1",
		Raw:        []byte(rawSample),
		Unread:     true,
		Labels:     []string{"INBOX", "Promotions"},
	})

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "newsletter@deals.example.com", msg.FromAddress)
	assert.Equal(t, "Weekly digest", msg.Subject)
	assert.False(t, msg.IsRead)
	assert.Equal(t, []string{"INBOX", "Promotions"}, msg.LabelNames())
	assert.Equal(t, time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC), msg.ReceivedAt)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

// TestIngest_Idempotent tests that re-ingesting an external ID is a no-op
func TestIngest_Idempotent(t *testing.T) {
	svc, repo := testService(t)
	in := RawInput{ExternalID: "gm-1", Raw: []byte(rawSample), Unread: true}

	_, created, err := svc.Ingest(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = svc.Ingest(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, created)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

// TestIngest_FallsBackToSourceTime tests the receive-time fallback chain
func TestIngest_FallsBackToSourceTime(t *testing.T) {
	svc, _ := testService(t)
	noDate := []byte("From: a@example.com\r\nTo: b@example.com\r\nSubject: x\r\n\r\nbody")
	sourceTime := time.Date(2024, 6, 12, 8, 0, 0, 0, time.UTC)

	msg, _, err := svc.Ingest(context.Background(), RawInput{
		ExternalID: "gm-2",
		Raw:        noDate,
		ReceivedAt: sourceTime,
	})

	require.NoError(t, err)
	assert.Equal(t, sourceTime, msg.ReceivedAt)
}

// TestIngest_ReadStateFollowsSource tests the unread flag mapping
func TestIngest_ReadStateFollowsSource(t *testing.T) {
	svc, _ := testService(t)

	msg, _, err := svc.Ingest(context.Background(), RawInput{
		ExternalID: "gm-3",
		Raw:        []byte(rawSample),
		Unread:     false,
	})

	require.NoError(t, err)
	assert.True(t, msg.IsRead)
}
