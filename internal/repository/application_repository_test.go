package repository

import (
	"context"
	"testing"
	"time"

	"github.com/sortdesk/mailsift-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ApplicationRepositoryTestSuite is the test suite for ApplicationRepository
type ApplicationRepositoryTestSuite struct {
	suite.Suite
	db          *gorm.DB
	repo        ApplicationRepository
	testMessage *models.Message
}

// SetupSuite runs once before all tests
func (s *ApplicationRepositoryTestSuite) SetupSuite() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)

	db.Exec("PRAGMA foreign_keys = ON")

	err = db.AutoMigrate(&models.Message{}, &models.RuleApplication{})
	require.NoError(s.T(), err)

	s.db = db
	s.repo = NewApplicationRepository(db)
}

// TearDownSuite runs once after all tests
func (s *ApplicationRepositoryTestSuite) TearDownSuite() {
	sqlDB, _ := s.db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// SetupTest runs before each test
func (s *ApplicationRepositoryTestSuite) SetupTest() {
	s.db.Exec("DELETE FROM rule_applications")
	s.db.Exec("DELETE FROM messages")

	s.testMessage = &models.Message{
		ExternalID:  "ext-1",
		FromAddress: "sender@example.com",
		ToAddress:   "me@example.com",
		Subject:     "Subject",
		ReceivedAt:  time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(s.T(), s.db.Create(s.testMessage).Error)
}

// TestApplicationRepositoryTestSuite runs the test suite
func TestApplicationRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(ApplicationRepositoryTestSuite))
}

// TestRecord tests creating an application record
func (s *ApplicationRepositoryTestSuite) TestRecord() {
	record, err := s.repo.Record(context.Background(), s.testMessage.ID, "newsletters", "Newsletter cleanup", []string{"mark_as_read", "archive"})

	require.NoError(s.T(), err)
	assert.NotEmpty(s.T(), record.ID)
	assert.Equal(s.T(), s.testMessage.ID, record.MessageID)
	assert.Equal(s.T(), "newsletters", record.RuleID)
	assert.Equal(s.T(), "Newsletter cleanup", record.RuleName)
	assert.Equal(s.T(), []string{"mark_as_read", "archive"}, record.ActionTokens())
	assert.False(s.T(), record.AppliedAt.IsZero())
	assert.Equal(s.T(), time.UTC, record.AppliedAt.Location())
}

// TestRecord_GeneratesUniqueIDs tests that repeated applications coexist
func (s *ApplicationRepositoryTestSuite) TestRecord_GeneratesUniqueIDs() {
	first, err := s.repo.Record(context.Background(), s.testMessage.ID, "r1", "Rule r1", []string{"archive"})
	require.NoError(s.T(), err)
	second, err := s.repo.Record(context.Background(), s.testMessage.ID, "r1", "Rule r1", []string{"archive"})
	require.NoError(s.T(), err)

	assert.NotEqual(s.T(), first.ID, second.ID)

	records, err := s.repo.ListByMessage(context.Background(), s.testMessage.ID)
	require.NoError(s.T(), err)
	assert.Len(s.T(), records, 2)
}

// TestListByMessage_OrderedOldestFirst tests the listing order
func (s *ApplicationRepositoryTestSuite) TestListByMessage_OrderedOldestFirst() {
	// Insert out of order with explicit timestamps
	older := &models.RuleApplication{
		ID:        "11111111-1111-1111-1111-111111111111",
		MessageID: s.testMessage.ID,
		RuleID:    "first",
		Actions:   `["archive"]`,
		AppliedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	newer := &models.RuleApplication{
		ID:        "22222222-2222-2222-2222-222222222222",
		MessageID: s.testMessage.ID,
		RuleID:    "second",
		Actions:   `["delete"]`,
		AppliedAt: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(s.T(), s.db.Create(newer).Error)
	require.NoError(s.T(), s.db.Create(older).Error)

	records, err := s.repo.ListByMessage(context.Background(), s.testMessage.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), records, 2)
	assert.Equal(s.T(), "first", records[0].RuleID)
	assert.Equal(s.T(), "second", records[1].RuleID)
}

// TestListByMessage_Empty tests listing for a message with no applications
func (s *ApplicationRepositoryTestSuite) TestListByMessage_Empty() {
	records, err := s.repo.ListByMessage(context.Background(), s.testMessage.ID)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), records)
}
