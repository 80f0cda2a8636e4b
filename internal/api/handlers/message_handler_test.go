package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sortdesk/mailsift-backend/internal/models"
	"github.com/sortdesk/mailsift-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MessageHandlerTestSuite is the test suite for MessageHandler
type MessageHandlerTestSuite struct {
	suite.Suite
	echo    *echo.Echo
	db      *gorm.DB
	handler *MessageHandler
}

// SetupSuite runs once before all tests
func (s *MessageHandlerTestSuite) SetupSuite() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err)
	require.NoError(s.T(), db.AutoMigrate(&models.Message{}, &models.RuleApplication{}))
	s.db = db
}

// SetupTest runs before each test
func (s *MessageHandlerTestSuite) SetupTest() {
	s.db.Exec("DELETE FROM rule_applications")
	s.db.Exec("DELETE FROM messages")

	s.echo = echo.New()
	s.handler = NewMessageHandler(
		repository.NewMessageRepository(s.db),
		repository.NewApplicationRepository(s.db),
	)
}

// TestMessageHandlerTestSuite runs the test suite
func TestMessageHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(MessageHandlerTestSuite))
}

func (s *MessageHandlerTestSuite) createContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)
	return c, rec
}

func (s *MessageHandlerTestSuite) seedMessage(externalID string, receivedAt time.Time) *models.Message {
	msg := &models.Message{
		ExternalID:  externalID,
		FromAddress: "sender@example.com",
		ToAddress:   "me@example.com",
		Subject:     "Subject " + externalID,
		ReceivedAt:  receivedAt,
	}
	require.NoError(s.T(), s.db.Create(msg).Error)
	return msg
}

// TestList tests GET /api/messages ordering and pagination meta
func (s *MessageHandlerTestSuite) TestList() {
	base := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	s.seedMessage("older", base)
	s.seedMessage("newer", base.Add(time.Hour))

	c, rec := s.createContext(http.MethodGet, "/api/messages?limit=1", "")
	require.NoError(s.T(), s.handler.List(c))

	assert.Equal(s.T(), http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Data    []struct {
			ExternalID string `json:"external_id"`
		} `json:"data"`
		Meta struct {
			Total int64 `json:"total"`
			Limit int   `json:"limit"`
		} `json:"meta"`
	}
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(s.T(), body.Success)
	assert.Equal(s.T(), int64(2), body.Meta.Total)
	require.Len(s.T(), body.Data, 1)
	assert.Equal(s.T(), "newer", body.Data[0].ExternalID)
}

// TestGet tests GET /api/messages/:id with its application history
func (s *MessageHandlerTestSuite) TestGet() {
	msg := s.seedMessage("ext-1", time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	record := &models.RuleApplication{
		ID:        "33333333-3333-3333-3333-333333333333",
		MessageID: msg.ID,
		RuleID:    "newsletters",
		RuleName:  "Newsletter cleanup",
		Actions:   `["archive"]`,
		AppliedAt: time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(s.T(), s.db.Create(record).Error)

	c, rec := s.createContext(http.MethodGet, "/", "")
	c.SetPath("/api/messages/:id")
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(uint64(msg.ID), 10))

	require.NoError(s.T(), s.handler.Get(c))
	assert.Equal(s.T(), http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Message struct {
				ExternalID string `json:"external_id"`
			} `json:"message"`
			Applications []struct {
				RuleID string `json:"rule_id"`
			} `json:"applications"`
		} `json:"data"`
	}
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(s.T(), "ext-1", body.Data.Message.ExternalID)
	require.Len(s.T(), body.Data.Applications, 1)
	assert.Equal(s.T(), "newsletters", body.Data.Applications[0].RuleID)
}

// TestGet_NotFound tests the missing-message response
func (s *MessageHandlerTestSuite) TestGet_NotFound() {
	c, rec := s.createContext(http.MethodGet, "/", "")
	c.SetPath("/api/messages/:id")
	c.SetParamNames("id")
	c.SetParamValues("42")

	require.NoError(s.T(), s.handler.Get(c))
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
}

// TestSetRead tests PATCH /api/messages/:id/read
func (s *MessageHandlerTestSuite) TestSetRead() {
	msg := s.seedMessage("ext-1", time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))

	c, rec := s.createContext(http.MethodPatch, "/", `{"read": true}`)
	c.SetPath("/api/messages/:id/read")
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(uint64(msg.ID), 10))

	require.NoError(s.T(), s.handler.SetRead(c))
	assert.Equal(s.T(), http.StatusOK, rec.Code)

	var stored models.Message
	require.NoError(s.T(), s.db.First(&stored, msg.ID).Error)
	assert.True(s.T(), stored.IsRead)
}

// TestSetRead_MissingFlag tests rejection of a body without the flag
func (s *MessageHandlerTestSuite) TestSetRead_MissingFlag() {
	s.seedMessage("ext-1", time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))

	c, rec := s.createContext(http.MethodPatch, "/", `{}`)
	c.SetPath("/api/messages/:id/read")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(s.T(), s.handler.SetRead(c))
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}
