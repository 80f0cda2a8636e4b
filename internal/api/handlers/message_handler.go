package handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sortdesk/mailsift-backend/internal/api/response"
	"github.com/sortdesk/mailsift-backend/internal/models"
	"github.com/sortdesk/mailsift-backend/internal/repository"
)

// MessageHandler handles message-related HTTP requests
type MessageHandler struct {
	messageRepo     repository.MessageRepository
	applicationRepo repository.ApplicationRepository
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messageRepo repository.MessageRepository, applicationRepo repository.ApplicationRepository) *MessageHandler {
	return &MessageHandler{
		messageRepo:     messageRepo,
		applicationRepo: applicationRepo,
	}
}

// MessageDetail is a message together with the rule applications
// recorded against it
type MessageDetail struct {
	Message      *models.Message          `json:"message"`
	Applications []models.RuleApplication `json:"applications"`
}

// List handles GET /api/messages
func (h *MessageHandler) List(c echo.Context) error {
	limit := 20
	offset := 0

	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if o := c.QueryParam("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	messages, total, err := h.messageRepo.List(c.Request().Context(), limit, offset)
	if err != nil {
		return response.InternalError(c, "failed to list messages")
	}

	return response.Paginated(c, messages, total, limit, offset)
}

// Get handles GET /api/messages/:id
func (h *MessageHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid message ID")
	}

	message, err := h.messageRepo.GetByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "message not found")
		}
		return response.InternalError(c, "failed to get message")
	}

	applications, err := h.applicationRepo.ListByMessage(c.Request().Context(), uint(id))
	if err != nil {
		return response.InternalError(c, "failed to list rule applications")
	}

	return response.Success(c, MessageDetail{
		Message:      message,
		Applications: applications,
	})
}

// SetRead handles PATCH /api/messages/:id/read
func (h *MessageHandler) SetRead(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid message ID")
	}

	var body struct {
		Read *bool `json:"read"`
	}
	if err := c.Bind(&body); err != nil || body.Read == nil {
		return response.BadRequest(c, "read flag is required")
	}

	if err := h.messageRepo.SetReadFlag(c.Request().Context(), uint(id), *body.Read); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "message not found")
		}
		return response.InternalError(c, "failed to update read flag")
	}

	return response.SuccessWithMessage(c, nil, "read flag updated")
}
