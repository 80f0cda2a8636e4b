package handlers

import (
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/sortdesk/mailsift-backend/internal/api/response"
	apperrors "github.com/sortdesk/mailsift-backend/internal/errors"
	"github.com/sortdesk/mailsift-backend/internal/repository"
	"github.com/sortdesk/mailsift-backend/internal/rules"
)

// TriageHandler runs rule files against the stored messages
type TriageHandler struct {
	engine      *rules.Engine
	messageRepo repository.MessageRepository
	rulesDir    string
}

// NewTriageHandler creates a new TriageHandler
func NewTriageHandler(engine *rules.Engine, messageRepo repository.MessageRepository, rulesDir string) *TriageHandler {
	return &TriageHandler{
		engine:      engine,
		messageRepo: messageRepo,
		rulesDir:    rulesDir,
	}
}

// RunRequest names the rule file to apply
type RunRequest struct {
	File string `json:"file"`
}

// RunResponse reports the batch statistics for one rule file
type RunResponse struct {
	File  string      `json:"file"`
	Rule  string      `json:"rule"`
	Stats rules.Stats `json:"stats"`
}

// Run handles POST /api/triage/run
func (h *TriageHandler) Run(c echo.Context) error {
	var req RunRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.File == "" {
		return response.BadRequest(c, "rule file is required")
	}
	// Rule files live directly in the rules directory
	if filepath.Base(req.File) != req.File {
		return response.BadRequest(c, "rule file must be a bare file name")
	}

	ctx := c.Request().Context()

	set, err := rules.LoadFile(filepath.Join(h.rulesDir, req.File), h.engine.Logger())
	if err != nil {
		if apperrors.IsNotFound(err) {
			return response.NotFound(c, "rule file not found")
		}
		return response.Error(c, err)
	}

	messages, _, err := h.messageRepo.List(ctx, 0, 0)
	if err != nil {
		return response.InternalError(c, "failed to load messages")
	}

	stats := h.engine.Apply(ctx, messages, set)

	return response.Success(c, RunResponse{
		File:  req.File,
		Rule:  set.Name,
		Stats: stats,
	})
}
