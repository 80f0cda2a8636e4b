package api

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/sortdesk/mailsift-backend/internal/api/handlers"
	"github.com/sortdesk/mailsift-backend/internal/api/middleware"
	"github.com/sortdesk/mailsift-backend/internal/metrics"
	"github.com/sortdesk/mailsift-backend/internal/notify"
	"github.com/sortdesk/mailsift-backend/internal/repository"
	"github.com/sortdesk/mailsift-backend/internal/rules"
	"gorm.io/gorm"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB       *gorm.DB
	Engine   *rules.Engine
	Hub      *notify.Hub
	Metrics  *metrics.Collector
	RulesDir string
	Logger   *slog.Logger
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if cfg.Logger != nil {
		e.Use(middleware.RequestLogger(cfg.Logger))
	}

	messageRepo := repository.NewMessageRepository(cfg.DB)
	applicationRepo := repository.NewApplicationRepository(cfg.DB)

	healthHandler := handlers.NewHealthHandler(cfg.DB)
	messageHandler := handlers.NewMessageHandler(messageRepo, applicationRepo)
	triageHandler := handlers.NewTriageHandler(cfg.Engine, messageRepo, cfg.RulesDir)

	// Health routes
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)

	if cfg.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(cfg.Metrics.Handler()))
	}

	if cfg.Hub != nil {
		wsHandler := handlers.NewWSHandler(cfg.Hub, cfg.Logger)
		e.GET("/ws", wsHandler.Serve)
	}

	// API routes
	api := e.Group("/api")

	messages := api.Group("/messages")
	messages.GET("", messageHandler.List)
	messages.GET("/:id", messageHandler.Get)
	messages.PATCH("/:id/read", messageHandler.SetRead)

	triage := api.Group("/triage")
	triage.POST("/run", triageHandler.Run)

	return e
}
