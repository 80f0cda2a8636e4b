package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sortdesk/mailsift-backend/internal/api"
	"github.com/sortdesk/mailsift-backend/internal/config"
	"github.com/sortdesk/mailsift-backend/internal/database"
	"github.com/sortdesk/mailsift-backend/internal/gmail"
	"github.com/sortdesk/mailsift-backend/internal/ingest"
	"github.com/sortdesk/mailsift-backend/internal/metrics"
	"github.com/sortdesk/mailsift-backend/internal/notify"
	"github.com/sortdesk/mailsift-backend/internal/repository"
	"github.com/sortdesk/mailsift-backend/internal/rules"
	smtpserver "github.com/sortdesk/mailsift-backend/internal/smtp"
)

func main() {
	cfg, err := config.LoadWithValidation()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("starting mailsift server")
	cfg.LogConfig(logger)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	messageRepo := repository.NewMessageRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The Gmail connection is optional: without credentials the server still
	// ingests over SMTP and serves the API, but triage actions all fail.
	var transport rules.Transport = rules.UnavailableTransport{}
	if client, err := gmail.Connect(ctx, cfg.GmailAuthDir, logger); err != nil {
		logger.Warn("gmail transport unavailable",
			slog.String("auth_dir", cfg.GmailAuthDir),
			slog.Any("error", err),
		)
	} else {
		transport = client
	}

	hub := notify.NewHub(logger)
	go hub.Run()

	collector := metrics.NewCollector()

	engine := rules.NewEngine(rules.EngineConfig{
		Transport: transport,
		Store:     messageRepo,
		Recorder:  applicationRepo,
		Observer:  collector,
		Notifier:  hub,
		Logger:    logger,
	})

	ingestSvc := ingest.NewService(messageRepo, logger)

	smtpBackend := smtpserver.NewBackend(ingestSvc, logger)
	smtpSrv := smtpserver.NewServer(smtpBackend, cfg.SMTPAddr, cfg.SMTPHost)

	go func() {
		logger.Info("starting SMTP server", slog.String("addr", cfg.SMTPAddr))
		if err := smtpSrv.ListenAndServe(); err != nil {
			logger.Error("SMTP server stopped", slog.Any("error", err))
		}
	}()

	router := api.NewRouter(&api.RouterConfig{
		DB:       db,
		Engine:   engine,
		Hub:      hub,
		Metrics:  collector,
		RulesDir: cfg.RulesDir,
		Logger:   logger,
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.APIPort)
		logger.Info("starting HTTP server", slog.String("addr", addr))
		if err := router.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server stopped", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := router.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", slog.Any("error", err))
	}
	if err := smtpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("SMTP shutdown failed", slog.Any("error", err))
	}

	logger.Info("server stopped")
}
