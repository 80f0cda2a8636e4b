// Package smtp receives mail over SMTP and feeds it into the triage store.
package smtp

import (
	"log/slog"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/sortdesk/mailsift-backend/internal/ingest"
)

// Security limits
const (
	DefaultMaxMessageSize = 25 * 1024 * 1024 // 25 MB
	DefaultMaxRecipients  = 100
	DefaultReadTimeout    = 60 * time.Second
	DefaultWriteTimeout   = 60 * time.Second
	DefaultMaxLineLength  = 2000
)

// Backend implements the go-smtp Backend interface
type Backend struct {
	ingest *ingest.Service
	logger *slog.Logger
}

// NewBackend creates a new SMTP backend
func NewBackend(ingestSvc *ingest.Service, logger *slog.Logger) *Backend {
	return &Backend{ingest: ingestSvc, logger: logger}
}

// NewSession creates a new SMTP session
func (b *Backend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	if b.logger != nil {
		b.logger.Info("new SMTP connection", slog.String("remote_addr", c.Conn().RemoteAddr().String()))
	}
	return NewSession(b), nil
}

// NewServer creates an SMTP server with conservative limits
func NewServer(backend *Backend, addr, domain string) *smtp.Server {
	s := smtp.NewServer(backend)

	s.Addr = addr
	s.Domain = domain
	s.MaxMessageBytes = DefaultMaxMessageSize
	s.MaxRecipients = DefaultMaxRecipients
	s.ReadTimeout = DefaultReadTimeout
	s.WriteTimeout = DefaultWriteTimeout
	s.MaxLineLength = DefaultMaxLineLength

	return s
}
