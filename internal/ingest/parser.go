package ingest

import (
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
	"github.com/k3a/html2text"
)

// Envelope holds the header and body fields triage needs from a parsed
// RFC 822 message.
type Envelope struct {
	From       string
	To         string
	Subject    string
	BodyText   string
	ReceivedAt time.Time // zero when the Date header is absent or invalid
}

// ParseEnvelope parses a raw message. HTML-only bodies are converted to
// plain text so body predicates have something to match.
func ParseEnvelope(r io.Reader) (*Envelope, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, err
	}

	parsed := &Envelope{
		From:     addressOf(env.GetHeader("From")),
		To:       addressOf(env.GetHeader("To")),
		Subject:  env.GetHeader("Subject"),
		BodyText: env.Text,
	}

	if parsed.BodyText == "" && env.HTML != "" {
		parsed.BodyText = strings.TrimSpace(html2text.HTML2Text(env.HTML))
	}

	if date := env.GetHeader("Date"); date != "" {
		if ts, err := mail.ParseDate(date); err == nil {
			parsed.ReceivedAt = ts.UTC()
		}
	}

	return parsed, nil
}

// addressOf extracts the bare address from a header like
// `"Name" <user@example.com>`, falling back to the raw header value.
func addressOf(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if addr, err := mail.ParseAddress(header); err == nil {
		return addr.Address
	}
	return header
}
