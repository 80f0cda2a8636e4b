package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseEnvelope_SimpleText tests parsing a plain text message
func TestParseEnvelope_SimpleText(t *testing.T) {
	raw := `From: "Deals Daily" <newsletter@deals.example.com>
To: me@example.com
Subject: Weekly digest
Date: Mon, 10 Jun 2024 09:30:00 +0000
Content-Type: text/plain; charset=utf-8

Unsubscribe at any time.`

	env, err := ParseEnvelope(strings.NewReader(raw))

	require.NoError(t, err)
	assert.Equal(t, "newsletter@deals.example.com", env.From)
	assert.Equal(t, "me@example.com", env.To)
	assert.Equal(t, "Weekly digest", env.Subject)
	assert.Contains(t, env.BodyText, "Unsubscribe at any time")
	assert.Equal(t, time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC), env.ReceivedAt)
}

// TestParseEnvelope_HTMLOnlyBody tests the HTML to text fallback
func TestParseEnvelope_HTMLOnlyBody(t *testing.T) {
	raw := `From: promo@deals.example.com
To: me@example.com
Subject: Sale
Content-Type: text/html; charset=utf-8

<html><body><p>Final <b>hours</b> to save.</p></body></html>`

	env, err := ParseEnvelope(strings.NewReader(raw))

	require.NoError(t, err)
	assert.Contains(t, env.BodyText, "Final hours to save")
	assert.NotContains(t, env.BodyText, "<b>")
}

// TestParseEnvelope_DateNormalizedToUTC tests timezone normalization
func TestParseEnvelope_DateNormalizedToUTC(t *testing.T) {
	raw := `From: a@example.com
To: b@example.com
Subject: tz
Date: Mon, 10 Jun 2024 20:00:00 -0500

body`

	env, err := ParseEnvelope(strings.NewReader(raw))

	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 11, 1, 0, 0, 0, time.UTC), env.ReceivedAt)
	assert.Equal(t, time.UTC, env.ReceivedAt.Location())
}

// TestParseEnvelope_MissingDate tests that an absent Date header yields zero
func TestParseEnvelope_MissingDate(t *testing.T) {
	raw := `From: a@example.com
To: b@example.com
Subject: no date

body`

	env, err := ParseEnvelope(strings.NewReader(raw))

	require.NoError(t, err)
	assert.True(t, env.ReceivedAt.IsZero())
}

// TestParseEnvelope_RawAddressFallback tests unparseable From headers
func TestParseEnvelope_RawAddressFallback(t *testing.T) {
	raw := `From: not a real address
To: me@example.com
Subject: odd sender

body`

	env, err := ParseEnvelope(strings.NewReader(raw))

	require.NoError(t, err)
	assert.Equal(t, "not a real address", env.From)
}
