package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sortdesk/mailsift-backend/internal/rules"
	"github.com/stretchr/testify/assert"
)

// TestBatchCompleted tests the aggregate batch counters
func TestBatchCompleted(t *testing.T) {
	c := NewCollector()

	c.BatchCompleted(rules.Stats{Processed: 10, Matched: 3, Failed: 1})
	c.BatchCompleted(rules.Stats{Processed: 5, Matched: 2, Failed: 0})

	assert.Equal(t, 15.0, testutil.ToFloat64(c.messagesProcessed))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.messagesMatched))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.messagesFailed))
}

// TestActionExecuted tests per-action outcome labels
func TestActionExecuted(t *testing.T) {
	c := NewCollector()

	c.ActionExecuted("archive", true)
	c.ActionExecuted("archive", true)
	c.ActionExecuted("archive", false)
	c.ActionExecuted("move", true)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.actionsExecuted.WithLabelValues("archive", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.actionsExecuted.WithLabelValues("archive", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.actionsExecuted.WithLabelValues("move", "success")))
}
