// Package metrics exposes prometheus counters for batch triage outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sortdesk/mailsift-backend/internal/rules"
)

// Collector implements rules.Observer over a prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	messagesProcessed prometheus.Counter
	messagesMatched   prometheus.Counter
	messagesFailed    prometheus.Counter
	actionsExecuted   *prometheus.CounterVec
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		messagesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "mailsift_messages_processed_total",
			Help: "Messages evaluated by batch triage runs.",
		}),
		messagesMatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "mailsift_messages_matched_total",
			Help: "Messages whose rule set matched and had at least one action applied.",
		}),
		messagesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "mailsift_messages_failed_total",
			Help: "Messages that errored during batch processing.",
		}),
		actionsExecuted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mailsift_actions_executed_total",
			Help: "Actions executed against the mail transport.",
		}, []string{"action", "outcome"}),
	}
}

// BatchCompleted records one batch run's aggregate counters.
func (c *Collector) BatchCompleted(stats rules.Stats) {
	c.messagesProcessed.Add(float64(stats.Processed))
	c.messagesMatched.Add(float64(stats.Matched))
	c.messagesFailed.Add(float64(stats.Failed))
}

// ActionExecuted records one action attempt.
func (c *Collector) ActionExecuted(actionType string, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	c.actionsExecuted.WithLabelValues(actionType, outcome).Inc()
}

// Handler returns the exposition endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
