// Package metrics exposes Prometheus counters for conversations and the journal.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests and multiple servers in one
// process never collide on metric names. A nil *Collector records nothing.
type Collector struct {
	registry *prometheus.Registry

	commandsTotal       *prometheus.CounterVec
	commandDuration     *prometheus.HistogramVec
	recordsFinalized    *prometheus.CounterVec
	persistenceFailures *prometheus.CounterVec
	feedbackTotal       *prometheus.CounterVec
	activeSessions      prometheus.Gauge
}

// NewCollector registers every metric under namespace (default "intake").
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "intake"
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c := &Collector{registry: reg}

	c.commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Conversation commands dispatched, by command, persona and reply status",
		},
		[]string{"command", "persona", "status"},
	)
	c.commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Time spent handling a conversation command",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"command"},
	)
	c.recordsFinalized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_finalized_total",
			Help:      "Records persisted to the journal",
		},
		[]string{"persona", "forced"},
	)
	c.persistenceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_failures_total",
			Help:      "Journal appends that failed",
		},
		[]string{"persona"},
	)
	c.feedbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_total",
			Help:      "Mastery and follow-through feedback events",
		},
		[]string{"target", "result"},
	)
	c.activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Conversations currently held in memory",
	})

	reg.MustRegister(
		c.commandsTotal,
		c.commandDuration,
		c.recordsFinalized,
		c.persistenceFailures,
		c.feedbackTotal,
		c.activeSessions,
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordCommand counts one dispatched command.
func (c *Collector) RecordCommand(command, persona, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.commandsTotal.WithLabelValues(command, persona, status).Inc()
	c.commandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// RecordFinalized counts one persisted record.
func (c *Collector) RecordFinalized(persona string, forced bool) {
	if c == nil {
		return
	}
	f := "false"
	if forced {
		f = "true"
	}
	c.recordsFinalized.WithLabelValues(persona, f).Inc()
}

// RecordPersistenceFailure counts one failed journal append.
func (c *Collector) RecordPersistenceFailure(persona string) {
	if c == nil {
		return
	}
	c.persistenceFailures.WithLabelValues(persona).Inc()
}

// RecordFeedback counts one feedback event.
func (c *Collector) RecordFeedback(target string, positive bool) {
	if c == nil {
		return
	}
	result := "negative"
	if positive {
		result = "positive"
	}
	c.feedbackTotal.WithLabelValues(target, result).Inc()
}

// SetActiveSessions reports the number of live conversations.
func (c *Collector) SetActiveSessions(n int) {
	if c == nil {
		return
	}
	c.activeSessions.Set(float64(n))
}
