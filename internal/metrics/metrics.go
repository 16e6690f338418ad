// Package metrics exposes chat service counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pollchat"

// Metrics implements chat.Observer.
type Metrics struct {
	registry    *prometheus.Registry
	posted      prometheus.Counter
	polls       prometheus.Counter
	evicted     prometheus.Counter
	activeUsers prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		posted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_posted_total",
			Help:      "Messages appended to the log.",
		}),
		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Poll snapshots served.",
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "presence_evicted_total",
			Help:      "Stale presence entries cleared by the janitor.",
		}),
		activeUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_users",
			Help:      "Active users reported by the most recent poll.",
		}),
	}
	m.registry.MustRegister(
		m.posted, m.polls, m.evicted, m.activeUsers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) MessagePosted() { m.posted.Inc() }

func (m *Metrics) PollServed(activeUsers int) {
	m.polls.Inc()
	m.activeUsers.Set(float64(activeUsers))
}

func (m *Metrics) PresenceEvicted(n int) { m.evicted.Add(float64(n)) }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
