// Package metrics holds the process-wide Prometheus collectors. They are
// registered on the default registry and served by the keep-alive server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Ticks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spawnbot_ticks_total",
		Help: "Notification scheduler ticks evaluated.",
	})
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "spawnbot_tick_duration_seconds",
		Help:    "Wall time of one scheduler tick, including alert delivery.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	})
	Alerts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spawnbot_alerts_total",
		Help: "Spawn alerts by result; discarded means the entity changed during delivery.",
	}, []string{"result"})
	Resets = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spawnbot_resets_total",
		Help: "Reset reports accepted, by source (now or manual).",
	}, []string{"source"})
	Saves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spawnbot_state_saves_total",
		Help: "State persistence attempts by result.",
	}, []string{"result"})
	Commands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spawnbot_commands_total",
		Help: "Chat commands handled, by command and result.",
	}, []string{"command", "result"})
	TrackedKnown = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spawnbot_entities_with_reset",
		Help: "Variable-interval entities with a known reset.",
	})
)
