// Package metrics holds the Prometheus collectors for the portfolio service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DraftAttempts counts generation attempts.
	// Labels: result (success, error, empty)
	DraftAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "drafting",
			Name:      "attempts_total",
			Help:      "Total number of description generation attempts",
		},
		[]string{"result"},
	)

	// DraftDuration tracks end-to-end drafting latency including retries.
	DraftDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "portfolio",
			Subsystem: "drafting",
			Name:      "duration_seconds",
			Help:      "Duration of description drafting including retries",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// Requeries counts live view reconciliations.
	// Labels: result (success, error, stale)
	Requeries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "projects",
			Name:      "requeries_total",
			Help:      "Total number of project list re-queries",
		},
		[]string{"result"},
	)

	// Mutations counts project writes.
	// Labels: op (create, update, delete), result (success, error)
	Mutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portfolio",
			Subsystem: "projects",
			Name:      "mutations_total",
			Help:      "Total number of project mutations",
		},
		[]string{"op", "result"},
	)

	// ActiveViews is the number of live project views currently subscribed.
	ActiveViews = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "portfolio",
			Subsystem: "projects",
			Name:      "active_views",
			Help:      "Number of live project views holding a subscription",
		},
	)
)

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordMutation records a project write.
func RecordMutation(op string, err error) {
	Mutations.WithLabelValues(op, resultLabel(err)).Inc()
}

// RecordDraft records a finished drafting call.
func RecordDraft(start time.Time) {
	DraftDuration.Observe(time.Since(start).Seconds())
}
