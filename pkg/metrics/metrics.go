// Package metrics provides Prometheus instrumentation for threshold schemes.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all metrics of this module
	Namespace = "threshold"

	LabelStatus = "status"

	// Reconstruction outcomes
	StatusSuccess      = "success"
	StatusInsufficient = "insufficient"
	StatusInconsistent = "inconsistent"
	StatusError        = "error"
)

// Metrics groups the collectors of one registry.
type Metrics struct {
	SharesRegistered       prometheus.Counter
	Reconstructions        *prometheus.CounterVec
	CorruptedShares        prometheus.Counter
	ReconstructionDuration prometheus.Histogram
}

// New registers the collectors with reg. Passing nil uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		SharesRegistered: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "shares_registered_total",
			Help:      "Total number of shares accepted for registration",
		}),
		Reconstructions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "reconstructions_total",
			Help:      "Total number of reconstruction attempts by status",
		}, []string{LabelStatus}),
		CorruptedShares: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "corrupted_shares_total",
			Help:      "Total number of shares that failed commitment verification",
		}),
		ReconstructionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "reconstruction_duration_seconds",
			Help:      "Duration of secret reconstruction in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),
	}
}

// ShareRegistered counts one accepted share.
func (m *Metrics) ShareRegistered() {
	if m == nil {
		return
	}
	m.SharesRegistered.Inc()
}

// SharesCorrupted counts shares that failed verification.
func (m *Metrics) SharesCorrupted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CorruptedShares.Add(float64(n))
}

// Reconstruction records the outcome and duration of a reconstruction.
func (m *Metrics) Reconstruction(status string, started time.Time) {
	if m == nil {
		return
	}
	m.Reconstructions.WithLabelValues(status).Inc()
	m.ReconstructionDuration.Observe(time.Since(started).Seconds())
}
