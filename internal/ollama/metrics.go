package ollama

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for backendRequestsTotal.
const (
	outcomeOK          = "ok"
	outcomeStatus      = "status_error"
	outcomeTransport   = "transport_error"
	outcomeUnavailable = "model_unavailable"
	outcomeCanceled    = "canceled"
)

var (
	backendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ollamachat",
			Subsystem: "client",
			Name:      "backend_requests_total",
			Help:      "Total number of calls made to the inference backend",
		},
		[]string{"endpoint", "outcome"},
	)

	generateDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ollamachat",
			Subsystem: "client",
			Name:      "generate_duration_seconds",
			Help:      "Wall-clock duration of generation calls in seconds",
			Buckets:   []float64{.25, .5, 1, 2.5, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"mode"},
	)

	timeToFirstToken = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ollamachat",
			Subsystem: "client",
			Name:      "time_to_first_token_seconds",
			Help:      "Time from stream open to the first emitted token",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	streamedTokensTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ollamachat",
			Subsystem: "client",
			Name:      "streamed_tokens_total",
			Help:      "Total number of tokens emitted by streaming calls",
		},
	)

	malformedFragmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ollamachat",
			Subsystem: "client",
			Name:      "malformed_fragments_total",
			Help:      "Response fragments dropped because they did not parse",
		},
		[]string{"mode"},
	)
)

func init() {
	prometheus.MustRegister(backendRequestsTotal, generateDuration, timeToFirstToken, streamedTokensTotal, malformedFragmentsTotal)
}

// observeRequest counts one backend call by endpoint and outcome.
func observeRequest(ctx context.Context, endpoint string, err error) {
	backendRequestsTotal.WithLabelValues(endpoint, outcomeOf(ctx, err)).Inc()
}

func outcomeOf(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case IsModelUnavailable(err):
		return outcomeUnavailable
	case IsBackendStatus(err):
		return outcomeStatus
	case isCanceled(ctx, err):
		return outcomeCanceled
	default:
		return outcomeTransport
	}
}
