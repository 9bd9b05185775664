package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	MetricVotesSubmitted      = "peervote_votes_submitted_total"
	MetricVotesRejected       = "peervote_votes_rejected_total"
	MetricTokenResolution     = "peervote_token_resolution_seconds"
	MetricTokensIssued        = "peervote_tokens_issued_total"
	MetricHTTPRequestDuration = "peervote_http_request_duration_seconds"
)

// Token kinds used as label values.
const (
	KindVoter     = "voter"
	KindCandidate = "candidate"
)

// MetricService methods are no-ops on a nil receiver.
type MetricService struct {
	registry *prometheus.Registry

	votesSubmitted  prometheus.Counter
	votesRejected   *prometheus.CounterVec
	tokenResolution *prometheus.HistogramVec
	tokensIssued    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// NewMetricService registers every collector on a private registry, so more
// than one service can live in the same process.
func NewMetricService() *MetricService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ms := &MetricService{
		registry: registry,
		votesSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricVotesSubmitted,
			Help: "Votes accepted by the ledger",
		}),
		votesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricVotesRejected,
			Help: "Votes rejected, by reason",
		}, []string{"reason"}),
		tokenResolution: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricTokenResolution,
			Help:    "Time spent resolving a plaintext token",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"kind"}),
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricTokensIssued,
			Help: "Tokens issued by admins",
		}, []string{"kind"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: MetricHTTPRequestDuration,
			Help: "HTTP request latency",
		}, []string{"method", "route", "status"}),
	}
	registry.MustRegister(
		ms.votesSubmitted,
		ms.votesRejected,
		ms.tokenResolution,
		ms.tokensIssued,
		ms.httpDuration,
	)
	return ms
}

func (m *MetricService) IncVoteSubmitted() {
	if m == nil {
		return
	}
	m.votesSubmitted.Inc()
}

func (m *MetricService) IncVoteRejected(reason string) {
	if m == nil {
		return
	}
	m.votesRejected.WithLabelValues(reason).Inc()
}

func (m *MetricService) ObserveTokenResolution(kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.tokenResolution.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *MetricService) IncTokensIssued(kind string, n int) {
	if m == nil {
		return
	}
	m.tokensIssued.WithLabelValues(kind).Add(float64(n))
}

func (m *MetricService) ObserveHTTPRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

func (m *MetricService) Registry() *prometheus.Registry {
	return m.registry
}

func (m *MetricService) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
