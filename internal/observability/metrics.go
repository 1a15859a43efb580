package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yungbote/rentalchat-backend/internal/platform/envutil"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
)

// Auto-reply outcomes recorded by ObserveAutoReply.
const (
	AutoReplySent       = "sent"
	AutoReplyFallback   = "fallback"
	AutoReplySuppressed = "suppressed"
	AutoReplyNoOwner    = "no_owner"
	AutoReplyFailed     = "failed"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	messages        *prometheus.CounterVec
	autoReplies     *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
	threadsCreated  prometheus.Counter
	sseClients      prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics set once; later calls return it.
func Init(log *logger.Logger) *Metrics {
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

// New builds an isolated metrics set on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentalchat_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rentalchat_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 1.5, 2.5, 5},
		}, []string{"method", "route"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rentalchat_http_inflight_requests",
			Help: "In-flight HTTP requests.",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentalchat_messages_total",
			Help: "Stored chat messages by origin (human, auto_reply).",
		}, []string{"origin"}),
		autoReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentalchat_auto_replies_total",
			Help: "Auto-reply decisions by outcome.",
		}, []string{"outcome"}),
		publishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentalchat_publish_failures_total",
			Help: "Real-time delivery failures by event.",
		}, []string{"event"}),
		threadsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentalchat_threads_created_total",
			Help: "Threads created by find-or-create.",
		}),
		sseClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rentalchat_sse_clients",
			Help: "Connected thread stream clients.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.messages,
		m.autoReplies,
		m.publishFailures,
		m.threadsCreated,
		m.sseClients,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) IncMessage(origin string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(origin).Inc()
}

func (m *Metrics) ObserveAutoReply(outcome string) {
	if m == nil {
		return
	}
	m.autoReplies.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncPublishFailure(event string) {
	if m == nil {
		return
	}
	m.publishFailures.WithLabelValues(event).Inc()
}

func (m *Metrics) IncThreadCreated() {
	if m == nil {
		return
	}
	m.threadsCreated.Inc()
}

func (m *Metrics) SSEClientConnected() {
	if m == nil {
		return
	}
	m.sseClients.Inc()
}

func (m *Metrics) SSEClientDisconnected() {
	if m == nil {
		return
	}
	m.sseClients.Dec()
}
