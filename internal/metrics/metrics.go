package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/shortontech/devprint/internal/fingerprint"
)

// Metrics holds the Prometheus collectors for devprint. All methods are safe
// on a nil receiver so callers can run without metrics.
type Metrics struct {
	Captures        *prometheus.CounterVec
	SignalStatus    *prometheus.CounterVec
	Confidence      prometheus.Histogram
	MatchSimilarity prometheus.Histogram
	SinkEvents      *prometheus.CounterVec
	SinkErrors      *prometheus.CounterVec
	StoreErrors     *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

var percentBuckets = prometheus.LinearBuckets(10, 10, 10)

// NewMetrics creates the collectors and registers them with reg. Pass
// prometheus.NewRegistry() in tests.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devprint_captures_total",
			Help: "Fingerprint captures by outcome",
		}, []string{"outcome"}),
		SignalStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devprint_signal_status_total",
			Help: "Probe results per signal category and status",
		}, []string{"category", "status"}),
		Confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "devprint_confidence",
			Help:    "Confidence of accepted captures",
			Buckets: percentBuckets,
		}),
		MatchSimilarity: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "devprint_match_similarity",
			Help:    "Similarity of stored fingerprints reported as matches",
			Buckets: percentBuckets,
		}),
		SinkEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devprint_sink_events_total",
			Help: "Events handed to each sink",
		}, []string{"sink"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devprint_sink_errors_total",
			Help: "Errors writing to a sink",
		}, []string{"sink", "error_type"}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devprint_store_errors_total",
			Help: "Fingerprint store failures by operation",
		}, []string{"op"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devprint_http_requests_total",
			Help: "HTTP requests by endpoint and status",
		}, []string{"endpoint", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "devprint_http_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"endpoint", "method"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.Captures, m.SignalStatus, m.Confidence, m.MatchSimilarity,
		m.SinkEvents, m.SinkErrors, m.StoreErrors, m.HTTPRequests, m.HTTPDuration,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveCapture records an accepted capture and the status of each probed
// signal.
func (m *Metrics) ObserveCapture(fp fingerprint.DeviceFingerprint, outcome string) {
	if m == nil {
		return
	}
	m.Captures.WithLabelValues(outcome).Inc()
	m.Confidence.Observe(float64(fp.Confidence))
	c := fp.Components
	for cat, r := range map[fingerprint.Category]fingerprint.Reading{
		fingerprint.CategoryCanvas: c.Canvas.Hash,
		fingerprint.CategoryWebGL:  c.WebGL.UnmaskedRenderer,
		fingerprint.CategoryAudio:  c.Audio.Hash,
	} {
		m.SignalStatus.WithLabelValues(string(cat), r.Status.String()).Inc()
	}
}

func (m *Metrics) IncrementCaptures(outcome string) {
	if m == nil {
		return
	}
	m.Captures.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveMatch(similarity int) {
	if m == nil {
		return
	}
	m.MatchSimilarity.Observe(float64(similarity))
}

func (m *Metrics) IncrementSinkEvents(sink string) {
	if m == nil {
		return
	}
	m.SinkEvents.WithLabelValues(sink).Inc()
}

func (m *Metrics) IncrementSinkErrors(sink, errorType string) {
	if m == nil {
		return
	}
	m.SinkErrors.WithLabelValues(sink, errorType).Inc()
}

func (m *Metrics) IncrementStoreErrors(op string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) ObserveHTTP(endpoint, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(endpoint, method).Observe(d.Seconds())
}

// Server exposes /metrics on its own listener, away from the public API.
type Server struct {
	server  *http.Server
	enabled bool
}

func NewServer(addr string, enabled bool, m *Metrics) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return &Server{
		enabled: enabled,
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start serves in the background until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	if !s.enabled {
		log.Ctx(ctx).Info().Msg("metrics server disabled")
		return nil
	}
	go func() {
		log.Info().Str("addr", s.server.Addr).Msg("metrics server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if !s.enabled {
		return nil
	}
	return s.server.Shutdown(ctx)
}
