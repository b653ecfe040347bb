package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shortontech/devprint/internal/fingerprint"
)

func TestObserveCapture(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	fp := fingerprint.DeviceFingerprint{
		Confidence: 60,
		Components: fingerprint.Components{
			Canvas: fingerprint.CanvasSignal{Hash: fingerprint.Value("abc")},
			WebGL:  fingerprint.GraphicsSignal{UnmaskedRenderer: fingerprint.Unsupported()},
			Audio:  fingerprint.AudioSignal{Hash: fingerprint.TimedOut()},
		},
	}
	m.ObserveCapture(fp, "accepted")

	if got := testutil.ToFloat64(m.Captures.WithLabelValues("accepted")); got != 1 {
		t.Errorf("captures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SignalStatus.WithLabelValues("canvas", "ok")); got != 1 {
		t.Errorf("canvas ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SignalStatus.WithLabelValues("webgl", "unsupported")); got != 1 {
		t.Errorf("webgl unsupported = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SignalStatus.WithLabelValues("audio", "timeout")); got != 1 {
		t.Errorf("audio timeout = %v, want 1", got)
	}
}

func TestCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.IncrementSinkEvents("kafka")
	m.IncrementSinkEvents("kafka")
	m.IncrementSinkErrors("kafka", "produce")
	m.IncrementStoreErrors("save")
	m.IncrementCaptures("rejected")
	m.ObserveHTTP("/fingerprint/capture", http.MethodPost, 201, 15*time.Millisecond)
	m.ObserveMatch(85)

	if got := testutil.ToFloat64(m.SinkEvents.WithLabelValues("kafka")); got != 2 {
		t.Errorf("sink events = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.SinkErrors.WithLabelValues("kafka", "produce")); got != 1 {
		t.Errorf("sink errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StoreErrors.WithLabelValues("save")); got != 1 {
		t.Errorf("store errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/fingerprint/capture", "POST", "201")); got != 1 {
		t.Errorf("http requests = %v, want 1", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveCapture(fingerprint.DeviceFingerprint{}, "accepted")
	m.IncrementSinkErrors("log", "x")
	m.ObserveHTTP("/", http.MethodGet, 200, time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.IncrementCaptures("accepted")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), `devprint_captures_total{outcome="accepted"} 1`) {
		t.Errorf("metrics output missing capture counter:\n%s", body)
	}
}

func TestServerDisabled(t *testing.T) {
	s := NewServer("127.0.0.1:0", false, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
