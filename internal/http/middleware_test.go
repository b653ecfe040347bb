package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shortontech/devprint/internal/metrics"
)

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	var ctxLogged bool
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside")
		ctxLogged = true
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodPost, "/fingerprint/capture", nil)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if !ctxLogged {
		t.Fatal("handler not called")
	}
	if w.Header().Get("X-Request-ID") != "req-42" {
		t.Errorf("request id header = %q", w.Header().Get("X-Request-ID"))
	}

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %s", len(lines), buf.String())
	}
	var access struct {
		RequestID string `json:"request_id"`
		Method    string `json:"method"`
		Path      string `json:"path"`
		Status    int    `json:"status"`
		UA        string `json:"ua"`
	}
	if err := json.Unmarshal(lines[1], &access); err != nil {
		t.Fatal(err)
	}
	if access.RequestID != "req-42" || access.Method != "POST" || access.Path != "/fingerprint/capture" ||
		access.Status != http.StatusTeapot || access.UA != "test-agent" {
		t.Errorf("access log = %+v", access)
	}

	var inner struct {
		RequestID string `json:"request_id"`
	}
	_ = json.Unmarshal(lines[0], &inner)
	if inner.RequestID != "req-42" {
		t.Errorf("context logger should carry request id, got %q", inner.RequestID)
	}
}

func TestRequestLoggerGeneratesID(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if len(w.Header().Get("X-Request-ID")) != 36 {
		t.Errorf("expected generated uuid, got %q", w.Header().Get("X-Request-ID"))
	}
}

func TestResponseWriter(t *testing.T) {
	recorder := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: recorder, statusCode: http.StatusOK}

	rw.Header().Set("X-Test", "value")
	rw.WriteHeader(http.StatusCreated)

	if rw.statusCode != http.StatusCreated || recorder.Code != http.StatusCreated {
		t.Errorf("status = %d / %d, want 201", rw.statusCode, recorder.Code)
	}
	if recorder.Header().Get("X-Test") != "value" {
		t.Error("header not passed through")
	}
}

func TestMetricsMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	t.Run("nil metrics passes through", func(t *testing.T) {
		w := httptest.NewRecorder()
		MetricsMiddleware(nil)(ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if w.Code != http.StatusNoContent {
			t.Errorf("status = %d", w.Code)
		}
	})

	t.Run("records known and unknown endpoints", func(t *testing.T) {
		m := metrics.NewMetrics(prometheus.NewRegistry())
		h := MetricsMiddleware(m)(ok)
		for _, p := range []string{"/healthz", "/wp-admin", "/fingerprint/records/abc"} {
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
		}
		for _, label := range []string{"/healthz", "other", "/fingerprint/records/{id}"} {
			if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues(label, "GET", "204")); got != 1 {
				t.Errorf("requests{%s} = %v, want 1", label, got)
			}
		}
	})
}

func TestCors(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name    string
		allowed []string
		origin  string
		method  string
		want    string
		status  int
	}{
		{"wildcard", []string{"*"}, "https://a.example", http.MethodPost, "*", http.StatusOK},
		{"listed origin echoed", []string{"https://a.example"}, "https://a.example", http.MethodPost, "https://a.example", http.StatusOK},
		{"unlisted origin", []string{"https://a.example"}, "https://evil.example", http.MethodPost, "", http.StatusOK},
		{"preflight", []string{"*"}, "https://a.example", http.MethodOptions, "*", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/fingerprint/capture", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			cors(tt.allowed)(next).ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("allow-origin = %q, want %q", got, tt.want)
			}
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if w.Header().Get("Access-Control-Allow-Headers") != "Content-Type, "+HMACHeader {
				t.Errorf("allow-headers = %q", w.Header().Get("Access-Control-Allow-Headers"))
			}
		})
	}
}
