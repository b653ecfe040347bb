package httpx

import (
	"net/http"
	"time"

	"github.com/shortontech/devprint/pkg/config"
)

func NewMux(e Env) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", e.Healthz)
	mux.HandleFunc("/readyz", e.Readyz)
	mux.HandleFunc("/fingerprint/capture", e.Capture)
	mux.HandleFunc("/fingerprint/compare", e.Compare)
	mux.HandleFunc("GET /fingerprint/records/{id}", e.Record)

	return RequestLogger(MetricsMiddleware(e.Metrics)(cors(e.Cfg.Server.AllowedOrigins)(mux)))
}

// NewServer wraps h with the configured listen address and timeouts.
func NewServer(cfg config.ServerConfig, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
}
