package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shortontech/devprint/internal/detection"
	"github.com/shortontech/devprint/internal/event"
	"github.com/shortontech/devprint/internal/fingerprint"
	"github.com/shortontech/devprint/internal/metrics"
	"github.com/shortontech/devprint/internal/store"
	"github.com/shortontech/devprint/pkg/config"
)

// Env carries the dependencies of the HTTP handlers.
type Env struct {
	Cfg      config.Config
	Store    store.Store
	Emit     func(context.Context, event.Event) error // sink fan-out
	Metrics  *metrics.Metrics
	HMACAuth *HMACAuth
	Analyzer *detection.Analyzer
	Now      func() time.Time
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (e Env) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Readyz reports ready once the store answers a ping.
func (e Env) Readyz(w http.ResponseWriter, r *http.Request) {
	if e.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := e.Store.Ping(ctx); err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Msg("store not ready")
			writeError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// CaptureRequest is the body a client submits to /fingerprint/capture.
type CaptureRequest struct {
	Fingerprint fingerprint.DeviceFingerprint `json:"fingerprint"`
	// DeviceInfo is the client's own summary; the server derives its own
	// and flags disagreement.
	DeviceInfo *fingerprint.DeviceSummary `json:"deviceInfo,omitempty"`
}

type MatchResponse struct {
	ID                 string                 `json:"id"`
	Hash               string                 `json:"hash"`
	Similarity         int                    `json:"similarity"`
	MatchingComponents []fingerprint.Category `json:"matchingComponents"`
}

type CaptureResponse struct {
	ID           string                    `json:"id"`
	Hash         string                    `json:"hash"`
	Confidence   int                       `json:"confidence"`
	HashVerified bool                      `json:"hashVerified"`
	Summary      fingerprint.DeviceSummary `json:"summary"`
	Matches      []MatchResponse           `json:"matches"`
	Flags        []string                  `json:"flags,omitempty"`
}

func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, bool) {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "application/json") {
		writeError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
		return nil, false
	}
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return nil, false
	}
	return body, true
}

// Capture verifies a submitted fingerprint, ranks it against recent
// captures, stores it and emits a capture event.
func (e Env) Capture(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ctx := r.Context()
	logger := log.Ctx(ctx)

	body, ok := readBody(w, r, e.Cfg.Server.MaxBodyBytes)
	if !ok {
		e.Metrics.IncrementCaptures("rejected")
		return
	}
	if e.HMACAuth != nil && !e.HMACAuth.VerifyHMAC(r, body) {
		e.Metrics.IncrementCaptures("unauthorized")
		writeError(w, http.StatusUnauthorized, "invalid or missing HMAC signature")
		return
	}

	var req CaptureRequest
	if err := json.Unmarshal(body, &req); err != nil {
		e.Metrics.IncrementCaptures("rejected")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	now := e.now()
	generatedAt := req.Fingerprint.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = now
	}
	// Hash and confidence are recomputed, never trusted from the client.
	fp, err := fingerprint.Assemble(req.Fingerprint.Components, generatedAt)
	if err != nil {
		e.Metrics.IncrementCaptures("rejected")
		if errors.Is(err, fingerprint.ErrCaptureFailed) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	evt := event.NewCapture(fp, req.Fingerprint.Hash, now)
	ipHash := event.HashIP(event.ClientIP(r, e.Cfg.Server.TrustProxy), e.Cfg.Server.IPHashSecret)
	if e.Analyzer != nil {
		evt.Server.Detection = e.Analyzer.Analyze(ctx, r, body, ipHash, fp.Components)
	}
	if req.DeviceInfo != nil && detection.DeviceInfoMismatch(*req.DeviceInfo, evt.Device) {
		evt.Server.Detection.Consistency = append(evt.Server.Detection.Consistency, detection.FlagDeviceInfo)
	}

	var recent []store.Record
	if e.Store != nil {
		recent, err = e.Store.Recent(ctx, e.Cfg.Match.Window)
		if err != nil {
			e.Metrics.IncrementStoreErrors("recent")
			logger.Error().Err(err).Msg("load recent fingerprints")
			writeError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	matches := fingerprint.RankMatches(fp, store.Fingerprints(recent), e.Cfg.Match.MinSimilarity, e.Cfg.Match.Limit)

	rec := store.NewRecord(fp, ipHash, now)
	if e.Store != nil {
		if err := e.Store.Save(ctx, rec); err != nil {
			e.Metrics.IncrementStoreErrors("save")
			logger.Error().Err(err).Str("hash", fp.Hash).Msg("save fingerprint")
			writeError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}

	evt.RecordID = rec.ID
	resp := CaptureResponse{
		ID:           rec.ID,
		Hash:         fp.Hash,
		Confidence:   fp.Confidence,
		HashVerified: evt.Fingerprint.HashVerified,
		Summary:      evt.Device,
		Matches:      make([]MatchResponse, 0, len(matches)),
	}
	for _, m := range matches {
		id := recent[m.Index].ID
		evt.AddMatch(id, m)
		e.Metrics.ObserveMatch(m.Similarity)
		resp.Matches = append(resp.Matches, MatchResponse{
			ID:                 id,
			Hash:               m.Fingerprint.Hash,
			Similarity:         m.Similarity,
			MatchingComponents: m.MatchingComponents,
		})
	}

	event.EnrichServerFields(r, &evt, e.Cfg)
	resp.Flags = evt.Server.Flags
	if e.Emit != nil {
		if err := e.Emit(ctx, evt); err != nil {
			logger.Warn().Err(err).Str("event_id", evt.EventID).Msg("emit capture event")
		}
	}

	outcome := "accepted"
	if !evt.Fingerprint.HashVerified {
		outcome = "hash_mismatch"
	}
	e.Metrics.ObserveCapture(fp, outcome)
	logger.Info().
		Str("record_id", rec.ID).
		Str("hash", fp.Hash).
		Int("confidence", fp.Confidence).
		Int("matches", len(matches)).
		Strs("flags", evt.Server.Flags).
		Msg("fingerprint captured")

	writeJSON(w, http.StatusCreated, resp)
}

// CompareRequest is the body of /fingerprint/compare.
type CompareRequest struct {
	A fingerprint.DeviceFingerprint `json:"a"`
	B fingerprint.DeviceFingerprint `json:"b"`
}

func (e Env) Compare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	body, ok := readBody(w, r, e.Cfg.Server.MaxBodyBytes)
	if !ok {
		return
	}
	var req CompareRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	writeJSON(w, http.StatusOK, fingerprint.Compare(req.A, req.B))
}

// Record returns a stored capture by ID.
func (e Env) Record(w http.ResponseWriter, r *http.Request) {
	if e.Store == nil {
		writeError(w, http.StatusNotFound, "no store configured")
		return
	}
	rec, err := e.Store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		e.Metrics.IncrementStoreErrors("get")
		log.Ctx(r.Context()).Error().Err(err).Msg("load record")
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
