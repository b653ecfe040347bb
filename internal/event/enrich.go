package event

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shortontech/devprint/internal/fingerprint"
	"github.com/shortontech/devprint/pkg/config"
)

// Server flags.
const (
	FlagHashMismatch = "hash_mismatch"
	FlagAutomation   = "automation"
	FlagInconsistent = "inconsistent"
)

// NewCapture builds the envelope for a verified fingerprint. clientHash is
// the hash the client submitted, if any.
func NewCapture(fp fingerprint.DeviceFingerprint, clientHash string, now time.Time) Event {
	e := Event{
		EventID: uuid.NewString(),
		TS:      now.UTC().Format(time.RFC3339Nano),
		Type:    TypeCapture,
		Fingerprint: FingerprintInfo{
			Hash:         fp.Hash,
			ClientHash:   clientHash,
			HashVerified: clientHash == "" || clientHash == fp.Hash,
			Confidence:   fp.Confidence,
			Breakdown:    fingerprint.Score(fp.Components),
			Statuses:     sentinelStatuses(fp.Components),
		},
		Device: fingerprint.Summarize(fp.Components.Browser.UserAgent),
	}
	if !fp.GeneratedAt.IsZero() {
		e.Fingerprint.GeneratedAt = fp.GeneratedAt.UTC().Format(time.RFC3339Nano)
	}
	if !e.Fingerprint.HashVerified {
		e.Server.Flags = append(e.Server.Flags, FlagHashMismatch)
	}
	return e
}

func sentinelStatuses(c fingerprint.Components) map[fingerprint.Category]string {
	out := map[fingerprint.Category]string{}
	if !c.Canvas.Hash.OK() {
		out[fingerprint.CategoryCanvas] = c.Canvas.Hash.Status.String()
	}
	if !c.WebGL.UnmaskedRenderer.OK() {
		out[fingerprint.CategoryWebGL] = c.WebGL.UnmaskedRenderer.Status.String()
	}
	if !c.Audio.Hash.OK() {
		out[fingerprint.CategoryAudio] = c.Audio.Hash.Status.String()
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// AddMatch records one ranked match against a stored record.
func (e *Event) AddMatch(recordID string, m fingerprint.Match) {
	e.Matches = append(e.Matches, MatchInfo{
		RecordID:           recordID,
		Hash:               m.Fingerprint.Hash,
		Similarity:         m.Similarity,
		MatchingComponents: m.MatchingComponents,
	})
}

// EnrichServerFields fills the server-observed fields of e from r.
func EnrichServerFields(r *http.Request, e *Event, cfg config.Config) {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.TS == "" {
		e.TS = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if e.Type == "" {
		e.Type = TypeCapture
	}
	e.Server.IPHash = HashIP(ClientIP(r, cfg.Server.TrustProxy), cfg.Server.IPHashSecret)

	d := e.Server.Detection
	if len(d.Headers.AutomationHeaders) > 0 || len(d.UserAgent.AutomationKeywords) > 0 {
		e.Server.Flags = appendOnce(e.Server.Flags, FlagAutomation)
	}
	if len(d.Consistency) > 0 {
		e.Server.Flags = appendOnce(e.Server.Flags, FlagInconsistent)
	}
}

func appendOnce(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}

// ClientIP returns the caller address. Forwarding headers are honoured only
// when trustProxy is set.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
				return ip
			}
		}
		if xrip := strings.TrimSpace(r.Header.Get("X-Real-IP")); xrip != "" {
			return xrip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

// HashIP returns a salted HMAC-SHA256 of ip, truncated to 16 bytes. An empty
// secret disables IP recording and yields "".
func HashIP(ip, secret string) string {
	if secret == "" || ip == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ip))
	return hex.EncodeToString(mac.Sum(nil)[:16])
}
