package httpx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/rs/zerolog/log"
)

// HMACHeader carries the hex HMAC-SHA256 of the raw capture body.
const HMACHeader = "X-Devprint-HMAC"

// HMACAuth verifies capture bodies signed with a shared secret.
type HMACAuth struct {
	secret      []byte
	requireHMAC bool
}

func NewHMACAuth(secret string, requireHMAC bool) *HMACAuth {
	return &HMACAuth{secret: []byte(secret), requireHMAC: requireHMAC}
}

// Sign returns the signature a client sends in HMACHeader for payload.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC checks the request signature. An unsigned request passes unless
// signatures are required; a present but wrong signature always fails.
func (h *HMACAuth) VerifyHMAC(r *http.Request, payload []byte) bool {
	provided := r.Header.Get(HMACHeader)
	if provided == "" {
		if h.requireHMAC {
			log.Ctx(r.Context()).Warn().Msg("hmac verification failed: missing " + HMACHeader)
			return false
		}
		return true
	}
	if len(h.secret) == 0 {
		log.Ctx(r.Context()).Warn().Msg("hmac verification failed: no secret configured")
		return false
	}
	expected := Sign(string(h.secret), payload)
	if !hmac.Equal([]byte(provided), []byte(expected)) {
		log.Ctx(r.Context()).Warn().Msg("hmac verification failed: signature mismatch")
		return false
	}
	return true
}
