package event

import (
	"github.com/shortontech/devprint/internal/detection"
	"github.com/shortontech/devprint/internal/fingerprint"
)

// TypeCapture is the only event type emitted today.
const TypeCapture = "fingerprint.capture"

// Event is the envelope fanned out to sinks for every accepted capture.
// Optional fields are omitted when empty.
type Event struct {
	EventID string `json:"event_id"`
	TS      string `json:"ts"` // RFC3339Nano, UTC
	Type    string `json:"type"`

	RecordID    string                    `json:"record_id,omitempty"`
	Fingerprint FingerprintInfo           `json:"fingerprint"`
	Device      fingerprint.DeviceSummary `json:"device"`
	Matches     []MatchInfo               `json:"matches,omitempty"`
	Server      ServerMeta                `json:"server"`
}

// FingerprintInfo is the part of a capture downstream consumers key on.
// Raw components stay in the store.
type FingerprintInfo struct {
	Hash         string                `json:"hash"`
	ClientHash   string                `json:"client_hash,omitempty"`
	HashVerified bool                  `json:"hash_verified"`
	Confidence   int                   `json:"confidence"`
	Breakdown    fingerprint.Breakdown `json:"breakdown"`
	GeneratedAt  string                `json:"generated_at,omitempty"`
	// Statuses holds the sentinel of each probe that did not return a value.
	Statuses map[fingerprint.Category]string `json:"statuses,omitempty"`
}

type MatchInfo struct {
	RecordID           string                 `json:"record_id"`
	Hash               string                 `json:"hash"`
	Similarity         int                    `json:"similarity"`
	MatchingComponents []fingerprint.Category `json:"matching_components"`
}

type ServerMeta struct {
	IPHash    string            `json:"ip_hash,omitempty"` // salted hash of the client IP
	Detection detection.Signals `json:"detection"`
	Flags     []string          `json:"flags,omitempty"`
}
