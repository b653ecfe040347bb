// Package store persists captured fingerprints so later captures can be
// ranked against them.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shortontech/devprint/internal/fingerprint"
	"github.com/shortontech/devprint/pkg/config"
)

var ErrNotFound = errors.New("store: record not found")

// Record is one accepted capture.
type Record struct {
	ID          string                        `json:"id"`
	Fingerprint fingerprint.DeviceFingerprint `json:"fingerprint"`
	Summary     fingerprint.DeviceSummary     `json:"summary"`
	IPHash      string                        `json:"ipHash,omitempty"`
	ReceivedAt  time.Time                     `json:"receivedAt"`
}

func NewRecord(fp fingerprint.DeviceFingerprint, ipHash string, now time.Time) Record {
	return Record{
		ID:          uuid.NewString(),
		Fingerprint: fp,
		Summary:     fingerprint.Summarize(fp.Components.Browser.UserAgent),
		IPHash:      ipHash,
		ReceivedAt:  now.UTC(),
	}
}

type Store interface {
	Save(ctx context.Context, r Record) error
	Get(ctx context.Context, id string) (Record, error)
	// FindByHash returns every record with the given hash, newest first.
	FindByHash(ctx context.Context, hash string) ([]Record, error)
	// Recent returns up to n records, newest first.
	Recent(ctx context.Context, n int) ([]Record, error)
	Ping(ctx context.Context) error
	Close() error
}

// Fingerprints projects records onto their fingerprints, for ranking.
func Fingerprints(records []Record) []fingerprint.DeviceFingerprint {
	out := make([]fingerprint.DeviceFingerprint, len(records))
	for i, r := range records {
		out[i] = r.Fingerprint
	}
	return out
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(cfg.MemoryCap), nil
	case "postgres":
		return OpenPostgres(ctx, cfg.PostgresDSN, cfg.PostgresTable)
	case "redis":
		return OpenRedis(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
