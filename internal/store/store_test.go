package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortontech/devprint/internal/fingerprint"
	"github.com/shortontech/devprint/pkg/config"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func record(id, hash string, offset time.Duration) Record {
	return Record{
		ID: id,
		Fingerprint: fingerprint.DeviceFingerprint{
			Hash:       hash,
			Confidence: 85,
			Components: fingerprint.Components{
				Canvas:   fingerprint.CanvasSignal{Hash: fingerprint.Value("canvas-" + hash)},
				WebGL:    fingerprint.GraphicsSignal{UnmaskedRenderer: fingerprint.Unsupported()},
				Audio:    fingerprint.AudioSignal{Hash: fingerprint.TimedOut()},
				Timezone: fingerprint.TimezoneSignal{Timezone: "UTC"},
				Fonts:    []string{"Arial"},
			},
			GeneratedAt: baseTime.Add(offset),
		},
		ReceivedAt: baseTime.Add(offset),
	}
}

func TestNewRecord(t *testing.T) {
	fp := fingerprint.DeviceFingerprint{
		Hash: "h",
		Components: fingerprint.Components{Browser: fingerprint.PlatformSignal{
			UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
		}},
	}
	r := NewRecord(fp, "iphash", baseTime.In(time.FixedZone("X", 7200)))

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "iphash", r.IPHash)
	assert.Equal(t, time.UTC, r.ReceivedAt.Location())
	assert.True(t, r.Summary.IsMobile)
	assert.Equal(t, "iOS", r.Summary.OS)
}

func TestFingerprints(t *testing.T) {
	fps := Fingerprints([]Record{record("a", "h1", 0), record("b", "h2", time.Second)})
	require.Len(t, fps, 2)
	assert.Equal(t, "h1", fps[0].Hash)
	assert.Equal(t, "h2", fps[1].Hash)
}

func TestOpenMemoryAndUnknownDriver(t *testing.T) {
	s, err := Open(context.Background(), config.StoreConfig{Driver: "memory", MemoryCap: 3})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	_, err = Open(context.Background(), config.StoreConfig{Driver: "cassandra"})
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(3)

	for i, h := range []string{"h1", "h2", "h1"} {
		require.NoError(t, m.Save(ctx, record(fmt.Sprintf("r%d", i), h, time.Duration(i)*time.Second)))
	}

	t.Run("get", func(t *testing.T) {
		r, err := m.Get(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "h2", r.Fingerprint.Hash)

		_, err = m.Get(ctx, "missing")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("find by hash newest first", func(t *testing.T) {
		rs, err := m.FindByHash(ctx, "h1")
		require.NoError(t, err)
		require.Len(t, rs, 2)
		assert.Equal(t, "r2", rs[0].ID)
		assert.Equal(t, "r0", rs[1].ID)
	})

	t.Run("recent", func(t *testing.T) {
		rs, err := m.Recent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, rs, 2)
		assert.Equal(t, "r2", rs[0].ID)
		assert.Equal(t, "r1", rs[1].ID)

		all, err := m.Recent(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("evicts oldest when full", func(t *testing.T) {
		require.NoError(t, m.Save(ctx, record("r3", "h3", 3*time.Second)))
		assert.Equal(t, 3, m.Len())

		_, err := m.Get(ctx, "r0")
		assert.True(t, errors.Is(err, ErrNotFound))

		rs, err := m.FindByHash(ctx, "h1")
		require.NoError(t, err)
		require.Len(t, rs, 1)
		assert.Equal(t, "r2", rs[0].ID)

		recent, err := m.Recent(ctx, 10)
		require.NoError(t, err)
		ids := []string{recent[0].ID, recent[1].ID, recent[2].ID}
		assert.Equal(t, []string{"r3", "r2", "r1"}, ids)
	})

	assert.NoError(t, m.Ping(ctx))
	assert.NoError(t, m.Close())
}

func TestMemoryEvictionDropsEmptyHashBucket(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(1)
	require.NoError(t, m.Save(ctx, record("a", "h1", 0)))
	require.NoError(t, m.Save(ctx, record("b", "h2", time.Second)))

	rs, err := m.FindByHash(ctx, "h1")
	require.NoError(t, err)
	assert.Empty(t, rs)
	assert.NotContains(t, m.byHash, "h1")
}
