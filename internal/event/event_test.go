package event

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shortontech/devprint/internal/detection"
	"github.com/shortontech/devprint/internal/fingerprint"
	"github.com/shortontech/devprint/pkg/config"
)

func sampleFingerprint() fingerprint.DeviceFingerprint {
	c := fingerprint.Components{
		Canvas:   fingerprint.CanvasSignal{Hash: fingerprint.Value("c0ffee")},
		WebGL:    fingerprint.GraphicsSignal{UnmaskedRenderer: fingerprint.Unsupported()},
		Audio:    fingerprint.AudioSignal{Hash: fingerprint.TimedOut(), SampleRate: 48000},
		Screen:   fingerprint.DisplaySignal{Width: 1440, Height: 900},
		Browser:  fingerprint.PlatformSignal{UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15", Platform: "MacIntel", HardwareConcurrency: 10},
		Timezone: fingerprint.TimezoneSignal{Timezone: "Europe/Paris"},
		Fonts:    []string{"Helvetica"},
	}
	fp, err := fingerprint.Assemble(c, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err != nil {
		panic(err)
	}
	return fp
}

func TestNewCapture(t *testing.T) {
	fp := sampleFingerprint()
	now := time.Date(2026, 1, 2, 3, 4, 6, 0, time.FixedZone("CET", 3600))

	t.Run("verified", func(t *testing.T) {
		e := NewCapture(fp, fp.Hash, now)

		if e.EventID == "" {
			t.Error("expected event id")
		}
		if e.Type != TypeCapture {
			t.Errorf("type = %q, want %q", e.Type, TypeCapture)
		}
		if e.TS != "2026-01-02T02:04:06Z" {
			t.Errorf("ts = %q, want UTC timestamp", e.TS)
		}
		if !e.Fingerprint.HashVerified {
			t.Error("expected hash to verify")
		}
		if len(e.Server.Flags) != 0 {
			t.Errorf("unexpected flags %v", e.Server.Flags)
		}
		if e.Fingerprint.Confidence != fp.Confidence || e.Fingerprint.Breakdown.Total() != fp.Confidence {
			t.Errorf("confidence mismatch: %+v", e.Fingerprint)
		}
		if e.Device.OS != "macOS" || e.Device.Browser != "Safari" || !e.Device.IsDesktop {
			t.Errorf("unexpected device summary %+v", e.Device)
		}
	})

	t.Run("statuses list sentinels only", func(t *testing.T) {
		e := NewCapture(fp, "", now)
		want := map[fingerprint.Category]string{
			fingerprint.CategoryWebGL: "unsupported",
			fingerprint.CategoryAudio: "timeout",
		}
		if len(e.Fingerprint.Statuses) != len(want) {
			t.Fatalf("statuses = %v, want %v", e.Fingerprint.Statuses, want)
		}
		for k, v := range want {
			if e.Fingerprint.Statuses[k] != v {
				t.Errorf("status[%s] = %q, want %q", k, e.Fingerprint.Statuses[k], v)
			}
		}
	})

	t.Run("mismatch is flagged", func(t *testing.T) {
		e := NewCapture(fp, "deadbeef", now)
		if e.Fingerprint.HashVerified {
			t.Error("expected mismatch")
		}
		if len(e.Server.Flags) != 1 || e.Server.Flags[0] != FlagHashMismatch {
			t.Errorf("flags = %v", e.Server.Flags)
		}
	})
}

func TestAddMatch(t *testing.T) {
	fp := sampleFingerprint()
	e := NewCapture(fp, "", time.Now())
	e.AddMatch("rec-1", fingerprint.Match{
		Fingerprint: fp,
		Comparison:  fingerprint.Compare(fp, fp),
	})
	if len(e.Matches) != 1 || e.Matches[0].Similarity != 100 || e.Matches[0].RecordID != "rec-1" {
		t.Errorf("unexpected matches %+v", e.Matches)
	}
}

func TestEnrichServerFields(t *testing.T) {
	cfg := config.Config{Server: config.ServerConfig{IPHashSecret: "pepper"}}

	t.Run("hashes client ip", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/fingerprint/capture", nil)
		req.RemoteAddr = "198.51.100.7:5555"

		var e Event
		EnrichServerFields(req, &e, cfg)

		if e.Server.IPHash != HashIP("198.51.100.7", "pepper") {
			t.Errorf("ip hash = %q", e.Server.IPHash)
		}
		if len(e.Server.IPHash) != 32 {
			t.Errorf("expected 32 hex chars, got %d", len(e.Server.IPHash))
		}
		if e.EventID == "" || e.TS == "" || e.Type != TypeCapture {
			t.Errorf("expected defaults to be filled: %+v", e)
		}
	})

	t.Run("no secret means no ip", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		var e Event
		EnrichServerFields(req, &e, config.Config{})
		if e.Server.IPHash != "" {
			t.Errorf("expected empty ip hash, got %q", e.Server.IPHash)
		}
	})

	t.Run("detection flags", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		e := Event{Server: ServerMeta{
			Flags: []string{FlagAutomation},
			Detection: detection.Signals{
				UserAgent:   detection.UASignals{AutomationKeywords: []string{"headless"}},
				Consistency: []string{detection.FlagSoftwareRenderer},
			},
		}}
		EnrichServerFields(req, &e, cfg)

		if len(e.Server.Flags) != 2 || e.Server.Flags[0] != FlagAutomation || e.Server.Flags[1] != FlagInconsistent {
			t.Errorf("flags = %v", e.Server.Flags)
		}
	})
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		xff        string
		realIP     string
		trustProxy bool
		want       string
	}{
		{"remote addr when proxy untrusted", "192.168.1.100:12345", "203.0.113.1", "203.0.113.2", false, "192.168.1.100"},
		{"first forwarded ip", "10.0.0.1:1", "203.0.113.1, 198.51.100.1", "", true, "203.0.113.1"},
		{"whitespace in forwarded", "10.0.0.1:1", "  203.0.113.1  , 198.51.100.1", "", true, "203.0.113.1"},
		{"real ip fallback", "10.0.0.1:1", "", " 203.0.113.5 ", true, "203.0.113.5"},
		{"remote addr when headers empty", "192.168.1.100:12345", "", "", true, "192.168.1.100"},
		{"ipv6 remote", "[2001:db8::1]:443", "", "", false, "2001:db8::1"},
		{"remote without port", "unix", "", "", false, "unix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := ClientIP(req, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
