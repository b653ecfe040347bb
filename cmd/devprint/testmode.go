package main

import (
	"time"

	"github.com/shortontech/devprint/internal/event"
	"github.com/shortontech/devprint/internal/fingerprint"
	"github.com/shortontech/devprint/pkg/config"
)

// sampleDevices are fixed component sets for exercising sinks without a
// browser: a desktop, a phone, the desktop again on another monitor, and a
// headless browser with probes missing.
func sampleDevices() []fingerprint.Components {
	desktop := fingerprint.Components{
		Canvas: fingerprint.CanvasSignal{Hash: fingerprint.Value("5d41402abc4b2a76b9719d911017c592")},
		WebGL: fingerprint.GraphicsSignal{
			Vendor:           fingerprint.Value("WebKit"),
			Renderer:         fingerprint.Value("WebKit WebGL"),
			UnmaskedVendor:   fingerprint.Value("Google Inc. (NVIDIA)"),
			UnmaskedRenderer: fingerprint.Value("ANGLE (NVIDIA, NVIDIA GeForce RTX 3070 Direct3D11 vs_5_0 ps_5_0, D3D11)"),
		},
		Audio: fingerprint.AudioSignal{Hash: fingerprint.Value("124.04347527516074"), SampleRate: 48000},
		Screen: fingerprint.DisplaySignal{
			Width: 1920, Height: 1080, AvailWidth: 1920, AvailHeight: 1040,
			ColorDepth: 24, PixelRatio: 1, Orientation: "landscape-primary",
		},
		Browser: fingerprint.PlatformSignal{
			UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
			Language:            "en-US",
			Languages:           []string{"en-US", "en"},
			Platform:            "Win32",
			CookiesEnabled:      true,
			HardwareConcurrency: 16,
			DeviceMemory:        8,
		},
		Timezone: fingerprint.TimezoneSignal{Timezone: "America/New_York", TimezoneOffset: 240},
		Fonts:    []string{"Arial", "Calibri", "Segoe UI", "Times New Roman"},
		Plugins:  []string{"PDF Viewer", "Chrome PDF Viewer"},
	}

	phone := fingerprint.Components{
		Canvas: fingerprint.CanvasSignal{Hash: fingerprint.Value("7d793037a0760186574b0282f2f435e7")},
		WebGL: fingerprint.GraphicsSignal{
			Vendor:           fingerprint.Value("WebKit"),
			Renderer:         fingerprint.Value("WebKit WebGL"),
			UnmaskedVendor:   fingerprint.Value("Apple Inc."),
			UnmaskedRenderer: fingerprint.Value("Apple GPU"),
		},
		Audio: fingerprint.AudioSignal{Hash: fingerprint.Value("35.10893253237009"), SampleRate: 44100},
		Screen: fingerprint.DisplaySignal{
			Width: 390, Height: 844, AvailWidth: 390, AvailHeight: 844,
			ColorDepth: 24, PixelRatio: 3, Orientation: "portrait-primary",
		},
		Browser: fingerprint.PlatformSignal{
			UserAgent:      "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
			Language:       "en-GB",
			Languages:      []string{"en-GB"},
			Platform:       "iPhone",
			CookiesEnabled: true,
			MaxTouchPoints: 5,
		},
		Timezone: fingerprint.TimezoneSignal{Timezone: "Europe/London", TimezoneOffset: -60},
		Fonts:    []string{"Helvetica", "Times New Roman"},
	}

	docked := desktop
	docked.Screen.Width, docked.Screen.Height = 2560, 1440
	docked.Screen.AvailWidth, docked.Screen.AvailHeight = 2560, 1400

	headless := desktop
	headless.WebGL = fingerprint.GraphicsSignal{
		Vendor:           fingerprint.Unsupported(),
		Renderer:         fingerprint.Unsupported(),
		UnmaskedVendor:   fingerprint.Unsupported(),
		UnmaskedRenderer: fingerprint.Unsupported(),
	}
	headless.Audio = fingerprint.AudioSignal{Hash: fingerprint.TimedOut()}
	headless.Browser.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) HeadlessChrome/126.0.0.0 Safari/537.36"
	headless.Browser.Platform = "Linux x86_64"
	headless.Plugins = nil

	return []fingerprint.Components{desktop, phone, docked, headless}
}

// generateTestEvents builds one capture event per sample device. Each event
// is matched against the ones before it with the configured threshold, the
// way a live capture is matched against recent records.
func generateTestEvents(now time.Time, match config.MatchConfig) []event.Event {
	var (
		events []event.Event
		seen   []fingerprint.DeviceFingerprint
	)
	for i, c := range sampleDevices() {
		at := now.Add(time.Duration(i) * time.Second)
		fp, err := fingerprint.Assemble(c, at)
		if err != nil {
			continue
		}
		clientHash := fp.Hash
		if i == len(sampleDevices())-1 {
			clientHash = "0000000000000000000000000000000000000000000000000000000000000000"
		}
		e := event.NewCapture(fp, clientHash, at)
		for _, m := range fingerprint.RankMatches(fp, seen, match.MinSimilarity, match.Limit) {
			e.AddMatch(events[m.Index].EventID, m)
		}
		events = append(events, e)
		seen = append(seen, fp)
	}
	return events
}
