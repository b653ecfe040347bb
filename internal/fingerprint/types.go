package fingerprint

import (
	"encoding/json"
	"fmt"
	"time"
)

// Category names one independently collected dimension of device information.
type Category string

const (
	CategoryCanvas   Category = "canvas"
	CategoryWebGL    Category = "webgl"
	CategoryAudio    Category = "audio"
	CategoryScreen   Category = "screen"
	CategoryBrowser  Category = "browser"
	CategoryTimezone Category = "timezone"
	CategoryFonts    Category = "fonts"
	CategoryPlugins  Category = "plugins"

	// CategoryPlatform is reported by the comparator only; it reads the
	// platform string out of the browser signal.
	CategoryPlatform Category = "platform"
)

// Status tells whether a probe produced a real value or which sentinel
// replaced it.
type Status uint8

const (
	StatusOK Status = iota
	StatusUnsupported
	StatusError
	StatusTimeout
)

// Sentinel texts, as they appear on the wire in place of a value.
const (
	SentinelUnsupported = "unsupported"
	SentinelError       = "error"
	SentinelTimeout     = "timeout"
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnsupported:
		return SentinelUnsupported
	case StatusError:
		return SentinelError
	case StatusTimeout:
		return SentinelTimeout
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Reading is a single probe result: either a value or a sentinel status.
// The zero Reading is an OK empty string.
type Reading struct {
	Status Status
	Value  string
}

func Value(v string) Reading { return Reading{Status: StatusOK, Value: v} }
func Unsupported() Reading   { return Reading{Status: StatusUnsupported} }
func Failed() Reading        { return Reading{Status: StatusError} }
func TimedOut() Reading      { return Reading{Status: StatusTimeout} }

// OK reports whether the reading carries a real value.
func (r Reading) OK() bool { return r.Status == StatusOK }

// String returns the value, or the sentinel text when the probe did not
// produce one.
func (r Reading) String() string {
	if r.Status == StatusOK {
		return r.Value
	}
	return r.Status.String()
}

func (r Reading) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Reading) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("reading must be a string: %w", err)
	}
	*r = ParseReading(s)
	return nil
}

// ParseReading maps sentinel texts back to their status. Anything else is
// a value.
func ParseReading(s string) Reading {
	switch s {
	case SentinelUnsupported:
		return Unsupported()
	case SentinelError:
		return Failed()
	case SentinelTimeout:
		return TimedOut()
	}
	return Value(s)
}

type CanvasSignal struct {
	Hash    Reading `json:"hash"`
	DataURL string  `json:"dataUrl"`
}

// GraphicsSignal carries the WebGL vendor/renderer strings. The unmasked
// pair is the actual GPU identity when the debug extension is exposed.
type GraphicsSignal struct {
	Vendor           Reading `json:"vendor"`
	Renderer         Reading `json:"renderer"`
	UnmaskedVendor   Reading `json:"unmaskedVendor"`
	UnmaskedRenderer Reading `json:"unmaskedRenderer"`
}

type AudioSignal struct {
	Hash       Reading `json:"hash"`
	SampleRate float64 `json:"sampleRate"`
}

type DisplaySignal struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AvailWidth  int     `json:"availWidth"`
	AvailHeight int     `json:"availHeight"`
	ColorDepth  int     `json:"colorDepth"`
	PixelRatio  float64 `json:"pixelRatio"`
	Orientation string  `json:"orientation"`
}

type PlatformSignal struct {
	UserAgent           string   `json:"userAgent"`
	Language            string   `json:"language"`
	Languages           []string `json:"languages"`
	Platform            string   `json:"platform"`
	CookiesEnabled      bool     `json:"cookiesEnabled"`
	DoNotTrack          bool     `json:"doNotTrack"`
	HardwareConcurrency int      `json:"hardwareConcurrency"`
	DeviceMemory        float64  `json:"deviceMemory"`
	MaxTouchPoints      int      `json:"maxTouchPoints"`
}

type TimezoneSignal struct {
	Timezone       string `json:"timezone"`
	TimezoneOffset int    `json:"timezoneOffset"`
}

// Components holds one signal per category.
type Components struct {
	Canvas   CanvasSignal   `json:"canvas"`
	WebGL    GraphicsSignal `json:"webgl"`
	Audio    AudioSignal    `json:"audio"`
	Screen   DisplaySignal  `json:"screen"`
	Browser  PlatformSignal `json:"browser"`
	Timezone TimezoneSignal `json:"timezone"`
	Fonts    []string       `json:"fonts"`
	Plugins  []string       `json:"plugins"`
}

// DeviceFingerprint is the assembled result of one capture. Hash depends
// only on the canonical subset of Components (see Canonicalize).
type DeviceFingerprint struct {
	Hash        string     `json:"hash"`
	Components  Components `json:"components"`
	Confidence  int        `json:"confidence"`
	GeneratedAt time.Time  `json:"generatedAt"`
}
