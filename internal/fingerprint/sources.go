package fingerprint

import (
	"context"
	"errors"
)

// ErrUnsupported is returned (or wrapped) by a provider when the runtime
// capability it fronts does not exist.
var ErrUnsupported = errors.New("capability unsupported")

// Sources bundles the capabilities a capture reads from. A nil field means
// the capability is absent in the environment.
type Sources struct {
	Canvas    CanvasProvider
	WebGL     WebGLProvider
	Audio     AudioProvider
	Screen    ScreenReader
	Navigator NavigatorReader
	Clock     TimezoneReader
	Plugins   PluginRegistry
}

// CanvasProvider hands out fresh 2D raster surfaces. Every caller owns the
// surface it gets and must Release it.
type CanvasProvider interface {
	NewCanvas(ctx context.Context, width, height int) (Canvas, error)
}

type Canvas interface {
	Draw(ctx context.Context, ops []DrawOp) error
	// DataURL serializes the raster losslessly (PNG data URL).
	DataURL(ctx context.Context) (string, error)
	// MeasureText returns the pixel width of text rendered with a CSS font
	// shorthand such as `72px "Arial", monospace`.
	MeasureText(ctx context.Context, font, text string) (float64, error)
	Release()
}

type DrawKind string

const (
	DrawFillStyle DrawKind = "fillStyle"
	DrawFont      DrawKind = "font"
	DrawFillRect  DrawKind = "fillRect"
	DrawFillText  DrawKind = "fillText"
	// DrawGradient sets the fill style to a linear gradient from (X,Y) to (X1,Y1).
	DrawGradient DrawKind = "linearGradient"
	// DrawArc strokes a closed arc path centred on (X,Y).
	DrawArc DrawKind = "arc"
)

type ColorStop struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}

// DrawOp is one 2D context call. Only the fields its Kind needs are set.
type DrawOp struct {
	Kind   DrawKind    `json:"kind"`
	Style  string      `json:"style,omitempty"`
	Text   string      `json:"text,omitempty"`
	X      float64     `json:"x,omitempty"`
	Y      float64     `json:"y,omitempty"`
	W      float64     `json:"w,omitempty"`
	H      float64     `json:"h,omitempty"`
	X1     float64     `json:"x1,omitempty"`
	Y1     float64     `json:"y1,omitempty"`
	Radius float64     `json:"radius,omitempty"`
	Start  float64     `json:"start,omitempty"`
	End    float64     `json:"end,omitempty"`
	Stops  []ColorStop `json:"stops,omitempty"`
}

// GLParameter names a WebGL getParameter constant.
type GLParameter string

const (
	GLVendor           GLParameter = "VENDOR"
	GLRenderer         GLParameter = "RENDERER"
	GLUnmaskedVendor   GLParameter = "UNMASKED_VENDOR_WEBGL"
	GLUnmaskedRenderer GLParameter = "UNMASKED_RENDERER_WEBGL"

	DebugRendererInfo = "WEBGL_debug_renderer_info"
)

type WebGLProvider interface {
	NewContext(ctx context.Context) (GLContext, error)
}

type GLContext interface {
	HasExtension(ctx context.Context, name string) bool
	Parameter(ctx context.Context, p GLParameter) (string, error)
	Release()
}

// ToneGraph describes the muted oscillator -> analyser -> processor -> gain
// pipeline the audio probe renders.
type ToneGraph struct {
	Waveform   string
	Frequency  float64
	BufferSize int
	Gain       float64
}

type AudioProvider interface {
	NewContext(ctx context.Context) (AudioContext, error)
}

type AudioContext interface {
	SampleRate() float64
	// Render builds the graph and starts the oscillator. The first processed
	// buffer is delivered on the returned channel; nothing is sent if the
	// processing callback never fires.
	Render(ctx context.Context, g ToneGraph) (<-chan []float32, error)
	// Close stops the oscillator, disconnects every node and closes the
	// context. It is safe to call once per context on any path.
	Close() error
}

type ScreenReader interface {
	Screen(ctx context.Context) DisplaySignal
}

type NavigatorReader interface {
	Navigator(ctx context.Context) PlatformSignal
}

type TimezoneReader interface {
	Timezone(ctx context.Context) TimezoneSignal
}

type Plugin struct {
	Name     string
	Filename string
}

type PluginRegistry interface {
	Plugins(ctx context.Context) ([]Plugin, error)
}
