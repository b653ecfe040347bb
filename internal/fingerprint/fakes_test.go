package fingerprint

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
)

var baselineWidths = map[string]float64{
	"monospace":  50,
	"sans-serif": 60,
	"serif":      70,
}

type fakeCanvasProvider struct {
	dataURL   string
	newErr    error
	drawErr   error
	installed map[string]bool
	released  atomic.Int32
	panics    bool
}

func (p *fakeCanvasProvider) NewCanvas(context.Context, int, int) (Canvas, error) {
	if p.panics {
		panic("canvas backend crashed")
	}
	if p.newErr != nil {
		return nil, p.newErr
	}
	return &fakeCanvas{p: p}, nil
}

type fakeCanvas struct {
	p   *fakeCanvasProvider
	ops []DrawOp
}

func (c *fakeCanvas) Draw(_ context.Context, ops []DrawOp) error {
	if c.p.drawErr != nil {
		return c.p.drawErr
	}
	c.ops = append(c.ops, ops...)
	return nil
}

func (c *fakeCanvas) DataURL(context.Context) (string, error) {
	return c.p.dataURL, nil
}

// MeasureText returns a per-family width for installed fonts and the
// baseline width otherwise, the way a browser falls back.
func (c *fakeCanvas) MeasureText(_ context.Context, font, _ string) (float64, error) {
	base := font[strings.LastIndex(font, " ")+1:]
	if i := strings.Index(font, `"`); i >= 0 {
		j := strings.Index(font[i+1:], `"`)
		family := font[i+1 : i+1+j]
		if c.p.installed[family] {
			return 100 + float64(len(family)), nil
		}
	}
	w, ok := baselineWidths[base]
	if !ok {
		return 0, errors.New("unknown baseline " + base)
	}
	return w, nil
}

func (c *fakeCanvas) Release() { c.p.released.Add(1) }

type fakeWebGL struct {
	params    map[GLParameter]string
	debugInfo bool
	newErr    error
	paramErr  map[GLParameter]error
}

func (p *fakeWebGL) NewContext(context.Context) (GLContext, error) {
	if p.newErr != nil {
		return nil, p.newErr
	}
	return fakeGLContext{p}, nil
}

type fakeGLContext struct{ p *fakeWebGL }

func (c fakeGLContext) HasExtension(_ context.Context, name string) bool {
	return name == DebugRendererInfo && c.p.debugInfo
}

func (c fakeGLContext) Parameter(_ context.Context, param GLParameter) (string, error) {
	if err := c.p.paramErr[param]; err != nil {
		return "", err
	}
	return c.p.params[param], nil
}

func (fakeGLContext) Release() {}

type fakeAudio struct {
	sampleRate float64
	samples    []float32
	// stall never delivers a buffer.
	stall  bool
	newErr error
	closed atomic.Int32
	graph  ToneGraph
}

func (p *fakeAudio) NewContext(context.Context) (AudioContext, error) {
	if p.newErr != nil {
		return nil, p.newErr
	}
	return &fakeAudioContext{p: p}, nil
}

type fakeAudioContext struct{ p *fakeAudio }

func (c *fakeAudioContext) SampleRate() float64 { return c.p.sampleRate }

func (c *fakeAudioContext) Render(_ context.Context, g ToneGraph) (<-chan []float32, error) {
	c.p.graph = g
	ch := make(chan []float32, 1)
	if !c.p.stall {
		ch <- append([]float32(nil), c.p.samples...)
	}
	return ch, nil
}

func (c *fakeAudioContext) Close() error {
	c.p.closed.Add(1)
	return nil
}

type staticScreen DisplaySignal

func (s staticScreen) Screen(context.Context) DisplaySignal { return DisplaySignal(s) }

type staticNavigator PlatformSignal

func (n staticNavigator) Navigator(context.Context) PlatformSignal { return PlatformSignal(n) }

type staticClock struct{ sig TimezoneSignal }

func (c staticClock) Timezone(context.Context) TimezoneSignal { return c.sig }

type staticPlugins struct {
	list []Plugin
	err  error
}

func (p staticPlugins) Plugins(context.Context) ([]Plugin, error) { return p.list, p.err }

const testUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// fullSources describes a desktop with every capability present.
func fullSources() Sources {
	return Sources{
		Canvas: &fakeCanvasProvider{
			dataURL:   "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAARgAAAA8",
			installed: map[string]bool{"Arial": true, "Georgia": true, "Segoe UI": true, "Verdana": true},
		},
		WebGL: &fakeWebGL{
			debugInfo: true,
			params: map[GLParameter]string{
				GLVendor:           "WebKit",
				GLRenderer:         "WebKit WebGL",
				GLUnmaskedVendor:   "Google Inc. (NVIDIA)",
				GLUnmaskedRenderer: "ANGLE (NVIDIA, NVIDIA GeForce RTX 3070 Direct3D11 vs_5_0 ps_5_0, D3D11)",
			},
		},
		Audio: &fakeAudio{sampleRate: 48000, samples: []float32{0.25, -0.5, 0.125, -0.0625}},
		Screen: staticScreen{
			Width: 1920, Height: 1080, AvailWidth: 1920, AvailHeight: 1040,
			ColorDepth: 24, PixelRatio: 1, Orientation: "landscape-primary",
		},
		Navigator: staticNavigator{
			UserAgent:           testUserAgent,
			Language:            "en-US",
			Languages:           []string{"en-US", "en"},
			Platform:            "Win32",
			CookiesEnabled:      true,
			HardwareConcurrency: 8,
			DeviceMemory:        8,
		},
		Clock:   staticClock{TimezoneSignal{Timezone: "America/New_York", TimezoneOffset: 240}},
		Plugins: staticPlugins{list: []Plugin{{Name: "PDF Viewer", Filename: "internal-pdf-viewer"}}},
	}
}
