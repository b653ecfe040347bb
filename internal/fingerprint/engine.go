package fingerprint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrCaptureFailed is returned by Generate when the collected signals could
// not be assembled into a fingerprint. Individual probe failures never
// surface here.
var ErrCaptureFailed = errors.New("fingerprint capture failed")

type Options struct {
	// AudioTimeout bounds the audio probe. Zero means DefaultAudioTimeout.
	AudioTimeout time.Duration
	// FontCandidates overrides DefaultFontCandidates.
	FontCandidates []string
	// Now stamps GeneratedAt. Defaults to time.Now.
	Now func() time.Time
}

// Engine captures fingerprints from one set of sources. It holds no
// per-capture state and may be shared.
type Engine struct {
	src  Sources
	opts Options
}

func NewEngine(src Sources, opts Options) *Engine {
	if opts.AudioTimeout <= 0 {
		opts.AudioTimeout = DefaultAudioTimeout
	}
	if opts.FontCandidates == nil {
		opts.FontCandidates = DefaultFontCandidates
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{src: src, opts: opts}
}

// Generate runs every collector and assembles a new fingerprint. Canvas and
// audio run concurrently; the rest run inline. Each call returns an
// independent value.
func (e *Engine) Generate(ctx context.Context) (DeviceFingerprint, error) {
	var comps Components

	var g errgroup.Group
	g.Go(func() error {
		comps.Canvas = settle(ctx, CategoryCanvas, CanvasSignal{Hash: Failed()}, func() CanvasSignal {
			return collectCanvas(ctx, e.src.Canvas)
		})
		return nil
	})
	g.Go(func() error {
		comps.Audio = settle(ctx, CategoryAudio, AudioSignal{Hash: Failed()}, func() AudioSignal {
			return collectAudio(ctx, e.src.Audio, e.opts.AudioTimeout)
		})
		return nil
	})

	comps.WebGL = settle(ctx, CategoryWebGL, graphicsAll(Failed()), func() GraphicsSignal {
		return collectGraphics(ctx, e.src.WebGL)
	})
	comps.Screen = settle(ctx, CategoryScreen, DisplaySignal{}, func() DisplaySignal {
		return collectScreen(ctx, e.src.Screen)
	})
	comps.Browser = settle(ctx, CategoryBrowser, PlatformSignal{}, func() PlatformSignal {
		return collectPlatform(ctx, e.src.Navigator)
	})
	comps.Timezone = settle(ctx, CategoryTimezone, TimezoneSignal{}, func() TimezoneSignal {
		return collectTimezone(ctx, e.src.Clock)
	})
	comps.Fonts = settle(ctx, CategoryFonts, []string{}, func() []string {
		return detectFonts(ctx, e.src.Canvas, e.opts.FontCandidates)
	})
	comps.Plugins = settle(ctx, CategoryPlugins, []string{}, func() []string {
		return collectPlugins(ctx, e.src.Plugins)
	})

	if err := g.Wait(); err != nil {
		return DeviceFingerprint{}, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	return Assemble(comps, e.opts.Now())
}

// Assemble hashes and scores already collected components.
func Assemble(c Components, at time.Time) (DeviceFingerprint, error) {
	hash, err := Hash(c)
	if err != nil {
		return DeviceFingerprint{}, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	return DeviceFingerprint{
		Hash:        hash,
		Components:  c,
		Confidence:  Confidence(c),
		GeneratedAt: at,
	}, nil
}

// settle runs probe, replacing a panic with fallback.
func settle[T any](ctx context.Context, c Category, fallback T, probe func() T) (out T) {
	defer func() {
		if v := recover(); v != nil {
			log.Ctx(ctx).Error().Str("category", string(c)).Interface("panic", v).Msg("probe panicked")
			out = fallback
		}
	}()
	return probe()
}
