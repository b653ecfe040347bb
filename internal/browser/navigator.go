package browser

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/shortontech/devprint/internal/fingerprint"
)

const screenJS = `() => ({
	width: screen.width,
	height: screen.height,
	availWidth: screen.availWidth,
	availHeight: screen.availHeight,
	colorDepth: screen.colorDepth,
	pixelRatio: window.devicePixelRatio || 1,
	orientation: (screen.orientation && screen.orientation.type) || '',
})`

const navigatorJS = `() => ({
	userAgent: navigator.userAgent,
	language: navigator.language || '',
	languages: Array.from(navigator.languages || []),
	platform: navigator.platform || '',
	cookiesEnabled: !!navigator.cookieEnabled,
	doNotTrack: navigator.doNotTrack === '1',
	hardwareConcurrency: navigator.hardwareConcurrency || 0,
	deviceMemory: navigator.deviceMemory || 0,
	maxTouchPoints: navigator.maxTouchPoints || 0,
})`

const timezoneJS = `() => ({
	timezone: Intl.DateTimeFormat().resolvedOptions().timeZone || '',
	timezoneOffset: new Date().getTimezoneOffset(),
})`

const pluginsJS = `() => Array.from(navigator.plugins || []).map(p => ({ name: p.name, filename: p.filename }))`

func (b *Browser) Screen(ctx context.Context) fingerprint.DisplaySignal {
	var s fingerprint.DisplaySignal
	if err := b.evalInto(ctx, &s, screenJS); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("read screen")
	}
	return s
}

func (b *Browser) Navigator(ctx context.Context) fingerprint.PlatformSignal {
	var p fingerprint.PlatformSignal
	if err := b.evalInto(ctx, &p, navigatorJS); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("read navigator")
	}
	return p
}

func (b *Browser) Timezone(ctx context.Context) fingerprint.TimezoneSignal {
	var t fingerprint.TimezoneSignal
	if err := b.evalInto(ctx, &t, timezoneJS); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("read timezone")
	}
	return t
}

func (b *Browser) Plugins(ctx context.Context) ([]fingerprint.Plugin, error) {
	var raw []struct {
		Name     string `json:"name"`
		Filename string `json:"filename"`
	}
	if err := b.evalInto(ctx, &raw, pluginsJS); err != nil {
		return nil, err
	}
	out := make([]fingerprint.Plugin, len(raw))
	for i, p := range raw {
		out[i] = fingerprint.Plugin{Name: p.Name, Filename: p.Filename}
	}
	return out, nil
}
