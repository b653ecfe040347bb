// Package browser backs the fingerprint capability interfaces with a live
// Chromium page driven over CDP.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog/log"

	"github.com/shortontech/devprint/internal/fingerprint"
	"github.com/shortontech/devprint/pkg/config"
)

// registryJS installs the page-side table that holds canvases and contexts
// between calls.
const registryJS = `() => {
	if (!window.__devprint) window.__devprint = { seq: 0, objs: {} };
	return true;
}`

const releaseJS = `(id) => { delete window.__devprint.objs[id]; }`

type Browser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// Launch starts Chromium, opens a stealth page and loads cfg.URL.
func Launch(ctx context.Context, cfg config.CaptureConfig) (*Browser, error) {
	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		Set("no-sandbox").
		Set("disable-dev-shm-usage")
	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	b := &Browser{launcher: l}

	b.browser = rod.New().ControlURL(u).Context(ctx)
	if err := b.browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	b.page, err = stealth.Page(b.browser)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	if cfg.URL != "" && cfg.URL != "about:blank" {
		if err := b.page.Navigate(cfg.URL); err != nil {
			b.Close()
			return nil, fmt.Errorf("navigate to %s: %w", cfg.URL, err)
		}
		if err := b.page.WaitLoad(); err != nil {
			b.Close()
			return nil, fmt.Errorf("wait for %s: %w", cfg.URL, err)
		}
	}
	if _, err := b.page.Eval(registryJS); err != nil {
		b.Close()
		return nil, fmt.Errorf("install registry: %w", err)
	}
	log.Ctx(ctx).Debug().Str("control_url", u).Str("url", cfg.URL).Msg("browser ready")
	return b, nil
}

// Sources exposes every capability of the page.
func (b *Browser) Sources() fingerprint.Sources {
	return fingerprint.Sources{
		Canvas:    canvasProvider{b},
		WebGL:     webglProvider{b},
		Audio:     audioProvider{b},
		Screen:    b,
		Navigator: b,
		Clock:     b,
		Plugins:   b,
	}
}

func (b *Browser) Close() error {
	var errs []error
	if b.page != nil {
		errs = append(errs, b.page.Close())
	}
	if b.browser != nil {
		errs = append(errs, b.browser.Close())
	}
	if b.launcher != nil {
		b.launcher.Cleanup()
	}
	return errors.Join(errs...)
}

func (b *Browser) eval(ctx context.Context, js string, args ...any) (*proto.RuntimeRemoteObject, error) {
	return b.page.Context(ctx).Eval(js, args...)
}

// evalInto runs js and decodes its JSON result into out.
func (b *Browser) evalInto(ctx context.Context, out any, js string, args ...any) error {
	res, err := b.eval(ctx, js, args...)
	if err != nil {
		return err
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// evalID runs js and returns the page object ID it yields. An empty ID means
// the page lacks the capability.
func (b *Browser) evalID(ctx context.Context, js string, args ...any) (string, error) {
	res, err := b.eval(ctx, js, args...)
	if err != nil {
		return "", err
	}
	id := res.Value.Str()
	if id == "" {
		return "", fingerprint.ErrUnsupported
	}
	return id, nil
}

func (b *Browser) release(id string) {
	if _, err := b.page.Eval(releaseJS, id); err != nil {
		log.Debug().Err(err).Str("id", id).Msg("release page object")
	}
}

// isUnsupported recognises page exceptions thrown for missing APIs.
func isUnsupported(err error) bool {
	return err != nil && strings.Contains(err.Error(), "unsupported")
}
