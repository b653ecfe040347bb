package fingerprint

import (
	"context"
	"fmt"
)

const (
	fontTestString = "mmmmmmmmmmlli"
	fontTestSize   = "72px"
)

// DefaultFontCandidates is the family list probed when Options does not
// name one.
var DefaultFontCandidates = []string{
	"Arial", "Arial Black", "Comic Sans MS", "Courier New", "Georgia",
	"Impact", "Lucida Console", "Lucida Sans Unicode", "Palatino Linotype",
	"Tahoma", "Times New Roman", "Trebuchet MS", "Verdana", "Webdings",
	"Roboto", "Open Sans", "Inter", "Helvetica", "Segoe UI",
}

var fontBaselines = []string{"monospace", "sans-serif", "serif"}

// detectFonts reports the candidates whose rendered width differs from a
// generic baseline. An unavailable family falls back to the baseline and
// measures the same.
func detectFonts(ctx context.Context, p CanvasProvider, candidates []string) []string {
	found := []string{}
	if p == nil {
		return found
	}
	c, err := p.NewCanvas(ctx, canvasWidth, canvasHeight)
	if err != nil {
		probeFailure(ctx, CategoryFonts, err)
		return found
	}
	defer c.Release()

	baseline := make(map[string]float64, len(fontBaselines))
	for _, base := range fontBaselines {
		w, err := c.MeasureText(ctx, fontTestSize+" "+base, fontTestString)
		if err != nil {
			probeFailure(ctx, CategoryFonts, err)
			return found
		}
		baseline[base] = w
	}

	seen := make(map[string]bool, len(candidates))
	for _, font := range candidates {
		if seen[font] {
			continue
		}
		seen[font] = true
		installed, err := fontInstalled(ctx, c, font, baseline)
		if err != nil {
			probeFailure(ctx, CategoryFonts, err)
			return found
		}
		if installed {
			found = append(found, font)
		}
	}
	return found
}

func fontInstalled(ctx context.Context, c Canvas, font string, baseline map[string]float64) (bool, error) {
	for _, base := range fontBaselines {
		w, err := c.MeasureText(ctx, fmt.Sprintf("%s %q, %s", fontTestSize, font, base), fontTestString)
		if err != nil {
			return false, err
		}
		if w != baseline[base] {
			return true, nil
		}
	}
	return false, nil
}
