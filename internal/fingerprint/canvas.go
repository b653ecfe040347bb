package fingerprint

import (
	"context"
	"errors"
	"math"

	"github.com/rs/zerolog/log"
)

const (
	canvasWidth  = 280
	canvasHeight = 60
	canvasText   = "Giveaway App 🎮"
)

// canvasScene is drawn identically on every capture. Font hinting,
// anti-aliasing and the GPU raster backend make the output differ across
// devices.
var canvasScene = []DrawOp{
	{Kind: DrawFillStyle, Style: "#f60"},
	{Kind: DrawFillRect, X: 125, Y: 1, W: 62, H: 20},
	{Kind: DrawFillStyle, Style: "#069"},
	{Kind: DrawFont, Style: "11pt Arial"},
	{Kind: DrawFillText, Text: canvasText, X: 2, Y: 15},
	{Kind: DrawFillStyle, Style: "rgba(102, 204, 0, 0.7)"},
	{Kind: DrawFont, Style: "18pt Arial"},
	{Kind: DrawFillText, Text: canvasText, X: 4, Y: 45},
	{Kind: DrawGradient, X: 0, Y: 0, X1: canvasWidth, Y1: 0, Stops: []ColorStop{
		{Offset: 0, Color: "#9506FA"},
		{Offset: 1, Color: "#00D4FF"},
	}},
	{Kind: DrawFillRect, X: 0, Y: 50, W: canvasWidth, H: 10},
	{Kind: DrawArc, X: 50, Y: 50, Radius: 50, Start: 0, End: 2 * math.Pi},
}

// CanvasScene returns a copy of the draw list used by the canvas probe.
func CanvasScene() []DrawOp {
	out := make([]DrawOp, len(canvasScene))
	copy(out, canvasScene)
	return out
}

func collectCanvas(ctx context.Context, p CanvasProvider) CanvasSignal {
	if p == nil {
		return CanvasSignal{Hash: Unsupported()}
	}
	c, err := p.NewCanvas(ctx, canvasWidth, canvasHeight)
	if err != nil {
		return CanvasSignal{Hash: probeFailure(ctx, CategoryCanvas, err)}
	}
	defer c.Release()

	if err := c.Draw(ctx, CanvasScene()); err != nil {
		return CanvasSignal{Hash: probeFailure(ctx, CategoryCanvas, err)}
	}
	dataURL, err := c.DataURL(ctx)
	if err != nil {
		return CanvasSignal{Hash: probeFailure(ctx, CategoryCanvas, err)}
	}
	return CanvasSignal{Hash: Value(sha256Hex(dataURL)), DataURL: dataURL}
}

// probeFailure maps a provider error to its sentinel. Missing capabilities
// are expected and not logged.
func probeFailure(ctx context.Context, c Category, err error) Reading {
	if errors.Is(err, ErrUnsupported) {
		return Unsupported()
	}
	log.Ctx(ctx).Debug().Err(err).Str("category", string(c)).Msg("probe failed")
	return Failed()
}
