package browser

import (
	"context"
	"fmt"

	"github.com/shortontech/devprint/internal/fingerprint"
)

const newCanvasJS = `(w, h) => {
	const c = document.createElement('canvas');
	c.width = w;
	c.height = h;
	if (!c.getContext || !c.getContext('2d')) return '';
	const id = 'c' + (++window.__devprint.seq);
	window.__devprint.objs[id] = c;
	return id;
}`

const drawJS = `(id, ops) => {
	const x = window.__devprint.objs[id].getContext('2d');
	for (const op of ops) {
		switch (op.kind) {
		case 'fillStyle': x.fillStyle = op.style; break;
		case 'font': x.font = op.style; break;
		case 'fillRect': x.fillRect(op.x || 0, op.y || 0, op.w || 0, op.h || 0); break;
		case 'fillText': x.fillText(op.text, op.x || 0, op.y || 0); break;
		case 'linearGradient': {
			const g = x.createLinearGradient(op.x || 0, op.y || 0, op.x1 || 0, op.y1 || 0);
			for (const s of op.stops || []) g.addColorStop(s.offset || 0, s.color);
			x.fillStyle = g;
			break;
		}
		case 'arc':
			x.beginPath();
			x.arc(op.x || 0, op.y || 0, op.radius || 0, op.start || 0, op.end || 0);
			x.closePath();
			x.stroke();
			break;
		default: throw new Error('unknown draw op ' + op.kind);
		}
	}
}`

const dataURLJS = `(id) => window.__devprint.objs[id].toDataURL('image/png')`

const measureTextJS = `(id, font, text) => {
	const x = window.__devprint.objs[id].getContext('2d');
	x.font = font;
	return x.measureText(text).width;
}`

type canvasProvider struct{ b *Browser }

func (p canvasProvider) NewCanvas(ctx context.Context, width, height int) (fingerprint.Canvas, error) {
	id, err := p.b.evalID(ctx, newCanvasJS, width, height)
	if err != nil {
		return nil, err
	}
	return &canvas{b: p.b, id: id}, nil
}

type canvas struct {
	b  *Browser
	id string
}

func (c *canvas) Draw(ctx context.Context, ops []fingerprint.DrawOp) error {
	if _, err := c.b.eval(ctx, drawJS, c.id, ops); err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	return nil
}

func (c *canvas) DataURL(ctx context.Context) (string, error) {
	res, err := c.b.eval(ctx, dataURLJS, c.id)
	if err != nil {
		return "", fmt.Errorf("serialize canvas: %w", err)
	}
	return res.Value.Str(), nil
}

func (c *canvas) MeasureText(ctx context.Context, font, text string) (float64, error) {
	res, err := c.b.eval(ctx, measureTextJS, c.id, font, text)
	if err != nil {
		return 0, fmt.Errorf("measure text: %w", err)
	}
	return res.Value.Num(), nil
}

func (c *canvas) Release() { c.b.release(c.id) }
