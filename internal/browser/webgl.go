package browser

import (
	"context"
	"fmt"

	"github.com/shortontech/devprint/internal/fingerprint"
)

const newGLJS = `() => {
	const c = document.createElement('canvas');
	const gl = c.getContext('webgl') || c.getContext('experimental-webgl');
	if (!gl) return '';
	const id = 'g' + (++window.__devprint.seq);
	window.__devprint.objs[id] = gl;
	return id;
}`

const hasExtensionJS = `(id, name) => !!window.__devprint.objs[id].getExtension(name)`

const glParameterJS = `(id, name, extName) => {
	const gl = window.__devprint.objs[id];
	let key = gl[name];
	if (key === undefined) {
		const ext = gl.getExtension(extName);
		if (!ext) throw new Error('unsupported: ' + extName);
		key = ext[name];
	}
	const v = gl.getParameter(key);
	return v == null ? '' : String(v);
}`

type webglProvider struct{ b *Browser }

func (p webglProvider) NewContext(ctx context.Context) (fingerprint.GLContext, error) {
	id, err := p.b.evalID(ctx, newGLJS)
	if err != nil {
		return nil, err
	}
	return &glContext{b: p.b, id: id}, nil
}

type glContext struct {
	b  *Browser
	id string
}

func (g *glContext) HasExtension(ctx context.Context, name string) bool {
	res, err := g.b.eval(ctx, hasExtensionJS, g.id, name)
	return err == nil && res.Value.Bool()
}

func (g *glContext) Parameter(ctx context.Context, p fingerprint.GLParameter) (string, error) {
	res, err := g.b.eval(ctx, glParameterJS, g.id, string(p), fingerprint.DebugRendererInfo)
	if isUnsupported(err) {
		return "", fingerprint.ErrUnsupported
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", p, err)
	}
	return res.Value.Str(), nil
}

func (g *glContext) Release() { g.b.release(g.id) }
