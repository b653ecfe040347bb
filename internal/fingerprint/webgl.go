package fingerprint

import "context"

func graphicsAll(r Reading) GraphicsSignal {
	return GraphicsSignal{Vendor: r, Renderer: r, UnmaskedVendor: r, UnmaskedRenderer: r}
}

// collectGraphics reads the WebGL vendor and renderer. When the debug
// renderer extension is missing the unmasked pair falls back to the masked
// values.
func collectGraphics(ctx context.Context, p WebGLProvider) GraphicsSignal {
	if p == nil {
		return graphicsAll(Unsupported())
	}
	gl, err := p.NewContext(ctx)
	if err != nil {
		return graphicsAll(probeFailure(ctx, CategoryWebGL, err))
	}
	defer gl.Release()

	read := func(param GLParameter) Reading {
		v, err := gl.Parameter(ctx, param)
		if err != nil {
			return probeFailure(ctx, CategoryWebGL, err)
		}
		return Value(v)
	}

	sig := GraphicsSignal{
		Vendor:   read(GLVendor),
		Renderer: read(GLRenderer),
	}
	if gl.HasExtension(ctx, DebugRendererInfo) {
		sig.UnmaskedVendor = read(GLUnmaskedVendor)
		sig.UnmaskedRenderer = read(GLUnmaskedRenderer)
	} else {
		sig.UnmaskedVendor = sig.Vendor
		sig.UnmaskedRenderer = sig.Renderer
	}
	return sig
}
