package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/shortontech/devprint/internal/fingerprint"
)

const newAudioJS = `() => {
	const Ctor = window.AudioContext || window.webkitAudioContext;
	if (!Ctor) return { id: '', rate: 0 };
	const a = new Ctor();
	const id = 'a' + (++window.__devprint.seq);
	window.__devprint.objs[id] = a;
	return { id, rate: a.sampleRate };
}`

// renderJS resolves with the first buffer the processor sees.
const renderJS = `(id, g) => new Promise((resolve) => {
	const a = window.__devprint.objs[id];
	const osc = a.createOscillator();
	osc.type = g.waveform;
	osc.frequency.value = g.frequency;
	const analyser = a.createAnalyser();
	const proc = a.createScriptProcessor(g.bufferSize, 1, 1);
	const gain = a.createGain();
	gain.gain.value = g.gain;
	osc.connect(analyser);
	analyser.connect(proc);
	proc.connect(gain);
	gain.connect(a.destination);
	a.__nodes = [osc, analyser, proc, gain];
	proc.onaudioprocess = (e) => {
		proc.onaudioprocess = null;
		resolve(Array.from(e.inputBuffer.getChannelData(0)));
	};
	osc.start(0);
})`

const closeAudioJS = `(id) => {
	const a = window.__devprint.objs[id];
	if (!a) return;
	delete window.__devprint.objs[id];
	for (const n of a.__nodes || []) {
		try { if (n.stop) n.stop(); } catch (e) {}
		try { n.disconnect(); } catch (e) {}
	}
	return a.close();
}`

type audioProvider struct{ b *Browser }

func (p audioProvider) NewContext(ctx context.Context) (fingerprint.AudioContext, error) {
	var created struct {
		ID   string  `json:"id"`
		Rate float64 `json:"rate"`
	}
	if err := p.b.evalInto(ctx, &created, newAudioJS); err != nil {
		return nil, fmt.Errorf("create audio context: %w", err)
	}
	if created.ID == "" {
		return nil, fingerprint.ErrUnsupported
	}
	return &audioContext{b: p.b, id: created.ID, rate: created.Rate}, nil
}

type audioContext struct {
	b    *Browser
	id   string
	rate float64

	once   sync.Once
	cancel context.CancelFunc
}

func (a *audioContext) SampleRate() float64 { return a.rate }

func (a *audioContext) Render(ctx context.Context, g fingerprint.ToneGraph) (<-chan []float32, error) {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	out := make(chan []float32, 1)
	graph := map[string]any{
		"waveform":   g.Waveform,
		"frequency":  g.Frequency,
		"bufferSize": g.BufferSize,
		"gain":       g.Gain,
	}
	go func() {
		var samples []float32
		if err := a.b.evalInto(ctx, &samples, renderJS, a.id, graph); err != nil {
			if ctx.Err() == nil {
				log.Ctx(ctx).Debug().Err(err).Msg("audio render")
			}
			return
		}
		out <- samples
	}()
	return out, nil
}

func (a *audioContext) Close() error {
	var err error
	a.once.Do(func() {
		if a.cancel != nil {
			a.cancel()
		}
		if _, e := a.b.page.Eval(closeAudioJS, a.id); e != nil {
			err = fmt.Errorf("close audio context: %w", e)
		}
	})
	return err
}
