package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/shortontech/devprint/internal/event"
	"github.com/shortontech/devprint/internal/metrics"
	"github.com/shortontech/devprint/pkg/config"
)

type Sink interface {
	Start(ctx context.Context) error
	Enqueue(e event.Event) error
	Close() error
	Name() string // label used in metrics and logs
}

// FromConfig builds the sinks named in cfg.Outputs, unstarted.
func FromConfig(cfg config.SinksConfig, m *metrics.Metrics) ([]Sink, error) {
	var out []Sink
	for _, name := range cfg.Outputs {
		switch name {
		case "log":
			out = append(out, NewLogSink(cfg.LogPath))
		case "kafka":
			out = append(out, NewKafkaSink(cfg.Kafka, m))
		default:
			return nil, fmt.Errorf("unknown sink %q", name)
		}
	}
	return out, nil
}

// Fanout hands every event to each sink. A failing sink does not stop the
// others.
type Fanout struct {
	sinks   []Sink
	metrics *metrics.Metrics
}

func NewFanout(m *metrics.Metrics, sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks, metrics: m}
}

// Start starts every sink. If one fails, those already started are closed.
func (f *Fanout) Start(ctx context.Context) error {
	for i, s := range f.sinks {
		if err := s.Start(ctx); err != nil {
			for _, started := range f.sinks[:i] {
				_ = started.Close()
			}
			return fmt.Errorf("start %s sink: %w", s.Name(), err)
		}
		log.Ctx(ctx).Info().Str("sink", s.Name()).Msg("sink started")
	}
	return nil
}

// Emit enqueues e on every sink and returns the joined enqueue errors.
func (f *Fanout) Emit(ctx context.Context, e event.Event) error {
	var errs []error
	for _, s := range f.sinks {
		f.metrics.IncrementSinkEvents(s.Name())
		if err := s.Enqueue(e); err != nil {
			f.metrics.IncrementSinkErrors(s.Name(), "enqueue")
			log.Ctx(ctx).Error().Err(err).Str("sink", s.Name()).Str("event_id", e.EventID).Msg("enqueue failed")
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) Close() error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s sink: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) Len() int { return len(f.sinks) }
