package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shortontech/devprint/internal/event"
)

var errNotStarted = errors.New("sink not started")

// LogSink writes one JSON line per capture. With an empty path it writes
// through the process logger.
type LogSink struct {
	path string

	mu     sync.Mutex
	file   *os.File
	logger zerolog.Logger
	ready  bool
}

func NewLogSink(path string) *LogSink { return &LogSink{path: path} }

// NewWriterLogSink writes events to w, already started.
func NewWriterLogSink(w io.Writer) *LogSink {
	return &LogSink{logger: zerolog.New(w).With().Timestamp().Logger(), ready: true}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	if s.path == "" {
		s.logger = log.Ctx(ctx).With().Str("sink", "log").Logger()
		s.ready = true
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open event log %s: %w", s.path, err)
	}
	s.file = f
	s.logger = zerolog.New(f).With().Timestamp().Logger()
	s.ready = true
	return nil
}

func (s *LogSink) Enqueue(e event.Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return errNotStarted
	}
	s.logger.Log().
		Str("event_id", e.EventID).
		Str("hash", e.Fingerprint.Hash).
		RawJSON("event", b).
		Msg("capture")
	return nil
}

func (s *LogSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.ready = false
	return err
}
