package sink

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shortontech/devprint/internal/event"
)

func sampleEvent(id string) event.Event {
	return event.Event{
		EventID:     id,
		TS:          "2026-01-02T03:04:05Z",
		Type:        event.TypeCapture,
		Fingerprint: event.FingerprintInfo{Hash: "abc123", Confidence: 85, HashVerified: true},
	}
}

func TestLogSinkWriter(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriterLogSink(&buf)
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Enqueue(sampleEvent("e1")); err != nil {
		t.Fatal(err)
	}

	var line struct {
		EventID string      `json:"event_id"`
		Hash    string      `json:"hash"`
		Message string      `json:"message"`
		Event   event.Event `json:"event"`
	}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("invalid json line %q: %v", buf.String(), err)
	}
	if line.EventID != "e1" || line.Hash != "abc123" || line.Message != "capture" {
		t.Errorf("unexpected fields %+v", line)
	}
	if line.Event.Fingerprint.Confidence != 85 {
		t.Errorf("embedded event = %+v", line.Event)
	}
}

func TestLogSinkNotStarted(t *testing.T) {
	s := NewLogSink("")
	if err := s.Enqueue(sampleEvent("e1")); !errors.Is(err, errNotStarted) {
		t.Errorf("err = %v, want errNotStarted", err)
	}
}

func TestLogSinkFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ndjson")

	for i, id := range []string{"first", "second"} {
		s := NewLogSink(path)
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
		if err := s.Enqueue(sampleEvent(id)); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("close %d: %v", i, err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var ids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var line struct {
			EventID string `json:"event_id"`
		}
		if err := json.Unmarshal(sc.Bytes(), &line); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		ids = append(ids, line.EventID)
	}
	if len(ids) != 2 || ids[0] != "first" || ids[1] != "second" {
		t.Errorf("ids = %v, want [first second]", ids)
	}
}

func TestLogSinkBadPath(t *testing.T) {
	s := NewLogSink(filepath.Join(t.TempDir(), "missing", "events.ndjson"))
	if err := s.Start(context.Background()); err == nil {
		t.Error("expected error opening file in missing directory")
	}
	if err := s.Close(); err != nil {
		t.Errorf("close after failed start: %v", err)
	}
}
