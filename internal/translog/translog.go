// Package translog writes per-party conversation transcripts as NDJSON.
package translog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
)

// Direction of a transcript turn relative to the service.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Event is one transcript line.
type Event struct {
	TurnID    string    `json:"turn_id"`
	Timestamp time.Time `json:"ts"`
	Party     string    `json:"party"`
	Direction string    `json:"direction"`
	Agent     string    `json:"agent,omitempty"`
	Text      string    `json:"text"`
}

// Logger appends transcript events to one NDJSON file per party.
//
// Events pass through a bounded queue drained by a single writer goroutine;
// when the queue is full events are dropped rather than blocking a turn.
type Logger struct {
	dir    string
	queue  chan Event
	done   chan struct{}
	closed sync.Once
}

// New creates a transcript logger rooted at dir.
func New(dir string, queueSize int) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create transcript directory: %w", err)
	}
	if queueSize <= 0 {
		queueSize = 1000
	}

	l := &Logger{
		dir:   dir,
		queue: make(chan Event, queueSize),
		done:  make(chan struct{}),
	}
	go l.drain()
	return l, nil
}

// Record queues a transcript event. Safe to call on a nil logger; never
// blocks the calling turn.
func (l *Logger) Record(e Event) {
	if l == nil {
		return
	}
	if e.TurnID == "" {
		e.TurnID = ksuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	select {
	case l.queue <- e:
	default:
		slog.Warn("Transcript queue full, dropping event", "party", e.Party)
	}
}

// Close flushes queued events and stops the writer goroutine.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.closed.Do(func() {
		close(l.queue)
		<-l.done
	})
	return nil
}

func (l *Logger) drain() {
	defer close(l.done)
	for e := range l.queue {
		if err := l.write(e); err != nil {
			slog.Error("Transcript write failed", "party", e.Party, "error", err)
		}
	}
}

func (l *Logger) write(e Event) error {
	path := filepath.Join(l.dir, sanitizeParty(e.Party)+".ndjson")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open transcript file: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode transcript event: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append transcript line: %w", err)
	}
	return nil
}

// sanitizeParty makes a phone number safe to use as a file name.
func sanitizeParty(party string) string {
	var b strings.Builder
	for _, r := range party {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '_':
			b.WriteRune(r)
		case r == '+':
			// keep E.164 numbers distinguishable from bare digits
			b.WriteString("p")
		default:
			b.WriteString("_")
		}
	}
	if b.Len() == 0 {
		return "unknown"
	}
	return b.String()
}
