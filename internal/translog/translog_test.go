package translog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoggerWritesPerPartyNDJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger, err := New(dir, 16)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	logger.Record(Event{
		Party:     "+15551234567",
		Direction: DirectionInbound,
		Text:      "hello",
	})

	path := filepath.Join(dir, "p15551234567.ndjson")
	line := waitForLogLine(t, path)

	var got Event
	if err := json.Unmarshal([]byte(line), &got); err != nil {
		t.Fatalf("Failed to unmarshal log line: %v", err)
	}
	if got.Text != "hello" {
		t.Errorf("Unexpected text %q", got.Text)
	}
	if got.TurnID == "" {
		t.Error("Expected a turn ID to be assigned")
	}
	if got.Timestamp.IsZero() {
		t.Error("Expected a timestamp to be assigned")
	}
}

func TestLoggerCloseFlushesQueue(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger, err := New(dir, 64)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for i := 0; i < 10; i++ {
		logger.Record(Event{Party: "+1", Direction: DirectionOutbound, Text: "reply"})
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "p1.ndjson"))
	if err != nil {
		t.Fatalf("Failed to read transcript: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 10 {
		t.Errorf("Expected 10 lines after close, got %d", len(lines))
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	t.Parallel()

	var logger *Logger
	logger.Record(Event{Party: "+1", Text: "ignored"})
	if err := logger.Close(); err != nil {
		t.Errorf("Close on nil logger must be a no-op, got %v", err)
	}
}

func waitForLogLine(t *testing.T, path string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil && len(data) > 0 {
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			if len(lines) > 0 {
				return lines[len(lines)-1]
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for log file %s", path)
	return ""
}
