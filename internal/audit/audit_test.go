package audit

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestLogger_LogAndEvents(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(dir)

	now := time.Now().Truncate(time.Millisecond)

	events := []Event{
		{Timestamp: now, Type: EventStart, Instance: "felix", Outcome: "changed"},
		{Timestamp: now.Add(time.Second), Type: EventStatus, Instance: "felix", Details: "running"},
		{Timestamp: now.Add(2 * time.Second), Type: EventForward, Instance: "felix", Details: "localhost:5000 -> localhost:5000"},
		{Timestamp: now.Add(3 * time.Second), Type: EventStop, Instance: "felix", Outcome: "already-in-state"},
	}

	for _, e := range events {
		if err := logger.Log(e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	result, err := logger.Events("felix")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(result) != len(events) {
		t.Fatalf("got %d events, want %d", len(result), len(events))
	}

	for i, e := range result {
		if e.Type != events[i].Type {
			t.Errorf("event %d: type = %q, want %q", i, e.Type, events[i].Type)
		}
		if e.Instance != events[i].Instance {
			t.Errorf("event %d: instance = %q, want %q", i, e.Instance, events[i].Instance)
		}
		if e.Outcome != events[i].Outcome {
			t.Errorf("event %d: outcome = %q, want %q", i, e.Outcome, events[i].Outcome)
		}
		if e.Details != events[i].Details {
			t.Errorf("event %d: details = %q, want %q", i, e.Details, events[i].Details)
		}
	}
}

func TestLogger_EventsEmpty(t *testing.T) {
	logger := NewLogger(t.TempDir())

	result, err := logger.Events("nonexistent")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(result) != 0 {
		t.Errorf("got %d events, want 0", len(result))
	}
}

func TestLogger_LogEvent(t *testing.T) {
	logger := NewLogger(t.TempDir())

	if err := logger.LogEvent(EventRestart, "web", "changed", "timeout=10s"); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	events, err := logger.Events("web")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	e := events[0]
	if e.Type != EventRestart || e.Instance != "web" || e.Outcome != "changed" || e.Details != "timeout=10s" {
		t.Errorf("event = %+v", e)
	}
	if e.Timestamp.IsZero() {
		t.Error("timestamp should be set automatically")
	}
}

func TestLogger_PathStaysInDir(t *testing.T) {
	dir := t.TempDir()
	logger := NewLogger(filepath.Join(dir, "events"))

	if err := logger.LogEvent(EventStart, "../../escape", "changed", ""); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "..", "escape.events.jsonl")); err == nil {
		t.Fatal("event log escaped the audit directory")
	}

	entries, err := os.ReadDir(filepath.Join(dir, "events"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	found := false
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".events.jsonl") {
			found = true
		}
	}
	if !found {
		t.Error("event log should be written inside the audit directory")
	}
}

func TestLogger_Tail(t *testing.T) {
	logger := NewLogger(t.TempDir())

	for i := 0; i < 5; i++ {
		logger.LogEvent(EventStatus, "tail", "", string(rune('A'+i)))
	}

	events, err := logger.Tail("tail", 2)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if len(events) != 2 || events[0].Details != "D" || events[1].Details != "E" {
		t.Errorf("Tail(2) = %+v", events)
	}

	all, _ := logger.Tail("tail", 0)
	if len(all) != 5 {
		t.Errorf("Tail(0) returned %d events, want 5", len(all))
	}
}

func TestLogger_ConcurrentWrites(t *testing.T) {
	logger := NewLogger(t.TempDir())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.LogEvent(EventStart, "busy", "changed", "")
		}()
	}
	wg.Wait()

	events, err := logger.Events("busy")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 20 {
		t.Errorf("got %d events, want 20", len(events))
	}
}

func TestLogger_Remove(t *testing.T) {
	logger := NewLogger(t.TempDir())

	logger.LogEvent(EventStart, "removable", "", "")

	if err := logger.Remove("removable"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	events, err := logger.Events("removable")
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events after remove, want 0", len(events))
	}
}

func TestLogger_RemoveNonexistent(t *testing.T) {
	logger := NewLogger(t.TempDir())

	if err := logger.Remove("nonexistent"); err != nil {
		t.Errorf("Remove should not error for nonexistent: %v", err)
	}
}
