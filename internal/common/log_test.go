package common

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoggerCapturesHistory(t *testing.T) {
	Logger().Info("history capture check", "industry", "Automotive")
	entries := LogEntries()
	if len(entries) == 0 {
		t.Fatal("expected captured log entries")
	}
	var found *LogEntry
	for i := range entries {
		if entries[i].Message == "history capture check" {
			found = &entries[i]
		}
	}
	if found == nil {
		t.Fatal("logged message missing from history")
	}
	if found.Level != "info" {
		t.Fatalf("unexpected level: %q", found.Level)
	}
	if found.Attributes["industry"] != "Automotive" {
		t.Fatalf("attribute not captured: %+v", found.Attributes)
	}
	if found.Time.IsZero() {
		t.Fatal("entry should carry a timestamp")
	}
}

func TestLogSinkBounded(t *testing.T) {
	s := newLogSink(3)
	for i := 0; i < 10; i++ {
		s.capture(slog.NewRecord(time.Now(), slog.LevelInfo, "fill", 0))
	}
	if got := len(s.entries()); got != 3 {
		t.Fatalf("sink should keep at most 3 entries, got %d", got)
	}
}
