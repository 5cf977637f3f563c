package log

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestConsoleLevel(t *testing.T) {
	var buf bytes.Buffer
	if err := SetStd(&buf, "warn"); err != nil {
		t.Fatalf("SetStd: %v", err)
	}
	Info().Msg("hidden")
	Warn().Int("round", 7).Msg("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info event passed a warn filter: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "round=7") {
		t.Fatalf("warn event missing: %q", out)
	}
	if err := SetStd(&buf, "loud"); err == nil {
		t.Fatalf("bad level accepted")
	}
}

func TestSQLiteSink(t *testing.T) {
	var buf bytes.Buffer
	if err := SetStd(&buf, "info"); err != nil {
		t.Fatalf("SetStd: %v", err)
	}
	if _, err := GetLastNLogs(1); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("GetLastNLogs before Init = %v", err)
	}
	if err := Init(filepath.Join(t.TempDir(), "logs.db")); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer Close()

	Printf("trial %d done", 1)
	Info().Str("target", "0").Msg("trial 2 done")

	entries, err := GetLastNLogs(10)
	if err != nil {
		t.Fatalf("GetLastNLogs: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if !strings.Contains(entries[0].LogData, "trial 1 done") {
		t.Fatalf("oldest entry = %q", entries[0].LogData)
	}
	if !strings.Contains(entries[1].LogData, `"target":"0"`) {
		t.Fatalf("newest entry = %q", entries[1].LogData)
	}
	if !strings.Contains(buf.String(), "trial 2 done") {
		t.Fatalf("console sink lost events once sqlite was attached")
	}
	if err := Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := GetLastNLogs(1); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("GetLastNLogs after Close = %v", err)
	}
}
