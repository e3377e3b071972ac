package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{Level: "warn", Format: "json"}.New(&buf)

	l.Info().Msg("hidden")
	l.Warn().Str("file", "a.bson").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", lines[0], err)
	}
	if entry["message"] != "shown" || entry["file"] != "a.bson" || entry["level"] != "warn" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{Level: "debug", Format: "text"}.New(&buf)

	l.Debug().Int("features", 3).Msg("decoded")

	out := buf.String()
	if !strings.Contains(out, "decoded") || !strings.Contains(out, "features=") {
		t.Errorf("unexpected console output %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("expected console output, got JSON %q", out)
	}
}

func TestLevelDefault(t *testing.T) {
	tests := []struct {
		level    string
		expected string
	}{
		{"", "info"},
		{"bogus", "info"},
		{"trace", "trace"},
		{"error", "error"},
	}

	for _, tt := range tests {
		if got := (Logger{Level: tt.level}).level().String(); got != tt.expected {
			t.Errorf("level %q: expected %s, got %s", tt.level, tt.expected, got)
		}
	}
}
