package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewHandler(t *testing.T) {
	t.Run("json format writes one JSON object per record", func(t *testing.T) {
		var buf bytes.Buffer
		slog.New(NewHandler(&buf, slog.LevelInfo, "json")).Info("Ledger saved", "username", "maria")

		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
		}
		if rec["msg"] != "Ledger saved" || rec["username"] != "maria" {
			t.Errorf("record = %v", rec)
		}
	})

	t.Run("text format drops records below the level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(NewHandler(&buf, slog.LevelWarn, "text"))
		logger.Info("hidden")
		logger.Warn("shown")
		if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
			t.Errorf("output = %q", buf.String())
		}
	})
}
