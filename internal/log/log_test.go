package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestRedactingHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		attrs    []any
		masked   []string
		unmasked []string
	}{
		{
			name:   "cookie key",
			attrs:  []any{"cookie", "session=abc123"},
			masked: []string{"session=abc123"},
		},
		{
			name:   "keyword in key",
			attrs:  []any{"access_token", "tok-1"},
			masked: []string{"tok-1"},
		},
		{
			name:   "bearer value under innocent key",
			attrs:  []any{"value", "Bearer s3cr3t"},
			masked: []string{"s3cr3t"},
		},
		{
			name:     "urls are kept",
			attrs:    []any{"url", "https://docs.example/guide", "depth", 2},
			unmasked: []string{"https://docs.example/guide", "depth=2"},
		},
		{
			name:     "header map keeps names",
			attrs:    []any{"headers", map[string]string{"Authorization": "Basic dXNlcjpwYXNz", "Accept-Language": "en"}},
			masked:   []string{"dXNlcjpwYXNz"},
			unmasked: []string{"Authorization", "Accept-Language", "en"},
		},
		{
			name:   "group attributes",
			attrs:  []any{slog.Group("site", slog.String("cookie", "sid=1"))},
			masked: []string{"sid=1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewLogger(&buf, Options{})
			logger.Info("event", tt.attrs...)

			out := buf.String()
			for _, s := range tt.masked {
				if strings.Contains(out, s) {
					t.Errorf("output leaked %q: %s", s, out)
				}
			}
			for _, s := range tt.unmasked {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q: %s", s, out)
				}
			}
		})
	}
}

func TestRedactingHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewLogger(&buf, Options{}).With("authorization", "Bearer abc")
	logger.Info("event")

	if strings.Contains(buf.String(), "abc") {
		t.Errorf("With attributes leaked: %s", buf.String())
	}
	if !strings.Contains(buf.String(), MaskValue) {
		t.Errorf("expected mask in output: %s", buf.String())
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("default level hides debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewLogger(&buf, Options{})
		logger.Debug("hidden")
		logger.Info("shown")
		if strings.Contains(buf.String(), "hidden") {
			t.Error("debug record written without verbose")
		}
		if !strings.Contains(buf.String(), "shown") {
			t.Error("info record missing")
		}
	})

	t.Run("verbose shows debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		NewLogger(&buf, Options{Verbose: true}).Debug("visible")
		if !strings.Contains(buf.String(), "visible") {
			t.Error("debug record missing in verbose mode")
		}
	})

	t.Run("json output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		NewLogger(&buf, Options{JSON: true}).Warn("page fetch failed", "url", "https://docs.example/x")

		var rec map[string]any
		if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
			t.Fatalf("output is not JSON: %v: %s", err, buf.String())
		}
		if rec["msg"] != "page fetch failed" || rec["url"] != "https://docs.example/x" {
			t.Errorf("unexpected record %v", rec)
		}
	})
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	rec := NewRecorder()
	logger := rec.Logger().With("component", "crawler")
	logger.Warn("page fetch failed", "url", "https://docs.example/a")
	logger.WithGroup("stats").Info("crawl finished", "pages", 3)
	logger.Warn("page fetch failed", "url", "https://docs.example/b")

	if got := rec.Count(slog.LevelWarn, "page fetch failed"); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
	entries := rec.Find("page fetch failed")
	if entries[1].Attrs["url"].String() != "https://docs.example/b" {
		t.Errorf("unexpected url attr %v", entries[1].Attrs["url"])
	}
	if entries[0].Attrs["component"].String() != "crawler" {
		t.Error("With attributes not recorded")
	}

	finished := rec.Find("crawl finished")
	if len(finished) != 1 {
		t.Fatalf("expected one crawl finished entry, got %d", len(finished))
	}
	if finished[0].Attrs["stats.pages"].Int64() != 3 {
		t.Errorf("grouped attr = %v", finished[0].Attrs["stats.pages"])
	}
	if len(rec.Entries()) != 3 {
		t.Errorf("Entries() len = %d", len(rec.Entries()))
	}
}
