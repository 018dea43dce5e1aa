package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"artsync/internal/artsync"
)

func TestTabHandler_Handle(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		opID    string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			opID:    "op-123",
			level:   slog.LevelInfo,
			message: "sync published",
			want:    "2024-06-15T14:30:45Z\tINFO\top-123\tsync published\n",
		},
		{
			name:    "debug level",
			opID:    "op-456",
			level:   slog.LevelDebug,
			message: "blob created",
			want:    "2024-06-15T14:30:45Z\tDEBUG\top-456\tblob created\n",
		},
		{
			name:    "with record attrs",
			opID:    "op-789",
			level:   slog.LevelError,
			message: "sync step failed",
			attrs:   []slog.Attr{slog.String("repository", "acme/library"), slog.Int("files", 3)},
			want:    "2024-06-15T14:30:45Z\tERROR\top-789\tsync step failed\trepository=acme/library\tfiles=3\n",
		},
		{
			name:    "secrets are redacted",
			opID:    "op-1",
			level:   slog.LevelInfo,
			message: "configured",
			attrs:   []slog.Attr{slog.Any("token", artsync.Secret("ghp_supersecret"))},
			want:    "2024-06-15T14:30:45Z\tINFO\top-1\tconfigured\ttoken=[redacted]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &tabHandler{w: &buf, opID: tt.opID}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			for _, a := range tt.attrs {
				r.AddAttrs(a)
			}

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestTabHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &tabHandler{w: &buf, opID: "op-1", attrs: []slog.Attr{slog.String("a", "1")}}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "server")}).(*tabHandler)

	if len(h.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(h.attrs))
	}

	r := slog.NewRecord(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), slog.LevelInfo, "listening", 0)
	r.AddAttrs(slog.String("addr", ":8080"))
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "\ta=1\tcomponent=server\taddr=:8080\n") {
		t.Errorf("attrs missing or out of order: %q", got)
	}
}

func TestTabHandler_Enabled(t *testing.T) {
	all := &tabHandler{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if !all.Enabled(context.Background(), level) {
			t.Errorf("Enabled(%v) without level = false, want true", level)
		}
	}

	info := &tabHandler{level: slog.LevelInfo}
	if info.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Enabled(DEBUG) at INFO = true, want false")
	}
	if !info.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("Enabled(WARN) at INFO = false, want true")
	}
}

func TestNewLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")

	logger, f, err := newLogger(dir, "test-op")
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer f.Close()

	logger.Info("hello", "token", artsync.Secret("ghp_supersecret"))

	data, err := os.ReadFile(filepath.Join(dir, "artsync.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "\ttest-op\thello\ttoken=[redacted]") {
		t.Errorf("log file = %q", data)
	}
	if strings.Contains(string(data), "supersecret") {
		t.Error("log file contains the raw token")
	}
}
