package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func bufferLogger(buf *bytes.Buffer) *Logger {
	return New(Config{Component: ComponentHTTP, Handler: NewTextHandler(buf, slog.LevelDebug)})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestMiddlewareCarriesLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := bufferLogger(&buf)

	handler := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "inside")
		})))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	out := buf.String()
	if !strings.Contains(out, "request_id=req-1") || !strings.Contains(out, "component=http") {
		t.Errorf("log line missing context: %s", out)
	}
}

func TestFromContextDefault(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Errorf("FromContext without logger = %+v", l)
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(bufferLogger(&buf))
	ctx := ContextWithRequestID(context.Background(), "abc")
	r := httptest.NewRequest(http.MethodPost, "/daily?date=2025-03-14", nil)

	sl.LogHTTPEnd(ctx, r, http.StatusUnprocessableEntity, 12, "10.0.0.1")
	if !strings.Contains(buf.String(), "request_id=abc") {
		t.Errorf("request id missing: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "status_code=422") {
		t.Errorf("4xx should log at warn: %s", buf.String())
	}
	buf.Reset()

	sl.LogMutation(ctx, OpDaily, "2025-03-14", "Groceries", NewFields())
	if out := buf.String(); !strings.Contains(out, "operation=daily_edit") || !strings.Contains(out, "category=Groceries") {
		t.Errorf("mutation line = %s", out)
	}
	buf.Reset()

	sl.LogError(ctx, "failed", errors.New("disk full"), ComponentStorage, OpAdd, nil)
	if out := buf.String(); !strings.Contains(out, "level=ERROR") || !strings.Contains(out, `error="disk full"`) {
		t.Errorf("error line = %s", out)
	}
}

func TestWithComponentTagsOnce(t *testing.T) {
	var buf bytes.Buffer
	bufferLogger(&buf).WithComponent(ComponentWorker).Warn("refresh failed", FieldCount, 2)

	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=worker") {
		t.Errorf("component should be tagged once: %s", out)
	}
	if !strings.Contains(out, "count=2") {
		t.Errorf("args missing: %s", out)
	}
}
