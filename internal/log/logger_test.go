package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentReport, JSON: true, Output: &buf})
	l.Info("generated", FieldCount, 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json log line %q: %v", buf.String(), err)
	}
	if rec[FieldComponent] != ComponentReport {
		t.Errorf("component = %v", rec[FieldComponent])
	}
	if rec[FieldCount] != float64(3) {
		t.Errorf("count = %v", rec[FieldCount])
	}
}

func TestFromContextFallback(t *testing.T) {
	l := FromContext(context.Background())
	if l == nil || l.Component() != "unknown" {
		t.Fatalf("unexpected fallback logger: %+v", l)
	}
}

func TestRequestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentApp, Output: &buf})

	var seenID string
	h := RequestMiddleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestIDFromContext(r.Context())
		if FromContext(r.Context()).Component() != ComponentHTTP {
			t.Errorf("context logger component = %q", FromContext(r.Context()).Component())
		}
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/relatorios", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	h.ServeHTTP(rr, req)

	if !strings.HasPrefix(seenID, "req_") {
		t.Fatalf("request id = %q", seenID)
	}
	if rr.Header().Get("X-Request-ID") != seenID {
		t.Fatalf("response header id mismatch")
	}
	out := buf.String()
	for _, want := range []string{"Request completed", "status_code=418", "client_ip=10.0.0.1", "level=WARN"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:5555"
	if got := ClientIP(req); got != "192.168.1.5" {
		t.Errorf("ClientIP = %q", got)
	}
	req.Header.Set("X-Real-IP", "172.16.0.9")
	if got := ClientIP(req); got != "172.16.0.9" {
		t.Errorf("ClientIP with X-Real-IP = %q", got)
	}
}
