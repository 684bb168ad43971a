package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	wrap "github.com/Temutjin2k/fieldtrack/pkg/logger/wrapper"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	var out map[string]any
	if err := json.Unmarshal([]byte(line), &out); err != nil {
		t.Fatalf("invalid json log line %q: %v", line, err)
	}
	return out
}

func TestContextValuesAreInjected(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "journey-service", LevelDebug)

	ctx := wrap.WithAction(context.Background(), "journey_start")
	ctx = wrap.WithUserID(ctx, "worker-1")
	ctx = wrap.WithJourneyID(ctx, "journey-1")

	l.Info(ctx, "journey started", "samples", 1)

	out := decodeLine(t, &buf)
	want := map[string]string{
		"message":    "journey started",
		"service":    "journey-service",
		"action":     "journey_start",
		"user_id":    "worker-1",
		"journey_id": "journey-1",
	}
	for k, v := range want {
		if out[k] != v {
			t.Fatalf("field %s = %v, want %s", k, out[k], v)
		}
	}
	if _, ok := out["timestamp"]; !ok {
		t.Fatalf("expected timestamp field")
	}
}

func TestErrorLogsMessage(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "svc", LevelError)

	l.Info(context.Background(), "dropped")
	if buf.Len() != 0 {
		t.Fatalf("info must be filtered at error level")
	}

	l.Error(context.Background(), "failed", errors.New("boom"))
	out := decodeLine(t, &buf)
	errGroup, ok := out["error"].(map[string]any)
	if !ok || errGroup["msg"] != "boom" {
		t.Fatalf("unexpected error group: %v", out["error"])
	}
}

func TestValidateLogLevel(t *testing.T) {
	if !ValidateLogLevel(LevelWarn) {
		t.Fatalf("WARN must be valid")
	}
	if ValidateLogLevel("TRACE") {
		t.Fatalf("TRACE must be invalid")
	}
}

func TestErrorPicksUpWrappedContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "svc", LevelError)

	err := wrap.Error(wrap.WithJourneyID(context.Background(), "journey-4"), errors.New("lost"))
	l.Error(wrap.WithRequestID(context.Background(), "req-1"), "finalize failed", err)

	out := decodeLine(t, &buf)
	if out["journey_id"] != "journey-4" || out["request_id"] != "req-1" {
		t.Fatalf("unexpected fields: %v", out)
	}
	if out["message"] != "finalize failed" {
		t.Fatalf("message = %v", out["message"])
	}
}
