package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestGetGlobalEventLoggerReturnsSingletonNoopWhenUnset(t *testing.T) {
	SetGlobalEventLogger(nil)

	a := GetGlobalEventLogger()
	b := GetGlobalEventLogger()

	if a == nil || b == nil {
		t.Fatal("expected non-nil noop logger")
	}
	if a != b {
		t.Fatal("expected singleton noop logger instance")
	}
}

func TestLogSampleRefreshEmitsJSONWithBaseAttributes(t *testing.T) {
	var buf bytes.Buffer
	el := NewEventLoggerWithWriter("hivemon", "panel-1", &buf)

	el.LogSampleRefresh(12.5, 48.0, 22.1, 35.9, 4)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if entry["msg"] != "sample_refresh" {
		t.Fatalf("expected msg sample_refresh, got %v", entry["msg"])
	}
	if entry["service"] != "hivemon" {
		t.Fatalf("expected service attribute, got %v", entry["service"])
	}
	if entry["host"] != "panel-1" {
		t.Fatalf("expected host attribute, got %v", entry["host"])
	}
	if entry["cpu_percent"] != 12.5 {
		t.Fatalf("expected cpu_percent 12.5, got %v", entry["cpu_percent"])
	}
}

func TestLogProbeDegradedEmitsWarning(t *testing.T) {
	var buf bytes.Buffer
	el := NewEventLoggerWithWriter("hivemon", "panel-1", &buf)

	el.LogProbeDegraded("network", errors.New("no counters"))

	out := buf.String()
	if !strings.Contains(out, `"level":"WARN"`) {
		t.Fatalf("expected WARN level, got %s", out)
	}
	if !strings.Contains(out, `"probe":"network"`) {
		t.Fatalf("expected probe attribute, got %s", out)
	}
}

func TestLogServerErrorEmitsWarning(t *testing.T) {
	var buf bytes.Buffer
	el := NewEventLoggerWithWriter("hivemon", "panel-1", &buf)

	el.LogServerError(errors.New("accept tcp: use of closed network connection"))

	out := buf.String()
	if !strings.Contains(out, `"level":"WARN"`) {
		t.Fatalf("expected WARN level, got %s", out)
	}
	if !strings.Contains(out, `"msg":"server_error"`) {
		t.Fatalf("expected server_error event, got %s", out)
	}
	if !strings.Contains(out, "closed network connection") {
		t.Fatalf("expected error attribute, got %s", out)
	}
}
