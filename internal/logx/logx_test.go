package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"pkt.systems/hackterm/schema"
	"pkt.systems/pslog"
)

func newCaptureLogger(capture *logCapture) pslog.Logger {
	return pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
}

func TestWithSessionAddsField(t *testing.T) {
	capture := &logCapture{}
	ctx := pslog.ContextWithLogger(context.Background(), newCaptureLogger(capture))
	WithSession(ctx, "s1").Info("hello")

	entry := capture.firstEntry(t)
	if entry["session"] != "s1" {
		t.Fatalf("expected session field, got %+v", entry)
	}
}

func TestWithSessionSkipsDuplicate(t *testing.T) {
	capture := &logCapture{}
	logger := newCaptureLogger(capture).With("session", "s1")
	ctx := ContextWithSessionLogger(context.Background(), logger, "s1")
	WithSession(ctx, "s1").Info("hello")

	line := capture.buf.String()
	if bytes.Count([]byte(line), []byte(`"session"`)) != 1 {
		t.Fatalf("expected a single session field, got %s", line)
	}
}

func TestWithCommandUnknownAddsInput(t *testing.T) {
	capture := &logCapture{}
	log := WithCommand(newCaptureLogger(capture), schema.CommandUnknown, "ls")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["command"] != "unknown" {
		t.Fatalf("expected command field, got %+v", entry)
	}
	if entry["input"] != "ls" {
		t.Fatalf("expected input field, got %+v", entry)
	}
}

func TestWithCommandKnownOmitsInput(t *testing.T) {
	capture := &logCapture{}
	log := WithCommand(newCaptureLogger(capture), schema.CommandScan, "scan")
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["command"] != "scan" {
		t.Fatalf("expected command field, got %+v", entry)
	}
	if _, ok := entry["input"]; ok {
		t.Fatalf("did not expect input for known command")
	}
}

func TestCopyContextFields(t *testing.T) {
	src := ContextWithTransport(ContextWithSession(context.Background(), "s1"), "ssh")
	dst := CopyContextFields(context.Background(), src)
	if Transport(dst) != "ssh" {
		t.Fatalf("expected transport copied, got %q", Transport(dst))
	}
	if id, _ := dst.Value(sessionKey).(schema.SessionID); id != "s1" {
		t.Fatalf("expected session copied, got %q", id)
	}
}

type logCapture struct {
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *logCapture) firstEntry(t *testing.T) map[string]any {
	t.Helper()
	data := c.buf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx == -1 {
		idx = len(data)
	}
	line := bytes.TrimSpace(data[:idx])
	entry := map[string]any{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	return entry
}
