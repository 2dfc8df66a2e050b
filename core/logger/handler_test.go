package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestHandler(buf *bytes.Buffer, format logFormat) (*asyncWriter, *structuredHandler) {
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	return aw, newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
}

func closeWriter(t *testing.T, aw *asyncWriter) {
	t.Helper()
	if err := aw.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	aw, handler := newTestHandler(buf, formatKV)
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	log := slog.New(handler).With("component", "conversation")
	LogEvent(ctx, log, slog.LevelInfo, "state.changed",
		slog.String("status", "ok"),
		slog.String("from_state", "menu"),
		slog.String("to_state", "add"),
	)
	closeWriter(t, aw)

	line := strings.TrimSpace(buf.String())
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=conversation", "event=state.changed", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	aw, handler := newTestHandler(buf, formatJSON)
	ctx := WithRID(context.Background(), "rid-json")

	log := slog.New(handler).With("component", "service.expenses")
	LogEvent(ctx, log, slog.LevelError, "expense.create",
		slog.String("status", "fail"),
		slog.Int64("owner_id", 5),
		slog.String("err", "boom"),
	)
	closeWriter(t, aw)

	line := strings.TrimSpace(buf.String())
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"service.expenses"`, `"event":"expense.create"`, `"status":"fail"`, `"rid":"rid-json"`, `"owner_id":5`, `"err":"boom"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	for _, format := range []logFormat{formatKV, formatJSON} {
		buf := &bytes.Buffer{}
		aw, handler := newTestHandler(buf, format)
		rawRID := "123:456:789"
		ctx := WithRID(context.Background(), rawRID)
		LogEvent(ctx, slog.New(handler), slog.LevelInfo, "rid.test")
		closeWriter(t, aw)

		line := buf.String()
		switch format {
		case formatKV:
			if !strings.Contains(line, "rid="+CompactRID(rawRID)) || strings.Contains(line, "rid_full=") {
				t.Fatalf("kv: unexpected rid rendering: %s", line)
			}
		case formatJSON:
			if !strings.Contains(line, `"rid":"`+CompactRID(rawRID)+`"`) || !strings.Contains(line, `"rid_full":"`+rawRID+`"`) {
				t.Fatalf("json: unexpected rid rendering: %s", line)
			}
		}
	}
}

func TestStructuredHandlerDurationAndDefaults(t *testing.T) {
	buf := &bytes.Buffer{}
	aw, handler := newTestHandler(buf, formatKV)
	slog.New(handler).Info("",
		slog.Duration("duration", 1500*time.Microsecond),
		slog.String("outcome", "bogus"),
		slog.String("empty", ""),
	)
	closeWriter(t, aw)

	line := buf.String()
	for _, want := range []string{"component=app", "event=unknown", "duration_ms=2"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %s", want, line)
		}
	}
	for _, absent := range []string{"outcome=", "empty="} {
		if strings.Contains(line, absent) {
			t.Fatalf("did not expect %q in %s", absent, line)
		}
	}
}

func TestStructuredHandlerLevelFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	aw, handler := newTestHandler(buf, formatKV)
	slog.New(handler).Debug("hidden")
	closeWriter(t, aw)
	if buf.Len() != 0 {
		t.Fatalf("debug line leaked: %s", buf.String())
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	want := []bool{true, false, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("allow #%d = %v, want %v", i, got[i], want[i])
		}
	}
	s.Set(0, 0)
	if !s.Allow() {
		t.Fatal("disabled sampler must allow everything")
	}
}

func TestParseRatioSpec(t *testing.T) {
	cases := map[string][2]int{
		"1/10": {1, 10},
		"20":   {1, 20},
		"0":    {0, 0},
		"x/y":  {0, 0},
		"":     {0, 0},
	}
	for in, want := range cases {
		n, d := parseRatioSpec(in)
		if n != want[0] || d != want[1] {
			t.Fatalf("parseRatioSpec(%q) = %d/%d, want %d/%d", in, n, d, want[0], want[1])
		}
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("ab\x00c\u200bdef", 4); got != "abcd" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got := Sanitize("a\tb\nc"); got != "a\tb\nc" {
		t.Fatalf("Sanitize kept whitespace wrong: %q", got)
	}
}
