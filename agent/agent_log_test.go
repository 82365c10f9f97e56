package main

import (
	"strings"
	"testing"
	"time"
)

func fixedRing(capacity int) *LogRing {
	lr := NewLogRing(capacity)
	lr.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local) }
	return lr
}

func TestLogRingNewestFirst(t *testing.T) {
	lr := fixedRing(10)
	lr.Write([]byte("MQTT: first\nMQTT: second\n"))

	got := lr.Entries(0, "")
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if !strings.HasSuffix(got[0], "second") || !strings.HasSuffix(got[1], "first") {
		t.Fatalf("unexpected order %v", got)
	}
	if got[0] != "2025-03-01 10:00:00 - MQTT - INFO - second" {
		t.Fatalf("unexpected format %q", got[0])
	}
}

func TestLogRingWrapsAndLimits(t *testing.T) {
	lr := fixedRing(3)
	for _, line := range []string{"a", "b", "c", "d", "e"} {
		lr.Write([]byte("Agent: " + line + "\n"))
	}

	got := lr.Entries(0, "")
	if len(got) != 3 {
		t.Fatalf("expected capacity-bounded 3 entries, got %d", len(got))
	}
	if !strings.HasSuffix(got[0], "e") || !strings.HasSuffix(got[2], "c") {
		t.Fatalf("unexpected entries %v", got)
	}

	if got := lr.Entries(2, ""); len(got) != 2 {
		t.Fatalf("max entries not applied: %v", got)
	}
}

func TestLogRingLevelFilter(t *testing.T) {
	lr := fixedRing(10)
	lr.Write([]byte("MQTT: Connected\nMQTT: ERROR connection lost: EOF\nWebServer: Warning - slow\n"))

	if got := lr.Entries(0, "error"); len(got) != 1 || !strings.Contains(got[0], "connection lost") {
		t.Fatalf("error filter: %v", got)
	}
	if got := lr.Entries(0, "WARNING"); len(got) != 1 {
		t.Fatalf("warning filter: %v", got)
	}
	if got := lr.Entries(0, "DEBUG"); len(got) != 0 {
		t.Fatalf("debug filter: %v", got)
	}
}

func TestLogRingPartialLines(t *testing.T) {
	lr := fixedRing(10)
	lr.Write([]byte("MQTT: hal"))
	if got := lr.Entries(0, ""); len(got) != 0 {
		t.Fatalf("partial line recorded early: %v", got)
	}
	lr.Write([]byte("f\n"))
	if got := lr.Entries(0, ""); len(got) != 1 || !strings.HasSuffix(got[0], "half") {
		t.Fatalf("joined line: %v", got)
	}
}

func TestLogRingStripsStdPrefix(t *testing.T) {
	lr := fixedRing(10)
	lr.Write([]byte("2024/12/31 23:59:58 WebServer: API starting\n"))

	got := lr.Entries(0, "")
	if len(got) != 1 || got[0] != "2024-12-31 23:59:58 - WebServer - INFO - API starting" {
		t.Fatalf("unexpected %v", got)
	}
}

func TestLogRingSubscribe(t *testing.T) {
	lr := fixedRing(10)
	lines, unsubscribe := lr.Subscribe()

	lr.Write([]byte("MQTT: ping\n"))
	select {
	case line := <-lines:
		if !strings.HasSuffix(line, "ping") {
			t.Fatalf("unexpected line %q", line)
		}
	case <-time.After(time.Second):
		t.Fatalf("no line delivered")
	}

	unsubscribe()
	unsubscribe()
	if _, ok := <-lines; ok {
		t.Fatalf("channel should be closed")
	}
	lr.Write([]byte("MQTT: after\n"))
}
