package main

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestParseSeverity(t *testing.T) {
	tests := map[string]Severity{
		"success": SeveritySuccess,
		"danger":  SeverityDanger,
		"error":   SeverityDanger,
		"ERROR":   SeverityDanger,
		"warning": SeverityWarning,
		"info":    SeverityInfo,
		"bogus":   SeverityInfo,
		"":        SeverityInfo,
	}
	for in, want := range tests {
		if got := ParseSeverity(in); got != want {
			t.Errorf("ParseSeverity(%q)=%q want %q", in, got, want)
		}
	}
}

func TestBannerPresenterAutoDismiss(t *testing.T) {
	screen := NewScreen(MessagesFor("en"))
	p := NewBannerPresenter(screen, 20*time.Millisecond, nil)

	p.Notify("saved", SeveritySuccess)
	st := screen.Snapshot()
	if len(st.Banners) != 1 || st.Banners[0].Message != "saved" || st.Banners[0].Kind != SeveritySuccess {
		t.Fatalf("banner not shown: %+v", st.Banners)
	}

	waitFor(t, "banner dismissal", func() bool { return len(screen.Snapshot().Banners) == 0 })
}

func TestBannerPresenterStacksNewestFirst(t *testing.T) {
	screen := NewScreen(MessagesFor("en"))
	p := NewBannerPresenter(screen, time.Hour, nil)

	p.Notify("first", SeverityInfo)
	p.Notify("second", SeverityWarning)

	st := screen.Snapshot()
	if len(st.Banners) != 2 || st.Banners[0].Message != "second" {
		t.Fatalf("unexpected banners %+v", st.Banners)
	}

	screen.DismissNewestBanner()
	if st := screen.Snapshot(); len(st.Banners) != 1 || st.Banners[0].Message != "first" {
		t.Fatalf("unexpected banners after dismiss %+v", st.Banners)
	}
}

func TestModalPresenterStaleTimerKeepsNewerMessage(t *testing.T) {
	screen := NewScreen(MessagesFor("en"))
	p := NewModalPresenter(screen, 30*time.Millisecond, nil)

	p.Notify("old", SeverityInfo)
	time.Sleep(15 * time.Millisecond)
	p.Notify("new", SeverityDanger)

	// the first timer fires around here and must not close "new"
	time.Sleep(20 * time.Millisecond)
	st := screen.Snapshot()
	if st.Modal == nil || st.Modal.Message != "new" {
		t.Fatalf("newer modal closed by stale timer: %+v", st.Modal)
	}

	waitFor(t, "modal dismissal", func() bool { return screen.Snapshot().Modal == nil })
}

type recordedAlert struct {
	mu    sync.Mutex
	calls []notification
}

func (r *recordedAlert) alert(message string, kind Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, notification{message: message, kind: kind})
}

func TestPresentersFallBackWithoutSurface(t *testing.T) {
	for _, style := range []string{NotifyBanner, NotifyModal} {
		t.Run(style, func(t *testing.T) {
			rec := &recordedAlert{}
			p, err := NewPresenter(style, nil, rec.alert)
			if err != nil {
				t.Fatalf("NewPresenter err=%v", err)
			}

			p.Notify("broker down", SeverityDanger)

			if len(rec.calls) != 1 || rec.calls[0].message != "broker down" || rec.calls[0].kind != SeverityDanger {
				t.Fatalf("fallback not used: %+v", rec.calls)
			}
		})
	}
}

func TestPresentersNormalizeSeverity(t *testing.T) {
	screen := NewScreen(MessagesFor("en"))
	NewBannerPresenter(screen, time.Hour, nil).Notify("banner", Severity("error"))
	NewModalPresenter(screen, time.Hour, nil).Notify("modal", Severity("bogus"))

	st := screen.Snapshot()
	if len(st.Banners) != 1 || st.Banners[0].Kind != SeverityDanger {
		t.Fatalf("error alias not mapped to danger: %+v", st.Banners)
	}
	if st.Modal == nil || st.Modal.Kind != SeverityInfo {
		t.Fatalf("unknown kind not mapped to info: %+v", st.Modal)
	}

	rec := &recordedAlert{}
	NewBannerPresenter(nil, 0, rec.alert).Notify("fallback", Severity("ERROR"))
	if len(rec.calls) != 1 || rec.calls[0].kind != SeverityDanger {
		t.Fatalf("fallback kind not normalized: %+v", rec.calls)
	}
}

func TestNewPresenterUnknownStyle(t *testing.T) {
	if _, err := NewPresenter("toast", nil, nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSystemAlert(t *testing.T) {
	var buf bytes.Buffer
	SystemAlert(&buf)("Connection error: X", SeverityDanger)

	out := buf.String()
	if !strings.Contains(out, "\a") || !strings.Contains(out, "DANGER") || !strings.Contains(out, "Connection error: X") {
		t.Fatalf("unexpected alert output %q", out)
	}
}
