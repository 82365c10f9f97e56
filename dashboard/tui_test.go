package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func newTestModel(api *fakeAPI) (model, *Screen) {
	msgs := MessagesFor("en")
	screen := NewScreen(msgs)
	controller := NewController(screen.Elements(), api, NewBannerPresenter(screen, 0, nil), Options{Messages: msgs})
	return newModel(context.Background(), screen, controller, msgs), screen
}

func TestModelConnectKey(t *testing.T) {
	api := &fakeAPI{connectResult: ActionResult{Success: true}}
	m, _ := newTestModel(api)

	_, cmd := m.Update(runeKey('c'))
	if cmd == nil {
		t.Fatalf("expected a command for connect")
	}
	cmd()

	if _, connects := api.calls(); connects != 1 {
		t.Fatalf("connect calls=%d", connects)
	}
}

func TestModelIgnoresDisabledButton(t *testing.T) {
	api := &fakeAPI{connected: true}
	m, screen := newTestModel(api)
	m.controller.RefreshStatus(context.Background())

	if !screen.ButtonDisabled(ConnectButtonID) {
		t.Fatalf("connect button should be disabled while connected")
	}
	if _, cmd := m.Update(runeKey('c')); cmd != nil {
		t.Fatalf("disabled button must not start an action")
	}
	if _, cmd := m.Update(runeKey('d')); cmd == nil {
		t.Fatalf("disconnect should be available")
	}
}

func TestModelQuit(t *testing.T) {
	m, _ := newTestModel(&fakeAPI{})
	for _, msg := range []tea.KeyMsg{runeKey('q'), {Type: tea.KeyCtrlC}} {
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Fatalf("%s: expected quit command", msg)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("%s: expected tea.QuitMsg", msg)
		}
	}
}

func TestModelDismiss(t *testing.T) {
	m, screen := newTestModel(&fakeAPI{})
	screen.ShowBanner("hello", SeverityInfo)
	screen.ShowModal("modal", SeverityWarning)

	m.Update(runeKey('x'))
	st := screen.Snapshot()
	if st.Modal != nil || len(st.Banners) != 1 {
		t.Fatalf("first dismiss should close the modal: %+v", st)
	}

	m.Update(runeKey('x'))
	if st := screen.Snapshot(); len(st.Banners) != 0 {
		t.Fatalf("second dismiss should close the banner: %+v", st.Banners)
	}
}

func TestModelView(t *testing.T) {
	m, screen := newTestModel(&fakeAPI{connected: true})
	m.controller.RefreshStatus(context.Background())
	screen.ShowBanner("Connected to RabbitMQ", SeveritySuccess)

	view := m.View()
	for _, want := range []string{"RabbitMQ: Connected", "Connect to RabbitMQ", "Disconnect from RabbitMQ", "Connected to RabbitMQ", "Log collection agent"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestScreenChangeHook(t *testing.T) {
	screen := NewScreen(MessagesFor("en"))
	calls := 0
	screen.SetOnChange(func() { calls++ })

	el := screen.Elements()
	el.StatusText.SetText("x")
	el.ConnectButton.SetDisabled(true)
	screen.DismissBanner(42)

	if calls != 3 {
		t.Fatalf("hook called %d times, want 3", calls)
	}
	if !screen.ButtonDisabled(ConnectButtonID) || screen.ButtonDisabled(DisconnectButtonID) {
		t.Fatalf("unexpected button state")
	}
}

func TestRunHeadless(t *testing.T) {
	var out bytes.Buffer
	api := &fakeAPI{connectResult: ActionResult{Success: true}}
	opts := Options{Messages: MessagesFor("en")}

	if err := runHeadless(context.Background(), "connect", api, opts, &out); err != nil {
		t.Fatalf("runHeadless err=%v", err)
	}
	got := out.String()
	if !strings.Contains(got, "[SUCCESS] Connected to RabbitMQ") || !strings.Contains(got, "RabbitMQ: Connected") {
		t.Fatalf("unexpected output %q", got)
	}

	if err := runHeadless(context.Background(), "reboot", api, opts, &out); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}
