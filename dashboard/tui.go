package main

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// screenChangedMsg asks the view to redraw after the screen was mutated
type screenChangedMsg struct{}

type keyMap struct {
	Connect    key.Binding
	Disconnect key.Binding
	Dismiss    key.Binding
	Quit       key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Connect, k.Disconnect, k.Dismiss, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultKeys = keyMap{
	Connect:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "connect")),
	Disconnect: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "disconnect")),
	Dismiss:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("24")).Padding(0, 1)
	clockStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	connectedDot   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
	disconnectDot  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("●")
	buttonStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	disabledButton = buttonStyle.Foreground(lipgloss.Color("240")).BorderForeground(lipgloss.Color("240"))
	modalStyle     = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).Padding(1, 3)
)

func severityColor(kind Severity) lipgloss.Color {
	switch kind {
	case SeveritySuccess:
		return lipgloss.Color("42")
	case SeverityDanger:
		return lipgloss.Color("196")
	case SeverityWarning:
		return lipgloss.Color("214")
	default:
		return lipgloss.Color("39")
	}
}

// model is the bubbletea view over a Screen. Key presses start controller
// actions as commands so the event loop never waits on the agent.
type model struct {
	ctx        context.Context
	screen     *Screen
	controller *Controller
	messages   Messages
	keys       keyMap
	help       help.Model
	width      int
}

func newModel(ctx context.Context, screen *Screen, controller *Controller, msgs Messages) model {
	return model{
		ctx:        ctx,
		screen:     screen,
		controller: controller,
		messages:   msgs,
		keys:       defaultKeys,
		help:       help.New(),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Connect):
			if !m.screen.ButtonDisabled(ConnectButtonID) {
				return m, m.action(m.controller.ConnectBroker)
			}
		case key.Matches(msg, m.keys.Disconnect):
			if !m.screen.ButtonDisabled(DisconnectButtonID) {
				return m, m.action(m.controller.DisconnectBroker)
			}
		case key.Matches(msg, m.keys.Dismiss):
			if modal := m.screen.Snapshot().Modal; modal != nil {
				m.screen.HideModal(modal.ID)
			} else {
				m.screen.DismissNewestBanner()
			}
		}
	case screenChangedMsg:
		// View reads the screen directly
	}
	return m, nil
}

func (m model) action(fn func(context.Context)) tea.Cmd {
	return func() tea.Msg {
		fn(m.ctx)
		return nil
	}
}

func (m model) View() string {
	st := m.screen.Snapshot()
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.messages.Title))
	b.WriteString("  ")
	b.WriteString(clockStyle.Render(st.CurrentTime))
	b.WriteString("\n\n")

	dot := disconnectDot
	if st.IndicatorClass == ClassConnected {
		dot = connectedDot
	}
	b.WriteString(dot + " " + st.StatusText + "\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		renderButton("c", st.Buttons[ConnectButtonID]),
		" ",
		renderButton("d", st.Buttons[DisconnectButtonID]),
	))
	b.WriteString("\n")

	for _, a := range st.Banners {
		style := lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(severityColor(a.Kind)).Foreground(severityColor(a.Kind)).PaddingLeft(1)
		b.WriteString(style.Render(a.Message + "  [x]"))
		b.WriteString("\n")
	}

	if st.Modal != nil {
		box := modalStyle.BorderForeground(severityColor(st.Modal.Kind)).Render(st.Modal.Message)
		if m.width > 0 {
			box = lipgloss.PlaceHorizontal(m.width, lipgloss.Center, box)
		}
		b.WriteString("\n" + box + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func renderButton(hotkey string, state ButtonState) string {
	style := buttonStyle
	if state.Disabled {
		style = disabledButton
	}
	return style.Render("[" + hotkey + "] " + state.Label)
}
