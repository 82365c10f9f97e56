package main

// Button IDs, used as keys of ScreenState.Buttons
const (
	ConnectButtonID    = "connect-rabbitmq"
	DisconnectButtonID = "disconnect-rabbitmq"
)

// Indicator classes
const (
	ClassConnected    = "status-indicator status-connected"
	ClassDisconnected = "status-indicator status-disconnected"
)

// TextElement displays a line of text
type TextElement interface {
	SetText(text string)
}

// ClassElement carries a visual class
type ClassElement interface {
	SetClass(class string)
}

// Button is an action button
type Button interface {
	SetDisabled(disabled bool)
	SetLabel(label string)
}

// TextFunc adapts a func to TextElement
type TextFunc func(string)

// SetText implements TextElement
func (f TextFunc) SetText(text string) { f(text) }

// ClassFunc adapts a func to ClassElement
type ClassFunc func(string)

// SetClass implements ClassElement
func (f ClassFunc) SetClass(class string) { f(class) }

// Elements are the display parts the controller writes to. Any of them may be
// nil when the surface does not have it.
type Elements struct {
	CurrentTime      TextElement
	StatusIndicator  ClassElement
	StatusText       TextElement
	ConnectButton    Button
	DisconnectButton Button
}

// Busy and idle label glyphs
const (
	busyGlyph       = "◌"
	connectGlyph    = "⏻"
	disconnectGlyph = "⏼"
)

func busyLabel(text string) string {
	return busyGlyph + " " + text
}
