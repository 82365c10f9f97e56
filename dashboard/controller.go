package main

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goodsign/monday"
)

// clockLayout is the long form: weekday, day, month, year and time of day
const clockLayout = "Monday, 2 January 2006, 15:04:05"

// Options tune the controller
type Options struct {
	ClockInterval  time.Duration
	StatusInterval time.Duration
	Locale         monday.Locale
	Messages       Messages
	Now            func() time.Time
}

// Controller drives the dashboard: clock, status polling and broker actions
type Controller struct {
	elements  Elements
	api       AgentAPI
	presenter Presenter
	opts      Options

	connecting    atomic.Bool
	disconnecting atomic.Bool
	polling       atomic.Bool
}

// brokerAction describes one of the two symmetric broker actions
type brokerAction struct {
	name      string
	button    Button
	inFlight  *atomic.Bool
	call      func(ctx context.Context) (ActionResult, error)
	busyText  string
	idleLabel string
	success   string
	okKind    Severity
	errPrefix string
	failed    string
}

// NewController creates a controller writing to elements
func NewController(elements Elements, api AgentAPI, presenter Presenter, opts Options) *Controller {
	if opts.ClockInterval <= 0 {
		opts.ClockInterval = time.Second
	}
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = 10 * time.Second
	}
	if opts.Locale == "" {
		opts.Locale = monday.LocaleRuRU
	}
	if opts.Messages == (Messages{}) {
		opts.Messages = MessagesFor("ru")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		elements:  elements,
		api:       api,
		presenter: presenter,
		opts:      opts,
	}
}

// FormatTime renders t in the controller's locale
func (c *Controller) FormatTime(t time.Time) string {
	return monday.Format(t, clockLayout, c.opts.Locale)
}

// RenderCurrentTime writes the current time to the clock element
func (c *Controller) RenderCurrentTime() {
	if c.elements.CurrentTime == nil {
		return
	}
	c.elements.CurrentTime.SetText(c.FormatTime(c.opts.Now()))
}

// RefreshStatus fetches the broker status and updates the indicator, the
// status text and the buttons. Failures are logged and leave the display alone.
func (c *Controller) RefreshStatus(ctx context.Context) {
	status, err := c.api.Status(ctx)
	if err != nil {
		log.Printf("Dashboard: failed to fetch status: %v", err)
		return
	}

	msgs := c.opts.Messages
	class, text := ClassDisconnected, msgs.StatusDisconnected
	if status.Connected {
		class, text = ClassConnected, msgs.StatusConnected
	}
	if c.elements.StatusIndicator != nil {
		c.elements.StatusIndicator.SetClass(class)
	}
	if c.elements.StatusText != nil {
		c.elements.StatusText.SetText(text)
	}

	if c.elements.ConnectButton != nil && c.elements.DisconnectButton != nil {
		c.elements.ConnectButton.SetDisabled(status.Connected)
		c.elements.DisconnectButton.SetDisabled(!status.Connected)
	}
}

// ConnectBroker asks the agent to connect and reports the outcome
func (c *Controller) ConnectBroker(ctx context.Context) {
	msgs := c.opts.Messages
	c.runAction(ctx, brokerAction{
		name:      "connect",
		button:    c.elements.ConnectButton,
		inFlight:  &c.connecting,
		call:      c.api.Connect,
		busyText:  msgs.Connecting,
		idleLabel: connectGlyph + " " + msgs.ConnectLabel,
		success:   msgs.ConnectSuccess,
		okKind:    SeveritySuccess,
		errPrefix: msgs.ConnectError,
		failed:    msgs.ConnectFailed,
	})
}

// DisconnectBroker asks the agent to disconnect and reports the outcome
func (c *Controller) DisconnectBroker(ctx context.Context) {
	msgs := c.opts.Messages
	c.runAction(ctx, brokerAction{
		name:      "disconnect",
		button:    c.elements.DisconnectButton,
		inFlight:  &c.disconnecting,
		call:      c.api.Disconnect,
		busyText:  msgs.Disconnecting,
		idleLabel: disconnectGlyph + " " + msgs.DisconnectLabel,
		success:   msgs.DisconnectSuccess,
		okKind:    SeverityInfo,
		errPrefix: msgs.DisconnectError,
		failed:    msgs.DisconnectFailed,
	})
}

// runAction disables the button, calls the agent and notifies. The button is
// always restored before the status resync, so the resync has the last word
// on which button is usable.
func (c *Controller) runAction(ctx context.Context, a brokerAction) {
	if !a.inFlight.CompareAndSwap(false, true) {
		log.Printf("Dashboard: %s already in progress", a.name)
		return
	}
	defer a.inFlight.Store(false)

	if a.button != nil {
		a.button.SetDisabled(true)
		a.button.SetLabel(busyLabel(a.busyText))
	}

	defer func() {
		if a.button != nil {
			a.button.SetLabel(a.idleLabel)
			a.button.SetDisabled(false)
		}
		c.RefreshStatus(ctx)
	}()

	result, err := a.call(ctx)
	if err != nil {
		log.Printf("Dashboard: %s request failed: %v", a.name, err)
		c.presenter.Notify(a.failed, SeverityDanger)
		return
	}

	if result.Success {
		c.presenter.Notify(a.success, a.okKind)
		return
	}
	log.Printf("Dashboard: agent refused %s: %s", a.name, result.Message)
	c.presenter.Notify(a.errPrefix+result.Message, SeverityDanger)
}

// Run renders the clock and status right away, then keeps both fresh until
// ctx is done. Each poll runs on its own goroutine so a slow agent never
// holds up the clock. A tick is skipped while the previous poll is pending.
func (c *Controller) Run(ctx context.Context) {
	var wg sync.WaitGroup
	poll := func() {
		if ctx.Err() != nil {
			return
		}
		if !c.polling.CompareAndSwap(false, true) {
			log.Println("Dashboard: previous status poll still pending, skipping tick")
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer c.polling.Store(false)
			c.RefreshStatus(ctx)
		}()
	}

	c.RenderCurrentTime()
	poll()

	clock := time.NewTicker(c.opts.ClockInterval)
	defer clock.Stop()
	status := time.NewTicker(c.opts.StatusInterval)
	defer status.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case <-clock.C:
			c.RenderCurrentTime()
		case <-status.C:
			poll()
		}
	}
}
