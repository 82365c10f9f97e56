package main

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Severity selects how a notification is rendered
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityDanger  Severity = "danger"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ParseSeverity maps a name to a Severity. "error" is an alias for danger and
// anything unknown is info. Presenters normalize every kind through it.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success":
		return SeveritySuccess
	case "danger", "error":
		return SeverityDanger
	case "warning":
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Default auto-dismiss delays
const (
	BannerDelay = 5 * time.Second
	ModalDelay  = 3 * time.Second
)

// Presenter shows a transient severity-tagged message
type Presenter interface {
	Notify(message string, kind Severity)
}

// BannerSurface hosts inline dismissible alerts
type BannerSurface interface {
	ShowBanner(message string, kind Severity) int
	DismissBanner(id int)
}

// ModalSurface hosts a single modal dialog
type ModalSurface interface {
	ShowModal(message string, kind Severity) int
	HideModal(id int)
}

// AlertFunc is the last-resort notification used when no surface exists
type AlertFunc func(message string, kind Severity)

// SystemAlert writes a colored alert with a terminal bell to w and returns
// after the write completes
func SystemAlert(w io.Writer) AlertFunc {
	return func(message string, kind Severity) {
		c := color.New(color.Bold)
		switch kind {
		case SeveritySuccess:
			c.Add(color.FgGreen)
		case SeverityDanger:
			c.Add(color.FgRed)
		case SeverityWarning:
			c.Add(color.FgYellow)
		default:
			c.Add(color.FgCyan)
		}
		c.Fprintf(w, "\a[%s] %s\n", strings.ToUpper(string(kind)), message)
	}
}

// BannerPresenter shows messages as inline banners that dismiss themselves
type BannerPresenter struct {
	surface  BannerSurface
	delay    time.Duration
	fallback AlertFunc
}

// NewBannerPresenter creates a banner presenter. surface may be nil, in which
// case every message goes to fallback.
func NewBannerPresenter(surface BannerSurface, delay time.Duration, fallback AlertFunc) *BannerPresenter {
	if delay <= 0 {
		delay = BannerDelay
	}
	if fallback == nil {
		fallback = SystemAlert(color.Error)
	}
	return &BannerPresenter{surface: surface, delay: delay, fallback: fallback}
}

// Notify implements Presenter
func (p *BannerPresenter) Notify(message string, kind Severity) {
	kind = ParseSeverity(string(kind))
	if p.surface == nil {
		log.Printf("Dashboard: alert container not found, falling back to system alert")
		p.fallback(message, kind)
		return
	}
	id := p.surface.ShowBanner(message, kind)
	time.AfterFunc(p.delay, func() { p.surface.DismissBanner(id) })
}

// ModalPresenter shows messages in a modal dialog that closes itself
type ModalPresenter struct {
	surface  ModalSurface
	delay    time.Duration
	fallback AlertFunc
}

// NewModalPresenter creates a modal presenter. surface may be nil.
func NewModalPresenter(surface ModalSurface, delay time.Duration, fallback AlertFunc) *ModalPresenter {
	if delay <= 0 {
		delay = ModalDelay
	}
	if fallback == nil {
		fallback = SystemAlert(color.Error)
	}
	return &ModalPresenter{surface: surface, delay: delay, fallback: fallback}
}

// Notify implements Presenter
func (p *ModalPresenter) Notify(message string, kind Severity) {
	kind = ParseSeverity(string(kind))
	if p.surface == nil {
		log.Printf("Dashboard: notification modal not found, falling back to system alert")
		p.fallback(message, kind)
		return
	}
	id := p.surface.ShowModal(message, kind)
	time.AfterFunc(p.delay, func() { p.surface.HideModal(id) })
}

// NewPresenter picks the renderer named by style
func NewPresenter(style string, screen *Screen, fallback AlertFunc) (Presenter, error) {
	switch style {
	case NotifyBanner:
		if screen == nil {
			return NewBannerPresenter(nil, BannerDelay, fallback), nil
		}
		return NewBannerPresenter(screen, BannerDelay, fallback), nil
	case NotifyModal:
		if screen == nil {
			return NewModalPresenter(nil, ModalDelay, fallback), nil
		}
		return NewModalPresenter(screen, ModalDelay, fallback), nil
	default:
		return nil, fmt.Errorf("unknown notification style %q", style)
	}
}
