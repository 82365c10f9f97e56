package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/goodsign/monday"
	"github.com/spf13/pflag"
)

const Version = "v1.0.0"

func main() {
	var (
		configFile    = pflag.StringP("config", "c", "dashboard.yaml", "Configuration file")
		agentURL      = pflag.StringP("agent", "a", "", "Agent base URL (overrides agent_url)")
		locale        = pflag.String("locale", "", "Clock locale, e.g. ru_RU or en_US")
		language      = pflag.StringP("lang", "l", "", "Interface language (ru, en)")
		notifications = pflag.StringP("notifications", "n", "", "Notification style (banner, modal)")
		logFile       = pflag.String("log-file", "", "Log file for the terminal UI")
		headless      = pflag.Bool("headless", false, "No terminal UI: print status and alerts to the console")
		action        = pflag.String("action", "", "Headless one-shot action: status, connect or disconnect")
		version       = pflag.BoolP("version", "v", false, "Print version and exit")
	)

	pflag.Parse()

	if *version {
		fmt.Printf("logagent-dashboard %s\n", Version)
		os.Exit(0)
	}

	config, err := LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyFlag(&config.AgentURL, *agentURL)
	applyFlag(&config.Locale, *locale)
	applyFlag(&config.Language, *language)
	applyFlag(&config.Notifications, *notifications)
	applyFlag(&config.LogFile, *logFile)
	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	api, err := NewAPIClient(config.AgentURL, nil)
	if err != nil {
		log.Fatalf("Failed to create API client: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	msgs := MessagesFor(config.Language)
	opts := Options{
		ClockInterval:  config.ClockInterval,
		StatusInterval: config.StatusInterval,
		Locale:         monday.Locale(config.Locale),
		Messages:       msgs,
	}

	if *headless || *action != "" {
		if err := runHeadless(ctx, *action, api, opts, os.Stdout); err != nil {
			log.Fatalf("Dashboard: %v", err)
		}
		return
	}

	// The terminal belongs to the UI, so logs go to a file
	f, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer f.Close()
	log.SetOutput(f)
	log.Printf("Dashboard %s starting, agent %s", Version, config.AgentURL)

	screen := NewScreen(msgs)
	presenter, err := NewPresenter(config.Notifications, screen, SystemAlert(color.Error))
	if err != nil {
		log.Fatalf("Failed to create presenter: %v", err)
	}
	controller := NewController(screen.Elements(), api, presenter, opts)

	program := tea.NewProgram(newModel(ctx, screen, controller, msgs), tea.WithAltScreen(), tea.WithContext(ctx))
	screen.SetOnChange(func() { program.Send(screenChangedMsg{}) })

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		controller.Run(runCtx)
	}()

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		log.Printf("Dashboard: UI error: %v", err)
	}
	cancel()
	<-done
	log.Println("Dashboard stopped")
}

func applyFlag(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

// runHeadless drives the controller without a screen. Status changes are
// printed to out and notifications fall back to console alerts.
func runHeadless(ctx context.Context, action string, api AgentAPI, opts Options, out io.Writer) error {
	var (
		mu   sync.Mutex
		last string
	)
	elements := Elements{
		StatusText: TextFunc(func(text string) {
			mu.Lock()
			defer mu.Unlock()
			if text != last {
				fmt.Fprintln(out, text)
				last = text
			}
		}),
	}
	controller := NewController(elements, api, NewBannerPresenter(nil, 0, SystemAlert(out)), opts)

	switch action {
	case "status":
		controller.RefreshStatus(ctx)
	case "connect":
		controller.ConnectBroker(ctx)
	case "disconnect":
		controller.DisconnectBroker(ctx)
	case "":
		controller.Run(ctx)
	default:
		return fmt.Errorf("unknown action %q", action)
	}
	return nil
}
