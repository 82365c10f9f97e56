package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

const eventTimeLayout = "2006-01-02 15:04:05"

// LogTypes maps localized journal names to the names the collector uses
var LogTypes = map[string]string{
	"Система":                     "System",
	"Приложение":                  "Application",
	"Безопасность":                "Security",
	"Настройка":                   "Setup",
	"Перенаправление DNS-сервера": "DNS Server",
	"Active Directory":            "Directory Service",
}

// DefaultLogTypes are the journals read when no type is requested
var DefaultLogTypes = []string{"System", "Application", "Security"}

// Event levels, numbered like the Windows event log types
const (
	LevelInformation  = 1
	LevelWarning      = 2
	LevelError        = 3
	LevelAuditSuccess = 4
	LevelAuditFailure = 5
)

// EventLevels names each event level
var EventLevels = map[int]string{
	LevelInformation:  "Information",
	LevelWarning:      "Warning",
	LevelError:        "Error",
	LevelAuditSuccess: "Audit Success",
	LevelAuditFailure: "Audit Failure",
}

// ErrAlreadyCollecting is returned by Start while a collection is running
var ErrAlreadyCollecting = errors.New("log collection already running")

// ResolveLogType maps a localized journal name to its collector name.
// Unknown names are passed through.
func ResolveLogType(name string) string {
	if eng, ok := LogTypes[name]; ok {
		return eng
	}
	return name
}

// Event is one system journal entry
type Event struct {
	ID        int    `json:"id"`
	Time      string `json:"time"`
	Source    string `json:"source"`
	Level     int    `json:"level"`
	LevelName string `json:"level_name"`
	LogType   string `json:"log_type"`
	Message   string `json:"message"`
}

// Record converts the event into a broker log record
func (e Event) Record() map[string]any {
	return map[string]any{
		"id":         e.ID,
		"time":       e.Time,
		"source":     e.Source,
		"level":      e.Level,
		"level_name": e.LevelName,
		"log_type":   e.LogType,
		"message":    e.Message,
	}
}

// EventFilter narrows a list of events. Zero values match everything.
type EventFilter struct {
	Level  int
	Search string
}

// Match reports whether ev passes the filter. Search is a case-insensitive
// substring match over every displayed column.
func (f EventFilter) Match(ev Event) bool {
	if f.Level != 0 && ev.Level != f.Level {
		return false
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	if search == "" {
		return true
	}
	for _, field := range []string{ev.Time, ev.LevelName, ev.Source, ev.LogType, strconv.Itoa(ev.ID), ev.Message} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

// FilterEvents returns the events matching f, never nil
func FilterEvents(events []Event, f EventFilter) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		if f.Match(ev) {
			out = append(out, ev)
		}
	}
	return out
}

// EventSource reads the events of one journal between from and to
type EventSource interface {
	ReadEvents(ctx context.Context, logType string, from, to time.Time, emit func(Event)) error
}

// SimulatedSource generates plausible journal events. It stands in for the
// native event log on hosts that have none.
type SimulatedSource struct {
	mu         sync.Mutex
	rng        *rand.Rand
	perJournal int
}

var simulatedSources = map[string][]string{
	"System":            {"Microsoft-Windows-Kernel-General", "Service Control Manager", "Microsoft-Windows-Power-Troubleshooter", "DCOM", "Microsoft-Windows-Kernel-Power"},
	"Application":       {"Application Hang", "Application Error", "Windows Error Reporting", "ESENT", "Microsoft-Windows-RestartManager"},
	"Security":          {"Microsoft-Windows-Security-Auditing", "Microsoft-Windows-Eventlog", "Microsoft-Windows-Audit"},
	"Setup":             {"Microsoft-Windows-Setup", "Microsoft-Windows-Servicing", "Microsoft-Windows-WindowsUpdateClient"},
	"DNS Server":        {"Microsoft-Windows-DNS-Client", "Microsoft-Windows-DNS-Server", "DNSAPI"},
	"Directory Service": {"Microsoft-Windows-ActiveDirectory_DomainService", "NTDS ISAM", "Microsoft-Windows-GroupPolicy"},
}

var simulatedMessages = map[string][]string{
	"System":            {"The system started after a reboot", "The service started successfully", "A device driver failed to initialize", "The computer entered sleep mode", "DHCP connection timed out for the network adapter"},
	"Application":       {"The application terminated with an error", "The application is not responding", "Product installation completed successfully", "An application update is available", "A component failed to initialize"},
	"Security":          {"An account successfully logged on", "An account failed to log on", "A user account was created", "A user password was changed", "A user was added to the Administrators group"},
	"Setup":             {"Update installation completed successfully", "Update installation failed", "Update installation started", "Update download completed", "A restart is required to finish installing updates"},
	"DNS Server":        {"Host name could not be resolved", "The DNS server started", "A DNS zone was updated", "A DNS zone failed to load", "A DNS query was forwarded to an external server"},
	"Directory Service": {"Domain replication succeeded", "Domain replication failed", "Group policy changed", "The domain schema was updated", "Active Directory database defragmentation completed"},
}

// levelWeights is the share of each level among simulated events
var levelWeights = []struct {
	level  int
	weight float64
}{
	{LevelInformation, 0.60},
	{LevelWarning, 0.20},
	{LevelError, 0.15},
	{LevelAuditSuccess, 0.03},
	{LevelAuditFailure, 0.02},
}

// NewSimulatedSource creates a source emitting perJournal events per read
func NewSimulatedSource(perJournal int, seed int64) *SimulatedSource {
	return &SimulatedSource{
		rng:        rand.New(rand.NewSource(seed)),
		perJournal: perJournal,
	}
}

// ReadEvents implements EventSource
func (s *SimulatedSource) ReadEvents(ctx context.Context, logType string, from, to time.Time, emit func(Event)) error {
	for i := 0; i < s.perJournal; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		emit(s.generate(logType, from, to))
	}
	return nil
}

func (s *SimulatedSource) generate(logType string, from, to time.Time) Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := from
	if span := to.Sub(from); span > 0 {
		at = from.Add(time.Duration(s.rng.Int63n(int64(span) + 1)))
	}

	level := LevelInformation
	r := s.rng.Float64()
	for _, lw := range levelWeights {
		if r < lw.weight {
			level = lw.level
			break
		}
		r -= lw.weight
	}

	source := "Unknown-" + logType
	if sources := simulatedSources[logType]; len(sources) > 0 {
		source = sources[s.rng.Intn(len(sources))]
	}
	message := "Event in journal " + logType
	if messages := simulatedMessages[logType]; len(messages) > 0 {
		message = messages[s.rng.Intn(len(messages))]
	}

	return Event{
		ID:        1000 + s.rng.Intn(9000),
		Time:      at.Format(eventTimeLayout),
		Source:    source,
		Level:     level,
		LevelName: EventLevels[level],
		LogType:   logType,
		Message:   message,
	}
}

// FileSource reads exported events from <dir>/<journal>.jsonl, one JSON
// event per line. A journal without a file has no events.
type FileSource struct {
	dir string
}

// NewFileSource creates a source reading exports from dir
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// ReadEvents implements EventSource
func (s *FileSource) ReadEvents(ctx context.Context, logType string, from, to time.Time, emit func(Event)) error {
	f, err := os.Open(filepath.Join(s.dir, logType+".jsonl"))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open %s export: %w", logType, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var ev Event
		if err := json.Unmarshal([]byte(text), &ev); err != nil {
			log.Printf("Collector: skipping %s line %d: %v", logType, line, err)
			continue
		}
		at, err := time.ParseInLocation(eventTimeLayout, ev.Time, from.Location())
		if err != nil {
			log.Printf("Collector: skipping %s line %d: bad time %q", logType, line, ev.Time)
			continue
		}
		if at.Before(from) || at.After(to) {
			continue
		}
		if ev.LogType == "" {
			ev.LogType = logType
		}
		if ev.LevelName == "" {
			ev.LevelName = EventLevels[ev.Level]
		}
		emit(ev)
	}
	return scanner.Err()
}

// LogCollector reads system journals in the background and hands each event
// to a callback
type LogCollector struct {
	source   EventSource
	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

const collectorStopTimeout = 2 * time.Second

// NewLogCollector creates a collector. interval paces streamed events.
func NewLogCollector(source EventSource, interval time.Duration) *LogCollector {
	return &LogCollector{
		source:   source,
		interval: interval,
		now:      time.Now,
	}
}

// IsCollecting returns true while a background collection runs
func (lc *LogCollector) IsCollecting() bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.done != nil
}

func resolveLogTypes(logTypes []string) []string {
	if len(logTypes) == 0 {
		return DefaultLogTypes
	}
	out := make([]string, 0, len(logTypes))
	for _, lt := range logTypes {
		out = append(out, ResolveLogType(lt))
	}
	return out
}

// Start collects the given journals over the last hoursBack hours in the
// background. It returns ErrAlreadyCollecting if a collection is running.
func (lc *LogCollector) Start(logTypes []string, hoursBack int, callback func(Event)) error {
	if hoursBack <= 0 {
		return fmt.Errorf("hours_back must be positive, got %d", hoursBack)
	}
	if callback == nil {
		callback = func(Event) {}
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	if lc.done != nil {
		log.Println("Collector: WARNING collection already running")
		return ErrAlreadyCollecting
	}

	journals := resolveLogTypes(logTypes)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.cancel, lc.done = cancel, done

	go lc.collect(ctx, done, journals, hoursBack, callback)

	log.Printf("Collector: Started collecting %s for the last %d h", strings.Join(journals, ", "), hoursBack)
	return nil
}

func (lc *LogCollector) collect(ctx context.Context, done chan struct{}, journals []string, hoursBack int, callback func(Event)) {
	defer func() {
		lc.mu.Lock()
		if lc.done == done {
			lc.cancel()
			lc.cancel, lc.done = nil, nil
		}
		lc.mu.Unlock()
		close(done)
	}()

	to := lc.now()
	from := to.Add(-time.Duration(hoursBack) * time.Hour)
	log.Printf("Collector: Collecting events from %s to %s", from.Format(eventTimeLayout), to.Format(eventTimeLayout))

	emit := func(ev Event) {
		callback(ev)
		if lc.interval > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(lc.interval):
			}
		}
	}

	for _, journal := range journals {
		if err := lc.source.ReadEvents(ctx, journal, from, to, emit); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Collector: ERROR reading %s journal: %v", journal, err)
		}
	}
	log.Println("Collector: Collection finished")
}

// Stop cancels a running collection and waits briefly for it to end.
// Calling it while idle is a no-op.
func (lc *LogCollector) Stop() {
	lc.mu.Lock()
	cancel, done := lc.cancel, lc.done
	lc.mu.Unlock()

	if done == nil {
		return
	}

	cancel()
	select {
	case <-done:
		log.Println("Collector: Collection stopped")
	case <-time.After(collectorStopTimeout):
		log.Println("Collector: WARNING collection did not stop in time")
	}
}

// Fetch reads one journal, or the default journals for "" and "all",
// synchronously and returns the matching events newest first
func (lc *LogCollector) Fetch(ctx context.Context, logType string, hoursBack int, filter EventFilter) ([]Event, error) {
	if hoursBack <= 0 {
		return nil, fmt.Errorf("hours_back must be positive, got %d", hoursBack)
	}

	journals := DefaultLogTypes
	if logType != "" && logType != "all" {
		journals = []string{ResolveLogType(logType)}
	}

	to := lc.now()
	from := to.Add(-time.Duration(hoursBack) * time.Hour)

	var events []Event
	for _, journal := range journals {
		err := lc.source.ReadEvents(ctx, journal, from, to, func(ev Event) {
			events = append(events, ev)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read %s journal: %w", journal, err)
		}
	}

	events = FilterEvents(events, filter)
	slices.SortStableFunc(events, func(a, b Event) int {
		return strings.Compare(b.Time, a.Time)
	})
	return events, nil
}
