package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebServer serves the agent API consumed by the dashboard
type WebServer struct {
	config    *AppConfig
	broker    Broker
	logs      *LogRing
	collector *LogCollector
	upgrader  websocket.Upgrader
	now       func() time.Time
}

// StatusResponse is the body of GET /api/status
type StatusResponse struct {
	RabbitMQConnected bool       `json:"rabbitmq_connected"`
	LogStreaming      bool       `json:"log_streaming"`
	CurrentTime       string     `json:"current_time"`
	SystemInfo        SystemInfo `json:"system_info"`
}

// SystemInfo describes the host the agent runs on
type SystemInfo struct {
	Hostname     string `json:"hostname"`
	System       string `json:"system"`
	Architecture string `json:"architecture"`
	CPUs         int    `json:"cpus"`
	GoVersion    string `json:"go_version"`
}

// ActionResponse is the {success, message} body returned by POST endpoints
type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// AgentLogsResponse is the body of GET /api/agent-logs
type AgentLogsResponse struct {
	Success bool     `json:"success"`
	Logs    []string `json:"logs,omitempty"`
	Message string   `json:"message,omitempty"`
}

// EventLogsResponse is the body of POST /api/fetch-windows-logs
type EventLogsResponse struct {
	Success bool    `json:"success"`
	Logs    []Event `json:"logs"`
	Message string  `json:"message,omitempty"`
}

// CollectRequest is the optional body of the collection endpoints
type CollectRequest struct {
	LogType   string `json:"log_type"`
	HoursBack int    `json:"hours_back"`
	Level     int    `json:"level"`
	Search    string `json:"search"`
}

// NewWebServer creates a new web server
func NewWebServer(config *AppConfig, broker Broker, logs *LogRing, collector *LogCollector) *WebServer {
	return &WebServer{
		config:    config,
		broker:    broker,
		logs:      logs,
		collector: collector,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		now: time.Now,
	}
}

// Router builds the HTTP handler
func (ws *WebServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/api/status", ws.handleStatus)
	r.Post("/api/connect-rabbitmq", ws.handleConnect)
	r.Post("/api/disconnect-rabbitmq", ws.handleDisconnect)
	r.Post("/api/publish-log", ws.handlePublishLog)
	r.Get("/api/agent-logs", ws.handleAgentLogs)
	r.Get("/api/agent-logs/stream", ws.handleAgentLogStream)
	r.Post("/api/fetch-windows-logs", ws.handleFetchEvents)
	r.Post("/api/start-streaming", ws.handleStartStreaming)
	r.Post("/api/stop-streaming", ws.handleStopStreaming)

	return r
}

// Start starts the web server
func (ws *WebServer) Start() error {
	addr := fmt.Sprintf(":%d", ws.config.Web.Port)
	log.Printf("WebServer: API starting on http://localhost%s", addr)
	return http.ListenAndServe(addr, ws.Router())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("WebServer: failed to encode response: %v", err)
	}
}

// decodeOptionalJSON decodes the request body into v. An empty body is allowed.
func decodeOptionalJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func systemInfo() SystemInfo {
	hostname, _ := os.Hostname()
	return SystemInfo{
		Hostname:     hostname,
		System:       runtime.GOOS,
		Architecture: runtime.GOARCH,
		CPUs:         runtime.NumCPU(),
		GoVersion:    runtime.Version(),
	}
}

// handleStatus returns the broker connection state
func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, StatusResponse{
		RabbitMQConnected: ws.broker.IsConnected(),
		LogStreaming:      ws.collector.IsCollecting(),
		CurrentTime:       ws.now().Format("2006-01-02 15:04:05"),
		SystemInfo:        systemInfo(),
	})
}

// handleConnect connects to RabbitMQ with the configured settings
func (ws *WebServer) handleConnect(w http.ResponseWriter, r *http.Request) {
	settings := ws.config.RabbitMQ

	if err := ws.broker.Connect(settings); err != nil {
		log.Printf("WebServer: RabbitMQ connection to %s failed: %v", settings.Host, err)
		writeJSON(w, ActionResponse{Success: false, Message: fmt.Sprintf("Failed to connect to RabbitMQ: %v", err)})
		return
	}

	log.Printf("WebServer: Connected to RabbitMQ at %s", settings.Host)
	writeJSON(w, ActionResponse{Success: true, Message: "Connected to RabbitMQ"})
}

// handleDisconnect stops streaming and drops the RabbitMQ connection
func (ws *WebServer) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	ws.collector.Stop()
	ws.broker.Disconnect()
	log.Println("WebServer: Disconnected from RabbitMQ")
	writeJSON(w, ActionResponse{Success: true, Message: "Disconnected from RabbitMQ"})
}

// handlePublishLog forwards one log record to the broker
func (ws *WebServer) handlePublishLog(w http.ResponseWriter, r *http.Request) {
	var record map[string]any
	if err := decodeOptionalJSON(r, &record); err != nil {
		writeJSON(w, ActionResponse{Success: false, Message: fmt.Sprintf("Invalid JSON: %v", err)})
		return
	}
	if len(record) == 0 {
		writeJSON(w, ActionResponse{Success: false, Message: "No data to publish"})
		return
	}

	if _, ok := record["id"]; !ok {
		record["id"] = uuid.NewString()
	}

	if err := ws.broker.PublishLog(record); err != nil {
		log.Printf("WebServer: failed to publish log %v: %v", record["id"], err)
		writeJSON(w, ActionResponse{Success: false, Message: fmt.Sprintf("Failed to publish log: %v", err)})
		return
	}

	log.Printf("WebServer: Published log %v", record["id"])
	writeJSON(w, ActionResponse{Success: true, Message: "Log published"})
}

// handleAgentLogs returns recent agent log lines, newest first
func (ws *WebServer) handleAgentLogs(w http.ResponseWriter, r *http.Request) {
	maxEntries := 1000
	if raw := r.URL.Query().Get("max_entries"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, AgentLogsResponse{Success: false, Message: fmt.Sprintf("invalid max_entries %q", raw)})
			return
		}
		maxEntries = n
	}

	logs := ws.logs.Entries(maxEntries, r.URL.Query().Get("level"))
	writeJSON(w, AgentLogsResponse{Success: true, Logs: logs})
}

// handleAgentLogStream pushes each new agent log line as a websocket text frame
func (ws *WebServer) handleAgentLogStream(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebServer: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	lines, unsubscribe := ws.logs.Subscribe()
	defer unsubscribe()

	// The reader only exists to notice the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return
			}
		}
	}
}

// handleFetchEvents reads system journal events synchronously
func (ws *WebServer) handleFetchEvents(w http.ResponseWriter, r *http.Request) {
	var req CollectRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeJSON(w, EventLogsResponse{Success: false, Message: fmt.Sprintf("Invalid JSON: %v", err)})
		return
	}
	if req.HoursBack == 0 {
		req.HoursBack = ws.config.Collector.HoursBack
	}

	events, err := ws.collector.Fetch(r.Context(), req.LogType, req.HoursBack, EventFilter{Level: req.Level, Search: req.Search})
	if err != nil {
		log.Printf("WebServer: failed to fetch events: %v", err)
		writeJSON(w, EventLogsResponse{Success: false, Message: fmt.Sprintf("Failed to fetch logs: %v", err)})
		return
	}

	logType := req.LogType
	if logType == "" {
		logType = "all"
	}
	log.Printf("WebServer: Fetched %d events for journal %s", len(events), logType)
	writeJSON(w, EventLogsResponse{Success: true, Logs: events})
}

// handleStartStreaming starts background collection, publishing each event
// to RabbitMQ
func (ws *WebServer) handleStartStreaming(w http.ResponseWriter, r *http.Request) {
	var req CollectRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeJSON(w, ActionResponse{Success: false, Message: fmt.Sprintf("Invalid JSON: %v", err)})
		return
	}
	if !ws.broker.IsConnected() {
		writeJSON(w, ActionResponse{Success: false, Message: "RabbitMQ is not connected"})
		return
	}

	logTypes := ws.config.Collector.LogTypes
	if req.LogType != "" && req.LogType != "all" {
		logTypes = []string{req.LogType}
	}
	hoursBack := req.HoursBack
	if hoursBack == 0 {
		hoursBack = ws.config.Collector.HoursBack
	}

	err := ws.collector.Start(logTypes, hoursBack, func(ev Event) {
		if err := ws.broker.PublishLog(ev.Record()); err != nil {
			log.Printf("Collector: failed to publish %s event %d: %v", ev.LogType, ev.ID, err)
		}
	})
	if errors.Is(err, ErrAlreadyCollecting) {
		writeJSON(w, ActionResponse{Success: false, Message: "Log streaming is already running"})
		return
	}
	if err != nil {
		writeJSON(w, ActionResponse{Success: false, Message: fmt.Sprintf("Failed to start log streaming: %v", err)})
		return
	}

	writeJSON(w, ActionResponse{Success: true, Message: "Log streaming to RabbitMQ started"})
}

// handleStopStreaming stops background collection
func (ws *WebServer) handleStopStreaming(w http.ResponseWriter, r *http.Request) {
	ws.collector.Stop()
	writeJSON(w, ActionResponse{Success: true, Message: "Log streaming to RabbitMQ stopped"})
}
