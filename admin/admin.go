// Package admin serves the cabinet's local web page, a JSON status API and
// a websocket streaming live status.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cabinetd/cabinet"
)

// Cabinet is the part of the cabinet the admin surface drives.
type Cabinet interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
	Toggle(ctx context.Context) error
	IsOn() bool
	Moving() bool
	Position() (float64, error)
	Target() float64
	SetTarget(mm float64) error
	FanDutyCycle() int
	SetFanDutyCycle(pct int) error
	GetTemp(ctx context.Context) float64
}

// Config holds configuration for the admin server.
type Config struct {
	Listen   string        `yaml:"listen"`   // e.g., ":8080", disabled if empty
	Interval time.Duration `yaml:"interval"` // websocket status period (default 1s)
}

// Status is the JSON view of the cabinet.
type Status struct {
	On           bool    `json:"on"`
	Moving       bool    `json:"moving"`
	Position     float64 `json:"position"`
	Target       float64 `json:"target"`
	FanDutyCycle int     `json:"fan_duty_cycle"`
	Temperature  float64 `json:"temperature"`
	Error        string  `json:"error,omitempty"`
}

// Message is a websocket request from the page.
type Message struct {
	Action string  `json:"action"` // open, close, toggle, target, fan
	Value  float64 `json:"value,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server is the admin HTTP server.
type Server struct {
	cab      Cabinet
	listen   string
	interval time.Duration
	mux      *http.ServeMux

	mu      sync.Mutex
	changed chan struct{}
}

// New creates a Server. Run starts listening.
func New(cfg Config, cab Cabinet) *Server {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	s := &Server{
		cab:      cab,
		listen:   cfg.Listen,
		interval: cfg.Interval,
		mux:      http.NewServeMux(),
		changed:  make(chan struct{}),
	}
	s.mux.HandleFunc("/", s.handleHome)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/open", s.handleMove(cab.Open))
	s.mux.HandleFunc("/api/close", s.handleMove(cab.Close))
	s.mux.HandleFunc("/api/toggle", s.handleMove(cab.Toggle))
	s.mux.HandleFunc("/api/target", s.handleTarget)
	s.mux.HandleFunc("/api/fan", s.handleFan)
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves until ctx is cancelled. A server without listen address returns at once.
func (s *Server) Run(ctx context.Context) error {
	if s.listen == "" {
		log.Println("Admin: disabled (no listen address configured)")
		return nil
	}

	srv := &http.Server{Addr: s.listen, Handler: s.mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Admin: listening on %s", s.listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin server: %w", err)
	}
	return nil
}

// Notify pushes the current status to all websocket clients.
func (s *Server) Notify() {
	s.mu.Lock()
	close(s.changed)
	s.changed = make(chan struct{})
	s.mu.Unlock()
}

func (s *Server) changes() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

func (s *Server) status(ctx context.Context) Status {
	st := Status{
		On:           s.cab.IsOn(),
		Moving:       s.cab.Moving(),
		Target:       s.cab.Target(),
		FanDutyCycle: s.cab.FanDutyCycle(),
		Temperature:  s.cab.GetTemp(ctx),
	}
	pos, err := s.cab.Position()
	if err != nil {
		st.Error = err.Error()
	}
	st.Position = pos
	return st
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Admin: encode response: %v", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.status(r.Context()))
}

// handleMove runs move to completion. The move is not aborted when the client goes away.
func (s *Server) handleMove(move func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		err := s.runMove(context.WithoutCancel(r.Context()), move)
		st := s.status(r.Context())
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, st)
		case errors.Is(err, cabinet.ErrBusy):
			st.Error = err.Error()
			writeJSON(w, http.StatusConflict, st)
		default:
			st.Error = err.Error()
			writeJSON(w, http.StatusInternalServerError, st)
		}
	}
}

func (s *Server) runMove(ctx context.Context, move func(context.Context) error) error {
	err := move(ctx)
	s.Notify()
	return err
}

// errInvalidValue is returned for form values that do not parse.
var errInvalidValue = errors.New("invalid value")

func (s *Server) handleTarget(w http.ResponseWriter, r *http.Request) {
	s.handleSetting(w, r, func(value string) error {
		mm, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errInvalidValue
		}
		return s.cab.SetTarget(mm)
	})
}

func (s *Server) handleFan(w http.ResponseWriter, r *http.Request) {
	s.handleSetting(w, r, func(value string) error {
		pct, err := strconv.Atoi(value)
		if err != nil {
			return errInvalidValue
		}
		return s.cab.SetFanDutyCycle(pct)
	})
}

func (s *Server) handleSetting(w http.ResponseWriter, r *http.Request, set func(string) error) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := set(r.FormValue("value")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.Notify()
	writeJSON(w, http.StatusOK, s.status(r.Context()))
}

var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html>
<head><title>Projector cabinet</title></head>
<body>
<h1>Projector cabinet</h1>
{{if .Message}}<p><b>{{.Message}}</b></p>{{end}}
<p>Cabinet is {{if .Status.On}}open{{else}}closed{{end}}{{if .Status.Moving}} (moving){{end}},
arm at {{printf "%.1f" .Status.Position}}mm, temperature {{printf "%.1f" .Status.Temperature}}°C.</p>
<form method="post">
<label>Target (mm): <input name="target" type="number" step="1" value="{{printf "%.0f" .Status.Target}}"></label>
<input type="submit" value="Update">
</form>
<form method="post"><input type="hidden" name="go" value="1"><input type="submit" value="Go"></form>
</body>
</html>
`))

type homeData struct {
	Message string
	Status  Status
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	var data homeData
	code := http.StatusOK

	if r.Method == http.MethodPost {
		if target := r.FormValue("target"); target != "" {
			mm, err := strconv.ParseFloat(target, 64)
			if err == nil {
				err = s.cab.SetTarget(mm)
			}
			if err != nil {
				data.Message = fmt.Sprintf("Update failed: %v", err)
				code = http.StatusBadRequest
			} else {
				data.Message = "Update successful!"
				s.Notify()
			}
		}

		if r.FormValue("go") != "" {
			log.Println("Admin: triggering cabinet")
			if err := s.runMove(context.WithoutCancel(r.Context()), s.cab.Toggle); err != nil {
				data.Message = fmt.Sprintf("Cabinet did not move: %v", err)
			} else {
				data.Message = "Cabinet moved!"
			}
		}
	}

	data.Status = s.status(r.Context())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := homeTemplate.Execute(w, data); err != nil {
		log.Printf("Admin: render: %v", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Admin: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go s.readMessages(ctx, cancel, conn)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := conn.WriteJSON(s.status(ctx)); err != nil {
			log.Printf("Admin: websocket write: %v", err)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.changes():
		}
	}
}

// readMessages runs the actions sent by the page until the connection closes.
func (s *Server) readMessages(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	defer cancel()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Admin: websocket read: %v", err)
			}
			return
		}

		if err := s.handleAction(context.WithoutCancel(ctx), msg); err != nil {
			log.Printf("Admin: %s: %v", msg.Action, err)
		}
	}
}

func (s *Server) handleAction(ctx context.Context, msg Message) error {
	switch msg.Action {
	case "open":
		go s.runMove(ctx, s.cab.Open)
	case "close":
		go s.runMove(ctx, s.cab.Close)
	case "toggle":
		go s.runMove(ctx, s.cab.Toggle)
	case "target":
		if err := s.cab.SetTarget(msg.Value); err != nil {
			return err
		}
		s.Notify()
	case "fan":
		if msg.Value != math.Trunc(msg.Value) || msg.Value < 0 || msg.Value > 100 {
			return fmt.Errorf("fan duty cycle %v is not a whole percentage", msg.Value)
		}
		if err := s.cab.SetFanDutyCycle(int(msg.Value)); err != nil {
			return err
		}
		s.Notify()
	default:
		return fmt.Errorf("unknown action %q", msg.Action)
	}
	return nil
}
