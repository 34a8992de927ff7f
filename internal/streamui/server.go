// Package streamui is the streaming UI's transport (C-stream): it forwards
// the same eventlog.Event values printEvents renders to the terminal out to
// any websocket client subscribed to a thread, so an external collaborator
// (spec.md §1) can watch an engagement live without sharing the operator's
// terminal. Grounded on nexus's internal/gateway/ws_control_plane.go
// upgrade/read-loop/write-loop shape, stripped of its gRPC/proto framing
// down to one event-forwarding frame.
package streamui

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/redcell/swarm/internal/eventlog"
)

const (
	writeWait      = 10 * time.Second
	subscriberSend = 64
)

// Server accepts websocket connections on one thread each and fans out
// Publish calls to every connection subscribed to that thread.
type Server struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

type subscriber struct {
	send chan []byte
}

// NewServer builds a Server. logger is used only to warn when an event is
// dropped for a full subscriber buffer, and may be nil to skip that warning.
// Connection errors are never logged.
func NewServer(logger *slog.Logger) *Server {
	return &Server{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		subs: make(map[string]map[*subscriber]struct{}),
	}
}

// ServeHTTP upgrades the request and subscribes the connection to the
// thread named by its "thread" query parameter until the client
// disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	thread := r.URL.Query().Get("thread")
	if thread == "" {
		http.Error(w, "missing thread query parameter", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	sub := &subscriber{send: make(chan []byte, subscriberSend)}
	s.subscribe(thread, sub)
	defer s.unsubscribe(thread, sub)

	go s.discardReads(conn)
	s.writeLoop(conn, sub)
}

// discardReads reads and discards client frames until the connection fails;
// streamui is publish-only, it has nothing to act on from the client side.
func (s *Server) discardReads(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(conn *websocket.Conn, sub *subscriber) {
	defer conn.Close()
	for data := range sub.send {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

func (s *Server) subscribe(thread string, sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs[thread] == nil {
		s.subs[thread] = make(map[*subscriber]struct{})
	}
	s.subs[thread][sub] = struct{}{}
}

func (s *Server) unsubscribe(thread string, sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs[thread], sub)
	if len(s.subs[thread]) == 0 {
		delete(s.subs, thread)
	}
	close(sub.send)
}

// frame is the wire shape one forwarded event takes. It flattens
// eventlog.Event, copying Message's agent name, tool name and content into
// top-level fields, rather than re-using it directly, since
// processor.Record carries a RawMessage any that isn't meant to cross the
// wire.
type frame struct {
	Kind      string `json:"kind"`
	AgentName string `json:"agent_name,omitempty"`
	ToolName  string `json:"tool_name,omitempty"`
	Content   string `json:"content,omitempty"`
	StepCount int    `json:"step_count,omitempty"`
	Err       string `json:"error,omitempty"`
}

// Publish forwards ev to every subscriber currently watching thread. A
// thread with no subscribers is a no-op, not an error — streamui is best
// effort, the event log remains the source of truth.
func (s *Server) Publish(thread string, ev *eventlog.Event) {
	if ev == nil {
		return
	}
	f := frame{Kind: string(ev.Kind), StepCount: ev.StepCount, Err: ev.Err}
	if ev.Message != nil {
		f.AgentName = ev.Message.AgentName
		f.ToolName = ev.Message.ToolName
		f.Content = ev.Message.Content
	}
	data, err := json.Marshal(f)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs[thread] {
		select {
		case sub.send <- data:
		default:
			if s.logger != nil {
				s.logger.Warn("streamui: dropping event, subscriber buffer full", "thread", thread)
			}
		}
	}
}
