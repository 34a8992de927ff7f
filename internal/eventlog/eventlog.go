// Package eventlog implements the append-only per-session journal (C7):
// SessionLog persistence under logs/YYYY/MM/DD/, listing, and replay of a
// past session's UI-visible events without re-invoking the LLM or tools.
package eventlog

import (
	"time"

	"github.com/redcell/swarm/internal/processor"
	"github.com/redcell/swarm/pkg/models"
)

// LoggedEventType enumerates the four record kinds a SessionLog carries —
// strictly the minimum required to reconstruct the UI.
type LoggedEventType string

const (
	LoggedUserInput     LoggedEventType = "user_input"
	LoggedAgentResponse LoggedEventType = "agent_response"
	LoggedToolCommand   LoggedEventType = "tool_command"
	LoggedToolOutput    LoggedEventType = "tool_output"
)

// LoggedEvent is one entry in a SessionLog's append-only event sequence.
type LoggedEvent struct {
	EventType LoggedEventType   `json:"event_type"`
	Timestamp time.Time         `json:"timestamp"`
	Content   string            `json:"content"`
	AgentName string            `json:"agent_name,omitempty"`
	ToolName  string            `json:"tool_name,omitempty"`
	ToolCalls []models.ToolCall `json:"tool_calls,omitempty"`
}

// SessionLog is one logical user conversation, stored as a single JSON
// document under logs/YYYY/MM/DD/session_<id>.json.
type SessionLog struct {
	SessionID string        `json:"session_id"`
	StartTime time.Time     `json:"start_time"`
	Model     string        `json:"model,omitempty"`
	Events    []LoggedEvent `json:"events"`
}

// NewSessionLog opens a log for a freshly initialised session.
func NewSessionLog(sessionID, modelLabel string) *SessionLog {
	return &SessionLog{
		SessionID: sessionID,
		StartTime: time.Now().UTC(),
		Model:     modelLabel,
		Events:    []LoggedEvent{},
	}
}

// AppendUserInput records a User message.
func (s *SessionLog) AppendUserInput(content string) {
	s.Events = append(s.Events, LoggedEvent{
		EventType: LoggedUserInput,
		Timestamp: time.Now().UTC(),
		Content:   content,
	})
}

// AppendAgentResponse records an Assistant message, with tool calls if any.
func (s *SessionLog) AppendAgentResponse(agentName, content string, toolCalls []models.ToolCall) {
	s.Events = append(s.Events, LoggedEvent{
		EventType: LoggedAgentResponse,
		Timestamp: time.Now().UTC(),
		Content:   content,
		AgentName: agentName,
		ToolCalls: toolCalls,
	})
}

// AppendToolCommand records the rendered command face of a shell tool
// invocation. Every invocation produces one ToolCommand and one ToolOutput
// entry, per §4.7's "simpler contract."
func (s *SessionLog) AppendToolCommand(toolName, commandText string) {
	s.Events = append(s.Events, LoggedEvent{
		EventType: LoggedToolCommand,
		Timestamp: time.Now().UTC(),
		Content:   commandText,
		ToolName:  toolName,
	})
}

// AppendToolOutput records the captured-text face of a shell tool result.
func (s *SessionLog) AppendToolOutput(toolName, outputText string) {
	s.Events = append(s.Events, LoggedEvent{
		EventType: LoggedToolOutput,
		Timestamp: time.Now().UTC(),
		Content:   outputText,
		ToolName:  toolName,
	})
}

// EventKind enumerates the three shapes the Workflow Executor emits live.
// Replay re-emits the same shapes so a consumer can treat a live and a
// replayed session through one path.
type EventKind string

const (
	EventMessage          EventKind = "message"
	EventWorkflowComplete EventKind = "workflow_complete"
	EventError            EventKind = "error"
)

// Event is the canonical unit both live execution and Replay produce.
type Event struct {
	Kind      EventKind
	Message   *processor.Record
	StepCount int
	Err       string
}

// SessionSummary is one row of list_sessions output.
type SessionSummary struct {
	SessionID  string
	StartTime  time.Time
	EventCount int
	Preview    string
	ModelLabel string
}

// summarize builds a SessionSummary from a loaded log, truncating the first
// UserInput's content to a short preview.
func summarize(log *SessionLog) SessionSummary {
	const previewLen = 80
	preview := ""
	for _, e := range log.Events {
		if e.EventType == LoggedUserInput {
			preview = e.Content
			break
		}
	}
	if len(preview) > previewLen {
		preview = preview[:previewLen] + "..."
	}
	return SessionSummary{
		SessionID:  log.SessionID,
		StartTime:  log.StartTime,
		EventCount: len(log.Events),
		Preview:    preview,
		ModelLabel: log.Model,
	}
}
