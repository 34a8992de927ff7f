// Package processor is a pure function from raw graph events to
// UI-friendly records (C8): namespace parsing, tool-call label rendering,
// stable content-addressable IDs, and duplicate detection. It holds no
// state of its own — the Workflow Executor owns the per-turn seen-set.
package processor

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// MessageType enumerates the three kinds of canonical record.
type MessageType string

const (
	MessageAI   MessageType = "ai"
	MessageTool MessageType = "tool"
	MessageUser MessageType = "user"
)

// ParseNamespace splits a graph namespace of the form "<agent>:<id>" into
// its agent name and instance id. Returns ok=false if there's no colon.
func ParseNamespace(namespace string) (agentName, id string, ok bool) {
	idx := strings.IndexByte(namespace, ':')
	if idx < 0 {
		return "", "", false
	}
	return namespace[:idx], namespace[idx+1:], true
}

// ToolLabel renders a snake_case tool name as a human-readable label.
// Handoff tools (handoff_to_X / transfer_to_X) render as "Handoff to X" /
// "Transfer to X"; ordinary tools render as their Title Cased words.
func ToolLabel(toolName string) string {
	for _, prefix := range []string{"handoff_to_", "transfer_to_"} {
		if strings.HasPrefix(toolName, prefix) {
			verb := strings.TrimSuffix(prefix, "_to_")
			target := strings.TrimPrefix(toolName, prefix)
			return titleCase(verb) + " to " + titleCase(target)
		}
	}
	return titleCase(toolName)
}

func titleCase(snake string) string {
	words := strings.Split(snake, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// StableID computes a content-addressable ID for a canonical record, so
// re-processing the same raw graph events yields identical IDs.
func StableID(agentName string, kind MessageType, content string) string {
	sum := sha256.Sum256([]byte(agentName + "|" + string(kind) + "|" + content))
	return hex.EncodeToString(sum[:])[:16]
}

// Record is a canonicalised, UI-facing event: exactly the Message shape
// the Workflow Executor emits to its consumer.
type Record struct {
	ID          string
	MessageType MessageType
	AgentName   string
	Content     string
	ToolName    string
	RawMessage  any
}

// NewRecord builds a Record with its ID computed from the other fields.
func NewRecord(agentName string, kind MessageType, content, toolName string, raw any) *Record {
	return &Record{
		ID:          StableID(agentName, kind, content),
		MessageType: kind,
		AgentName:   agentName,
		Content:     content,
		ToolName:    toolName,
		RawMessage:  raw,
	}
}

// IsDuplicate reports whether candidate has already been emitted this
// turn, by exact ID match or by the (agent_name, kind, content) tuple —
// the graph can re-emit the same logical message as its internal state
// advances, and either check alone would miss some repeats.
func IsDuplicate(candidate *Record, seen []*Record) bool {
	for _, s := range seen {
		if s.ID == candidate.ID {
			return true
		}
		if s.AgentName == candidate.AgentName && s.MessageType == candidate.MessageType && s.Content == candidate.Content {
			return true
		}
	}
	return false
}
