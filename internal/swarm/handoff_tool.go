package swarm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redcell/swarm/internal/agent"
)

// HandoffTool is a pure function: its invocation carries no shell or
// network side effect, only a target agent name for the graph to act on.
// One instance exists per (source agent, target agent) pair, named
// handoff_to_<target>, restoring original_source/'s one-tool-per-target
// convention in place of nexus's single parameterized "handoff" tool.
type HandoffTool struct {
	target string
	role   string
}

// NewHandoffTool builds the handoff_to_<target> tool for a peer agent.
func NewHandoffTool(target, role string) *HandoffTool {
	return &HandoffTool{target: target, role: role}
}

func (h *HandoffTool) Name() string {
	return "handoff_to_" + h.target
}

func (h *HandoffTool) Description() string {
	if h.role == "" {
		return fmt.Sprintf("Transfer the conversation to the %s agent.", h.target)
	}
	return fmt.Sprintf("Transfer the conversation to the %s agent: %s", h.target, h.role)
}

func (h *HandoffTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"reason": {"type": "string", "description": "Why control is being handed off"}
		},
		"required": ["reason"]
	}`)
}

// Execute records a short confirmation and returns. The graph identifies
// the target agent from the tool's name, not from this result; loop.go's
// handoffResultPresent is what actually ends the turn.
func (h *HandoffTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Reason string `json:"reason"`
	}
	_ = json.Unmarshal(params, &input)

	content := fmt.Sprintf("handing off to %s", h.target)
	if input.Reason != "" {
		content = fmt.Sprintf("handing off to %s: %s", h.target, input.Reason)
	}
	return &agent.ToolResult{Content: content}, nil
}
