package shell

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redcell/swarm/internal/agent"
)

// Dig queries DNS records for a domain, adapted from original_source's
// Reconnaissance/dig.py.
type Dig struct {
	Server runner
}

func (t *Dig) Name() string { return "dig" }

func (t *Dig) Description() string {
	return "Query DNS records (A, MX, NS, TXT, ...) for a domain with dig."
}

func (t *Dig) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"session_id": {"type": "string", "description": "Tool server session to run the query in"},
			"target": {"type": "string", "description": "Domain name to query, e.g. example.com"},
			"options": {"type": "string", "description": "Record type or dig flags, e.g. \"MX\""}
		},
		"required": ["session_id", "target"]
	}`)
}

func (t *Dig) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		SessionID string `json:"session_id"`
		Target    string `json:"target"`
		Options   string `json:"options"`
	}
	if err := unmarshalParams(params, &input); err != nil {
		return errorResult(err)
	}
	if err := validateField("target", input.Target); err != nil {
		return errorResult(err)
	}
	if err := validateField("options", input.Options); err != nil {
		return errorResult(err)
	}

	command := fmt.Sprintf("dig %s %s", input.Options, input.Target)
	return runCommand(ctx, t.Server, input.SessionID, command)
}
