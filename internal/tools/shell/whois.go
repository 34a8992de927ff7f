package shell

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redcell/swarm/internal/agent"
)

// Whois retrieves domain registration information, adapted from
// original_source's Reconnaissance/whois.py.
type Whois struct {
	Server runner
}

func (t *Whois) Name() string { return "whois" }

func (t *Whois) Description() string {
	return "Retrieve WHOIS registration information for a domain or IP address."
}

func (t *Whois) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"session_id": {"type": "string", "description": "Tool server session to run the query in"},
			"target": {"type": "string", "description": "Domain name or IP address to query"},
			"options": {"type": "string", "description": "Additional whois flags"}
		},
		"required": ["session_id", "target"]
	}`)
}

func (t *Whois) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
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

	command := fmt.Sprintf("whois %s %s", input.Options, input.Target)
	return runCommand(ctx, t.Server, input.SessionID, command)
}
