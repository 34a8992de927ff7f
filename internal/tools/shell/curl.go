package shell

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redcell/swarm/internal/agent"
)

// Curl makes an HTTP request against a target URL, adapted from
// original_source's Reconnaissance/curl.py.
type Curl struct {
	Server runner
}

func (t *Curl) Name() string { return "curl" }

func (t *Curl) Description() string {
	return "Make an HTTP request to a target URL with curl."
}

func (t *Curl) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"session_id": {"type": "string", "description": "Tool server session to run the request in"},
			"target": {"type": "string", "description": "Target URL to request"},
			"options": {"type": "string", "description": "Additional curl flags, e.g. \"-I -L\""}
		},
		"required": ["session_id", "target"]
	}`)
}

func (t *Curl) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
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

	command := fmt.Sprintf("curl %s %s", input.Options, input.Target)
	return runCommand(ctx, t.Server, input.SessionID, command)
}
