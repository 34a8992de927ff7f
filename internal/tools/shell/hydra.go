package shell

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redcell/swarm/internal/agent"
)

// Hydra attempts brute-force password attacks against a service, adapted
// from original_source's Init_Access/hydra.py.
type Hydra struct {
	Server runner
}

func (t *Hydra) Name() string { return "hydra" }

func (t *Hydra) Description() string {
	return "Brute-force password attacks against a service using hydra."
}

func (t *Hydra) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"session_id": {"type": "string", "description": "Tool server session to run the attack in"},
			"target": {"type": "string", "description": "Target specification, e.g. ssh://10.0.0.5"},
			"options": {"type": "string", "description": "Hydra flags, e.g. \"-l admin -P wordlist.txt\""}
		},
		"required": ["session_id", "target"]
	}`)
}

func (t *Hydra) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
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

	command := fmt.Sprintf("hydra %s %s", input.Options, input.Target)
	return runCommand(ctx, t.Server, input.SessionID, command)
}
