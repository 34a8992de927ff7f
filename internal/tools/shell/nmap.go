package shell

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redcell/swarm/internal/agent"
)

// Nmap scans a target host or network with nmap, adapted from
// original_source's Reconnaissance/nmap.py.
type Nmap struct {
	Server runner
}

func (t *Nmap) Name() string { return "nmap" }

func (t *Nmap) Description() string {
	return "Scan a target host or IP address with nmap for open ports and services."
}

func (t *Nmap) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"session_id": {"type": "string", "description": "Tool server session to run the scan in"},
			"target": {"type": "string", "description": "Target host or IP address to scan"},
			"options": {"type": "string", "description": "Additional nmap flags, e.g. \"-sV -p 1-1000\""}
		},
		"required": ["session_id", "target"]
	}`)
}

func (t *Nmap) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
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

	command := fmt.Sprintf("nmap %s %s", input.Options, input.Target)
	return runCommand(ctx, t.Server, input.SessionID, command)
}
