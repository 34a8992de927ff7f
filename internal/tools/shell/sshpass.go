package shell

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redcell/swarm/internal/agent"
)

// Sshpass performs non-interactive SSH password authentication, adapted
// from original_source's Init_Access/sshpass.py.
type Sshpass struct {
	Server runner
}

func (t *Sshpass) Name() string { return "sshpass" }

func (t *Sshpass) Description() string {
	return "Connect over SSH using non-interactive password authentication."
}

func (t *Sshpass) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"session_id": {"type": "string", "description": "Tool server session to run the connection in"},
			"target": {"type": "string", "description": "Target host or IP to connect to"},
			"user": {"type": "string", "description": "Username to authenticate with"},
			"password": {"type": "string", "description": "Password to authenticate with"},
			"options": {"type": "string", "description": "Additional ssh flags, e.g. \"-p 2222\""}
		},
		"required": ["session_id", "target", "user", "password"]
	}`)
}

func (t *Sshpass) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		SessionID string `json:"session_id"`
		Target    string `json:"target"`
		User      string `json:"user"`
		Password  string `json:"password"`
		Options   string `json:"options"`
	}
	if err := unmarshalParams(params, &input); err != nil {
		return errorResult(err)
	}
	for name, value := range map[string]string{
		"target": input.Target, "user": input.User,
		"password": input.Password, "options": input.Options,
	} {
		if err := validateField(name, value); err != nil {
			return errorResult(err)
		}
	}

	options := input.Options
	if !strings.Contains(options, "StrictHostKeyChecking") {
		if options != "" {
			options += " "
		}
		options += `-o "StrictHostKeyChecking=no"`
	}

	command := fmt.Sprintf(`sshpass -p "%s" ssh %s %s@%s`, input.Password, options, input.User, input.Target)
	return runCommand(ctx, t.Server, input.SessionID, command)
}
