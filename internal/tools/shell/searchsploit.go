package shell

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redcell/swarm/internal/agent"
)

// Searchsploit searches the Exploit Database for known exploits, adapted
// from original_source's Init_Access/searchsploit.py.
type Searchsploit struct {
	Server runner
}

func (t *Searchsploit) Name() string { return "searchsploit" }

func (t *Searchsploit) Description() string {
	return "Search the Exploit Database for exploits matching a service, product, or CVE."
}

func (t *Searchsploit) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"session_id": {"type": "string", "description": "Tool server session to run the search in"},
			"service_name": {"type": "string", "description": "Product, service, or CVE to search for"},
			"options": {"type": "string", "description": "Searchsploit flags, e.g. \"-t\" for title search"}
		},
		"required": ["session_id", "service_name"]
	}`)
}

func (t *Searchsploit) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		SessionID   string `json:"session_id"`
		ServiceName string `json:"service_name"`
		Options     string `json:"options"`
	}
	if err := unmarshalParams(params, &input); err != nil {
		return errorResult(err)
	}
	if err := validateField("service_name", input.ServiceName); err != nil {
		return errorResult(err)
	}
	if err := validateField("options", input.Options); err != nil {
		return errorResult(err)
	}

	command := fmt.Sprintf("searchsploit %s %s", input.Options, input.ServiceName)
	return runCommand(ctx, t.Server, input.SessionID, command)
}
