package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redcell/swarm/internal/agent"
	"github.com/redcell/swarm/pkg/models"
)

// ManageMemory is the manage_memory tool: put/get a single keyed record in
// the calling user's memory namespace. Its side effect lands in the Store,
// not the thread's checkpointed state.
type ManageMemory struct {
	Manager *Manager
}

func (t *ManageMemory) Name() string { return "manage_memory" }

func (t *ManageMemory) Description() string {
	return "Store or retrieve a fact in your long-term memory, keyed by a short label. " +
		"Use action \"put\" to remember something and action \"get\" to recall it later."
}

func (t *ManageMemory) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "description": "Owner of the memory namespace"},
			"action": {"type": "string", "enum": ["put", "get"], "description": "put to store a value, get to recall it"},
			"key": {"type": "string", "description": "Short label identifying the memory"},
			"value": {"type": "string", "description": "Text to remember; required for action=put"}
		},
		"required": ["user_id", "action", "key"]
	}`)
}

func (t *ManageMemory) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		UserID string `json:"user_id"`
		Action string `json:"action"`
		Key    string `json:"key"`
		Value  string `json:"value"`
	}
	if len(params) == 0 {
		return errResult(fmt.Errorf("missing parameters"))
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return errResult(err)
	}
	if input.UserID == "" || input.Key == "" {
		return errResult(fmt.Errorf("user_id and key are required"))
	}

	switch input.Action {
	case "put":
		if input.Value == "" {
			return errResult(fmt.Errorf("value is required for action=put"))
		}
		if err := t.Manager.Put(ctx, input.UserID, input.Key, input.Value); err != nil {
			return errResult(err)
		}
		return &agent.ToolResult{Content: fmt.Sprintf("remembered %q", input.Key)}, nil
	case "get":
		value, ok := t.Manager.Get(ctx, input.UserID, input.Key)
		if !ok {
			return &agent.ToolResult{Content: fmt.Sprintf("no memory found for %q", input.Key)}, nil
		}
		return &agent.ToolResult{Content: value}, nil
	default:
		return errResult(fmt.Errorf("unknown action %q, want put or get", input.Action))
	}
}

// SearchMemory is the search_memory tool: case-insensitive substring search
// over a user's memory namespace, returning matching entry IDs unranked.
type SearchMemory struct {
	Manager *Manager
}

func (t *SearchMemory) Name() string { return "search_memory" }

func (t *SearchMemory) Description() string {
	return "Search your long-term memory for entries whose text contains the query."
}

func (t *SearchMemory) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "description": "Owner of the memory namespace"},
			"query": {"type": "string", "description": "Text to search for"},
			"limit": {"type": "integer", "description": "Maximum number of results to return"}
		},
		"required": ["user_id", "query"]
	}`)
}

func (t *SearchMemory) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		UserID string `json:"user_id"`
		Query  string `json:"query"`
		Limit  int    `json:"limit"`
	}
	if len(params) == 0 {
		return errResult(fmt.Errorf("missing parameters"))
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return errResult(err)
	}
	if input.UserID == "" || input.Query == "" {
		return errResult(fmt.Errorf("user_id and query are required"))
	}

	resp, err := t.Manager.Search(ctx, &models.SearchRequest{
		Query:   input.Query,
		Scope:   models.ScopeAgent,
		ScopeID: input.UserID,
		Limit:   input.Limit,
	})
	if err != nil {
		return errResult(err)
	}

	keys := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		keys = append(keys, r.Entry.ID)
	}
	out, err := json.Marshal(keys)
	if err != nil {
		return errResult(err)
	}
	return &agent.ToolResult{Content: string(out)}, nil
}

func errResult(err error) (*agent.ToolResult, error) {
	return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
}
