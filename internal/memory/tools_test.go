package memory

import (
	"context"
	"encoding/json"
	"testing"
)

func TestManageMemory_PutThenGet(t *testing.T) {
	m := newTestManager(t)
	tool := &ManageMemory{Manager: m}
	ctx := context.Background()

	putParams, _ := json.Marshal(map[string]string{
		"user_id": "user-1",
		"action":  "put",
		"key":     "target-ip",
		"value":   "10.0.0.5",
	})
	result, err := tool.Execute(ctx, putParams)
	if err != nil {
		t.Fatalf("Execute(put) error = %v", err)
	}
	if result.IsError {
		t.Fatalf("Execute(put) returned error result: %s", result.Content)
	}

	getParams, _ := json.Marshal(map[string]string{
		"user_id": "user-1",
		"action":  "get",
		"key":     "target-ip",
	})
	result, err = tool.Execute(ctx, getParams)
	if err != nil {
		t.Fatalf("Execute(get) error = %v", err)
	}
	if result.Content != "10.0.0.5" {
		t.Errorf("Execute(get) content = %q, want %q", result.Content, "10.0.0.5")
	}
}

func TestManageMemory_GetMissingKeyIsNotError(t *testing.T) {
	m := newTestManager(t)
	tool := &ManageMemory{Manager: m}

	params, _ := json.Marshal(map[string]string{
		"user_id": "user-1",
		"action":  "get",
		"key":     "nope",
	})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("Execute() returned error result for missing key: %s", result.Content)
	}
}

func TestManageMemory_PutRequiresValue(t *testing.T) {
	m := newTestManager(t)
	tool := &ManageMemory{Manager: m}

	params, _ := json.Marshal(map[string]string{
		"user_id": "user-1",
		"action":  "put",
		"key":     "target-ip",
	})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.IsError {
		t.Fatal("Execute() want IsError when value is missing for put")
	}
}

func TestManageMemory_UnknownAction(t *testing.T) {
	m := newTestManager(t)
	tool := &ManageMemory{Manager: m}

	params, _ := json.Marshal(map[string]string{
		"user_id": "user-1",
		"action":  "delete",
		"key":     "target-ip",
	})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.IsError {
		t.Fatal("Execute() want IsError for unknown action")
	}
}

func TestSearchMemory_FindsMatch(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	m.Put(ctx, "user-1", "recon-note", "target runs outdated Apache 2.4.49")
	m.Put(ctx, "user-2", "recon-note", "unrelated apache entry for another user")

	tool := &SearchMemory{Manager: m}
	params, _ := json.Marshal(map[string]string{
		"user_id": "user-1",
		"query":   "apache",
	})
	result, err := tool.Execute(ctx, params)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("Execute() returned error result: %s", result.Content)
	}

	var keys []string
	if err := json.Unmarshal([]byte(result.Content), &keys); err != nil {
		t.Fatalf("unmarshal result keys: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("got %d keys, want 1 (isolated to user-1): %v", len(keys), keys)
	}
}

func TestSearchMemory_RequiresQuery(t *testing.T) {
	m := newTestManager(t)
	tool := &SearchMemory{Manager: m}

	params, _ := json.Marshal(map[string]string{"user_id": "user-1"})
	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.IsError {
		t.Fatal("Execute() want IsError when query is missing")
	}
}
