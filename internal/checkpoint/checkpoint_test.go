package checkpoint

import (
	"context"
	"testing"

	"github.com/redcell/swarm/internal/sessions"
	"github.com/redcell/swarm/pkg/models"
)

func TestCheckpointer_SaveLoad(t *testing.T) {
	cp := NewMemory()
	ctx := context.Background()

	state := &ThreadState{ThreadID: "thread-1", CurrentAgent: "recon", StepCount: 3}
	if err := cp.Save(ctx, state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := cp.Load(ctx, "thread-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.CurrentAgent != "recon" || got.StepCount != 3 {
		t.Fatalf("Load() = %+v, want CurrentAgent=recon StepCount=3", got)
	}
}

func TestCheckpointer_LoadMissing(t *testing.T) {
	cp := NewMemory()
	if _, err := cp.Load(context.Background(), "does-not-exist"); err != ErrNotFound {
		t.Fatalf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestCheckpointer_AppendMessage(t *testing.T) {
	cp := NewMemory()
	ctx := context.Background()

	if err := cp.AppendMessage(ctx, "thread-2", &models.Message{Role: "user", Content: "scan 10.0.0.1"}); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	state, err := cp.Load(ctx, "thread-2")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(state.Messages) != 1 || state.Messages[0].Content != "scan 10.0.0.1" {
		t.Fatalf("Load() messages = %+v", state.Messages)
	}
}

func TestCheckpointer_RecordToolCallAndResult(t *testing.T) {
	cp := NewMemory()
	ctx := context.Background()

	call := &sessions.ToolCall{ID: "call-1", ToolName: "nmap"}
	if err := cp.RecordToolCall(ctx, "thread-3", "msg-1", call); err != nil {
		t.Fatalf("RecordToolCall() error = %v", err)
	}

	result := &sessions.ToolResult{Content: "22/tcp open ssh"}
	if err := cp.RecordToolResult(ctx, "thread-3", "msg-1", "call-1", result); err != nil {
		t.Fatalf("RecordToolResult() error = %v", err)
	}
}
