// Package checkpoint persists per-thread conversational state: the message
// history and tool-call/result audit trail for a single orchestration
// thread. It is distinct from internal/memory's per-user long-term store —
// a checkpoint is resumable working state for one thread, not recallable
// facts shared across threads.
package checkpoint

import (
	"context"
	"errors"
	"time"

	"github.com/redcell/swarm/internal/sessions"
	"github.com/redcell/swarm/pkg/models"
)

// ErrNotFound is returned by Load when no checkpoint exists for a thread.
var ErrNotFound = errors.New("checkpoint: thread not found")

// ThreadState is the resumable state of a single orchestration thread: its
// message history, the agent currently holding the turn, and step count.
type ThreadState struct {
	ThreadID     string
	CurrentAgent string
	StepCount    int
	Messages     []*models.Message
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Checkpointer loads and saves ThreadState by thread ID.
type Checkpointer interface {
	// Load returns the state for a thread, or ErrNotFound if none exists.
	Load(ctx context.Context, threadID string) (*ThreadState, error)

	// Save persists the given state, creating the thread if needed.
	Save(ctx context.Context, state *ThreadState) error

	// AppendMessage appends a single message to a thread's history without
	// requiring a full Load/Save round trip.
	AppendMessage(ctx context.Context, threadID string, msg *models.Message) error

	// RecordToolCall records a tool call issued during a thread's turn.
	RecordToolCall(ctx context.Context, threadID, messageID string, call *sessions.ToolCall) error

	// RecordToolResult records the result of a previously recorded tool call.
	RecordToolResult(ctx context.Context, threadID, messageID, callID string, result *sessions.ToolResult) error
}

// sessionCheckpointer adapts a sessions.Store + sessions.ToolEventStore pair
// into the Checkpointer contract. The thread ID doubles as the session key:
// spec.md's threads and the session store's keyed sessions are the same
// concept under different names.
type sessionCheckpointer struct {
	store      sessions.Store
	toolEvents sessions.ToolEventStore
}

// New wraps a sessions.Store and sessions.ToolEventStore as a Checkpointer.
func New(store sessions.Store, toolEvents sessions.ToolEventStore) Checkpointer {
	return &sessionCheckpointer{store: store, toolEvents: toolEvents}
}

func (c *sessionCheckpointer) Load(ctx context.Context, threadID string) (*ThreadState, error) {
	session, err := c.store.GetByKey(ctx, threadID)
	if err != nil {
		return nil, ErrNotFound
	}

	history, err := c.store.GetHistory(ctx, session.ID, 0)
	if err != nil {
		return nil, err
	}

	state := &ThreadState{
		ThreadID:  threadID,
		Messages:  history,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
	if session.Metadata != nil {
		if agent, ok := session.Metadata["current_agent"].(string); ok {
			state.CurrentAgent = agent
		}
		if steps, ok := session.Metadata["step_count"].(int); ok {
			state.StepCount = steps
		}
	}
	return state, nil
}

func (c *sessionCheckpointer) Save(ctx context.Context, state *ThreadState) error {
	if state == nil {
		return errors.New("checkpoint: state is required")
	}

	session, err := c.store.GetOrCreate(ctx, state.ThreadID, "", "", state.ThreadID)
	if err != nil {
		return err
	}

	if session.Metadata == nil {
		session.Metadata = map[string]any{}
	}
	session.Metadata["current_agent"] = state.CurrentAgent
	session.Metadata["step_count"] = state.StepCount
	return c.store.Update(ctx, session)
}

func (c *sessionCheckpointer) AppendMessage(ctx context.Context, threadID string, msg *models.Message) error {
	session, err := c.store.GetOrCreate(ctx, threadID, "", "", threadID)
	if err != nil {
		return err
	}
	return c.store.AppendMessage(ctx, session.ID, msg)
}

func (c *sessionCheckpointer) RecordToolCall(ctx context.Context, threadID, messageID string, call *sessions.ToolCall) error {
	if c.toolEvents == nil {
		return nil
	}
	return c.toolEvents.AddToolCall(ctx, threadID, messageID, call)
}

func (c *sessionCheckpointer) RecordToolResult(ctx context.Context, threadID, messageID, callID string, result *sessions.ToolResult) error {
	if c.toolEvents == nil {
		return nil
	}
	return c.toolEvents.AddToolResult(ctx, threadID, messageID, callID, result)
}
