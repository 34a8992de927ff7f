package eventlog

import (
	"context"
	"fmt"

	"github.com/redcell/swarm/internal/processor"
)

// Replay re-emits a stored session's events in order, shaped identically
// to the live Workflow Executor's stream, without calling the LLM or any
// tool. agent_name is preserved on each Message event so a UI's
// agent-status view updates exactly as it did during the live run.
func Replay(ctx context.Context, store Store, sessionID string) (<-chan *Event, error) {
	log, err := store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("eventlog: replay: %w", err)
	}

	out := make(chan *Event, 16)
	go func() {
		defer close(out)
		for _, e := range log.Events {
			select {
			case <-ctx.Done():
				return
			default:
			}

			rec := loggedEventToRecord(e)
			select {
			case out <- &Event{Kind: EventMessage, Message: rec}:
			case <-ctx.Done():
				return
			}
		}

		select {
		case out <- &Event{Kind: EventWorkflowComplete, StepCount: len(log.Events)}:
		case <-ctx.Done():
		}
	}()
	return out, nil
}

// loggedEventToRecord maps a persisted LoggedEvent back onto the canonical
// Message record shape the Executor emits live.
func loggedEventToRecord(e LoggedEvent) *processor.Record {
	switch e.EventType {
	case LoggedUserInput:
		return processor.NewRecord("", processor.MessageUser, e.Content, "", e)
	case LoggedAgentResponse:
		return processor.NewRecord(e.AgentName, processor.MessageAI, e.Content, "", e)
	case LoggedToolCommand, LoggedToolOutput:
		return processor.NewRecord(e.AgentName, processor.MessageTool, e.Content, e.ToolName, e)
	default:
		return processor.NewRecord(e.AgentName, processor.MessageAI, e.Content, e.ToolName, e)
	}
}
