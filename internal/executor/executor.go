// Package executor implements the Workflow Executor (C6): the central
// engine that loads a thread's checkpointed state, drives the Agent Graph
// for one user turn, canonicalises the graph's raw events into the
// stream a consumer sees, and persists both the updated ThreadState and a
// SessionLog entry for replay.
package executor

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redcell/swarm/internal/checkpoint"
	"github.com/redcell/swarm/internal/eventlog"
	"github.com/redcell/swarm/internal/processor"
	"github.com/redcell/swarm/internal/sessions"
	"github.com/redcell/swarm/internal/swarm"
	"github.com/redcell/swarm/pkg/models"
)

// Config configures one Execute call.
type Config struct {
	// ThreadID addresses the Checkpointer and doubles as the session key.
	ThreadID string
	// ModelLabel is recorded on the SessionLog for list_sessions display.
	ModelLabel string
}

// Executor wires the Agent Graph, Checkpointer, and Event Log together for
// the single execute(user_input, config) -> stream-of-Event operation.
type Executor struct {
	graph        *swarm.Graph
	sessionStore sessions.Store
	checkpointer checkpoint.Checkpointer
	logs         eventlog.Store
}

// New builds an Executor. sessionStore must be the same store the graph's
// agents were constructed with, since message history lives there and the
// Checkpointer only tracks current_agent/step_count metadata on top of it.
func New(graph *swarm.Graph, sessionStore sessions.Store, cp checkpoint.Checkpointer, logs eventlog.Store) *Executor {
	return &Executor{graph: graph, sessionStore: sessionStore, checkpointer: cp, logs: logs}
}

// Execute runs the seven-step algorithm in spec.md §4.6: load ThreadState,
// append the user's message, drive the graph, canonicalise and de-dup its
// raw events, yield WorkflowComplete, persist the updated ThreadState, and
// on cancellation drop the partial turn without persisting anything.
func (e *Executor) Execute(ctx context.Context, userInput string, cfg Config) (<-chan *eventlog.Event, error) {
	out := make(chan *eventlog.Event, 32)

	go func() {
		defer close(out)

		state, err := e.checkpointer.Load(ctx, cfg.ThreadID)
		if err != nil {
			if err != checkpoint.ErrNotFound {
				out <- &eventlog.Event{Kind: eventlog.EventError, Err: err.Error()}
				return
			}
			state = &checkpoint.ThreadState{ThreadID: cfg.ThreadID}
		}

		session, err := e.sessionStore.GetOrCreate(ctx, cfg.ThreadID, "", "", cfg.ThreadID)
		if err != nil {
			out <- &eventlog.Event{Kind: eventlog.EventError, Err: err.Error()}
			return
		}

		userMsg := &models.Message{SessionID: session.ID, Role: models.RoleUser, Content: userInput}

		log := eventlog.NewSessionLog(session.ID, cfg.ModelLabel)
		log.AppendUserInput(userInput)

		seen := make([]*processor.Record, 0, 16)
		stepCount := state.StepCount

		chunks, final := e.graph.Process(ctx, session, userMsg, state.CurrentAgent)

		acc := &turnAccumulator{}
		var turnErr error

		flushText := func(toolName string, toolInput json.RawMessage) {
			content := acc.text.String()
			if acc.agentName == "" || (content == "" && toolName == "") {
				acc.text.Reset()
				return
			}

			rec := processor.NewRecord(acc.agentName, processor.MessageAI, content, toolName, nil)
			acc.text.Reset()
			if processor.IsDuplicate(rec, seen) {
				return
			}
			seen = append(seen, rec)

			var toolCalls []models.ToolCall
			if toolName != "" {
				toolCalls = []models.ToolCall{{Name: toolName, Input: toolInput}}
			}
			log.AppendAgentResponse(acc.agentName, content, toolCalls)

			select {
			case out <- &eventlog.Event{Kind: eventlog.EventMessage, Message: rec}:
			case <-ctx.Done():
			}
		}

		for gc := range chunks {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if gc.Error != nil {
				turnErr = gc.Error
				break
			}

			if gc.AgentName != acc.agentName {
				flushText("", nil)
				acc.agentName = gc.AgentName
			}

			if gc.Text != "" {
				acc.text.WriteString(gc.Text)
			}

			if gc.ToolEvent != nil {
				stepCount++
				switch gc.ToolEvent.Stage {
				case models.ToolEventRequested:
					flushText(gc.ToolEvent.ToolName, gc.ToolEvent.Input)
					log.AppendToolCommand(gc.ToolEvent.ToolName, renderCommand(gc.ToolEvent.Input))
				case models.ToolEventSucceeded, models.ToolEventFailed:
					output := gc.ToolEvent.Output
					if output == "" {
						output = gc.ToolEvent.Error
					}
					toolRec := processor.NewRecord(gc.AgentName, processor.MessageTool, output, gc.ToolEvent.ToolName, nil)
					if !processor.IsDuplicate(toolRec, seen) {
						seen = append(seen, toolRec)
						log.AppendToolOutput(gc.ToolEvent.ToolName, output)
						select {
						case out <- &eventlog.Event{Kind: eventlog.EventMessage, Message: toolRec}:
						case <-ctx.Done():
							return
						}
					}
				}
			}
		}

		flushText("", nil)
		finalAgent := <-final

		if turnErr != nil {
			out <- &eventlog.Event{Kind: eventlog.EventError, Err: turnErr.Error()}
			return
		}

		stepCount++
		out <- &eventlog.Event{Kind: eventlog.EventWorkflowComplete, StepCount: stepCount}

		state.CurrentAgent = finalAgent
		state.StepCount = stepCount
		if err := e.checkpointer.Save(ctx, state); err != nil {
			// StorageFailure never blocks a turn that already reached the
			// consumer; log to stderr in a real deployment.
			_ = err
		}
		if e.logs != nil {
			_ = e.logs.Flush(ctx, log)
		}
	}()

	return out, nil
}

// turnAccumulator buffers the streamed text for whichever agent currently
// holds the turn, so a burst of Text deltas collapses into one Message
// record instead of one per token.
type turnAccumulator struct {
	agentName string
	text      strings.Builder
}

// renderCommand gives ToolCommand log entries a readable command-text
// stand-in from a tool call's raw JSON arguments.
func renderCommand(input json.RawMessage) string {
	if len(input) == 0 {
		return ""
	}
	return string(input)
}
