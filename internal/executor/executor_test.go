package executor

import (
	"context"
	"testing"

	"github.com/redcell/swarm/internal/agent"
	"github.com/redcell/swarm/internal/checkpoint"
	"github.com/redcell/swarm/internal/eventlog"
	"github.com/redcell/swarm/internal/sessions"
	"github.com/redcell/swarm/internal/swarm"
)

// scriptedProvider replays one text reply per call, mirroring the fake
// used in internal/swarm's own graph tests.
type scriptedProvider struct {
	texts []string
	calls int
}

func (p *scriptedProvider) Complete(ctx context.Context, req *agent.CompletionRequest) (<-chan *agent.CompletionChunk, error) {
	ch := make(chan *agent.CompletionChunk, 2)
	i := p.calls
	p.calls++
	go func() {
		defer close(ch)
		if i < len(p.texts) {
			ch <- &agent.CompletionChunk{Text: p.texts[i]}
		}
		ch <- &agent.CompletionChunk{Done: true}
	}()
	return ch, nil
}

func (p *scriptedProvider) Name() string          { return "scripted" }
func (p *scriptedProvider) Models() []agent.Model { return nil }
func (p *scriptedProvider) SupportsTools() bool   { return true }

func newTestExecutor(t *testing.T, provider agent.LLMProvider, logDir string) (*Executor, *swarm.Graph, sessions.Store, checkpoint.Checkpointer) {
	t.Helper()

	store := sessions.NewMemoryStore()
	g := swarm.NewGraph(provider, store, "planner")
	if err := g.RegisterAgent(&swarm.AgentSpec{Name: "planner", BasePrompt: "You plan.", CanReceiveHandoffs: true}); err != nil {
		t.Fatalf("RegisterAgent() error = %v", err)
	}
	if err := g.Build(); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	cp := checkpoint.New(store, sessions.NewMemoryToolEventStore())
	logs := eventlog.NewFileStore(logDir)

	return New(g, store, cp, logs), g, store, cp
}

func TestExecutor_SingleAgentTurnEmitsMessageThenComplete(t *testing.T) {
	provider := &scriptedProvider{texts: []string{"all good"}}
	exec, _, _, cp := newTestExecutor(t, provider, t.TempDir())

	events, err := exec.Execute(context.Background(), "hello", Config{ThreadID: "thread-1", ModelLabel: "test-model"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var sawMessage, sawComplete bool
	for e := range events {
		switch e.Kind {
		case eventlog.EventMessage:
			sawMessage = true
			if e.Message.Content != "all good" {
				t.Errorf("Message.Content = %q, want %q", e.Message.Content, "all good")
			}
			if e.Message.AgentName != "planner" {
				t.Errorf("Message.AgentName = %q, want %q", e.Message.AgentName, "planner")
			}
		case eventlog.EventWorkflowComplete:
			sawComplete = true
		case eventlog.EventError:
			t.Fatalf("unexpected error event: %s", e.Err)
		}
	}
	if !sawMessage {
		t.Error("did not observe a Message event")
	}
	if !sawComplete {
		t.Error("did not observe a WorkflowComplete event")
	}

	state, err := cp.Load(context.Background(), "thread-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if state.CurrentAgent != "planner" {
		t.Errorf("CurrentAgent = %q, want %q", state.CurrentAgent, "planner")
	}
}

func TestExecutor_PersistsSessionLog(t *testing.T) {
	logDir := t.TempDir()
	provider := &scriptedProvider{texts: []string{"done"}}
	exec, _, _, _ := newTestExecutor(t, provider, logDir)

	events, err := exec.Execute(context.Background(), "scan 10.0.0.1", Config{ThreadID: "thread-2", ModelLabel: "test-model"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for range events {
	}

	store := eventlog.NewFileStore(logDir)
	summaries, err := store.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("List() = %d summaries, want 1", len(summaries))
	}
	if summaries[0].Preview != "scan 10.0.0.1" {
		t.Errorf("Preview = %q, want %q", summaries[0].Preview, "scan 10.0.0.1")
	}
}

func TestExecutor_ErrorPreservesPriorThreadState(t *testing.T) {
	provider := &scriptedProvider{}
	exec, _, _, cp := newTestExecutor(t, provider, t.TempDir())

	// Simulate a resumed thread whose checkpointed current_agent no longer
	// exists in this graph build, forcing a graph-level error.
	if err := cp.Save(context.Background(), &checkpoint.ThreadState{ThreadID: "thread-3", CurrentAgent: "ghost", StepCount: 2}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	events, err := exec.Execute(context.Background(), "hi", Config{ThreadID: "thread-3"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var sawError bool
	for e := range events {
		if e.Kind == eventlog.EventError {
			sawError = true
		}
	}
	if !sawError {
		t.Error("did not observe an Error event")
	}

	state, err := cp.Load(context.Background(), "thread-3")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if state.CurrentAgent != "ghost" || state.StepCount != 2 {
		t.Errorf("ThreadState mutated on error: %+v, want unchanged (ghost, 2)", state)
	}
}
