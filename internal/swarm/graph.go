package swarm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/redcell/swarm/internal/agent"
	"github.com/redcell/swarm/internal/sessions"
	"github.com/redcell/swarm/pkg/models"
)

// ErrStepLimitExceeded is returned when a turn exhausts its graph step
// budget without the active agent yielding a final, handoff-free response.
var ErrStepLimitExceeded = errors.New("swarm: step limit exceeded")

// DefaultMaxSteps bounds graph steps per turn absent an explicit override.
const DefaultMaxSteps = 40

// Graph holds the AgentSpec table keyed by name (never direct agent
// references, so handoffs route through the map rather than pointers) and
// drives the current-agent pointer across handoffs for one turn.
type Graph struct {
	mu sync.RWMutex

	specs    map[string]*AgentSpec
	runtimes map[string]*agent.Agent

	provider     agent.LLMProvider
	store        sessions.Store
	defaultAgent string
	maxSteps     int
}

// NewGraph creates an empty graph. Call RegisterAgent for each swarm
// member, then Build before the first Process call.
func NewGraph(provider agent.LLMProvider, store sessions.Store, defaultAgent string) *Graph {
	return &Graph{
		specs:        make(map[string]*AgentSpec),
		runtimes:     make(map[string]*agent.Agent),
		provider:     provider,
		store:        store,
		defaultAgent: defaultAgent,
		maxSteps:     DefaultMaxSteps,
	}
}

// SetMaxSteps overrides the per-turn graph step budget.
func (g *Graph) SetMaxSteps(n int) {
	if n > 0 {
		g.maxSteps = n
	}
}

// RegisterAgent adds a spec to the graph. Call Build once every spec for
// this process has been registered.
func (g *Graph) RegisterAgent(spec *AgentSpec) error {
	if spec == nil || spec.Name == "" {
		return errors.New("swarm: agent spec must have a name")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.specs[spec.Name] = spec
	return nil
}

// Build constructs one agent.Agent per registered spec. Every agent's
// bound tools include the handoff_to_<peer> tool for every OTHER spec that
// can receive handoffs, and its system prompt is assembled from the four
// layers spec.md names: base role, tool manual, architecture, and handoff
// catalogue. The AgentSpec set is rebuilt with Build whenever the swarm's
// model selection changes, rather than mutated agent-by-agent.
func (g *Graph) Build() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.specs) == 0 {
		return errors.New("swarm: no agents registered")
	}
	if _, ok := g.specs[g.defaultAgent]; g.defaultAgent != "" && !ok {
		return fmt.Errorf("swarm: default agent %q not registered", g.defaultAgent)
	}

	for name, spec := range g.specs {
		registry := agent.NewToolRegistry()
		for _, t := range spec.Tools {
			registry.Register(t)
		}
		for peerName, peer := range g.specs {
			if peerName == name || !peer.CanReceiveHandoffs {
				continue
			}
			registry.Register(NewHandoffTool(peerName, peer.Role))
		}

		ag := agent.NewAgent(g.provider, registry, g.store, nil)
		ag.SetDefaultSystem(composeSystemPrompt(spec, g.specs))
		if spec.Model != "" {
			ag.SetDefaultModel(spec.Model)
		}
		g.runtimes[name] = ag
	}
	return nil
}

// composeSystemPrompt assembles a swarm member's system prompt from four
// layers: base role, tool manual, architecture, and handoff catalogue.
// This layering is authorial, not algorithmic — the composed text is a
// single constant per agent once Build runs.
func composeSystemPrompt(spec *AgentSpec, all map[string]*AgentSpec) string {
	var b strings.Builder

	b.WriteString(spec.BasePrompt)
	b.WriteString("\n\n")

	if len(spec.Tools) > 0 {
		b.WriteString("## Tools\n")
		for _, t := range spec.Tools {
			fmt.Fprintf(&b, "- %s: %s\n", t.Name(), t.Description())
		}
		b.WriteString("\n")
	}

	b.WriteString("## Architecture\n")
	b.WriteString("You are part of a swarm of specialized agents sharing one conversation. ")
	b.WriteString("When a request needs a peer's expertise, hand off via the appropriate handoff_to_<agent> tool instead of attempting it yourself.\n\n")

	var peers []string
	for peerName, peer := range all {
		if peerName == spec.Name || !peer.CanReceiveHandoffs {
			continue
		}
		peers = append(peers, fmt.Sprintf("- handoff_to_%s: %s", peerName, peer.Role))
	}
	if len(peers) > 0 {
		b.WriteString("## Peer agents\n")
		b.WriteString(strings.Join(peers, "\n"))
		b.WriteString("\n")
	}

	return b.String()
}

// GetSpec returns a registered agent's spec by name.
func (g *Graph) GetSpec(name string) (*AgentSpec, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	spec, ok := g.specs[name]
	return spec, ok
}

// ListSpecs returns all registered agent specs.
func (g *Graph) ListSpecs() []*AgentSpec {
	g.mu.RLock()
	defer g.mu.RUnlock()
	specs := make([]*AgentSpec, 0, len(g.specs))
	for _, s := range g.specs {
		specs = append(specs, s)
	}
	return specs
}

func (g *Graph) getRuntime(name string) (*agent.Agent, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ag, ok := g.runtimes[name]
	return ag, ok
}

// GraphChunk is one raw graph event: the agent namespace that produced it
// (spec.md §4.6 step 3's "each event names a namespace") plus the
// underlying response chunk from that agent's loop.
type GraphChunk struct {
	AgentName string
	*agent.ResponseChunk
}

// Process drives the graph for one user turn: read current_agent_name (or
// the graph default if unset), run that agent, and on a handoff tool call
// move the pointer to the named target and resume — without appending a
// new user message, since messages stay intact across a handoff — until
// an agent terminates without a handoff or the step budget is exhausted.
// It returns the agent holding the turn when it ends.
func (g *Graph) Process(ctx context.Context, session *models.Session, msg *models.Message, currentAgent string) (<-chan *GraphChunk, <-chan string) {
	out := make(chan *GraphChunk, 16)
	final := make(chan string, 1)

	go func() {
		defer close(out)
		defer close(final)

		name := currentAgent
		if name == "" {
			name = g.defaultAgent
		}

		turnMsg := msg
		for step := 1; ; step++ {
			if step > g.maxSteps {
				out <- &GraphChunk{AgentName: name, ResponseChunk: &agent.ResponseChunk{Error: ErrStepLimitExceeded}}
				final <- name
				return
			}

			ag, ok := g.getRuntime(name)
			if !ok {
				out <- &GraphChunk{AgentName: name, ResponseChunk: &agent.ResponseChunk{Error: fmt.Errorf("swarm: unknown agent %q", name)}}
				final <- name
				return
			}

			chunks, err := ag.Run(ctx, session, turnMsg)
			if err != nil {
				out <- &GraphChunk{AgentName: name, ResponseChunk: &agent.ResponseChunk{Error: err}}
				final <- name
				return
			}

			handoffTarget := ""
			for chunk := range chunks {
				if chunk.ToolEvent != nil && chunk.ToolEvent.Stage == models.ToolEventRequested {
					if target, ok := agent.HandoffTargetFromToolName(chunk.ToolEvent.ToolName); ok {
						handoffTarget = target
					}
				}
				out <- &GraphChunk{AgentName: name, ResponseChunk: chunk}
			}

			if handoffTarget == "" {
				final <- name
				return
			}
			if _, ok := g.getRuntime(handoffTarget); !ok {
				out <- &GraphChunk{AgentName: name, ResponseChunk: &agent.ResponseChunk{Error: fmt.Errorf("swarm: handoff to unknown agent %q", handoffTarget)}}
				final <- name
				return
			}

			name = handoffTarget
			// The target agent resumes from shared message history; no new
			// user message is appended for a handoff continuation.
			turnMsg = &models.Message{
				SessionID: session.ID,
				Role:      models.RoleSystem,
				Content:   "Control transferred to you from a peer agent. Continue the task using the conversation so far.",
			}
		}
	}()

	return out, final
}
