package main

import (
	"github.com/redcell/swarm/internal/agent"
	"github.com/redcell/swarm/internal/config"
	"github.com/redcell/swarm/internal/memory"
	"github.com/redcell/swarm/internal/sessions"
	"github.com/redcell/swarm/internal/swarm"
	"github.com/redcell/swarm/internal/tools/shell"
	"github.com/redcell/swarm/internal/toolserver"
)

// Agent names, exactly as spec.md §1 and its handoff scenarios name them.
const (
	agentPlanner        = "planner"
	agentReconnaissance = "reconnaissance"
	agentInitialAccess  = "initial-access"
	agentSummary        = "summary"
)

// buildGraph assembles the four-member swarm: planner routes the
// operator's request to reconnaissance or initial-access, either of which
// can hand back to planner or forward to summary for a final narrative.
// Grounded on original_source's src/agents/swarm/*.py, which wires the same
// four agents with an equivalent full-mesh handoff set.
func buildGraph(cfg *config.Config, provider agent.LLMProvider, store sessions.Store, tools *toolserver.Server, mem *memory.Manager, bindings map[string]config.AgentBinding) (*swarm.Graph, error) {
	graph := swarm.NewGraph(provider, store, cfg.Swarm.DefaultAgent)
	graph.SetMaxSteps(cfg.Swarm.MaxSteps)

	reconTools := []agent.Tool{
		&shell.Nmap{Server: tools},
		&shell.Curl{Server: tools},
		&shell.Dig{Server: tools},
		&shell.Whois{Server: tools},
	}
	initAccessTools := []agent.Tool{
		&shell.Hydra{Server: tools},
		&shell.Searchsploit{Server: tools},
		&shell.Sshpass{Server: tools},
	}
	summaryTools := []agent.Tool{}

	// original_source's Summary and Initial_Access swarm agents both carry
	// manage_memory/search_memory; Planner and Reconnaissance do not.
	if mem != nil {
		initAccessTools = append(initAccessTools, &memory.ManageMemory{Manager: mem}, &memory.SearchMemory{Manager: mem})
		summaryTools = append(summaryTools, &memory.ManageMemory{Manager: mem}, &memory.SearchMemory{Manager: mem})
	}

	specs := []*swarm.AgentSpec{
		{
			Name:               agentPlanner,
			Role:                "breaks an operator request into steps and routes them to the right specialist",
			BasePrompt:          plannerPrompt,
			CanReceiveHandoffs: true,
		},
		{
			Name:               agentReconnaissance,
			Role:                "runs network and information-gathering tools against the target",
			BasePrompt:          reconPrompt,
			CanReceiveHandoffs: true,
			Tools:              reconTools,
		},
		{
			Name:               agentInitialAccess,
			Role:                "attempts exploitation and credential access against the target",
			BasePrompt:          initAccessPrompt,
			CanReceiveHandoffs: true,
			Tools:              initAccessTools,
		},
		{
			Name:               agentSummary,
			Role:                "narrates the engagement's findings back to the operator",
			BasePrompt:          summaryPrompt,
			CanReceiveHandoffs: true,
			Tools:              summaryTools,
		},
	}

	// The agent bindings file (SwarmConfig.AgentBindingsFile) lets an
	// operator pin one agent to a non-default model without touching the
	// swarm's own YAML config; internal/config.Watcher picks up edits to
	// it live.
	for _, spec := range specs {
		if b, ok := bindings[spec.Name]; ok && b.Model != "" {
			spec.Model = b.Model
		}
		if err := graph.RegisterAgent(spec); err != nil {
			return nil, err
		}
	}
	if err := graph.Build(); err != nil {
		return nil, err
	}
	return graph, nil
}

const plannerPrompt = `You are the planner in a red-team agent swarm. An operator describes a
target and goal in plain language; you break it into concrete steps and
hand off to the specialist who should run the next step: reconnaissance
for scanning and information gathering, initial-access for exploitation
and credential attacks, summary once the engagement is ready to report.
Never run tools yourself - route the request instead.`

const reconPrompt = `You are the reconnaissance agent in a red-team agent swarm. You run
network and information-gathering tools (nmap, curl, dig, whois) against
the target the planner hands you, in a sandboxed container. Report what
you find plainly. Hand off to initial-access once recon suggests an
exploitation path, or back to planner if the task is outside recon's
scope.`

const initAccessPrompt = `You are the initial-access agent in a red-team agent swarm. You attempt
exploitation and credential access (hydra, searchsploit, sshpass) against
a target reconnaissance has already profiled, in a sandboxed container.
Hand off to summary once you have a result worth reporting, or back to
reconnaissance if you need more information about the target first.`

const summaryPrompt = `You are the summary agent in a red-team agent swarm. You narrate the
engagement's findings - what was scanned, what was attempted, what
succeeded or failed - back to the operator in plain language. Hand off to
planner if the operator asks for further work.`
