// Package swarm is the agent graph (C4): a named table of agent
// specifications that share one conversation thread and hand control to
// one another by name, never by direct reference, adapted from
// internal/multiagent's supervisor+peer-handoff orchestrator and
// simplified to the swarm's single current-agent-pointer model.
package swarm

import "github.com/redcell/swarm/internal/agent"

// AgentSpec describes one member of the swarm: its role, the tools bound
// to it, and which model it runs on. Immutable after Build; the graph's
// agent table is rebuilt from scratch on a model change rather than
// mutated in place.
type AgentSpec struct {
	// Name identifies this agent in the graph and in handoff tool names
	// (handoff_to_<Name>).
	Name string

	// Role is a one-line description of what this agent specializes in,
	// used both in its own prompt and in peer agents' handoff catalogues.
	Role string

	// BasePrompt is the agent's role-specific system prompt content. The
	// graph wraps it with the tool manual, architecture, and handoff
	// catalogue layers at Build time.
	BasePrompt string

	// Model overrides the swarm's default model for this agent, if set.
	Model string

	// CanReceiveHandoffs controls whether peer agents get a
	// handoff_to_<Name> tool. Agents that only ever hand off (never
	// receive) can leave this false.
	CanReceiveHandoffs bool

	// Tools lists the non-handoff tools bound to this agent.
	Tools []agent.Tool
}
