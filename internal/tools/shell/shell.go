// Package shell implements the reconnaissance and initial-access tool
// family: thin command builders that validate their arguments and hand the
// assembled command line to the tool server's tmux session pool.
package shell

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redcell/swarm/internal/agent"
	"github.com/redcell/swarm/internal/exec"
	"github.com/redcell/swarm/internal/toolserver"
)

// runner is the subset of toolserver.Server a shell tool needs. Tools
// depend on this interface rather than *toolserver.Server directly so
// tests can substitute a fake.
type runner interface {
	CommandExec(ctx context.Context, sessionID, command string) (string, error)
}

// validateField rejects values containing shell metacharacters, quotes, or
// control characters, so a tool argument can't break out of its slot in
// the assembled command line.
func validateField(name, value string) error {
	if value == "" {
		return nil
	}
	if !exec.IsSafeArgument(value) {
		return fmt.Errorf("%s contains unsafe characters", name)
	}
	return nil
}

// errorResult builds a ToolResult describing a validation or execution
// failure.
func errorResult(err error) (*agent.ToolResult, error) {
	return &agent.ToolResult{Content: err.Error(), IsError: true}, nil
}

// runCommand validates the session ID and runs the assembled command
// through the tool server, returning its pane output as a ToolResult.
func runCommand(ctx context.Context, r runner, sessionID, command string) (*agent.ToolResult, error) {
	if sessionID == "" {
		return errorResult(fmt.Errorf("session_id is required"))
	}
	out, err := r.CommandExec(ctx, sessionID, command)
	if err != nil {
		return errorResult(err)
	}
	return &agent.ToolResult{Content: out}, nil
}

func unmarshalParams(params json.RawMessage, dst any) error {
	if len(params) == 0 {
		return fmt.Errorf("missing parameters")
	}
	return json.Unmarshal(params, dst)
}
