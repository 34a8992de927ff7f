// Package toolserver runs reconnaissance and initial-access commands inside
// a sandboxed container, multiplexed over a pool of tmux sessions reached
// through `docker exec`. Tools never exec commands on the host directly;
// every CommandExec call is routed through here so the swarm's blast radius
// is contained to the target container.
package toolserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/redcell/swarm/internal/shell"
)

// ErrSessionNotFound is returned when an operation references a session
// the server has no record of.
var ErrSessionNotFound = errors.New("toolserver: session not found")

// commandTimeout bounds a single docker-exec invocation used to drive tmux
// itself (new-session, send-keys, capture-pane) — not the command run
// inside the tmux session, which is bounded by waitTimeout instead.
const commandTimeout = 10 * time.Second

// waitTimeout bounds how long CommandExec waits for a command to signal
// completion via tmux's wait-for channel before giving up and returning
// whatever is on screen.
const waitTimeout = 5 * time.Minute

// Server multiplexes tool commands over tmux sessions inside one container.
type Server struct {
	container string
	registry  *shell.ProcessRegistry
	logger    *slog.Logger
}

// NewServer creates a tool server targeting the given container name.
func NewServer(container string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		container: container,
		registry:  shell.NewProcessRegistry(logger),
		logger:    logger.With("component", "toolserver", "container", container),
	}
}

// run execs `docker exec <container> tmux <args...>` and returns combined
// stdout with trailing whitespace trimmed.
func (s *Server) run(ctx context.Context, args ...string) (string, error) {
	execCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	full := append([]string{"exec", s.container, "tmux"}, args...)
	cmd := exec.CommandContext(execCtx, "docker", full...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tmux %s: %w: %s", strings.Join(args, " "), err, stderr.String())
	}
	return strings.TrimSpace(stdout.String()), nil
}

// EnsureContainer verifies the target container is running, returning an
// error describing why it isn't reachable otherwise. Supplements the
// original fixed-container assumption with an explicit preflight check.
func (s *Server) EnsureContainer(ctx context.Context) error {
	execCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "docker", "inspect", "-f", "{{.State.Running}}", s.container)
	out, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("toolserver: container %q not found: %w", s.container, err)
	}
	if strings.TrimSpace(string(out)) != "true" {
		return fmt.Errorf("toolserver: container %q is not running", s.container)
	}
	return nil
}

// CreateSession creates a new tmux session inside the container and
// returns its ID.
func (s *Server) CreateSession(ctx context.Context) (string, error) {
	id := uuid.NewString()[:8]

	if _, err := s.run(ctx, "new-session", "-d", "-s", id); err != nil {
		return "", fmt.Errorf("toolserver: create session: %w", err)
	}

	s.registry.AddSession(&shell.ProcessSession{
		ID:        id,
		StartedAt: time.Now(),
	})

	s.logger.Info("session created", "session_id", id)
	return id, nil
}

// SessionExists reports whether a session is tracked and still alive in
// tmux.
func (s *Server) SessionExists(ctx context.Context, sessionID string) bool {
	if _, ok := s.registry.GetSession(sessionID); !ok {
		return false
	}
	ids, err := s.SessionList(ctx)
	if err != nil {
		return false
	}
	for _, id := range ids {
		if id == sessionID {
			return true
		}
	}
	return false
}

// SessionList returns the IDs of all active tmux sessions in the
// container.
func (s *Server) SessionList(ctx context.Context) ([]string, error) {
	out, err := s.run(ctx, "list-sessions")
	if err != nil {
		// tmux exits non-zero when there are no sessions at all.
		return nil, nil
	}
	return parseSessionList(out), nil
}

// parseSessionList extracts session IDs from `tmux list-sessions` output,
// one entry per line formatted as "<id>: ...".
func parseSessionList(out string) []string {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil
	}

	var ids []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if idx := strings.Index(line, ":"); idx >= 0 {
			ids = append(ids, strings.TrimSpace(line[:idx]))
		}
	}
	return ids
}

// CommandExec runs a command in the given session and returns the pane
// output produced once the command completes. Completion is detected with
// tmux's wait-for channel, so the command's own output is captured
// directly with no polling or prompt-pattern guessing.
func (s *Server) CommandExec(ctx context.Context, sessionID, command string) (string, error) {
	if !s.registry.IsSessionIDTaken(sessionID) {
		return "", ErrSessionNotFound
	}

	channel := "done-" + sessionID
	wrapped := fmt.Sprintf("(%s); tmux wait-for -S %s", command, channel)

	if _, err := s.run(ctx, "send-keys", "-t", sessionID, wrapped, "Enter"); err != nil {
		return "", fmt.Errorf("toolserver: send command: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, waitTimeout)
	defer cancel()
	if _, err := s.run(waitCtx, "wait-for", channel); err != nil {
		return "", fmt.Errorf("toolserver: command did not complete within %s: %w", waitTimeout, err)
	}

	out, err := s.run(ctx, "capture-pane", "-t", sessionID, "-p")
	if err != nil {
		return "", fmt.Errorf("toolserver: capture output: %w", err)
	}
	return out, nil
}

// CommandExecMarker runs a command and extracts only the output between
// synthetic start/end markers, for commands whose completion can't be
// reliably detected via wait-for (e.g. backgrounded or detaching
// processes).
func (s *Server) CommandExecMarker(ctx context.Context, sessionID, command string) (string, error) {
	if !s.registry.IsSessionIDTaken(sessionID) {
		return "", ErrSessionNotFound
	}

	stamp := time.Now().UnixNano()
	startMarker := fmt.Sprintf("===START_%d===", stamp)
	endMarker := fmt.Sprintf("===END_%d===", stamp)

	if _, err := s.run(ctx, "send-keys", "-t", sessionID, "echo '"+startMarker+"'", "Enter"); err != nil {
		return "", fmt.Errorf("toolserver: write start marker: %w", err)
	}
	if _, err := s.run(ctx, "send-keys", "-t", sessionID, command, "Enter"); err != nil {
		return "", fmt.Errorf("toolserver: send command: %w", err)
	}
	if _, err := s.run(ctx, "send-keys", "-t", sessionID, "echo '"+endMarker+"'", "Enter"); err != nil {
		return "", fmt.Errorf("toolserver: write end marker: %w", err)
	}

	out, err := s.run(ctx, "capture-pane", "-t", sessionID, "-p")
	if err != nil {
		return "", fmt.Errorf("toolserver: capture output: %w", err)
	}

	return extractMarkerOutput(out, startMarker, endMarker), nil
}

// extractMarkerOutput returns the pane text strictly between startMarker
// and endMarker, falling back to the full output if either marker is
// missing or out of order.
func extractMarkerOutput(out, startMarker, endMarker string) string {
	lines := strings.Split(out, "\n")
	start, end := -1, -1
	for i, line := range lines {
		switch {
		case strings.Contains(line, startMarker):
			start = i + 1
		case strings.Contains(line, endMarker):
			end = i
		}
	}
	if start == -1 || end == -1 || start > end {
		return out
	}
	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}

// KillSession terminates a single tmux session.
func (s *Server) KillSession(ctx context.Context, sessionID string) error {
	_, err := s.run(ctx, "kill-session", "-t", sessionID)
	// tmux reports an error if the session is already gone; treat that as
	// success the same way the original tool does.
	s.registry.DeleteSession(sessionID)
	if err != nil {
		s.logger.Warn("kill session reported an error", "session_id", sessionID, "error", err)
	}
	return nil
}

// KillServer terminates the tmux server and every session it holds.
func (s *Server) KillServer(ctx context.Context) error {
	_, err := s.run(ctx, "kill-server")
	s.registry.Reset()
	if err != nil {
		s.logger.Warn("kill server reported an error", "error", err)
	}
	return nil
}
