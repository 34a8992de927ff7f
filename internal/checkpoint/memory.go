package checkpoint

import "github.com/redcell/swarm/internal/sessions"

// NewMemory returns an in-memory Checkpointer suitable for tests and local
// runs, backed by sessions.MemoryStore and sessions.MemoryToolEventStore.
func NewMemory() Checkpointer {
	return New(sessions.NewMemoryStore(), sessions.NewMemoryToolEventStore())
}
