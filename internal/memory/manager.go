// Package memory is the swarm's per-user long-term store: facts an agent
// asks to remember and later recall by a plain substring match, not a
// per-thread checkpoint (see internal/checkpoint for that).
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/redcell/swarm/pkg/models"
)

// Config controls the memory store's behavior.
type Config struct {
	Enabled bool `yaml:"enabled"`

	// Search defaults
	Search SearchConfig `yaml:"search"`
}

// SearchConfig contains default search parameters.
type SearchConfig struct {
	DefaultLimit int    `yaml:"default_limit"`
	DefaultScope string `yaml:"default_scope"`
}

// Manager is a plain key-value store with substring search over entry
// content, scoped by session/channel/agent/global. It leaves room for an
// `Embedding` field on MemoryEntry so a future semantic backend could slot
// in without changing the schema, but performs no vector math itself.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]*models.MemoryEntry
	config  *Config
}

// NewManager creates a new memory manager. Returns nil if the config is
// nil or disabled, matching how callers already check for a nil Manager.
func NewManager(cfg *Config) (*Manager, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.DefaultScope == "" {
		cfg.Search.DefaultScope = string(models.ScopeSession)
	}

	return &Manager{
		entries: make(map[string]*models.MemoryEntry),
		config:  cfg,
	}, nil
}

// Index stores memory entries, assigning IDs and timestamps as needed.
func (m *Manager) Index(ctx context.Context, entries []*models.MemoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for _, entry := range entries {
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		entry.UpdatedAt = now
		m.entries[entry.ID] = entry
	}
	return nil
}

// namespaceKey builds the composite key memory tools use to address a
// single record within a user's namespace: (user_id, "memories", key).
func namespaceKey(userID, key string) string {
	return "memories:" + userID + ":" + key
}

// Put upserts a single keyed record into a user's memory namespace.
func (m *Manager) Put(ctx context.Context, userID, key, value string) error {
	id := namespaceKey(userID, key)

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	entry, exists := m.entries[id]
	if !exists {
		entry = &models.MemoryEntry{ID: id, AgentID: userID, CreatedAt: now}
	}
	entry.Content = value
	entry.UpdatedAt = now
	m.entries[id] = entry
	return nil
}

// Get retrieves a single keyed record from a user's memory namespace.
// Returns "", false if the key has never been put.
func (m *Manager) Get(ctx context.Context, userID, key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[namespaceKey(userID, key)]
	if !ok {
		return "", false
	}
	return entry.Content, true
}

// scopeMatches reports whether an entry belongs to the requested scope.
func scopeMatches(entry *models.MemoryEntry, scope models.MemoryScope, scopeID string) bool {
	switch scope {
	case models.ScopeGlobal, "":
		return true
	case models.ScopeSession:
		return scopeID == "" || entry.SessionID == scopeID
	case models.ScopeChannel:
		return scopeID == "" || entry.ChannelID == scopeID
	case models.ScopeAgent:
		return scopeID == "" || entry.AgentID == scopeID
	default:
		return false
	}
}

// Search finds memories whose content contains the query string
// (case-insensitive), filtered to the requested scope.
func (m *Manager) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	start := time.Now()

	if req.Limit == 0 {
		req.Limit = m.config.Search.DefaultLimit
	}
	if req.Scope == "" {
		req.Scope = models.MemoryScope(m.config.Search.DefaultScope)
	}

	needle := strings.ToLower(strings.TrimSpace(req.Query))

	m.mu.RLock()
	var matches []*models.SearchResult
	for _, entry := range m.entries {
		if !scopeMatches(entry, req.Scope, req.ScopeID) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(entry.Content), needle) {
			continue
		}
		matches = append(matches, &models.SearchResult{
			Entry: entry,
			Score: 1,
		})
	}
	m.mu.RUnlock()

	if req.Limit > 0 && len(matches) > req.Limit {
		matches = matches[:req.Limit]
	}

	return &models.SearchResponse{
		Results:    matches,
		TotalCount: len(matches),
		QueryTime:  time.Since(start),
	}, nil
}

// Delete removes memory entries by ID.
func (m *Manager) Delete(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.entries, id)
	}
	return nil
}

// Count returns the number of memories in the given scope.
func (m *Manager) Count(ctx context.Context, scope models.MemoryScope, scopeID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, entry := range m.entries {
		if scopeMatches(entry, scope, scopeID) {
			count++
		}
	}
	return count, nil
}

// Stats returns statistics about the memory store.
func (m *Manager) Stats(ctx context.Context) (*Stats, error) {
	count, err := m.Count(ctx, models.ScopeGlobal, "")
	if err != nil {
		return nil, err
	}
	return &Stats{TotalEntries: count}, nil
}

// Close is a no-op; the store is in-memory only.
func (m *Manager) Close() error {
	return nil
}

// Stats contains memory store statistics.
type Stats struct {
	TotalEntries int64 `json:"total_entries"`
}
