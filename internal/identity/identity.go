// Package identity derives the per-user and per-thread identifiers the
// rest of the swarm addresses state by: thread_id for the Checkpointer,
// user_id for the memory namespace. Grounded on internal/sessions'
// SessionKeyBuilder colon-joined key convention, simplified to the two
// hash-derived components spec.md names rather than the session store's
// channel/peer/group scoping matrix.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// DefaultConversationID is used until the caller starts a fresh chat.
const DefaultConversationID = "default"

// DeriveUserID hashes a stable client fingerprint together with a date
// bucket, so a returning same-day visitor resolves to the same user_id
// without the scheme being a cryptographic identity.
func DeriveUserID(fingerprint string, now time.Time) string {
	bucket := now.UTC().Format("2006-01-02")
	sum := sha256.Sum256([]byte(fingerprint + bucket))
	return "user_" + hex.EncodeToString(sum[:])[:16]
}

// DeriveThreadID combines a user_id and conversation_id into the key the
// Checkpointer addresses ThreadState by.
func DeriveThreadID(userID, conversationID string) string {
	if conversationID == "" {
		conversationID = DefaultConversationID
	}
	return "thread_" + userID + "_" + conversationID
}

// MemoryNamespace names the (user_id, "memories") pair the memory Store
// partitions its keys by.
type MemoryNamespace struct {
	UserID string
	Kind   string
}

// NewMemoryNamespace builds the per-user memory namespace.
func NewMemoryNamespace(userID string) MemoryNamespace {
	return MemoryNamespace{UserID: userID, Kind: "memories"}
}
