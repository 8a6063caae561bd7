// Package cache stores LLM responses keyed by a content fingerprint.
// Caching is an optimization, never a correctness dependency: every
// implementation treats backend trouble as a miss and never fails a request.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is one cached LLM result.
type Entry struct {
	Response json.RawMessage `json:"response"`
	Model    string          `json:"model"`
	Tier     string          `json:"tier"`
	StoredAt time.Time       `json:"stored_at"`
}

// Cache is the response cache capability. Get reports a miss for absent,
// expired, undecodable, or unreachable entries; Put is fire-and-forget.
type Cache interface {
	Get(ctx context.Context, key string) (*Entry, bool)
	Put(ctx context.Context, key string, entry *Entry)
}
