package cache

import "context"

// Nop is the pass-through cache used when caching is disabled or the
// backend is unreachable at startup. Every lookup misses; stores vanish.
type Nop struct{}

func (Nop) Get(context.Context, string) (*Entry, bool) { return nil, false }
func (Nop) Put(context.Context, string, *Entry)        {}
