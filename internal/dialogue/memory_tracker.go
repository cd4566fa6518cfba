package dialogue

import (
	"context"
	"sync"
	"time"
)

// MemoryTracker is an in-process StateTracker with TTL-based expiry, for
// single-instance deployments and tests. Expired entries are dropped lazily
// on access.
type MemoryTracker struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration

	now func() time.Time
}

type memoryEntry struct {
	state     ConversationState
	expiresAt time.Time
}

// NewMemoryTracker creates a tracker whose entries expire after ttl. A zero
// ttl defaults to 24h so abandoned conversations cannot leak forever.
func NewMemoryTracker(ttl time.Duration) *MemoryTracker {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryTracker{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (t *MemoryTracker) Set(_ context.Context, sender string, state *ConversationState) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sweepLocked()
	t.entries[sender] = memoryEntry{
		state:     *state,
		expiresAt: t.now().Add(t.ttl),
	}
	return nil
}

func (t *MemoryTracker) Get(_ context.Context, sender string) (*ConversationState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[sender]
	if !ok {
		return nil, nil
	}
	if t.now().After(entry.expiresAt) {
		delete(t.entries, sender)
		return nil, nil
	}
	state := entry.state
	return &state, nil
}

func (t *MemoryTracker) Clear(_ context.Context, sender string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, sender)
	return nil
}

// sweepLocked drops expired entries. Called under the mutex on writes so the
// map does not grow unbounded from abandoned conversations.
func (t *MemoryTracker) sweepLocked() {
	now := t.now()
	for sender, entry := range t.entries {
		if now.After(entry.expiresAt) {
			delete(t.entries, sender)
		}
	}
}
