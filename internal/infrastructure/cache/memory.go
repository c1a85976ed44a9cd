package cache

import (
	"context"
	"sync"
	"time"

	"github.com/johnquangdev/mock-interview/pkg/ai"
)

// MemoryThreadStore is an in-memory conversation store with expiration.
// Suitable for single-process deployments and tests.
type MemoryThreadStore struct {
	mu    sync.RWMutex
	items map[string]*memoryItem
	now   func() time.Time
}

type memoryItem struct {
	messages   []ai.Message
	expireTime time.Time
}

// NewMemoryThreadStore creates a new in-memory store. Expired threads are swept until ctx is done.
func NewMemoryThreadStore(ctx context.Context) *MemoryThreadStore {
	store := &MemoryThreadStore{
		items: make(map[string]*memoryItem),
		now:   time.Now,
	}

	go store.cleanupExpired(ctx)

	return store
}

// Append adds messages to a thread and refreshes its expiration
func (ms *MemoryThreadStore) Append(_ context.Context, threadID string, ttl time.Duration, msgs ...ai.Message) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	item, ok := ms.items[threadID]
	if !ok || ms.expired(item) {
		item = &memoryItem{}
		ms.items[threadID] = item
	}
	item.messages = append(item.messages, msgs...)
	if ttl > 0 {
		item.expireTime = ms.now().Add(ttl)
	}
	return nil
}

// Load returns a copy of the thread history (empty if not found or expired)
func (ms *MemoryThreadStore) Load(_ context.Context, threadID string) ([]ai.Message, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	item, exists := ms.items[threadID]
	if !exists || ms.expired(item) {
		return nil, nil
	}

	out := make([]ai.Message, len(item.messages))
	copy(out, item.messages)
	return out, nil
}

// Delete removes a thread
func (ms *MemoryThreadStore) Delete(_ context.Context, threadID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.items, threadID)
	return nil
}

func (ms *MemoryThreadStore) expired(item *memoryItem) bool {
	return !item.expireTime.IsZero() && ms.now().After(item.expireTime)
}

// cleanupExpired periodically removes expired threads
func (ms *MemoryThreadStore) cleanupExpired(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ms.mu.Lock()
			for key, item := range ms.items {
				if ms.expired(item) {
					delete(ms.items, key)
				}
			}
			ms.mu.Unlock()
		}
	}
}
