package ai

import (
	"context"
	"fmt"
	"time"
)

// ThreadStore keeps conversation history per thread. Implementations must be safe for concurrent use.
type ThreadStore interface {
	Load(ctx context.Context, threadID string) ([]Message, error)
	Append(ctx context.Context, threadID string, ttl time.Duration, msgs ...Message) error
	Delete(ctx context.Context, threadID string) error
}

// ThreadedGenerator replays a thread's history before each call. It never records: callers
// append the Exchange once the output has been accepted and the turn committed.
type ThreadedGenerator struct {
	next  Generator
	store ThreadStore
	ttl   time.Duration
}

// NewThreadedGenerator wraps next with history kept in store
func NewThreadedGenerator(next Generator, store ThreadStore, ttl time.Duration) *ThreadedGenerator {
	return &ThreadedGenerator{next: next, store: store, ttl: ttl}
}

func (g *ThreadedGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if req.ThreadID == "" || g.store == nil {
		return g.next.Generate(ctx, req)
	}

	history, err := g.store.Load(ctx, req.ThreadID)
	if err != nil {
		return "", fmt.Errorf("load thread: %w", err)
	}

	var system, turn []Message
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			system = append(system, m)
		} else {
			turn = append(turn, m)
		}
	}

	msgs := make([]Message, 0, len(system)+len(history)+len(turn))
	msgs = append(msgs, system...)
	msgs = append(msgs, history...)
	msgs = append(msgs, turn...)

	return g.next.Generate(ctx, Request{ThreadID: req.ThreadID, Messages: msgs})
}

// Commit appends an accepted exchange to the thread
func (g *ThreadedGenerator) Commit(ctx context.Context, threadID string, exchange ...Message) error {
	if threadID == "" || g.store == nil || len(exchange) == 0 {
		return nil
	}
	if err := g.store.Append(ctx, threadID, g.ttl, exchange...); err != nil {
		return fmt.Errorf("append thread: %w", err)
	}
	return nil
}

// Forget drops the thread
func (g *ThreadedGenerator) Forget(ctx context.Context, threadID string) error {
	if threadID == "" || g.store == nil {
		return nil
	}
	return g.store.Delete(ctx, threadID)
}

// Exchange is the part of req and its output worth remembering in a thread.
// System prompts and attachments are not replayed.
func Exchange(req Request, out string) []Message {
	record := make([]Message, 0, len(req.Messages)+1)
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			continue
		}
		record = append(record, Message{Role: m.Role, Content: m.Content})
	}
	return append(record, Message{Role: RoleAssistant, Content: out})
}
