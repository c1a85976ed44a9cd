package interview

import (
	"context"
	"sync"

	"github.com/johnquangdev/mock-interview/pkg/ai"
)

// scriptedGenerator returns its replies in order and records every request
type scriptedGenerator struct {
	mu       sync.Mutex
	replies  []reply
	requests []ai.Request
}

type reply struct {
	text string
	err  error
}

func script(replies ...reply) *scriptedGenerator {
	return &scriptedGenerator{replies: replies}
}

func (g *scriptedGenerator) Generate(ctx context.Context, req ai.Request) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(g.replies) == 0 {
		return "", ai.ErrEmptyResponse
	}
	r := g.replies[0]
	g.replies = g.replies[1:]
	return r.text, r.err
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func (g *scriptedGenerator) last() ai.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

func defaultEvaluatorOptions() EvaluatorOptions {
	return EvaluatorOptions{
		Rating:      Scale{Min: 1, Max: 10},
		Skill:       Scale{Min: 0, Max: 100},
		RequestTags: true,
	}
}
