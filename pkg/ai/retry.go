package ai

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/mock-interview/pkg/jobcontext"
	"github.com/johnquangdev/mock-interview/pkg/logger"
)

// ErrTimeout is returned when a generation call does not finish within its budget
var ErrTimeout = errors.New("generation timed out")

// RetryPolicy bounds a single generation call
type RetryPolicy struct {
	Timeout     time.Duration
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
}

// RetryingGenerator retries transient provider failures with exponential backoff inside one time budget
type RetryingGenerator struct {
	next   Generator
	policy RetryPolicy
	logger *zap.Logger
}

// NewRetryingGenerator wraps next with policy
func NewRetryingGenerator(next Generator, policy RetryPolicy, l *zap.Logger) *RetryingGenerator {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &RetryingGenerator{next: next, policy: policy, logger: logger.OrNop(l)}
}

func (g *RetryingGenerator) Generate(ctx context.Context, req Request) (string, error) {
	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if g.policy.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, g.policy.Timeout)
	}
	defer cancel()

	bo := backoff.NewExponentialBackOff()
	if g.policy.Initial > 0 {
		bo.InitialInterval = g.policy.Initial
	}
	if g.policy.Max > 0 {
		bo.MaxInterval = g.policy.Max
	}
	bo.MaxElapsedTime = 0

	var (
		out     string
		attempt int
	)
	op := func() error {
		attempt++
		attemptCtx := jobcontext.SetAttempt(callCtx, attempt)
		res, err := g.next.Generate(attemptCtx, req)
		if err == nil {
			out = res
			return nil
		}
		if !isTransient(err) {
			return backoff.Permanent(err)
		}
		g.logger.Warn("⚠️ Transient generation failure",
			append(jobcontext.Fields(attemptCtx), zap.Error(err))...,
		)
		return err
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(g.policy.MaxAttempts-1)), callCtx))
	if err == nil {
		return out, nil
	}

	// caller cancellation wins over the local deadline
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if callCtx.Err() != nil {
		return "", ErrTimeout
	}
	return "", err
}

func isTransient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	if errors.Is(err, ErrEmptyResponse) {
		return true
	}
	return jobcontext.IsRetryableError(err)
}
