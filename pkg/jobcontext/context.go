package jobcontext

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type KeyContext string

var (
	keyOpID      KeyContext = "op_id"
	keyOpName    KeyContext = "op_name"
	keyMockID    KeyContext = "mock_id"
	keyStartTime KeyContext = "op_start_time"
	keyAttempt   KeyContext = "attempt"
)

// Metadata describes one engine operation in flight
type Metadata struct {
	OpID      uuid.UUID
	Op        string
	MockID    string
	Attempt   int
	StartTime time.Time
}

// Begin derives an operation context from parent carrying metadata and, when timeout > 0, a deadline.
// Cancellation of parent still propagates.
func Begin(parent context.Context, mockID, op string, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := parent, context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	}

	ctx = context.WithValue(ctx, keyOpID, uuid.New())
	ctx = context.WithValue(ctx, keyOpName, op)
	ctx = context.WithValue(ctx, keyMockID, mockID)
	ctx = context.WithValue(ctx, keyStartTime, time.Now())
	ctx = context.WithValue(ctx, keyAttempt, 0)

	return ctx, cancel
}

// SetAttempt records the current retry attempt
func SetAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, keyAttempt, attempt)
}

// GetAttempt extracts the current retry attempt
func GetAttempt(ctx context.Context) int {
	attempt, ok := ctx.Value(keyAttempt).(int)
	if !ok {
		return 0
	}
	return attempt
}

// GetMockID extracts the session id from context
func GetMockID(ctx context.Context) string {
	id, _ := ctx.Value(keyMockID).(string)
	return id
}

// GetMetadata extracts all operation metadata from context
func GetMetadata(ctx context.Context) *Metadata {
	opID, _ := ctx.Value(keyOpID).(uuid.UUID)
	op, _ := ctx.Value(keyOpName).(string)
	start, _ := ctx.Value(keyStartTime).(time.Time)
	return &Metadata{
		OpID:      opID,
		Op:        op,
		MockID:    GetMockID(ctx),
		Attempt:   GetAttempt(ctx),
		StartTime: start,
	}
}

// Fields returns zap fields describing the operation in ctx
func Fields(ctx context.Context) []zap.Field {
	md := GetMetadata(ctx)
	fields := make([]zap.Field, 0, 5)
	if md.OpID != uuid.Nil {
		fields = append(fields, zap.String("op_id", md.OpID.String()))
	}
	if md.Op != "" {
		fields = append(fields, zap.String("op", md.Op))
	}
	if md.MockID != "" {
		fields = append(fields, zap.String("mock_id", md.MockID))
	}
	if md.Attempt > 0 {
		fields = append(fields, zap.Int("attempt", md.Attempt))
	}
	if !md.StartTime.IsZero() {
		fields = append(fields, zap.Duration("elapsed", time.Since(md.StartTime)))
	}
	return fields
}

// IsRetryableError checks if a provider call failure is transient.
// Retryable errors include network errors, rate limits and 5xx responses.
// Cancellation or expiry of the caller's context is never retryable.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())

	// Network errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "network unreachable") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "eof") {
		return true
	}

	// Database serialization failures (Postgres)
	if strings.Contains(errStr, "deadlock") ||
		strings.Contains(errStr, "40001") ||
		strings.Contains(errStr, "40p01") {
		return true
	}

	// API rate limiting
	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "resource_exhausted") {
		return true
	}

	// Server errors (5xx)
	if strings.Contains(errStr, "status 5") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "bad gateway") ||
		strings.Contains(errStr, "overloaded") {
		return true
	}

	// Temporary failures
	if strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "try again") {
		return true
	}

	return false
}
