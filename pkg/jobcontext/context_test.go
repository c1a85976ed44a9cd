package jobcontext

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestBegin_CarriesMetadata(t *testing.T) {
	ctx, cancel := Begin(context.Background(), "mock-1", "submit_answer", time.Minute)
	defer cancel()

	md := GetMetadata(ctx)
	if md.MockID != "mock-1" || md.Op != "submit_answer" {
		t.Fatalf("unexpected metadata: %+v", md)
	}
	if _, ok := ctx.Deadline(); !ok {
		t.Fatal("expected deadline")
	}

	ctx = SetAttempt(ctx, 2)
	if GetAttempt(ctx) != 2 {
		t.Fatalf("attempt = %d", GetAttempt(ctx))
	}
	if len(Fields(ctx)) != 5 {
		t.Fatalf("expected 5 log fields, got %d", len(Fields(ctx)))
	}
}

func TestBegin_NoTimeoutKeepsParentDeadline(t *testing.T) {
	ctx, cancel := Begin(context.Background(), "m", "op", 0)
	defer cancel()
	if _, ok := ctx.Deadline(); ok {
		t.Fatal("expected no deadline")
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{fmt.Errorf("call: %w", context.DeadlineExceeded), false},
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("groq returned status 503"), true},
		{errors.New("groq returned status 429: rate limit"), true},
		{errors.New("groq returned status 401"), false},
		{errors.New("invalid json"), false},
	}
	for _, tt := range tests {
		if got := IsRetryableError(tt.err); got != tt.want {
			t.Errorf("IsRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
