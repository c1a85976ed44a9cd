package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"go.uber.org/zap"

	"github.com/johnquangdev/mock-interview/pkg/config"
)

func TestGroqClient_Generate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("authorization = %q", got)
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Fatalf("unexpected messages: %+v", req.Messages)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"{\"rating\":7}"}}]}`)
	}))
	defer ts.Close()

	client := NewGroqClient(&config.GroqConfig{APIKey: "test-key", BaseURL: ts.URL, Model: "m"}, nil)
	out, err := client.Generate(context.Background(), Request{Messages: []Message{
		{Role: RoleSystem, Content: "be terse"},
		{Role: RoleUser, Content: "rate"},
	}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != `{"rating":7}` {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestGroqClient_StatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := NewGroqClient(&config.GroqConfig{APIKey: "k", BaseURL: ts.URL}, nil)
	_, err := client.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})

	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusTooManyRequests || !se.Temporary() {
		t.Fatalf("expected temporary status error, got %v", err)
	}
}

func TestGroqClient_RejectsAttachments(t *testing.T) {
	client := NewGroqClient(&config.GroqConfig{APIKey: "k", BaseURL: "http://unused"}, nil)
	_, err := client.Generate(context.Background(), Request{Messages: []Message{{
		Role: RoleUser, Content: "x", Attachments: []Attachment{{MIMEType: "application/pdf", Data: []byte("%PDF")}},
	}}})
	if !errors.Is(err, ErrAttachmentsUnsupported) {
		t.Fatalf("expected ErrAttachmentsUnsupported, got %v", err)
	}
}

func TestRetryingGenerator_RetriesTransient(t *testing.T) {
	var calls int32
	next := GeneratorFunc(func(ctx context.Context, req Request) (string, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return "", &StatusError{Provider: "test", StatusCode: 503}
		}
		return "ok", nil
	})

	g := NewRetryingGenerator(next, RetryPolicy{Timeout: time.Second, MaxAttempts: 3, Initial: time.Millisecond, Max: 2 * time.Millisecond}, zap.NewNop())
	out, err := g.Generate(context.Background(), Request{})
	if err != nil || out != "ok" {
		t.Fatalf("Generate = %q, %v", out, err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRetryingGenerator_PermanentNotRetried(t *testing.T) {
	var calls int32
	perm := &StatusError{Provider: "test", StatusCode: 400}
	next := GeneratorFunc(func(ctx context.Context, req Request) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", perm
	})

	g := NewRetryingGenerator(next, RetryPolicy{MaxAttempts: 5, Initial: time.Millisecond}, nil)
	_, err := g.Generate(context.Background(), Request{})
	if !errors.Is(err, perm) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRetryingGenerator_AttemptsExhausted(t *testing.T) {
	var calls int32
	next := GeneratorFunc(func(ctx context.Context, req Request) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "", ErrEmptyResponse
	})

	g := NewRetryingGenerator(next, RetryPolicy{MaxAttempts: 2, Initial: time.Millisecond}, nil)
	if _, err := g.Generate(context.Background(), Request{}); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestRetryingGenerator_Timeout(t *testing.T) {
	next := GeneratorFunc(func(ctx context.Context, req Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	g := NewRetryingGenerator(next, RetryPolicy{Timeout: 20 * time.Millisecond, MaxAttempts: 3}, nil)
	if _, err := g.Generate(context.Background(), Request{}); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestRetryingGenerator_CallerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	next := GeneratorFunc(func(ctx context.Context, req Request) (string, error) {
		cancel()
		return "", ctx.Err()
	})

	g := NewRetryingGenerator(next, RetryPolicy{Timeout: time.Second, MaxAttempts: 3}, nil)
	if _, err := g.Generate(ctx, Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type sliceThreads struct {
	mu   sync.Mutex
	data map[string][]Message
}

func (s *sliceThreads) Load(_ context.Context, id string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.data[id]...), nil
}

func (s *sliceThreads) Append(_ context.Context, id string, _ time.Duration, msgs ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = map[string][]Message{}
	}
	s.data[id] = append(s.data[id], msgs...)
	return nil
}

func (s *sliceThreads) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

func TestThreadedGenerator_ReplaysHistory(t *testing.T) {
	store := &sliceThreads{}
	var seen [][]Message
	next := GeneratorFunc(func(ctx context.Context, req Request) (string, error) {
		seen = append(seen, req.Messages)
		return "reply", nil
	})
	g := NewThreadedGenerator(next, store, time.Hour)

	turn := func(content string) Request {
		return Request{ThreadID: "t1", Messages: []Message{
			{Role: RoleSystem, Content: "sys"},
			{Role: RoleUser, Content: content, Attachments: []Attachment{{MIMEType: "audio/webm", Data: []byte{1}}}},
		}}
	}

	ctx := context.Background()
	first := turn("first")
	out, err := g.Generate(ctx, first)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Commit(ctx, "t1", Exchange(first, out)...); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Generate(ctx, turn("second")); err != nil {
		t.Fatal(err)
	}

	second := seen[1]
	if len(second) != 4 {
		t.Fatalf("expected system + 2 history + turn, got %d messages", len(second))
	}
	if second[0].Role != RoleSystem || second[1].Content != "first" || second[2].Role != RoleAssistant || second[3].Content != "second" {
		t.Fatalf("unexpected ordering: %+v", second)
	}
	if len(second[1].Attachments) != 0 {
		t.Fatal("history must not replay attachments")
	}
}

func TestThreadedGenerator_StatelessWithoutThread(t *testing.T) {
	store := &sliceThreads{}
	next := GeneratorFunc(func(ctx context.Context, req Request) (string, error) { return "x", nil })
	g := NewThreadedGenerator(next, store, time.Hour)

	req := Request{Messages: []Message{{Role: RoleUser, Content: "q"}}}
	out, err := g.Generate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.Commit(context.Background(), "", Exchange(req, out)...); err != nil {
		t.Fatal(err)
	}
	if len(store.data) != 0 {
		t.Fatal("expected nothing recorded without a thread id")
	}
}

func TestThreadedGenerator_GenerateDoesNotRecord(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
	}{
		{"success", `{"question":"Q"}`, nil},
		{"failure", "", errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &sliceThreads{}
			next := GeneratorFunc(func(ctx context.Context, req Request) (string, error) { return tt.out, tt.err })
			g := NewThreadedGenerator(next, store, time.Hour)

			_, _ = g.Generate(context.Background(), Request{ThreadID: "t", Messages: []Message{{Role: RoleUser, Content: "q"}}})
			if msgs, _ := store.Load(context.Background(), "t"); len(msgs) != 0 {
				t.Fatalf("exchange recorded before commit: %+v", msgs)
			}
		})
	}
}

func TestThreadedGenerator_CommitAndForget(t *testing.T) {
	store := &sliceThreads{}
	g := NewThreadedGenerator(GeneratorFunc(func(ctx context.Context, req Request) (string, error) { return "", nil }), store, time.Hour)
	ctx := context.Background()

	req := Request{ThreadID: "t", Messages: []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "q", Attachments: []Attachment{{MIMEType: "application/pdf", Data: []byte{1}}}},
	}}
	if err := g.Commit(ctx, "t", Exchange(req, "a")...); err != nil {
		t.Fatal(err)
	}
	msgs, _ := store.Load(ctx, "t")
	if len(msgs) != 2 || msgs[0].Content != "q" || len(msgs[0].Attachments) != 0 || msgs[1].Role != RoleAssistant || msgs[1].Content != "a" {
		t.Fatalf("thread = %+v", msgs)
	}

	if err := g.Forget(ctx, "t"); err != nil {
		t.Fatal(err)
	}
	if msgs, _ := store.Load(ctx, "t"); len(msgs) != 0 {
		t.Fatalf("thread not dropped: %+v", msgs)
	}
}

func TestTranscriber_Transcribe(t *testing.T) {
	id, text := "tr-1", "  I would use a queue.  "
	tr := &Transcriber{
		transcribe: func(ctx context.Context, r io.Reader, params *aai.TranscriptOptionalParams) (aai.Transcript, error) {
			b, _ := io.ReadAll(r)
			if string(b) != "audio" {
				t.Fatalf("unexpected body %q", b)
			}
			if params.LanguageCode != "en" {
				t.Fatalf("language = %q", params.LanguageCode)
			}
			return aai.Transcript{ID: &id, Text: &text, Status: aai.TranscriptStatusCompleted, LanguageCode: "en"}, nil
		},
		logger: zap.NewNop(),
	}

	out, err := tr.Transcribe(context.Background(), strings.NewReader("audio"), "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if out.ID != "tr-1" || out.Text != "I would use a queue." {
		t.Fatalf("unexpected transcription %+v", out)
	}
}

func TestTranscriber_ErrorStatus(t *testing.T) {
	msg := "audio too short"
	tr := &Transcriber{
		transcribe: func(ctx context.Context, r io.Reader, params *aai.TranscriptOptionalParams) (aai.Transcript, error) {
			return aai.Transcript{Status: aai.TranscriptStatusError, Error: &msg}, nil
		},
		logger: zap.NewNop(),
	}
	if _, err := tr.Transcribe(context.Background(), strings.NewReader(""), ""); err == nil || !strings.Contains(err.Error(), msg) {
		t.Fatalf("expected provider error, got %v", err)
	}
}
