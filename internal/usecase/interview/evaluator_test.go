package interview

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/johnquangdev/mock-interview/internal/domain/entities"
	"github.com/johnquangdev/mock-interview/pkg/ai"
)

var techMid = JobContext{Position: "Backend Engineer", Type: entities.JobTypeTechnical, Experience: entities.ExperienceMid}

func TestEvaluator_Evaluate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Evaluation
	}{
		{
			name: "well formed",
			raw:  `{"rating": 7, "feedback": "decent depth", "tags": {"communication": 70}}`,
			want: Evaluation{Rating: 7, Feedback: "decent depth", Tags: map[string]int{"communication": 70}},
		},
		{
			name: "rating above scale clamped",
			raw:  `{"rating": 14, "feedback": "wow"}`,
			want: Evaluation{Rating: 10, Feedback: "wow"},
		},
		{
			name: "rating below scale clamped",
			raw:  `{"rating": -3, "feedback": "no"}`,
			want: Evaluation{Rating: 1, Feedback: "no"},
		},
		{
			name: "fractional rating rounded",
			raw:  `{"rating": 6.5, "feedback": "ok"}`,
			want: Evaluation{Rating: 7, Feedback: "ok"},
		},
		{
			name: "rating as string",
			raw:  `{"rating": "8/10", "feedback": "good"}`,
			want: Evaluation{Rating: 8, Feedback: "good"},
		},
		{
			name: "tags clamped and normalized",
			raw:  `{"rating": 5, "feedback": "f", "tags": {" Communication ": 140, "go": -5, "sql": "n/a", "testing": "60"}}`,
			want: Evaluation{Rating: 5, Feedback: "f", Tags: map[string]int{"communication": 100, "go": 0, "testing": 60}},
		},
		{
			name: "feedback list joined",
			raw:  `{"rating": 5, "feedback": ["be concise", "give examples"]}`,
			want: Evaluation{Rating: 5, Feedback: "be concise; give examples"},
		},
		{
			name: "leading score list",
			raw:  `Scores [7, 8]. {"rating": 7, "feedback": "decent depth"}`,
			want: Evaluation{Rating: 7, Feedback: "decent depth"},
		},
		{
			name: "fenced with prose",
			raw:  "Here you go:\n```json\n{\"rating\": 9, \"feedback\": \"great\"}\n```",
			want: Evaluation{Rating: 9, Feedback: "great"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := script(reply{text: tt.raw})
			e := NewEvaluator(gen, nil, defaultEvaluatorOptions(), nil)
			got, err := e.Evaluate(context.Background(), entities.QuestionAnswerPair{Question: "Q", Answer: "A"}, "my answer", techMid)
			if err != nil {
				t.Fatalf("Evaluate error = %v", err)
			}
			if !reflect.DeepEqual(*got, tt.want) {
				t.Fatalf("Evaluate = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestEvaluator_RatingAlwaysInScale(t *testing.T) {
	for _, raw := range []string{`{"rating": 0}`, `{"rating": 10.49}`, `{"rating": 1e9}`, `{"rating": "11"}`, `{"rating": 3}`} {
		e := NewEvaluator(script(reply{text: raw}), nil, defaultEvaluatorOptions(), nil)
		got, err := e.Evaluate(context.Background(), entities.QuestionAnswerPair{Question: "Q"}, "a", techMid)
		if err != nil {
			t.Fatalf("Evaluate(%s) error = %v", raw, err)
		}
		if got.Rating < 1 || got.Rating > 10 {
			t.Fatalf("Evaluate(%s) rating = %d", raw, got.Rating)
		}
	}
}

func TestEvaluator_Failures(t *testing.T) {
	tests := []struct {
		name    string
		replies []reply
		retries int
		wantIs  []error
		calls   int
	}{
		{
			name:    "service error",
			replies: []reply{{err: errors.New("boom")}},
			wantIs:  []error{entities.ErrEvaluationFailed},
			calls:   1,
		},
		{
			name:    "timeout",
			replies: []reply{{err: ai.ErrTimeout}},
			wantIs:  []error{entities.ErrEvaluationFailed, ai.ErrTimeout},
			calls:   1,
		},
		{
			name:    "unparseable",
			replies: []reply{{text: "I would rate this highly."}},
			wantIs:  []error{entities.ErrEvaluationFailed, entities.ErrParse},
			calls:   1,
		},
		{
			name:    "non numeric rating",
			replies: []reply{{text: `{"rating": "excellent", "feedback": "x"}`}},
			retries: 2,
			wantIs:  []error{entities.ErrEvaluationFailed, entities.ErrOutOfRangeValue},
			calls:   1,
		},
		{
			name:    "parse retries exhausted",
			replies: []reply{{text: "nope"}, {text: "still nope"}},
			retries: 1,
			wantIs:  []error{entities.ErrEvaluationFailed, entities.ErrParse},
			calls:   2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := script(tt.replies...)
			opts := defaultEvaluatorOptions()
			opts.ParseRetries = tt.retries
			e := NewEvaluator(gen, nil, opts, nil)
			got, err := e.Evaluate(context.Background(), entities.QuestionAnswerPair{Question: "Q"}, "a", techMid)
			if got != nil {
				t.Fatalf("Evaluate returned partial result %+v", got)
			}
			for _, target := range tt.wantIs {
				if !errors.Is(err, target) {
					t.Fatalf("err = %v, want errors.Is %v", err, target)
				}
			}
			if gen.calls() != tt.calls {
				t.Fatalf("calls = %d, want %d", gen.calls(), tt.calls)
			}
		})
	}
}

func TestEvaluator_ParseRetryRecovers(t *testing.T) {
	gen := script(reply{text: "thinking..."}, reply{text: `{"rating": 6, "feedback": "fine"}`})
	opts := defaultEvaluatorOptions()
	opts.ParseRetries = 1
	got, err := NewEvaluator(gen, nil, opts, nil).Evaluate(context.Background(), entities.QuestionAnswerPair{Question: "Q"}, "a", techMid)
	if err != nil {
		t.Fatalf("Evaluate error = %v", err)
	}
	if got.Rating != 6 {
		t.Fatalf("rating = %d, want 6", got.Rating)
	}
}

func TestEvaluator_Prompt(t *testing.T) {
	gen := script(reply{text: `{"rating": 5, "feedback": "f"}`})
	q := entities.QuestionAnswerPair{Question: "What is a mutex?", Answer: "A lock."}
	if _, err := NewEvaluator(gen, nil, defaultEvaluatorOptions(), nil).Evaluate(context.Background(), q, "It locks things", techMid); err != nil {
		t.Fatalf("Evaluate error = %v", err)
	}

	req := gen.last()
	if req.ThreadID != "" {
		t.Fatalf("evaluation must be stateless, got thread %q", req.ThreadID)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != ai.RoleSystem || req.Messages[1].Role != ai.RoleUser {
		t.Fatalf("unexpected messages %+v", req.Messages)
	}
	user := req.Messages[1].Content
	for _, want := range []string{"What is a mutex?", "It locks things", "A lock.", "from 1 to 10", `"tags"`, "from 0 to 100"} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q:\n%s", want, user)
		}
	}
	if !strings.Contains(req.Messages[0].Content, "Backend Engineer") {
		t.Errorf("system prompt missing position: %s", req.Messages[0].Content)
	}
}

func TestEvaluator_TagsDisabled(t *testing.T) {
	gen := script(reply{text: `{"rating": 5, "feedback": "f", "tags": {"go": 90}}`})
	opts := defaultEvaluatorOptions()
	opts.RequestTags = false
	got, err := NewEvaluator(gen, nil, opts, nil).Evaluate(context.Background(), entities.QuestionAnswerPair{Question: "Q"}, "a", techMid)
	if err != nil {
		t.Fatalf("Evaluate error = %v", err)
	}
	if got.Tags != nil {
		t.Fatalf("tags = %v, want none", got.Tags)
	}
	if strings.Contains(gen.last().Messages[1].Content, `"tags"`) {
		t.Fatalf("tags requested while disabled")
	}
}
