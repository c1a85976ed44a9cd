package interview

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/mock-interview/internal/domain/entities"
	"github.com/johnquangdev/mock-interview/pkg/ai"
	"github.com/johnquangdev/mock-interview/pkg/jobcontext"
	"github.com/johnquangdev/mock-interview/pkg/logger"
)

const (
	defaultResumePosition = "Resume Interview"
	defaultHRPosition     = "HR Interview"
)

// GeneratorOptions configures question generation
type GeneratorOptions struct {
	ParseRetries int
	FullHistory  bool
	SeedCount    int
}

// QuestionGenerator produces seed and follow-up questions through the generation service.
// Attachments such as resumes are sent to the multimodal generator when one is configured.
type QuestionGenerator struct {
	gen        ai.Generator
	multimodal ai.Generator
	prompts    *Prompts
	opts       GeneratorOptions
	logger     *zap.Logger
}

// NewQuestionGenerator creates a generator. multimodal may be nil.
func NewQuestionGenerator(gen, multimodal ai.Generator, prompts *Prompts, opts GeneratorOptions, l *zap.Logger) *QuestionGenerator {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	if multimodal == nil {
		multimodal = gen
	}
	if opts.ParseRetries < 0 {
		opts.ParseRetries = 0
	}
	if opts.SeedCount < 1 {
		opts.SeedCount = 1
	}
	return &QuestionGenerator{gen: gen, multimodal: multimodal, prompts: prompts, opts: opts, logger: logger.OrNop(l)}
}

// DefaultPosition returns the position recorded for a session created without one
func DefaultPosition(jobType entities.JobType, position string) string {
	if p := strings.TrimSpace(position); p != "" {
		return p
	}
	switch jobType {
	case entities.JobTypeResume:
		return defaultResumePosition
	case entities.JobTypeHR:
		return defaultHRPosition
	}
	return ""
}

// Next proposes the question that follows prior. threadID scopes service-side memory;
// history is embedded in the prompt only when full history is enabled.
// The accepted exchange is returned for the caller to commit to the thread once the turn is stored.
// Failures are returned as ErrGenerationFailed and no question is invented.
func (g *QuestionGenerator) Next(ctx context.Context, job JobContext, prior entities.QuestionAnswerPair, priorAnswer string, history []entities.QuestionAnswerPair, threadID string) (entities.QuestionAnswerPair, []ai.Message, error) {
	vars := job.vars()
	vars["PRIOR_QUESTION"] = prior.Question
	vars["PRIOR_ANSWER"] = priorAnswer
	vars["HISTORY"] = ""
	if g.opts.FullHistory && len(history) > 0 {
		vars["HISTORY"] = g.historyBlock(history)
	}

	req := ai.Request{ThreadID: threadID, Messages: pair(g.prompts.NextQuestion.PromptPair, vars)}
	var out entities.QuestionAnswerPair
	raw, err := g.generate(ctx, g.gen, req, "next", func(raw string) error {
		obj, err := ParseObject(raw, "question", "answer")
		if err != nil {
			return err
		}
		qa, ok := toPair(obj)
		if !ok {
			return &entities.ParseError{Reason: "question field is empty"}
		}
		out = qa
		return nil
	})
	if err != nil {
		return entities.QuestionAnswerPair{}, nil, err
	}
	return out, ai.Exchange(req, raw), nil
}

// Seed generates the initial question set. resume is attached for resume-derived interviews.
func (g *QuestionGenerator) Seed(ctx context.Context, job JobContext, resume *ai.Attachment) ([]entities.QuestionAnswerPair, error) {
	vars := job.vars()
	vars["COUNT"] = strconv.Itoa(g.opts.SeedCount)

	gen := g.gen
	var tmpl PromptPair
	switch job.Type {
	case entities.JobTypeHR:
		tmpl = g.prompts.Seed.HR
	case entities.JobTypeResume:
		if resume == nil {
			return nil, fmt.Errorf("%w: resume interview requires a resume", entities.ErrInvalidRequest)
		}
		tmpl = g.prompts.Seed.Resume
		gen = g.multimodal
	default:
		tmpl = g.prompts.Seed.Technical
	}

	msgs := pair(tmpl, vars)
	if resume != nil && job.Type == entities.JobTypeResume {
		last := &msgs[len(msgs)-1]
		last.Attachments = append(last.Attachments, *resume)
	}

	var out []entities.QuestionAnswerPair
	_, err := g.generate(ctx, gen, ai.Request{Messages: msgs}, "seed", func(raw string) error {
		arr, err := ParseArray(raw, "question", "answer")
		if err != nil {
			return err
		}
		qs := make([]entities.QuestionAnswerPair, 0, len(arr))
		for _, item := range arr {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if qa, ok := toPair(obj); ok {
				qs = append(qs, qa)
			}
		}
		if len(qs) == 0 {
			return &entities.ParseError{Reason: "no question in seed response"}
		}
		out = qs
		return nil
	})
	return out, err
}

// generate calls gen and hands the output to accept, retrying only parse failures.
// It returns the accepted output.
func (g *QuestionGenerator) generate(ctx context.Context, gen ai.Generator, req ai.Request, kind string, accept func(raw string) error) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= g.opts.ParseRetries; attempt++ {
		raw, err := gen.Generate(ctx, req)
		if err != nil {
			g.logger.Error("❌ Question generation call failed",
				append(jobcontext.Fields(ctx), zap.String("kind", kind), zap.Error(err))...,
			)
			return "", fmt.Errorf("%w: %w", entities.ErrGenerationFailed, err)
		}
		if err := accept(raw); err != nil {
			lastErr = err
			g.logger.Warn("⚠️ Question output rejected",
				append(jobcontext.Fields(ctx),
					zap.String("kind", kind),
					zap.Int("parse_attempt", attempt+1),
					zap.String("raw", logger.TruncateForLog(raw, 300)),
					zap.Error(err),
				)...,
			)
			if !errors.Is(err, entities.ErrParse) {
				break
			}
			continue
		}
		return raw, nil
	}
	return "", fmt.Errorf("%w: %w", entities.ErrGenerationFailed, lastErr)
}

func (g *QuestionGenerator) historyBlock(history []entities.QuestionAnswerPair) string {
	var b strings.Builder
	b.WriteString(g.prompts.NextQuestion.HistoryHeader)
	for i, qa := range history {
		fmt.Fprintf(&b, "\n%d. %s", i+1, qa.Question)
	}
	return b.String()
}

func pair(p PromptPair, vars Vars) []ai.Message {
	var msgs []ai.Message
	if sys := Render(p.System, vars); sys != "" {
		msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: sys})
	}
	return append(msgs, ai.Message{Role: ai.RoleUser, Content: Render(p.User, vars)})
}

func toPair(obj map[string]any) (entities.QuestionAnswerPair, bool) {
	q := CoerceString(obj["question"])
	if q == "" {
		return entities.QuestionAnswerPair{}, false
	}
	return entities.QuestionAnswerPair{Question: q, Answer: CoerceString(obj["answer"])}, true
}
