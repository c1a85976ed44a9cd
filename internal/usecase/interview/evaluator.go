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

// Scale is an inclusive integer range
type Scale struct {
	Min int
	Max int
}

// Clamp rounds v half up and bounds it to the scale
func (s Scale) Clamp(v float64) int {
	r := roundHalfUp(v)
	if r < s.Min {
		return s.Min
	}
	if r > s.Max {
		return s.Max
	}
	return r
}

func (s Scale) vars(prefix string) Vars {
	return Vars{prefix + "_MIN": strconv.Itoa(s.Min), prefix + "_MAX": strconv.Itoa(s.Max)}
}

// JobContext is the interview calibration a prompt is built for
type JobContext struct {
	Position   string
	Type       entities.JobType
	Experience entities.ExperienceLevel
}

// ContextOf reads the job context of a session
func ContextOf(s *entities.InterviewSession) JobContext {
	return JobContext{Position: s.JobPosition, Type: s.JobType, Experience: s.JobExperience}
}

func (j JobContext) vars() Vars {
	return Vars{
		"JOB_POSITION": j.Position,
		"JOB_TYPE":     string(j.Type),
		"EXPERIENCE":   string(j.Experience),
	}
}

// Evaluation is the judgment of one answer
type Evaluation struct {
	Rating   int            `json:"rating"`
	Feedback string         `json:"feedback"`
	Tags     map[string]int `json:"tags,omitempty"`
}

// EvaluatorOptions configures scales and retries
type EvaluatorOptions struct {
	Rating       Scale
	Skill        Scale
	RequestTags  bool
	ParseRetries int
}

// Evaluator scores answers through the generation service
type Evaluator struct {
	gen     ai.Generator
	prompts *Prompts
	opts    EvaluatorOptions
	logger  *zap.Logger
}

// NewEvaluator creates an evaluator
func NewEvaluator(gen ai.Generator, prompts *Prompts, opts EvaluatorOptions, l *zap.Logger) *Evaluator {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	if opts.ParseRetries < 0 {
		opts.ParseRetries = 0
	}
	return &Evaluator{gen: gen, prompts: prompts, opts: opts, logger: logger.OrNop(l)}
}

// Evaluate scores answer against q. Any failure is returned as ErrEvaluationFailed
// wrapping the cause; no partial evaluation is ever returned.
func (e *Evaluator) Evaluate(ctx context.Context, q entities.QuestionAnswerPair, answer string, job JobContext) (*Evaluation, error) {
	req := ai.Request{Messages: e.messages(q, answer, job)}

	var lastErr error
	for attempt := 0; attempt <= e.opts.ParseRetries; attempt++ {
		raw, err := e.gen.Generate(ctx, req)
		if err != nil {
			e.logger.Error("❌ Evaluation call failed", append(jobcontext.Fields(ctx), zap.Error(err))...)
			return nil, fmt.Errorf("%w: %w", entities.ErrEvaluationFailed, err)
		}

		eval, err := e.decode(raw)
		if err == nil {
			return eval, nil
		}
		lastErr = err
		e.logger.Warn("⚠️ Evaluation output rejected",
			append(jobcontext.Fields(ctx),
				zap.Int("parse_attempt", attempt+1),
				zap.String("raw", logger.TruncateForLog(raw, 300)),
				zap.Error(err),
			)...,
		)
		if !errors.Is(err, entities.ErrParse) {
			break
		}
	}
	return nil, fmt.Errorf("%w: %w", entities.ErrEvaluationFailed, lastErr)
}

func (e *Evaluator) messages(q entities.QuestionAnswerPair, answer string, job JobContext) []ai.Message {
	vars := job.vars()
	for k, v := range e.opts.Rating.vars("RATING") {
		vars[k] = v
	}
	tags := ""
	if e.opts.RequestTags {
		tags = Render(e.prompts.Evaluate.TagsInstruction, e.opts.Skill.vars("SKILL"))
	}
	vars["TAGS_INSTRUCTION"] = tags
	vars["QUESTION"] = q.Question
	vars["MODEL_ANSWER"] = q.Answer
	vars["ANSWER"] = answer

	return pair(e.prompts.Evaluate.PromptPair, vars)
}

func (e *Evaluator) decode(raw string) (*Evaluation, error) {
	obj, err := ParseObject(raw, "rating", "feedback")
	if err != nil {
		return nil, err
	}

	rv, ok := obj["rating"]
	if !ok {
		return nil, fmt.Errorf("%w: rating missing", entities.ErrOutOfRangeValue)
	}
	n, ok := CoerceNumber(rv)
	if !ok {
		return nil, fmt.Errorf("%w: rating %q is not numeric", entities.ErrOutOfRangeValue, logger.TruncateForLog(CoerceString(rv), 40))
	}

	eval := &Evaluation{
		Rating:   e.opts.Rating.Clamp(n),
		Feedback: CoerceString(obj["feedback"]),
	}
	if e.opts.RequestTags {
		eval.Tags = e.tags(obj["tags"])
	}
	return eval, nil
}

// tags keeps numeric scores clamped to the skill scale. Skill names are trimmed and lowercased.
func (e *Evaluator) tags(v any) map[string]int {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, raw := range m {
		name := strings.ToLower(strings.TrimSpace(k))
		if name == "" {
			continue
		}
		n, ok := CoerceNumber(raw)
		if !ok {
			continue
		}
		out[name] = e.opts.Skill.Clamp(n)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
