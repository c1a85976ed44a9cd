package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/mock-interview/internal/domain/entities"
	"github.com/johnquangdev/mock-interview/internal/usecase/interview"
	"github.com/johnquangdev/mock-interview/pkg/ai"
	"github.com/johnquangdev/mock-interview/pkg/jobcontext"
	"github.com/johnquangdev/mock-interview/pkg/logger"
)

const (
	maxSnapshots = 8
	maxMediaSize = 25 << 20
)

// Options configures the analysis producers
type Options struct {
	Rating       interview.Scale
	ParseRetries int
}

// AnalysisService runs media through the multimodal generator and stores the result
type AnalysisService struct {
	sessions    Sessions
	gen         ai.Generator
	blobs       BlobStore
	transcriber Transcriber
	prompts     *interview.Prompts
	opts        Options
	logger      *zap.Logger
}

// NewAnalysisService creates a new analysis service. blobs and transcriber may be nil.
func NewAnalysisService(sessions Sessions, gen ai.Generator, blobs BlobStore, transcriber Transcriber, prompts *interview.Prompts, opts Options, l *zap.Logger) *AnalysisService {
	if prompts == nil {
		prompts = interview.DefaultPrompts()
	}
	if opts.Rating.Max <= opts.Rating.Min {
		opts.Rating = interview.Scale{Min: 1, Max: 10}
	}
	return &AnalysisService{
		sessions:    sessions,
		gen:         gen,
		blobs:       blobs,
		transcriber: transcriber,
		prompts:     prompts,
		opts:        opts,
		logger:      logger.OrNop(l),
	}
}

var _ Service = (*AnalysisService)(nil)

// AnalyzeAudio judges a recorded answer and stores an audio record
func (s *AnalysisService) AnalyzeAudio(ctx context.Context, input AudioInput) (*entities.AnalysisRecord, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, fmt.Errorf("%w: question is required", entities.ErrInvalidRequest)
	}
	if err := checkUpload(input.Clip); err != nil {
		return nil, err
	}
	if _, err := s.sessions.GetSession(ctx, input.Owner, input.MockID); err != nil {
		return nil, err
	}

	ctx, cancel := jobcontext.Begin(ctx, input.MockID, "analyze_audio", 0)
	defer cancel()

	clip := attachment(input.Clip)
	vars := interview.Vars{"QUESTION": input.Question}
	for k, v := range scaleVars(s.opts.Rating) {
		vars[k] = v
	}

	var fb AudioFeedback
	err := s.judge(ctx, s.prompts.Audio, vars, []ai.Attachment{clip}, []string{"rating"}, func(obj map[string]any) error {
		rating, err := s.rating(obj["rating"])
		if err != nil {
			return err
		}
		fb = AudioFeedback{
			ContentAnalysis:      interview.CoerceString(obj["contentAnalysis"]),
			CommunicationStyle:   interview.CoerceString(obj["communicationStyle"]),
			ProfessionalDemeanor: interview.CoerceString(obj["professionalDemeanor"]),
			AreasForImprovement:  stringList(obj["areasForImprovement"]),
			Rating:               rating,
			OverallFeedback:      interview.CoerceString(obj["overallFeedback"]),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fb.Object = s.store(ctx, fmt.Sprintf("audio/%s/%s%s", input.MockID, uuid.NewString(), extension(input.Clip, ".webm")), input.Clip, clip.MIMEType)
	return s.sessions.IngestAnalysis(ctx, interview.IngestAnalysisInput{
		Owner:    input.Owner,
		MockID:   input.MockID,
		Kind:     entities.AnalysisKindAudio,
		Question: input.Question,
		Feedback: mustJSON(fb),
		Rating:   fb.Rating,
	})
}

// AnalyzeBehavior judges webcam snapshots and stores a behavior record
func (s *AnalysisService) AnalyzeBehavior(ctx context.Context, input BehaviorInput) (*entities.AnalysisRecord, error) {
	if len(input.Snapshots) == 0 {
		return nil, fmt.Errorf("%w: at least one snapshot is required", entities.ErrInvalidRequest)
	}
	if len(input.Snapshots) > maxSnapshots {
		return nil, fmt.Errorf("%w: at most %d snapshots are accepted", entities.ErrInvalidRequest, maxSnapshots)
	}
	for _, snap := range input.Snapshots {
		if err := checkUpload(snap); err != nil {
			return nil, err
		}
	}
	if _, err := s.sessions.GetSession(ctx, input.Owner, input.MockID); err != nil {
		return nil, err
	}

	ctx, cancel := jobcontext.Begin(ctx, input.MockID, "analyze_behavior", 0)
	defer cancel()

	images := make([]ai.Attachment, 0, len(input.Snapshots))
	for _, snap := range input.Snapshots {
		images = append(images, attachment(snap))
	}

	var fb BehaviorFeedback
	err := s.judge(ctx, s.prompts.Behavior, scaleVars(s.opts.Rating), images, []string{"confidenceScore"}, func(obj map[string]any) error {
		rating, err := s.rating(obj["confidenceScore"])
		if err != nil {
			return err
		}
		fb = BehaviorFeedback{
			PostureAnalysis:   interview.CoerceString(obj["postureAnalysis"]),
			Posture:           interview.CoerceString(obj["posture"]),
			FacialExpressions: interview.CoerceString(obj["facialExpressions"]),
			FExpressions:      interview.CoerceString(obj["fexpressions"]),
			ProfDemeanor:      interview.CoerceString(obj["profDemeanor"]),
			BodyLanguage:      interview.CoerceString(obj["bodyLanguage"]),
			Recommendations:   stringList(obj["recommendations"]),
			ConfidenceScore:   rating,
			OverallImpression: interview.CoerceString(obj["overallImpression"]),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	batch := uuid.NewString()
	for i, snap := range input.Snapshots {
		key := fmt.Sprintf("behavior/%s/%s-%d%s", input.MockID, batch, i, extension(snap, ".jpg"))
		if obj := s.store(ctx, key, snap, images[i].MIMEType); obj != "" {
			fb.Objects = append(fb.Objects, obj)
		}
	}
	return s.sessions.IngestAnalysis(ctx, interview.IngestAnalysisInput{
		Owner:    input.Owner,
		MockID:   input.MockID,
		Kind:     entities.AnalysisKindBehavior,
		Feedback: mustJSON(fb),
		Rating:   fb.ConfidenceScore,
	})
}

// Transcribe converts a recorded answer to text
func (s *AnalysisService) Transcribe(ctx context.Context, clip Upload, language string) (*ai.Transcription, error) {
	if s.transcriber == nil {
		return nil, &entities.UnavailableError{Service: "transcription"}
	}
	if err := checkUpload(clip); err != nil {
		return nil, err
	}
	res, err := s.transcriber.Transcribe(ctx, bytes.NewReader(clip.Data), language)
	if err != nil {
		s.logger.Error("❌ Transcription failed", zap.Int("bytes", len(clip.Data)), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", entities.ErrAnalysisFailed, err)
	}
	return res, nil
}

// judge sends the prompt with attachments and hands the parsed object to accept.
// Only parse failures are retried.
func (s *AnalysisService) judge(ctx context.Context, tmpl interview.PromptPair, vars interview.Vars, attachments []ai.Attachment, fields []string, accept func(map[string]any) error) error {
	msgs := []ai.Message{}
	if sys := interview.Render(tmpl.System, vars); sys != "" {
		msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: sys})
	}
	msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: interview.Render(tmpl.User, vars), Attachments: attachments})
	req := ai.Request{Messages: msgs}

	var lastErr error
	for attempt := 0; attempt <= s.opts.ParseRetries; attempt++ {
		raw, err := s.gen.Generate(ctx, req)
		if err != nil {
			s.logger.Error("❌ Analysis call failed", append(jobcontext.Fields(ctx), zap.Error(err))...)
			return fmt.Errorf("%w: %w", entities.ErrAnalysisFailed, err)
		}
		obj, err := interview.ParseObject(raw, fields...)
		if err == nil {
			err = accept(obj)
		}
		if err == nil {
			return nil
		}
		lastErr = err
		s.logger.Warn("⚠️ Analysis output rejected",
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
	return fmt.Errorf("%w: %w", entities.ErrAnalysisFailed, lastErr)
}

func (s *AnalysisService) rating(v any) (int, error) {
	n, ok := interview.CoerceNumber(v)
	if !ok {
		return 0, fmt.Errorf("%w: rating %v is not numeric", entities.ErrOutOfRangeValue, v)
	}
	return s.opts.Rating.Clamp(n), nil
}

// store keeps the upload for later review. Storage failures do not fail the analysis.
func (s *AnalysisService) store(ctx context.Context, key string, u Upload, contentType string) string {
	if s.blobs == nil {
		return ""
	}
	if err := s.blobs.Put(ctx, key, bytes.NewReader(u.Data), int64(len(u.Data)), contentType); err != nil {
		s.logger.Warn("⚠️ Failed to store media", zap.String("key", key), zap.Error(err))
		return ""
	}
	return key
}

func checkUpload(u Upload) error {
	if len(u.Data) == 0 {
		return fmt.Errorf("%w: empty upload", entities.ErrInvalidRequest)
	}
	if len(u.Data) > maxMediaSize {
		return fmt.Errorf("%w: upload exceeds %d bytes", entities.ErrInvalidRequest, maxMediaSize)
	}
	return nil
}

func attachment(u Upload) ai.Attachment {
	ct := u.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(u.Data)
	}
	return ai.Attachment{MIMEType: ct, Data: u.Data}
}

func extension(u Upload, def string) string {
	if ext := strings.ToLower(path.Ext(u.Filename)); ext != "" {
		return ext
	}
	return def
}

func scaleVars(s interview.Scale) interview.Vars {
	return interview.Vars{
		"RATING_MIN": fmt.Sprint(s.Min),
		"RATING_MAX": fmt.Sprint(s.Max),
	}
}

func stringList(v any) []string {
	switch val := v.(type) {
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := interview.CoerceString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case nil:
		return nil
	default:
		if s := interview.CoerceString(val); s != "" {
			return []string{s}
		}
		return nil
	}
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}
