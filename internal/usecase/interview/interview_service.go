package interview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/johnquangdev/mock-interview/internal/domain/entities"
	"github.com/johnquangdev/mock-interview/internal/domain/repositories"
	"github.com/johnquangdev/mock-interview/pkg/ai"
	"github.com/johnquangdev/mock-interview/pkg/jobcontext"
	"github.com/johnquangdev/mock-interview/pkg/logger"
)

// BlobStore keeps uploaded payloads
type BlobStore interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
}

// Threads is the conversation memory of the generation service
type Threads interface {
	Commit(ctx context.Context, threadID string, exchange ...ai.Message) error
	Forget(ctx context.Context, threadID string) error
}

// Dependencies are the collaborators of InterviewService. Blobs and Threads are optional.
type Dependencies struct {
	Store     *SessionStore
	Answers   repositories.AnswerRepository
	Analysis  repositories.AnalysisRepository
	Evaluator *Evaluator
	Generator *QuestionGenerator
	Blobs     BlobStore
	Threads   Threads
	Rating    Scale
}

// InterviewService handles interview business logic
type InterviewService struct {
	store     *SessionStore
	answers   repositories.AnswerRepository
	analysis  repositories.AnalysisRepository
	evaluator *Evaluator
	generator *QuestionGenerator
	blobs     BlobStore
	threads   Threads
	rating    Scale
	logger    *zap.Logger
	now       func() time.Time
}

// NewInterviewService creates a new interview service
func NewInterviewService(deps Dependencies, l *zap.Logger) *InterviewService {
	rating := deps.Rating
	if rating.Max <= rating.Min {
		rating = Scale{Min: 1, Max: 10}
	}
	return &InterviewService{
		store:     deps.Store,
		answers:   deps.Answers,
		analysis:  deps.Analysis,
		evaluator: deps.Evaluator,
		generator: deps.Generator,
		blobs:     deps.Blobs,
		threads:   deps.Threads,
		rating:    rating,
		logger:    logger.OrNop(l),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

var _ Service = (*InterviewService)(nil)

// CreateSession generates the seed questions and stores a new session
func (s *InterviewService) CreateSession(ctx context.Context, input CreateSessionInput) (*entities.InterviewSession, error) {
	if !input.JobType.Valid() {
		return nil, fmt.Errorf("%w: unknown job type %q", entities.ErrInvalidRequest, input.JobType)
	}
	if !input.Experience.Valid() {
		return nil, fmt.Errorf("%w: unknown experience level %q", entities.ErrInvalidRequest, input.Experience)
	}
	position := DefaultPosition(input.JobType, input.Position)
	if position == "" {
		return nil, fmt.Errorf("%w: job position is required", entities.ErrInvalidRequest)
	}

	session := entities.NewInterviewSession(position, input.JobType, input.Experience, input.Owner, nil)
	ctx, cancel := jobcontext.Begin(ctx, session.MockID, "create_session", 0)
	defer cancel()

	var resume *ai.Attachment
	if input.JobType == entities.JobTypeResume {
		if input.Resume == nil || len(input.Resume.Data) == 0 {
			return nil, fmt.Errorf("%w: resume interview requires a resume", entities.ErrInvalidRequest)
		}
		contentType := input.Resume.ContentType
		if contentType == "" {
			contentType = "application/pdf"
		}
		resume = &ai.Attachment{MIMEType: contentType, Data: input.Resume.Data}
	}

	seed, err := s.generator.Seed(ctx, ContextOf(session), resume)
	if err != nil {
		return nil, err
	}
	session.Questions = datatypes.NewJSONType(seed)

	if resume != nil && s.blobs != nil {
		key := resumeKey(session.MockID, input.Resume.Filename)
		if err := s.blobs.Put(ctx, key, bytes.NewReader(input.Resume.Data), int64(len(input.Resume.Data)), resume.MIMEType); err != nil {
			return nil, fmt.Errorf("%w: store resume: %w", entities.ErrStorage, err)
		}
		session.ResumeObject = key
	}

	if err := s.store.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("🎤 Interview session created",
		append(jobcontext.Fields(ctx),
			zap.String("job_type", string(session.JobType)),
			zap.String("experience", string(session.JobExperience)),
			zap.Int("seed_questions", len(seed)),
		)...,
	)
	return session, nil
}

// GetSession retrieves a session owned by owner
func (s *InterviewService) GetSession(ctx context.Context, owner, mockID string) (*entities.InterviewSession, error) {
	session, err := s.store.Get(ctx, mockID)
	if err != nil {
		return nil, err
	}
	if !session.IsOwnedBy(owner) {
		return nil, entities.ErrForbidden
	}
	return session, nil
}

// ListSessions retrieves the owner's sessions with summary stats
func (s *InterviewService) ListSessions(ctx context.Context, owner string) (*SessionList, error) {
	sessions, err := s.store.sessions.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	answers, err := s.answers.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	avg := "0.0"
	if len(answers) > 0 {
		avg = fmt.Sprintf("%.1f", meanRating(answers))
	}
	return &SessionList{
		Sessions: sessions,
		Stats:    SessionStats{CompletedInterviews: len(sessions), AverageScore: avg},
	}, nil
}

// SubmitAnswer runs one turn under the session lock
func (s *InterviewService) SubmitAnswer(ctx context.Context, input SubmitAnswerInput) (*TurnResult, error) {
	if strings.TrimSpace(input.Answer) == "" {
		return nil, fmt.Errorf("%w: answer is required", entities.ErrInvalidRequest)
	}

	ctx, cancel := jobcontext.Begin(ctx, input.MockID, "submit_answer", 0)
	defer cancel()

	unlock, err := s.store.Lock(ctx, input.MockID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrTurnAbandoned, err)
	}
	defer unlock()

	session, err := s.GetSession(ctx, input.Owner, input.MockID)
	if err != nil {
		return nil, err
	}

	question, ok := s.resolveQuestion(session, input.Question)
	if !ok {
		return nil, fmt.Errorf("%w: session has no question to answer", entities.ErrInvalidState)
	}

	if err := s.store.Transition(ctx, session, entities.SessionStateEvaluating, nil); err != nil {
		return nil, err
	}

	eval, err := s.evaluator.Evaluate(ctx, question, input.Answer, ContextOf(session))
	if err != nil {
		// nothing was written for this turn
		if rerr := s.store.Transition(ctx, session, entities.SessionStateAwaitingAnswer, nil); rerr != nil {
			s.logger.Warn("⚠️ Session not returned to awaiting_answer", append(jobcontext.Fields(ctx), zap.Error(rerr))...)
		}
		return nil, err
	}

	answer := &entities.AnswerRecord{
		ID:          uuid.New(),
		MockID:      session.MockID,
		Question:    question.Question,
		ModelAnswer: question.Answer,
		UserAnswer:  input.Answer,
		Feedback:    eval.Feedback,
		Rating:      eval.Rating,
		Tags:        datatypes.NewJSONType(eval.Tags),
		Owner:       input.Owner,
		CreatedAt:   s.now(),
	}

	if err := s.store.Transition(ctx, session, entities.SessionStateGeneratingNext, &entities.PendingTurn{Answer: *answer}); err != nil {
		return nil, err
	}

	result, err := s.advance(ctx, session, answer)
	if err != nil {
		return nil, err
	}
	result.Evaluation = eval
	return result, nil
}

// RetryGeneration resumes a session left in generating_next
func (s *InterviewService) RetryGeneration(ctx context.Context, owner, mockID string) (*TurnResult, error) {
	ctx, cancel := jobcontext.Begin(ctx, mockID, "retry_generation", 0)
	defer cancel()

	unlock, err := s.store.Lock(ctx, mockID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrTurnAbandoned, err)
	}
	defer unlock()

	session, err := s.GetSession(ctx, owner, mockID)
	if err != nil {
		return nil, err
	}
	pending := session.Pending()
	if session.State != entities.SessionStateGeneratingNext || pending == nil {
		return nil, fmt.Errorf("%w: no pending turn in state %s", entities.ErrInvalidState, session.State)
	}

	answer := pending.Answer
	result, err := s.advance(ctx, session, &answer)
	if err != nil {
		return nil, err
	}
	result.Evaluation = &Evaluation{Rating: answer.Rating, Feedback: answer.Feedback, Tags: answer.Tags.Data()}
	return result, nil
}

// advance generates the follow-up question for answer and applies the turn.
// On failure the session stays in generating_next with its pending turn.
func (s *InterviewService) advance(ctx context.Context, session *entities.InterviewSession, answer *entities.AnswerRecord) (*TurnResult, error) {
	prior := entities.QuestionAnswerPair{Question: answer.Question, Answer: answer.ModelAnswer}
	next, exchange, err := s.generator.Next(ctx, ContextOf(session), prior, answer.UserAnswer, session.QuestionList(), session.MockID)
	if err != nil {
		return nil, err
	}

	if err := s.store.Append(ctx, session, answer, next); err != nil {
		s.logger.Warn("⚠️ Turn not applied", append(jobcontext.Fields(ctx), zap.Error(err))...)
		return nil, err
	}

	// the thread only learns about questions that were recorded
	if s.threads != nil {
		if err := s.threads.Commit(ctx, session.MockID, exchange...); err != nil {
			s.logger.Warn("⚠️ Failed to record conversation thread", append(jobcontext.Fields(ctx), zap.Error(err))...)
		}
	}
	return &TurnResult{Session: session, Answer: answer, Next: next}, nil
}

// Complete ends the interview and records its total rating
func (s *InterviewService) Complete(ctx context.Context, owner, mockID string) (*entities.InterviewSession, error) {
	ctx, cancel := jobcontext.Begin(ctx, mockID, "complete", 0)
	defer cancel()

	unlock, err := s.store.Lock(ctx, mockID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrTurnAbandoned, err)
	}
	defer unlock()

	session, err := s.GetSession(ctx, owner, mockID)
	if err != nil {
		return nil, err
	}
	answers, err := s.answers.ListByMockID(ctx, mockID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	if len(answers) > 0 {
		total := roundHalfUp(meanRating(answers))
		session.TotalRating = &total
	}

	if err := s.store.Transition(ctx, session, entities.SessionStateComplete, nil); err != nil {
		return nil, err
	}

	if s.threads != nil {
		if err := s.threads.Forget(ctx, mockID); err != nil {
			s.logger.Warn("⚠️ Failed to drop conversation thread", append(jobcontext.Fields(ctx), zap.Error(err))...)
		}
	}
	s.logger.Info("🏁 Interview completed", append(jobcontext.Fields(ctx), zap.Int("answers", len(answers)))...)
	return session, nil
}

// History returns the ordered questions asked in a session
func (s *InterviewService) History(ctx context.Context, owner, mockID string) ([]entities.QuestionAnswerPair, error) {
	if _, err := s.GetSession(ctx, owner, mockID); err != nil {
		return nil, err
	}
	return s.store.History(ctx, mockID)
}

// Profile returns the live skill profile of a session
func (s *InterviewService) Profile(ctx context.Context, owner, mockID string) (entities.SkillProfile, error) {
	session, err := s.GetSession(ctx, owner, mockID)
	if err != nil {
		return nil, err
	}
	return session.Profile(), nil
}

// Feedback returns the session's answers and stores their rounded average as the total rating
func (s *InterviewService) Feedback(ctx context.Context, owner, mockID string) (*FeedbackSummary, error) {
	ctx, cancel := jobcontext.Begin(ctx, mockID, "feedback", 0)
	defer cancel()

	unlock, err := s.store.Lock(ctx, mockID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrTurnAbandoned, err)
	}
	defer unlock()

	session, err := s.GetSession(ctx, owner, mockID)
	if err != nil {
		return nil, err
	}
	answers, err := s.answers.ListByMockID(ctx, mockID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	summary := &FeedbackSummary{Session: session, Answers: answers}
	if len(answers) == 0 {
		return summary, nil
	}
	summary.AverageRating = roundHalfUp(meanRating(answers))
	if session.TotalRating == nil || *session.TotalRating != summary.AverageRating {
		if err := s.store.SetTotalRating(ctx, session, summary.AverageRating); err != nil {
			return nil, err
		}
	}
	return summary, nil
}

// ListAnalysis returns the analysis records stored for a session
func (s *InterviewService) ListAnalysis(ctx context.Context, owner, mockID string) ([]*entities.AnalysisRecord, error) {
	if _, err := s.GetSession(ctx, owner, mockID); err != nil {
		return nil, err
	}
	return s.analysis.ListByMockID(ctx, mockID)
}

// IngestAnalysis validates and stores an analysis record. Ratings outside the scale are rejected.
func (s *InterviewService) IngestAnalysis(ctx context.Context, input IngestAnalysisInput) (*entities.AnalysisRecord, error) {
	if !input.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown kind %q", entities.ErrInvalidAnalysis, input.Kind)
	}
	if input.Rating < s.rating.Min || input.Rating > s.rating.Max {
		return nil, fmt.Errorf("%w: rating %d outside [%d,%d]", entities.ErrInvalidAnalysis, input.Rating, s.rating.Min, s.rating.Max)
	}
	if _, err := s.GetSession(ctx, input.Owner, input.MockID); err != nil {
		return nil, err
	}

	var feedback any = input.Feedback
	if len(input.Feedback) == 0 {
		feedback = map[string]any{}
	}
	record, err := entities.NewAnalysisRecord(input.MockID, input.Kind, input.Question, feedback, input.Rating, input.Owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrInvalidAnalysis, err)
	}
	record.CreatedAt = s.now()
	if err := s.analysis.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("store analysis: %w", err)
	}

	s.logger.Info("📊 Analysis record stored",
		zap.String(logger.FieldMockID, input.MockID),
		zap.String("kind", string(input.Kind)),
		zap.Int("rating", input.Rating),
	)
	return record, nil
}

// Report reconciles the content, audio and behavior streams of a session
func (s *InterviewService) Report(ctx context.Context, owner, mockID string) (*Report, error) {
	if _, err := s.GetSession(ctx, owner, mockID); err != nil {
		return nil, err
	}
	answers, err := s.answers.ListByMockID(ctx, mockID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	records, err := s.analysis.ListByMockID(ctx, mockID)
	if err != nil {
		return nil, fmt.Errorf("list analysis: %w", err)
	}
	rep := Reconcile(ContentStream(answers, records))
	return &rep, nil
}

// OwnerReport reconciles every record of owner across sessions
func (s *InterviewService) OwnerReport(ctx context.Context, owner string) (*Report, error) {
	answers, err := s.answers.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	records, err := s.analysis.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list analysis: %w", err)
	}
	rep := Reconcile(ContentStream(answers, records))
	return &rep, nil
}

// resolveQuestion finds the question being answered and its reference answer.
// An empty text answers the most recent question.
func (s *InterviewService) resolveQuestion(session *entities.InterviewSession, text string) (entities.QuestionAnswerPair, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return session.CurrentQuestion()
	}
	qs := session.QuestionList()
	for i := len(qs) - 1; i >= 0; i-- {
		if strings.EqualFold(strings.TrimSpace(qs[i].Question), text) {
			return qs[i], true
		}
	}
	return entities.QuestionAnswerPair{Question: text}, true
}

func meanRating(answers []*entities.AnswerRecord) float64 {
	if len(answers) == 0 {
		return 0
	}
	sum := 0
	for _, a := range answers {
		sum += a.Rating
	}
	return float64(sum) / float64(len(answers))
}

func resumeKey(mockID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".pdf"
	}
	return fmt.Sprintf("resumes/%s%s", mockID, ext)
}

// IsEngineFailure reports whether err is a turn failure whose cause must not reach end users
func IsEngineFailure(err error) bool {
	return errors.Is(err, entities.ErrEvaluationFailed) ||
		errors.Is(err, entities.ErrGenerationFailed) ||
		errors.Is(err, entities.ErrParse) ||
		errors.Is(err, entities.ErrOutOfRangeValue)
}
