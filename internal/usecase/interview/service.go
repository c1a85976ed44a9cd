package interview

import (
	"context"
	"encoding/json"

	"github.com/johnquangdev/mock-interview/internal/domain/entities"
)

// Service defines the interface for the interview use case
type Service interface {
	// CreateSession generates the seed questions and stores a new session awaiting its first answer
	CreateSession(ctx context.Context, input CreateSessionInput) (*entities.InterviewSession, error)

	// GetSession retrieves a session owned by owner
	GetSession(ctx context.Context, owner, mockID string) (*entities.InterviewSession, error)

	// ListSessions retrieves the owner's sessions with summary stats
	ListSessions(ctx context.Context, owner string) (*SessionList, error)

	// SubmitAnswer runs one turn: evaluate, merge tags, generate the next question, append
	SubmitAnswer(ctx context.Context, input SubmitAnswerInput) (*TurnResult, error)

	// RetryGeneration resumes a session left in generating_next by a failed generation
	RetryGeneration(ctx context.Context, owner, mockID string) (*TurnResult, error)

	// Complete ends the interview; further answers are rejected
	Complete(ctx context.Context, owner, mockID string) (*entities.InterviewSession, error)

	// History returns the ordered questions asked in a session
	History(ctx context.Context, owner, mockID string) ([]entities.QuestionAnswerPair, error)

	// Profile returns the live skill profile of a session
	Profile(ctx context.Context, owner, mockID string) (entities.SkillProfile, error)

	// Feedback returns the session's answers with their rounded average rating
	Feedback(ctx context.Context, owner, mockID string) (*FeedbackSummary, error)

	// ListAnalysis returns the analysis records stored for a session
	ListAnalysis(ctx context.Context, owner, mockID string) ([]*entities.AnalysisRecord, error)

	// IngestAnalysis stores an externally produced analysis record
	IngestAnalysis(ctx context.Context, input IngestAnalysisInput) (*entities.AnalysisRecord, error)

	// Report reconciles the content, audio and behavior streams of a session
	Report(ctx context.Context, owner, mockID string) (*Report, error)

	// OwnerReport reconciles every record of owner across sessions
	OwnerReport(ctx context.Context, owner string) (*Report, error)
}

// ResumeUpload is a resume attached to session creation
type ResumeUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// CreateSessionInput represents input for creating a session
type CreateSessionInput struct {
	Owner      string
	Position   string
	JobType    entities.JobType
	Experience entities.ExperienceLevel
	Resume     *ResumeUpload
}

// SubmitAnswerInput represents one submitted answer. An empty Question answers the current one.
type SubmitAnswerInput struct {
	Owner    string
	MockID   string
	Question string
	Answer   string
}

// TurnResult is the outcome of an applied turn
type TurnResult struct {
	Session    *entities.InterviewSession
	Answer     *entities.AnswerRecord
	Evaluation *Evaluation
	Next       entities.QuestionAnswerPair
}

// SessionStats summarizes an owner's interviews
type SessionStats struct {
	CompletedInterviews int    `json:"completedInterviews"`
	AverageScore        string `json:"averageScore"`
}

// SessionList is the owner's sessions, newest first
type SessionList struct {
	Sessions []*entities.InterviewSession
	Stats    SessionStats
}

// FeedbackSummary is the per-answer feedback of a session
type FeedbackSummary struct {
	Session       *entities.InterviewSession
	Answers       []*entities.AnswerRecord
	AverageRating int
}

// IngestAnalysisInput represents an analysis record produced outside the engine
type IngestAnalysisInput struct {
	Owner    string
	MockID   string
	Kind     entities.AnalysisKind
	Question string
	Feedback json.RawMessage
	Rating   int
}
