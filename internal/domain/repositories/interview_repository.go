package repositories

import (
	"context"

	"github.com/johnquangdev/mock-interview/internal/domain/entities"
)

// TurnUpdate is the atomic result of a completed turn
type TurnUpdate struct {
	Answer       *entities.AnswerRecord
	Question     entities.QuestionAnswerPair
	Profile      entities.SkillProfile
	ClearPending bool
}

// SessionRepository defines the interface for interview session data access
type SessionRepository interface {
	// Create persists a new session
	Create(ctx context.Context, session *entities.InterviewSession) error

	// FindByMockID retrieves a session by its public identifier
	FindByMockID(ctx context.Context, mockID string) (*entities.InterviewSession, error)

	// ListByOwner retrieves sessions created by owner, newest first
	ListByOwner(ctx context.Context, owner string) ([]*entities.InterviewSession, error)

	// SaveState writes state, pending turn and total rating when the stored version
	// still equals session.Version, then increments it
	SaveState(ctx context.Context, session *entities.InterviewSession) error

	// ApplyTurn stores the answer, appends the question, replaces the profile and
	// moves the session to state in one transaction guarded by session.Version
	ApplyTurn(ctx context.Context, session *entities.InterviewSession, update TurnUpdate, state entities.SessionState) error
}

// AnswerRepository defines read access to submitted answers
type AnswerRepository interface {
	// ListByMockID retrieves answers for a session in submission order
	ListByMockID(ctx context.Context, mockID string) ([]*entities.AnswerRecord, error)

	// ListByOwner retrieves every answer submitted by owner
	ListByOwner(ctx context.Context, owner string) ([]*entities.AnswerRecord, error)
}

// AnalysisRepository defines the interface for analysis record data access
type AnalysisRepository interface {
	// Create persists an analysis record
	Create(ctx context.Context, record *entities.AnalysisRecord) error

	// ListByMockID retrieves analysis records for a session
	ListByMockID(ctx context.Context, mockID string) ([]*entities.AnalysisRecord, error)

	// ListByOwner retrieves analysis records across all sessions of owner
	ListByOwner(ctx context.Context, owner string) ([]*entities.AnalysisRecord, error)
}
