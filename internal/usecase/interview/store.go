package interview

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/johnquangdev/mock-interview/internal/domain/entities"
	"github.com/johnquangdev/mock-interview/internal/domain/repositories"
	"github.com/johnquangdev/mock-interview/pkg/keylock"
	"github.com/johnquangdev/mock-interview/pkg/logger"
)

// SessionStore orchestrates per-session state over the repositories. Operations on one
// mockId are serialized with Lock; the repository version check guards across processes.
type SessionStore struct {
	sessions repositories.SessionRepository
	locks    *keylock.Locker
	logger   *zap.Logger
}

// NewSessionStore creates a store. A nil locker gets a private one.
func NewSessionStore(sessions repositories.SessionRepository, locks *keylock.Locker, l *zap.Logger) *SessionStore {
	if locks == nil {
		locks = keylock.New()
	}
	return &SessionStore{sessions: sessions, locks: locks, logger: logger.OrNop(l)}
}

// Lock serializes work on mockID until the returned func is called
func (s *SessionStore) Lock(ctx context.Context, mockID string) (func(), error) {
	return s.locks.Lock(ctx, mockID)
}

// Create persists a new session
func (s *SessionStore) Create(ctx context.Context, session *entities.InterviewSession) error {
	if err := s.sessions.Create(ctx, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Get loads a session. An unknown mockID yields ErrSessionNotFound.
func (s *SessionStore) Get(ctx context.Context, mockID string) (*entities.InterviewSession, error) {
	return s.sessions.FindByMockID(ctx, mockID)
}

// Transition moves session to state, carrying pending as the evaluated-but-unapplied turn.
// Persisted states are written with a version check; on failure session is left unchanged.
func (s *SessionStore) Transition(ctx context.Context, session *entities.InterviewSession, to entities.SessionState, pending *entities.PendingTurn) error {
	from := session.State
	if err := checkTransition(from, to); err != nil {
		return err
	}
	// evaluating is never stored, so leaving it for awaiting_answer has nothing to undo
	if !persisted(to) || (!persisted(from) && to == entities.SessionStateAwaitingAnswer) {
		session.State = to
		return nil
	}

	prevPending, prevVersion := session.PendingTurn, session.Version
	session.State = to
	session.PendingTurn = datatypes.NewJSONType(pending)
	if err := s.sessions.SaveState(ctx, session); err != nil {
		session.State, session.PendingTurn, session.Version = from, prevPending, prevVersion
		return fmt.Errorf("save state %s: %w", to, err)
	}

	s.logger.Debug("🔄 Session state changed",
		zap.String(logger.FieldMockID, session.MockID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return nil
}

// Append applies a turn: the answer record, the merged skill profile and the next question are
// written together and the session returns to awaiting_answer. A turn whose caller has already
// gone away is not applied.
func (s *SessionStore) Append(ctx context.Context, session *entities.InterviewSession, answer *entities.AnswerRecord, next entities.QuestionAnswerPair) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", entities.ErrTurnAbandoned, err)
	}
	if err := checkTransition(session.State, entities.SessionStateAwaitingAnswer); err != nil {
		return err
	}

	update := repositories.TurnUpdate{
		Answer:       answer,
		Question:     next,
		Profile:      MergeTags(session.Profile(), answer.Tags.Data()),
		ClearPending: true,
	}
	if err := s.sessions.ApplyTurn(ctx, session, update, entities.SessionStateAwaitingAnswer); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}

	s.logger.Info("✅ Turn applied",
		zap.String(logger.FieldMockID, session.MockID),
		zap.Int("questions", len(session.QuestionList())),
		zap.Int("rating", answer.Rating),
	)
	return nil
}

// SetTotalRating records the summary rating of a session
func (s *SessionStore) SetTotalRating(ctx context.Context, session *entities.InterviewSession, rating int) error {
	prev, prevVersion := session.TotalRating, session.Version
	session.TotalRating = &rating
	if err := s.sessions.SaveState(ctx, session); err != nil {
		session.TotalRating, session.Version = prev, prevVersion
		return fmt.Errorf("save total rating: %w", err)
	}
	return nil
}

// CurrentProfile returns the live skill profile of a session
func (s *SessionStore) CurrentProfile(ctx context.Context, mockID string) (entities.SkillProfile, error) {
	session, err := s.Get(ctx, mockID)
	if err != nil {
		return nil, err
	}
	return session.Profile(), nil
}

// History returns the ordered questions asked in a session, seed set included
func (s *SessionStore) History(ctx context.Context, mockID string) ([]entities.QuestionAnswerPair, error) {
	session, err := s.Get(ctx, mockID)
	if err != nil {
		return nil, err
	}
	return append([]entities.QuestionAnswerPair(nil), session.QuestionList()...), nil
}
