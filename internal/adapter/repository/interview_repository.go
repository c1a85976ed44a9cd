package repository

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/johnquangdev/mock-interview/internal/domain/entities"
	"github.com/johnquangdev/mock-interview/internal/domain/repositories"
)

// sessionRepository implements the SessionRepository interface
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new interview session repository
func NewSessionRepository(db *gorm.DB) repositories.SessionRepository {
	return &sessionRepository{db: db}
}

// Create persists a new session
func (r *sessionRepository) Create(ctx context.Context, session *entities.InterviewSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// FindByMockID retrieves a session by its public identifier
func (r *sessionRepository) FindByMockID(ctx context.Context, mockID string) (*entities.InterviewSession, error) {
	var session entities.InterviewSession
	err := r.db.WithContext(ctx).
		Where("mock_id = ?", mockID).
		First(&session).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// ListByOwner retrieves sessions created by owner, newest first
func (r *sessionRepository) ListByOwner(ctx context.Context, owner string) ([]*entities.InterviewSession, error) {
	var sessions []*entities.InterviewSession
	err := r.db.WithContext(ctx).
		Where("created_by = ?", owner).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// SaveState writes the mutable state columns guarded by the optimistic version
func (r *sessionRepository) SaveState(ctx context.Context, session *entities.InterviewSession) error {
	res := r.db.WithContext(ctx).
		Model(&entities.InterviewSession{}).
		Where("mock_id = ? AND version = ?", session.MockID, session.Version).
		Updates(map[string]interface{}{
			"state":        session.State,
			"pending_turn": session.PendingTurn,
			"total_rating": session.TotalRating,
			"version":      gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.missOrConflict(ctx, session.MockID)
	}
	session.Version++
	return nil
}

// ApplyTurn stores the answer and advances the session in one transaction
func (r *sessionRepository) ApplyTurn(ctx context.Context, session *entities.InterviewSession, update repositories.TurnUpdate, state entities.SessionState) error {
	questions := append(append([]entities.QuestionAnswerPair(nil), session.QuestionList()...), update.Question)
	pending := session.PendingTurn
	if update.ClearPending {
		pending = datatypes.NewJSONType[*entities.PendingTurn](nil)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if update.Answer != nil {
			if err := tx.Create(update.Answer).Error; err != nil {
				return err
			}
		}

		res := tx.Model(&entities.InterviewSession{}).
			Where("mock_id = ? AND version = ?", session.MockID, session.Version).
			Updates(map[string]interface{}{
				"questions":     datatypes.NewJSONType(questions),
				"skill_profile": datatypes.NewJSONType(update.Profile),
				"pending_turn":  pending,
				"state":         state,
				"version":       gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return entities.ErrConcurrentUpdate
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, entities.ErrConcurrentUpdate) {
			return r.missOrConflict(ctx, session.MockID)
		}
		return err
	}

	session.Questions = datatypes.NewJSONType(questions)
	session.SkillProfile = datatypes.NewJSONType(update.Profile)
	session.PendingTurn = pending
	session.State = state
	session.Version++
	return nil
}

func (r *sessionRepository) missOrConflict(ctx context.Context, mockID string) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.InterviewSession{}).Where("mock_id = ?", mockID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return entities.ErrSessionNotFound
	}
	return entities.ErrConcurrentUpdate
}
