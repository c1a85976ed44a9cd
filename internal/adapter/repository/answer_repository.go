package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/johnquangdev/mock-interview/internal/domain/entities"
	"github.com/johnquangdev/mock-interview/internal/domain/repositories"
)

// answerRepository implements the AnswerRepository interface
type answerRepository struct {
	db *gorm.DB
}

// NewAnswerRepository creates a new answer repository
func NewAnswerRepository(db *gorm.DB) repositories.AnswerRepository {
	return &answerRepository{db: db}
}

// ListByMockID retrieves answers for a session in submission order
func (r *answerRepository) ListByMockID(ctx context.Context, mockID string) ([]*entities.AnswerRecord, error) {
	var answers []*entities.AnswerRecord
	err := r.db.WithContext(ctx).
		Where("mock_id = ?", mockID).
		Order("created_at ASC").
		Find(&answers).Error
	if err != nil {
		return nil, err
	}
	return answers, nil
}

// ListByOwner retrieves every answer submitted by owner
func (r *answerRepository) ListByOwner(ctx context.Context, owner string) ([]*entities.AnswerRecord, error) {
	var answers []*entities.AnswerRecord
	err := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("created_at ASC").
		Find(&answers).Error
	if err != nil {
		return nil, err
	}
	return answers, nil
}
