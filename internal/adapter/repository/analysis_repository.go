package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/johnquangdev/mock-interview/internal/domain/entities"
	"github.com/johnquangdev/mock-interview/internal/domain/repositories"
)

// analysisRepository implements the AnalysisRepository interface
type analysisRepository struct {
	db *gorm.DB
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *gorm.DB) repositories.AnalysisRepository {
	return &analysisRepository{db: db}
}

// Create persists an analysis record
func (r *analysisRepository) Create(ctx context.Context, record *entities.AnalysisRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// ListByMockID retrieves analysis records for a session
func (r *analysisRepository) ListByMockID(ctx context.Context, mockID string) ([]*entities.AnalysisRecord, error) {
	var records []*entities.AnalysisRecord
	err := r.db.WithContext(ctx).
		Where("mock_id = ?", mockID).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListByOwner retrieves analysis records across all sessions of owner
func (r *analysisRepository) ListByOwner(ctx context.Context, owner string) ([]*entities.AnalysisRecord, error) {
	var records []*entities.AnalysisRecord
	err := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
