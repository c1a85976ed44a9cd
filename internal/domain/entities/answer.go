package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AnswerRecord is one submitted answer with its evaluation. Immutable once stored.
type AnswerRecord struct {
	ID          uuid.UUID                          `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MockID      string                             `json:"mock_id" gorm:"column:mock_id;type:varchar(64);not null;index"`
	Question    string                             `json:"question" gorm:"type:text;not null"`
	ModelAnswer string                             `json:"model_answer,omitempty" gorm:"type:text"`
	UserAnswer  string                             `json:"user_answer" gorm:"type:text"`
	Feedback    string                             `json:"feedback" gorm:"type:text"`
	Rating      int                                `json:"rating" gorm:"not null"`
	Tags        datatypes.JSONType[map[string]int] `json:"tags,omitempty" gorm:"type:jsonb"`
	Owner       string                             `json:"owner" gorm:"type:varchar(255);index"`
	CreatedAt   time.Time                          `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for AnswerRecord
func (AnswerRecord) TableName() string {
	return "answer_records"
}

// AsAnalysis projects the answer evaluation onto the content analysis stream
func (a *AnswerRecord) AsAnalysis() AnalysisRecord {
	return AnalysisRecord{
		ID:        a.ID,
		MockID:    a.MockID,
		Kind:      AnalysisKindContent,
		Question:  a.Question,
		Rating:    a.Rating,
		Owner:     a.Owner,
		CreatedAt: a.CreatedAt,
	}
}
