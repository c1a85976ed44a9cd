package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AnalysisKind identifies the producer of an analysis record
type AnalysisKind string

const (
	AnalysisKindContent  AnalysisKind = "content"
	AnalysisKindAudio    AnalysisKind = "audio"
	AnalysisKindBehavior AnalysisKind = "behavior"
)

// Valid reports whether k is a known analysis kind
func (k AnalysisKind) Valid() bool {
	switch k {
	case AnalysisKindContent, AnalysisKindAudio, AnalysisKindBehavior:
		return true
	}
	return false
}

// AnalysisRecord is a single scored analysis of a session produced by one pipeline
type AnalysisRecord struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MockID    string         `json:"mock_id" gorm:"column:mock_id;type:varchar(64);not null;index"`
	Kind      AnalysisKind   `json:"kind" gorm:"type:varchar(20);not null;index"`
	Question  string         `json:"question,omitempty" gorm:"type:text"`
	Feedback  datatypes.JSON `json:"feedback,omitempty" gorm:"type:jsonb"`
	Rating    int            `json:"rating" gorm:"not null"`
	Owner     string         `json:"owner" gorm:"type:varchar(255);index"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for AnalysisRecord
func (AnalysisRecord) TableName() string {
	return "analysis_records"
}

// NewAnalysisRecord builds a record with feedback marshalled to JSON
func NewAnalysisRecord(mockID string, kind AnalysisKind, question string, feedback any, rating int, owner string) (*AnalysisRecord, error) {
	raw, err := json.Marshal(feedback)
	if err != nil {
		return nil, err
	}
	return &AnalysisRecord{
		ID:        uuid.New(),
		MockID:    mockID,
		Kind:      kind,
		Question:  question,
		Feedback:  datatypes.JSON(raw),
		Rating:    rating,
		Owner:     owner,
		CreatedAt: time.Now().UTC(),
	}, nil
}
