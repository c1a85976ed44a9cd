// Package analysis produces audio and behavior analysis records from uploaded media.
package analysis

import (
	"context"
	"io"

	"github.com/johnquangdev/mock-interview/internal/domain/entities"
	"github.com/johnquangdev/mock-interview/internal/usecase/interview"
	"github.com/johnquangdev/mock-interview/pkg/ai"
)

// Service defines the interface for the analysis use case
type Service interface {
	// AnalyzeAudio judges a recorded answer to question and stores an audio record
	AnalyzeAudio(ctx context.Context, input AudioInput) (*entities.AnalysisRecord, error)

	// AnalyzeBehavior judges webcam snapshots and stores a behavior record for the session
	AnalyzeBehavior(ctx context.Context, input BehaviorInput) (*entities.AnalysisRecord, error)

	// Transcribe converts a recorded answer to text
	Transcribe(ctx context.Context, clip Upload, language string) (*ai.Transcription, error)
}

// Sessions is the part of the interview service analysis depends on
type Sessions interface {
	GetSession(ctx context.Context, owner, mockID string) (*entities.InterviewSession, error)
	IngestAnalysis(ctx context.Context, input interview.IngestAnalysisInput) (*entities.AnalysisRecord, error)
}

// BlobStore keeps uploaded media
type BlobStore interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
}

// Transcriber converts speech to text
type Transcriber interface {
	Transcribe(ctx context.Context, r io.Reader, language string) (*ai.Transcription, error)
}

// Upload is one uploaded media file
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// AudioInput represents a recorded answer to analyze
type AudioInput struct {
	Owner    string
	MockID   string
	Question string
	Clip     Upload
}

// BehaviorInput represents webcam snapshots to analyze
type BehaviorInput struct {
	Owner     string
	MockID    string
	Snapshots []Upload
}

// AudioFeedback is the stored feedback of an audio record
type AudioFeedback struct {
	ContentAnalysis      string   `json:"contentAnalysis"`
	CommunicationStyle   string   `json:"communicationStyle"`
	ProfessionalDemeanor string   `json:"professionalDemeanor"`
	AreasForImprovement  []string `json:"areasForImprovement"`
	Rating               int      `json:"rating"`
	OverallFeedback      string   `json:"overallFeedback"`
	Object               string   `json:"object,omitempty"`
}

// BehaviorFeedback is the stored feedback of a behavior record
type BehaviorFeedback struct {
	PostureAnalysis   string   `json:"postureAnalysis"`
	Posture           string   `json:"posture"`
	FacialExpressions string   `json:"facialExpressions"`
	FExpressions      string   `json:"fexpressions"`
	ProfDemeanor      string   `json:"profDemeanor"`
	BodyLanguage      string   `json:"bodyLanguage"`
	Recommendations   []string `json:"recommendations"`
	ConfidenceScore   int      `json:"confidenceScore"`
	OverallImpression string   `json:"overallImpression"`
	Objects           []string `json:"objects,omitempty"`
}
