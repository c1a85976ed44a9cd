package interview

import "encoding/json"

// CreateInterviewRequest represents the request to start an interview.
// Resume interviews are sent as multipart/form-data with a "resume" file.
type CreateInterviewRequest struct {
	JobPosition   string `json:"jobPosition" form:"jobPosition" validate:"max=255"`
	JobType       string `json:"jobType" form:"jobType" validate:"required,oneof=technical hr resume"`
	JobExperience string `json:"jobExperience" form:"jobExperience" validate:"required,oneof=junior mid senior"`
}

// SubmitAnswerRequest represents an answer to the current question.
// Question may name an earlier question; empty answers the current one.
type SubmitAnswerRequest struct {
	Question string `json:"question,omitempty" validate:"max=4000"`
	Answer   string `json:"answer" validate:"required,min=1,max=20000"`
}

// IngestAnalysisRequest represents an analysis record produced by an external pipeline
type IngestAnalysisRequest struct {
	Kind     string          `json:"kind" validate:"required,oneof=content audio behavior"`
	Question string          `json:"question,omitempty" validate:"max=4000"`
	Feedback json.RawMessage `json:"feedback,omitempty" swaggertype:"object"`
	Rating   int             `json:"rating" validate:"required"`
}

// AudioAnalysisRequest represents the form fields sent with an "audio" file
type AudioAnalysisRequest struct {
	Question string `form:"question" validate:"required,max=4000"`
}

// TranscribeRequest represents the form fields sent with an "audio" file
type TranscribeRequest struct {
	Language string `form:"language" validate:"omitempty,max=10"`
}
