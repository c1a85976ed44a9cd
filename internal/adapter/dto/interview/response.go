package interview

import (
	"encoding/json"
	"time"
)

// QuestionResponse is a question with its reference answer
type QuestionResponse struct {
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
}

// InterviewResponse represents an interview session
type InterviewResponse struct {
	MockID        string             `json:"mockId"`
	JobPosition   string             `json:"jobPosition"`
	JobType       string             `json:"jobType"`
	JobExperience string             `json:"jobExperience"`
	CreatedBy     string             `json:"createdBy"`
	State         string             `json:"state"`
	Questions     []QuestionResponse `json:"questions"`
	SkillProfile  map[string]int     `json:"skillProfile"`
	TotalRating   *int               `json:"totalRating,omitempty"`
	HasResume     bool               `json:"hasResume"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// StatsResponse summarizes the owner's interviews
type StatsResponse struct {
	CompletedInterviews int    `json:"completedInterviews"`
	AverageScore        string `json:"averageScore"`
}

// InterviewListResponse represents the owner's interviews
type InterviewListResponse struct {
	Interviews []InterviewResponse `json:"interviews"`
	Stats      StatsResponse       `json:"stats"`
}

// TurnResponse represents an evaluated answer and the question that follows it
type TurnResponse struct {
	MockID       string           `json:"mockId"`
	Rating       int              `json:"rating"`
	Feedback     string           `json:"feedback"`
	Tags         map[string]int   `json:"tags,omitempty"`
	NextQuestion QuestionResponse `json:"nextQuestion"`
	State        string           `json:"state"`
	SkillProfile map[string]int   `json:"skillProfile"`
}

// AnswerResponse represents a stored answer with its evaluation
type AnswerResponse struct {
	ID          string         `json:"id"`
	Question    string         `json:"question"`
	ModelAnswer string         `json:"correctAns,omitempty"`
	UserAnswer  string         `json:"userAns"`
	Feedback    string         `json:"feedback"`
	Rating      int            `json:"rating"`
	Tags        map[string]int `json:"tags,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// FeedbackResponse represents the per-answer feedback of an interview
type FeedbackResponse struct {
	MockID        string           `json:"mockId"`
	AverageRating int              `json:"averageRating"`
	Answers       []AnswerResponse `json:"answers"`
}

// HistoryResponse represents the ordered questions of an interview
type HistoryResponse struct {
	MockID    string             `json:"mockId"`
	Questions []QuestionResponse `json:"questions"`
}

// ProfileResponse represents the live skill profile of an interview
type ProfileResponse struct {
	MockID       string         `json:"mockId"`
	SkillProfile map[string]int `json:"skillProfile"`
}

// AnalysisResponse represents a stored analysis record
type AnalysisResponse struct {
	ID        string          `json:"id"`
	MockID    string          `json:"mockId"`
	Kind      string          `json:"kind"`
	Question  string          `json:"question,omitempty"`
	Feedback  json.RawMessage `json:"feedback,omitempty" swaggertype:"object"`
	Rating    int             `json:"rating"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ReportCountsResponse is the number of records behind each score
type ReportCountsResponse struct {
	Knowledge int `json:"knowledge"`
	Audio     int `json:"audio"`
	Behavior  int `json:"behavior"`
}

// ReportResponse represents reconciled scores per analysis stream
type ReportResponse struct {
	MockID    string               `json:"mockId,omitempty"`
	Knowledge float64              `json:"knowledge"`
	Audio     float64              `json:"audio"`
	Behavior  float64              `json:"behavior"`
	Counts    ReportCountsResponse `json:"counts"`
}

// TranscriptionResponse represents a transcribed answer
type TranscriptionResponse struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}
