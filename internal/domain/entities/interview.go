package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// JobType is the kind of interview being conducted
type JobType string

const (
	JobTypeTechnical JobType = "technical"
	JobTypeHR        JobType = "hr"
	JobTypeResume    JobType = "resume"
)

// Valid reports whether t is a known job type
func (t JobType) Valid() bool {
	switch t {
	case JobTypeTechnical, JobTypeHR, JobTypeResume:
		return true
	}
	return false
}

// ExperienceLevel is the seniority the interview is calibrated for
type ExperienceLevel string

const (
	ExperienceJunior ExperienceLevel = "junior"
	ExperienceMid    ExperienceLevel = "mid"
	ExperienceSenior ExperienceLevel = "senior"
)

// Valid reports whether l is a known experience level
func (l ExperienceLevel) Valid() bool {
	switch l {
	case ExperienceJunior, ExperienceMid, ExperienceSenior:
		return true
	}
	return false
}

// SessionState is the per-session turn state machine
type SessionState string

const (
	SessionStateAwaitingAnswer SessionState = "awaiting_answer"
	SessionStateEvaluating     SessionState = "evaluating"
	SessionStateGeneratingNext SessionState = "generating_next"
	SessionStateComplete       SessionState = "complete"
)

// QuestionAnswerPair is a generated question with its reference answer
type QuestionAnswerPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SkillProfile maps a skill name to its running score
type SkillProfile map[string]int

// Clone returns an independent copy of the profile
func (p SkillProfile) Clone() SkillProfile {
	out := make(SkillProfile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// PendingTurn is an evaluated answer whose follow-up question has not been generated yet.
// It lives on the session while the state is generating_next and is applied by Append.
type PendingTurn struct {
	Answer AnswerRecord `json:"answer"`
}

// InterviewSession is one mock interview identified by MockID
type InterviewSession struct {
	ID            uuid.UUID                                `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MockID        string                                   `json:"mock_id" gorm:"column:mock_id;type:varchar(64);not null;uniqueIndex"`
	JobPosition   string                                   `json:"job_position" gorm:"type:varchar(255)"`
	JobType       JobType                                  `json:"job_type" gorm:"type:varchar(20);not null"`
	JobExperience ExperienceLevel                          `json:"job_experience" gorm:"type:varchar(20)"`
	CreatedBy     string                                   `json:"created_by" gorm:"type:varchar(255);not null;index"`
	Questions     datatypes.JSONType[[]QuestionAnswerPair] `json:"questions" gorm:"type:jsonb;not null"`
	SkillProfile  datatypes.JSONType[SkillProfile]         `json:"skill_profile" gorm:"type:jsonb;not null"`
	State         SessionState                             `json:"state" gorm:"type:varchar(32);not null;default:'awaiting_answer'"`
	PendingTurn   datatypes.JSONType[*PendingTurn]         `json:"-" gorm:"type:jsonb"`
	TotalRating   *int                                     `json:"total_rating,omitempty"`
	ResumeObject  string                                   `json:"resume_object,omitempty" gorm:"type:text"`
	Version       int                                      `json:"version" gorm:"not null;default:0"`
	CreatedAt     time.Time                                `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time                                `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for InterviewSession
func (InterviewSession) TableName() string {
	return "interview_sessions"
}

// NewInterviewSession creates a session awaiting its first answer
func NewInterviewSession(position string, jobType JobType, experience ExperienceLevel, owner string, seed []QuestionAnswerPair) *InterviewSession {
	if seed == nil {
		seed = []QuestionAnswerPair{}
	}
	return &InterviewSession{
		ID:            uuid.New(),
		MockID:        uuid.NewString(),
		JobPosition:   position,
		JobType:       jobType,
		JobExperience: experience,
		CreatedBy:     owner,
		Questions:     datatypes.NewJSONType(seed),
		SkillProfile:  datatypes.NewJSONType(SkillProfile{}),
		State:         SessionStateAwaitingAnswer,
		PendingTurn:   datatypes.NewJSONType[*PendingTurn](nil),
		CreatedAt:     time.Now().UTC(),
	}
}

// QuestionList returns the ordered questions asked so far
func (s *InterviewSession) QuestionList() []QuestionAnswerPair {
	return s.Questions.Data()
}

// Profile returns a copy of the live skill profile
func (s *InterviewSession) Profile() SkillProfile {
	p := s.SkillProfile.Data()
	if p == nil {
		return SkillProfile{}
	}
	return p.Clone()
}

// Pending returns the evaluated turn waiting for its follow-up question, if any
func (s *InterviewSession) Pending() *PendingTurn {
	return s.PendingTurn.Data()
}

// CurrentQuestion returns the most recent question, or false when none was generated
func (s *InterviewSession) CurrentQuestion() (QuestionAnswerPair, bool) {
	qs := s.QuestionList()
	if len(qs) == 0 {
		return QuestionAnswerPair{}, false
	}
	return qs[len(qs)-1], true
}

// IsOwnedBy reports whether owner created the session
func (s *InterviewSession) IsOwnedBy(owner string) bool {
	return s != nil && s.CreatedBy == owner
}
