package presenter

import (
	"encoding/json"

	dto "github.com/johnquangdev/mock-interview/internal/adapter/dto/interview"
	"github.com/johnquangdev/mock-interview/internal/domain/entities"
	"github.com/johnquangdev/mock-interview/internal/usecase/interview"
)

// ToQuestionResponses converts question pairs to their DTOs
func ToQuestionResponses(qs []entities.QuestionAnswerPair) []dto.QuestionResponse {
	out := make([]dto.QuestionResponse, len(qs))
	for i, q := range qs {
		out[i] = dto.QuestionResponse{Question: q.Question, Answer: q.Answer}
	}
	return out
}

// ToInterviewResponse converts an InterviewSession entity to InterviewResponse DTO
func ToInterviewResponse(s *entities.InterviewSession) *dto.InterviewResponse {
	if s == nil {
		return nil
	}

	return &dto.InterviewResponse{
		MockID:        s.MockID,
		JobPosition:   s.JobPosition,
		JobType:       string(s.JobType),
		JobExperience: string(s.JobExperience),
		CreatedBy:     s.CreatedBy,
		State:         string(s.State),
		Questions:     ToQuestionResponses(s.QuestionList()),
		SkillProfile:  s.Profile(),
		TotalRating:   s.TotalRating,
		HasResume:     s.ResumeObject != "",
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// ToInterviewListResponse converts the owner's sessions and stats to InterviewListResponse
func ToInterviewListResponse(list *interview.SessionList) *dto.InterviewListResponse {
	resp := &dto.InterviewListResponse{Interviews: []dto.InterviewResponse{}}
	if list == nil {
		resp.Stats.AverageScore = "0.0"
		return resp
	}
	for _, s := range list.Sessions {
		resp.Interviews = append(resp.Interviews, *ToInterviewResponse(s))
	}
	resp.Stats = dto.StatsResponse{
		CompletedInterviews: list.Stats.CompletedInterviews,
		AverageScore:        list.Stats.AverageScore,
	}
	return resp
}

// ToTurnResponse converts an applied turn to TurnResponse DTO
func ToTurnResponse(t *interview.TurnResult) *dto.TurnResponse {
	if t == nil || t.Session == nil {
		return nil
	}

	resp := &dto.TurnResponse{
		MockID:       t.Session.MockID,
		NextQuestion: dto.QuestionResponse{Question: t.Next.Question, Answer: t.Next.Answer},
		State:        string(t.Session.State),
		SkillProfile: t.Session.Profile(),
	}
	if t.Evaluation != nil {
		resp.Rating = t.Evaluation.Rating
		resp.Feedback = t.Evaluation.Feedback
		resp.Tags = t.Evaluation.Tags
	} else if t.Answer != nil {
		resp.Rating = t.Answer.Rating
		resp.Feedback = t.Answer.Feedback
		resp.Tags = t.Answer.Tags.Data()
	}
	return resp
}

// ToAnswerResponse converts an AnswerRecord entity to AnswerResponse DTO
func ToAnswerResponse(a *entities.AnswerRecord) dto.AnswerResponse {
	return dto.AnswerResponse{
		ID:          a.ID.String(),
		Question:    a.Question,
		ModelAnswer: a.ModelAnswer,
		UserAnswer:  a.UserAnswer,
		Feedback:    a.Feedback,
		Rating:      a.Rating,
		Tags:        a.Tags.Data(),
		CreatedAt:   a.CreatedAt,
	}
}

// ToFeedbackResponse converts a FeedbackSummary to FeedbackResponse DTO
func ToFeedbackResponse(f *interview.FeedbackSummary) *dto.FeedbackResponse {
	if f == nil || f.Session == nil {
		return nil
	}

	answers := make([]dto.AnswerResponse, len(f.Answers))
	for i, a := range f.Answers {
		answers[i] = ToAnswerResponse(a)
	}
	return &dto.FeedbackResponse{
		MockID:        f.Session.MockID,
		AverageRating: f.AverageRating,
		Answers:       answers,
	}
}

// ToAnalysisResponse converts an AnalysisRecord entity to AnalysisResponse DTO
func ToAnalysisResponse(r *entities.AnalysisRecord) *dto.AnalysisResponse {
	if r == nil {
		return nil
	}

	var feedback json.RawMessage
	if len(r.Feedback) > 0 {
		feedback = json.RawMessage(r.Feedback)
	}
	return &dto.AnalysisResponse{
		ID:        r.ID.String(),
		MockID:    r.MockID,
		Kind:      string(r.Kind),
		Question:  r.Question,
		Feedback:  feedback,
		Rating:    r.Rating,
		CreatedAt: r.CreatedAt,
	}
}

// ToAnalysisListResponse converts analysis records to their DTOs
func ToAnalysisListResponse(records []*entities.AnalysisRecord) []*dto.AnalysisResponse {
	out := make([]*dto.AnalysisResponse, len(records))
	for i, r := range records {
		out[i] = ToAnalysisResponse(r)
	}
	return out
}

// ToReportResponse converts a reconciled Report to ReportResponse DTO
func ToReportResponse(mockID string, r *interview.Report) *dto.ReportResponse {
	if r == nil {
		return nil
	}

	return &dto.ReportResponse{
		MockID:    mockID,
		Knowledge: r.Knowledge,
		Audio:     r.Audio,
		Behavior:  r.Behavior,
		Counts: dto.ReportCountsResponse{
			Knowledge: r.Counts.Knowledge,
			Audio:     r.Counts.Audio,
			Behavior:  r.Counts.Behavior,
		},
	}
}
