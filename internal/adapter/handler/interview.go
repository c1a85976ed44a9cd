package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/mock-interview/errors"
	dto "github.com/johnquangdev/mock-interview/internal/adapter/dto/interview"
	"github.com/johnquangdev/mock-interview/internal/adapter/presenter"
	"github.com/johnquangdev/mock-interview/internal/domain/entities"
	"github.com/johnquangdev/mock-interview/internal/infrastructure/http/middleware"
	interviewUsecase "github.com/johnquangdev/mock-interview/internal/usecase/interview"
	"github.com/johnquangdev/mock-interview/pkg/logger"
)

// Interview handles interview session HTTP requests
type Interview struct {
	service interviewUsecase.Service
	logger  *zap.Logger
}

// NewInterviewHandler creates a new interview handler
func NewInterviewHandler(service interviewUsecase.Service, l *zap.Logger) *Interview {
	return &Interview{
		service: service,
		logger:  logger.OrNop(l),
	}
}

// CreateInterview handles POST /interviews
// @Summary      Start an interview
// @Description  Generates the seed questions and opens a session awaiting its first answer. Resume interviews are sent as multipart/form-data with a "resume" file.
// @Tags         Interviews
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      interview.CreateInterviewRequest  true   "Interview parameters"
// @Param        resume   formData  file                              false  "Resume (required for resume interviews)"
// @Success      201      {object}  interview.InterviewResponse
// @Failure      400      {object}  map[string]interface{}  "Invalid request or validation failed"
// @Failure      401      {object}  map[string]interface{}  "User not authenticated"
// @Failure      502      {object}  map[string]interface{}  "Question generation failed"
// @Router       /interviews [post]
func (h *Interview) CreateInterview(c echo.Context) error {
	owner, ok := middleware.GetOwner(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	var req dto.CreateInterviewRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	input := interviewUsecase.CreateSessionInput{
		Owner:      owner,
		Position:   req.JobPosition,
		JobType:    entities.JobType(req.JobType),
		Experience: entities.ExperienceLevel(req.JobExperience),
	}

	upload, err := formUpload(c, "resume")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if upload != nil {
		input.Resume = &interviewUsecase.ResumeUpload{
			Filename:    upload.Filename,
			ContentType: upload.ContentType,
			Data:        upload.Data,
		}
	}

	session, err := h.service.CreateSession(c.Request().Context(), input)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToInterviewResponse(session))
}

// ListInterviews handles GET /interviews
// @Summary      List interviews
// @Description  Lists the caller's interviews, newest first, with summary stats
// @Tags         Interviews
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  interview.InterviewListResponse
// @Failure      401  {object}  map[string]interface{}  "User not authenticated"
// @Router       /interviews [get]
func (h *Interview) ListInterviews(c echo.Context) error {
	owner, ok := middleware.GetOwner(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	list, err := h.service.ListSessions(c.Request().Context(), owner)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToInterviewListResponse(list))
}

// GetInterview handles GET /interviews/:mockId
// @Summary      Get an interview
// @Tags         Interviews
// @Produce      json
// @Security     BearerAuth
// @Param        mockId  path      string  true  "Interview ID"
// @Success      200     {object}  interview.InterviewResponse
// @Failure      403     {object}  map[string]interface{}  "Interview belongs to another user"
// @Failure      404     {object}  map[string]interface{}  "Interview not found"
// @Router       /interviews/{mockId} [get]
func (h *Interview) GetInterview(c echo.Context) error {
	owner, ok := middleware.GetOwner(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	session, err := h.service.GetSession(c.Request().Context(), owner, c.Param("mockId"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToInterviewResponse(session))
}

// SubmitAnswer handles POST /interviews/:mockId/answers
// @Summary      Answer the current question
// @Description  Evaluates the answer, merges its skill tags and returns the next question
// @Tags         Interviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        mockId   path      string                         true  "Interview ID"
// @Param        request  body      interview.SubmitAnswerRequest  true  "Answer"
// @Success      200      {object}  interview.TurnResponse
// @Failure      400      {object}  map[string]interface{}  "Invalid request or validation failed"
// @Failure      404      {object}  map[string]interface{}  "Interview not found"
// @Failure      409      {object}  map[string]interface{}  "Interview is not accepting answers"
// @Failure      502      {object}  map[string]interface{}  "Answer could not be processed"
// @Router       /interviews/{mockId}/answers [post]
func (h *Interview) SubmitAnswer(c echo.Context) error {
	owner, ok := middleware.GetOwner(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	var req dto.SubmitAnswerRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	result, err := h.service.SubmitAnswer(c.Request().Context(), interviewUsecase.SubmitAnswerInput{
		Owner:    owner,
		MockID:   c.Param("mockId"),
		Question: req.Question,
		Answer:   req.Answer,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToTurnResponse(result))
}

// RetryGeneration handles POST /interviews/:mockId/retry
// @Summary      Retry next-question generation
// @Description  Resumes an interview whose last answer was evaluated but whose next question could not be generated
// @Tags         Interviews
// @Produce      json
// @Security     BearerAuth
// @Param        mockId  path      string  true  "Interview ID"
// @Success      200     {object}  interview.TurnResponse
// @Failure      409     {object}  map[string]interface{}  "No pending turn"
// @Failure      502     {object}  map[string]interface{}  "Question generation failed"
// @Router       /interviews/{mockId}/retry [post]
func (h *Interview) RetryGeneration(c echo.Context) error {
	owner, ok := middleware.GetOwner(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	result, err := h.service.RetryGeneration(c.Request().Context(), owner, c.Param("mockId"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToTurnResponse(result))
}

// CompleteInterview handles POST /interviews/:mockId/complete
// @Summary      Complete an interview
// @Tags         Interviews
// @Produce      json
// @Security     BearerAuth
// @Param        mockId  path      string  true  "Interview ID"
// @Success      200     {object}  interview.InterviewResponse
// @Failure      409     {object}  map[string]interface{}  "Interview cannot be completed in its current state"
// @Router       /interviews/{mockId}/complete [post]
func (h *Interview) CompleteInterview(c echo.Context) error {
	owner, ok := middleware.GetOwner(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	session, err := h.service.Complete(c.Request().Context(), owner, c.Param("mockId"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToInterviewResponse(session))
}

// GetHistory handles GET /interviews/:mockId/history
// @Summary      Questions asked so far
// @Tags         Interviews
// @Produce      json
// @Security     BearerAuth
// @Param        mockId  path      string  true  "Interview ID"
// @Success      200     {object}  interview.HistoryResponse
// @Router       /interviews/{mockId}/history [get]
func (h *Interview) GetHistory(c echo.Context) error {
	owner, ok := middleware.GetOwner(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	mockID := c.Param("mockId")
	history, err := h.service.History(c.Request().Context(), owner, mockID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, &dto.HistoryResponse{
		MockID:    mockID,
		Questions: presenter.ToQuestionResponses(history),
	})
}

// GetProfile handles GET /interviews/:mockId/profile
// @Summary      Live skill profile
// @Tags         Interviews
// @Produce      json
// @Security     BearerAuth
// @Param        mockId  path      string  true  "Interview ID"
// @Success      200     {object}  interview.ProfileResponse
// @Router       /interviews/{mockId}/profile [get]
func (h *Interview) GetProfile(c echo.Context) error {
	owner, ok := middleware.GetOwner(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	mockID := c.Param("mockId")
	profile, err := h.service.Profile(c.Request().Context(), owner, mockID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, &dto.ProfileResponse{MockID: mockID, SkillProfile: profile})
}

// GetFeedback handles GET /interviews/:mockId/feedback
// @Summary      Per-answer feedback
// @Tags         Interviews
// @Produce      json
// @Security     BearerAuth
// @Param        mockId  path      string  true  "Interview ID"
// @Success      200     {object}  interview.FeedbackResponse
// @Router       /interviews/{mockId}/feedback [get]
func (h *Interview) GetFeedback(c echo.Context) error {
	owner, ok := middleware.GetOwner(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	summary, err := h.service.Feedback(c.Request().Context(), owner, c.Param("mockId"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToFeedbackResponse(summary))
}
