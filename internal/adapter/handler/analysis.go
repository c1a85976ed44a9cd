package handler

import (
	stdErrors "errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/mock-interview/errors"
	dto "github.com/johnquangdev/mock-interview/internal/adapter/dto/interview"
	"github.com/johnquangdev/mock-interview/internal/adapter/presenter"
	"github.com/johnquangdev/mock-interview/internal/domain/entities"
	"github.com/johnquangdev/mock-interview/internal/infrastructure/http/middleware"
	analysisUsecase "github.com/johnquangdev/mock-interview/internal/usecase/analysis"
	interviewUsecase "github.com/johnquangdev/mock-interview/internal/usecase/interview"
	"github.com/johnquangdev/mock-interview/pkg/logger"
)

// Analysis handles analysis records, multi-modal producers and reports
type Analysis struct {
	interviews interviewUsecase.Service
	analysis   analysisUsecase.Service
	logger     *zap.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(interviews interviewUsecase.Service, analysis analysisUsecase.Service, l *zap.Logger) *Analysis {
	return &Analysis{
		interviews: interviews,
		analysis:   analysis,
		logger:     logger.OrNop(l),
	}
}

// ListAnalysis handles GET /interviews/:mockId/analysis
// @Summary      List analysis records
// @Tags         Analysis
// @Produce      json
// @Security     BearerAuth
// @Param        mockId  path      string  true  "Interview ID"
// @Success      200     {array}   interview.AnalysisResponse
// @Router       /interviews/{mockId}/analysis [get]
func (h *Analysis) ListAnalysis(c echo.Context) error {
	owner, ok := middleware.GetOwner(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	records, err := h.interviews.ListAnalysis(c.Request().Context(), owner, c.Param("mockId"))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToAnalysisListResponse(records))
}

// IngestAnalysis handles POST /interviews/:mockId/analysis
// @Summary      Store an analysis record
// @Description  Stores a content, audio or behavior record produced by an external pipeline
// @Tags         Analysis
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        mockId   path      string                           true  "Interview ID"
// @Param        request  body      interview.IngestAnalysisRequest  true  "Analysis record"
// @Success      201      {object}  interview.AnalysisResponse
// @Failure      400      {object}  map[string]interface{}  "Invalid kind or rating"
// @Router       /interviews/{mockId}/analysis [post]
func (h *Analysis) IngestAnalysis(c echo.Context) error {
	owner, ok := middleware.GetOwner(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	var req dto.IngestAnalysisRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	record, err := h.interviews.IngestAnalysis(c.Request().Context(), interviewUsecase.IngestAnalysisInput{
		Owner:    owner,
		MockID:   c.Param("mockId"),
		Kind:     entities.AnalysisKind(req.Kind),
		Question: req.Question,
		Feedback: req.Feedback,
		Rating:   req.Rating,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToAnalysisResponse(record))
}

// AnalyzeAudio handles POST /interviews/:mockId/analysis/audio
// @Summary      Analyze a recorded answer
// @Tags         Analysis
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        mockId    path      string  true  "Interview ID"
// @Param        question  formData  string  true  "Question being answered"
// @Param        audio     formData  file    true  "Recorded answer"
// @Success      201       {object}  interview.AnalysisResponse
// @Failure      502       {object}  map[string]interface{}  "AI analysis failed"
// @Router       /interviews/{mockId}/analysis/audio [post]
func (h *Analysis) AnalyzeAudio(c echo.Context) error {
	owner, ok := middleware.GetOwner(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	var req dto.AudioAnalysisRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	clip, err := formUpload(c, "audio")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if clip == nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("audio file is required"))
	}

	record, err := h.analysis.AnalyzeAudio(c.Request().Context(), analysisUsecase.AudioInput{
		Owner:    owner,
		MockID:   c.Param("mockId"),
		Question: req.Question,
		Clip:     *clip,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToAnalysisResponse(record))
}

// AnalyzeBehavior handles POST /interviews/:mockId/analysis/behavior
// @Summary      Analyze webcam snapshots
// @Tags         Analysis
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        mockId     path      string  true  "Interview ID"
// @Param        snapshots  formData  file    true  "Webcam snapshots"
// @Success      201        {object}  interview.AnalysisResponse
// @Failure      502        {object}  map[string]interface{}  "AI analysis failed"
// @Router       /interviews/{mockId}/analysis/behavior [post]
func (h *Analysis) AnalyzeBehavior(c echo.Context) error {
	owner, ok := middleware.GetOwner(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	snapshots, err := formUploads(c, "snapshots")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if len(snapshots) == 0 {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("at least one snapshot is required"))
	}

	record, err := h.analysis.AnalyzeBehavior(c.Request().Context(), analysisUsecase.BehaviorInput{
		Owner:     owner,
		MockID:    c.Param("mockId"),
		Snapshots: snapshots,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToAnalysisResponse(record))
}

// GetReport handles GET /interviews/:mockId/report
// @Summary      Reconciled scores of an interview
// @Description  Mean rating per stream: knowledge (answer evaluations and content records), audio and behavior
// @Tags         Analysis
// @Produce      json
// @Security     BearerAuth
// @Param        mockId  path      string  true  "Interview ID"
// @Success      200     {object}  interview.ReportResponse
// @Router       /interviews/{mockId}/report [get]
func (h *Analysis) GetReport(c echo.Context) error {
	owner, ok := middleware.GetOwner(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	mockID := c.Param("mockId")
	report, err := h.interviews.Report(c.Request().Context(), owner, mockID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToReportResponse(mockID, report))
}

// GetOwnerReport handles GET /profile/analysis
// @Summary      Reconciled scores across all interviews
// @Tags         Analysis
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  interview.ReportResponse
// @Router       /profile/analysis [get]
func (h *Analysis) GetOwnerReport(c echo.Context) error {
	owner, ok := middleware.GetOwner(c)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	report, err := h.interviews.OwnerReport(c.Request().Context(), owner)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToReportResponse("", report))
}

// Transcribe handles POST /transcribe
// @Summary      Transcribe a recorded answer
// @Tags         Analysis
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        language  formData  string  false  "Language code"
// @Param        audio     formData  file    true   "Recorded answer"
// @Success      200       {object}  interview.TranscriptionResponse
// @Failure      502       {object}  map[string]interface{}  "Transcription failed"
// @Failure      503       {object}  map[string]interface{}  "Transcription not configured"
// @Router       /transcribe [post]
func (h *Analysis) Transcribe(c echo.Context) error {
	if _, ok := middleware.GetOwner(c); !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	var req dto.TranscribeRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument(err.Error()))
	}

	clip, err := formUpload(c, "audio")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if clip == nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("audio file is required"))
	}

	t, err := h.analysis.Transcribe(c.Request().Context(), *clip, req.Language)
	if err != nil {
		if stdErrors.Is(err, entities.ErrAnalysisFailed) {
			err = errors.ErrAITranscriptionFailed(err)
		}
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, &dto.TranscriptionResponse{ID: t.ID, Text: t.Text, Language: t.Language})
}
