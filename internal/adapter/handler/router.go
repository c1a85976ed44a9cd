package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/mock-interview/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg              *config.Config
	auth             echo.MiddlewareFunc
	interviewHandler *Interview
	analysisHandler  *Analysis
}

// NewRouter creates a new router with all handlers.
// auth guards every /v1 route; a nil auth leaves them open.
func NewRouter(cfg *config.Config, auth echo.MiddlewareFunc, interviewHandler *Interview, analysisHandler *Analysis) *Router {
	return &Router{
		cfg:              cfg,
		auth:             auth,
		interviewHandler: interviewHandler,
		analysisHandler:  analysisHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")
	if rt.auth != nil {
		v1.Use(rt.auth)
	}

	rt.setupInterviewRoutes(v1)
	rt.setupAnalysisRoutes(v1)
}

// setupInterviewRoutes configures the interview session routes
func (rt *Router) setupInterviewRoutes(g *echo.Group) {
	interviews := g.Group("/interviews")

	h := rt.interviewHandler
	if h == nil {
		interviews.Any("", rt.notImplemented)
		interviews.Any("/*", rt.notImplemented)
		return
	}

	interviews.POST("", h.CreateInterview)
	interviews.GET("", h.ListInterviews)
	interviews.GET("/:mockId", h.GetInterview)
	interviews.POST("/:mockId/answers", h.SubmitAnswer)
	interviews.POST("/:mockId/retry", h.RetryGeneration)
	interviews.POST("/:mockId/complete", h.CompleteInterview)
	interviews.GET("/:mockId/history", h.GetHistory)
	interviews.GET("/:mockId/profile", h.GetProfile)
	interviews.GET("/:mockId/feedback", h.GetFeedback)
}

// setupAnalysisRoutes configures analysis, report and transcription routes
func (rt *Router) setupAnalysisRoutes(g *echo.Group) {
	h := rt.analysisHandler
	if h == nil {
		g.GET("/profile/analysis", rt.notImplemented)
		g.POST("/transcribe", rt.notImplemented)
		return
	}

	g.GET("/interviews/:mockId/analysis", h.ListAnalysis)
	g.POST("/interviews/:mockId/analysis", h.IngestAnalysis)
	g.POST("/interviews/:mockId/analysis/audio", h.AnalyzeAudio)
	g.POST("/interviews/:mockId/analysis/behavior", h.AnalyzeBehavior)
	g.GET("/interviews/:mockId/report", h.GetReport)
	g.GET("/profile/analysis", h.GetOwnerReport)
	g.POST("/transcribe", h.Transcribe)
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":   "This endpoint is not yet implemented",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
		"message": "Please initialize the required handler in main.go",
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	env := "production"
	if rt.cfg != nil && rt.cfg.Server.Environment != "" {
		env = rt.cfg.Server.Environment
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": env,
	})
}
