package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/mock-interview/errors"
	"github.com/johnquangdev/mock-interview/internal/domain/entities"
	"github.com/johnquangdev/mock-interview/internal/usecase/interview"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	return c.Request().Header.Get("X-Request-ID")
}

// HandleSuccess writes a standardized success response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusOK, data)
}

// HandleCreated writes a standardized 201 response
func HandleCreated(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusCreated, data)
}

func respond(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Int("status", status),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger.
// Domain errors are mapped to AppError first; the raw cause of a 5xx never reaches the client.
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	appErr := toAppError(c, err)

	if logger != nil {
		fields := []zap.Field{
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
			zap.Any("app_code", appErr.Code),
			zap.Error(err),
		}
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.Error("http.response.error", fields...)
		} else {
			logger.Warn("http.response.error", fields...)
		}
	}

	body := errs{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	if appErr.Raw != nil && appErr.HTTPCode < http.StatusInternalServerError {
		body.Info = appErr.Raw.Error()
	}

	return c.JSON(appErr.HTTPCode, body)
}

// ErrorHandler adapts HandleError to echo's HTTPErrorHandler so middleware errors share the body shape
func ErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var he *echo.HTTPError
		if stdErrors.As(err, &he) {
			msg, _ := he.Message.(string)
			if msg == "" {
				msg = http.StatusText(he.Code)
			}
			_ = c.JSON(he.Code, errs{Code: he.Code, Message: msg})
			return
		}
		_ = HandleError(logger, c, err)
	}
}

// toAppError maps engine errors to their HTTP representation
func toAppError(c echo.Context, err error) errors.AppError {
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		return appErr
	}

	mockID := c.Param("mockId")
	switch {
	case stdErrors.Is(err, entities.ErrSessionNotFound):
		return errors.ErrSessionNotFound(mockID)
	case stdErrors.Is(err, entities.ErrInvalidState):
		e := errors.ErrSessionInvalidState(mockID, "")
		delete(e.Details, "current_state")
		e.Raw = err
		return e
	case stdErrors.Is(err, entities.ErrConcurrentUpdate), stdErrors.Is(err, entities.ErrTurnAbandoned):
		return errors.ErrConcurrentUpdate(mockID)
	case stdErrors.Is(err, entities.ErrForbidden):
		return errors.ErrForbidden("Interview belongs to another user")
	case stdErrors.Is(err, entities.ErrUnauthorized):
		return errors.ErrUnauthenticated()
	case stdErrors.Is(err, entities.ErrInvalidRequest), stdErrors.Is(err, entities.ErrInvalidAnalysis):
		e := errors.ErrInvalidArgument("Invalid request")
		e.Raw = err
		return e
	case stdErrors.Is(err, entities.ErrEvaluationFailed):
		return errors.ErrEvaluationFailed(err)
	case stdErrors.Is(err, entities.ErrGenerationFailed):
		return errors.ErrGenerationFailed(err)
	case stdErrors.Is(err, entities.ErrOutOfRangeValue):
		return errors.ErrOutOfRange(err)
	case stdErrors.Is(err, entities.ErrParse):
		return errors.ErrParseFailed(err)
	case stdErrors.Is(err, entities.ErrAnalysisFailed):
		return errors.ErrAIAnalysisFailed(err)
	case stdErrors.Is(err, entities.ErrUnavailable):
		service := "generation"
		var ue *entities.UnavailableError
		if stdErrors.As(err, &ue) {
			service = ue.Service
		}
		e := errors.ErrAIServiceUnavailable(service)
		e.Raw = err
		return e
	case stdErrors.Is(err, entities.ErrStorage):
		return errors.ErrStorageFailed("upload", err)
	case interview.IsEngineFailure(err):
		return errors.ErrGenerationFailed(err)
	}
	return errors.ErrInternal(err)
}
