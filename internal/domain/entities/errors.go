package entities

import (
	"errors"
	"fmt"
)

// Interview engine errors
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidState     = errors.New("session state does not allow this operation")
	ErrConcurrentUpdate = errors.New("session was modified concurrently")
	ErrTurnAbandoned    = errors.New("turn abandoned by caller")
	ErrParse            = errors.New("generation output could not be parsed")
	ErrEvaluationFailed = errors.New("answer evaluation failed")
	ErrGenerationFailed = errors.New("question generation failed")
	ErrOutOfRangeValue  = errors.New("value outside documented bounds")
	ErrInvalidAnalysis  = errors.New("invalid analysis record")
	ErrAnalysisFailed   = errors.New("analysis failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrStorage          = errors.New("blob storage failed")
	ErrUnavailable      = errors.New("service not configured")
)

// UnavailableError names a collaborator this deployment runs without
type UnavailableError struct {
	Service string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnavailable.Error(), e.Service)
}

// Is lets errors.Is(err, ErrUnavailable) match any *UnavailableError
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// ParseError describes why a generation response could not be coerced into the expected shape
type ParseError struct {
	Reason  string
	Snippet string
}

func (e *ParseError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("%s: %s", ErrParse.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s (near %q)", ErrParse.Error(), e.Reason, e.Snippet)
}

// Is lets errors.Is(err, ErrParse) match any *ParseError
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}
