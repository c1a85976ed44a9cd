// Package ai holds the text generation providers used by the interview engine.
package ai

import (
	"context"
	"errors"
	"fmt"
)

// Role is the author of a conversation message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Attachment is binary content sent alongside a message, such as a resume PDF or an audio clip
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Message is one turn in a generation conversation
type Message struct {
	Role        Role
	Content     string
	Attachments []Attachment
}

// Request is a single generation call. ThreadID scopes conversation history; empty means stateless.
type Request struct {
	ThreadID string
	Messages []Message
}

// Generator produces free-form text for a request
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

var (
	ErrEmptyResponse          = errors.New("provider returned empty response")
	ErrAttachmentsUnsupported = errors.New("provider does not accept attachments")
)

// StatusError is a non-2xx provider response
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Temporary reports whether retrying the request may succeed
func (e *StatusError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
