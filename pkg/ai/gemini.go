package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/johnquangdev/mock-interview/pkg/logger"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiClient wraps the Google GenAI client. It accepts inline attachments.
type GeminiClient struct {
	client    *genai.Client
	modelName string
	logger    *zap.Logger
}

// NewGeminiClient creates a client configured for the Gemini API backend
func NewGeminiClient(ctx context.Context, apiKey, model string, l *zap.Logger) (*GeminiClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultGeminiModel
	}

	return &GeminiClient{client: client, modelName: model, logger: logger.WithCommonFields(l, "gemini", model)}, nil
}

// Model returns the configured model name
func (g *GeminiClient) Model() string {
	if g == nil {
		return ""
	}
	return g.modelName
}

// Generate sends the conversation to Gemini and joins every textual part of the response
func (g *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("gemini client is not initialized")
	}

	var (
		contents []*genai.Content
		system   []string
	)
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		contents = append(contents, toGeminiContent(m))
	}
	if len(contents) == 0 {
		return "", errors.New("request has no user content")
	}

	var cfg *genai.GenerateContentConfig
	if len(system) > 0 {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser),
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", ErrEmptyResponse
	}

	g.logger.Debug("gemini completion", zap.String("response", logger.TruncateForLog(output, 200)))
	return output, nil
}

func toGeminiContent(m Message) *genai.Content {
	role := genai.Role(genai.RoleUser)
	if m.Role == RoleAssistant {
		role = genai.RoleModel
	}

	parts := make([]*genai.Part, 0, len(m.Attachments)+1)
	for _, a := range m.Attachments {
		parts = append(parts, genai.NewPartFromBytes(a.Data, a.MIMEType))
	}
	if m.Content != "" {
		parts = append(parts, genai.NewPartFromText(m.Content))
	}
	return genai.NewContentFromParts(parts, role)
}
