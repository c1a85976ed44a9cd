package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"go.uber.org/zap"

	"github.com/johnquangdev/mock-interview/pkg/logger"
)

// Transcription is the text recognised in an uploaded recording
type Transcription struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// Transcriber turns recorded answers into text using AssemblyAI
type Transcriber struct {
	transcribe func(ctx context.Context, r io.Reader, params *aai.TranscriptOptionalParams) (aai.Transcript, error)
	logger     *zap.Logger
}

// NewTranscriber creates a Transcriber backed by the official SDK client
func NewTranscriber(apiKey string, l *zap.Logger) *Transcriber {
	client := aai.NewClient(apiKey)
	return &Transcriber{
		transcribe: client.Transcripts.TranscribeFromReader,
		logger:     logger.WithCommonFields(l, "assemblyai", ""),
	}
}

// Transcribe uploads the recording and waits for the transcript. language may be empty to auto-detect.
func (t *Transcriber) Transcribe(ctx context.Context, r io.Reader, language string) (*Transcription, error) {
	params := &aai.TranscriptOptionalParams{}
	if language = strings.TrimSpace(language); language != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(language)
	} else {
		params.LanguageDetection = aai.Bool(true)
	}

	transcript, err := t.transcribe(ctx, r, params)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	if transcript.Status == aai.TranscriptStatusError {
		msg := "unknown error"
		if transcript.Error != nil {
			msg = *transcript.Error
		}
		return nil, errors.New("transcription failed: " + msg)
	}

	out := &Transcription{Language: string(transcript.LanguageCode)}
	if transcript.ID != nil {
		out.ID = *transcript.ID
	}
	if transcript.Text != nil {
		out.Text = strings.TrimSpace(*transcript.Text)
	}

	t.logger.Info("✅ Transcription completed",
		zap.String("transcript_id", out.ID),
		zap.Int("chars", len(out.Text)),
	)
	return out, nil
}
