package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/johnquangdev/mock-interview/internal/domain/entities"
	"github.com/johnquangdev/mock-interview/internal/infrastructure/storage"
	"github.com/johnquangdev/mock-interview/internal/usecase/interview"
	"github.com/johnquangdev/mock-interview/pkg/ai"
)

type fakeSessions struct {
	mu      sync.Mutex
	owner   string
	mockID  string
	records []interview.IngestAnalysisInput
}

func (f *fakeSessions) GetSession(_ context.Context, owner, mockID string) (*entities.InterviewSession, error) {
	if mockID != f.mockID {
		return nil, entities.ErrSessionNotFound
	}
	if owner != f.owner {
		return nil, entities.ErrForbidden
	}
	return &entities.InterviewSession{MockID: mockID, CreatedBy: owner}, nil
}

func (f *fakeSessions) IngestAnalysis(_ context.Context, in interview.IngestAnalysisInput) (*entities.AnalysisRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, in)
	return entities.NewAnalysisRecord(in.MockID, in.Kind, in.Question, in.Feedback, in.Rating, in.Owner)
}

type recordingGenerator struct {
	replies []string
	err     error
	reqs    []ai.Request
}

func (g *recordingGenerator) Generate(_ context.Context, req ai.Request) (string, error) {
	g.reqs = append(g.reqs, req)
	if g.err != nil {
		return "", g.err
	}
	if len(g.replies) == 0 {
		return "", ai.ErrEmptyResponse
	}
	r := g.replies[0]
	g.replies = g.replies[1:]
	return r, nil
}

func newService(gen ai.Generator, blobs BlobStore, tr Transcriber) (*AnalysisService, *fakeSessions) {
	sessions := &fakeSessions{owner: "ada@example.com", mockID: "mock-1"}
	svc := NewAnalysisService(sessions, gen, blobs, tr, nil, Options{Rating: interview.Scale{Min: 1, Max: 10}, ParseRetries: 1}, nil)
	return svc, sessions
}

func TestAnalyzeAudio(t *testing.T) {
	gen := &recordingGenerator{replies: []string{"```json\n" + `{"contentAnalysis":"on topic","communicationStyle":"clear","professionalDemeanor":"calm","areasForImprovement":["pace","eye contact"],"rating":12,"overallFeedback":"good"}` + "\n```"}}
	blobs := storage.NewMemoryBlobStore()
	svc, sessions := newService(gen, blobs, nil)

	rec, err := svc.AnalyzeAudio(context.Background(), AudioInput{
		Owner:    "ada@example.com",
		MockID:   "mock-1",
		Question: "Tell me about yourself",
		Clip:     Upload{Filename: "answer.webm", ContentType: "audio/webm", Data: []byte("RIFFaudio")},
	})
	if err != nil {
		t.Fatalf("AnalyzeAudio error = %v", err)
	}
	if rec.Kind != entities.AnalysisKindAudio || rec.Rating != 10 || rec.Question != "Tell me about yourself" {
		t.Fatalf("record = %+v", rec)
	}

	var fb AudioFeedback
	if err := json.Unmarshal(rec.Feedback, &fb); err != nil {
		t.Fatal(err)
	}
	if fb.CommunicationStyle != "clear" || len(fb.AreasForImprovement) != 2 || fb.Rating != 10 {
		t.Fatalf("feedback = %+v", fb)
	}
	if !strings.HasPrefix(fb.Object, "audio/mock-1/") || !strings.HasSuffix(fb.Object, ".webm") {
		t.Fatalf("object = %q", fb.Object)
	}
	if _, err := blobs.Get(context.Background(), fb.Object); err != nil {
		t.Fatalf("clip not stored: %v", err)
	}

	req := gen.reqs[0]
	user := req.Messages[len(req.Messages)-1]
	if len(user.Attachments) != 1 || user.Attachments[0].MIMEType != "audio/webm" {
		t.Fatalf("attachments = %+v", user.Attachments)
	}
	if !strings.Contains(user.Content, "Tell me about yourself") {
		t.Fatalf("question not in prompt: %s", user.Content)
	}
	if len(sessions.records) != 1 {
		t.Fatalf("records = %d", len(sessions.records))
	}
}

func TestAnalyzeAudio_Failures(t *testing.T) {
	clip := Upload{Data: []byte("clip")}
	tests := []struct {
		name   string
		gen    *recordingGenerator
		input  AudioInput
		wantIs error
	}{
		{"missing question", &recordingGenerator{}, AudioInput{Owner: "ada@example.com", MockID: "mock-1", Clip: clip}, entities.ErrInvalidRequest},
		{"empty clip", &recordingGenerator{}, AudioInput{Owner: "ada@example.com", MockID: "mock-1", Question: "Q"}, entities.ErrInvalidRequest},
		{"unknown session", &recordingGenerator{}, AudioInput{Owner: "ada@example.com", MockID: "nope", Question: "Q", Clip: clip}, entities.ErrSessionNotFound},
		{"other owner", &recordingGenerator{}, AudioInput{Owner: "eve@example.com", MockID: "mock-1", Question: "Q", Clip: clip}, entities.ErrForbidden},
		{"provider error", &recordingGenerator{err: ai.ErrAttachmentsUnsupported}, AudioInput{Owner: "ada@example.com", MockID: "mock-1", Question: "Q", Clip: clip}, ai.ErrAttachmentsUnsupported},
		{"unparseable twice", &recordingGenerator{replies: []string{"hmm", "hmm"}}, AudioInput{Owner: "ada@example.com", MockID: "mock-1", Question: "Q", Clip: clip}, entities.ErrParse},
		{"non numeric rating", &recordingGenerator{replies: []string{`{"rating":"great"}`}}, AudioInput{Owner: "ada@example.com", MockID: "mock-1", Question: "Q", Clip: clip}, entities.ErrOutOfRangeValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, sessions := newService(tt.gen, nil, nil)
			_, err := svc.AnalyzeAudio(context.Background(), tt.input)
			if !errors.Is(err, tt.wantIs) {
				t.Fatalf("err = %v, want %v", err, tt.wantIs)
			}
			if len(sessions.records) != 0 {
				t.Fatalf("record stored on failure")
			}
		})
	}
}

func TestAnalyzeBehavior(t *testing.T) {
	gen := &recordingGenerator{replies: []string{`{"postureAnalysis":"upright","posture":"good","facialExpressions":"smiling","fexpressions":"positive","profDemeanor":"composed","bodyLanguage":"open","recommendations":"relax shoulders","confidenceScore":"7","overallImpression":"confident"}`}}
	blobs := storage.NewMemoryBlobStore()
	svc, _ := newService(gen, blobs, nil)

	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0x10, 'J', 'F', 'I', 'F'}
	rec, err := svc.AnalyzeBehavior(context.Background(), BehaviorInput{
		Owner:     "ada@example.com",
		MockID:    "mock-1",
		Snapshots: []Upload{{Data: jpeg}, {Filename: "b.png", ContentType: "image/png", Data: []byte("png")}},
	})
	if err != nil {
		t.Fatalf("AnalyzeBehavior error = %v", err)
	}
	if rec.Kind != entities.AnalysisKindBehavior || rec.Rating != 7 || rec.Question != "" {
		t.Fatalf("record = %+v", rec)
	}

	var fb BehaviorFeedback
	if err := json.Unmarshal(rec.Feedback, &fb); err != nil {
		t.Fatal(err)
	}
	if fb.Posture != "good" || len(fb.Recommendations) != 1 || len(fb.Objects) != 2 {
		t.Fatalf("feedback = %+v", fb)
	}

	att := gen.reqs[0].Messages[len(gen.reqs[0].Messages)-1].Attachments
	if len(att) != 2 || att[0].MIMEType != "image/jpeg" || att[1].MIMEType != "image/png" {
		t.Fatalf("attachments = %+v", att)
	}
}

func TestAnalyzeBehavior_Validation(t *testing.T) {
	svc, _ := newService(&recordingGenerator{}, nil, nil)
	many := make([]Upload, maxSnapshots+1)
	for i := range many {
		many[i] = Upload{Data: []byte("x")}
	}
	for _, snaps := range [][]Upload{nil, many, {{}}} {
		_, err := svc.AnalyzeBehavior(context.Background(), BehaviorInput{Owner: "ada@example.com", MockID: "mock-1", Snapshots: snaps})
		if !errors.Is(err, entities.ErrInvalidRequest) {
			t.Fatalf("err = %v, want ErrInvalidRequest", err)
		}
	}
}

type fakeTranscriber struct {
	got []byte
	err error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, r io.Reader, language string) (*ai.Transcription, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.got, _ = io.ReadAll(r)
	return &ai.Transcription{ID: "t1", Text: "hello there", Language: language}, nil
}

func TestTranscribe(t *testing.T) {
	tr := &fakeTranscriber{}
	svc, _ := newService(&recordingGenerator{}, nil, tr)
	res, err := svc.Transcribe(context.Background(), Upload{Data: []byte("audio")}, "en")
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "hello there" || string(tr.got) != "audio" {
		t.Fatalf("result = %+v", res)
	}

	svc, _ = newService(&recordingGenerator{}, nil, &fakeTranscriber{err: errors.New("quota")})
	if _, err := svc.Transcribe(context.Background(), Upload{Data: []byte("audio")}, ""); !errors.Is(err, entities.ErrAnalysisFailed) {
		t.Fatalf("err = %v, want ErrAnalysisFailed", err)
	}

	svc, _ = newService(&recordingGenerator{}, nil, nil)
	_, err = svc.Transcribe(context.Background(), Upload{Data: []byte("audio")}, "")
	var unavailable *entities.UnavailableError
	if !errors.As(err, &unavailable) || unavailable.Service != "transcription" {
		t.Fatalf("err = %v, want UnavailableError for transcription", err)
	}
}
