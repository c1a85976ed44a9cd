package interview

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/johnquangdev/mock-interview/internal/adapter/repository/memory"
	"github.com/johnquangdev/mock-interview/internal/domain/entities"
	"github.com/johnquangdev/mock-interview/internal/infrastructure/cache"
	"github.com/johnquangdev/mock-interview/internal/infrastructure/storage"
	"github.com/johnquangdev/mock-interview/pkg/ai"
)

const owner = "ada@example.com"

type fixture struct {
	svc   *InterviewService
	mem   *memory.Store
	text  *scriptedGenerator
	multi *scriptedGenerator
	blobs *storage.MemoryBlobStore
}

type recordedThreads struct {
	committed map[string][]ai.Message
	forgotten []string
}

func (r *recordedThreads) Commit(_ context.Context, id string, exchange ...ai.Message) error {
	if r.committed == nil {
		r.committed = map[string][]ai.Message{}
	}
	r.committed[id] = append(r.committed[id], exchange...)
	return nil
}

func (r *recordedThreads) Forget(_ context.Context, id string) error {
	r.forgotten = append(r.forgotten, id)
	delete(r.committed, id)
	return nil
}

func newFixture(threads Threads, replies ...reply) *fixture {
	mem := memory.NewStore()
	text := script(replies...)
	multi := script()
	blobs := storage.NewMemoryBlobStore()
	svc := NewInterviewService(Dependencies{
		Store:     NewSessionStore(mem.Sessions(), nil, nil),
		Answers:   mem.Answers(),
		Analysis:  mem.Analysis(),
		Evaluator: NewEvaluator(text, nil, defaultEvaluatorOptions(), nil),
		Generator: NewQuestionGenerator(text, multi, nil, GeneratorOptions{ParseRetries: 1}, nil),
		Blobs:     blobs,
		Threads:   threads,
		Rating:    Scale{Min: 1, Max: 10},
	}, nil)
	return &fixture{svc: svc, mem: mem, text: text, multi: multi, blobs: blobs}
}

func (f *fixture) create(t *testing.T) *entities.InterviewSession {
	t.Helper()
	session, err := f.svc.CreateSession(context.Background(), CreateSessionInput{
		Owner:      owner,
		Position:   "Backend Engineer",
		JobType:    entities.JobTypeTechnical,
		Experience: entities.ExperienceMid,
	})
	if err != nil {
		t.Fatalf("CreateSession error = %v", err)
	}
	return session
}

const seedReply = `[{"question":"What is a goroutine?","answer":"A lightweight thread."}]`

func TestInterviewService_TwoTurnScenario(t *testing.T) {
	f := newFixture(nil,
		reply{text: seedReply},
		reply{text: `{"rating": 7, "feedback": "decent depth", "tags": {"communication": 70}}`},
		reply{text: `{"question": "How do channels work?", "answer": "They pass values."}`},
		reply{text: `{"rating": 5, "feedback": "ok", "tags": {"communication": 50}}`},
		reply{text: "```json\n{\"question\": \"What is select?\", \"answer\": \"Multiplexing.\"}\n```"},
	)
	ctx := context.Background()
	session := f.create(t)
	if session.State != entities.SessionStateAwaitingAnswer || len(session.QuestionList()) != 1 {
		t.Fatalf("created session = %+v", session)
	}

	r1, err := f.svc.SubmitAnswer(ctx, SubmitAnswerInput{Owner: owner, MockID: session.MockID, Answer: "Runtime-managed threads"})
	if err != nil {
		t.Fatalf("turn 1 error = %v", err)
	}
	if r1.Evaluation.Rating != 7 || r1.Answer.ModelAnswer != "A lightweight thread." || r1.Next.Question != "How do channels work?" {
		t.Fatalf("turn 1 = %+v", r1)
	}
	p, _ := f.svc.Profile(ctx, owner, session.MockID)
	if !reflect.DeepEqual(p, entities.SkillProfile{"communication": 70}) {
		t.Fatalf("profile after turn 1 = %v", p)
	}

	if _, err := f.svc.SubmitAnswer(ctx, SubmitAnswerInput{Owner: owner, MockID: session.MockID, Answer: "They block"}); err != nil {
		t.Fatalf("turn 2 error = %v", err)
	}
	p, _ = f.svc.Profile(ctx, owner, session.MockID)
	if !reflect.DeepEqual(p, entities.SkillProfile{"communication": 60}) {
		t.Fatalf("profile after turn 2 = %v", p)
	}

	history, _ := f.svc.History(ctx, owner, session.MockID)
	want := []string{"What is a goroutine?", "How do channels work?", "What is select?"}
	if len(history) != len(want) {
		t.Fatalf("history = %+v", history)
	}
	for i, q := range want {
		if history[i].Question != q {
			t.Fatalf("history[%d] = %q, want %q", i, history[i].Question, q)
		}
	}

	answers, _ := f.mem.Answers().ListByMockID(ctx, session.MockID)
	if len(answers) != 2 || answers[1].Question != "How do channels work?" {
		t.Fatalf("answers = %+v", answers)
	}
}

func TestInterviewService_FailedEvaluationLeavesStoreUnchanged(t *testing.T) {
	f := newFixture(nil, reply{text: seedReply}, reply{text: "I refuse to answer in JSON"})
	ctx := context.Background()
	session := f.create(t)

	_, err := f.svc.SubmitAnswer(ctx, SubmitAnswerInput{Owner: owner, MockID: session.MockID, Answer: "x"})
	if !errors.Is(err, entities.ErrEvaluationFailed) || !IsEngineFailure(err) {
		t.Fatalf("err = %v, want ErrEvaluationFailed", err)
	}

	stored, _ := f.svc.GetSession(ctx, owner, session.MockID)
	if stored.State != entities.SessionStateAwaitingAnswer || stored.Version != session.Version {
		t.Fatalf("session changed: state %s version %d", stored.State, stored.Version)
	}
	answers, _ := f.mem.Answers().ListByMockID(ctx, session.MockID)
	if len(answers) != 0 || len(stored.Profile()) != 0 {
		t.Fatalf("partial turn written")
	}
}

func TestInterviewService_FailedGenerationThenRetry(t *testing.T) {
	f := newFixture(nil,
		reply{text: seedReply},
		reply{text: `{"rating": 8, "feedback": "good", "tags": {"go": 80}}`},
		reply{text: "no json here"},
		reply{text: "still none"},
	)
	ctx := context.Background()
	session := f.create(t)

	_, err := f.svc.SubmitAnswer(ctx, SubmitAnswerInput{Owner: owner, MockID: session.MockID, Answer: "x"})
	if !errors.Is(err, entities.ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}

	stored, _ := f.svc.GetSession(ctx, owner, session.MockID)
	if stored.State != entities.SessionStateGeneratingNext || stored.Pending() == nil {
		t.Fatalf("state = %s, want generating_next with pending turn", stored.State)
	}
	history, _ := f.svc.History(ctx, owner, session.MockID)
	if len(history) != 1 || len(stored.Profile()) != 0 {
		t.Fatalf("failed generation changed history %v or profile %v", history, stored.Profile())
	}

	if _, err := f.svc.SubmitAnswer(ctx, SubmitAnswerInput{Owner: owner, MockID: session.MockID, Answer: "again"}); !errors.Is(err, entities.ErrInvalidState) {
		t.Fatalf("answer during generating_next err = %v, want ErrInvalidState", err)
	}

	f.text.replies = append(f.text.replies, reply{text: `{"question":"Next?","answer":"Yes."}`})
	res, err := f.svc.RetryGeneration(ctx, owner, session.MockID)
	if err != nil {
		t.Fatalf("RetryGeneration error = %v", err)
	}
	if res.Next.Question != "Next?" || res.Evaluation.Rating != 8 {
		t.Fatalf("retry result = %+v", res)
	}
	p, _ := f.svc.Profile(ctx, owner, session.MockID)
	if !reflect.DeepEqual(p, entities.SkillProfile{"go": 80}) {
		t.Fatalf("profile = %v", p)
	}

	if _, err := f.svc.RetryGeneration(ctx, owner, session.MockID); !errors.Is(err, entities.ErrInvalidState) {
		t.Fatalf("second retry err = %v, want ErrInvalidState", err)
	}
}

func newThreadedService(text ai.Generator, store ai.ThreadStore) *InterviewService {
	threaded := ai.NewThreadedGenerator(text, store, time.Hour)
	mem := memory.NewStore()
	return NewInterviewService(Dependencies{
		Store:     NewSessionStore(mem.Sessions(), nil, nil),
		Answers:   mem.Answers(),
		Analysis:  mem.Analysis(),
		Evaluator: NewEvaluator(threaded, nil, defaultEvaluatorOptions(), nil),
		Generator: NewQuestionGenerator(threaded, nil, nil, GeneratorOptions{ParseRetries: 1}, nil),
		Threads:   threaded,
	}, nil)
}

func TestInterviewService_ThreadKeepsOnlyAppliedTurns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := cache.NewMemoryThreadStore(ctx)
	text := script(
		reply{text: seedReply},
		reply{text: `{"rating": 7, "feedback": "ok"}`},
		reply{text: "no json here"},
		reply{text: "still no json"},
		reply{text: `{"question":"Q2","answer":"A2"}`},
	)
	svc := newThreadedService(text, store)
	f := &fixture{svc: svc, text: text}
	session := f.create(t)

	_, err := svc.SubmitAnswer(ctx, SubmitAnswerInput{Owner: owner, MockID: session.MockID, Answer: "goroutines are cheap"})
	if !errors.Is(err, entities.ErrGenerationFailed) {
		t.Fatalf("SubmitAnswer err = %v, want ErrGenerationFailed", err)
	}
	if msgs, _ := store.Load(ctx, session.MockID); len(msgs) != 0 {
		t.Fatalf("failed generation recorded in thread: %+v", msgs)
	}
	if first, second := text.requests[2], text.requests[3]; len(first.Messages) != len(second.Messages) {
		t.Fatalf("parse retry replayed rejected output: %d then %d messages", len(first.Messages), len(second.Messages))
	}

	if _, err := svc.RetryGeneration(ctx, owner, session.MockID); err != nil {
		t.Fatalf("RetryGeneration error = %v", err)
	}
	msgs, _ := store.Load(ctx, session.MockID)
	if len(msgs) != 2 || msgs[0].Role != ai.RoleUser || msgs[1].Content != `{"question":"Q2","answer":"A2"}` {
		t.Fatalf("thread = %+v", msgs)
	}
}

func TestInterviewService_AbandonedTurnNotRecorded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := cache.NewMemoryThreadStore(ctx)
	text := script(
		reply{text: seedReply},
		reply{text: `{"rating": 6, "feedback": "ok"}`},
		reply{text: `{"question":"Q2","answer":"A2"}`},
	)
	turnCtx, abandon := context.WithCancel(ctx)
	defer abandon()
	gen := ai.GeneratorFunc(func(ctx context.Context, req ai.Request) (string, error) {
		out, err := text.Generate(ctx, req)
		if req.ThreadID != "" {
			abandon()
		}
		return out, err
	})
	svc := newThreadedService(gen, store)
	f := &fixture{svc: svc, text: text}
	session := f.create(t)

	_, err := svc.SubmitAnswer(turnCtx, SubmitAnswerInput{Owner: owner, MockID: session.MockID, Answer: "a"})
	if !errors.Is(err, entities.ErrTurnAbandoned) {
		t.Fatalf("SubmitAnswer err = %v, want ErrTurnAbandoned", err)
	}
	if msgs, _ := store.Load(ctx, session.MockID); len(msgs) != 0 {
		t.Fatalf("unrecorded question kept in thread: %+v", msgs)
	}
	history, err := svc.History(ctx, owner, session.MockID)
	if err != nil || len(history) != 1 {
		t.Fatalf("history = %v, %v", history, err)
	}
}

func TestInterviewService_LockWaitAbandoned(t *testing.T) {
	f := newFixture(nil, reply{text: seedReply})
	session := f.create(t)

	unlock, err := f.svc.store.Lock(context.Background(), session.MockID)
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	ops := map[string]func(ctx context.Context) error{
		"complete": func(ctx context.Context) error {
			_, err := f.svc.Complete(ctx, owner, session.MockID)
			return err
		},
		"feedback": func(ctx context.Context) error {
			_, err := f.svc.Feedback(ctx, owner, session.MockID)
			return err
		},
		"retry": func(ctx context.Context) error {
			_, err := f.svc.RetryGeneration(ctx, owner, session.MockID)
			return err
		},
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			if err := op(ctx); !errors.Is(err, entities.ErrTurnAbandoned) {
				t.Fatalf("err = %v, want ErrTurnAbandoned", err)
			}
		})
	}

	stored, _ := f.svc.GetSession(context.Background(), owner, session.MockID)
	if stored.State != entities.SessionStateAwaitingAnswer {
		t.Fatalf("state = %s, want awaiting_answer", stored.State)
	}
}

func TestInterviewService_OwnershipAndNotFound(t *testing.T) {
	f := newFixture(nil, reply{text: seedReply})
	ctx := context.Background()
	session := f.create(t)

	if _, err := f.svc.GetSession(ctx, "mallory@example.com", session.MockID); !errors.Is(err, entities.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	_, err := f.svc.SubmitAnswer(ctx, SubmitAnswerInput{Owner: owner, MockID: "missing", Answer: "x"})
	if !errors.Is(err, entities.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
	if _, err := f.mem.Sessions().FindByMockID(ctx, "missing"); !errors.Is(err, entities.ErrSessionNotFound) {
		t.Fatal("session was created implicitly")
	}
}

func TestInterviewService_CreateSessionValidation(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	tests := []CreateSessionInput{
		{Owner: owner, Position: "x", JobType: "sales", Experience: entities.ExperienceMid},
		{Owner: owner, Position: "x", JobType: entities.JobTypeTechnical, Experience: "principal"},
		{Owner: owner, JobType: entities.JobTypeTechnical, Experience: entities.ExperienceMid},
		{Owner: owner, JobType: entities.JobTypeResume, Experience: entities.ExperienceMid},
	}
	for _, in := range tests {
		if _, err := f.svc.CreateSession(ctx, in); !errors.Is(err, entities.ErrInvalidRequest) {
			t.Errorf("CreateSession(%+v) err = %v, want ErrInvalidRequest", in, err)
		}
	}
	if f.text.calls() != 0 {
		t.Fatalf("generation called for invalid input")
	}
}

func TestInterviewService_CreateResumeSession(t *testing.T) {
	f := newFixture(nil)
	f.multi.replies = []reply{{text: seedReply}}
	ctx := context.Background()

	session, err := f.svc.CreateSession(ctx, CreateSessionInput{
		Owner:      owner,
		JobType:    entities.JobTypeResume,
		Experience: entities.ExperienceSenior,
		Resume:     &ResumeUpload{Filename: "cv.PDF", Data: []byte("%PDF-1.7")},
	})
	if err != nil {
		t.Fatalf("CreateSession error = %v", err)
	}
	if session.JobPosition != "Resume Interview" {
		t.Fatalf("position = %q", session.JobPosition)
	}
	if session.ResumeObject != "resumes/"+session.MockID+".pdf" {
		t.Fatalf("resume object = %q", session.ResumeObject)
	}
	if data, err := f.blobs.Get(ctx, session.ResumeObject); err != nil || string(data) != "%PDF-1.7" {
		t.Fatalf("stored resume = %q, %v", data, err)
	}
}

type failingBlobs struct{}

func (failingBlobs) Put(context.Context, string, io.Reader, int64, string) error {
	return errors.New("bucket missing")
}

func TestInterviewService_ResumeStorageFailure(t *testing.T) {
	f := newFixture(nil)
	f.multi.replies = []reply{{text: seedReply}}
	f.svc.blobs = failingBlobs{}

	_, err := f.svc.CreateSession(context.Background(), CreateSessionInput{
		Owner:      owner,
		JobType:    entities.JobTypeResume,
		Experience: entities.ExperienceSenior,
		Resume:     &ResumeUpload{Filename: "cv.pdf", Data: []byte("%PDF-1.7")},
	})
	if !errors.Is(err, entities.ErrStorage) {
		t.Fatalf("err = %v, want ErrStorage", err)
	}
	if list, _ := f.svc.ListSessions(context.Background(), owner); len(list.Sessions) != 0 {
		t.Fatalf("session stored despite failed upload: %d", len(list.Sessions))
	}
}

func TestInterviewService_CompleteAndFeedback(t *testing.T) {
	threads := &recordedThreads{}
	f := newFixture(threads,
		reply{text: seedReply},
		reply{text: `{"rating": 7, "feedback": "a"}`},
		reply{text: `{"question":"Q2","answer":"A2"}`},
		reply{text: `{"rating": 8, "feedback": "b"}`},
		reply{text: `{"question":"Q3","answer":"A3"}`},
	)
	ctx := context.Background()
	session := f.create(t)
	for _, a := range []string{"one", "two"} {
		if _, err := f.svc.SubmitAnswer(ctx, SubmitAnswerInput{Owner: owner, MockID: session.MockID, Answer: a}); err != nil {
			t.Fatal(err)
		}
	}

	fb, err := f.svc.Feedback(ctx, owner, session.MockID)
	if err != nil {
		t.Fatal(err)
	}
	if fb.AverageRating != 8 || len(fb.Answers) != 2 {
		t.Fatalf("feedback = %+v", fb)
	}

	done, err := f.svc.Complete(ctx, owner, session.MockID)
	if err != nil {
		t.Fatal(err)
	}
	if done.State != entities.SessionStateComplete || done.TotalRating == nil || *done.TotalRating != 8 {
		t.Fatalf("completed session = %+v", done)
	}
	if len(threads.forgotten) != 1 || threads.forgotten[0] != session.MockID {
		t.Fatalf("thread not dropped: %v", threads.forgotten)
	}

	_, err = f.svc.SubmitAnswer(ctx, SubmitAnswerInput{Owner: owner, MockID: session.MockID, Answer: "late"})
	if !errors.Is(err, entities.ErrInvalidState) {
		t.Fatalf("answer after complete err = %v", err)
	}
	if _, err := f.svc.Complete(ctx, owner, session.MockID); !errors.Is(err, entities.ErrInvalidState) {
		t.Fatalf("second complete err = %v", err)
	}
}

func TestInterviewService_ListSessions(t *testing.T) {
	f := newFixture(nil, reply{text: seedReply}, reply{text: seedReply})
	ctx := context.Background()

	empty, err := f.svc.ListSessions(ctx, owner)
	if err != nil || empty.Stats.AverageScore != "0.0" || empty.Stats.CompletedInterviews != 0 {
		t.Fatalf("empty list = %+v, %v", empty, err)
	}

	f.create(t)
	f.create(t)
	list, err := f.svc.ListSessions(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if list.Stats.CompletedInterviews != 2 || len(list.Sessions) != 2 {
		t.Fatalf("list = %+v", list.Stats)
	}
}

func TestInterviewService_AnalysisAndReport(t *testing.T) {
	f := newFixture(nil,
		reply{text: seedReply},
		reply{text: `{"rating": 6, "feedback": "a"}`},
		reply{text: `{"question":"Q2","answer":"A2"}`},
	)
	ctx := context.Background()
	session := f.create(t)

	empty, err := f.svc.Report(ctx, owner, session.MockID)
	if err != nil || *empty != (Report{}) {
		t.Fatalf("empty report = %+v, %v", empty, err)
	}

	if _, err := f.svc.SubmitAnswer(ctx, SubmitAnswerInput{Owner: owner, MockID: session.MockID, Answer: "x"}); err != nil {
		t.Fatal(err)
	}
	inputs := []IngestAnalysisInput{
		{Owner: owner, MockID: session.MockID, Kind: entities.AnalysisKindAudio, Question: "Q1", Rating: 8, Feedback: json.RawMessage(`{"rating":8}`)},
		{Owner: owner, MockID: session.MockID, Kind: entities.AnalysisKindAudio, Question: "Q2", Rating: 5},
		{Owner: owner, MockID: session.MockID, Kind: entities.AnalysisKindBehavior, Rating: 9},
		{Owner: owner, MockID: session.MockID, Kind: entities.AnalysisKindContent, Rating: 10},
	}
	for _, in := range inputs {
		if _, err := f.svc.IngestAnalysis(ctx, in); err != nil {
			t.Fatalf("IngestAnalysis error = %v", err)
		}
	}

	rep, err := f.svc.Report(ctx, owner, session.MockID)
	if err != nil {
		t.Fatal(err)
	}
	want := Report{Knowledge: 8, Audio: 6.5, Behavior: 9, Counts: ReportCounts{Knowledge: 2, Audio: 2, Behavior: 1}}
	if *rep != want {
		t.Fatalf("report = %+v, want %+v", *rep, want)
	}

	ownerRep, err := f.svc.OwnerReport(ctx, owner)
	if err != nil || *ownerRep != want {
		t.Fatalf("owner report = %+v, %v", ownerRep, err)
	}

	records, _ := f.svc.ListAnalysis(ctx, owner, session.MockID)
	if len(records) != 4 {
		t.Fatalf("records = %d, want 4", len(records))
	}
}

func TestInterviewService_IngestValidation(t *testing.T) {
	f := newFixture(nil, reply{text: seedReply})
	session := f.create(t)
	ctx := context.Background()

	bad := []IngestAnalysisInput{
		{Owner: owner, MockID: session.MockID, Kind: "gesture", Rating: 5},
		{Owner: owner, MockID: session.MockID, Kind: entities.AnalysisKindAudio, Rating: 0},
		{Owner: owner, MockID: session.MockID, Kind: entities.AnalysisKindAudio, Rating: 11},
	}
	for _, in := range bad {
		if _, err := f.svc.IngestAnalysis(ctx, in); !errors.Is(err, entities.ErrInvalidAnalysis) {
			t.Errorf("IngestAnalysis(%+v) err = %v, want ErrInvalidAnalysis", in, err)
		}
	}
	_, err := f.svc.IngestAnalysis(ctx, IngestAnalysisInput{Owner: owner, MockID: "missing", Kind: entities.AnalysisKindAudio, Rating: 5})
	if !errors.Is(err, entities.ErrSessionNotFound) {
		t.Fatalf("err = %v, want ErrSessionNotFound", err)
	}
}
