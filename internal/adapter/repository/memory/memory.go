// Package memory provides process-local implementations of the repositories.
// Data is lost on restart.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"gorm.io/datatypes"

	"github.com/johnquangdev/mock-interview/internal/domain/entities"
	"github.com/johnquangdev/mock-interview/internal/domain/repositories"
)

// Store holds sessions, answers and analysis records behind one lock
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entities.InterviewSession
	answers  []*entities.AnswerRecord
	analysis []*entities.AnalysisRecord
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{sessions: make(map[string]*entities.InterviewSession)}
}

// Sessions returns the session repository view
func (s *Store) Sessions() repositories.SessionRepository { return (*sessionRepo)(s) }

// Answers returns the answer repository view
func (s *Store) Answers() repositories.AnswerRepository { return (*answerRepo)(s) }

// Analysis returns the analysis repository view
func (s *Store) Analysis() repositories.AnalysisRepository { return (*analysisRepo)(s) }

type sessionRepo Store

func (r *sessionRepo) Create(_ context.Context, session *entities.InterviewSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.MockID]; ok {
		return entities.ErrConcurrentUpdate
	}
	r.sessions[session.MockID] = cloneSession(session)
	return nil
}

func (r *sessionRepo) FindByMockID(_ context.Context, mockID string) (*entities.InterviewSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[mockID]
	if !ok {
		return nil, entities.ErrSessionNotFound
	}
	return cloneSession(s), nil
}

func (r *sessionRepo) ListByOwner(_ context.Context, owner string) ([]*entities.InterviewSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entities.InterviewSession
	for _, s := range r.sessions {
		if s.CreatedBy == owner {
			out = append(out, cloneSession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *sessionRepo) SaveState(_ context.Context, session *entities.InterviewSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, err := r.checkVersion(session)
	if err != nil {
		return err
	}
	stored.State = session.State
	stored.PendingTurn = clonePending(session.PendingTurn)
	stored.TotalRating = session.TotalRating
	stored.Version++
	session.Version = stored.Version
	return nil
}

func (r *sessionRepo) ApplyTurn(_ context.Context, session *entities.InterviewSession, update repositories.TurnUpdate, state entities.SessionState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, err := r.checkVersion(session)
	if err != nil {
		return err
	}

	questions := append(append([]entities.QuestionAnswerPair(nil), stored.QuestionList()...), update.Question)
	stored.Questions = datatypes.NewJSONType(questions)
	stored.SkillProfile = datatypes.NewJSONType(update.Profile.Clone())
	if update.ClearPending {
		stored.PendingTurn = datatypes.NewJSONType[*entities.PendingTurn](nil)
	}
	stored.State = state
	stored.Version++
	if update.Answer != nil {
		a := *update.Answer
		r.answers = append(r.answers, &a)
	}

	session.Questions = datatypes.NewJSONType(append([]entities.QuestionAnswerPair(nil), questions...))
	session.SkillProfile = datatypes.NewJSONType(update.Profile.Clone())
	session.PendingTurn = clonePending(stored.PendingTurn)
	session.State = state
	session.Version = stored.Version
	return nil
}

func (r *sessionRepo) checkVersion(session *entities.InterviewSession) (*entities.InterviewSession, error) {
	stored, ok := r.sessions[session.MockID]
	if !ok {
		return nil, entities.ErrSessionNotFound
	}
	if stored.Version != session.Version {
		return nil, entities.ErrConcurrentUpdate
	}
	return stored, nil
}

type answerRepo Store

func (r *answerRepo) ListByMockID(_ context.Context, mockID string) ([]*entities.AnswerRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entities.AnswerRecord
	for _, a := range r.answers {
		if a.MockID == mockID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *answerRepo) ListByOwner(_ context.Context, owner string) ([]*entities.AnswerRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entities.AnswerRecord
	for _, a := range r.answers {
		if a.Owner == owner {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

type analysisRepo Store

func (r *analysisRepo) Create(_ context.Context, record *entities.AnalysisRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *record
	r.analysis = append(r.analysis, &cp)
	return nil
}

func (r *analysisRepo) ListByMockID(_ context.Context, mockID string) ([]*entities.AnalysisRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entities.AnalysisRecord
	for _, a := range r.analysis {
		if a.MockID == mockID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *analysisRepo) ListByOwner(_ context.Context, owner string) ([]*entities.AnalysisRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entities.AnalysisRecord
	for _, a := range r.analysis {
		if a.Owner == owner {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func cloneSession(s *entities.InterviewSession) *entities.InterviewSession {
	cp := *s
	cp.Questions = datatypes.NewJSONType(append([]entities.QuestionAnswerPair(nil), s.QuestionList()...))
	cp.SkillProfile = datatypes.NewJSONType(s.Profile())
	cp.PendingTurn = clonePending(s.PendingTurn)
	if s.TotalRating != nil {
		v := *s.TotalRating
		cp.TotalRating = &v
	}
	return &cp
}

func clonePending(p datatypes.JSONType[*entities.PendingTurn]) datatypes.JSONType[*entities.PendingTurn] {
	pt := p.Data()
	if pt == nil {
		return datatypes.NewJSONType[*entities.PendingTurn](nil)
	}
	// round trip through JSON so callers never share the tag map
	b, _ := json.Marshal(pt)
	var cp entities.PendingTurn
	_ = json.Unmarshal(b, &cp)
	return datatypes.NewJSONType(&cp)
}
