// Package session holds per-user conversation state in memory. Each Session
// is guarded by its own mutex, which the caller holds for a whole turn, so
// turns for one user never interleave while different users proceed in
// parallel.
package session

import (
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/pavelanni/lumira/internal/model"
	"github.com/pavelanni/lumira/internal/solver"
)

// Session is one user's isolated state. Accessor methods assume the caller
// holds the lock (see Lock); they do not lock themselves.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu      sync.Mutex
	history []model.Message
	topic   string
	test    model.AnswerKey
	results []model.Result

	// Solver is the problem-solver sub-state, driven by solver.Machine.
	Solver solver.State
}

// Lock acquires exclusive access to the session for one turn.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Topic returns the last established topic, or "" when none is set.
func (s *Session) Topic() string { return s.topic }

// SetTopic replaces the last established topic.
func (s *Session) SetTopic(topic string) { s.topic = topic }

// History returns a copy of the tutor dialogue, oldest first.
func (s *Session) History() []model.Message {
	out := make([]model.Message, len(s.history))
	copy(out, s.history)
	return out
}

// AppendTutorTurn records a completed tutor exchange.
func (s *Session) AppendTutorTurn(utterance, reply string) {
	s.history = append(s.history,
		model.Message{Role: model.RoleUser, Content: utterance},
		model.Message{Role: model.RoleAssistant, Content: reply},
	)
}

// IssueExam stores the answer key of a newly issued exam, replacing any
// ungraded one. An empty key clears the outstanding exam.
func (s *Session) IssueExam(key model.AnswerKey) {
	if len(key) == 0 {
		s.test = nil
		return
	}
	cp := make(model.AnswerKey, len(key))
	for n, l := range key {
		cp[n] = l
	}
	s.test = cp
}

// HasExam reports whether an exam is waiting to be graded.
func (s *Session) HasExam() bool { return len(s.test) > 0 }

// TakeExam returns the outstanding answer key and clears it.
func (s *Session) TakeExam() (model.AnswerKey, bool) {
	key := s.test
	s.test = nil
	return key, len(key) > 0
}

// RecordResult appends a graded result. Results are never modified afterwards.
func (s *Session) RecordResult(r model.Result) {
	s.results = append(s.results, r)
}

// Results returns a copy of the results log in grading order.
func (s *Session) Results() []model.Result {
	out := make([]model.Result, len(s.results))
	copy(out, s.results)
	return out
}

// Progress aggregates the results log.
func (s *Session) Progress() model.Progress {
	score := lo.SumBy(s.results, func(r model.Result) int { return r.Score })
	total := lo.SumBy(s.results, func(r model.Result) int { return r.Total })
	return model.Progress{
		Results:        s.Results(),
		TotalScore:     score,
		TotalQuestions: total,
		Percent:        model.Percent(score, total),
	}
}

// Reset clears every piece of state while keeping the session registered.
func (s *Session) Reset() {
	s.history = nil
	s.topic = ""
	s.test = nil
	s.results = nil
	s.Solver = solver.State{}
}

// Store maps session identities to sessions. Sessions are created on first
// use and live for the lifetime of the process.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Get returns the session for id, creating it if needed.
func (st *Store) Get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		s = &Session{ID: id, CreatedAt: st.now()}
		st.sessions[id] = s
	}
	return s
}

// Lookup returns the session for id without creating it.
func (st *Store) Lookup(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Len returns the number of known sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
