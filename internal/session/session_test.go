package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavelanni/lumira/internal/model"
	"github.com/pavelanni/lumira/internal/solver"
)

func TestStoreGetCreatesOnce(t *testing.T) {
	st := NewStore()
	a := st.Get("u1")
	b := st.Get("u1")
	c := st.Get("u2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, st.Len())

	_, ok := st.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, st.Len())
}

func TestExamLifecycle(t *testing.T) {
	s := NewStore().Get("u")
	assert.False(t, s.HasExam())

	key := model.AnswerKey{1: "A", 2: "B"}
	s.IssueExam(key)
	key[1] = "D"
	require.True(t, s.HasExam())

	s.IssueExam(model.AnswerKey{1: "C"})
	got, ok := s.TakeExam()
	require.True(t, ok)
	assert.Equal(t, model.AnswerKey{1: "C"}, got)
	assert.False(t, s.HasExam())

	_, ok = s.TakeExam()
	assert.False(t, ok)
}

func TestIssueExamCopiesKey(t *testing.T) {
	s := NewStore().Get("u")
	key := model.AnswerKey{1: "A"}
	s.IssueExam(key)
	key[1] = "D"

	got, _ := s.TakeExam()
	assert.Equal(t, "A", got[1])
}

func TestHistoryIsCopied(t *testing.T) {
	s := NewStore().Get("u")
	s.AppendTutorTurn("q", "a")

	h := s.History()
	require.Len(t, h, 2)
	assert.Equal(t, model.Message{Role: model.RoleUser, Content: "q"}, h[0])
	assert.Equal(t, model.Message{Role: model.RoleAssistant, Content: "a"}, h[1])

	h[0].Content = "changed"
	assert.Equal(t, "q", s.History()[0].Content)
}

func TestProgress(t *testing.T) {
	s := NewStore().Get("u")
	assert.Equal(t, model.Progress{Results: []model.Result{}}, s.Progress())

	s.RecordResult(model.Result{Topic: "a", Score: 4, Total: 5, Percent: 80})
	s.RecordResult(model.Result{Topic: "b", Score: 1, Total: 5, Percent: 20})

	p := s.Progress()
	assert.Len(t, p.Results, 2)
	assert.Equal(t, 5, p.TotalScore)
	assert.Equal(t, 10, p.TotalQuestions)
	assert.Equal(t, 50, p.Percent)
}

func TestReset(t *testing.T) {
	st := NewStore()
	s := st.Get("u")
	s.SetTopic("planets")
	s.AppendTutorTurn("q", "a")
	s.IssueExam(model.AnswerKey{1: "A"})
	s.RecordResult(model.Result{Topic: "planets", Score: 1, Total: 1, Percent: 100})
	s.Solver = solver.State{Active: true, Topic: "x", Steps: []string{"s"}}

	s.Reset()

	assert.Equal(t, "", s.Topic())
	assert.Empty(t, s.History())
	assert.False(t, s.HasExam())
	assert.Empty(t, s.Results())
	assert.Equal(t, solver.State{}, s.Solver)
	assert.Same(t, s, st.Get("u"))
}

func TestSessionsAreIsolatedUnderConcurrency(t *testing.T) {
	st := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		id := string(rune('a' + i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s := st.Get(id)
				s.Lock()
				s.AppendTutorTurn("q", "a")
				s.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, st.Len())
	for i := 0; i < 8; i++ {
		s := st.Get(string(rune('a' + i)))
		assert.Len(t, s.History(), 100)
	}
}
