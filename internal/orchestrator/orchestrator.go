// Package orchestrator runs one user turn at a time: it short-circuits admin
// commands, keeps an active problem-solver dialogue going, asks the router
// which agent should answer and dispatches to it, updating the session as it
// goes.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	appI18n "github.com/pavelanni/lumira/internal/i18n"
	"github.com/pavelanni/lumira/internal/metrics"
	"github.com/pavelanni/lumira/internal/model"
	"github.com/pavelanni/lumira/internal/quiz"
	"github.com/pavelanni/lumira/internal/session"
	"github.com/pavelanni/lumira/internal/solver"
)

const (
	cmdExit     = "exit"
	cmdProgress = "progress"
)

// Router classifies a user turn.
type Router interface {
	Route(ctx context.Context, utterance, topic string) (model.RoutingDecision, error)
}

// Tutor answers a question given the dialogue so far.
type Tutor interface {
	Tutor(ctx context.Context, history []model.Message, utterance string) (string, error)
}

// Examiner authors a raw exam block for a topic.
type Examiner interface {
	Exam(ctx context.Context, topic string) (string, error)
}

// Journal receives issued exams and graded results. Failures are logged and
// never affect the reply.
type Journal interface {
	RecordExam(ctx context.Context, sessionID, theme string, numQuestions int) error
	RecordResult(ctx context.Context, sessionID string, r model.Result) error
}

// Reply is the text produced for one turn. Done is set when the user asked
// to end the conversation.
type Reply struct {
	Text string `json:"reply"`
	Done bool   `json:"done"`
}

// Deps are the collaborators of an Orchestrator. Journal and Metrics are optional.
type Deps struct {
	Router   Router
	Tutor    Tutor
	Examiner Examiner
	Planner  solver.Planner
	MaxSteps int
	Journal  Journal
	Metrics  metrics.Recorder
}

// Orchestrator handles turns for every session in a session.Store.
type Orchestrator struct {
	sessions *session.Store
	router   Router
	tutor    Tutor
	examiner Examiner
	solver   *solver.Machine
	journal  Journal
	metrics  metrics.Recorder
	now      func() time.Time
}

// New creates an Orchestrator over store.
func New(store *session.Store, d Deps) *Orchestrator {
	rec := d.Metrics
	if rec == nil {
		rec = metrics.Nop()
	}
	return &Orchestrator{
		sessions: store,
		router:   d.Router,
		tutor:    d.Tutor,
		examiner: d.Examiner,
		solver:   solver.New(d.Planner, d.MaxSteps),
		journal:  d.Journal,
		metrics:  rec,
		now:      time.Now,
	}
}

// Sessions returns the underlying session store.
func (o *Orchestrator) Sessions() *session.Store { return o.sessions }

// Handle processes one utterance for sessionID. The session is locked for
// the whole turn. Collaborator failures become an apology reply; the error
// is non-nil only when ctx was cancelled before a reply could be produced.
func (o *Orchestrator) Handle(ctx context.Context, sessionID, text string) (Reply, error) {
	sess := o.sessions.Get(sessionID)
	sess.Lock()
	defer sess.Unlock()

	log := slog.With("session", sessionID, "turn", uuid.NewString())

	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == cmdExit:
		o.metrics.ObserveTurn("command", "ok")
		return Reply{Text: appI18n.T(ctx, "Goodbye"), Done: true}, nil
	case strings.EqualFold(trimmed, cmdProgress):
		o.metrics.ObserveTurn("command", "ok")
		return Reply{Text: ProgressText(ctx, sess.Progress())}, nil
	}

	if sess.Solver.Active && solver.IsFeedback(trimmed) {
		reply, err := o.solver.Continue(ctx, &sess.Solver, trimmed)
		return o.finish(ctx, log, model.AgentProblemSolver, reply, err)
	}

	if trimmed == "" {
		return Reply{}, nil
	}

	decision, err := o.router.Route(ctx, text, sess.Topic())
	if err != nil {
		return o.finish(ctx, log, model.AgentUnknown, "", fmt.Errorf("route: %w", err))
	}
	log.Debug("routing decision", "agent", decision.Agent.String(), "change_topic", decision.ChangeTopic)

	if decision.ChangeTopic {
		sess.SetTopic(text)
	}

	var reply string
	switch decision.Agent {
	case model.AgentTutor:
		reply, err = o.handleTutor(ctx, sess, text)
	case model.AgentExaminer:
		reply, err = o.handleExaminer(ctx, log, sess, text)
	case model.AgentAnalyser:
		reply = o.handleAnalyser(ctx, log, sess, text)
	case model.AgentProblemSolver:
		reply, err = o.solver.Start(ctx, &sess.Solver, text)
	case model.AgentUnknown:
		fallthrough
	default:
		reply = appI18n.T(ctx, "UnknownMode")
	}
	return o.finish(ctx, log, decision.Agent, reply, err)
}

func (o *Orchestrator) finish(ctx context.Context, log *slog.Logger, agent model.AgentID, reply string, err error) (Reply, error) {
	if err == nil {
		o.metrics.ObserveTurn(agent.String(), "ok")
		return Reply{Text: reply}, nil
	}

	o.metrics.ObserveTurn(agent.String(), "error")
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		log.Warn("turn cancelled", "agent", agent.String(), "error", err)
		return Reply{}, ctxErr
	}
	log.Error("agent failed", "agent", agent.String(), "error", err)
	return Reply{Text: appI18n.T(ctx, "Apology")}, nil
}

func (o *Orchestrator) handleTutor(ctx context.Context, sess *session.Session, text string) (string, error) {
	reply, err := o.tutor.Tutor(ctx, sess.History(), text)
	if err != nil {
		return "", fmt.Errorf("tutor: %w", err)
	}
	sess.AppendTutorTurn(text, reply)
	return reply, nil
}

// handleExaminer issues a new exam. An already established topic wins over
// the literal utterance; the parsed theme then becomes the session topic.
func (o *Orchestrator) handleExaminer(ctx context.Context, log *slog.Logger, sess *session.Session, text string) (string, error) {
	topic := sess.Topic()
	if topic == "" || topic == model.UnknownTheme {
		topic = text
		sess.SetTopic(topic)
	}

	raw, err := o.examiner.Exam(ctx, topic)
	if err != nil {
		return "", fmt.Errorf("examiner: %w", err)
	}

	exam, err := quiz.ParseExam(raw)
	sess.SetTopic(exam.Theme)
	if err != nil {
		log.Warn("malformed exam block", "theme", exam.Theme, "error", err)
		sess.IssueExam(nil)
		if errors.Is(err, quiz.ErrMissingQuestions) {
			return appI18n.T(ctx, "ExamMissingQuestions"), nil
		}
		return appI18n.T(ctx, "ExamMissingAnswers"), nil
	}

	sess.IssueExam(exam.Key)
	if o.journal != nil {
		if err := o.journal.RecordExam(ctx, sess.ID, exam.Theme, len(exam.Key)); err != nil {
			log.Error("journal exam", "error", err)
		}
	}

	return appI18n.T(ctx, "AnswerFormatHint") + "\n\n" + exam.Questions, nil
}

// handleAnalyser grades the outstanding exam. The exam is consumed even when
// the answers cannot be parsed.
func (o *Orchestrator) handleAnalyser(ctx context.Context, log *slog.Logger, sess *session.Session, text string) string {
	key, ok := sess.TakeExam()
	if !ok {
		return appI18n.T(ctx, "NoTestToGrade")
	}

	g := quiz.GradeAnswers(key, text)
	result := model.Result{
		Topic:      sess.Topic(),
		Score:      g.Score,
		Total:      g.Total,
		Percent:    g.Percent(),
		RawAnswers: text,
		GradedAt:   o.now(),
	}
	sess.RecordResult(result)
	o.metrics.ObserveScore(result.Percent)

	if o.journal != nil {
		if err := o.journal.RecordResult(ctx, sess.ID, result); err != nil {
			log.Error("journal result", "error", err)
		}
	}
	return g.Report(ctx)
}

// Reset clears the state of sessionID, if it exists.
func (o *Orchestrator) Reset(sessionID string) {
	sess, ok := o.sessions.Lookup(sessionID)
	if !ok {
		return
	}
	sess.Lock()
	defer sess.Unlock()
	sess.Reset()
}

// Progress returns the aggregated results of sessionID.
func (o *Orchestrator) Progress(sessionID string) (model.Progress, bool) {
	sess, ok := o.sessions.Lookup(sessionID)
	if !ok {
		return model.Progress{}, false
	}
	sess.Lock()
	defer sess.Unlock()
	return sess.Progress(), true
}
