// Package solver implements the interactive step-by-step explanation mode:
// a topic is split into a few steps that are shown one at a time, and each
// step can be rewritten more simply until the user confirms it.
package solver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	appI18n "github.com/pavelanni/lumira/internal/i18n"
)

// DefaultMaxSteps bounds the number of steps kept from a plan.
const DefaultMaxSteps = 3

// Feedback classifies a reply to "is this clear?".
type Feedback int

const (
	// FeedbackOther is any reply outside the yes/no vocabularies.
	FeedbackOther Feedback = iota
	// FeedbackYes moves the walkthrough to the next step.
	FeedbackYes
	// FeedbackNo asks for the current step to be simplified.
	FeedbackNo
)

var (
	yesWords = map[string]bool{
		"yes": true, "y": true, "да": true, "ага": true,
		"понял": true, "поняла": true, "понял.": true, "поняла.": true,
	}
	noWords = map[string]bool{
		"no": true, "n": true, "нет": true, "неа": true, "не": true,
		"не понял": true, "не поняла": true,
	}
)

// Classify matches a trimmed, lower-cased reply against the closed yes/no vocabularies.
func Classify(reply string) Feedback {
	r := strings.ToLower(strings.TrimSpace(reply))
	switch {
	case yesWords[r]:
		return FeedbackYes
	case noWords[r]:
		return FeedbackNo
	default:
		return FeedbackOther
	}
}

// IsFeedback reports whether reply is a recognised yes or no answer.
func IsFeedback(reply string) bool {
	return Classify(reply) != FeedbackOther
}

// State is one session's problem-solver progress. Active is true only while
// 0 <= CurrentStep < len(Steps).
type State struct {
	Active      bool     `json:"active"`
	Topic       string   `json:"topic"`
	Steps       []string `json:"steps"`
	CurrentStep int      `json:"current_step"`
}

// Planner is the LLM collaborator behind the machine.
type Planner interface {
	// PlanSteps returns raw model output, expected to be {"steps": [...]}.
	PlanSteps(ctx context.Context, topic string) (string, error)
	// SimplifyStep rewrites one step more simply without adding facts.
	SimplifyStep(ctx context.Context, topic, step string) (string, error)
}

// Machine drives State transitions. It holds no per-session data, so one
// Machine serves every session; callers serialise access to each State.
type Machine struct {
	planner  Planner
	maxSteps int
}

// New creates a Machine. maxSteps <= 0 selects DefaultMaxSteps.
func New(p Planner, maxSteps int) *Machine {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Machine{planner: p, maxSteps: maxSteps}
}

// Start plans a new explanation for topic and replaces st entirely.
// On planner failure st is left untouched.
func (m *Machine) Start(ctx context.Context, st *State, topic string) (string, error) {
	raw, err := m.planner.PlanSteps(ctx, topic)
	if err != nil {
		return "", fmt.Errorf("plan steps: %w", err)
	}

	plan := DecodePlan(raw, m.maxSteps)
	steps := plan.steps()
	if _, fallback := plan.(RawFallback); fallback {
		slog.Debug("step plan was not JSON, using raw answer", "topic", topic)
	}
	if len(steps) == 0 || steps[0] == "" {
		steps = []string{appI18n.T(ctx, "SolverNoPlan")}
	}

	*st = State{
		Active:      true,
		Topic:       topic,
		Steps:       steps,
		CurrentStep: 0,
	}

	return join(
		appI18n.T(ctx, "SolverIntro"),
		m.stepText(ctx, st),
		appI18n.T(ctx, "SolverQuestion"),
	), nil
}

// Continue applies a yes/no reply. Yes advances (finishing after the last
// step), no rewrites the current step in place, anything else asks again
// without touching st. On planner failure st is left untouched.
func (m *Machine) Continue(ctx context.Context, st *State, reply string) (string, error) {
	if !st.Active {
		return appI18n.T(ctx, "SolverInactive"), nil
	}
	if st.CurrentStep < 0 || st.CurrentStep >= len(st.Steps) {
		slog.Error("problem solver step out of range, deactivating",
			"step", st.CurrentStep, "steps", len(st.Steps))
		st.Active = false
		return appI18n.T(ctx, "SolverInactive"), nil
	}

	switch Classify(reply) {
	case FeedbackYes:
		next := st.CurrentStep + 1
		st.CurrentStep = next
		if next >= len(st.Steps) {
			st.Active = false
			return appI18n.T(ctx, "SolverDone"), nil
		}
		return join(
			appI18n.T(ctx, "SolverNext"),
			m.stepText(ctx, st),
			appI18n.T(ctx, "SolverQuestion"),
		), nil

	case FeedbackNo:
		simpler, err := m.planner.SimplifyStep(ctx, st.Topic, st.Steps[st.CurrentStep])
		if err != nil {
			return "", fmt.Errorf("simplify step %d: %w", st.CurrentStep+1, err)
		}
		if simpler = strings.TrimSpace(simpler); simpler != "" {
			st.Steps[st.CurrentStep] = simpler
		}
		return join(
			appI18n.T(ctx, "SolverRetry"),
			m.stepText(ctx, st),
			appI18n.T(ctx, "SolverQuestionAgain"),
		), nil

	default:
		return appI18n.T(ctx, "SolverYesNo"), nil
	}
}

func (m *Machine) stepText(ctx context.Context, st *State) string {
	return appI18n.Td(ctx, "SolverStep", map[string]any{
		"N":    st.CurrentStep + 1,
		"Text": st.Steps[st.CurrentStep],
	})
}

func join(parts ...string) string {
	return strings.Join(parts, "\n\n")
}
