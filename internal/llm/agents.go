package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pavelanni/lumira/internal/llm/prompts"
	"github.com/pavelanni/lumira/internal/model"
)

const (
	// DefaultHistoryLimit is how many past tutor messages are sent per request.
	DefaultHistoryLimit = 10
	// ExamQuestions is the number of questions the examiner is asked for.
	ExamQuestions = 5
)

// Agents implements the moderator, tutor, examiner and step planner on top
// of a single Completer.
type Agents struct {
	llm          Completer
	prompts      *prompts.Set
	historyLimit int
	maxSteps     int
}

// NewAgents creates the agents. Non-positive limits select the defaults.
func NewAgents(c Completer, p *prompts.Set, historyLimit, maxSteps int) *Agents {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if maxSteps <= 0 {
		maxSteps = 3
	}
	return &Agents{llm: c, prompts: p, historyLimit: historyLimit, maxSteps: maxSteps}
}

// Route asks the moderator which agent should answer utterance.
func (a *Agents) Route(ctx context.Context, utterance, topic string) (model.RoutingDecision, error) {
	system, err := a.prompts.Render(prompts.Moderator, prompts.ModeratorData{Topic: prompts.Sanitize(topic)})
	if err != nil {
		return model.RoutingDecision{}, err
	}
	raw, err := a.llm.Complete(ctx, []model.Message{
		{Role: model.RoleSystem, Content: system},
		{Role: model.RoleUser, Content: utterance},
	})
	if err != nil {
		return model.RoutingDecision{}, fmt.Errorf("moderator: %w", err)
	}
	d := DecodeRouting(raw)
	if d.Agent == model.AgentUnknown {
		slog.Warn("moderator answer not understood", "raw", raw)
	}
	return d, nil
}

// Tutor answers utterance with the most recent history entries as context.
func (a *Agents) Tutor(ctx context.Context, history []model.Message, utterance string) (string, error) {
	system, err := a.prompts.Render(prompts.Tutor, nil)
	if err != nil {
		return "", err
	}
	if len(history) > a.historyLimit {
		history = history[len(history)-a.historyLimit:]
	}

	msgs := make([]model.Message, 0, len(history)+2)
	msgs = append(msgs, model.Message{Role: model.RoleSystem, Content: system})
	msgs = append(msgs, history...)
	msgs = append(msgs, model.Message{Role: model.RoleUser, Content: utterance})
	return a.llm.Complete(ctx, msgs)
}

// Exam asks the examiner for a THEME/ANSWERS/QUESTIONS block on topic.
func (a *Agents) Exam(ctx context.Context, topic string) (string, error) {
	system, err := a.prompts.Render(prompts.Examiner, prompts.ExamData{
		Topic:     prompts.Sanitize(topic),
		Questions: ExamQuestions,
	})
	if err != nil {
		return "", err
	}
	return a.llm.Complete(ctx, []model.Message{
		{Role: model.RoleSystem, Content: system},
		{Role: model.RoleUser, Content: topic},
	})
}

// PlanSteps asks for a {"steps": [...]} explanation plan for topic.
func (a *Agents) PlanSteps(ctx context.Context, topic string) (string, error) {
	system, err := a.prompts.Render(prompts.Planner, prompts.PlanData{MaxSteps: a.maxSteps})
	if err != nil {
		return "", err
	}
	return a.llm.Complete(ctx, []model.Message{
		{Role: model.RoleSystem, Content: system},
		{Role: model.RoleUser, Content: topic},
	})
}

// SimplifyStep asks for a simpler rewording of one step.
func (a *Agents) SimplifyStep(ctx context.Context, topic, step string) (string, error) {
	system, err := a.prompts.Render(prompts.Simplify, prompts.SimplifyData{
		Topic: prompts.Sanitize(topic),
		Step:  prompts.Sanitize(step),
	})
	if err != nil {
		return "", err
	}
	return a.llm.Complete(ctx, []model.Message{
		{Role: model.RoleSystem, Content: system},
		{Role: model.RoleUser, Content: "Rephrase this step more simply."},
	})
}
