package solver

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appI18n "github.com/pavelanni/lumira/internal/i18n"
)

func TestMain(m *testing.M) {
	if err := appI18n.Init("en"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakePlanner struct {
	plan        string
	planErr     error
	simplified  string
	simplifyErr error

	simplifyCalls []string
}

func (f *fakePlanner) PlanSteps(_ context.Context, _ string) (string, error) {
	return f.plan, f.planErr
}

func (f *fakePlanner) SimplifyStep(_ context.Context, _, step string) (string, error) {
	f.simplifyCalls = append(f.simplifyCalls, step)
	return f.simplified, f.simplifyErr
}

func TestClassify(t *testing.T) {
	tests := []struct {
		reply string
		want  Feedback
	}{
		{"да", FeedbackYes},
		{"  Yes ", FeedbackYes},
		{"Y", FeedbackYes},
		{"ага", FeedbackYes},
		{"Поняла.", FeedbackYes},
		{"нет", FeedbackNo},
		{"NO", FeedbackNo},
		{"не понял", FeedbackNo},
		{"неа", FeedbackNo},
		{"maybe", FeedbackOther},
		{"yes please", FeedbackOther},
		{"", FeedbackOther},
	}
	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.reply))
			assert.Equal(t, tt.want != FeedbackOther, IsFeedback(tt.reply))
		})
	}
}

func TestMachineWalkthrough(t *testing.T) {
	ctx := context.Background()
	p := &fakePlanner{
		plan:       `{"steps": ["S1", "S2"]}`,
		simplified: "S1'",
	}
	m := New(p, 3)
	var st State

	reply, err := m.Start(ctx, &st, "fractions")
	require.NoError(t, err)
	assert.Equal(t, State{Active: true, Topic: "fractions", Steps: []string{"S1", "S2"}}, st)
	assert.Contains(t, reply, "Step 1:\nS1")
	assert.Contains(t, reply, "Is this clear? (yes/no)")

	reply, err = m.Continue(ctx, &st, "нет")
	require.NoError(t, err)
	assert.Equal(t, []string{"S1'", "S2"}, st.Steps)
	assert.Equal(t, 0, st.CurrentStep)
	assert.True(t, st.Active)
	assert.Contains(t, reply, "Step 1:\nS1'")
	assert.Contains(t, reply, "Is it clearer now?")
	assert.Equal(t, []string{"S1"}, p.simplifyCalls)

	reply, err = m.Continue(ctx, &st, "да")
	require.NoError(t, err)
	assert.Equal(t, 1, st.CurrentStep)
	assert.True(t, st.Active)
	assert.Contains(t, reply, "Step 2:\nS2")

	reply, err = m.Continue(ctx, &st, "да")
	require.NoError(t, err)
	assert.False(t, st.Active)
	assert.Equal(t, appI18n.T(ctx, "SolverDone"), reply)

	before := st
	reply, err = m.Continue(ctx, &st, "да")
	require.NoError(t, err)
	assert.Equal(t, appI18n.T(ctx, "SolverInactive"), reply)
	assert.Equal(t, before, st)
}

func TestMachineUnrecognisedReplyLeavesState(t *testing.T) {
	ctx := context.Background()
	m := New(&fakePlanner{plan: `{"steps": ["a", "b"]}`}, 0)
	var st State
	_, err := m.Start(ctx, &st, "t")
	require.NoError(t, err)

	before := State{Active: st.Active, Topic: st.Topic, Steps: append([]string(nil), st.Steps...), CurrentStep: st.CurrentStep}
	reply, err := m.Continue(ctx, &st, "what?")
	require.NoError(t, err)
	assert.Equal(t, appI18n.T(ctx, "SolverYesNo"), reply)
	assert.Equal(t, before, st)
}

func TestMachineStartFailureKeepsPreviousState(t *testing.T) {
	ctx := context.Background()
	p := &fakePlanner{plan: `{"steps": ["a", "b"]}`}
	m := New(p, 3)
	var st State
	_, err := m.Start(ctx, &st, "first")
	require.NoError(t, err)

	p.planErr = errors.New("boom")
	_, err = m.Start(ctx, &st, "second")
	require.Error(t, err)
	assert.Equal(t, "first", st.Topic)
	assert.True(t, st.Active)
}

func TestMachineSimplifyFailureKeepsStep(t *testing.T) {
	ctx := context.Background()
	p := &fakePlanner{plan: `{"steps": ["a"]}`, simplifyErr: errors.New("down")}
	m := New(p, 3)
	var st State
	_, err := m.Start(ctx, &st, "t")
	require.NoError(t, err)

	_, err = m.Continue(ctx, &st, "no")
	require.Error(t, err)
	assert.Equal(t, []string{"a"}, st.Steps)
	assert.True(t, st.Active)
}

func TestMachineEmptySimplificationKeepsStep(t *testing.T) {
	ctx := context.Background()
	m := New(&fakePlanner{plan: `{"steps": ["a"]}`, simplified: "   "}, 3)
	var st State
	_, err := m.Start(ctx, &st, "t")
	require.NoError(t, err)

	_, err = m.Continue(ctx, &st, "no")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, st.Steps)
}

func TestMachineRawFallbackPlan(t *testing.T) {
	ctx := context.Background()
	m := New(&fakePlanner{plan: "Just read the chapter."}, 3)
	var st State
	reply, err := m.Start(ctx, &st, "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"Just read the chapter."}, st.Steps)
	assert.Contains(t, reply, "Step 1:\nJust read the chapter.")
}

func TestMachineEmptyPlanUsesPlaceholder(t *testing.T) {
	ctx := context.Background()
	m := New(&fakePlanner{plan: "   "}, 3)
	var st State
	_, err := m.Start(ctx, &st, "t")
	require.NoError(t, err)
	assert.Equal(t, []string{appI18n.T(ctx, "SolverNoPlan")}, st.Steps)
	assert.True(t, st.Active)
}

func TestMachineOutOfRangeStepDeactivates(t *testing.T) {
	ctx := context.Background()
	m := New(&fakePlanner{}, 3)
	st := State{Active: true, Topic: "t", Steps: []string{"a"}, CurrentStep: 4}
	reply, err := m.Continue(ctx, &st, "yes")
	require.NoError(t, err)
	assert.False(t, st.Active)
	assert.Equal(t, appI18n.T(ctx, "SolverInactive"), reply)
}

func TestDecodePlan(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		max  int
		want Plan
	}{
		{"strict", `{"steps": ["a", "b"]}`, 3, StructuredSteps{"a", "b"}},
		{"truncated", `{"steps": ["a", "b", "c", "d"]}`, 3, StructuredSteps{"a", "b", "c"}},
		{"code fence", "```json\n{\"steps\": [\"a\"]}\n```", 3, StructuredSteps{"a"}},
		{"prose around", "Here you go: {\"steps\": [\"x\", \"y\"]} hope it helps", 3, StructuredSteps{"x", "y"}},
		{"non-string steps", `{"steps": [1, {"k": "v"}]}`, 3, StructuredSteps{"1", `{"k":"v"}`}},
		{"blank steps skipped", `{"steps": ["", "  ", "a"]}`, 3, StructuredSteps{"a"}},
		{"empty list", `{"steps": []}`, 3, RawFallback(`{"steps": []}`)},
		{"plain text", "no json here", 3, RawFallback("no json here")},
		{"broken json", `{"steps": ["a"`, 3, RawFallback(`{"steps": ["a"`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodePlan(tt.raw, tt.max))
		})
	}
}
