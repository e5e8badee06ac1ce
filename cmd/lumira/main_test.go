package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appI18n "github.com/pavelanni/lumira/internal/i18n"
	"github.com/pavelanni/lumira/internal/model"
	"github.com/pavelanni/lumira/internal/orchestrator"
	"github.com/pavelanni/lumira/internal/session"
)

func TestMain(m *testing.M) {
	if err := appI18n.Init("en"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type tutorOnly struct{}

func (tutorOnly) Route(context.Context, string, string) (model.RoutingDecision, error) {
	return model.RoutingDecision{Agent: model.AgentTutor}, nil
}

func (tutorOnly) Tutor(_ context.Context, _ []model.Message, utterance string) (string, error) {
	return "about " + utterance, nil
}

func (tutorOnly) Exam(context.Context, string) (string, error) { return "", nil }

func (tutorOnly) PlanSteps(context.Context, string) (string, error) { return "", nil }

func (tutorOnly) SimplifyStep(context.Context, string, string) (string, error) { return "", nil }

func newTestBot() *orchestrator.Orchestrator {
	f := tutorOnly{}
	return orchestrator.New(session.NewStore(), orchestrator.Deps{
		Router: f, Tutor: f, Examiner: f, Planner: f, MaxSteps: 3,
	})
}

func TestChatLoop(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
		not   []string
	}{
		{
			name:  "exit stops the loop",
			input: "gravity\nexit\nnever read\n",
			want:  []string{"about gravity", "Bye-bye"},
			not:   []string{"about never read"},
		},
		{
			name:  "eof ends quietly",
			input: "waves\n",
			want:  []string{"about waves"},
		},
		{
			name:  "progress without results",
			input: "progress\n",
			want:  []string{"No completed tests yet."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := chatLoop(context.Background(), newTestBot(), strings.NewReader(tt.input), &out)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out.String(), w)
			}
			for _, n := range tt.not {
				assert.NotContains(t, out.String(), n)
			}
		})
	}
}

func TestNewCompleter(t *testing.T) {
	_, err := newCompleter(providerOpenAI, "http://localhost:11434/v1", "k", "m")
	assert.NoError(t, err)
	_, err = newCompleter(providerAnthropic, "", "k", "m")
	assert.NoError(t, err)
	_, err = newCompleter("gigachat", "", "k", "m")
	assert.ErrorContains(t, err, "unknown llm provider")
}

func TestBotConfigFromViper(t *testing.T) {
	v := viper.New()
	v.Set("lang", "en")
	v.Set("history-limit", 4)
	v.Set("max-steps", 5)
	v.Set("llm-timeout", "30s")
	v.Set("llm-retries", 1)

	assert.Equal(t, model.BotConfig{
		Lang:         "en",
		HistoryLimit: 4,
		MaxSteps:     5,
		LLMTimeout:   30 * time.Second,
		LLMRetries:   1,
	}, botConfig(v))
}

func TestNewAppRecordsRunInfo(t *testing.T) {
	v := viper.New()
	v.Set("lang", "en")
	v.Set("llm-provider", "OpenAI")
	v.Set("llm-url", "http://127.0.0.1:1/v1")
	v.Set("llm-model", "test-model")
	v.Set("db", ":memory:")

	a, err := newApp(context.Background(), v, nil)
	require.NoError(t, err)
	defer a.Close()

	info, err := a.db.GetRunInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "openai", info.Provider)
	assert.Equal(t, "test-model", info.Model)
	assert.Equal(t, "en", info.Lang)
}

func TestRootCommands(t *testing.T) {
	root := rootCmd()
	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "chat", "export", "hash-token"})
	assert.NotNil(t, root.Flags().Lookup("telegram-token"))
}
