package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	appI18n "github.com/pavelanni/lumira/internal/i18n"
	"github.com/pavelanni/lumira/internal/llm"
	"github.com/pavelanni/lumira/internal/llm/prompts"
	"github.com/pavelanni/lumira/internal/metrics"
	"github.com/pavelanni/lumira/internal/model"
	"github.com/pavelanni/lumira/internal/orchestrator"
	"github.com/pavelanni/lumira/internal/session"
	"github.com/pavelanni/lumira/internal/store"
)

const (
	providerOpenAI    = "openai"
	providerAnthropic = "anthropic"
)

// app is the wired bot shared by the serve and chat commands.
type app struct {
	cfg model.BotConfig
	bot *orchestrator.Orchestrator
	db  *store.Store
}

func (a *app) Close() error {
	return a.db.Close()
}

func botConfig(v *viper.Viper) model.BotConfig {
	return model.BotConfig{
		Lang:         v.GetString("lang"),
		HistoryLimit: v.GetInt("history-limit"),
		MaxSteps:     v.GetInt("max-steps"),
		LLMTimeout:   v.GetDuration("llm-timeout"),
		LLMRetries:   v.GetInt("llm-retries"),
	}
}

func newCompleter(provider, url, key, modelName string) (llm.Completer, error) {
	switch provider {
	case providerOpenAI:
		return llm.NewOpenAI(url, key, modelName), nil
	case providerAnthropic:
		// The OpenAI-style default URL means nothing to Anthropic.
		if strings.Contains(url, "localhost:11434") {
			url = ""
		}
		return llm.NewAnthropic(url, key, modelName), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q (want %s or %s)", provider, providerOpenAI, providerAnthropic)
	}
}

// newApp wires the LLM provider, prompts, journal and orchestrator from
// configuration. rec receives turn, LLM and score metrics.
func newApp(ctx context.Context, v *viper.Viper, rec metrics.Recorder) (*app, error) {
	cfg := botConfig(v)
	if err := appI18n.Init(cfg.Lang); err != nil {
		return nil, fmt.Errorf("init i18n: %w", err)
	}

	set, err := prompts.Load(v.GetString("prompts"))
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	provider := strings.ToLower(strings.TrimSpace(v.GetString("llm-provider")))
	base, err := newCompleter(provider, v.GetString("llm-url"), v.GetString("llm-key"), v.GetString("llm-model"))
	if err != nil {
		return nil, err
	}
	retryCfg := llm.DefaultRetryConfig()
	retryCfg.Timeout = cfg.LLMTimeout
	retryCfg.MaxRetries = max(cfg.LLMRetries, 0)
	agents := llm.NewAgents(llm.WithRetry(base, provider, retryCfg, rec), set, cfg.HistoryLimit, cfg.MaxSteps)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	run := model.RunInfo{
		Provider:  provider,
		Model:     v.GetString("llm-model"),
		Lang:      cfg.Lang,
		StartedAt: time.Now().UTC(),
	}
	if err := db.SetRunInfo(ctx, run); err != nil {
		db.Close()
		return nil, fmt.Errorf("record run info: %w", err)
	}

	bot := orchestrator.New(session.NewStore(), orchestrator.Deps{
		Router:   agents,
		Tutor:    agents,
		Examiner: agents,
		Planner:  agents,
		MaxSteps: cfg.MaxSteps,
		Journal:  db,
		Metrics:  rec,
	})

	slog.Info("bot configured",
		"provider", provider,
		"model", run.Model,
		"llm_url", v.GetString("llm-url"),
		"lang", cfg.Lang,
		"history_limit", cfg.HistoryLimit,
		"max_steps", cfg.MaxSteps,
		"llm_timeout", cfg.LLMTimeout,
		"llm_retries", cfg.LLMRetries,
		"db", v.GetString("db"),
	)
	return &app{cfg: cfg, bot: bot, db: db}, nil
}

// newPrometheusRecorder registers the bot's collectors on the default registry.
func newPrometheusRecorder() (metrics.Recorder, prometheus.Gatherer) {
	return metrics.NewPrometheus(prometheus.DefaultRegisterer), prometheus.DefaultGatherer
}
