// Package metrics records Prometheus metrics for conversation turns and LLM calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder receives turn and LLM call observations.
type Recorder interface {
	// ObserveTurn counts one handled turn by agent and outcome (ok, error, command, solver).
	ObserveTurn(agent, outcome string)
	// ObserveLLM records one completion attempt.
	ObserveLLM(provider string, success bool, duration time.Duration)
	// ObserveScore records the percentage of a graded exam.
	ObserveScore(percent int)
}

// Prometheus implements Recorder with Prometheus collectors.
type Prometheus struct {
	turnsTotal    *prometheus.CounterVec
	llmTotal      *prometheus.CounterVec
	llmDuration   *prometheus.HistogramVec
	scorePercents prometheus.Histogram
}

// NewPrometheus registers the collectors with reg. A nil reg uses the default registerer.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Prometheus{
		turnsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lumira_turns_total",
				Help: "Total number of handled user turns by agent and outcome",
			},
			[]string{"agent", "outcome"},
		),
		llmTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lumira_llm_requests_total",
				Help: "Total number of LLM completion attempts by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		llmDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lumira_llm_request_duration_seconds",
				Help:    "Duration of LLM completion attempts in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		scorePercents: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lumira_exam_score_percent",
				Help:    "Distribution of graded exam results in percent",
				Buckets: prometheus.LinearBuckets(0, 20, 6),
			},
		),
	}
}

// ObserveTurn implements Recorder.
func (p *Prometheus) ObserveTurn(agent, outcome string) {
	p.turnsTotal.WithLabelValues(agent, outcome).Inc()
}

// ObserveLLM implements Recorder.
func (p *Prometheus) ObserveLLM(provider string, success bool, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	p.llmTotal.WithLabelValues(provider, outcome).Inc()
	p.llmDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// ObserveScore implements Recorder.
func (p *Prometheus) ObserveScore(percent int) {
	p.scorePercents.Observe(float64(percent))
}

type nop struct{}

// Nop returns a Recorder that discards everything.
func Nop() Recorder { return nop{} }

func (nop) ObserveTurn(_, _ string)                      {}
func (nop) ObserveLLM(_ string, _ bool, _ time.Duration) {}
func (nop) ObserveScore(_ int)                           {}
