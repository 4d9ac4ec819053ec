// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	TestsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "typebot_tests_started_total",
			Help: "Tests started, by kind",
		},
		[]string{"kind"},
	)

	TestsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "typebot_tests_finished_total",
			Help: "Tests finalized with a summary, by kind and rank",
		},
		[]string{"kind", "rank"},
	)

	PromptsScored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "typebot_prompts_scored_total",
			Help: "Answered prompts, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	PromptTimeouts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "typebot_prompt_timeouts_total",
			Help: "Training prompts skipped because the countdown expired",
		},
	)

	ResponseSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "typebot_response_seconds",
			Help:    "Raw response time per answered prompt",
			Buckets: []float64{0.5, 1, 2, 3, 5, 8, 13, 20, 30},
		},
		[]string{"kind"},
	)

	EventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "typebot_events_dropped_total",
			Help: "Inbound events ignored, by reason",
		},
		[]string{"reason"},
	)

	OutboxMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "typebot_outbox_messages_total",
			Help: "Queued outbound messages, by result",
		},
		[]string{"result"},
	)

	PhraseSource = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "typebot_phrase_source_total",
			Help: "Revealed speed prompts, by where the text came from",
		},
		[]string{"source"},
	)

	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "typebot_llm_requests_total",
			Help: "LLM calls, by model and success",
		},
		[]string{"model", "success"},
	)

	Panics = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "typebot_handler_panics_total",
			Help: "Panics recovered while handling updates",
		},
	)
)

// NewRegistry returns a registry with the runtime collectors and every
// collector of this package.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reg.MustRegister(
		TestsStarted,
		TestsFinished,
		PromptsScored,
		PromptTimeouts,
		ResponseSeconds,
		EventsDropped,
		OutboxMessages,
		PhraseSource,
		LLMRequests,
		Panics,
	)
	return reg
}
