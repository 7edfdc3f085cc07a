// Package telemetry exposes the fire-and-forget event counters the
// survey lifecycle emits: completions, rate-limit rejections and
// profile materialization failures.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the lifecycle event counters
type Metrics struct {
	CompletionSuccess      prometheus.Counter
	CompletionFailure      prometheus.Counter
	CompletionNoop         prometheus.Counter
	RateLimitRejection     prometheus.Counter
	MaterializationFailure prometheus.Counter
	AnswersDropped         prometheus.Counter
	SessionsCreated        prometheus.Counter
	SessionsResumed        prometheus.Counter
	PendingBuffersMerged   prometheus.Counter
}

// New registers the lifecycle counters with the given registerer
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CompletionSuccess: factory.NewCounter(prometheus.CounterOpts{
			Name: "survey_completions_total",
			Help: "Surveys transitioned to completed.",
		}),
		CompletionFailure: factory.NewCounter(prometheus.CounterOpts{
			Name: "survey_completion_failures_total",
			Help: "Completion attempts that failed.",
		}),
		CompletionNoop: factory.NewCounter(prometheus.CounterOpts{
			Name: "survey_completion_noops_total",
			Help: "Completion attempts that were idempotent no-ops.",
		}),
		RateLimitRejection: factory.NewCounter(prometheus.CounterOpts{
			Name: "survey_write_budget_rejections_total",
			Help: "Answer writes rejected by the write budget.",
		}),
		MaterializationFailure: factory.NewCounter(prometheus.CounterOpts{
			Name: "profile_materialization_failures_total",
			Help: "Profile inserts that failed after completion.",
		}),
		AnswersDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "survey_answers_dropped_total",
			Help: "Answers dropped by schema validation.",
		}),
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "survey_sessions_created_total",
			Help: "Fresh survey sessions created.",
		}),
		SessionsResumed: factory.NewCounter(prometheus.CounterOpts{
			Name: "survey_sessions_resumed_total",
			Help: "Existing survey sessions resumed.",
		}),
		PendingBuffersMerged: factory.NewCounter(prometheus.CounterOpts{
			Name: "survey_pending_buffers_merged_total",
			Help: "Pre-auth answer buffers merged into sessions.",
		}),
	}
}

// NewNop returns metrics backed by a throwaway registry, for tests
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
