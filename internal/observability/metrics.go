// Package observability wires Prometheus metrics and OpenTelemetry tracing
// for the swarm's graph steps, tool executions, and LLM requests.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is a centralized interface for collecting application metrics via
// Prometheus, tracking graph execution, tool dispatch, and LLM usage.
//
// Usage:
//
//	metrics := observability.NewMetrics()
//	metrics.LLMRequestDuration.WithLabelValues("anthropic", "claude-3-opus").Observe(time.Since(start).Seconds())
type Metrics struct {
	// GraphStepCounter counts graph steps by agent and outcome.
	// Labels: agent_name, outcome (message|handoff|step_limit|error)
	GraphStepCounter *prometheus.CounterVec

	// TurnDuration measures one Executor.Execute call's wall time.
	// Labels: thread_id_present (true|false) — never the raw thread ID, which
	// is unbounded cardinality.
	TurnDuration *prometheus.HistogramVec

	// HandoffCounter counts handoffs by source and target agent.
	// Labels: from_agent, to_agent
	HandoffCounter *prometheus.CounterVec

	// LLMRequestDuration measures LLM API call latency in seconds.
	// Labels: provider, model
	LLMRequestDuration *prometheus.HistogramVec

	// LLMRequestCounter counts LLM requests by provider, model, and status.
	// Labels: provider, model, status (success|error)
	LLMRequestCounter *prometheus.CounterVec

	// LLMTokensUsed tracks token consumption.
	// Labels: provider, model, type (prompt|completion)
	LLMTokensUsed *prometheus.CounterVec

	// ToolExecutionCounter counts tool invocations by tool name and status.
	// Labels: tool_name, status (success|error|bad_arguments)
	ToolExecutionCounter *prometheus.CounterVec

	// ToolExecutionDuration measures tool execution time in seconds.
	// Labels: tool_name
	ToolExecutionDuration *prometheus.HistogramVec

	// ToolServerRetries counts tool-server retry attempts before a call is
	// surfaced as ToolServerUnreachable.
	// Labels: tool_name
	ToolServerRetries *prometheus.CounterVec

	// ErrorCounter tracks errors by component and error type.
	// Labels: component (executor|graph|checkpoint|eventlog|toolserver), error_type
	ErrorCounter *prometheus.CounterVec

	// ActiveThreads is a gauge tracking threads currently mid-turn.
	ActiveThreads prometheus.Gauge

	// SessionLogFlushDuration measures SessionLog flush-to-disk latency.
	SessionLogFlushDuration prometheus.Histogram
}

// NewMetrics creates and registers all Prometheus metrics with the default
// registry. Call once at startup.
func NewMetrics() *Metrics {
	return &Metrics{
		GraphStepCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swarm_graph_steps_total",
				Help: "Total number of graph steps by agent and outcome",
			},
			[]string{"agent_name", "outcome"},
		),

		TurnDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swarm_turn_duration_seconds",
				Help:    "Duration of one Executor turn in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"thread_id_present"},
		),

		HandoffCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swarm_handoffs_total",
				Help: "Total number of agent handoffs by source and target",
			},
			[]string{"from_agent", "to_agent"},
		),

		LLMRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swarm_llm_request_duration_seconds",
				Help:    "Duration of LLM API requests in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider", "model"},
		),

		LLMRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swarm_llm_requests_total",
				Help: "Total number of LLM requests by provider, model, and status",
			},
			[]string{"provider", "model", "status"},
		),

		LLMTokensUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swarm_llm_tokens_total",
				Help: "Total number of tokens used by provider, model, and type",
			},
			[]string{"provider", "model", "type"},
		),

		ToolExecutionCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swarm_tool_executions_total",
				Help: "Total number of tool executions by tool name and status",
			},
			[]string{"tool_name", "status"},
		),

		ToolExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swarm_tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
			},
			[]string{"tool_name"},
		),

		ToolServerRetries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swarm_toolserver_retries_total",
				Help: "Total number of tool-server retry attempts",
			},
			[]string{"tool_name"},
		),

		ErrorCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swarm_errors_total",
				Help: "Total number of errors by component and error type",
			},
			[]string{"component", "error_type"},
		),

		ActiveThreads: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "swarm_active_threads",
				Help: "Current number of threads mid-turn",
			},
		),

		SessionLogFlushDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "swarm_session_log_flush_duration_seconds",
				Help:    "Duration of SessionLog flush-to-disk operations",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
	}
}

// RecordGraphStep records one graph step's outcome.
func (m *Metrics) RecordGraphStep(agentName, outcome string) {
	m.GraphStepCounter.WithLabelValues(agentName, outcome).Inc()
}

// RecordHandoff records a handoff from one agent to another.
func (m *Metrics) RecordHandoff(fromAgent, toAgent string) {
	m.HandoffCounter.WithLabelValues(fromAgent, toAgent).Inc()
}

// RecordLLMRequest records metrics for an LLM API request.
func (m *Metrics) RecordLLMRequest(provider, model, status string, durationSeconds float64, promptTokens, completionTokens int) {
	m.LLMRequestCounter.WithLabelValues(provider, model, status).Inc()
	m.LLMRequestDuration.WithLabelValues(provider, model).Observe(durationSeconds)
	if promptTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.LLMTokensUsed.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
	}
}

// RecordToolExecution records metrics for a tool execution.
func (m *Metrics) RecordToolExecution(toolName, status string, durationSeconds float64) {
	m.ToolExecutionCounter.WithLabelValues(toolName, status).Inc()
	m.ToolExecutionDuration.WithLabelValues(toolName).Observe(durationSeconds)
}

// RecordToolServerRetry records one tool-server retry attempt.
func (m *Metrics) RecordToolServerRetry(toolName string) {
	m.ToolServerRetries.WithLabelValues(toolName).Inc()
}

// RecordError increments the error counter for a given component and type.
func (m *Metrics) RecordError(component, errorType string) {
	m.ErrorCounter.WithLabelValues(component, errorType).Inc()
}

// TurnStarted marks the start of a turn, incrementing ActiveThreads. The
// returned func records the turn's duration and decrements the gauge.
func (m *Metrics) TurnStarted(threadIDPresent bool) func() {
	m.ActiveThreads.Inc()
	present := "false"
	if threadIDPresent {
		present = "true"
	}
	timer := prometheus.NewTimer(m.TurnDuration.WithLabelValues(present))
	return func() {
		timer.ObserveDuration()
		m.ActiveThreads.Dec()
	}
}
