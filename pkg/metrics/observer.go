package metrics

import "time"

type MetricsEvent struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

type Observer interface {
	RecordEvent(ev MetricsEvent)
}

type Flusher interface {
	Flush() error
}

type NoopObserver struct{}

func (NoopObserver) RecordEvent(MetricsEvent) {}

// Event names emitted by the agent loop and the chat transport.
const (
	EventLLMLatencyMS   = "llm_latency_ms"
	EventToolDispatch   = "tool_dispatch"
	EventLoopIterations = "loop_iterations"
	EventLoopFallback   = "loop_fallback"
	EventRateLimit      = "rate_limit"
	EventBreakerOpen    = "breaker_open"
	EventBreakerClose   = "breaker_close"
	EventBreakerDenied  = "breaker_denied"
	EventChatTurn       = "chat_turn"
)
