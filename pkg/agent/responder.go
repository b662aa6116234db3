package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/harunnryd/teller/pkg/bank"
	"github.com/harunnryd/teller/pkg/errorsx"
	"github.com/harunnryd/teller/pkg/llm"
	"github.com/harunnryd/teller/pkg/metrics"
	"github.com/harunnryd/teller/pkg/redact"
	"github.com/harunnryd/teller/pkg/store"
	"github.com/harunnryd/teller/pkg/tools"
)

const DefaultMaxIterations = 8

// Config tunes one Responder. Zero values fall back to the defaults
// used by the original assistant.
type Config struct {
	SystemPrompt  string
	MaxIterations int
	Retry         llm.RetryConfig
}

// Responder runs the bounded tool-calling loop for a single chat turn:
// ask the reasoning service, dispatch any capability requests it makes,
// feed the results back, and repeat until it answers in plain text.
type Responder struct {
	adapter  llm.LLMAdapter
	registry *tools.Registry
	svc      *bank.Service
	cfg      Config
	logger   *slog.Logger
	obs      metrics.Observer
}

func NewResponder(adapter llm.LLMAdapter, registry *tools.Registry, svc *bank.Service, cfg Config, logger *slog.Logger, obs metrics.Observer) *Responder {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if logger == nil {
		logger = slog.Default()
	}
	if obs == nil {
		obs = metrics.NoopObserver{}
	}
	return &Responder{
		adapter:  adapter,
		registry: registry,
		svc:      svc,
		cfg:      cfg,
		logger:   logger,
		obs:      obs,
	}
}

// Respond produces the assistant reply for one user utterance. history
// holds the prior user/assistant turns, user is the logged-in profile
// (zero value for anonymous sessions). The returned text is always
// safe to show the customer, even when err is non-nil.
func (r *Responder) Respond(ctx context.Context, utterance string, history []Turn, user store.User) (string, error) {
	msgs := r.seedMessages(utterance, history)

	for iteration := 0; iteration < r.cfg.MaxIterations; iteration++ {
		input := llm.Context{Messages: msgs, Tools: r.registry.Descriptors()}

		start := time.Now()
		resp, err := llm.Retry(ctx, r.cfg.Retry, func(ctx context.Context) (llm.Response, error) {
			return r.adapter.Generate(ctx, input)
		})
		r.obs.RecordEvent(metrics.MetricsEvent{
			Name:  metrics.EventLLMLatencyMS,
			Time:  time.Now(),
			Value: float64(time.Since(start).Milliseconds()),
			Tags:  map[string]string{"adapter": r.adapter.Name()},
		})
		if err != nil {
			r.logger.Error("llm_generate_failed", "adapter", r.adapter.Name(), "iteration", iteration, "error", err)
			r.obs.RecordEvent(metrics.MetricsEvent{Name: metrics.EventLoopFallback, Time: time.Now(), Value: 1,
				Tags: map[string]string{"cause": "llm_error"}})
			return FallbackUnavailable, errorsx.Wrap(err, errorsx.ReasonLLMGenerate)
		}

		msgs = append(msgs, assistantMessage(resp))

		if len(resp.ToolCalls) == 0 {
			r.obs.RecordEvent(metrics.MetricsEvent{Name: metrics.EventLoopIterations, Time: time.Now(), Value: float64(iteration + 1)})
			return resp.Text, nil
		}

		for _, call := range resp.ToolCalls {
			args := cloneArgs(call.Arguments)
			if !user.IsZero() {
				substituteAccount(args, user.AccountNumber)
			}
			r.reconcileProfile(call.Name, args, user)
			result := r.dispatch(call, args)
			user = r.refreshUser(args, user)
			msgs = append(msgs, toolMessage(call, result))
		}
	}

	r.logger.Warn("tool_loop_exhausted", "max_iterations", r.cfg.MaxIterations)
	r.obs.RecordEvent(metrics.MetricsEvent{Name: metrics.EventLoopFallback, Time: time.Now(), Value: 1,
		Tags: map[string]string{"cause": "max_iterations"}})
	return FallbackGiveUp, fmt.Errorf("tool loop exceeded %d iterations", r.cfg.MaxIterations)
}

func (r *Responder) seedMessages(utterance string, history []Turn) []map[string]any {
	msgs := make([]map[string]any, 0, len(history)+2)
	msgs = append(msgs, map[string]any{"role": RoleSystem, "content": r.cfg.SystemPrompt})
	for _, turn := range history {
		if turn.Content == "" {
			continue
		}
		role := turn.Role
		if role != RoleUser && role != RoleAssistant {
			role = RoleUser
		}
		msgs = append(msgs, map[string]any{"role": role, "content": turn.Content})
	}
	return append(msgs, map[string]any{"role": RoleUser, "content": utterance})
}

// dispatch resolves and runs one capability request. Failures never
// abort the turn: unknown capabilities yield an empty result and
// handler errors come back as an error-shaped payload the reasoning
// service can relay.
func (r *Responder) dispatch(call llm.ToolCall, args map[string]any) string {
	r.obs.RecordEvent(metrics.MetricsEvent{Name: metrics.EventToolDispatch, Time: time.Now(), Value: 1,
		Tags: map[string]string{"tool": call.Name}})

	handler, err := r.registry.Resolve(call.Name)
	if err != nil {
		r.logger.Warn("tool_unknown", "tool", call.Name)
		return "{}"
	}
	out, err := handler(args)
	if err != nil {
		r.logger.Error("tool_dispatch_failed", "tool", call.Name, "error", err)
		return errorPayload(err)
	}
	r.logger.Debug("tool_dispatched", "tool", call.Name, "result_bytes", len(out))
	return out
}

// reconcileProfile forwards any profile-shaped argument values to the
// user record, so details the customer mentioned mid-conversation
// (salary, phone) survive the turn no matter which capability carried
// them. The record is keyed by the resolved account: the session's, or
// in anonymous sessions the explicit account the model supplied.
// Best effort: failures are logged and swallowed.
func (r *Responder) reconcileProfile(tool string, args map[string]any, user store.User) {
	acc := user.AccountNumber
	if acc == "" {
		if s, ok := args["account_number"].(string); ok {
			acc = strings.TrimSpace(s)
		}
	}
	if !store.ValidAccountNumber(acc) {
		return
	}
	fields := tools.StringFields(args)
	for k, v := range fields {
		if !store.IsUserColumn(k) || v == "" || v == store.DataNotAvailable {
			delete(fields, k)
		}
	}
	if len(fields) == 0 {
		return
	}
	if _, err := r.svc.UpdateProfile(acc, fields); err != nil {
		r.logger.Warn("profile_reconcile_failed", "tool", tool,
			"account_number", redact.Account(acc), "error", err)
	}
}

// refreshUser re-reads the profile after a dispatch so later calls in
// the same batch see writes made by earlier ones.
func (r *Responder) refreshUser(args map[string]any, user store.User) store.User {
	acc := user.AccountNumber
	if acc == "" {
		if s, ok := args["account_number"].(string); ok {
			acc = s
		}
	}
	if !store.ValidAccountNumber(acc) {
		return user
	}
	refreshed, found, err := r.svc.Profile(acc)
	if err != nil || !found {
		return user
	}
	return refreshed
}

// substituteAccount overrides the account_number argument with the
// session's account whenever the model omitted it or sent a
// placeholder. Anything that is not a well-formed account number
// counts as a placeholder.
func substituteAccount(args map[string]any, accountNumber string) {
	v, ok := args["account_number"]
	if ok {
		if s, isStr := v.(string); isStr && store.ValidAccountNumber(strings.TrimSpace(s)) {
			return
		}
	}
	args["account_number"] = accountNumber
}

func assistantMessage(resp llm.Response) map[string]any {
	m := map[string]any{"role": RoleAssistant, "content": resp.Text}
	if len(resp.ToolCalls) == 0 {
		return m
	}
	calls := make([]map[string]any, 0, len(resp.ToolCalls))
	for _, call := range resp.ToolCalls {
		raw, err := json.Marshal(call.Arguments)
		if err != nil {
			raw = []byte("{}")
		}
		calls = append(calls, map[string]any{
			"id":   call.ID,
			"type": "function",
			"function": map[string]any{
				"name":      call.Name,
				"arguments": string(raw),
			},
		})
	}
	m["tool_calls"] = calls
	return m
}

func toolMessage(call llm.ToolCall, result string) map[string]any {
	return map[string]any{
		"role":         RoleTool,
		"tool_call_id": call.ID,
		"name":         call.Name,
		"content":      result,
	}
}

func errorPayload(err error) string {
	b, merr := json.Marshal(map[string]string{"error": err.Error()})
	if merr != nil {
		return `{"error":"internal error"}`
	}
	return string(b)
}

func cloneArgs(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
