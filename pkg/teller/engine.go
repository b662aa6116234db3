package teller

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/harunnryd/teller/pkg/agent"
	"github.com/harunnryd/teller/pkg/bank"
	"github.com/harunnryd/teller/pkg/configutil"
	"github.com/harunnryd/teller/pkg/llm"
	"github.com/harunnryd/teller/pkg/logging"
	"github.com/harunnryd/teller/pkg/metrics"
	"github.com/harunnryd/teller/pkg/redact"
	"github.com/harunnryd/teller/pkg/runner"
	"github.com/harunnryd/teller/pkg/store"
	"github.com/harunnryd/teller/pkg/tools"
	"github.com/harunnryd/teller/pkg/transports"
	"github.com/harunnryd/teller/pkg/transports/chat"
)

// Engine wires the stores, the banking service, the capability
// registry, the agent loop and a transport into one runnable unit.
type Engine struct {
	cfg       Config
	logger    *slog.Logger
	obs       metrics.Observer
	svc       *bank.Service
	registry  *tools.Registry
	responder *agent.Responder
	transport transports.Transport
	lifecycle *runner.LifecycleRunner

	metricsFile *os.File
}

func New(cfg Config, providers *ProviderRegistry) (*Engine, error) {
	logger := logging.InitLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	slog.SetDefault(logger)
	redact.SetEnabled(cfg.Privacy.RedactPII)

	e := &Engine{cfg: cfg, logger: logger}

	if err := e.buildObserver(); err != nil {
		return nil, err
	}
	if err := e.buildService(); err != nil {
		return nil, err
	}
	if err := e.buildResponder(providers); err != nil {
		return nil, err
	}
	if err := e.buildTransport(); err != nil {
		return nil, err
	}

	e.lifecycle = runner.NewLifecycleRunner(e, runner.Hooks{
		OnStart: func() {
			fields := []any{"transport", e.transport.Name()}
			if rr, ok := e.transport.(transports.ReadyReporter); ok {
				for k, v := range rr.ReadyFields() {
					fields = append(fields, k, v)
				}
			}
			logger.Info("engine_ready", fields...)
		},
		OnStop: func() {
			logger.Info("engine_stopped")
		},
	}, 10*time.Second)

	return e, nil
}

func (e *Engine) buildObserver() error {
	if e.cfg.Observability.MetricsPath == "" {
		e.obs = metrics.NewMemoryObserver()
		return nil
	}
	f, err := os.OpenFile(e.cfg.Observability.MetricsPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open metrics file: %w", err)
	}
	e.metricsFile = f
	e.obs = metrics.NewJSONLObserver(f)
	return nil
}

func (e *Engine) buildService() error {
	if err := os.MkdirAll(e.cfg.Store.Dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	users := store.NewCSVUserStore(e.cfg.Store.UsersPath())
	loans := store.NewCSVLoanStore(e.cfg.Store.LoansPath())
	deposits := store.NewCSVDepositStore(e.cfg.Store.DepositsPath())
	e.svc = bank.NewService(users, loans, deposits, logging.NewComponentLogger(e.logger, "bank"))
	e.registry = tools.NewBankRegistry(e.svc)
	return nil
}

func (e *Engine) buildResponder(providers *ProviderRegistry) error {
	if providers == nil {
		return fmt.Errorf("provider registry is required")
	}
	adapter, err := providers.BuildLLM(e.cfg.Vendors.LLM.Provider, e.cfg)
	if err != nil {
		return err
	}
	breaker := llm.NewCircuitBreakerAdapter(adapter, nil)
	breaker.SetObserver(e.obs)

	e.responder = agent.NewResponder(breaker, e.registry, e.svc, agent.Config{
		SystemPrompt:  e.cfg.Agent.SystemPrompt,
		MaxIterations: e.cfg.Agent.MaxIterations,
		Retry: llm.RetryConfig{
			MaxAttempts: e.cfg.Agent.RetryAttempts,
			BaseDelay:   time.Duration(e.cfg.Agent.RetryBackoffMS) * time.Millisecond,
			MaxDelay:    time.Duration(e.cfg.Agent.RetryMaxDelayMS) * time.Millisecond,
			Jitter:      e.cfg.Agent.RetryJitter,
		},
	}, logging.NewComponentLogger(e.logger, "agent"), e.obs)
	return nil
}

func (e *Engine) buildTransport() error {
	switch e.cfg.Transport.Provider {
	case "chat", "":
		if err := configutil.ValidateSettings(e.cfg.Transport.Settings, configutil.Schema{
			Optional: []string{"server_addr", "chat_path", "ws_path", "turn_timeout", "allow_any_origin", "allowed_origins"},
		}); err != nil {
			return fmt.Errorf("transport.settings: %w", err)
		}
		var tcfg chat.Config
		if err := configutil.DecodeSettings(e.cfg.Transport.Settings, &tcfg); err != nil {
			return fmt.Errorf("transport settings: %w", err)
		}
		e.transport = chat.New(tcfg, e.responder, e.svc,
			logging.NewComponentLogger(e.logger, "transport"), e.obs)
		return nil
	default:
		return fmt.Errorf("transport provider not registered: %s", e.cfg.Transport.Provider)
	}
}

// Run starts the transport and blocks until the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := e.transport.Start(ctx); err != nil {
		return err
	}
	return e.lifecycle.Run(ctx)
}

func (e *Engine) Stop() error {
	return e.lifecycle.Stop()
}

func (e *Engine) State() runner.State { return e.lifecycle.State() }

// Service exposes the banking service for embedding callers.
func (e *Engine) Service() *bank.Service { return e.svc }

// Responder exposes the agent loop for embedding callers.
func (e *Engine) Responder() *agent.Responder { return e.responder }

// Drain implements runner.Drainer: close the transport and flush
// buffered metrics.
func (e *Engine) Drain() error {
	err := e.transport.Stop()
	if f, ok := e.obs.(metrics.Flusher); ok {
		_ = f.Flush()
	}
	if e.metricsFile != nil {
		_ = e.metricsFile.Close()
		e.metricsFile = nil
	}
	return err
}
