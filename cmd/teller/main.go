package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/harunnryd/teller/pkg/configutil"
	"github.com/harunnryd/teller/pkg/llm"
	"github.com/harunnryd/teller/pkg/providers/mock"
	"github.com/harunnryd/teller/pkg/providers/openrouter"
	"github.com/harunnryd/teller/pkg/teller"
)

type openRouterSettings struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
	Referer string `mapstructure:"referer"`
	Title   string `mapstructure:"title"`
}

type mockLLMSettings struct {
	ResponseText string `mapstructure:"response_text"`
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := teller.LoadConfig(*configPath)
	if err != nil {
		slog.Error("config_load_failed", "path", *configPath, "error", err)
		os.Exit(1)
	}

	providers := teller.NewProviderRegistry()
	registerProviders(providers)

	app, err := teller.New(cfg, providers)
	if err != nil {
		slog.Error("engine_build_failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		slog.Error("engine_run_failed", "error", err)
		os.Exit(1)
	}
}

func registerProviders(reg *teller.ProviderRegistry) {
	reg.RegisterLLM("openrouter", func(cfg teller.Config) (llm.LLMAdapter, error) {
		if err := validateSettings("vendors.llm.settings", cfg.Vendors.LLM.Settings, configutil.Schema{
			Required: []string{"api_key", "model"},
			Optional: []string{"base_url", "referer", "title"},
		}); err != nil {
			return nil, err
		}
		var settings openRouterSettings
		if err := configutil.DecodeSettings(cfg.Vendors.LLM.Settings, &settings); err != nil {
			return nil, err
		}
		if err := configutil.RequireString(settings.APIKey, "vendors.llm.settings.api_key"); err != nil {
			return nil, err
		}
		if err := configutil.RequireString(settings.Model, "vendors.llm.settings.model"); err != nil {
			return nil, err
		}
		adapter := openrouter.NewAdapter(settings.APIKey, settings.Model)
		if settings.BaseURL != "" {
			adapter.BaseURL = settings.BaseURL
		}
		if settings.Referer != "" {
			adapter.Referer = settings.Referer
		}
		if settings.Title != "" {
			adapter.Title = settings.Title
		}
		return adapter, nil
	})

	reg.RegisterLLM("mock", func(cfg teller.Config) (llm.LLMAdapter, error) {
		if err := validateSettings("vendors.llm.settings", cfg.Vendors.LLM.Settings, configutil.Schema{
			Optional: []string{"response_text"},
		}); err != nil {
			return nil, err
		}
		var settings mockLLMSettings
		if err := configutil.DecodeSettings(cfg.Vendors.LLM.Settings, &settings); err != nil {
			return nil, err
		}
		var responses []llm.Response
		if settings.ResponseText != "" {
			responses = append(responses, llm.Response{Text: settings.ResponseText})
		}
		return mock.NewLLMAdapter(mock.LLMConfig{Responses: responses}), nil
	})
}

func validateSettings(path string, input map[string]any, schema configutil.Schema) error {
	if err := configutil.ValidateSettings(input, schema); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
