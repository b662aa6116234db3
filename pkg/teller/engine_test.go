package teller

import (
	"context"
	"testing"

	"github.com/harunnryd/teller/pkg/llm"
	"github.com/harunnryd/teller/pkg/providers/mock"
	"github.com/harunnryd/teller/pkg/store"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Vendors:   VendorsConfig{LLM: VendorConfig{Provider: "mock"}},
		Transport: TransportConfig{Provider: "chat"},
		Store: StoreConfig{
			Dir:          t.TempDir(),
			UsersFile:    "bank_users.csv",
			LoansFile:    "approved_loans.csv",
			DepositsFile: "fixed_deposits.csv",
		},
		Agent:     AgentConfig{MaxIterations: 8, RetryAttempts: 1},
		LogLevel:  "error",
		LogFormat: "text",
	}
}

func mockProviders(responses ...llm.Response) *ProviderRegistry {
	providers := NewProviderRegistry()
	providers.RegisterLLM("mock", func(cfg Config) (llm.LLMAdapter, error) {
		return mock.NewLLMAdapter(mock.LLMConfig{Responses: responses}), nil
	})
	return providers
}

func TestEngineAssembly(t *testing.T) {
	e, err := New(testConfig(t), mockProviders(llm.Response{Text: "hello there"}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := e.Service().RegisterUser(store.User{AccountNumber: "1234567890", Name: "Asha"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	out, err := e.Responder().Respond(context.Background(), "hi", nil, store.User{AccountNumber: "1234567890"})
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if out != "hello there" {
		t.Fatalf("out = %q", out)
	}
	if err := e.Drain(); err != nil {
		t.Fatalf("drain: %v", err)
	}
}

func TestEngineUnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.Vendors.LLM.Provider = "nope"
	if _, err := New(cfg, mockProviders()); err == nil {
		t.Fatalf("expected provider error")
	}
}

func TestEngineUnknownTransport(t *testing.T) {
	cfg := testConfig(t)
	cfg.Transport.Provider = "carrier-pigeon"
	if _, err := New(cfg, mockProviders(llm.Response{Text: "x"})); err == nil {
		t.Fatalf("expected transport error")
	}
}
