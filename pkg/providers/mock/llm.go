package mock

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/harunnryd/teller/pkg/llm"
)

// LLMAdapter replays a scripted sequence of responses. The last script
// entry is repeated once the sequence is exhausted, so a single-entry
// config behaves like a fixed canned reply.
type LLMAdapter struct {
	mu       sync.Mutex
	cfg      LLMConfig
	step     int
	Requests []llm.Context
}

type LLMConfig struct {
	Responses    []llm.Response
	Err          error
	StreamChunks []string
}

func NewLLMAdapter(cfg LLMConfig) *LLMAdapter {
	if len(cfg.Responses) == 0 && cfg.Err == nil {
		cfg.Responses = []llm.Response{{Text: "mock response"}}
	}
	return &LLMAdapter{cfg: cfg}
}

// NewToolCall builds a tool call with a generated id, for scripted tests.
func NewToolCall(name string, args map[string]any) llm.ToolCall {
	return llm.ToolCall{ID: uuid.NewString(), Name: name, Arguments: args}
}

func (a *LLMAdapter) Name() string { return "mock_llm" }

func (a *LLMAdapter) Generate(ctx context.Context, input llm.Context) (llm.Response, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Requests = append(a.Requests, cloneContext(input))
	if a.cfg.Err != nil {
		return llm.Response{}, a.cfg.Err
	}
	resp := a.cfg.Responses[a.step]
	if a.step < len(a.cfg.Responses)-1 {
		a.step++
	}
	return resp, nil
}

func (a *LLMAdapter) Stream(ctx context.Context, input llm.Context) (<-chan string, error) {
	if a.cfg.Err != nil {
		return nil, a.cfg.Err
	}
	out := make(chan string, 4)
	if len(a.cfg.StreamChunks) > 0 {
		for _, chunk := range a.cfg.StreamChunks {
			out <- chunk
		}
	} else if len(a.cfg.Responses) > 0 {
		out <- a.cfg.Responses[len(a.cfg.Responses)-1].Text
	}
	close(out)
	return out, nil
}

func (a *LLMAdapter) MapTools(tools []llm.Tool) (any, error) {
	return nil, nil
}

func cloneContext(in llm.Context) llm.Context {
	msgs := make([]map[string]any, len(in.Messages))
	copy(msgs, in.Messages)
	return llm.Context{Messages: msgs, Tools: in.Tools}
}
