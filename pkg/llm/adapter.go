package llm

import "context"

// Tool describes a capability the reasoning service may invoke.
type Tool struct {
	Name        string
	Description string
	Schema      any
}

// Context is one request to the reasoning service: the full message
// sequence plus the capability descriptors it may call.
type Context struct {
	Messages []map[string]any
	Tools    []Tool
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is a single reasoning-service message, optionally annotated
// with capability requests.
type Response struct {
	Text         string
	Usage        Usage
	FinishReason string
	ToolCalls    []ToolCall
}

// ToolCall is one capability request emitted by the service.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

type LLMAdapter interface {
	Generate(ctx context.Context, input Context) (Response, error)
	Stream(ctx context.Context, input Context) (<-chan string, error)
	MapTools(tools []Tool) (providerTools any, err error)
	Name() string
}
