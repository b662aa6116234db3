package tools

import (
	"errors"
	"fmt"

	"github.com/harunnryd/teller/pkg/llm"
)

var (
	ErrDuplicateTool = errors.New("tool already registered")
	ErrUnknownTool   = errors.New("unknown tool")
)

// Handler executes one capability call and returns a JSON-encoded result.
type Handler func(args map[string]any) (string, error)

// Registry binds capability names to handlers and keeps descriptors in
// registration order, as the reasoning service receives them verbatim.
// It is populated once at startup and read-only afterwards.
type Registry struct {
	tools    []llm.Tool
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(tool llm.Tool, h Handler) error {
	if _, exists := r.handlers[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, tool.Name)
	}
	r.tools = append(r.tools, tool)
	r.handlers[tool.Name] = h
	return nil
}

// MustRegister panics on duplicate names; registration happens at
// process start where a duplicate is a programming error.
func (r *Registry) MustRegister(tool llm.Tool, h Handler) {
	if err := r.Register(tool, h); err != nil {
		panic(err)
	}
}

func (r *Registry) Resolve(name string) (Handler, error) {
	h := r.handlers[name]
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return h, nil
}

// Descriptors returns the tool list in registration order.
func (r *Registry) Descriptors() []llm.Tool {
	out := make([]llm.Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

func (r *Registry) Tools() []llm.Tool {
	return r.Descriptors()
}

func (r *Registry) HandleTool(name string, args map[string]any) (string, error) {
	h, err := r.Resolve(name)
	if err != nil {
		return "", err
	}
	return h(args)
}

var _ llm.ToolRegistry = (*Registry)(nil)
