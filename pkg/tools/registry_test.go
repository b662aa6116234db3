package tools

import (
	"errors"
	"testing"

	"github.com/harunnryd/teller/pkg/llm"
)

func TestRegisterRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	tool := llm.Tool{Name: "get_balance"}
	h := func(map[string]any) (string, error) { return "{}", nil }
	if err := reg.Register(tool, h); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register(tool, h); !errors.Is(err, ErrDuplicateTool) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestResolveUnknown(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Resolve("nope"); !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("expected unknown tool error, got %v", err)
	}
}

func TestDescriptorsKeepRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	h := func(map[string]any) (string, error) { return "{}", nil }
	names := []string{"c_tool", "a_tool", "b_tool"}
	for _, name := range names {
		if err := reg.Register(llm.Tool{Name: name}, h); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	got := reg.Descriptors()
	if len(got) != len(names) {
		t.Fatalf("expected %d descriptors, got %d", len(names), len(got))
	}
	for i, name := range names {
		if got[i].Name != name {
			t.Fatalf("descriptor %d = %s, want %s", i, got[i].Name, name)
		}
	}
}

func TestHandleToolDispatches(t *testing.T) {
	reg := NewRegistry()
	var gotArgs map[string]any
	reg.MustRegister(llm.Tool{Name: "echo"}, func(args map[string]any) (string, error) {
		gotArgs = args
		return `{"ok":true}`, nil
	})
	out, err := reg.HandleTool("echo", map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if out != `{"ok":true}` || gotArgs["k"] != "v" {
		t.Fatalf("unexpected dispatch: out=%q args=%+v", out, gotArgs)
	}
}
