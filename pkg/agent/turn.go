package agent

// Turn is one role-tagged message of caller-held conversation history.
// Only plain user/assistant turns cross the API boundary; tool turns
// live inside a single Respond invocation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)
