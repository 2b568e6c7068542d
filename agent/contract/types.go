package contract

// AgentType identifies one of the fixed set of specialized agents.
type AgentType string

const (
	AgentTypeSupport AgentType = "support"
	AgentTypeOrder   AgentType = "order"
	AgentTypeBilling AgentType = "billing"
)

// AgentDefinition is the static configuration of a single agent. Definitions
// are built once at process start and never mutated afterwards.
type AgentDefinition struct {
	Type         AgentType
	Name         string
	Description  string
	SystemPrompt string
	Tools        []ToolSchema
}

// Role is a chat message role as understood by the completion backend.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ChatMessage is one entry in a completion request's message list. An
// assistant message carrying ToolCalls has empty Content; a tool message
// carries the serialized tool result and the correlation id it answers.
type ChatMessage struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolCall is a tool invocation requested by the completion backend.
// ID correlates the call with its result in the follow-up request.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolResult is the outcome of executing a single tool call. Result holds the
// structured payload on success; Error is set when the call could not be
// dispatched at all (for example an unknown tool name). Both shapes are valid
// protocol data and are fed back to the completion backend.
type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// CompletionRequest is the input to a single completion call.
type CompletionRequest struct {
	System   string
	Messages []ChatMessage
	Tools    []ToolSchema
}

// Completion is the backend's reply to a single-shot request. When ToolCalls
// is non-empty, Text is suppressed: tool-call turns are never shown to the
// caller.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// ToolParam describes one parameter of a tool schema.
type ToolParam struct {
	Name        string
	Type        string
	Description string
	Enum        []string
	Required    bool
}

// ToolSchema describes a callable tool: advertised to the completion backend
// as a JSON-schema function descriptor and used to validate requested calls.
type ToolSchema struct {
	Name        string
	Description string
	Params      []ToolParam
}

// JSONParameters renders the schema's parameters as a JSON-schema object of
// the shape the chat-completion API expects.
func (s ToolSchema) JSONParameters() map[string]any {
	properties := make(map[string]any, len(s.Params))
	var required []string
	for _, p := range s.Params {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	params := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		params["required"] = required
	}
	return params
}

// RequiredParams returns the names of the schema's required parameters.
func (s ToolSchema) RequiredParams() []string {
	var required []string
	for _, p := range s.Params {
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return required
}
