package contract

import "context"

// CompletionGateway adapts the external completion backend. Implementations
// perform no retries: a transport failure or malformed reply surfaces as an
// error wrapping ErrGateway and fails the turn.
type CompletionGateway interface {
	// Complete performs a single request/response exchange. When req.Tools is
	// non-empty the backend may answer with tool calls instead of text.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)

	// CompleteStream performs a streaming exchange, invoking fn for each text
	// delta in arrival order, and returns the accumulated full text. fn may
	// be nil when only the accumulated text is needed.
	CompleteStream(ctx context.Context, req CompletionRequest, fn func(delta string) error) (string, error)
}

// ToolGateway dispatches a requested tool call to the owning agent domain.
// Unknown tool names yield a structured ToolResult, not an error.
type ToolGateway interface {
	Execute(ctx context.Context, agentType AgentType, tool string, args map[string]any) (ToolResult, error)
}

// IntentRouter classifies a raw user message into an agent identity.
type IntentRouter interface {
	Classify(text string) AgentType
}

// AgentCatalog exposes the static agent definitions.
type AgentCatalog interface {
	Select(agentType AgentType) AgentDefinition
	All() []AgentDefinition
}
