// Package tool defines the per-agent tool schemas and executes requested
// calls against static reference data. Execution never mutates durable state.
package tool

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/wiradal/deskmate/agent/contract"
	"github.com/wiradal/deskmate/conversation"
)

// MessageSearcher is the read-only slice of the conversation store needed by
// the support domain's history tool.
type MessageSearcher interface {
	SearchMessages(ctx context.Context, keyword string, limit int) ([]conversation.Message, error)
}

// Gateway dispatches tool calls to the owning agent domain. Dispatch is a
// closed lookup: an unrecognized tool name yields a structured error result,
// never a Go error, because it is valid protocol data for the follow-up call.
type Gateway struct {
	history MessageSearcher
}

func NewGateway(history MessageSearcher) *Gateway {
	return &Gateway{history: history}
}

var _ contractx.ToolGateway = (*Gateway)(nil)

func (g *Gateway) Execute(ctx context.Context, agentType contractx.AgentType, tool string, args map[string]any) (contractx.ToolResult, error) {
	if missing := missingParams(ForAgent(agentType), tool, args); len(missing) > 0 {
		return contractx.ToolResult{
			Tool:  tool,
			Error: fmt.Sprintf("missing required parameters: %s", strings.Join(missing, ", ")),
		}, nil
	}

	switch agentType {
	case contractx.AgentTypeOrder:
		return executeOrderTool(tool, args), nil
	case contractx.AgentTypeBilling:
		return executeBillingTool(tool, args), nil
	case contractx.AgentTypeSupport:
		return g.executeSupportTool(ctx, tool, args), nil
	default:
		return unknownTool(tool), nil
	}
}

// ForAgent returns the tool schemas an agent advertises to the completion
// backend. The slices are rebuilt per call so callers cannot mutate the
// catalog.
func ForAgent(agentType contractx.AgentType) []contractx.ToolSchema {
	switch agentType {
	case contractx.AgentTypeOrder:
		return orderSchemas()
	case contractx.AgentTypeBilling:
		return billingSchemas()
	case contractx.AgentTypeSupport:
		return supportSchemas()
	default:
		return nil
	}
}

func unknownTool(tool string) contractx.ToolResult {
	return contractx.ToolResult{
		Tool:  tool,
		Error: "unknown tool",
	}
}

// missingParams checks the requested call's arguments against the schema's
// required fields. Advisory only: the backend is expected to honor the
// schema, and a violation is reported back to it as a structured result.
func missingParams(schemas []contractx.ToolSchema, tool string, args map[string]any) []string {
	for _, s := range schemas {
		if s.Name != tool {
			continue
		}
		var missing []string
		for _, name := range s.RequiredParams() {
			if _, ok := args[name]; !ok {
				missing = append(missing, name)
			}
		}
		return missing
	}
	return nil
}

func stringArg(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return v
}

func numberArg(args map[string]any, name string) float64 {
	v, _ := args[name].(float64)
	return v
}
