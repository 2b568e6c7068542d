package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	contractx "github.com/wiradal/deskmate/agent/contract"
)

const (
	ToolQueryConversationHistory = "query_conversation_history"
	ToolGetFAQ                   = "get_faq"
	ToolCreateSupportTicket      = "create_support_ticket"
)

const defaultHistoryLimit = 5

var faqArticles = map[string][]string{
	"shipping": {
		"How long does shipping take? Standard: 5-7 days, Express: 2-3 days",
		"Do you ship internationally? Yes, we ship to 50+ countries",
		"Can I track my order? Yes, tracking info is sent via email",
	},
	"returns": {
		"What is your return policy? 30 days money-back guarantee",
		"How do I return an item? Use our online return portal",
		"When will I get my refund? 5-10 business days after return",
	},
	"account": {
		"How do I reset my password? Click 'Forgot Password' on login",
		"Can I change my email? Yes, in Account Settings",
		"How do I delete my account? Contact support@example.com",
	},
	"technical": {
		"What browsers are supported? Chrome, Firefox, Safari, Edge",
		"Is the app mobile-friendly? Yes, fully responsive",
		"What if I encounter a bug? Email bugs@example.com with details",
	},
}

func supportSchemas() []contractx.ToolSchema {
	return []contractx.ToolSchema{
		{
			Name:        ToolQueryConversationHistory,
			Description: "INTERNAL SUPPORT TOOL. Use ONLY when explicitly instructed by the system prompt. NEVER call this tool to infer order, billing, or user intent.",
			Params: []contractx.ToolParam{
				{Name: "keyword", Type: "string", Description: "Search keyword or topic", Required: true},
				{Name: "limit", Type: "number", Description: "Number of results"},
			},
		},
		{
			Name:        ToolGetFAQ,
			Description: "Get FAQ articles",
			Params: []contractx.ToolParam{
				{Name: "topic", Type: "string", Description: "FAQ topic (shipping, returns, account, technical, billing)", Required: true},
			},
		},
		{
			Name:        ToolCreateSupportTicket,
			Description: "Create a support ticket for complex issues",
			Params: []contractx.ToolParam{
				{Name: "subject", Type: "string", Required: true},
				{Name: "description", Type: "string", Required: true},
				{Name: "priority", Type: "string", Enum: []string{"low", "medium", "high"}},
			},
		},
	}
}

func (g *Gateway) executeSupportTool(ctx context.Context, tool string, args map[string]any) contractx.ToolResult {
	switch tool {
	case ToolQueryConversationHistory:
		if g.history == nil {
			return contractx.ToolResult{Tool: tool, Result: map[string]any{"error": "Conversation history is unavailable"}}
		}
		limit := int(numberArg(args, "limit"))
		if limit <= 0 {
			limit = defaultHistoryLimit
		}
		messages, err := g.history.SearchMessages(ctx, stringArg(args, "keyword"), limit)
		if err != nil {
			return contractx.ToolResult{Tool: tool, Result: map[string]any{"error": "History search failed"}}
		}
		entries := make([]map[string]any, 0, len(messages))
		for _, m := range messages {
			entries = append(entries, map[string]any{
				"role":      m.Role,
				"content":   m.Content,
				"timestamp": m.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		return contractx.ToolResult{Tool: tool, Result: entries}

	case ToolGetFAQ:
		topic := strings.ToLower(stringArg(args, "topic"))
		articles, ok := faqArticles[topic]
		if !ok {
			topics := make([]string, 0, len(faqArticles))
			for t := range faqArticles {
				topics = append(topics, t)
			}
			return contractx.ToolResult{Tool: tool, Result: map[string]any{
				"error":           "Unknown FAQ topic",
				"availableTopics": topics,
			}}
		}
		return contractx.ToolResult{Tool: tool, Result: map[string]any{
			"topic":    topic,
			"articles": articles,
		}}

	case ToolCreateSupportTicket:
		priority := stringArg(args, "priority")
		if priority == "" {
			priority = "medium"
		}
		return contractx.ToolResult{Tool: tool, Result: map[string]any{
			"ticketId":  fmt.Sprintf("TKT-%d", time.Now().UnixMilli()),
			"subject":   stringArg(args, "subject"),
			"status":    "open",
			"priority":  priority,
			"createdAt": time.Now().UTC().Format(time.RFC3339),
			"message":   "Support ticket created. We'll respond within 24 hours.",
		}}

	default:
		return unknownTool(tool)
	}
}
