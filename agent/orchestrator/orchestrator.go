// Package orchestrator drives one turn of the message-handling pipeline:
// route the message to an agent, load or create the conversation, run the
// two-pass tool-calling protocol against the completion backend, and persist
// the assistant's reply before it is streamed to the caller.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	contractx "github.com/wiradal/deskmate/agent/contract"
	"github.com/wiradal/deskmate/agent/tool"
	"github.com/wiradal/deskmate/conversation"
)

const (
	historyLimit = 20
	titleLimit   = 100
)

// Order identifiers are a literal prefix followed by exactly three digits.
// Violations reject the whole turn before any tool executes; this is a hard
// precondition, unlike the advisory schema checks inside the executor.
var orderIDPattern = regexp.MustCompile(`^ORD-\d{3}$`)

// MessageRequest is one inbound user message. ConversationID is optional; a
// conversation is created lazily when it is empty or unknown.
type MessageRequest struct {
	ConversationID string `json:"conversationId,omitempty"`
	UserID         string `json:"userId"`
	Content        string `json:"content"`
}

// TurnResult is the completed outcome of a turn. Reply is already persisted
// when the result is returned, so streaming it to the caller can never
// desynchronize stored and displayed content.
type TurnResult struct {
	ConversationID string
	Agent          contractx.AgentType
	Reply          string
}

type Orchestrator struct {
	store   conversation.Store
	gateway contractx.CompletionGateway
	router  contractx.IntentRouter
	catalog contractx.AgentCatalog
	tools   contractx.ToolGateway

	now func() time.Time
}

func New(
	store conversation.Store,
	gateway contractx.CompletionGateway,
	router contractx.IntentRouter,
	catalog contractx.AgentCatalog,
	tools contractx.ToolGateway,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("conversation store is required")
	}
	if gateway == nil {
		return nil, errors.New("completion gateway is required")
	}
	if router == nil {
		return nil, errors.New("intent router is required")
	}
	if catalog == nil {
		return nil, errors.New("agent catalog is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}
	return &Orchestrator{
		store:   store,
		gateway: gateway,
		router:  router,
		catalog: catalog,
		tools:   tools,
		now:     time.Now,
	}, nil
}

// HandleMessage runs one orchestration turn. Turns for different
// conversations are independent; within a turn all steps are sequential
// except tool dispatch, whose results are reassembled by emission order.
func (o *Orchestrator) HandleMessage(ctx context.Context, req MessageRequest) (*TurnResult, error) {
	t := &turn{orc: o, req: req}

	if err := t.route(); err != nil {
		return nil, err
	}
	if err := t.ensureConversation(ctx); err != nil {
		return nil, err
	}
	if err := t.loadHistory(ctx); err != nil {
		return nil, err
	}
	if err := t.complete(ctx); err != nil {
		return nil, err
	}
	if err := t.persistReply(ctx); err != nil {
		return nil, err
	}

	return &TurnResult{
		ConversationID: t.conv.ID,
		Agent:          t.agent.Type,
		Reply:          t.reply,
	}, nil
}

// turn holds the per-turn state. It is never shared across turns, so no
// locking is needed.
type turn struct {
	orc *Orchestrator
	req MessageRequest

	agent   contractx.AgentDefinition
	conv    *conversation.Conversation
	history []contractx.ChatMessage
	reply   string
}

func (t *turn) route() error {
	if strings.TrimSpace(t.req.UserID) == "" {
		return fmt.Errorf("%w: userId is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(t.req.Content) == "" {
		return fmt.Errorf("%w: content is required", contractx.ErrValidation)
	}

	intent := t.orc.router.Classify(t.req.Content)
	t.agent = t.orc.catalog.Select(intent)

	log.Debug().
		Str("agent", string(t.agent.Type)).
		Str("user_id", t.req.UserID).
		Msg("turn routed")
	return nil
}

func (t *turn) ensureConversation(ctx context.Context) error {
	if err := t.orc.store.UpsertUser(ctx, t.req.UserID); err != nil {
		return fmt.Errorf("%w: upsert user: %v", contractx.ErrStore, err)
	}

	if t.req.ConversationID != "" {
		conv, err := t.orc.store.GetConversation(ctx, t.req.ConversationID)
		switch {
		case err == nil:
			t.conv = conv
		case errors.Is(err, conversation.ErrNotFound):
			// Fall through and create a new conversation.
		default:
			return fmt.Errorf("%w: load conversation: %v", contractx.ErrStore, err)
		}
	}

	now := t.orc.now().UTC()
	if t.conv == nil {
		t.conv = &conversation.Conversation{
			ID:        uuid.NewString(),
			UserID:    t.req.UserID,
			Title:     truncateTitle(t.req.Content),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := t.orc.store.CreateConversation(ctx, t.conv); err != nil {
			return fmt.Errorf("%w: create conversation: %v", contractx.ErrStore, err)
		}
	}

	userMsg := &conversation.Message{
		ID:             uuid.NewString(),
		ConversationID: t.conv.ID,
		Role:           string(contractx.RoleUser),
		Content:        t.req.Content,
		Agent:          "user",
		CreatedAt:      now,
	}
	if err := t.orc.store.AppendMessage(ctx, userMsg); err != nil {
		return fmt.Errorf("%w: append user message: %v", contractx.ErrStore, err)
	}
	return nil
}

func (t *turn) loadHistory(ctx context.Context) error {
	messages, err := t.orc.store.RecentMessages(ctx, t.conv.ID, historyLimit)
	if err != nil {
		return fmt.Errorf("%w: load history: %v", contractx.ErrStore, err)
	}
	t.history = make([]contractx.ChatMessage, 0, len(messages))
	for _, m := range messages {
		t.history = append(t.history, contractx.ChatMessage{
			Role:    contractx.Role(m.Role),
			Content: m.Content,
		})
	}
	return nil
}

func (t *turn) complete(ctx context.Context) error {
	// Lightweight path: an agent without tools never needs the tool pass.
	if len(t.agent.Tools) == 0 {
		text, err := t.orc.gateway.CompleteStream(ctx, contractx.CompletionRequest{
			System:   t.agent.SystemPrompt,
			Messages: t.history,
		}, nil)
		if err != nil {
			return err
		}
		t.reply = text
		return nil
	}

	first, err := t.orc.gateway.Complete(ctx, contractx.CompletionRequest{
		System:   t.agent.SystemPrompt,
		Messages: t.history,
		Tools:    t.agent.Tools,
	})
	if err != nil {
		return err
	}

	if len(first.ToolCalls) == 0 {
		t.reply = first.Text
		return nil
	}

	results, err := t.executeToolCalls(ctx, first.ToolCalls)
	if err != nil {
		return err
	}

	// Follow-up pass: the original history plus the assistant's tool-call
	// turn plus one result per call, in emission order, with no tool schema
	// so the backend must answer in plain text.
	followupMessages := make([]contractx.ChatMessage, 0, len(t.history)+1+len(results))
	followupMessages = append(followupMessages, t.history...)
	followupMessages = append(followupMessages, contractx.ChatMessage{
		Role:      contractx.RoleAssistant,
		ToolCalls: first.ToolCalls,
	})
	for i, call := range first.ToolCalls {
		payload, err := json.Marshal(results[i])
		if err != nil {
			return fmt.Errorf("%w: marshal tool result for %s: %v", contractx.ErrGateway, call.Name, err)
		}
		followupMessages = append(followupMessages, contractx.ChatMessage{
			Role:       contractx.RoleTool,
			Content:    string(payload),
			ToolCallID: call.ID,
		})
	}

	followup, err := t.orc.gateway.Complete(ctx, contractx.CompletionRequest{
		System:   t.agent.SystemPrompt,
		Messages: followupMessages,
	})
	if err != nil {
		return err
	}
	t.reply = followup.Text
	return nil
}

// executeToolCalls validates every call, then dispatches them concurrently.
// The returned payloads are indexed by the calls' emission order, so the
// follow-up message list is deterministic regardless of completion order.
func (t *turn) executeToolCalls(ctx context.Context, calls []contractx.ToolCall) ([]any, error) {
	parsed := make([]map[string]any, len(calls))
	for i, call := range calls {
		args, err := parseArguments(call.Arguments)
		if err != nil {
			return nil, fmt.Errorf("%w: tool call %s has malformed arguments: %v", contractx.ErrGateway, call.Name, err)
		}
		if call.Name == tool.ToolFetchOrderDetails {
			orderID, _ := args["orderId"].(string)
			if !orderIDPattern.MatchString(orderID) {
				return nil, fmt.Errorf("%w: invalid order ID. Please provide a valid order ID", contractx.ErrValidation)
			}
		}
		parsed[i] = args
	}

	results := make([]any, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			res, err := t.orc.tools.Execute(gctx, t.agent.Type, call.Name, parsed[i])
			if err != nil {
				return err
			}
			if res.Error != "" {
				results[i] = map[string]any{"error": res.Error}
			} else {
				results[i] = res.Result
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("agent", string(t.agent.Type)).
		Int("tool_calls", len(calls)).
		Msg("tool calls executed")
	return results, nil
}

// persistReply appends the assistant message and bumps the conversation's
// last-update timestamp. This happens before anything is streamed to the
// caller, so a dropped connection mid-stream never leaves stored and
// displayed content out of sync.
func (t *turn) persistReply(ctx context.Context) error {
	now := t.orc.now().UTC()
	assistantMsg := &conversation.Message{
		ID:             uuid.NewString(),
		ConversationID: t.conv.ID,
		Role:           string(contractx.RoleAssistant),
		Content:        t.reply,
		Agent:          string(t.agent.Type),
		CreatedAt:      now,
	}
	if err := t.orc.store.AppendMessage(ctx, assistantMsg); err != nil {
		return fmt.Errorf("%w: append assistant message: %v", contractx.ErrStore, err)
	}
	if err := t.orc.store.TouchConversation(ctx, t.conv.ID, now); err != nil {
		return fmt.Errorf("%w: touch conversation: %v", contractx.ErrStore, err)
	}
	return nil
}

func parseArguments(raw string) (map[string]any, error) {
	args := map[string]any{}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
		return nil, err
	}
	return args, nil
}

func truncateTitle(content string) string {
	runes := []rune(content)
	if len(runes) > titleLimit {
		return string(runes[:titleLimit])
	}
	return content
}
