// Package llm adapts the external chat-completion backend. It performs no
// retries: any transport failure or malformed reply fails the turn.
package llm

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v2"

	contractx "github.com/wiradal/deskmate/agent/contract"
)

type Gateway struct {
	client *openaisdk.Client
	model  string
}

func NewGateway(client *openaisdk.Client, model string) *Gateway {
	return &Gateway{
		client: client,
		model:  strings.TrimSpace(model),
	}
}

var _ contractx.CompletionGateway = (*Gateway)(nil)

// Complete performs a single request/response exchange. When the backend
// answers with tool calls, the reply's textual content is suppressed.
func (g *Gateway) Complete(ctx context.Context, req contractx.CompletionRequest) (*contractx.Completion, error) {
	params, err := g.buildParams(req)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: completion request: %v", contractx.ErrGateway, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: completion response has no choices", contractx.ErrGateway)
	}

	msg := resp.Choices[0].Message
	out := &contractx.Completion{}
	for _, call := range msg.ToolCalls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tool call with empty name", contractx.ErrGateway)
		}
		out.ToolCalls = append(out.ToolCalls, contractx.ToolCall{
			ID:        call.ID,
			Name:      name,
			Arguments: call.Function.Arguments,
		})
	}
	if len(out.ToolCalls) == 0 {
		out.Text = msg.Content
	}
	return out, nil
}

// CompleteStream performs a streaming exchange, invoking fn for each text
// delta in arrival order, and returns the accumulated full text.
func (g *Gateway) CompleteStream(ctx context.Context, req contractx.CompletionRequest, fn func(delta string) error) (string, error) {
	params, err := g.buildParams(req)
	if err != nil {
		return "", err
	}

	stream := g.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	var full strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if fn != nil {
			if err := fn(delta); err != nil {
				return "", err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("%w: streaming completion: %v", contractx.ErrGateway, err)
	}
	return full.String(), nil
}

func (g *Gateway) buildParams(req contractx.CompletionRequest) (openaisdk.ChatCompletionNewParams, error) {
	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openaisdk.SystemMessage(req.System))
	}

	for _, m := range req.Messages {
		switch m.Role {
		case contractx.RoleUser:
			messages = append(messages, openaisdk.UserMessage(m.Content))
		case contractx.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				messages = append(messages, openaisdk.AssistantMessage(m.Content))
				continue
			}
			assistant := openaisdk.ChatCompletionAssistantMessageParam{}
			for _, c := range m.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openaisdk.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openaisdk.ChatCompletionMessageFunctionToolCallParam{
						ID: c.ID,
						Function: openaisdk.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      c.Name,
							Arguments: c.Arguments,
						},
					},
				})
			}
			messages = append(messages, openaisdk.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case contractx.RoleTool:
			messages = append(messages, openaisdk.ToolMessage(m.Content, m.ToolCallID))
		default:
			return openaisdk.ChatCompletionNewParams{}, fmt.Errorf("%w: unsupported message role %q", contractx.ErrValidation, m.Role)
		}
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(g.model),
		Messages: messages,
	}

	if len(req.Tools) > 0 {
		for _, s := range req.Tools {
			params.Tools = append(params.Tools, openaisdk.ChatCompletionFunctionTool(openaisdk.FunctionDefinitionParam{
				Name:        s.Name,
				Description: openaisdk.String(s.Description),
				Parameters:  openaisdk.FunctionParameters(s.JSONParameters()),
			}))
		}
		// The backend decides whether to call a tool.
		params.ToolChoice = openaisdk.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openaisdk.String("auto"),
		}
	}

	return params, nil
}
