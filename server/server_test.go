package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	contractx "github.com/wiradal/deskmate/agent/contract"
	"github.com/wiradal/deskmate/agent/orchestrator"
	"github.com/wiradal/deskmate/agent/registry"
	"github.com/wiradal/deskmate/conversation"
)

// fakeTurns answers every message with a canned turn result.
type fakeTurns struct {
	result *orchestrator.TurnResult
	err    error

	gotReq orchestrator.MessageRequest
}

func (f *fakeTurns) HandleMessage(_ context.Context, req orchestrator.MessageRequest) (*orchestrator.TurnResult, error) {
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestServer(t *testing.T, turns TurnHandler, store conversation.Store) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	New(turns, store, registry.New()).MountRoutes(r)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

// collectStream parses the SSE body into text frames and reports whether the
// terminal done frame arrived.
func collectStream(t *testing.T, body *bufio.Scanner) (string, bool) {
	t.Helper()
	var text strings.Builder
	done := false
	for body.Scan() {
		line := body.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame struct {
			Text string `json:"text"`
			Done bool   `json:"done"`
		}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err != nil {
			t.Fatalf("malformed frame %q: %v", line, err)
		}
		if frame.Done {
			done = true
			continue
		}
		text.WriteString(frame.Text)
	}
	return text.String(), done
}

func TestHandleMessageStreamsReply(t *testing.T) {
	t.Parallel()

	turns := &fakeTurns{result: &orchestrator.TurnResult{
		ConversationID: "c1",
		Agent:          contractx.AgentTypeOrder,
		Reply:          strings.Repeat("Your order is on the way. ", 10),
	}}
	ts := newTestServer(t, turns, conversation.NewMemoryStore())

	resp, err := http.Post(ts.URL+"/api/chat/messages", "application/json",
		strings.NewReader(`{"userId":"u1","content":"where is my order ORD-001"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type: %q", ct)
	}
	if turns.gotReq.UserID != "u1" {
		t.Fatalf("request not decoded: %+v", turns.gotReq)
	}

	text, done := collectStream(t, bufio.NewScanner(resp.Body))
	if text != turns.result.Reply {
		t.Fatalf("reassembled text mismatch:\n got %q\nwant %q", text, turns.result.Reply)
	}
	if !done {
		t.Fatal("missing terminal done frame")
	}
}

func TestHandleMessageInvalidBody(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeTurns{}, conversation.NewMemoryStore())

	resp, err := http.Post(ts.URL+"/api/chat/messages", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHandleMessageValidationError(t *testing.T) {
	t.Parallel()

	turns := &fakeTurns{err: contractx.ErrValidation}
	ts := newTestServer(t, turns, conversation.NewMemoryStore())

	resp, err := http.Post(ts.URL+"/api/chat/messages", "application/json",
		strings.NewReader(`{"content":"hello"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON error, got %q", ct)
	}
}

func TestHandleMessageGatewayError(t *testing.T) {
	t.Parallel()

	turns := &fakeTurns{err: contractx.ErrGateway}
	ts := newTestServer(t, turns, conversation.NewMemoryStore())

	resp, err := http.Post(ts.URL+"/api/chat/messages", "application/json",
		strings.NewReader(`{"userId":"u1","content":"hello"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestListConversationsRequiresUserID(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeTurns{}, conversation.NewMemoryStore())

	resp, err := http.Get(ts.URL + "/api/chat/conversations")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "userId required" {
		t.Fatalf("unexpected error message: %q", body.Error)
	}
}

func TestListConversationsEmptyIsJSONArray(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeTurns{}, conversation.NewMemoryStore())

	resp, err := http.Get(ts.URL + "/api/chat/conversations?userId=u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	var convs []conversation.Conversation
	if err := json.NewDecoder(resp.Body).Decode(&convs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if convs == nil || len(convs) != 0 {
		t.Fatalf("expected empty array, got %v", convs)
	}
}

func TestGetConversationWithMessages(t *testing.T) {
	t.Parallel()

	store := conversation.NewMemoryStore()
	now := time.Now().UTC()
	seedConversation(t, store, "c1", "u1", now)
	seedMessage(t, store, "c1", "m1", "user", "hello", now)

	ts := newTestServer(t, &fakeTurns{}, store)

	resp, err := http.Get(ts.URL + "/api/chat/conversations/c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	var conv conversation.Conversation
	if err := json.NewDecoder(resp.Body).Decode(&conv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if conv.ID != "c1" || len(conv.Messages) != 1 {
		t.Fatalf("unexpected conversation: %+v", conv)
	}
}

func TestGetConversationNotFound(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeTurns{}, conversation.NewMemoryStore())

	resp, err := http.Get(ts.URL + "/api/chat/conversations/missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDeleteConversation(t *testing.T) {
	t.Parallel()

	store := conversation.NewMemoryStore()
	seedConversation(t, store, "c1", "u1", time.Now().UTC())
	ts := newTestServer(t, &fakeTurns{}, store)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/chat/conversations/c1", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	var body map[string]bool
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body["success"] {
		t.Fatalf("unexpected body: %v", body)
	}

	// second delete is a 404
	resp2, err := http.DefaultClient.Do(req.Clone(context.Background()))
	if err != nil {
		t.Fatalf("delete again: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp2.StatusCode)
	}
}

func TestListAgents(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeTurns{}, conversation.NewMemoryStore())

	resp, err := http.Get(ts.URL + "/api/agents")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var agents []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&agents); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(agents) != 3 {
		t.Fatalf("expected 3 agents, got %d", len(agents))
	}
	if agents[0].ID != "support" || agents[1].ID != "order" || agents[2].ID != "billing" {
		t.Fatalf("unexpected agent order: %+v", agents)
	}
}

func TestAgentCapabilities(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeTurns{}, conversation.NewMemoryStore())

	resp, err := http.Get(ts.URL + "/api/agents/order/capabilities")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		Type  string   `json:"type"`
		Tools []string `json:"tools"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Type != "order" {
		t.Fatalf("unexpected type: %q", body.Type)
	}
	if len(body.Tools) != 4 {
		t.Fatalf("expected 4 tools, got %v", body.Tools)
	}
}

func TestAgentCapabilitiesUnknown(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeTurns{}, conversation.NewMemoryStore())

	resp, err := http.Get(ts.URL + "/api/agents/escalation/capabilities")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeTurns{}, conversation.NewMemoryStore())

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected health body: %v", body)
	}
}

func seedConversation(t *testing.T, store conversation.Store, id, userID string, at time.Time) {
	t.Helper()
	err := store.CreateConversation(context.Background(), &conversation.Conversation{
		ID: id, UserID: userID, Title: "seeded", CreatedAt: at, UpdatedAt: at,
	})
	if err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
}

func seedMessage(t *testing.T, store conversation.Store, convID, msgID, role, content string, at time.Time) {
	t.Helper()
	err := store.AppendMessage(context.Background(), &conversation.Message{
		ID: msgID, ConversationID: convID, Role: role, Content: content, Agent: role, CreatedAt: at,
	})
	if err != nil {
		t.Fatalf("seed message: %v", err)
	}
}
