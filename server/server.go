// Package server exposes the chat orchestration pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	contractx "github.com/wiradal/deskmate/agent/contract"
	"github.com/wiradal/deskmate/agent/orchestrator"
	"github.com/wiradal/deskmate/conversation"
)

const maxRequestBodySize = 1 << 20

// TurnHandler runs one orchestration turn for an inbound message.
type TurnHandler interface {
	HandleMessage(ctx context.Context, req orchestrator.MessageRequest) (*orchestrator.TurnResult, error)
}

type Server struct {
	turns   TurnHandler
	store   conversation.Store
	catalog contractx.AgentCatalog
	started time.Time
}

func New(turns TurnHandler, store conversation.Store, catalog contractx.AgentCatalog) *Server {
	return &Server{
		turns:   turns,
		store:   store,
		catalog: catalog,
		started: time.Now(),
	}
}

// MountRoutes registers all API routes on the given chi router.
func (s *Server) MountRoutes(r chi.Router) {
	r.Route("/api/chat", func(r chi.Router) {
		r.Post("/messages", s.HandleMessage)
		r.Get("/conversations", s.ListConversations)
		r.Get("/conversations/{id}", s.GetConversation)
		r.Delete("/conversations/{id}", s.DeleteConversation)
	})
	r.Route("/api/agents", func(r chi.Router) {
		r.Get("/", s.ListAgents)
		r.Get("/{type}/capabilities", s.AgentCapabilities)
	})
	r.Get("/api/health", s.Health)
}

// HandleMessage handles POST /api/chat/messages. The reply is persisted
// before the event stream starts; a failure before that point produces a
// plain JSON error response instead of a stream.
func (s *Server) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.MessageRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.turns.HandleMessage(r.Context(), req)
	if err != nil {
		writeTurnError(w, err)
		return
	}

	streamText(w, r, result.Reply)
}

// ListConversations handles GET /api/chat/conversations?userId=...
func (s *Server) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId required")
		return
	}

	conversations, err := s.store.ListConversations(r.Context(), userID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if conversations == nil {
		conversations = []conversation.Conversation{}
	}
	writeJSON(w, http.StatusOK, conversations)
}

// GetConversation handles GET /api/chat/conversations/{id}.
func (s *Server) GetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := s.store.GetConversationWithMessages(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, conversation.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// DeleteConversation handles DELETE /api/chat/conversations/{id}. Deleting a
// conversation cascades to its messages.
func (s *Server) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteConversation(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, conversation.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ListAgents handles GET /api/agents.
func (s *Server) ListAgents(w http.ResponseWriter, r *http.Request) {
	type agentSummary struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	definitions := s.catalog.All()
	out := make([]agentSummary, 0, len(definitions))
	for _, def := range definitions {
		out = append(out, agentSummary{
			ID:          string(def.Type),
			Name:        def.Name,
			Description: def.Description,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// AgentCapabilities handles GET /api/agents/{type}/capabilities.
func (s *Server) AgentCapabilities(w http.ResponseWriter, r *http.Request) {
	requested := contractx.AgentType(chi.URLParam(r, "type"))

	for _, def := range s.catalog.All() {
		if def.Type != requested {
			continue
		}
		tools := make([]string, 0, len(def.Tools))
		for _, t := range def.Tools {
			tools = append(tools, t.Name)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"type":        def.Type,
			"name":        def.Name,
			"description": def.Description,
			"tools":       tools,
		})
		return
	}

	writeError(w, http.StatusNotFound, "Agent not found")
}

// Health handles GET /api/health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Seconds(),
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// writeTurnError maps the orchestration error taxonomy onto HTTP statuses.
func writeTurnError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contractx.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), contractx.ErrValidation.Error()+": ")
		writeError(w, http.StatusBadRequest, msg)
	case errors.Is(err, contractx.ErrNotFound), errors.Is(err, conversation.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeInternalError(w, err)
	}
}
