// Package chat implements the bundled companion chat backend. It sits
// between a web frontend and a local Ollama server, exposing one endpoint
// per chatbot personality.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/slipway-sh/slipway/internal/chat/ollama"
)

// offlineMessage is surfaced when the model server cannot be reached.
const offlineMessage = "Offline AI server is not running. Please make sure Ollama is installed and running."

// Completer is the model backend the handler talks to.
type Completer interface {
	Chat(ctx context.Context, messages []ollama.Message) (string, error)
	Ping(ctx context.Context) error
}

// Handler serves the chat API.
type Handler struct {
	llm    Completer
	logger *slog.Logger
}

// NewHandler creates a chat handler backed by the given model client.
func NewHandler(llm Completer, logger *slog.Logger) *Handler {
	return &Handler{
		llm:    llm,
		logger: logger,
	}
}

// Routes returns the chat API router.
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/chat/{persona}", h.handleChat).Methods(http.MethodPost)
	r.HandleFunc("/check-offline-status", h.handleStatus).Methods(http.MethodGet)
	return r
}

// handleChat runs one conversation turn for the persona named in the path.
// Model failures are reported inside a 200 response with the caller's
// history echoed back unchanged.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	persona, ok := Personas[mux.Vars(r)["persona"]]
	if !ok {
		http.NotFound(w, r)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	userMessage := ollama.Message{Role: "user", Content: req.UserMessage}

	messages := make([]ollama.Message, 0, len(req.History)+2)
	messages = append(messages, ollama.Message{Role: "system", Content: persona.SystemPrompt})
	messages = append(messages, req.History...)
	messages = append(messages, userMessage)

	reply, err := h.llm.Chat(r.Context(), messages)
	if err != nil {
		h.logger.Warn("chat completion failed", "persona", persona.Name, "error", err)
		writeJSON(w, ChatResponse{
			NewHistory: req.History,
			Error:      chatErrorMessage(err),
		})
		return
	}

	newHistory := append(req.History, userMessage, ollama.Message{Role: "assistant", Content: reply})
	writeJSON(w, ChatResponse{
		Reply:      reply,
		NewHistory: newHistory,
	})
}

// handleStatus lets the frontend probe whether the model server is up.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := StatusOnline
	if err := h.llm.Ping(r.Context()); err != nil {
		status = StatusOffline
	}
	writeJSON(w, StatusResponse{Status: status})
}

// chatErrorMessage maps backend failures to the messages the frontend shows.
func chatErrorMessage(err error) string {
	if errors.Is(err, ollama.ErrUnavailable) {
		return offlineMessage
	}
	var statusErr *ollama.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Error()
	}
	return fmt.Sprintf("An unexpected error occurred: %s", err)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
