package chat

import "github.com/slipway-sh/slipway/internal/chat/ollama"

// ChatRequest is the request body from the frontend.
type ChatRequest struct {
	UserMessage string           `json:"user_message"`
	History     []ollama.Message `json:"history"`
}

// ChatResponse is the response body sent back to the frontend. Failures are
// reported in the body so the frontend can keep its history intact.
type ChatResponse struct {
	Reply      string           `json:"reply,omitempty"`
	NewHistory []ollama.Message `json:"new_history"`
	Error      string           `json:"error,omitempty"`
}

// StatusResponse reports whether the local model server is reachable.
type StatusResponse struct {
	Status string `json:"status"`
}

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)
