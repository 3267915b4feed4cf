package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/engine"
	"github.com/jwebster45206/adventure-engine/internal/errors"
)

// ErrorResponse is the JSON error body returned on failures.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ActionRequest is the turn submission body. The idempotency key may
// come from the body or the Idempotency-Key header; the header wins.
type ActionRequest struct {
	Action         string `json:"action"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// ActionHandler processes player actions.
// Route: POST /v1/sessions/{id}/actions
type ActionHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewActionHandler(eng *engine.Engine, logger *slog.Logger) *ActionHandler {
	return &ActionHandler{
		engine: eng,
		logger: logger,
	}
}

func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	sessionID, ok := parseActionPath(r.URL.Path)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID in path", string(errors.CodeInvalidArgument))
		return
	}

	// Identity is asserted by the upstream gateway; this service only
	// enforces ownership.
	userID, err := uuid.Parse(r.Header.Get("X-User-ID"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Missing or invalid X-User-ID header", string(errors.CodeInvalidArgument))
		return
	}

	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body", string(errors.CodeInvalidArgument))
		return
	}

	token := r.Header.Get("Idempotency-Key")
	if token == "" {
		token = req.IdempotencyKey
	}

	outcome, err := h.engine.SubmitAction(r.Context(), userID, sessionID, req.Action, token)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	status := http.StatusOK
	if outcome.Cached {
		w.Header().Set("X-Idempotent-Replay", "true")
	}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(outcome); err != nil {
		h.logger.Error("Failed to encode action response", "error", err)
	}
}

// parseActionPath extracts the session ID from
// /v1/sessions/{id}/actions.
func parseActionPath(path string) (uuid.UUID, bool) {
	rest := strings.TrimPrefix(path, "/v1/sessions/")
	if rest == path {
		return uuid.Nil, false
	}
	idStr, tail, found := strings.Cut(rest, "/")
	if !found || strings.Trim(tail, "/") != "actions" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (h *ActionHandler) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.CodeOf(err)
	status := code.HTTPStatus()

	if status >= http.StatusInternalServerError {
		h.logger.Error("Action processing failed", "path", r.URL.Path, "error", err)
	} else {
		h.logger.Warn("Action rejected", "path", r.URL.Path, "code", code, "error", err)
	}

	if code == errors.CodeLockTimeout {
		w.Header().Set("Retry-After", "1")
	}

	writeError(w, h.logger, status, err.Error(), code.String())
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, message, code string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code}); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}
