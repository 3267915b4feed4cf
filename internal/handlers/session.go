package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/errors"
	"github.com/jwebster45206/adventure-engine/internal/storage"
	"github.com/jwebster45206/adventure-engine/pkg/game"
)

// CreateSessionRequest starts a new playthrough on a scenario.
type CreateSessionRequest struct {
	ScenarioID    uuid.UUID `json:"scenario_id"`
	CharacterName string    `json:"character_name"`
}

// CreateSessionResponse returns the new session with its character.
type CreateSessionResponse struct {
	Session   game.Session   `json:"session"`
	Character game.Character `json:"character"`
}

// SessionHandler creates and reads sessions. Turn submission lives in
// ActionHandler.
// Routes:
// POST /v1/sessions      - Start a new session
// GET  /v1/sessions/{id} - Read session by ID
type SessionHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewSessionHandler(store storage.Storage, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		storage: store,
		logger:  logger,
	}
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userID, err := uuid.Parse(r.Header.Get("X-User-ID"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Missing or invalid X-User-ID header", string(errors.CodeInvalidArgument))
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")

	switch {
	case r.Method == http.MethodPost && path == "":
		h.handleCreate(w, r, userID)
	case r.Method == http.MethodGet && path != "":
		h.handleGet(w, r, userID, path)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed", "")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body", string(errors.CodeInvalidArgument))
		return
	}

	scen, err := h.storage.GetScenario(r.Context(), req.ScenarioID)
	if err != nil {
		h.logger.Error("Failed to load scenario", "scenario_id", req.ScenarioID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load scenario", string(errors.CodeInternal))
		return
	}
	if scen == nil {
		writeError(w, h.logger, http.StatusNotFound, "Scenario not found", string(errors.CodeNotFound))
		return
	}
	if !scen.IsPlayable() {
		writeError(w, h.logger, http.StatusConflict, "Scenario is retired", string(errors.CodeInvalidState))
		return
	}

	// Starting HP scales with the account's game level.
	accountLevel := 1
	if prog, err := h.storage.GetUserProgression(r.Context(), userID); err == nil && prog != nil {
		accountLevel = prog.Level
	}

	char, err := game.NewCharacter(userID, scen.ID, req.CharacterName, accountLevel)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error(), string(errors.CodeInvalidArgument))
		return
	}
	session := game.NewSession(userID, char.ID, scen)

	if err := h.storage.SaveCharacter(r.Context(), char); err != nil {
		h.logger.Error("Failed to save character", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save character", string(errors.CodeInternal))
		return
	}
	if err := h.storage.SaveSession(r.Context(), session); err != nil {
		h.logger.Error("Failed to save session", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save session", string(errors.CodeInternal))
		return
	}

	h.logger.Info("Session created",
		"session_id", session.ID,
		"scenario_id", scen.ID,
		"character", char.Name,
		"starting_hp", char.Stats.MaxHP)

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(CreateSessionResponse{Session: session, Character: char}); err != nil {
		h.logger.Error("Failed to encode session response", "error", err)
	}
}

func (h *SessionHandler) handleGet(w http.ResponseWriter, r *http.Request, userID uuid.UUID, idStr string) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format", string(errors.CodeInvalidArgument))
		return
	}

	session, err := h.storage.GetSession(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load session", "session_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session", string(errors.CodeInternal))
		return
	}
	if session == nil {
		writeError(w, h.logger, http.StatusNotFound, "Session not found", string(errors.CodeNotFound))
		return
	}
	if session.UserID != userID {
		writeError(w, h.logger, http.StatusForbidden, "Session belongs to another user", string(errors.CodeForbidden))
		return
	}

	if err := json.NewEncoder(w).Encode(session); err != nil {
		h.logger.Error("Failed to encode session response", "error", err)
	}
}
