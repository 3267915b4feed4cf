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

// CreateScenarioRequest is the operator-facing scenario definition.
type CreateScenarioRequest struct {
	Name                 string          `json:"name"`
	Description          string          `json:"description"`
	WorldSetting         string          `json:"world_setting"`
	InitialLocation      string          `json:"initial_location"`
	Genre                game.Genre      `json:"genre"`
	Difficulty           game.Difficulty `json:"difficulty"`
	SystemPromptOverride string          `json:"system_prompt_override,omitempty"`
	MaxTurns             int             `json:"max_turns"`
}

// ScenarioHandler manages the scenario catalog.
// Routes:
// POST /v1/scenarios      - Create scenario
// GET  /v1/scenarios      - List scenarios
// GET  /v1/scenarios/{id} - Read scenario by ID
type ScenarioHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewScenarioHandler(store storage.Storage, logger *slog.Logger) *ScenarioHandler {
	return &ScenarioHandler{
		storage: store,
		logger:  logger,
	}
}

func (h *ScenarioHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/scenarios"), "/")

	switch {
	case r.Method == http.MethodPost && path == "":
		h.handleCreate(w, r)
	case r.Method == http.MethodGet && path == "":
		h.handleList(w, r)
	case r.Method == http.MethodGet:
		h.handleGet(w, r, path)
	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed", "")
	}
}

func (h *ScenarioHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body", string(errors.CodeInvalidArgument))
		return
	}
	if req.Name == "" || req.WorldSetting == "" || req.InitialLocation == "" {
		writeError(w, h.logger, http.StatusBadRequest, "name, world_setting and initial_location are required", string(errors.CodeInvalidArgument))
		return
	}
	if req.MaxTurns <= 0 {
		writeError(w, h.logger, http.StatusBadRequest, "max_turns must be positive", string(errors.CodeInvalidArgument))
		return
	}

	scen := game.NewScenario(req.Name, req.Description, req.WorldSetting, req.InitialLocation, req.Genre, req.Difficulty, req.MaxTurns)
	scen.SystemPromptOverride = req.SystemPromptOverride

	if err := h.storage.SaveScenario(r.Context(), scen); err != nil {
		h.logger.Error("Failed to save scenario", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save scenario", string(errors.CodeInternal))
		return
	}

	h.logger.Info("Scenario created", "scenario_id", scen.ID, "name", scen.Name)
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(scen); err != nil {
		h.logger.Error("Failed to encode scenario response", "error", err)
	}
}

func (h *ScenarioHandler) handleList(w http.ResponseWriter, r *http.Request) {
	scenarios, err := h.storage.ListScenarios(r.Context())
	if err != nil {
		h.logger.Error("Failed to list scenarios", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list scenarios", string(errors.CodeInternal))
		return
	}

	if err := json.NewEncoder(w).Encode(scenarios); err != nil {
		h.logger.Error("Failed to encode scenario list", "error", err)
	}
}

func (h *ScenarioHandler) handleGet(w http.ResponseWriter, r *http.Request, idStr string) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid scenario ID format", string(errors.CodeInvalidArgument))
		return
	}

	scen, err := h.storage.GetScenario(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load scenario", "scenario_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load scenario", string(errors.CodeInternal))
		return
	}
	if scen == nil {
		writeError(w, h.logger, http.StatusNotFound, "Scenario not found", string(errors.CodeNotFound))
		return
	}

	if err := json.NewEncoder(w).Encode(scen); err != nil {
		h.logger.Error("Failed to encode scenario response", "error", err)
	}
}
