package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/adventure-engine/internal/storage"
	"github.com/jwebster45206/adventure-engine/pkg/game"
)

func TestSessionHandlerCreate(t *testing.T) {
	store := storage.NewMockStorage()
	h := NewSessionHandler(store, testLogger())

	scen := game.NewScenario("First Light", "", "A frontier town.", "main_street", game.GenreWestern, game.DifficultyEasy, 25)
	require.NoError(t, store.SaveScenario(context.Background(), scen))

	userID := uuid.New()
	body := `{"scenario_id": "` + scen.ID.String() + `", "character_name": "Dell"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(body))
	req.Header.Set("X-User-ID", userID.String())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp CreateSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Dell", resp.Character.Name)
	assert.Equal(t, 100, resp.Character.Stats.MaxHP, "fresh account starts at base HP")
	assert.Equal(t, "main_street", resp.Session.CurrentLocation)
	assert.Equal(t, 25, resp.Session.MaxTurns)
	assert.Equal(t, game.SessionActive, resp.Session.Status)
}

func TestSessionHandlerCreateScaledHP(t *testing.T) {
	store := storage.NewMockStorage()
	h := NewSessionHandler(store, testLogger())

	scen := game.NewScenario("First Light", "", "A frontier town.", "main_street", game.GenreWestern, game.DifficultyEasy, 25)
	require.NoError(t, store.SaveScenario(context.Background(), scen))

	userID := uuid.New()
	prog := game.NewUserProgression(userID)
	prog = prog.GainExperience(3 * 300) // enough for account level 2
	require.NoError(t, store.SaveUserProgression(context.Background(), prog))

	body := `{"scenario_id": "` + scen.ID.String() + `", "character_name": "Dell"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(body))
	req.Header.Set("X-User-ID", userID.String())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp CreateSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, game.StartingHP(prog.Level), resp.Character.Stats.MaxHP)
}

func TestSessionHandlerCreateUnknownScenario(t *testing.T) {
	store := storage.NewMockStorage()
	h := NewSessionHandler(store, testLogger())

	body := `{"scenario_id": "` + uuid.NewString() + `", "character_name": "Dell"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(body))
	req.Header.Set("X-User-ID", uuid.NewString())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionHandlerCreateRetiredScenario(t *testing.T) {
	store := storage.NewMockStorage()
	h := NewSessionHandler(store, testLogger())

	scen := game.NewScenario("Old Road", "", "w", "start", game.GenreFantasy, game.DifficultyNormal, 10).Deactivate()
	require.NoError(t, store.SaveScenario(context.Background(), scen))

	body := `{"scenario_id": "` + scen.ID.String() + `", "character_name": "Dell"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(body))
	req.Header.Set("X-User-ID", uuid.NewString())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSessionHandlerGetOwnership(t *testing.T) {
	store := storage.NewMockStorage()
	h := NewSessionHandler(store, testLogger())

	scen := game.NewScenario("First Light", "", "w", "start", game.GenreWestern, game.DifficultyEasy, 25)
	session := game.NewSession(uuid.New(), uuid.New(), &scen)
	require.NoError(t, store.SaveSession(context.Background(), session))

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+session.ID.String(), nil)
	req.Header.Set("X-User-ID", session.UserID.String())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/sessions/"+session.ID.String(), nil)
	req.Header.Set("X-User-ID", uuid.NewString())
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
