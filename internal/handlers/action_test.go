package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/adventure-engine/internal/config"
	"github.com/jwebster45206/adventure-engine/internal/engine"
	"github.com/jwebster45206/adventure-engine/internal/idempotency"
	"github.com/jwebster45206/adventure-engine/internal/lock"
	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/internal/storage"
	"github.com/jwebster45206/adventure-engine/pkg/dice"
	"github.com/jwebster45206/adventure-engine/pkg/game"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type actionFixture struct {
	handler *ActionHandler
	store   *storage.MockStorage
	llm     *services.MockLLMAPI

	session game.Session
	char    game.Character
}

func newActionFixture(t *testing.T) *actionFixture {
	t.Helper()

	logger := testLogger()
	cfg := &config.Config{
		RecentWindowSize:  10,
		RetrievalLimit:    5,
		DistanceThreshold: 0.3,
		LockTTL:           time.Second,
		LockWaitTimeout:   200 * time.Millisecond,
		IdempotencyTTL:    10 * time.Minute,
	}

	store := storage.NewMockStorage()
	cache := services.NewMockCache()
	llm := services.NewMockLLMAPI()

	scen := game.NewScenario("Test Run", "", "A test world.", "start", game.GenreFantasy, game.DifficultyNormal, 30)
	char, err := game.NewCharacter(uuid.New(), scen.ID, "Tests", 1)
	require.NoError(t, err)
	session := game.NewSession(char.UserID, char.ID, &scen)

	ctx := context.Background()
	require.NoError(t, store.SaveScenario(ctx, scen))
	require.NoError(t, store.SaveCharacter(ctx, char))
	require.NoError(t, store.SaveSession(ctx, session))

	llm.GenerateResponseFunc = func(ctx context.Context, systemPrompt string, messages []services.ChatMessage) (*services.LLMResponse, error) {
		return &services.LLMResponse{
			Content: `{"narrative": "It happens.", "requires_dice": false}`,
			Model:   "mock",
		}, nil
	}

	eng := engine.New(
		store,
		lock.NewManager(cache, cfg.LockWaitTimeout, logger),
		idempotency.New(cache, cfg.IdempotencyTTL, logger),
		llm,
		services.NewMockEmbedder(),
		nil,
		dice.NewSeededRoller(7),
		cfg,
		logger,
	)

	return &actionFixture{
		handler: NewActionHandler(eng, logger),
		store:   store,
		llm:     llm,
		session: session,
		char:    char,
	}
}

func (f *actionFixture) post(t *testing.T, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	req.Header.Set("Idempotency-Key", "tok-test")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestActionHandlerSuccess(t *testing.T) {
	f := newActionFixture(t)

	rec := f.post(t, "/v1/sessions/"+f.session.ID.String()+"/actions",
		f.char.UserID.String(), `{"action": "look around"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "It happens.")
	assert.Contains(t, rec.Body.String(), `"turn_count":1`)
}

func TestActionHandlerReplayHeader(t *testing.T) {
	f := newActionFixture(t)
	path := "/v1/sessions/" + f.session.ID.String() + "/actions"
	user := f.char.UserID.String()

	first := f.post(t, path, user, `{"action": "look around"}`)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Empty(t, first.Header().Get("X-Idempotent-Replay"))

	second := f.post(t, path, user, `{"action": "look around"}`)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotent-Replay"))
	assert.Equal(t, 1, f.llm.CallCount())
}

func TestActionHandlerBadPath(t *testing.T) {
	f := newActionFixture(t)

	rec := f.post(t, "/v1/sessions/not-a-uuid/actions", f.char.UserID.String(), `{"action": "x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActionHandlerMissingUser(t *testing.T) {
	f := newActionFixture(t)

	rec := f.post(t, "/v1/sessions/"+f.session.ID.String()+"/actions", "", `{"action": "x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActionHandlerForbidden(t *testing.T) {
	f := newActionFixture(t)

	rec := f.post(t, "/v1/sessions/"+f.session.ID.String()+"/actions",
		uuid.NewString(), `{"action": "look around"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "PERMISSION_DENIED")
}

func TestActionHandlerSessionNotFound(t *testing.T) {
	f := newActionFixture(t)

	rec := f.post(t, "/v1/sessions/"+uuid.NewString()+"/actions",
		f.char.UserID.String(), `{"action": "look around"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestActionHandlerCompletedSession(t *testing.T) {
	f := newActionFixture(t)
	completed := f.session.Complete(game.EndingNeutral)
	require.NoError(t, f.store.SaveSession(context.Background(), completed))

	rec := f.post(t, "/v1/sessions/"+f.session.ID.String()+"/actions",
		f.char.UserID.String(), `{"action": "continue"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "FAILED_PRECONDITION")
}

func TestActionHandlerMethodNotAllowed(t *testing.T) {
	f := newActionFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+f.session.ID.String()+"/actions", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
