// Package engine orchestrates turn processing: locking, idempotent
// replay, context assembly, narrative generation, dice resolution,
// state folding and persistence.
package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/config"
	"github.com/jwebster45206/adventure-engine/internal/errors"
	"github.com/jwebster45206/adventure-engine/internal/idempotency"
	"github.com/jwebster45206/adventure-engine/internal/lock"
	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/internal/storage"
	"github.com/jwebster45206/adventure-engine/pkg/dice"
	"github.com/jwebster45206/adventure-engine/pkg/game"
	"github.com/jwebster45206/adventure-engine/pkg/prompts"
)

// persistTimeout bounds the final persistence step. It runs on a
// detached context so a cancelled request cannot abandon a half-folded
// turn mid-write.
const persistTimeout = 10 * time.Second

// ActionResponse is the outcome of a normal (non-ending) turn.
type ActionResponse struct {
	MessageID    uuid.UUID          `json:"message_id"`
	SessionID    uuid.UUID          `json:"session_id"`
	Narrative    string             `json:"narrative"`
	Options      []string           `json:"options,omitempty"`
	TurnCount    int                `json:"turn_count"`
	MaxTurns     int                `json:"max_turns"`
	IsEnding     bool               `json:"is_ending"`
	Dice         *dice.Result       `json:"dice_result,omitempty"`
	StateChanges *game.StateChanges `json:"state_changes,omitempty"`
	ImageURL     string             `json:"image_url,omitempty"`
}

// EndingResponse is the outcome of a session-concluding turn.
type EndingResponse struct {
	SessionID     uuid.UUID              `json:"session_id"`
	EndingType    game.EndingType        `json:"ending_type"`
	Narrative     string                 `json:"narrative"`
	TotalTurns    int                    `json:"total_turns"`
	CharacterName string                 `json:"character_name"`
	Progression   game.ProgressionResult `json:"progression"`
}

// ActionOutcome carries exactly one of the two response shapes. Cached
// marks an idempotent replay of a previously completed turn.
type ActionOutcome struct {
	Action *ActionResponse `json:"action,omitempty"`
	Ending *EndingResponse `json:"ending,omitempty"`
	Cached bool            `json:"-"`
}

// Engine processes player actions. One instance serves all sessions;
// per-session serialization comes from the lease lock.
type Engine struct {
	storage  storage.Storage
	locks    *lock.Manager
	idem     *idempotency.Cache
	llm      services.LLMService
	embedder services.Embedder
	images   services.ImageService
	roller   dice.Roller
	cfg      *config.Config
	logger   *slog.Logger
}

// New creates a turn engine. images may be nil when illustration
// generation is disabled.
func New(
	store storage.Storage,
	locks *lock.Manager,
	idem *idempotency.Cache,
	llm services.LLMService,
	embedder services.Embedder,
	images services.ImageService,
	roller dice.Roller,
	cfg *config.Config,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		storage:  store,
		locks:    locks,
		idem:     idem,
		llm:      llm,
		embedder: embedder,
		images:   images,
		roller:   roller,
		cfg:      cfg,
		logger:   logger,
	}
}

// SubmitAction processes one player action for the session. Exactly
// one writer per session runs at a time; a retry carrying the same
// idempotency token replays the original outcome without consuming a
// turn.
func (e *Engine) SubmitAction(ctx context.Context, userID, sessionID uuid.UUID, action, idempotencyToken string) (*ActionOutcome, error) {
	if strings.TrimSpace(action) == "" {
		return nil, errors.InvalidArgument("action text cannot be empty")
	}

	lease, err := e.locks.Acquire(ctx, "game:session:"+sessionID.String(), e.cfg.LockTTL)
	if err != nil {
		return nil, err
	}
	defer lease.Release(context.Background())

	// Replay check happens under the lock so a duplicate racing the
	// original request cannot observe a half-written slot.
	if rec := e.idem.Get(ctx, sessionID.String(), idempotencyToken); rec != nil {
		return replayOutcome(rec)
	}

	session, err := e.storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load session")
	}
	if session == nil {
		return nil, errors.NotFoundf("session %s not found", sessionID)
	}
	if session.UserID != userID {
		return nil, errors.Forbidden("session belongs to another user")
	}
	if session.Status == game.SessionCompleted {
		return nil, errors.InvalidStatef("session is completed with ending %q, start a new game", session.EndingType)
	}
	if !session.IsActive() {
		return nil, errors.InvalidStatef("session is %s and cannot accept actions", session.Status)
	}

	char, err := e.storage.GetCharacter(ctx, session.CharacterID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load character")
	}
	if char == nil {
		return nil, errors.NotFoundf("character %s not found", session.CharacterID)
	}
	scen, err := e.storage.GetScenario(ctx, session.ScenarioID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load scenario")
	}
	if scen == nil {
		return nil, errors.NotFoundf("scenario %s not found", session.ScenarioID)
	}

	advanced, err := session.AdvanceTurn()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeInvalidState, "cannot advance turn")
	}

	// Embedding failure degrades retrieval to recency only; the turn
	// itself proceeds.
	embedding, err := e.embedder.GenerateEmbedding(ctx, action)
	if err != nil {
		e.logger.Warn("Action embedding failed, using recency-only context",
			"session_id", sessionID, "error", err)
		embedding = nil
	}
	userMsg := game.NewMessage(sessionID, game.RoleUser, action).WithEmbedding(embedding)

	history, err := e.buildContext(ctx, sessionID, embedding)
	if err != nil {
		return nil, err
	}

	if advanced.IsFinalTurn() {
		return e.concludeSession(ctx, advanced, *char, *scen, history,
			[]game.Message{userMsg}, prompts.EndingReasonTurnLimit, idempotencyToken)
	}

	return e.processTurn(ctx, advanced, *char, *scen, history, userMsg, action, idempotencyToken)
}

// buildContext assembles the hybrid narrative context: the recency
// window plus retrieved similar beats, merged chronologically.
func (e *Engine) buildContext(ctx context.Context, sessionID uuid.UUID, embedding []float32) ([]game.Message, error) {
	recent, err := e.storage.RecentMessages(ctx, sessionID, e.cfg.RecentWindowSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load recent messages")
	}

	var similar []game.Message
	if len(embedding) > 0 {
		similar, err = e.storage.SimilarMessages(ctx, sessionID, embedding, e.cfg.RetrievalLimit, e.cfg.DistanceThreshold)
		if err != nil {
			// Retrieval is an enrichment; recency alone still works.
			e.logger.Warn("Similarity retrieval failed, using recency-only context",
				"session_id", sessionID, "error", err)
			similar = nil
		}
	}

	return MergeContexts(recent, similar), nil
}

// processTurn runs the normal (non-ending) turn: generate, parse, roll
// dice, fold state, persist. Nothing is persisted until the narrative
// call has succeeded, so a failed generation leaves the session
// untouched and retryable.
func (e *Engine) processTurn(ctx context.Context, session game.Session, char game.Character, scen game.Scenario, history []game.Message, userMsg game.Message, action, idempotencyToken string) (*ActionOutcome, error) {
	systemPrompt := prompts.SystemPrompt(scen, char)
	chat := services.HistoryToChatMessages(history)
	chat = append(chat, services.ChatMessage{
		Role:    string(game.RoleUser),
		Content: prompts.ActionContext(session, char) + "\n" + action,
	})

	llmResp, err := e.llm.GenerateResponse(ctx, systemPrompt, chat)
	if err != nil {
		if errors.CodeOf(err) == errors.CodeInternal {
			return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "narrative generation failed")
		}
		return nil, err
	}

	parsed := parseActionResponse(llmResp.Content)

	diceResult := e.resolveDice(parsed, action, char, scen)

	session, char = foldState(session, char, parsed.StateChanges, diceResult)

	response := &ActionResponse{
		SessionID: session.ID,
		Narrative: parsed.Narrative,
		Options:   parsed.Options,
		TurnCount: session.TurnCount,
		MaxTurns:  session.MaxTurns,
		// Warns the client that the next action concludes the game.
		IsEnding:     session.RemainingTurns() <= 1,
		Dice:         diceResult,
		StateChanges: parsed.StateChanges,
	}

	// Character death ends the game on this same turn. The turn's own
	// messages ride along so the ending prompt sees the fatal beat.
	if !char.Stats.IsAlive() {
		assistantMsg := e.narratorMessage(ctx, session.ID, parsed, diceResult)
		return e.concludeSession(ctx, session, char, scen,
			append(history, userMsg, assistantMsg),
			[]game.Message{userMsg, assistantMsg},
			prompts.EndingReasonDeath, idempotencyToken)
	}

	assistantMsg := e.narratorMessage(ctx, session.ID, parsed, diceResult)
	if url := e.maybeIllustrate(ctx, session, parsed.Narrative); url != "" {
		assistantMsg = assistantMsg.WithImageURL(url)
		response.ImageURL = url
	}
	response.MessageID = assistantMsg.ID

	persistCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := e.storage.AppendMessage(persistCtx, userMsg); err != nil {
		return nil, errors.Wrap(err, "failed to persist player message")
	}
	if err := e.storage.AppendMessage(persistCtx, assistantMsg); err != nil {
		return nil, errors.Wrap(err, "failed to persist narrator message")
	}
	if err := e.storage.SaveCharacter(persistCtx, char); err != nil {
		return nil, errors.Wrap(err, "failed to persist character")
	}
	// Session save is the single durability point for the turn counter.
	if err := e.storage.SaveSession(persistCtx, session); err != nil {
		return nil, errors.Wrap(err, "failed to persist session")
	}

	e.idem.Put(persistCtx, session.ID.String(), idempotencyToken, idempotency.KindAction, response)

	e.logger.Info("Turn processed",
		"session_id", session.ID,
		"turn", session.TurnCount,
		"dice", diceResult != nil,
		"model", llmResp.Model)

	return &ActionOutcome{Action: response}, nil
}

// resolveDice decides whether the turn needs a check and rolls it. The
// narrator's declaration wins; when it said nothing, a keyword
// classifier over the action text decides.
func (e *Engine) resolveDice(parsed parsedResponse, action string, char game.Character, scen game.Scenario) *dice.Result {
	var checkType dice.CheckType
	switch {
	case parsed.RequiresDice != nil && *parsed.RequiresDice:
		checkType = checkTypeFromString(parsed.CheckType)
	case parsed.RequiresDice != nil:
		return nil
	default:
		var needed bool
		checkType, needed = classifyAction(action)
		if !needed {
			return nil
		}
	}

	result := dice.PerformCheck(e.roller, char.Stats.Level, scen.Difficulty, checkType)
	return &result
}

// foldState applies the turn's declared deltas plus dice consequences
// to the session and character snapshots.
func foldState(session game.Session, char game.Character, changes *game.StateChanges, diceResult *dice.Result) (game.Session, game.Character) {
	if changes == nil {
		changes = &game.StateChanges{}
	}

	hpChange := changes.HPChange
	if diceResult != nil && diceResult.Fumble() && diceResult.Damage != nil {
		hpChange -= *diceResult.Damage
	}

	stats := char.Stats
	if hpChange < 0 {
		stats = stats.TakeDamage(-hpChange)
	} else if hpChange > 0 {
		stats = stats.Heal(hpChange)
	}
	if changes.ExperienceGained > 0 {
		stats = stats.GainExperience(changes.ExperienceGained)
	}
	char = char.WithStats(stats)

	for _, item := range changes.ItemsGained {
		char = char.AddItem(item)
	}
	for _, item := range changes.ItemsLost {
		char = char.RemoveItem(item)
	}

	session, _ = session.ApplyWorldChanges(*changes)
	if changes.Location != "" {
		session, _ = session.SetLocation(changes.Location)
	}
	return session, char
}

// narratorMessage builds the assistant transcript entry, with a
// best-effort embedding and the structured payload attached for later
// turns and clients. A resolved check is rendered into the content so
// subsequent prompts see what the dice decided.
func (e *Engine) narratorMessage(ctx context.Context, sessionID uuid.UUID, parsed parsedResponse, diceResult *dice.Result) game.Message {
	content := parsed.Narrative
	if diceResult != nil {
		content += "\n\n" + prompts.DiceOutcome(*diceResult)
	}
	msg := game.NewMessage(sessionID, game.RoleAssistant, content)

	embedding, err := e.embedder.GenerateEmbedding(ctx, parsed.Narrative)
	if err != nil {
		e.logger.Warn("Narrator embedding failed, storing without embedding",
			"session_id", sessionID, "error", err)
	} else {
		msg = msg.WithEmbedding(embedding)
	}

	payload, err := json.Marshal(struct {
		Options      []string           `json:"options,omitempty"`
		StateChanges *game.StateChanges `json:"state_changes,omitempty"`
		Dice         *dice.Result       `json:"dice_result,omitempty"`
	}{parsed.Options, parsed.StateChanges, diceResult})
	if err == nil {
		msg.Parsed = payload
	}
	return msg
}

// maybeIllustrate generates a scene image when the feature is on and
// the turn count hits the configured interval. An interval of zero
// illustrates every turn. Failures are logged, never fatal.
func (e *Engine) maybeIllustrate(ctx context.Context, session game.Session, narrative string) string {
	if !e.cfg.ImageGenerationEnabled || e.images == nil {
		return ""
	}
	if e.cfg.ImageGenerationInterval > 0 && session.TurnCount%e.cfg.ImageGenerationInterval != 0 {
		return ""
	}

	url, err := e.images.GenerateImage(ctx, narrative, session.ID.String())
	if err != nil {
		e.logger.Warn("Illustration generation failed",
			"session_id", session.ID, "error", err)
		return ""
	}
	return url
}

// replayOutcome rebuilds an ActionOutcome from a cached idempotency
// record.
func replayOutcome(rec *idempotency.Record) (*ActionOutcome, error) {
	switch rec.Kind {
	case idempotency.KindEnding:
		var ending EndingResponse
		if err := json.Unmarshal(rec.Payload, &ending); err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeInternal, "corrupt cached ending response")
		}
		return &ActionOutcome{Ending: &ending, Cached: true}, nil
	default:
		var action ActionResponse
		if err := json.Unmarshal(rec.Payload, &action); err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeInternal, "corrupt cached action response")
		}
		return &ActionOutcome{Action: &action, Cached: true}, nil
	}
}
