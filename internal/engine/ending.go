package engine

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/errors"
	"github.com/jwebster45206/adventure-engine/internal/idempotency"
	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/pkg/game"
	"github.com/jwebster45206/adventure-engine/pkg/prompts"
)

// concludeSession runs the ending subflow: generate the conclusion,
// classify the ending, complete the session, and award account
// experience. pending holds this turn's not-yet-persisted messages;
// they are written ahead of the ending message so the transcript stays
// in story order.
func (e *Engine) concludeSession(ctx context.Context, session game.Session, char game.Character, scen game.Scenario, history, pending []game.Message, reason prompts.EndingReason, idempotencyToken string) (*ActionOutcome, error) {
	systemPrompt := prompts.SystemPrompt(scen, char)

	chat := services.HistoryToChatMessages(history)
	for _, m := range pending {
		if containsMessage(history, m) {
			continue
		}
		chat = append(chat, services.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	chat = append(chat, services.ChatMessage{
		Role:    string(game.RoleUser),
		Content: prompts.EndingPrompt(session, char, reason),
	})

	llmResp, err := e.llm.GenerateResponse(ctx, systemPrompt, chat)
	if err != nil {
		if errors.CodeOf(err) == errors.CodeInternal {
			return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "ending generation failed")
		}
		return nil, err
	}

	// Turn exhaustion defaults to a mixed outcome; death defaults to
	// defeat. The narrator's explicit classification wins either way.
	fallback := game.EndingNeutral
	if reason == prompts.EndingReasonDeath {
		fallback = game.EndingDefeat
	}
	narrative, endingType := parseEndingResponse(llmResp.Content, fallback)

	completed := session.Complete(endingType)

	endingMsg := game.NewMessage(session.ID, game.RoleAssistant, narrative)
	if payload, err := json.Marshal(struct {
		EndingType game.EndingType `json:"ending_type"`
	}{endingType}); err == nil {
		endingMsg.Parsed = payload
	}

	progression, result, err := e.awardGameXP(ctx, session.UserID, endingType, completed.TurnCount, scen.Difficulty)
	if err != nil {
		return nil, err
	}

	response := &EndingResponse{
		SessionID:     session.ID,
		EndingType:    endingType,
		Narrative:     narrative,
		TotalTurns:    completed.TurnCount,
		CharacterName: char.Name,
		Progression:   result,
	}

	persistCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	for _, m := range pending {
		if err := e.storage.AppendMessage(persistCtx, m); err != nil {
			return nil, errors.Wrap(err, "failed to persist turn message")
		}
	}
	if err := e.storage.AppendMessage(persistCtx, endingMsg); err != nil {
		return nil, errors.Wrap(err, "failed to persist ending message")
	}
	if err := e.storage.SaveCharacter(persistCtx, char); err != nil {
		return nil, errors.Wrap(err, "failed to persist character")
	}
	if err := e.storage.SaveUserProgression(persistCtx, progression); err != nil {
		return nil, errors.Wrap(err, "failed to persist progression")
	}
	if err := e.storage.SaveSession(persistCtx, completed); err != nil {
		return nil, errors.Wrap(err, "failed to persist completed session")
	}

	e.idem.Put(persistCtx, session.ID.String(), idempotencyToken, idempotency.KindEnding, response)

	e.logger.Info("Session concluded",
		"session_id", session.ID,
		"ending", endingType,
		"turns", completed.TurnCount,
		"xp_awarded", result.ExperienceAwarded,
		"account_level", result.Level)

	return &ActionOutcome{Ending: response}, nil
}

// awardGameXP grants the completed game's experience to the account
// track, creating the track on first completion.
func (e *Engine) awardGameXP(ctx context.Context, userID uuid.UUID, endingType game.EndingType, turnCount int, difficulty game.Difficulty) (game.UserProgression, game.ProgressionResult, error) {
	prog, err := e.storage.GetUserProgression(ctx, userID)
	if err != nil {
		return game.UserProgression{}, game.ProgressionResult{}, errors.Wrap(err, "failed to load progression")
	}
	if prog == nil {
		fresh := game.NewUserProgression(userID)
		prog = &fresh
	}

	xp := game.GameXP(endingType, turnCount, difficulty)
	before := prog.Level
	updated := prog.GainExperience(xp)

	result := game.ProgressionResult{
		ExperienceAwarded: xp,
		Level:             updated.Level,
		Experience:        updated.Experience,
		CurrentExperience: updated.CurrentExperience,
		LeveledUp:         updated.Level > before,
		LevelsGained:      updated.Level - before,
	}
	return updated, result, nil
}

func containsMessage(history []game.Message, m game.Message) bool {
	for _, h := range history {
		if h.ID == m.ID {
			return true
		}
	}
	return false
}
