package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of a game session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
)

// EndingType classifies how a completed game ended.
type EndingType string

const (
	EndingVictory EndingType = "victory"
	EndingDefeat  EndingType = "defeat"
	EndingNeutral EndingType = "neutral"
)

// Session is the aggregate root for one playthrough. It is treated as
// an immutable snapshot: every mutation method returns a modified copy
// so a half-applied turn can never leak into shared state.
type Session struct {
	ID              uuid.UUID     `json:"id"`
	UserID          uuid.UUID     `json:"user_id"`
	CharacterID     uuid.UUID     `json:"character_id"`
	ScenarioID      uuid.UUID     `json:"scenario_id"`
	CurrentLocation string        `json:"current_location"`
	World           WorldState    `json:"world_state"`
	Status          SessionStatus `json:"status"`
	TurnCount       int           `json:"turn_count"`
	MaxTurns        int           `json:"max_turns"`
	EndingType      EndingType    `json:"ending_type,omitempty"`
	StartedAt       time.Time     `json:"started_at"`
	EndedAt         *time.Time    `json:"ended_at,omitempty"`
	LastActivityAt  time.Time     `json:"last_activity_at"`
}

// NewSession creates an active session at turn zero.
func NewSession(userID, characterID uuid.UUID, scen *Scenario) Session {
	now := time.Now().UTC()
	return Session{
		ID:              uuid.New(),
		UserID:          userID,
		CharacterID:     characterID,
		ScenarioID:      scen.ID,
		CurrentLocation: scen.InitialLocation,
		Status:          SessionActive,
		MaxTurns:        scen.MaxTurns,
		StartedAt:       now,
		LastActivityAt:  now,
	}
}

// IsActive reports whether the session accepts new actions.
func (s Session) IsActive() bool {
	return s.Status == SessionActive
}

// IsFinalTurn reports whether the turn budget is spent.
func (s Session) IsFinalTurn() bool {
	return s.TurnCount >= s.MaxTurns
}

// RemainingTurns returns how many turns are left, never negative.
func (s Session) RemainingTurns() int {
	if s.MaxTurns <= s.TurnCount {
		return 0
	}
	return s.MaxTurns - s.TurnCount
}

// AdvanceTurn increments the turn counter. Only active sessions advance.
func (s Session) AdvanceTurn() (Session, error) {
	if !s.IsActive() {
		return s, fmt.Errorf("cannot advance turn on %s session", s.Status)
	}
	s.TurnCount++
	s.LastActivityAt = time.Now().UTC()
	return s, nil
}

// Complete marks the session finished with the given ending. Completed
// sessions are terminal and are never resurrected.
func (s Session) Complete(ending EndingType) Session {
	now := time.Now().UTC()
	s.Status = SessionCompleted
	s.EndingType = ending
	s.EndedAt = &now
	return s
}

// Pause suspends an active session.
func (s Session) Pause() (Session, error) {
	if !s.IsActive() {
		return s, fmt.Errorf("cannot pause %s session", s.Status)
	}
	s.Status = SessionPaused
	return s, nil
}

// Resume reactivates a paused session.
func (s Session) Resume() (Session, error) {
	if s.Status != SessionPaused {
		return s, fmt.Errorf("can only resume a paused session, got %s", s.Status)
	}
	s.Status = SessionActive
	s.LastActivityAt = time.Now().UTC()
	return s, nil
}

// SetLocation updates the current location. State-map bookkeeping of
// visited locations is handled separately by WorldState.Apply.
func (s Session) SetLocation(location string) (Session, error) {
	if !s.IsActive() {
		return s, fmt.Errorf("cannot update location on %s session", s.Status)
	}
	s.CurrentLocation = location
	return s, nil
}

// ApplyWorldChanges folds a turn's declared deltas into the world
// state. Character-owned deltas (HP, experience) are not applied here.
func (s Session) ApplyWorldChanges(changes StateChanges) (Session, error) {
	if !s.IsActive() {
		return s, fmt.Errorf("cannot update state on %s session", s.Status)
	}
	s.World = s.World.Apply(changes)
	return s, nil
}
