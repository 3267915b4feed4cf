package game

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty is a scenario's difficulty tier. It drives dice check
// difficulty classes and ending experience scaling.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyNormal    Difficulty = "normal"
	DifficultyHard      Difficulty = "hard"
	DifficultyNightmare Difficulty = "nightmare"
)

// Genre is the narrative flavor of a scenario.
type Genre string

const (
	GenreFantasy  Genre = "fantasy"
	GenreSciFi    Genre = "scifi"
	GenreHorror   Genre = "horror"
	GenreMystery  Genre = "mystery"
	GenreWestern  Genre = "western"
	GenreModern   Genre = "modern"
	GenreHistoric Genre = "historic"
)

// Scenario is a game world template. Created by operators, effectively
// immutable during play.
type Scenario struct {
	ID                   uuid.UUID  `json:"id"`
	Name                 string     `json:"name"`
	Description          string     `json:"description"`
	WorldSetting         string     `json:"world_setting"`
	InitialLocation      string     `json:"initial_location"`
	Genre                Genre      `json:"genre"`
	Difficulty           Difficulty `json:"difficulty"`
	SystemPromptOverride string     `json:"system_prompt_override,omitempty"`
	MaxTurns             int        `json:"max_turns"`
	IsActive             bool       `json:"is_active"`
	CreatedAt            time.Time  `json:"created_at"`
}

// NewScenario creates an active scenario with a fresh ID.
func NewScenario(name, description, worldSetting, initialLocation string, genre Genre, difficulty Difficulty, maxTurns int) Scenario {
	return Scenario{
		ID:              uuid.New(),
		Name:            name,
		Description:     description,
		WorldSetting:    worldSetting,
		InitialLocation: initialLocation,
		Genre:           genre,
		Difficulty:      difficulty,
		MaxTurns:        maxTurns,
		IsActive:        true,
		CreatedAt:       time.Now().UTC(),
	}
}

// IsPlayable reports whether new sessions may start on this scenario.
func (s Scenario) IsPlayable() bool {
	return s.IsActive
}

// Deactivate retires the scenario from the catalog.
func (s Scenario) Deactivate() Scenario {
	s.IsActive = false
	return s
}
