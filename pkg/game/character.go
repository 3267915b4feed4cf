package game

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// ExperiencePerLevel is the character XP curve: reaching the next
// level from level N costs N * ExperiencePerLevel.
const ExperiencePerLevel = 100

// Stats is the character stat block. It is a value object: every
// change produces a new copy.
type Stats struct {
	HP                int `json:"hp"`
	MaxHP             int `json:"max_hp"`
	Level             int `json:"level"`
	Experience        int `json:"experience"`
	CurrentExperience int `json:"current_experience"`
}

// NewStats returns a level-1 stat block with the given maximum HP.
func NewStats(maxHP int) (Stats, error) {
	if maxHP < 1 {
		return Stats{}, fmt.Errorf("max hp must be at least 1, got %d", maxHP)
	}
	return Stats{HP: maxHP, MaxHP: maxHP, Level: 1}, nil
}

// IsAlive reports whether the character still has hit points.
func (s Stats) IsAlive() bool {
	return s.HP > 0
}

// ExperienceToNextLevel is the threshold CurrentExperience must reach
// for the next level-up.
func (s Stats) ExperienceToNextLevel() int {
	return s.Level * ExperiencePerLevel
}

// TakeDamage reduces HP, never below zero.
func (s Stats) TakeDamage(amount int) Stats {
	s.HP -= amount
	if s.HP < 0 {
		s.HP = 0
	}
	return s
}

// Heal restores HP, never above MaxHP.
func (s Stats) Heal(amount int) Stats {
	s.HP += amount
	if s.HP > s.MaxHP {
		s.HP = s.MaxHP
	}
	return s
}

// GainExperience adds amount to both counters and resolves level-ups.
// A single large grant may cross several thresholds; the loop keeps
// consuming CurrentExperience until it is below the next threshold.
// Each level gained adds 10 HP per level held before the increment and
// fully heals the character. Amount must be non-negative by contract.
func (s Stats) GainExperience(amount int) Stats {
	s.Experience += amount
	s.CurrentExperience += amount

	for s.CurrentExperience >= s.ExperienceToNextLevel() {
		s.CurrentExperience -= s.ExperienceToNextLevel()
		s.MaxHP += 10 * s.Level
		s.Level++
		s.HP = s.MaxHP // full heal on level up
	}
	return s
}

// Character is a player character bound to one scenario. Immutable
// snapshot semantics, same as Session.
type Character struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	ScenarioID  uuid.UUID `json:"scenario_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Stats       Stats     `json:"stats"`
	Inventory   []string  `json:"inventory,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewCharacter creates an active level-1 character. Starting HP scales
// with the owning account's game level.
func NewCharacter(userID, scenarioID uuid.UUID, name string, accountLevel int) (Character, error) {
	if name == "" {
		return Character{}, fmt.Errorf("character name cannot be empty")
	}
	stats, err := NewStats(StartingHP(accountLevel))
	if err != nil {
		return Character{}, err
	}
	return Character{
		ID:         uuid.New(),
		UserID:     userID,
		ScenarioID: scenarioID,
		Name:       name,
		Stats:      stats,
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// WithStats returns a copy with the replacement stat block.
func (c Character) WithStats(stats Stats) Character {
	c.Stats = stats
	return c
}

// AddItem appends an item to the inventory. Already-held items are a
// no-op so narrative replays cannot duplicate loot.
func (c Character) AddItem(item string) Character {
	if slices.Contains(c.Inventory, item) {
		return c
	}
	inv := make([]string, len(c.Inventory), len(c.Inventory)+1)
	copy(inv, c.Inventory)
	c.Inventory = append(inv, item)
	return c
}

// RemoveItem drops an item if held, silently no-ops otherwise.
func (c Character) RemoveItem(item string) Character {
	c.Inventory = remove(c.Inventory, item)
	return c
}

// Deactivate soft-deletes the character.
func (c Character) Deactivate() Character {
	c.IsActive = false
	return c
}

// IsAlive reports whether the character can still act.
func (c Character) IsAlive() bool {
	return c.IsActive && c.Stats.IsAlive()
}
