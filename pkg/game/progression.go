package game

import (
	"fmt"

	"github.com/google/uuid"
)

// AccountExperiencePerLevel is the account-track XP curve: reaching
// the next account level from level N costs N * 300. The account track
// has no HP stat; only levels and counters move.
const AccountExperiencePerLevel = 300

// UserProgression is the meta-progression attached to a user account.
// It accumulates experience across completed games.
type UserProgression struct {
	UserID            uuid.UUID `json:"user_id"`
	Level             int       `json:"level"`
	Experience        int       `json:"experience"`
	CurrentExperience int       `json:"current_experience"`
}

// NewUserProgression returns a fresh level-1 track for the user.
func NewUserProgression(userID uuid.UUID) UserProgression {
	return UserProgression{UserID: userID, Level: 1}
}

// ExperienceToNextLevel is the threshold for the next account level.
func (p UserProgression) ExperienceToNextLevel() int {
	return p.Level * AccountExperiencePerLevel
}

// GainExperience adds amount to both counters and resolves level-ups,
// cascading across thresholds the same way the character track does.
func (p UserProgression) GainExperience(amount int) UserProgression {
	p.Experience += amount
	p.CurrentExperience += amount

	for p.CurrentExperience >= p.ExperienceToNextLevel() {
		p.CurrentExperience -= p.ExperienceToNextLevel()
		p.Level++
	}
	return p
}

// ProgressionResult summarizes an account XP award for the caller.
type ProgressionResult struct {
	ExperienceAwarded int  `json:"experience_awarded"`
	Level             int  `json:"level"`
	Experience        int  `json:"experience"`
	CurrentExperience int  `json:"current_experience"`
	LeveledUp         bool `json:"leveled_up"`
	LevelsGained      int  `json:"levels_gained"`
}

// GameXP computes the account experience earned from a completed game.
// Victories pay more than neutral endings, defeats least; every turn
// survived adds to the take, and hard or nightmare scenarios pay half
// again as much.
func GameXP(ending EndingType, turnCount int, difficulty Difficulty) int {
	var base, perTurn int
	switch ending {
	case EndingVictory:
		base, perTurn = 200, 10
	case EndingDefeat:
		base, perTurn = 50, 5
	default:
		base, perTurn = 100, 7
	}

	xp := base + turnCount*perTurn
	if difficulty == DifficultyHard || difficulty == DifficultyNightmare {
		xp = xp * 3 / 2
	}
	return xp
}

// StartingHP is the initial character HP for an account of the given
// game level.
func StartingHP(accountLevel int) int {
	if accountLevel < 1 {
		accountLevel = 1
	}
	return 100 + (accountLevel-1)*10
}

// ValidateExperience rejects negative experience values at
// construction boundaries. Gain methods assume non-negative input by
// contract; this guards data arriving from outside the domain.
func ValidateExperience(amount int) error {
	if amount < 0 {
		return fmt.Errorf("experience cannot be negative, got %d", amount)
	}
	return nil
}
