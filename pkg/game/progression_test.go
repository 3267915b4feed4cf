package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUserProgression_GainExperience(t *testing.T) {
	p := NewUserProgression(uuid.New())

	// Level 1 threshold is 300.
	p = p.GainExperience(250)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 250, p.CurrentExperience)

	p = p.GainExperience(100)
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, 50, p.CurrentExperience)
	assert.Equal(t, 350, p.Experience)
}

func TestUserProgression_CascadingLevels(t *testing.T) {
	p := NewUserProgression(uuid.New())

	// 300 + 600 = 900 covers levels 1 and 2 exactly.
	p = p.GainExperience(900)
	assert.Equal(t, 3, p.Level)
	assert.Equal(t, 0, p.CurrentExperience)
	assert.Equal(t, 900, p.Experience)
}

func TestGameXP(t *testing.T) {
	tests := []struct {
		name       string
		ending     EndingType
		turns      int
		difficulty Difficulty
		expected   int
	}{
		{
			name:       "victory on normal",
			ending:     EndingVictory,
			turns:      20,
			difficulty: DifficultyNormal,
			expected:   400, // 200 + 20*10
		},
		{
			name:       "defeat on easy",
			ending:     EndingDefeat,
			turns:      10,
			difficulty: DifficultyEasy,
			expected:   100, // 50 + 10*5
		},
		{
			name:       "neutral on normal",
			ending:     EndingNeutral,
			turns:      30,
			difficulty: DifficultyNormal,
			expected:   310, // 100 + 30*7
		},
		{
			name:       "hard scenarios pay half again",
			ending:     EndingVictory,
			turns:      20,
			difficulty: DifficultyHard,
			expected:   600, // 400 * 1.5
		},
		{
			name:       "nightmare multiplier truncates",
			ending:     EndingDefeat,
			turns:      1,
			difficulty: DifficultyNightmare,
			expected:   82, // 55 * 1.5 = 82.5
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GameXP(tt.ending, tt.turns, tt.difficulty))
		})
	}
}

func TestGameXP_OrderingAcrossEndings(t *testing.T) {
	// For the same turns and difficulty, victory > neutral > defeat.
	victory := GameXP(EndingVictory, 15, DifficultyNormal)
	neutral := GameXP(EndingNeutral, 15, DifficultyNormal)
	defeat := GameXP(EndingDefeat, 15, DifficultyNormal)

	assert.Greater(t, victory, neutral)
	assert.Greater(t, neutral, defeat)
}

func TestStartingHP(t *testing.T) {
	assert.Equal(t, 100, StartingHP(1))
	assert.Equal(t, 110, StartingHP(2))
	assert.Equal(t, 140, StartingHP(5))
	assert.Equal(t, 100, StartingHP(0), "invalid level clamps to 1")
}

func TestValidateExperience(t *testing.T) {
	assert.NoError(t, ValidateExperience(0))
	assert.NoError(t, ValidateExperience(500))
	assert.Error(t, ValidateExperience(-1))
}
