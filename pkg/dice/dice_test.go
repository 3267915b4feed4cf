package dice

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/adventure-engine/pkg/game"
)

// fixedRoller returns scripted rolls in order, then repeats the last.
type fixedRoller struct {
	rolls []int
	next  int
}

func (f *fixedRoller) Roll(sides int) int {
	if f.next < len(f.rolls)-1 {
		f.next++
		return f.rolls[f.next-1]
	}
	return f.rolls[len(f.rolls)-1]
}

func TestModifier(t *testing.T) {
	tests := []struct {
		level    int
		expected int
	}{
		{1, 2}, {2, 2}, {4, 2},
		{5, 3}, {8, 3},
		{9, 4}, {12, 4},
		{13, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Modifier(tt.level), "level %d", tt.level)
	}
}

func TestDC(t *testing.T) {
	assert.Equal(t, 8, DC(game.DifficultyEasy))
	assert.Equal(t, 12, DC(game.DifficultyNormal))
	assert.Equal(t, 15, DC(game.DifficultyHard))
	assert.Equal(t, 18, DC(game.DifficultyNightmare))
	assert.Equal(t, 12, DC(game.Difficulty("unknown")), "unknown difficulty defaults to normal")
}

func TestDamageDice(t *testing.T) {
	tests := []struct {
		level int
		sides int
	}{
		{1, 4}, {2, 4},
		{3, 6}, {4, 6},
		{5, 8}, {6, 8},
		{7, 10}, {8, 10},
		{9, 12}, {20, 12},
	}
	for _, tt := range tests {
		count, sides := DamageDice(tt.level)
		assert.Equal(t, 1, count, "level %d", tt.level)
		assert.Equal(t, tt.sides, sides, "level %d", tt.level)
	}
}

func TestPerformCheck_PlainSuccess(t *testing.T) {
	// Level 5 gives +3; roll 15 against NORMAL (DC 12) totals 18.
	roller := &fixedRoller{rolls: []int{15}}
	result := PerformCheck(roller, 5, game.DifficultyNormal, CheckSkill)

	assert.Equal(t, 15, result.Roll)
	assert.Equal(t, 3, result.Modifier)
	assert.Equal(t, 12, result.DC)
	assert.Equal(t, 18, result.Total())
	assert.True(t, result.Success())
	assert.False(t, result.Critical())
	assert.False(t, result.Fumble())
	assert.Nil(t, result.Damage, "no damage on an ordinary roll")
}

func TestPerformCheck_Critical(t *testing.T) {
	// Natural 20 is always a critical and always carries damage from
	// a doubled die count. Level 3 uses 1d6, doubled to 2d6.
	roller := &fixedRoller{rolls: []int{20, 4, 5}}
	result := PerformCheck(roller, 3, game.DifficultyHard, CheckCombat)

	assert.True(t, result.Critical())
	assert.True(t, result.Success())
	require.NotNil(t, result.Damage)
	assert.Equal(t, 9, *result.Damage)
}

func TestPerformCheck_Fumble(t *testing.T) {
	// Natural 1 is a fumble with flat 1d4 self-damage regardless of level.
	roller := &fixedRoller{rolls: []int{1, 3}}
	result := PerformCheck(roller, 9, game.DifficultyEasy, CheckExploration)

	assert.True(t, result.Fumble())
	assert.False(t, result.Success())
	require.NotNil(t, result.Damage)
	assert.Equal(t, 3, *result.Damage)
}

func TestRollDamage_CriticalDoublesCount(t *testing.T) {
	roller := &fixedRoller{rolls: []int{2, 3, 4}}
	// Level 5: 1d8 normally, 2d8 on a critical.
	assert.Equal(t, 2, RollDamage(&fixedRoller{rolls: []int{2}}, 5, false))
	assert.Equal(t, 5, RollDamage(roller, 5, true))
}

func TestResult_Display(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		expected string
	}{
		{
			name:     "success",
			result:   Result{Roll: 15, Modifier: 3, DC: 12, CheckType: CheckSkill},
			expected: "1d20+3 = 18 vs DC 12: success",
		},
		{
			name:     "failure",
			result:   Result{Roll: 5, Modifier: 2, DC: 15, CheckType: CheckSkill},
			expected: "1d20+2 = 7 vs DC 15: failure",
		},
		{
			name:     "critical",
			result:   Result{Roll: 20, Modifier: 2, DC: 18, CheckType: CheckCombat},
			expected: "1d20+2 = 22 vs DC 18: critical success",
		},
		{
			name:     "fumble",
			result:   Result{Roll: 1, Modifier: 4, DC: 8, CheckType: CheckCombat},
			expected: "1d20+4 = 5 vs DC 8: fumble",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.Display())
		})
	}
}

func TestResult_MarshalJSON(t *testing.T) {
	dmg := 7
	result := Result{Roll: 20, Modifier: 3, DC: 12, CheckType: CheckCombat, Damage: &dmg}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, float64(23), decoded["total"])
	assert.Equal(t, true, decoded["is_success"])
	assert.Equal(t, true, decoded["is_critical"])
	assert.Equal(t, false, decoded["is_fumble"])
	assert.Equal(t, float64(7), decoded["damage"])
}

func TestSeededRoller_Bounds(t *testing.T) {
	roller := NewSeededRoller(42)
	for i := 0; i < 1000; i++ {
		roll := roller.Roll(20)
		require.GreaterOrEqual(t, roll, 1)
		require.LessOrEqual(t, roll, 20)
	}
}
