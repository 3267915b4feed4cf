package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/adventure-engine/pkg/dice"
	"github.com/jwebster45206/adventure-engine/pkg/game"
)

func TestParseActionResponseJSON(t *testing.T) {
	content := `{
		"narrative": "The door creaks open.",
		"options": ["Enter", "Listen first"],
		"state_changes": {"items_gained": ["rusty key"], "location": "cellar"},
		"requires_dice": true,
		"check_type": "stealth"
	}`

	parsed := parseActionResponse(content)
	assert.Equal(t, "The door creaks open.", parsed.Narrative)
	assert.Equal(t, []string{"Enter", "Listen first"}, parsed.Options)
	require.NotNil(t, parsed.StateChanges)
	assert.Equal(t, []string{"rusty key"}, parsed.StateChanges.ItemsGained)
	assert.Equal(t, "cellar", parsed.StateChanges.Location)
	require.NotNil(t, parsed.RequiresDice)
	assert.True(t, *parsed.RequiresDice)
	assert.Equal(t, "stealth", parsed.CheckType)
}

func TestParseActionResponseCodeFence(t *testing.T) {
	content := "```json\n{\"narrative\": \"Fenced.\"}\n```"

	parsed := parseActionResponse(content)
	assert.Equal(t, "Fenced.", parsed.Narrative)
}

func TestParseActionResponsePlainText(t *testing.T) {
	content := "The corridor stretches into darkness.\n- Light a torch\n- Feel along the wall"

	parsed := parseActionResponse(content)
	assert.Contains(t, parsed.Narrative, "corridor stretches")
	assert.Equal(t, []string{"Light a torch", "Feel along the wall"}, parsed.Options)
	assert.Nil(t, parsed.RequiresDice)
	assert.Nil(t, parsed.StateChanges)
}

func TestParseActionResponsePartialJSON(t *testing.T) {
	// Missing keys decode to zero values, never errors.
	parsed := parseActionResponse(`{"narrative": "Sparse."}`)
	assert.Equal(t, "Sparse.", parsed.Narrative)
	assert.Empty(t, parsed.Options)
	assert.Nil(t, parsed.StateChanges)
	assert.Nil(t, parsed.RequiresDice)
}

func TestParseEndingResponse(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		fallback game.EndingType
		want     game.EndingType
	}{
		{"declared victory", `{"narrative": "You win.", "ending_type": "victory"}`, game.EndingNeutral, game.EndingVictory},
		{"declared defeat", `{"narrative": "You fall.", "ending_type": "defeat"}`, game.EndingNeutral, game.EndingDefeat},
		{"unknown type uses fallback", `{"narrative": "It ends.", "ending_type": "pyrrhic"}`, game.EndingNeutral, game.EndingNeutral},
		{"plain text victory keyword", "A hard-won victory at last.", game.EndingNeutral, game.EndingVictory},
		{"plain text no keyword, death fallback", "The story simply stops.", game.EndingDefeat, game.EndingDefeat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			narrative, endingType := parseEndingResponse(tt.content, tt.fallback)
			assert.NotEmpty(t, narrative)
			assert.Equal(t, tt.want, endingType)
		})
	}
}

func TestClassifyAction(t *testing.T) {
	tests := []struct {
		action string
		want   dice.CheckType
		needed bool
	}{
		{"I attack the goblin", dice.CheckCombat, true},
		{"sneak past the guards", dice.CheckSkill, true},
		{"persuade the merchant to lower the price", dice.CheckSocial, true},
		{"search the desk for letters", dice.CheckExploration, true},
		{"walk to the tavern", "", false},
		{"say hello", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			checkType, needed := classifyAction(tt.action)
			assert.Equal(t, tt.needed, needed)
			assert.Equal(t, tt.want, checkType)
		})
	}
}

func TestClassifyActionDeterministicOnMixedVerbs(t *testing.T) {
	// Two matching verbs: classification must not depend on map
	// iteration order.
	for i := 0; i < 50; i++ {
		checkType, needed := classifyAction("sneak up and attack the guard")
		require.True(t, needed)
		require.Equal(t, dice.CheckCombat, checkType, "first keyword in the table wins")
	}
}

func TestCheckTypeFromString(t *testing.T) {
	assert.Equal(t, dice.CheckCombat, checkTypeFromString("Combat"))
	assert.Equal(t, dice.CheckSocial, checkTypeFromString("persuasion"))
	assert.Equal(t, dice.CheckExploration, checkTypeFromString("perception"))
	assert.Equal(t, dice.CheckSkill, checkTypeFromString("acrobatics"))
}
