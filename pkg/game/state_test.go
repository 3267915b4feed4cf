package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorldState_Apply(t *testing.T) {
	tests := []struct {
		name     string
		state    WorldState
		changes  StateChanges
		expected WorldState
	}{
		{
			name:  "items gained are appended once",
			state: WorldState{Items: []string{"torch"}},
			changes: StateChanges{
				ItemsGained: []string{"rope", "torch", "rope"},
			},
			expected: WorldState{Items: []string{"torch", "rope"}},
		},
		{
			name:  "items lost are removed when present",
			state: WorldState{Items: []string{"torch", "rope"}},
			changes: StateChanges{
				ItemsLost: []string{"torch"},
			},
			expected: WorldState{Items: []string{"rope"}},
		},
		{
			name:  "losing an unheld item is a no-op",
			state: WorldState{Items: []string{"rope"}},
			changes: StateChanges{
				ItemsLost: []string{"crown"},
			},
			expected: WorldState{Items: []string{"rope"}},
		},
		{
			name:  "location is recorded as visited",
			state: WorldState{VisitedLocations: []string{"village"}},
			changes: StateChanges{
				Location: "forest",
			},
			expected: WorldState{
				VisitedLocations: []string{"village", "forest"},
				Items:            []string{},
			},
		},
		{
			name:  "revisited location is not duplicated",
			state: WorldState{VisitedLocations: []string{"village", "forest"}},
			changes: StateChanges{
				Location: "village",
			},
			expected: WorldState{
				VisitedLocations: []string{"village", "forest"},
				Items:            []string{},
			},
		},
		{
			name:  "npcs and discoveries deduplicate",
			state: WorldState{MetNPCs: []string{"Mira"}},
			changes: StateChanges{
				NPCsMet:     []string{"Mira", "Old Tom"},
				Discoveries: []string{"hidden door"},
			},
			expected: WorldState{
				Items:       []string{},
				MetNPCs:     []string{"Mira", "Old Tom"},
				Discoveries: []string{"hidden door"},
			},
		},
		{
			name:     "empty delta leaves state unchanged",
			state:    WorldState{Items: []string{"torch"}},
			changes:  StateChanges{},
			expected: WorldState{Items: []string{"torch"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.state.Apply(tt.changes)
			assert.ElementsMatch(t, tt.expected.Items, got.Items)
			assert.ElementsMatch(t, tt.expected.VisitedLocations, got.VisitedLocations)
			assert.ElementsMatch(t, tt.expected.MetNPCs, got.MetNPCs)
			assert.ElementsMatch(t, tt.expected.Discoveries, got.Discoveries)
		})
	}
}

func TestWorldState_ApplyDoesNotMutateOriginal(t *testing.T) {
	original := WorldState{Items: []string{"torch"}}
	_ = original.Apply(StateChanges{ItemsGained: []string{"rope"}})
	assert.Equal(t, []string{"torch"}, original.Items)
}

func TestStateChanges_IsEmpty(t *testing.T) {
	assert.True(t, StateChanges{}.IsEmpty())
	assert.False(t, StateChanges{HPChange: -5}.IsEmpty())
	assert.False(t, StateChanges{Location: "cave"}.IsEmpty())
	assert.False(t, StateChanges{ExperienceGained: 10}.IsEmpty())
}
