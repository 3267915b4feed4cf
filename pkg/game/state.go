package game

import "slices"

// WorldState tracks what the player has collected, visited, met and
// discovered during a session. Each list is a set semantically: order
// preserving, no duplicates.
type WorldState struct {
	Items            []string `json:"items,omitempty"`
	VisitedLocations []string `json:"visited_locations,omitempty"`
	MetNPCs          []string `json:"met_npcs,omitempty"`
	Discoveries      []string `json:"discoveries,omitempty"`
}

// StateChanges is the per-turn delta declared by the narrative
// generator. Absent fields mean "no change", never "reset"; decoding
// is tolerant and every missing key defaults to its neutral value.
//
// HPChange and ExperienceGained are routed to the Character aggregate
// by the engine; they are never stored in the world state.
type StateChanges struct {
	HPChange         int      `json:"hp_change,omitempty"`
	ExperienceGained int      `json:"experience_gained,omitempty"`
	ItemsGained      []string `json:"items_gained,omitempty"`
	ItemsLost        []string `json:"items_lost,omitempty"`
	Location         string   `json:"location,omitempty"`
	NPCsMet          []string `json:"npcs_met,omitempty"`
	Discoveries      []string `json:"discoveries,omitempty"`
}

// IsEmpty reports whether the delta carries no changes at all.
func (c StateChanges) IsEmpty() bool {
	return c.HPChange == 0 &&
		c.ExperienceGained == 0 &&
		len(c.ItemsGained) == 0 &&
		len(c.ItemsLost) == 0 &&
		c.Location == "" &&
		len(c.NPCsMet) == 0 &&
		len(c.Discoveries) == 0
}

// Apply folds a delta into the world state and returns the new
// snapshot. Gained entries are appended once; losing an item the
// player never had is a silent no-op.
func (w WorldState) Apply(changes StateChanges) WorldState {
	items := appendUnique(w.Items, changes.ItemsGained...)
	for _, item := range changes.ItemsLost {
		items = remove(items, item)
	}

	visited := w.VisitedLocations
	if changes.Location != "" {
		visited = appendUnique(visited, changes.Location)
	}

	return WorldState{
		Items:            items,
		VisitedLocations: visited,
		MetNPCs:          appendUnique(w.MetNPCs, changes.NPCsMet...),
		Discoveries:      appendUnique(w.Discoveries, changes.Discoveries...),
	}
}

func appendUnique(list []string, entries ...string) []string {
	out := make([]string, len(list), len(list)+len(entries))
	copy(out, list)
	for _, e := range entries {
		if !slices.Contains(out, e) {
			out = append(out, e)
		}
	}
	return out
}

func remove(list []string, entry string) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		if e != entry {
			out = append(out, e)
		}
	}
	return out
}
