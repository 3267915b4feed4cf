package engine

import (
	"sort"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/game"
)

// MergeContexts combines the recency window with retrieved similar
// messages into one chronological context. Duplicates (a recent
// message that also scored as similar) are kept once, first occurrence
// wins. The result is sorted ascending by creation time so the model
// reads events in story order; the stable sort preserves arrival order
// for equal timestamps.
func MergeContexts(recent, similar []game.Message) []game.Message {
	merged := make([]game.Message, 0, len(recent)+len(similar))
	seen := make(map[uuid.UUID]bool, len(recent)+len(similar))

	for _, m := range recent {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		merged = append(merged, m)
	}
	for _, m := range similar {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		merged = append(merged, m)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})
	return merged
}
