package engine

import (
	"encoding/json"
	"strings"

	"github.com/jwebster45206/adventure-engine/pkg/dice"
	"github.com/jwebster45206/adventure-engine/pkg/game"
)

// parsedResponse is the narrator's declared turn outcome. All fields
// are optional; a response that is not valid JSON degrades to plain
// narrative text.
type parsedResponse struct {
	Narrative    string             `json:"narrative"`
	Options      []string           `json:"options"`
	StateChanges *game.StateChanges `json:"state_changes"`
	RequiresDice *bool              `json:"requires_dice"`
	CheckType    string             `json:"check_type"`
}

// parsedEnding is the narrator's declared conclusion.
type parsedEnding struct {
	Narrative  string `json:"narrative"`
	EndingType string `json:"ending_type"`
}

// stripCodeFence removes a markdown ```json fence if the model wrapped
// its response in one.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseActionResponse interprets the model's turn response. Valid JSON
// with a narrative field is taken at face value; anything else falls
// back to treating the whole text as narrative, with list-style lines
// recovered as options.
func parseActionResponse(content string) parsedResponse {
	cleaned := stripCodeFence(content)

	var parsed parsedResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil && parsed.Narrative != "" {
		return parsed
	}

	return parsedResponse{
		Narrative: strings.TrimSpace(content),
		Options:   extractOptionLines(content),
	}
}

// extractOptionLines pulls bullet or numbered lines out of free text,
// the best-effort option recovery when the model ignored the JSON
// contract.
func extractOptionLines(content string) []string {
	var options []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		for _, prefix := range []string{"- ", "* ", "1. ", "2. ", "3. ", "4. "} {
			if strings.HasPrefix(line, prefix) {
				options = append(options, strings.TrimSpace(strings.TrimPrefix(line, prefix)))
				break
			}
		}
	}
	return options
}

// parseEndingResponse interprets the model's conclusion. When the JSON
// contract was ignored, the ending type is recovered from keywords in
// the text, falling back to the caller's default.
func parseEndingResponse(content string, fallback game.EndingType) (string, game.EndingType) {
	cleaned := stripCodeFence(content)

	var parsed parsedEnding
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil && parsed.Narrative != "" {
		switch game.EndingType(strings.ToLower(parsed.EndingType)) {
		case game.EndingVictory:
			return parsed.Narrative, game.EndingVictory
		case game.EndingDefeat:
			return parsed.Narrative, game.EndingDefeat
		case game.EndingNeutral:
			return parsed.Narrative, game.EndingNeutral
		default:
			return parsed.Narrative, fallback
		}
	}

	lowered := strings.ToLower(content)
	switch {
	case strings.Contains(lowered, "victory") || strings.Contains(lowered, "triumph"):
		return strings.TrimSpace(content), game.EndingVictory
	case strings.Contains(lowered, "defeat") || strings.Contains(lowered, "perish"):
		return strings.TrimSpace(content), game.EndingDefeat
	default:
		return strings.TrimSpace(content), fallback
	}
}

// diceKeywords pairs action verbs with check types for the fallback
// classifier used when the model did not declare requires_dice. Order
// matters: the first match wins, so an action mixing verbs always
// classifies the same way.
var diceKeywords = []struct {
	keyword   string
	checkType dice.CheckType
}{
	{"attack", dice.CheckCombat},
	{"fight", dice.CheckCombat},
	{"strike", dice.CheckCombat},
	{"shoot", dice.CheckCombat},
	{"sneak", dice.CheckSkill},
	{"climb", dice.CheckSkill},
	{"pick", dice.CheckSkill},
	{"dodge", dice.CheckSkill},
	{"persuade", dice.CheckSocial},
	{"convince", dice.CheckSocial},
	{"bluff", dice.CheckSocial},
	{"search", dice.CheckExploration},
	{"track", dice.CheckExploration},
}

// classifyAction is the deterministic fallback: decide from the action
// text whether a check is warranted and of what type. Only consulted
// when the parsed response carries no requires_dice field.
func classifyAction(action string) (dice.CheckType, bool) {
	lowered := strings.ToLower(action)
	for _, entry := range diceKeywords {
		if strings.Contains(lowered, entry.keyword) {
			return entry.checkType, true
		}
	}
	return "", false
}

// checkTypeFromString maps a model-declared check type onto the known
// set, defaulting to skill for unrecognized labels.
func checkTypeFromString(s string) dice.CheckType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "combat", "attack":
		return dice.CheckCombat
	case "social", "persuasion", "deception", "intimidation":
		return dice.CheckSocial
	case "exploration", "perception", "investigation":
		return dice.CheckExploration
	default:
		return dice.CheckSkill
	}
}
