// Package dice implements d20 check resolution: rolls, level-based
// modifiers, difficulty classes and damage dice. All game rules live
// here as pure computation; randomness comes from an injected Roller
// so checks are reproducible in tests.
package dice

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jwebster45206/adventure-engine/pkg/game"
)

// CheckType classifies why a check is being rolled.
type CheckType string

const (
	CheckCombat      CheckType = "combat"
	CheckSkill       CheckType = "skill"
	CheckSocial      CheckType = "social"
	CheckExploration CheckType = "exploration"
)

// Roller produces die rolls. Roll returns a value in [1, sides].
type Roller interface {
	Roll(sides int) int
}

type randRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRoller returns a time-seeded roller.
func NewRoller() Roller {
	return &randRoller{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededRoller returns a deterministic roller for tests.
func NewSeededRoller(seed int64) Roller {
	return &randRoller{rng: rand.New(rand.NewSource(seed))}
}

func (r *randRoller) Roll(sides int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(sides) + 1
}

// Result is the outcome of a single d20 check. Success, critical and
// fumble are derived from the stored roll, never stored separately.
type Result struct {
	Roll      int       `json:"roll"`
	Modifier  int       `json:"modifier"`
	DC        int       `json:"dc"`
	CheckType CheckType `json:"check_type"`
	Damage    *int      `json:"damage,omitempty"`
}

// Total is the roll plus the level modifier.
func (r Result) Total() int {
	return r.Roll + r.Modifier
}

// Success reports whether the total meets or beats the DC.
func (r Result) Success() bool {
	return r.Total() >= r.DC
}

// Critical reports a natural 20.
func (r Result) Critical() bool {
	return r.Roll == 20
}

// Fumble reports a natural 1.
func (r Result) Fumble() bool {
	return r.Roll == 1
}

// Display renders the check for the narrative prompt and the client.
func (r Result) Display() string {
	sign := "+"
	if r.Modifier < 0 {
		sign = ""
	}
	base := fmt.Sprintf("1d20%s%d = %d vs DC %d: ", sign, r.Modifier, r.Total(), r.DC)
	switch {
	case r.Critical():
		return base + "critical success"
	case r.Fumble():
		return base + "fumble"
	case r.Success():
		return base + "success"
	default:
		return base + "failure"
	}
}

// MarshalJSON includes the derived fields so API clients do not have
// to re-derive them.
func (r Result) MarshalJSON() ([]byte, error) {
	type alias Result
	return json.Marshal(struct {
		alias
		Total    int  `json:"total"`
		Success  bool `json:"is_success"`
		Critical bool `json:"is_critical"`
		Fumble   bool `json:"is_fumble"`
	}{
		alias:    alias(r),
		Total:    r.Total(),
		Success:  r.Success(),
		Critical: r.Critical(),
		Fumble:   r.Fumble(),
	})
}

// Modifier is the flat bonus applied to a check at the given level,
// following the 5e proficiency curve: +2 at levels 1-4, +3 at 5-8 and
// so on.
func Modifier(level int) int {
	return (level-1)/4 + 2
}

// DC maps a scenario difficulty to a target number. Unknown
// difficulties fall back to normal.
func DC(difficulty game.Difficulty) int {
	switch difficulty {
	case game.DifficultyEasy:
		return 8
	case game.DifficultyHard:
		return 15
	case game.DifficultyNightmare:
		return 18
	default:
		return 12
	}
}

// DamageDice returns the (count, sides) damage die for a level. The
// die grows every two levels, capping at 1d12.
func DamageDice(level int) (count, sides int) {
	switch {
	case level <= 2:
		return 1, 4
	case level <= 4:
		return 1, 6
	case level <= 6:
		return 1, 8
	case level <= 8:
		return 1, 10
	default:
		return 1, 12
	}
}

// RollDamage rolls the level's damage dice. A critical doubles the die
// count, not the sides.
func RollDamage(roller Roller, level int, critical bool) int {
	count, sides := DamageDice(level)
	if critical {
		count *= 2
	}
	total := 0
	for i := 0; i < count; i++ {
		total += roller.Roll(sides)
	}
	return total
}

// RollFumbleDamage rolls the flat 1d4 self-inflicted fumble damage.
func RollFumbleDamage(roller Roller) int {
	return roller.Roll(4)
}

// PerformCheck resolves a full d20 check for a character of the given
// level against the scenario difficulty. Damage is only attached on
// the extremes: criticals deal doubled damage dice, fumbles 1d4 to the
// character themselves.
func PerformCheck(roller Roller, level int, difficulty game.Difficulty, checkType CheckType) Result {
	result := Result{
		Roll:      roller.Roll(20),
		Modifier:  Modifier(level),
		DC:        DC(difficulty),
		CheckType: checkType,
	}

	switch {
	case result.Critical():
		dmg := RollDamage(roller, level, true)
		result.Damage = &dmg
	case result.Fumble():
		dmg := RollFumbleDamage(roller)
		result.Damage = &dmg
	}

	return result
}
