package story

import (
	"github.com/jwebster45206/faith-chronicle/pkg/state"
)

// Ability identifies a character's special rule.
type Ability string

const (
	AbilityNone                Ability = ""
	AbilityGiantSlayer         Ability = "GIANT_SLAYER"
	AbilityRoyalFavor          Ability = "ROYAL_FAVOR"
	AbilityInterpreterOfDreams Ability = "INTERPRETER_OF_DREAMS"
	AbilityProvisioner         Ability = "PROVISIONER"
)

// Valid reports whether a is a known ability.
func (a Ability) Valid() bool {
	switch a {
	case AbilityNone, AbilityGiantSlayer, AbilityRoyalFavor, AbilityInterpreterOfDreams, AbilityProvisioner:
		return true
	}
	return false
}

// StartingStats are the values a character declares at selection. Wisdom is
// the character-sheet name of the game's mercy stat.
type StartingStats struct {
	Faith        int  `json:"faith"`
	Wisdom       int  `json:"wisdom"`
	Courage      int  `json:"courage"`
	Favored      *int `json:"favored,omitempty"`
	Spirituality *int `json:"spirituality,omitempty"`
}

// GameStats converts declared values to game stat names. Unspecified
// optional stats are zero.
func (s StartingStats) GameStats() state.Stats {
	stats := state.Stats{
		state.StatFaith:        max(0, s.Faith),
		state.StatMercy:        max(0, s.Wisdom),
		state.StatCourage:      max(0, s.Courage),
		state.StatFavored:      0,
		state.StatSpirituality: 0,
	}
	if s.Favored != nil {
		stats[state.StatFavored] = max(0, *s.Favored)
	}
	if s.Spirituality != nil {
		stats[state.StatSpirituality] = max(0, *s.Spirituality)
	}
	return stats
}

// Character is a playable hero.
type Character struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	StoryID            string            `json:"story_id,omitempty"`
	EpochTitles        map[string]string `json:"epoch_titles,omitempty"` // keyed by 1-based epoch number
	Ability            Ability           `json:"ability,omitempty"`
	AbilityName        string            `json:"ability_name,omitempty"`
	AbilityDescription string            `json:"ability_description,omitempty"`
	StartingStats      StartingStats     `json:"starting_stats"`
}
