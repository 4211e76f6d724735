package engine

import (
	"strings"
	"time"

	"github.com/jwebster45206/faith-chronicle/pkg/state"
	"github.com/jwebster45206/faith-chronicle/pkg/story"
)

// NewGame starts a session for the character at the START square with the
// character's starting stats. An empty id selects the registry's default
// character; an id the registry does not know is rejected.
func NewGame(reg *story.Registry, characterID string) (*state.GameState, error) {
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		characterID = reg.DefaultCharacterID()
	}
	var c *story.Character
	if characterID != "" {
		var ok bool
		c, ok = reg.Character(characterID)
		if !ok {
			return nil, ErrUnknownCharacter
		}
		characterID = c.ID
	}

	s := reg.ResolveStory(characterID)
	gs := state.NewGameState(characterID, s.ID, reg.StartingStats(characterID))
	initEpoch(gs, s, c)
	return gs, nil
}

// Reset restores a session to its starting position and stats, keeping its
// id and creation time.
func Reset(reg *story.Registry, gs *state.GameState) (*state.GameState, error) {
	fresh, err := NewGame(reg, gs.CharacterID)
	if err != nil {
		return nil, err
	}
	fresh.ID = gs.ID
	fresh.CreatedAt = gs.CreatedAt
	fresh.UpdatedAt = time.Now()
	return fresh, nil
}

func initEpoch(gs *state.GameState, s *story.Story, c *story.Character) {
	e := &Engine{story: s, character: c}
	e.updateEpoch(gs)
}
