package state

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/faith-chronicle/pkg/deck"
)

// Stat names tracked by the game.
const (
	StatFaith        = "faith"
	StatMercy        = "mercy"
	StatCourage      = "courage"
	StatFavored      = "favored"
	StatSpirituality = "spirituality"
)

// Phase is the turn engine's position in its state machine. ROLLING, MOVING
// and RESOLVING_SQUARE are transient: they appear in a step's transition log
// but never in a stored GameState.
type Phase string

const (
	PhaseIdle               Phase = "IDLE"
	PhaseRolling            Phase = "ROLLING"
	PhaseMoving             Phase = "MOVING"
	PhaseResolvingSquare    Phase = "RESOLVING_SQUARE"
	PhaseAwaitingCardAnswer Phase = "AWAITING_CARD_ANSWER"
	PhaseGameOver           Phase = "GAME_OVER"
)

// Stats maps a stat name to its value. Values never drop below zero.
type Stats map[string]int

// Add applies delta to the named stat, flooring the result at zero.
func (s Stats) Add(name string, delta int) {
	s[name] = max(0, s[name]+delta)
}

// Clone returns an independent copy of s.
func (s Stats) Clone() Stats {
	if s == nil {
		return Stats{}
	}
	return maps.Clone(s)
}

// GameState is the mutable state of one play session.
type GameState struct {
	ID          uuid.UUID  `json:"id"`
	CharacterID string     `json:"character_id"`
	StoryID     string     `json:"story_id"`
	Position    int        `json:"position"`
	Stats       Stats      `json:"stats"`
	ActiveCard  *deck.Card `json:"active_card,omitempty"`
	Phase       Phase      `json:"phase"`
	GameOver    bool       `json:"game_over"`
	Message     string     `json:"message,omitempty"`
	Turn        int        `json:"turn"`
	LastRoll    int        `json:"last_roll,omitempty"`
	Epoch       string     `json:"epoch,omitempty"`
	EpochTitle  string     `json:"epoch_title,omitempty"` // Character-specific title of the current epoch

	// Card resolution bookkeeping
	CardSquare    int      `json:"card_square,omitempty"`    // Square where the active card was drawn
	PendingTarget int      `json:"pending_target,omitempty"` // Ladder destination applied once the card is answered
	RetryUsed     bool     `json:"retry_used,omitempty"`     // Giant Slayer second chance spent on the active card
	ScepterEpochs []string `json:"scepter_epochs,omitempty"` // Epochs where Royal Favor was already used

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewGameState creates a session at the START square with the given stats.
func NewGameState(characterID, storyID string, stats Stats) *GameState {
	now := time.Now()
	return &GameState{
		ID:          uuid.New(),
		CharacterID: characterID,
		StoryID:     storyID,
		Position:    1,
		Stats:       stats.Clone(),
		Phase:       PhaseIdle,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Clone returns a deep copy so a transition never aliases its input.
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	cp := *gs
	cp.Stats = gs.Stats.Clone()
	if gs.ActiveCard != nil {
		card := *gs.ActiveCard
		card.Options = slices.Clone(gs.ActiveCard.Options)
		cp.ActiveCard = &card
	}
	cp.ScepterEpochs = slices.Clone(gs.ScepterEpochs)
	return &cp
}

// Stat returns the value of the named stat, zero when unset.
func (gs *GameState) Stat(name string) int {
	return gs.Stats[name]
}

// AwaitingAnswer reports whether a card is pending a player response.
func (gs *GameState) AwaitingAnswer() bool {
	return gs.ActiveCard != nil
}

// ScepterUsed reports whether Royal Favor was spent in the given epoch.
func (gs *GameState) ScepterUsed(epoch string) bool {
	return slices.Contains(gs.ScepterEpochs, epoch)
}
