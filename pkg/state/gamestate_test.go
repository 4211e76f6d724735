package state

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/faith-chronicle/pkg/deck"
)

func TestNewGameState(t *testing.T) {
	stats := Stats{StatFaith: 10, StatMercy: 10, StatCourage: 15}
	gs := NewGameState("DAVID", "DAVID_01", stats)

	if gs.ID == uuid.Nil {
		t.Error("Expected non-nil ID")
	}
	if gs.Position != 1 {
		t.Errorf("Expected position 1, got %d", gs.Position)
	}
	if gs.Phase != PhaseIdle {
		t.Errorf("Expected phase IDLE, got %s", gs.Phase)
	}
	if gs.GameOver || gs.ActiveCard != nil {
		t.Error("New game should not be over or have a pending card")
	}

	stats[StatFaith] = 99
	if gs.Stat(StatFaith) != 10 {
		t.Errorf("GameState should own a copy of its stats, got faith %d", gs.Stat(StatFaith))
	}
}

func TestStats_AddFloorsAtZero(t *testing.T) {
	s := Stats{StatCourage: 3}
	s.Add(StatCourage, -5)
	if s[StatCourage] != 0 {
		t.Errorf("Expected courage floored at 0, got %d", s[StatCourage])
	}
	s.Add(StatCourage, 5)
	if s[StatCourage] != 5 {
		t.Errorf("Expected courage 5, got %d", s[StatCourage])
	}
	s.Add(StatFavored, -1)
	if s[StatFavored] != 0 {
		t.Errorf("Unset stat should floor at 0, got %d", s[StatFavored])
	}
}

func TestGameState_CloneIsDeep(t *testing.T) {
	gs := NewGameState("ESTHER", "ESTHER_01", Stats{StatFaith: 15})
	gs.ActiveCard = &deck.Card{ID: "w1", Type: deck.CardWisdom, Options: []string{"a", "b"}, Answer: "a"}
	gs.ScepterEpochs = []string{"PAGEANT"}

	cp := gs.Clone()
	cp.Stats.Add(StatFaith, 5)
	cp.ActiveCard.Options[0] = "changed"
	cp.ScepterEpochs[0] = "DECREE"
	cp.Position = 50

	if gs.Stat(StatFaith) != 15 {
		t.Errorf("Clone shares stats map: faith = %d", gs.Stat(StatFaith))
	}
	if gs.ActiveCard.Options[0] != "a" {
		t.Error("Clone shares active card options")
	}
	if gs.ScepterEpochs[0] != "PAGEANT" {
		t.Error("Clone shares scepter epochs")
	}
	if gs.Position != 1 {
		t.Error("Clone shares position")
	}

	var nilState *GameState
	if nilState.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestGameState_ScepterUsed(t *testing.T) {
	gs := &GameState{ScepterEpochs: []string{"SECRET"}}
	if !gs.ScepterUsed("SECRET") {
		t.Error("Expected scepter used in SECRET")
	}
	if gs.ScepterUsed("DECREE") {
		t.Error("Expected scepter unused in DECREE")
	}
}

func TestGameState_JSONRoundTrip(t *testing.T) {
	gs := NewGameState("DAVID", "DAVID_01", Stats{StatFaith: 10})
	gs.ActiveCard = &deck.Card{ID: "p1", Type: deck.CardProvidence, Effect: &deck.Effect{Move: 3}}
	gs.Phase = PhaseAwaitingCardAnswer
	gs.PendingTarget = 38

	data, err := json.Marshal(gs)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var got GameState
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.ID != gs.ID || got.PendingTarget != 38 || got.Phase != PhaseAwaitingCardAnswer {
		t.Errorf("Round trip lost fields: %+v", got)
	}
	if got.ActiveCard == nil || got.ActiveCard.Effect.MoveDelta() != 3 {
		t.Errorf("Round trip lost active card: %+v", got.ActiveCard)
	}
}
