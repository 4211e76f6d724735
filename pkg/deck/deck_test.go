package deck

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

type scriptedSource struct {
	values []int
	calls  []int
}

func (s *scriptedSource) IntN(n int) int {
	s.calls = append(s.calls, n)
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[0]
	s.values = s.values[1:]
	return v % n
}

func testCards() []Card {
	return []Card{
		{ID: "w1", Type: CardWisdom, Question: "Stones?", Options: []string{"1", "5"}, Answer: "5"},
		{ID: "p1", Type: CardProvidence, Effect: &Effect{Move: 5}},
		{ID: "w2", Type: CardWisdom, Question: "Father?", Options: []string{"Jesse", "Saul"}, Answer: "Jesse"},
		{ID: "t1", Type: CardTemptation, Question: "Nabal?", Options: []string{"Fool", "Rich"}, Answer: "Fool",
			SuccessEffect: &Effect{Move: 3}, FailureEffect: &Effect{Move: -3}},
		{ID: "w3", Type: CardWisdom, Question: "Harp?", Options: []string{"Harp", "Flute"}, Answer: "Harp"},
	}
}

func TestDraw_FiltersByType(t *testing.T) {
	rng := &scriptedSource{values: []int{2}}
	card, ok := Draw(testCards(), CardWisdom, rng)
	if !ok {
		t.Fatal("Expected a wisdom card")
	}
	if card.ID != "w3" {
		t.Errorf("Expected third wisdom card w3, got %s", card.ID)
	}
	if len(rng.calls) != 1 || rng.calls[0] != 3 {
		t.Errorf("Expected one draw over 3 wisdom cards, got %v", rng.calls)
	}
}

func TestDraw_EmptySubset(t *testing.T) {
	rng := &scriptedSource{}
	if _, ok := Draw(testCards(), CardWildcard, rng); ok {
		t.Error("Expected no wildcard card")
	}
	if _, ok := Draw(nil, CardWisdom, rng); ok {
		t.Error("Expected no card from an empty deck")
	}
	if len(rng.calls) != 0 {
		t.Errorf("Random source should not be consulted for an empty subset, got %v", rng.calls)
	}
}

func TestDraw_AllowsRepeats(t *testing.T) {
	rng := &scriptedSource{values: []int{0, 0}}
	first, _ := Draw(testCards(), CardProvidence, rng)
	second, _ := Draw(testCards(), CardProvidence, rng)
	if first.ID != second.ID {
		t.Errorf("Expected the same card twice, got %s and %s", first.ID, second.ID)
	}
}

func TestDraw_Uniform(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	counts := make(map[string]int)
	for range 3000 {
		card, ok := Draw(testCards(), CardWisdom, rng)
		if !ok {
			t.Fatal("Expected a wisdom card")
		}
		counts[card.ID]++
	}
	for _, id := range []string{"w1", "w2", "w3"} {
		if counts[id] < 800 || counts[id] > 1200 {
			t.Errorf("Card %s drawn %d times out of 3000; distribution looks skewed", id, counts[id])
		}
	}
}

func TestDraw_NilSourceUsesDefault(t *testing.T) {
	card, ok := Draw(testCards(), CardTemptation, nil)
	if !ok || card.ID != "t1" {
		t.Errorf("Expected t1 from default source, got %q (ok=%v)", card.ID, ok)
	}
}

func TestCard_IsCorrect(t *testing.T) {
	cards := testCards()
	tests := []struct {
		name   string
		card   Card
		option string
		want   bool
	}{
		{"wisdom correct", cards[0], "5", true},
		{"wisdom wrong", cards[0], "1", false},
		{"temptation correct", cards[3], "Fool", true},
		{"temptation wrong", cards[3], "Rich", false},
		{"providence is vacuously correct", cards[1], "", true},
		{"providence ignores option", cards[1], "anything", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.card.IsCorrect(tt.option); got != tt.want {
				t.Errorf("IsCorrect(%q) = %v, want %v", tt.option, got, tt.want)
			}
		})
	}
}

func TestEffect_MoveDelta(t *testing.T) {
	var e *Effect
	if e.MoveDelta() != 0 {
		t.Error("nil effect should have zero move")
	}
	if (&Effect{Move: -4}).MoveDelta() != -4 {
		t.Error("expected -4")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		card    Card
		wantErr error
	}{
		{"valid trivia", testCards()[0], nil},
		{"valid providence", testCards()[1], nil},
		{"missing id", Card{Type: CardWisdom}, ErrMissingID},
		{"bad type", Card{ID: "x", Type: "MIRACLE"}, ErrInvalidType},
		{"no options", Card{ID: "x", Type: CardWisdom, Answer: "a"}, ErrMissingOptions},
		{"answer not in options", Card{ID: "x", Type: CardTemptation, Options: []string{"a", "b"}, Answer: "c"}, ErrAnswerNotFound},
		{"move at board size", Card{ID: "x", Type: CardProvidence, Effect: &Effect{Move: -100}}, nil},
		{"effect move too far", Card{ID: "x", Type: CardProvidence, Effect: &Effect{Move: 101}}, ErrMoveOutOfRange},
		{"success move too far", Card{ID: "x", Type: CardTemptation, Options: []string{"a"}, Answer: "a", SuccessEffect: &Effect{Move: math.MaxInt}}, ErrMoveOutOfRange},
		{"failure move too far", Card{ID: "x", Type: CardTemptation, Options: []string{"a"}, Answer: "a", FailureEffect: &Effect{Move: math.MinInt}}, ErrMoveOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.card)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
