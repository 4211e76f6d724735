package board

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// Size is the number of squares on every board.
	Size = 100
	// EpochSpan is the number of squares owned by an epoch without an explicit range.
	EpochSpan = 20
	// GateInterval places a GATE at every multiple of this value.
	GateInterval = 20
	// FillInterval is the density-fill cadence: at most FillInterval-1
	// consecutive squares go without an interaction.
	FillInterval = 4
	// FillHop is how far a density-fill ladder or snake moves the token.
	FillHop = 3
)

const (
	fillLadderLabel = "Divine Favor"
	fillSnakeLabel  = "Test of Wisdom"
	startLabel      = "Start"
	finishLabel     = "Finish"
)

var titleCaser = cases.Title(language.English)

// Board is the ordered, immutable sequence of squares for one story.
// Square id n lives at index n-1.
type Board []Square

// Square looks up a square by id.
func (b Board) Square(id int) (Square, bool) {
	if id < 1 || id > len(b) {
		return Square{}, false
	}
	sq := b[id-1]
	if sq.ID != id {
		return Square{}, false
	}
	return sq, true
}

// Generate builds the full board for the given epochs and fixed squares.
// Precedence per id: fixed override, then milestone (START, FINISH, GATE),
// then the density-fill rule, then NORMAL. The result depends only on its
// inputs.
func Generate(epochs []Epoch, fixed []FixedSquare) Board {
	overrides := make(map[int]FixedSquare, len(fixed))
	for _, fs := range fixed {
		if fs.ID < 1 || fs.ID > Size {
			continue
		}
		overrides[fs.ID] = fs
	}

	squares := make(Board, Size)
	for i := range squares {
		id := i + 1
		epoch := EpochFor(epochs, id)

		sq, milestone := milestoneSquare(id, epoch)
		if fs, ok := overrides[id]; ok {
			sq = applyOverride(sq, fs)
		} else if !milestone {
			sq = fillSquare(sq)
		}
		sq.Epoch = epoch.ID
		squares[i] = sanitize(sq)
	}
	return squares
}

// EpochFor returns the epoch owning square id. Explicit ranges win; otherwise
// the owner is floor((id-1)/EpochSpan), clamped to the last epoch. A zero
// Epoch is returned when the list is empty.
func EpochFor(epochs []Epoch, id int) Epoch {
	if len(epochs) == 0 {
		return Epoch{}
	}
	for _, e := range epochs {
		if e.HasRange() && id >= e.Start && id <= e.End {
			return e
		}
	}
	idx := (id - 1) / EpochSpan
	if idx < 0 {
		idx = 0
	}
	if idx >= len(epochs) {
		idx = len(epochs) - 1
	}
	return epochs[idx]
}

// EpochIndex returns the position of the epoch owning square id.
func EpochIndex(epochs []Epoch, id int) int {
	owner := EpochFor(epochs, id)
	for i, e := range epochs {
		if e.ID == owner.ID {
			return i
		}
	}
	return 0
}

func milestoneSquare(id int, epoch Epoch) (Square, bool) {
	switch {
	case id == 1:
		return Square{ID: id, Type: SquareStart, Label: startLabel}, true
	case id == Size:
		return Square{ID: id, Type: SquareFinish, Label: finishLabel}, true
	case id%GateInterval == 0:
		return Square{ID: id, Type: SquareGate, Label: "Gate of " + epochName(epoch)}, true
	}
	return Square{ID: id, Type: SquareNormal, Label: fmt.Sprintf("Square %d", id)}, false
}

func epochName(e Epoch) string {
	if e.Name != "" {
		return e.Name
	}
	if e.ID != "" {
		return titleCaser.String(e.ID)
	}
	return "the Unknown"
}

func applyOverride(base Square, fs FixedSquare) Square {
	sq := base
	if fs.Type != "" {
		sq.Type = fs.Type
	}
	if fs.Label != "" {
		sq.Label = fs.Label
	}
	sq.Target = fs.Target
	sq.Trigger = fs.Trigger
	sq.ActionDescription = fs.ActionDescription
	return sq
}

func fillSquare(sq Square) Square {
	id := sq.ID
	if id%FillInterval != 0 {
		return sq
	}
	if id%(FillInterval*2) == 0 {
		sq.Type = SquareLadder
		sq.Label = fillLadderLabel
		sq.Target = min(id+FillHop, Size-1)
		sq.Trigger = TriggerProvidence
		return sq
	}
	sq.Type = SquareSnake
	sq.Label = fillSnakeLabel
	sq.Target = max(id-FillHop, 1)
	sq.Trigger = TriggerWisdom
	return sq
}

// sanitize enforces the target invariants: only ladders and snakes carry a
// target, and it always lies within the board.
func sanitize(sq Square) Square {
	if !sq.Type.Valid() {
		sq.Type = SquareNormal
	}
	if sq.Type != SquareLadder && sq.Type != SquareSnake {
		sq.Target = 0
		return sq
	}
	if sq.Target != 0 {
		sq.Target = min(max(sq.Target, 1), Size)
	}
	return sq
}
