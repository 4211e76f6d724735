package story

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jwebster45206/faith-chronicle/pkg/board"
	"github.com/jwebster45206/faith-chronicle/pkg/deck"
)

// Story bundles the epochs, hand-authored squares, and card deck of one
// playable narrative. A Story is read-only once registered.
type Story struct {
	ID           string              `json:"id" yaml:"id"`
	Name         string              `json:"name" yaml:"name"`
	CharacterID  string              `json:"character_id" yaml:"character_id"`
	Epochs       []board.Epoch       `json:"epochs" yaml:"epochs"`
	FixedSquares []board.FixedSquare `json:"fixed_squares,omitempty" yaml:"fixed_squares,omitempty"`
	Cards        []deck.Card         `json:"cards" yaml:"cards"`
}

// Board generates the story's square sequence.
func (s *Story) Board() board.Board {
	return board.Generate(s.Epochs, s.FixedSquares)
}

// Epoch returns the epoch with the given id.
func (s *Story) Epoch(id string) (board.Epoch, bool) {
	for _, e := range s.Epochs {
		if e.ID == id {
			return e, true
		}
	}
	return board.Epoch{}, false
}

var ErrInvalidStory = errors.New("invalid story")

// Validate reports every structural problem with the story in one error.
func (s *Story) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if s.ID == "" {
		add("id is required")
	}
	if len(s.Epochs) == 0 {
		add("at least one epoch is required")
	}

	seenEpochs := make(map[string]bool)
	ranged := 0
	for i, e := range s.Epochs {
		if e.ID == "" {
			add("epoch %d: id is required", i)
		}
		if seenEpochs[e.ID] {
			add("epoch %s: duplicate id", e.ID)
		}
		seenEpochs[e.ID] = true
		if e.Start != 0 || e.End != 0 {
			ranged++
			if !e.HasRange() || e.End > board.Size {
				add("epoch %s: invalid range %d-%d", e.ID, e.Start, e.End)
			}
		}
	}
	if ranged > 0 {
		if ranged != len(s.Epochs) {
			add("epoch ranges must be declared on every epoch or none")
		} else {
			next := 1
			for _, e := range s.Epochs {
				if e.Start != next {
					add("epoch %s: range starts at %d, expected %d", e.ID, e.Start, next)
				}
				next = e.End + 1
			}
			if next != board.Size+1 {
				add("epoch ranges end at %d, expected %d", next-1, board.Size)
			}
		}
	}

	seenSquares := make(map[int]bool)
	for _, fs := range s.FixedSquares {
		if fs.ID < 1 || fs.ID > board.Size {
			add("fixed square %d: id out of range", fs.ID)
			continue
		}
		if seenSquares[fs.ID] {
			add("fixed square %d: duplicate id", fs.ID)
		}
		seenSquares[fs.ID] = true
		if fs.Type != "" && !fs.Type.Valid() {
			add("fixed square %d: invalid type %q", fs.ID, fs.Type)
		}
		if fs.Target != 0 {
			if fs.Target < 1 || fs.Target > board.Size {
				add("fixed square %d: target %d out of range", fs.ID, fs.Target)
			}
			if fs.Type != board.SquareLadder && fs.Type != board.SquareSnake {
				add("fixed square %d: only ladders and snakes may have a target", fs.ID)
			}
		}
	}

	seenCards := make(map[string]bool)
	for _, c := range s.Cards {
		if err := deck.Validate(c); err != nil {
			add("%v", err)
		}
		if c.ID != "" && seenCards[c.ID] {
			add("card %s: duplicate id", c.ID)
		}
		seenCards[c.ID] = true
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w %s: %s", ErrInvalidStory, s.ID, strings.Join(problems, "; "))
	}
	return nil
}
