package deck

import (
	"errors"
	"fmt"
	"slices"

	"github.com/jwebster45206/faith-chronicle/pkg/board"
)

// CardType partitions a story's deck.
type CardType string

const (
	CardWisdom     CardType = "WISDOM"
	CardProvidence CardType = "PROVIDENCE"
	CardTemptation CardType = "TEMPTATION"
	CardWildcard   CardType = "WILDCARD"
)

// Valid reports whether t is a known card type.
func (t CardType) Valid() bool {
	switch t {
	case CardWisdom, CardProvidence, CardTemptation, CardWildcard:
		return true
	}
	return false
}

// Trivia reports whether cards of this type ask a question.
func (t CardType) Trivia() bool {
	return t == CardWisdom || t == CardTemptation
}

// Effect is a movement delta carried by a card. A zero Move means no movement.
type Effect struct {
	Move int `json:"move,omitempty" yaml:"move,omitempty"`
}

// Card is a trivia or narrative event.
type Card struct {
	ID            string   `json:"id" yaml:"id"`
	Type          CardType `json:"type" yaml:"type"`
	Title         string   `json:"title" yaml:"title"`
	Description   string   `json:"description" yaml:"description"`
	Question      string   `json:"question,omitempty" yaml:"question,omitempty"`
	Options       []string `json:"options,omitempty" yaml:"options,omitempty"`
	Answer        string   `json:"answer,omitempty" yaml:"answer,omitempty"`
	Effect        *Effect  `json:"effect,omitempty" yaml:"effect,omitempty"`
	SuccessEffect *Effect  `json:"success_effect,omitempty" yaml:"success_effect,omitempty"`
	FailureEffect *Effect  `json:"failure_effect,omitempty" yaml:"failure_effect,omitempty"`
}

// IsTrivia reports whether answering the card requires choosing an option.
func (c Card) IsTrivia() bool {
	return c.Type.Trivia() && len(c.Options) > 0
}

// HasOption reports whether option is one of the card's candidate answers.
func (c Card) HasOption(option string) bool {
	return slices.Contains(c.Options, option)
}

// IsCorrect reports whether option answers the card. Non-trivia cards are
// always answered correctly.
func (c Card) IsCorrect(option string) bool {
	if !c.IsTrivia() {
		return true
	}
	return option == c.Answer
}

// MoveDelta returns the move delta of e, or zero when e is nil.
func (e *Effect) MoveDelta() int {
	if e == nil {
		return 0
	}
	return e.Move
}

var (
	ErrMissingID      = errors.New("card id is required")
	ErrInvalidType    = errors.New("invalid card type")
	ErrAnswerNotFound = errors.New("answer is not among the options")
	ErrMissingOptions = errors.New("trivia card requires options")
	ErrMoveOutOfRange = errors.New("effect move exceeds the board size")
)

// Validate checks that a card carries the fields its type requires.
func Validate(c Card) error {
	if c.ID == "" {
		return ErrMissingID
	}
	if !c.Type.Valid() {
		return fmt.Errorf("card %s: %w: %q", c.ID, ErrInvalidType, c.Type)
	}
	for _, e := range []*Effect{c.Effect, c.SuccessEffect, c.FailureEffect} {
		if m := e.MoveDelta(); m > board.Size || m < -board.Size {
			return fmt.Errorf("card %s: %w: %d", c.ID, ErrMoveOutOfRange, m)
		}
	}
	if !c.Type.Trivia() {
		return nil
	}
	if len(c.Options) == 0 {
		return fmt.Errorf("card %s: %w", c.ID, ErrMissingOptions)
	}
	if !c.HasOption(c.Answer) {
		return fmt.Errorf("card %s: %w: %q", c.ID, ErrAnswerNotFound, c.Answer)
	}
	return nil
}
