// Package engine implements the turn state machine: roll, move, resolve the
// landing square, and resolve the drawn card. Every operation takes a
// GameState and returns a new one; the input is never modified.
package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jwebster45206/faith-chronicle/pkg/board"
	"github.com/jwebster45206/faith-chronicle/pkg/deck"
	"github.com/jwebster45206/faith-chronicle/pkg/state"
	"github.com/jwebster45206/faith-chronicle/pkg/story"
)

const (
	DieSides = 6

	// Stat deltas applied when a card is answered.
	WisdomReward      = 5
	WisdomPenalty     = 2
	TemptationReward  = 5
	TemptationPenalty = 5
	ProvidenceReward  = 5
)

const (
	MsgWisdomCorrect     = "Thy wisdom shines! Advance with faith."
	MsgWisdomWrong       = "The scroll remains sealed. Reflect on thy path."
	MsgTemptationCorrect = "Temptation overcome! Thy spirit grows strong."
	MsgTemptationWrong   = "The trap has sprung! Thy courage falters."
	MsgProvidence        = "Divine favor is upon thee!"
	MsgLadder            = "A divine path opens before thee!"
	MsgRetry             = "Giant Slayer! Thou hast a second chance to answer."
	MsgScepter           = "The royal scepter is extended. The penalty is waived."
	MsgFinish            = "Thy journey is complete!"
)

// Rejection classifies why an intent was refused.
type Rejection string

const (
	// RejectWrongPhase means the intent is not allowed in the current phase.
	RejectWrongPhase Rejection = "WRONG_PHASE"
	// RejectInvalidInput means the intent's argument is out of range.
	RejectInvalidInput Rejection = "INVALID_INPUT"
)

var (
	ErrInvalidDie       = errors.New("die value must be between 1 and 6")
	ErrCardPending      = errors.New("a card is awaiting an answer")
	ErrNoCardPending    = errors.New("no card is awaiting an answer")
	ErrGameOver         = errors.New("the game is over")
	ErrUnknownOption    = errors.New("option is not among the card's options")
	ErrUnknownCharacter = errors.New("unknown character")
	ErrUnknownStory     = errors.New("unknown story")
	ErrInvalidSquare    = errors.New("square is off the board")
)

// StepResult is the outcome of one intent. On rejection State is the
// caller's unchanged state and Err/ErrorMessage describe the failure.
type StepResult struct {
	State        *state.GameState `json:"state"`
	Square       *board.Square    `json:"square,omitempty"`
	Card         *deck.Card       `json:"card,omitempty"`
	Correct      bool             `json:"correct,omitempty"`
	Transitions  []state.Phase    `json:"transitions,omitempty"`
	Rejection    Rejection        `json:"rejection,omitempty"`
	ErrorMessage string           `json:"error,omitempty"`
	Err          error            `json:"-"`
}

// Rejected reports whether the intent was refused.
func (r StepResult) Rejected() bool {
	return r.Rejection != ""
}

func reject(gs *state.GameState, kind Rejection, err error) StepResult {
	return StepResult{State: gs, Rejection: kind, ErrorMessage: err.Error(), Err: err}
}

// Engine resolves turns for one story and character. It holds only
// read-only data and is safe to share.
type Engine struct {
	story     *story.Story
	board     board.Board
	character *story.Character
	rng       deck.RandomSource
	now       func() time.Time
}

// New creates an engine. character may be nil for a player without an
// ability; rng may be nil to use the process-wide generator.
func New(s *story.Story, b board.Board, character *story.Character, rng deck.RandomSource) *Engine {
	if rng == nil {
		rng = deck.DefaultSource()
	}
	return &Engine{
		story:     s,
		board:     b,
		character: character,
		rng:       rng,
		now:       time.Now,
	}
}

// ForGame builds the engine serving an existing game from the registry.
func ForGame(reg *story.Registry, gs *state.GameState, rng deck.RandomSource) (*Engine, error) {
	s, ok := reg.Story(gs.StoryID)
	if !ok {
		return nil, ErrUnknownStory
	}
	b, _ := reg.Board(s.ID)
	c, _ := reg.Character(gs.CharacterID)
	return New(s, b, c, rng), nil
}

// Board returns the engine's board.
func (e *Engine) Board() board.Board {
	return e.board
}

func (e *Engine) ability() story.Ability {
	if e.character == nil {
		return story.AbilityNone
	}
	return e.character.Ability
}

// RollDie returns a uniform die value in 1..6.
func RollDie(rng deck.RandomSource) int {
	if rng == nil {
		rng = deck.DefaultSource()
	}
	n := rng.IntN(DieSides)
	if n < 0 || n >= DieSides {
		n = 0
	}
	return n + 1
}

// Roll rolls the engine's die and applies it.
func (e *Engine) Roll(gs *state.GameState) StepResult {
	return e.ApplyRoll(gs, RollDie(e.rng))
}

// ApplyRoll advances the token by die squares, clamped to the FINISH
// square, and resolves the landing square.
func (e *Engine) ApplyRoll(gs *state.GameState, die int) StepResult {
	if gs.GameOver {
		return reject(gs, RejectWrongPhase, ErrGameOver)
	}
	if gs.ActiveCard != nil {
		return reject(gs, RejectWrongPhase, ErrCardPending)
	}
	if die < 1 || die > DieSides {
		return reject(gs, RejectInvalidInput, ErrInvalidDie)
	}

	next := gs.Clone()
	next.Turn++
	next.LastRoll = die
	next.Message = ""
	next.Phase = state.PhaseRolling
	transitions := []state.Phase{state.PhaseRolling, state.PhaseMoving}

	next.Position = clampPosition(next.Position + die)
	e.updateEpoch(next)

	res := e.resolve(next)
	res.Transitions = append(transitions, res.Transitions...)
	return res
}

// ResolveSquare places the token on squareID and applies the square's
// landing effect, as if the token had just moved there.
func (e *Engine) ResolveSquare(gs *state.GameState, squareID int) StepResult {
	if gs.GameOver {
		return reject(gs, RejectWrongPhase, ErrGameOver)
	}
	if gs.ActiveCard != nil {
		return reject(gs, RejectWrongPhase, ErrCardPending)
	}
	if squareID < 1 || squareID > board.Size {
		return reject(gs, RejectInvalidInput, fmt.Errorf("%w: %d", ErrInvalidSquare, squareID))
	}

	next := gs.Clone()
	next.Message = ""
	next.Position = squareID
	e.updateEpoch(next)
	return e.resolve(next)
}

func (e *Engine) resolve(next *state.GameState) StepResult {
	next.Phase = state.PhaseResolvingSquare
	next.UpdatedAt = e.now()
	res := StepResult{State: next, Transitions: []state.Phase{state.PhaseResolvingSquare}}

	sq, ok := e.board.Square(next.Position)
	if !ok {
		// Unknown squares behave like NORMAL.
		return settle(res, state.PhaseIdle)
	}
	res.Square = &sq

	if sq.Type == board.SquareFinish {
		next.GameOver = true
		next.Message = MsgFinish
		return settle(res, state.PhaseGameOver)
	}
	if !sq.Type.Special() {
		return settle(res, state.PhaseIdle)
	}

	card, drawn := deck.Draw(e.story.Cards, cardTypeFor(sq.Type), e.rng)
	if !drawn {
		if sq.Type == board.SquareLadder && sq.HasTarget() {
			e.moveTo(next, sq.Target)
			next.Message = ladderMessage(sq)
			if next.GameOver {
				return settle(res, state.PhaseGameOver)
			}
		}
		return settle(res, state.PhaseIdle)
	}

	next.ActiveCard = &card
	next.CardSquare = sq.ID
	next.RetryUsed = false
	if sq.Type == board.SquareLadder && sq.HasTarget() {
		next.PendingTarget = sq.Target
	}
	res.Card = &card
	return settle(res, state.PhaseAwaitingCardAnswer)
}

// ApplyCardAnswer resolves the active card with the selected option and
// applies stat and movement effects. Movement from the card never draws
// another card.
func (e *Engine) ApplyCardAnswer(gs *state.GameState, option string) StepResult {
	if gs.GameOver {
		return reject(gs, RejectWrongPhase, ErrGameOver)
	}
	if gs.ActiveCard == nil {
		return reject(gs, RejectWrongPhase, ErrNoCardPending)
	}
	card := *gs.ActiveCard
	if card.IsTrivia() && !card.HasOption(option) {
		return reject(gs, RejectInvalidInput, ErrUnknownOption)
	}

	next := gs.Clone()
	next.UpdatedAt = e.now()
	correct := card.IsCorrect(option)
	res := StepResult{State: next, Card: &card, Correct: correct}

	squareType := board.SquareType("")
	epochID := next.Epoch
	if sq, ok := e.board.Square(next.CardSquare); ok {
		squareType = sq.Type
		epochID = sq.Epoch
		res.Square = &sq
	}
	ability := e.ability()

	if !correct && card.Type == deck.CardTemptation && !next.RetryUsed && grantsRetry(ability, squareType) {
		next.RetryUsed = true
		next.Message = MsgRetry
		res.Transitions = []state.Phase{state.PhaseAwaitingCardAnswer}
		return res
	}

	move := 0
	switch card.Type {
	case deck.CardWisdom:
		if correct {
			next.Stats.Add(state.StatFaith, WisdomReward)
			next.Message = MsgWisdomCorrect
		} else {
			next.Stats.Add(state.StatFaith, -WisdomPenalty)
			next.Message = MsgWisdomWrong
			if squareType == board.SquareGate {
				move = -1
			}
		}
	case deck.CardTemptation:
		switch {
		case correct:
			next.Stats.Add(state.StatCourage, TemptationReward)
			next.Message = MsgTemptationCorrect
			move = card.SuccessEffect.MoveDelta()
		case waivesPenalty(ability, squareType) && !next.ScepterUsed(epochID):
			next.ScepterEpochs = append(next.ScepterEpochs, epochID)
			next.Message = MsgScepter
		default:
			next.Stats.Add(state.StatCourage, -TemptationPenalty)
			next.Message = MsgTemptationWrong
			move = card.FailureEffect.MoveDelta()
		}
	case deck.CardProvidence:
		next.Stats.Add(state.StatMercy, ProvidenceReward)
		next.Message = MsgProvidence
		move = card.Effect.MoveDelta()
	default:
		move = card.Effect.MoveDelta()
	}
	move = ApplyAbilityModifier(ability, move, squareType)

	transitions := []state.Phase{state.PhaseResolvingSquare}
	switch {
	case next.PendingTarget > 0:
		// A ladder's own target always wins over the card's movement.
		ladder := board.Square{}
		if res.Square != nil {
			ladder = *res.Square
		}
		e.moveTo(next, next.PendingTarget)
		next.Message = strings.TrimSpace(next.Message + " " + ladderMessage(ladder))
		transitions = append(transitions, state.PhaseMoving)
	case move != 0:
		e.moveTo(next, next.Position+clampDelta(move))
		transitions = append(transitions, state.PhaseMoving)
	}

	next.ActiveCard = nil
	next.CardSquare = 0
	next.PendingTarget = 0
	next.RetryUsed = false

	res.Transitions = transitions
	if next.GameOver {
		return settle(res, state.PhaseGameOver)
	}
	return settle(res, state.PhaseIdle)
}

// moveTo relocates the token without resolving the destination square.
// Reaching the FINISH square ends the game.
func (e *Engine) moveTo(gs *state.GameState, position int) {
	gs.Position = clampPosition(position)
	e.updateEpoch(gs)
	if gs.Position == board.Size {
		gs.GameOver = true
	}
}

func (e *Engine) updateEpoch(gs *state.GameState) {
	if len(e.story.Epochs) == 0 {
		gs.Epoch, gs.EpochTitle = "", ""
		return
	}
	idx := board.EpochIndex(e.story.Epochs, gs.Position)
	epoch := e.story.Epochs[idx]
	gs.Epoch = epoch.ID
	gs.EpochTitle = epoch.Name
	if e.character != nil {
		if title := e.character.EpochTitles[strconv.Itoa(idx+1)]; title != "" {
			gs.EpochTitle = title
		}
	}
}

func settle(res StepResult, phase state.Phase) StepResult {
	res.State.Phase = phase
	res.Transitions = append(res.Transitions, phase)
	return res
}

func cardTypeFor(t board.SquareType) deck.CardType {
	switch t {
	case board.SquareGate:
		return deck.CardWisdom
	case board.SquareSnake:
		return deck.CardTemptation
	case board.SquareLadder:
		return deck.CardProvidence
	}
	return ""
}

func ladderMessage(sq board.Square) string {
	if sq.ActionDescription != "" {
		return sq.ActionDescription
	}
	return MsgLadder
}

func clampPosition(p int) int {
	return min(max(p, 1), board.Size)
}

// clampDelta bounds a move to one board length each way so adding it to a
// position cannot overflow.
func clampDelta(d int) int {
	return min(max(d, -board.Size), board.Size)
}
