package board

// SquareType classifies how a square behaves when the token lands on it.
type SquareType string

const (
	SquareStart  SquareType = "START"
	SquareNormal SquareType = "NORMAL"
	SquareLadder SquareType = "LADDER"
	SquareSnake  SquareType = "SNAKE"
	SquareGate   SquareType = "GATE"
	SquareFinish SquareType = "FINISH"
)

// Valid reports whether t is one of the known square types.
func (t SquareType) Valid() bool {
	switch t {
	case SquareStart, SquareNormal, SquareLadder, SquareSnake, SquareGate, SquareFinish:
		return true
	}
	return false
}

// Special reports whether landing on a square of this type draws a card.
func (t SquareType) Special() bool {
	return t == SquareLadder || t == SquareSnake || t == SquareGate
}

// Trigger hints recorded on generated squares. They are display data only;
// the turn engine picks the card type from the square type.
const (
	TriggerProvidence = "PROVIDENCE"
	TriggerWisdom     = "WISDOM"
)

// Square is one cell of the board.
type Square struct {
	ID                int        `json:"id"`
	Epoch             string     `json:"epoch"`
	Type              SquareType `json:"type"`
	Label             string     `json:"label"`
	Target            int        `json:"target,omitempty"` // 0 when the square has no transition
	Trigger           string     `json:"trigger,omitempty"`
	ActionDescription string     `json:"action_description,omitempty"`
}

// HasTarget reports whether the square carries an automatic transition.
func (s Square) HasTarget() bool {
	return s.Target > 0
}

// Epoch is a named chapter of the board. Start and End are optional; when
// both are zero the epoch owns the 20-square band matching its position in
// the story's epoch list.
type Epoch struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Start int    `json:"start,omitempty" yaml:"start,omitempty"`
	End   int    `json:"end,omitempty" yaml:"end,omitempty"`
}

// HasRange reports whether the epoch declares an explicit square range.
func (e Epoch) HasRange() bool {
	return e.Start > 0 && e.End >= e.Start
}

// FixedSquare is a hand-authored override for a single square. Unset fields
// fall back to the generated defaults.
type FixedSquare struct {
	ID                int        `json:"id" yaml:"id"`
	Type              SquareType `json:"type,omitempty" yaml:"type,omitempty"`
	Label             string     `json:"label,omitempty" yaml:"label,omitempty"`
	Target            int        `json:"target,omitempty" yaml:"target,omitempty"`
	Trigger           string     `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	ActionDescription string     `json:"action_description,omitempty" yaml:"action_description,omitempty"`
}
