package runner

import (
	"time"

	"github.com/google/uuid"
)

// Placeholder options resolved against the active card at run time, since
// card draws are random.
const (
	CorrectOption = "$correct"
	WrongOption   = "$wrong"
)

// Step actions
const (
	ActionRoll   = "roll"
	ActionAnswer = "answer"
	ActionReset  = "reset"
	ActionGet    = "get"
)

// TestSuite defines a complete integration test scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name        string     `json:"name"`
	CharacterID string     `json:"character_id,omitempty"` // Used for regular tests
	Steps       []TestStep `json:"steps,omitempty"`        // Used for regular tests
	Cases       []string   `json:"cases,omitempty"`        // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single intent and its expected outcome
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Action       string       `json:"action"`
	Die          *int         `json:"die,omitempty"`
	Option       string       `json:"option,omitempty"`
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	// HTTP outcome
	Status    *int   `json:"status,omitempty"`
	Rejection string `json:"rejection,omitempty"`

	// GameState properties - aligned with pkg/state/gamestate.go
	Position      *int           `json:"position,omitempty"`
	PositionRange []int          `json:"position_range,omitempty"` // inclusive [min, max]
	Phase         string         `json:"phase,omitempty"`
	GameOver      *bool          `json:"game_over,omitempty"`
	Turn          *int           `json:"turn,omitempty"`
	Epoch         string         `json:"epoch,omitempty"`
	Stats         map[string]int `json:"stats,omitempty"`
	CardPending   *bool          `json:"card_pending,omitempty"`

	// Message analysis
	MessageContains []string `json:"message_contains,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName string
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
	Message  string
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	GameID   uuid.UUID // ID of the game used for this test
}
