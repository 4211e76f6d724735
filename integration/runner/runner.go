package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/faith-chronicle/pkg/engine"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running faith-chronicle API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
	CharacterOverride string // If set, overrides the character for all test cases
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           30 * time.Second,
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}
		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite creates a game and executes each step against it. The game is
// deleted afterwards.
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	characterID := suite.CharacterID
	if r.CharacterOverride != "" {
		characterID = r.CharacterOverride
	}
	current, err := r.createGame(ctx, characterID)
	if err != nil {
		result.Error = fmt.Errorf("failed to create game: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.GameID = current.State.ID
	defer r.deleteGame(context.Background(), result.GameID)

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult, next := r.runStep(ctx, result.GameID, step, current)
		stepResult.TestName = suite.Name
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
		} else {
			r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
		}
		if next != nil && next.State != nil {
			current = next
		}
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

func (r *Runner) runStep(ctx context.Context, gameID uuid.UUID, step TestStep, current *engine.StepResult) (TestResult, *engine.StepResult) {
	start := time.Now()
	out := TestResult{StepName: step.Name}

	stepCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	var (
		method = http.MethodPost
		path   = fmt.Sprintf("/v1/games/%s/%s", gameID, step.Action)
		body   any
	)
	switch step.Action {
	case ActionRoll:
		body = map[string]*int{"die": step.Die}
	case ActionAnswer:
		option, err := resolveOption(step.Option, current)
		if err != nil {
			out.Error = err
			out.Duration = time.Since(start)
			return out, nil
		}
		body = map[string]string{"option": option}
	case ActionReset:
	case ActionGet:
		method = http.MethodGet
		path = fmt.Sprintf("/v1/games/%s", gameID)
	default:
		out.Error = fmt.Errorf("unknown action %q", step.Action)
		return out, nil
	}

	status, res, err := r.do(stepCtx, method, path, body)
	out.Duration = time.Since(start)
	if err != nil {
		out.Error = err
		return out, nil
	}
	if res.State != nil {
		out.Message = res.State.Message
	}

	if err := checkExpectations(step.Expectations, status, res); err != nil {
		out.Error = err
		return out, res
	}
	out.Success = true
	return out, res
}

// resolveOption maps placeholder options to a concrete answer for the
// card currently awaiting one.
func resolveOption(option string, current *engine.StepResult) (string, error) {
	if option != CorrectOption && option != WrongOption {
		return option, nil
	}
	if current == nil || current.State == nil || current.State.ActiveCard == nil {
		return "", fmt.Errorf("option %s needs an active card", option)
	}
	card := current.State.ActiveCard
	if option == CorrectOption {
		return card.Answer, nil
	}
	for _, o := range card.Options {
		if o != card.Answer {
			return o, nil
		}
	}
	return "", fmt.Errorf("card %s has no wrong option", card.ID)
}

func checkExpectations(exp Expectations, status int, res *engine.StepResult) error {
	var failures []string
	fail := func(format string, args ...any) {
		failures = append(failures, fmt.Sprintf(format, args...))
	}

	wantStatus := http.StatusOK
	if exp.Status != nil {
		wantStatus = *exp.Status
	}
	if status != wantStatus {
		fail("status: expected %d, got %d (%s)", wantStatus, status, res.ErrorMessage)
	}
	if exp.Rejection != "" && string(res.Rejection) != exp.Rejection {
		fail("rejection: expected %s, got %q", exp.Rejection, res.Rejection)
	}

	gs := res.State
	if gs == nil {
		if len(failures) == 0 && hasStateExpectations(exp) {
			fail("response carried no game state")
		}
		return joinFailures(failures)
	}

	if exp.Position != nil && gs.Position != *exp.Position {
		fail("position: expected %d, got %d", *exp.Position, gs.Position)
	}
	if len(exp.PositionRange) == 2 && (gs.Position < exp.PositionRange[0] || gs.Position > exp.PositionRange[1]) {
		fail("position: expected within %v, got %d", exp.PositionRange, gs.Position)
	}
	if exp.Phase != "" && string(gs.Phase) != exp.Phase {
		fail("phase: expected %s, got %s", exp.Phase, gs.Phase)
	}
	if exp.GameOver != nil && gs.GameOver != *exp.GameOver {
		fail("game_over: expected %t, got %t", *exp.GameOver, gs.GameOver)
	}
	if exp.Turn != nil && gs.Turn != *exp.Turn {
		fail("turn: expected %d, got %d", *exp.Turn, gs.Turn)
	}
	if exp.Epoch != "" && gs.Epoch != exp.Epoch {
		fail("epoch: expected %s, got %s", exp.Epoch, gs.Epoch)
	}
	if exp.CardPending != nil && (gs.ActiveCard != nil) != *exp.CardPending {
		fail("card_pending: expected %t, got %t", *exp.CardPending, gs.ActiveCard != nil)
	}
	for name, want := range exp.Stats {
		if got := gs.Stat(name); got != want {
			fail("stat %s: expected %d, got %d", name, want, got)
		}
	}
	for _, s := range exp.MessageContains {
		if !strings.Contains(strings.ToLower(gs.Message), strings.ToLower(s)) {
			fail("message: expected to contain %q, got %q", s, gs.Message)
		}
	}

	return joinFailures(failures)
}

func hasStateExpectations(exp Expectations) bool {
	return exp.Position != nil || len(exp.PositionRange) > 0 || exp.Phase != "" || exp.GameOver != nil ||
		exp.Turn != nil || exp.Epoch != "" || exp.CardPending != nil || len(exp.Stats) > 0 || len(exp.MessageContains) > 0
}

func joinFailures(failures []string) error {
	if len(failures) == 0 {
		return nil
	}
	return fmt.Errorf("%s", strings.Join(failures, "; "))
}

func (r *Runner) createGame(ctx context.Context, characterID string) (*engine.StepResult, error) {
	status, res, err := r.do(ctx, http.MethodPost, "/v1/games", map[string]string{"character_id": characterID})
	if err != nil {
		return nil, err
	}
	if status != http.StatusCreated || res.State == nil {
		return nil, fmt.Errorf("unexpected status %d: %s", status, res.ErrorMessage)
	}
	return res, nil
}

func (r *Runner) deleteGame(ctx context.Context, gameID uuid.UUID) {
	if _, _, err := r.do(ctx, http.MethodDelete, "/v1/games/"+gameID.String(), nil); err != nil {
		r.Logger("    failed to delete game %s: %v", gameID, err)
	}
}

// do sends a request and decodes any JSON body into a StepResult. Error
// bodies decode too, into ErrorMessage.
func (r *Runner) do(ctx context.Context, method, path string, body any) (int, *engine.StepResult, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	res := &engine.StepResult{}
	if len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, res); err != nil {
			return resp.StatusCode, nil, fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
		}
	}
	return resp.StatusCode, res, nil
}
