package runner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/faith-chronicle/pkg/deck"
	"github.com/jwebster45206/faith-chronicle/pkg/engine"
	"github.com/jwebster45206/faith-chronicle/pkg/state"
)

func intPtr(i int) *int    { return &i }
func boolPtr(b bool) *bool { return &b }

func activeCard() *engine.StepResult {
	gs := state.NewGameState("DAVID", "DAVID_01", state.Stats{state.StatCourage: 15})
	gs.ActiveCard = &deck.Card{
		ID:      "t1",
		Type:    deck.CardTemptation,
		Options: []string{"Flee", "Stay"},
		Answer:  "Flee",
	}
	return &engine.StepResult{State: gs}
}

func TestResolveOption(t *testing.T) {
	tests := []struct {
		name    string
		option  string
		current *engine.StepResult
		want    string
		wantErr bool
	}{
		{"literal", "Stay", nil, "Stay", false},
		{"correct", CorrectOption, activeCard(), "Flee", false},
		{"wrong", WrongOption, activeCard(), "Stay", false},
		{"no card", CorrectOption, &engine.StepResult{State: &state.GameState{}}, "", true},
		{"no state", WrongOption, nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveOption(tt.option, tt.current)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckExpectations(t *testing.T) {
	res := activeCard()
	res.State.Position = 7
	res.State.Phase = state.PhaseAwaitingCardAnswer
	res.State.Message = "Giant Slayer! Thou hast a second chance to answer."

	tests := []struct {
		name    string
		exp     Expectations
		status  int
		wantErr string
	}{
		{"all match", Expectations{
			Position:        intPtr(7),
			Phase:           "AWAITING_CARD_ANSWER",
			CardPending:     boolPtr(true),
			Stats:           map[string]int{"courage": 15},
			MessageContains: []string{"second CHANCE"},
		}, http.StatusOK, ""},
		{"status mismatch", Expectations{}, http.StatusConflict, "status"},
		{"position mismatch", Expectations{Position: intPtr(9)}, http.StatusOK, "position"},
		{"range", Expectations{PositionRange: []int{1, 6}}, http.StatusOK, "within"},
		{"stat mismatch", Expectations{Stats: map[string]int{"courage": 20}}, http.StatusOK, "stat courage"},
		{"game over", Expectations{GameOver: boolPtr(true)}, http.StatusOK, "game_over"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkExpectations(tt.exp, tt.status, res)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	rejected := &engine.StepResult{Rejection: engine.RejectWrongPhase, ErrorMessage: "card pending"}
	assert.NoError(t, checkExpectations(Expectations{Status: intPtr(409), Rejection: "WRONG_PHASE"}, http.StatusConflict, rejected))
	assert.Error(t, checkExpectations(Expectations{Status: intPtr(409), Position: intPtr(1)}, http.StatusConflict, rejected))
}

func TestLoadTestSuiteWithExpansion(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("one.json", `{"name":"One","character_id":"DAVID","steps":[{"action":"roll","die":2,"expect":{"position":3}}]}`)
	write("two.json", `{"name":"Two","steps":[{"action":"reset","expect":{}}]}`)
	write("both.json", `{"name":"Both","cases":["one.json","two.json"]}`)
	write("broken.json", `{"name":"Broken","cases":["missing.json"]}`)

	jobs, err := LoadTestSuiteWithExpansion(filepath.Join(dir, "both.json"), dir)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "One", jobs[0].Name)
	assert.Equal(t, 2, *jobs[0].Suite.Steps[0].Die)
	assert.Equal(t, "Two", jobs[1].Name)

	_, err = LoadTestSuiteWithExpansion(filepath.Join(dir, "broken.json"), dir)
	assert.Error(t, err)
}

// fakeAPI serves a tiny game that only knows how to roll.
func fakeAPI(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var calls []string
	gs := state.NewGameState("DAVID", "DAVID_01", state.Stats{state.StatCourage: 15})
	gs.ID = uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+strings.Replace(r.URL.Path, gs.ID.String(), "{id}", 1))
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/games":
			gs.Position, gs.Turn = 1, 0
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(engine.StepResult{State: gs})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/roll"):
			var req struct {
				Die *int `json:"die"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			gs.Position += *req.Die
			gs.Turn++
			_ = json.NewEncoder(w).Encode(engine.StepResult{State: gs})
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestRunner_RunSuite(t *testing.T) {
	srv, calls := fakeAPI(t)
	r := NewRunner(srv.URL + "/")

	suite := TestSuite{
		Name:        "Rolls",
		CharacterID: "DAVID",
		Steps: []TestStep{
			{Name: "first", Action: ActionRoll, Die: intPtr(2), Expectations: Expectations{Position: intPtr(3), Turn: intPtr(1)}},
			{Name: "second", Action: ActionRoll, Die: intPtr(4), Expectations: Expectations{Position: intPtr(99)}},
			{Name: "third", Action: ActionRoll, Die: intPtr(1), Expectations: Expectations{Position: intPtr(8)}},
		},
	}

	result, err := r.RunSuite(context.Background(), suite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1 (second)")
	require.Len(t, result.Results, 3)
	assert.True(t, result.Results[0].Success)
	assert.False(t, result.Results[1].Success)
	assert.True(t, result.Results[2].Success)
	assert.NotEqual(t, uuid.Nil, result.GameID)
	assert.Equal(t, []string{
		"POST /v1/games",
		"POST /v1/games/{id}/roll",
		"POST /v1/games/{id}/roll",
		"POST /v1/games/{id}/roll",
		"DELETE /v1/games/{id}",
	}, *calls)

	r.ErrorHandlingMode = ErrorHandlingExit
	result, err = r.RunSuite(context.Background(), suite)
	require.Error(t, err)
	assert.Len(t, result.Results, 2)
}
