package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/faith-chronicle/pkg/engine"
)

func TestLoadConsoleConfig(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://api.local:9000/")
	t.Setenv("CONSOLE_TIMEOUT", "5s")
	t.Setenv("CONSOLE_CHARACTER", "ESTHER")

	cfg, err := loadConsoleConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://api.local:9000", cfg.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "ESTHER", cfg.CharacterID)

	t.Setenv("CONSOLE_TIMEOUT", "soon")
	_, err = loadConsoleConfig()
	assert.Error(t, err)
}

func TestSendIntent_RejectionsDecode(t *testing.T) {
	gameID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/games/" + gameID.String() + "/roll":
			w.WriteHeader(http.StatusConflict)
			fmt.Fprint(w, `{"state":{"position":7,"phase":"AWAITING_CARD_ANSWER"},"rejection":"WRONG_PHASE","error":"a card is awaiting an answer"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":"Game not found"}`)
		}
	}))
	defer srv.Close()

	res, err := rollDie(srv.Client(), srv.URL, gameID)
	require.NoError(t, err)
	assert.Equal(t, engine.RejectWrongPhase, res.Rejection)
	assert.Equal(t, 7, res.State.Position)
	assert.Equal(t, "a card is awaiting an answer", res.ErrorMessage)

	_, err = getGame(srv.Client(), srv.URL, gameID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Game not found")
}

func TestListenToSSE(t *testing.T) {
	gameID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: connected\ndata: {\"game_id\":\""+gameID.String()+"\"}\n\n")
		fmt.Fprint(w, ": keepalive\n\n")
		fmt.Fprint(w, "event: turn.rolled\ndata: {\"position\":5}\n\n")
	}))
	defer srv.Close()

	events := make(chan SSEEvent, 4)
	err := listenToSSE(context.Background(), srv.Client(), srv.URL, gameID, events)
	require.NoError(t, err)
	close(events)

	var got []SSEEvent
	for e := range events {
		got = append(got, e)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "connected", got[0].Type)
	assert.Equal(t, "turn.rolled", got[1].Type)
	assert.JSONEq(t, `{"position":5}`, string(got[1].Data))
}
