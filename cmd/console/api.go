package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/faith-chronicle/internal/handlers"
	"github.com/jwebster45206/faith-chronicle/pkg/engine"
)

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// doJSON sends a request and decodes the response into out. Rejected
// intents (409/422) still carry a StepResult, so those statuses decode too
// and are reported through the result rather than as an error.
func doJSON(client *http.Client, method, url string, body any, out any, okStatus ...int) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	accepted := false
	for _, s := range okStatus {
		if resp.StatusCode == s {
			accepted = true
			break
		}
	}
	if !accepted {
		var errorResp ErrorResponse
		if err := json.Unmarshal(respBody, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func listCharacters(client *http.Client, baseURL string) ([]handlers.CharacterSummary, error) {
	var chars []handlers.CharacterSummary
	if err := doJSON(client, http.MethodGet, baseURL+"/v1/characters", nil, &chars, http.StatusOK); err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	return chars, nil
}

func getBoard(client *http.Client, baseURL, characterID string) (*handlers.BoardResponse, error) {
	var b handlers.BoardResponse
	url := fmt.Sprintf("%s/v1/stories/%s/board", baseURL, characterID)
	if err := doJSON(client, http.MethodGet, url, nil, &b, http.StatusOK); err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	return &b, nil
}

func createGame(client *http.Client, baseURL, characterID string) (*engine.StepResult, error) {
	var res engine.StepResult
	req := handlers.CreateGameRequest{CharacterID: characterID}
	if err := doJSON(client, http.MethodPost, baseURL+"/v1/games", req, &res, http.StatusCreated); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return &res, nil
}

func getGame(client *http.Client, baseURL string, gameID uuid.UUID) (*engine.StepResult, error) {
	var res engine.StepResult
	url := fmt.Sprintf("%s/v1/games/%s", baseURL, gameID)
	if err := doJSON(client, http.MethodGet, url, nil, &res, http.StatusOK); err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return &res, nil
}

func sendIntent(client *http.Client, baseURL string, gameID uuid.UUID, action string, body any) (*engine.StepResult, error) {
	var res engine.StepResult
	url := fmt.Sprintf("%s/v1/games/%s/%s", baseURL, gameID, action)
	err := doJSON(client, http.MethodPost, url, body, &res,
		http.StatusOK, http.StatusConflict, http.StatusUnprocessableEntity)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", action, err)
	}
	return &res, nil
}

func rollDie(client *http.Client, baseURL string, gameID uuid.UUID) (*engine.StepResult, error) {
	return sendIntent(client, baseURL, gameID, "roll", handlers.RollRequest{})
}

func answerCard(client *http.Client, baseURL string, gameID uuid.UUID, option string) (*engine.StepResult, error) {
	return sendIntent(client, baseURL, gameID, "answer", handlers.AnswerRequest{Option: option})
}

func resetGame(client *http.Client, baseURL string, gameID uuid.UUID) (*engine.StepResult, error) {
	return sendIntent(client, baseURL, gameID, "reset", nil)
}

func deleteGame(client *http.Client, baseURL string, gameID uuid.UUID) error {
	url := fmt.Sprintf("%s/v1/games/%s", baseURL, gameID)
	return doJSON(client, http.MethodDelete, url, nil, nil, http.StatusNoContent)
}

// SSEEvent represents an event from the SSE stream
type SSEEvent struct {
	Type string
	Data json.RawMessage
}

// listenToSSE connects to the SSE endpoint and streams events to a channel
func listenToSSE(ctx context.Context, client *http.Client, baseURL string, gameID uuid.UUID, eventChan chan<- SSEEvent) error {
	url := fmt.Sprintf("%s/v1/events/games/%s", baseURL, gameID.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to SSE: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("SSE connection failed with status %d: %s", resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var currentEvent SSEEvent

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			// Empty line signals end of event
			if currentEvent.Type != "" {
				select {
				case eventChan <- currentEvent:
				case <-ctx.Done():
					return ctx.Err()
				}
				currentEvent = SSEEvent{}
			}
			continue
		}

		if strings.HasPrefix(line, "event: ") {
			currentEvent.Type = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			currentEvent.Data = json.RawMessage(strings.TrimPrefix(line, "data: "))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading SSE stream: %w", err)
	}

	return nil
}
