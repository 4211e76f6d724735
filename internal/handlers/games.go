package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/faith-chronicle/internal/services/events"
	"github.com/jwebster45206/faith-chronicle/internal/storage"
	"github.com/jwebster45206/faith-chronicle/pkg/board"
	"github.com/jwebster45206/faith-chronicle/pkg/deck"
	"github.com/jwebster45206/faith-chronicle/pkg/engine"
	"github.com/jwebster45206/faith-chronicle/pkg/state"
	"github.com/jwebster45206/faith-chronicle/pkg/story"
)

// lockWait bounds how long an intent waits for another intent on the same game.
var lockWait = 5 * time.Second

// CreateGameRequest is the body of POST /v1/games
type CreateGameRequest struct {
	CharacterID string `json:"character_id"` // Optional: empty selects the default character
}

// RollRequest is the body of POST /v1/games/{id}/roll
type RollRequest struct {
	Die *int `json:"die,omitempty"` // Optional: the server rolls when absent
}

// AnswerRequest is the body of POST /v1/games/{id}/answer
type AnswerRequest struct {
	Option string `json:"option"`
}

// intent applies one player action to a loaded game.
type intent func(eng *engine.Engine, gs *state.GameState) (engine.StepResult, error)

type GameHandler struct {
	storage   storage.Storage
	registry  *story.Registry
	publisher events.Publisher
	rng       deck.RandomSource
	logger    *slog.Logger
}

// NewGameHandler creates the game session handler. publisher may be nil to
// skip event broadcasting; rng may be nil to use the process-wide generator.
func NewGameHandler(storage storage.Storage, registry *story.Registry, publisher events.Publisher, rng deck.RandomSource, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		storage:   storage,
		registry:  registry,
		publisher: publisher,
		rng:       rng,
		logger:    logger,
	}
}

// ServeHTTP handles HTTP requests for game sessions
// Routes:
// POST /v1/games              - Create a game
// GET /v1/games/{id}          - Read a game snapshot
// DELETE /v1/games/{id}       - End a game
// POST /v1/games/{id}/roll    - Roll the die and move
// POST /v1/games/{id}/answer  - Answer the active card
// POST /v1/games/{id}/reset   - Restart the game
func (h *GameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/games"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			h.logger.Warn("Method not allowed for games endpoint", "method", r.Method)
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.Split(path, "/")
	if len(parts) > 2 {
		writeError(w, h.logger, http.StatusNotFound, "Unknown games route")
		return
	}
	gameID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid game ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid game ID format")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, gameID)
		case http.MethodDelete:
			h.handleDelete(w, r, gameID)
		default:
			h.logger.Warn("Method not allowed for game endpoint", "method", r.Method)
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	switch parts[1] {
	case "roll":
		h.handleRoll(w, r, gameID)
	case "answer":
		h.handleAnswer(w, r, gameID)
	case "reset":
		h.withGame(w, r, gameID, events.EventTypeGameReset, func(_ *engine.Engine, gs *state.GameState) (engine.StepResult, error) {
			fresh, err := engine.Reset(h.registry, gs)
			if err != nil {
				return engine.StepResult{}, err
			}
			return engine.StepResult{State: fresh}, nil
		})
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown games route")
	}
}

func (h *GameHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := decodeOptional(r.Body, &req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	gs, err := engine.NewGame(h.registry, req.CharacterID)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownCharacter) {
			h.logger.Warn("Unknown character requested", "character_id", req.CharacterID)
			msg := "Unknown character: " + req.CharacterID
			if suggestion, ok := h.registry.SuggestCharacter(req.CharacterID); ok {
				msg += " (did you mean " + suggestion + "?)"
			}
			writeError(w, h.logger, http.StatusUnprocessableEntity, msg)
			return
		}
		h.logger.Error("Failed to create game", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create game")
		return
	}

	if err := h.storage.SaveGameState(r.Context(), gs.ID, gs); err != nil {
		h.logger.Error("Failed to save new game", "error", err, "game_id", gs.ID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create game")
		return
	}

	res := h.snapshot(gs)
	h.publish(r.Context(), gs.ID, events.EventTypeGameCreated, res)
	h.logger.Info("Game created", "game_id", gs.ID.String(), "character_id", gs.CharacterID, "story_id", gs.StoryID)
	writeJSON(w, h.logger, http.StatusCreated, res)
}

func (h *GameHandler) handleRead(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	gs, err := h.storage.LoadGameState(r.Context(), gameID)
	if err != nil {
		h.logger.Error("Failed to load game", "error", err, "game_id", gameID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game")
		return
	}
	if gs == nil {
		h.logger.Warn("Game not found", "game_id", gameID.String())
		writeError(w, h.logger, http.StatusNotFound, "Game not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, h.snapshot(gs))
}

func (h *GameHandler) handleDelete(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	if err := h.storage.DeleteGameState(r.Context(), gameID); err != nil {
		h.logger.Error("Failed to delete game", "error", err, "game_id", gameID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete game")
		return
	}
	h.publish(r.Context(), gameID, events.EventTypeGameDeleted, map[string]string{"game_id": gameID.String()})
	h.logger.Debug("Game deleted", "game_id", gameID.String())
	w.WriteHeader(http.StatusNoContent)
}

func (h *GameHandler) handleRoll(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	var req RollRequest
	if err := decodeOptional(r.Body, &req); err != nil {
		h.logger.Warn("Invalid JSON in roll request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	h.withGame(w, r, gameID, events.EventTypeTurnRolled, func(eng *engine.Engine, gs *state.GameState) (engine.StepResult, error) {
		if req.Die == nil {
			return eng.Roll(gs), nil
		}
		return eng.ApplyRoll(gs, *req.Die), nil
	})
}

func (h *GameHandler) handleAnswer(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in answer request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	h.withGame(w, r, gameID, events.EventTypeCardAnswered, func(eng *engine.Engine, gs *state.GameState) (engine.StepResult, error) {
		return eng.ApplyCardAnswer(gs, req.Option), nil
	})
}

// withGame runs fn against the stored game while holding the game's lock,
// persists the new state and broadcasts it. Rejected intents leave storage
// untouched.
func (h *GameHandler) withGame(w http.ResponseWriter, r *http.Request, gameID uuid.UUID, eventType events.EventType, fn intent) {
	log := h.logger.With("game_id", gameID.String())

	lockCtx, cancel := context.WithTimeout(r.Context(), lockWait)
	defer cancel()
	unlock, err := h.storage.LockGame(lockCtx, gameID)
	if err != nil {
		if errors.Is(err, storage.ErrLockTimeout) {
			log.Warn("Game is busy", "error", err)
			writeError(w, h.logger, http.StatusConflict, "Game is busy, try again")
			return
		}
		log.Error("Failed to lock game", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to lock game")
		return
	}
	defer unlock()

	gs, err := h.storage.LoadGameState(r.Context(), gameID)
	if err != nil {
		log.Error("Failed to load game", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game")
		return
	}
	if gs == nil {
		log.Warn("Game not found")
		writeError(w, h.logger, http.StatusNotFound, "Game not found")
		return
	}

	eng, err := engine.ForGame(h.registry, gs, h.rng)
	if err != nil {
		log.Error("Failed to build engine", "error", err, "story_id", gs.StoryID)
		writeError(w, h.logger, http.StatusInternalServerError, "Story not available for this game")
		return
	}

	res, err := fn(eng, gs)
	if err != nil {
		log.Error("Failed to apply intent", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to apply action")
		return
	}
	if res.Rejected() {
		log.Debug("Intent rejected", "rejection", res.Rejection, "reason", res.ErrorMessage)
		if res.Square == nil {
			res.Square = h.currentSquare(eng, res.State)
		}
		writeJSON(w, h.logger, rejectionStatus(res.Rejection), res)
		return
	}

	if err := h.storage.SaveGameState(r.Context(), gameID, res.State); err != nil {
		log.Error("Failed to save game", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save game")
		return
	}
	if res.Square == nil {
		res.Square = h.currentSquare(eng, res.State)
	}

	h.publish(r.Context(), gameID, eventType, res)
	if res.State.GameOver && !gs.GameOver {
		log.Info("Game over", "turn", res.State.Turn)
		h.publish(r.Context(), gameID, events.EventTypeGameOver, res)
	}
	writeJSON(w, h.logger, http.StatusOK, res)
}

// snapshot wraps a stored state with the square it stands on.
func (h *GameHandler) snapshot(gs *state.GameState) engine.StepResult {
	res := engine.StepResult{State: gs}
	if eng, err := engine.ForGame(h.registry, gs, h.rng); err == nil {
		res.Square = h.currentSquare(eng, gs)
	}
	return res
}

func (h *GameHandler) currentSquare(eng *engine.Engine, gs *state.GameState) *board.Square {
	sq, ok := eng.Board().Square(gs.Position)
	if !ok {
		return nil
	}
	return &sq
}

func (h *GameHandler) publish(ctx context.Context, gameID uuid.UUID, eventType events.EventType, data any) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(ctx, gameID, eventType, data); err != nil {
		h.logger.Warn("Failed to publish event", "error", err, "game_id", gameID.String(), "event_type", eventType)
	}
}

func rejectionStatus(kind engine.Rejection) int {
	if kind == engine.RejectWrongPhase {
		return http.StatusConflict
	}
	return http.StatusUnprocessableEntity
}

// decodeOptional decodes a JSON body, treating an empty body as zero values.
func decodeOptional(body io.Reader, v any) error {
	err := json.NewDecoder(body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
