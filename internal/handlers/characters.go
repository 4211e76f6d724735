package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/faith-chronicle/pkg/board"
	"github.com/jwebster45206/faith-chronicle/pkg/state"
	"github.com/jwebster45206/faith-chronicle/pkg/story"
)

// CharacterSummary is one entry of the character selection list
type CharacterSummary struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	StoryID            string            `json:"story_id"`
	Ability            story.Ability     `json:"ability,omitempty"`
	AbilityName        string            `json:"ability_name,omitempty"`
	AbilityDescription string            `json:"ability_description,omitempty"`
	EpochTitles        map[string]string `json:"epoch_titles,omitempty"`
	StartingStats      state.Stats       `json:"starting_stats"`
}

type CharactersHandler struct {
	registry *story.Registry
	logger   *slog.Logger
}

func NewCharactersHandler(registry *story.Registry, logger *slog.Logger) *CharactersHandler {
	return &CharactersHandler{
		registry: registry,
		logger:   logger,
	}
}

// ServeHTTP lists characters.
// GET /v1/characters
func (h *CharactersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	chars := h.registry.Characters()
	out := make([]CharacterSummary, 0, len(chars))
	for _, c := range chars {
		out = append(out, CharacterSummary{
			ID:                 c.ID,
			Name:               c.Name,
			StoryID:            h.registry.ResolveStory(c.ID).ID,
			Ability:            c.Ability,
			AbilityName:        c.AbilityName,
			AbilityDescription: c.AbilityDescription,
			EpochTitles:        c.EpochTitles,
			StartingStats:      h.registry.StartingStats(c.ID),
		})
	}
	writeJSON(w, h.logger, http.StatusOK, out)
}

// BoardResponse is the generated board for a character's story
type BoardResponse struct {
	StoryID     string        `json:"story_id"`
	StoryName   string        `json:"story_name"`
	CharacterID string        `json:"character_id"`
	Epochs      []board.Epoch `json:"epochs"`
	Squares     board.Board   `json:"squares"`
}

type BoardHandler struct {
	registry *story.Registry
	logger   *slog.Logger
}

func NewBoardHandler(registry *story.Registry, logger *slog.Logger) *BoardHandler {
	return &BoardHandler{
		registry: registry,
		logger:   logger,
	}
}

// ServeHTTP returns the board of the story a character plays. Unknown
// characters get the default story.
// GET /v1/stories/{characterId}/board
func (h *BoardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/stories"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "board" || parts[0] == "" {
		writeError(w, h.logger, http.StatusNotFound, "Invalid path. Expected /v1/stories/{characterId}/board")
		return
	}

	characterID := parts[0]
	s := h.registry.ResolveStory(characterID)
	b, ok := h.registry.Board(s.ID)
	if !ok {
		h.logger.Error("Board missing for registered story", "story_id", s.ID)
		writeError(w, h.logger, http.StatusInternalServerError, "Board not available")
		return
	}

	resolved := characterID
	if c, ok := h.registry.Character(characterID); ok {
		resolved = c.ID
	}
	writeJSON(w, h.logger, http.StatusOK, BoardResponse{
		StoryID:     s.ID,
		StoryName:   s.Name,
		CharacterID: resolved,
		Epochs:      s.Epochs,
		Squares:     b,
	})
}
