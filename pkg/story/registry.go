package story

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/faith-chronicle/pkg/board"
	"github.com/jwebster45206/faith-chronicle/pkg/state"
)

var upper = cases.Upper(language.Und)

// NormalizeID converts a character or story id to its canonical form:
// trimmed, upper case, with spaces and hyphens as underscores.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.NewReplacer(" ", "_", "-", "_").Replace(id)
	return upper.String(id)
}

var ErrNoStories = errors.New("registry requires at least one story")

// Registry is the read-only store of stories and characters, loaded once at
// startup. Boards are generated once per story when the registry is built.
type Registry struct {
	stories        map[string]*Story
	boards         map[string]board.Board
	characters     map[string]*Character
	order          []string
	defaultStory   string
	defaultCharKey string
}

// NewRegistry builds a registry. defaultStoryID names the fallback story;
// when empty the first story is used. defaultCharacterID names the character
// used when none is selected; when empty the first character is used.
func NewRegistry(stories []*Story, characters []*Character, defaultStoryID, defaultCharacterID string) (*Registry, error) {
	if len(stories) == 0 {
		return nil, ErrNoStories
	}

	r := &Registry{
		stories:    make(map[string]*Story, len(stories)),
		boards:     make(map[string]board.Board, len(stories)),
		characters: make(map[string]*Character, len(characters)),
	}

	for _, s := range stories {
		if s == nil {
			continue
		}
		key := NormalizeID(s.ID)
		if key == "" {
			return nil, fmt.Errorf("story with empty id")
		}
		r.stories[key] = s
		r.boards[key] = s.Board()
	}

	for _, c := range characters {
		if c == nil {
			continue
		}
		key := NormalizeID(c.ID)
		if key == "" {
			return nil, fmt.Errorf("character with empty id")
		}
		if _, exists := r.characters[key]; !exists {
			r.order = append(r.order, key)
		}
		r.characters[key] = c
	}

	r.defaultStory = NormalizeID(defaultStoryID)
	if r.defaultStory == "" {
		r.defaultStory = NormalizeID(stories[0].ID)
	}
	if _, ok := r.stories[r.defaultStory]; !ok {
		return nil, fmt.Errorf("default story %q not registered", defaultStoryID)
	}

	r.defaultCharKey = NormalizeID(defaultCharacterID)
	if r.defaultCharKey == "" && len(r.order) > 0 {
		r.defaultCharKey = r.order[0]
	}
	if r.defaultCharKey != "" {
		if _, ok := r.characters[r.defaultCharKey]; !ok {
			return nil, fmt.Errorf("default character %q not registered", defaultCharacterID)
		}
	}

	return r, nil
}

// Character looks up a character by id.
func (r *Registry) Character(id string) (*Character, bool) {
	c, ok := r.characters[NormalizeID(id)]
	return c, ok
}

// Characters returns every character in registration order.
func (r *Registry) Characters() []*Character {
	out := make([]*Character, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.characters[key])
	}
	return out
}

// SuggestCharacter returns the known character id closest to a mistyped
// one, if any is within a few edits.
func (r *Registry) SuggestCharacter(id string) (string, bool) {
	id = NormalizeID(id)
	if id == "" {
		return "", false
	}
	best, bestDist := "", -1
	for _, key := range r.order {
		dist := levenshtein.ComputeDistance(id, key)
		if dist > suggestLimit(len(key)) {
			continue
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = r.characters[key].ID, dist
		}
	}
	return best, bestDist >= 0
}

func suggestLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// DefaultCharacterID returns the character used when none is selected.
func (r *Registry) DefaultCharacterID() string {
	if c, ok := r.characters[r.defaultCharKey]; ok {
		return c.ID
	}
	return ""
}

// Story looks up a story by id.
func (r *Registry) Story(id string) (*Story, bool) {
	s, ok := r.stories[NormalizeID(id)]
	return s, ok
}

// ResolveStory returns the story played by the character, falling back to
// the default story when the character is unknown, unset, or has no story
// of its own.
func (r *Registry) ResolveStory(characterID string) *Story {
	if c, ok := r.Character(characterID); ok && c.StoryID != "" {
		if s, ok := r.Story(c.StoryID); ok {
			return s
		}
	}
	return r.stories[r.defaultStory]
}

// Board returns the pre-generated board for a story. The returned slice is
// shared and must not be modified.
func (r *Registry) Board(storyID string) (board.Board, bool) {
	b, ok := r.boards[NormalizeID(storyID)]
	return b, ok
}

// StartingStats returns the character's starting stats under game stat
// names. Unknown characters get the default character's stats.
func (r *Registry) StartingStats(characterID string) state.Stats {
	c, ok := r.Character(characterID)
	if !ok {
		c, ok = r.characters[r.defaultCharKey]
	}
	if !ok {
		return StartingStats{}.GameStats()
	}
	return c.StartingStats.GameStats()
}

// EpochTitle returns the character's title for the epoch, falling back to
// the epoch's own name.
func (r *Registry) EpochTitle(characterID string, s *Story, epochID string) string {
	for i, e := range s.Epochs {
		if e.ID != epochID {
			continue
		}
		if c, ok := r.Character(characterID); ok {
			if title := c.EpochTitles[strconv.Itoa(i+1)]; title != "" {
				return title
			}
		}
		return e.Name
	}
	return ""
}
