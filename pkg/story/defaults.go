package story

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefaultStoryID is the story played when a character has none of its own.
const DefaultStoryID = "DAVID_01"

//go:embed defaults/david_01.yaml
var defaultStoryYAML []byte

//go:embed defaults/characters.json
var defaultCharactersJSON []byte

// ParseStory decodes a story document. YAML is a superset of JSON, so both
// encodings are accepted.
func ParseStory(data []byte) (*Story, error) {
	var s Story
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode story: %w", err)
	}
	return &s, nil
}

// ParseCharacters decodes either a single character object or an array of
// them.
func ParseCharacters(data []byte) ([]*Character, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []*Character
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("failed to decode characters: %w", err)
		}
		return list, nil
	}
	var c Character
	if err := json.Unmarshal(trimmed, &c); err != nil {
		return nil, fmt.Errorf("failed to decode character: %w", err)
	}
	return []*Character{&c}, nil
}

// DefaultStory returns a fresh copy of the built-in story.
func DefaultStory() (*Story, error) {
	return ParseStory(defaultStoryYAML)
}

// DefaultCharacters returns fresh copies of the built-in characters.
func DefaultCharacters() ([]*Character, error) {
	return ParseCharacters(defaultCharactersJSON)
}

// DefaultRegistry builds a registry from the built-in story and characters.
func DefaultRegistry(defaultCharacterID string) (*Registry, error) {
	s, err := DefaultStory()
	if err != nil {
		return nil, err
	}
	chars, err := DefaultCharacters()
	if err != nil {
		return nil, err
	}
	return NewRegistry([]*Story{s}, chars, DefaultStoryID, defaultCharacterID)
}
