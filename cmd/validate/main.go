package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/jwebster45206/faith-chronicle/internal/storage"
	"github.com/jwebster45206/faith-chronicle/pkg/board"
	"github.com/jwebster45206/faith-chronicle/pkg/deck"
	"github.com/jwebster45206/faith-chronicle/pkg/story"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <data/stories/story.yaml | data/characters/character.json>...\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		validator := &DataValidator{}
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		for _, w := range validator.warnings {
			fmt.Println(w)
		}
		fmt.Printf("%s is valid!\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

type DataValidator struct {
	errors   []string
	warnings []string
}

// validateFile checks a story file, or a character file when it lives in a
// characters directory.
func (v *DataValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)
	v.errors = nil
	v.warnings = nil

	baseName := filepath.Base(filename)
	nameWithoutExt := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	if !isValidFilename(nameWithoutExt) {
		return fmt.Errorf("data filename '%s' must be lowercase snake_case (e.g., esther_01.yaml, not Esther-01.yaml)", baseName)
	}

	if filepath.Base(filepath.Dir(filename)) == "characters" {
		chars, err := storage.ReadCharacterFile(filename)
		if err != nil {
			return fmt.Errorf("file %s: %w", filename, err)
		}
		for _, c := range chars {
			v.validateCharacter(c)
		}
	} else {
		ext := strings.ToLower(filepath.Ext(baseName))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			return fmt.Errorf("story file must have .yaml, .yml or .json extension: %s", baseName)
		}
		s, err := storage.ReadStoryFile(filename)
		if err != nil {
			return fmt.Errorf("file %s: %w", filename, err)
		}
		v.validateStory(s, nameWithoutExt)
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

// validateStory runs the checks beyond story.Validate: the generated board
// and deck coverage of every special square.
func (v *DataValidator) validateStory(s *story.Story, fileID string) {
	if !strings.EqualFold(fileID, s.ID) {
		v.addWarning(fmt.Sprintf("story id '%s' does not match filename '%s'", s.ID, fileID))
	}

	b := s.Board()
	if len(b) != board.Size {
		v.addError(fmt.Sprintf("board has %d squares, expected %d", len(b), board.Size))
		return
	}

	needed := map[board.SquareType]deck.CardType{
		board.SquareGate:   deck.CardWisdom,
		board.SquareSnake:  deck.CardTemptation,
		board.SquareLadder: deck.CardProvidence,
	}
	for i, sq := range b {
		if sq.ID != i+1 {
			v.addError(fmt.Sprintf("square at index %d has id %d", i, sq.ID))
		}
		if sq.Type == board.SquareSnake && sq.HasTarget() && sq.Target >= sq.ID {
			v.addWarning(fmt.Sprintf("snake at square %d leads forward to %d", sq.ID, sq.Target))
		}
		if sq.Type == board.SquareLadder && sq.HasTarget() && sq.Target <= sq.ID {
			v.addWarning(fmt.Sprintf("ladder at square %d leads back to %d", sq.ID, sq.Target))
		}
	}
	for sqType, cardType := range needed {
		if len(deck.Filter(s.Cards, cardType)) == 0 {
			v.addWarning(fmt.Sprintf("deck has no %s cards; %s squares will draw nothing", cardType, sqType))
		}
	}
}

func (v *DataValidator) validateCharacter(c *story.Character) {
	if c.ID != story.NormalizeID(c.ID) {
		v.addError(fmt.Sprintf("character id '%s' should be upper snake case ('%s')", c.ID, story.NormalizeID(c.ID)))
	}
	if c.Name == "" {
		v.addError(fmt.Sprintf("character %s has no name", c.ID))
	}
	for key := range c.EpochTitles {
		n, err := strconv.Atoi(key)
		if err != nil || n < 1 || n > 5 {
			v.addError(fmt.Sprintf("character %s has epoch title key '%s'; expected 1 to 5", c.ID, key))
		}
	}
	declared := map[string]*int{
		"faith":        &c.StartingStats.Faith,
		"wisdom":       &c.StartingStats.Wisdom,
		"courage":      &c.StartingStats.Courage,
		"favored":      c.StartingStats.Favored,
		"spirituality": c.StartingStats.Spirituality,
	}
	for name, value := range declared {
		if value != nil && *value < 0 {
			v.addError(fmt.Sprintf("character %s starting stat %s is negative", c.ID, name))
		}
	}
	if c.StoryID == "" {
		v.addWarning(fmt.Sprintf("character %s has no story_id and will play the default story", c.ID))
	}
}

func (v *DataValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *DataValidator) addWarning(msg string) {
	v.warnings = append(v.warnings, "  warning: "+msg)
}

var validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidFilename(name string) bool {
	return validFilenameRegex.MatchString(name)
}
