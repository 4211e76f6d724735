package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jwebster45206/faith-chronicle/pkg/story"
)

// LoadRegistry builds the story registry from dataDir. The built-in story
// and characters are always present; files under stories/ and characters/
// add to them or replace them by id. Files that fail to parse or validate are
// skipped with a warning. A missing data directory yields the built-ins.
func LoadRegistry(dataDir, defaultCharacterID string, logger *slog.Logger) (*story.Registry, error) {
	builtin, err := story.DefaultStory()
	if err != nil {
		return nil, fmt.Errorf("failed to load built-in story: %w", err)
	}
	chars, err := story.DefaultCharacters()
	if err != nil {
		return nil, fmt.Errorf("failed to load built-in characters: %w", err)
	}

	stories := []*story.Story{builtin}
	fileStories, err := ReadStories(filepath.Join(dataDir, "stories"), logger)
	if err != nil {
		return nil, err
	}
	stories = append(stories, fileStories...)

	fileChars, err := ReadCharacters(filepath.Join(dataDir, "characters"), logger)
	if err != nil {
		return nil, err
	}
	chars = append(chars, fileChars...)

	reg, err := story.NewRegistry(stories, chars, story.DefaultStoryID, defaultCharacterID)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}

	logger.Info("Story registry loaded",
		"data_dir", dataDir,
		"stories", len(stories),
		"characters", len(reg.Characters()))
	return reg, nil
}

// ReadStories parses and validates every story file in dir.
func ReadStories(dir string, logger *slog.Logger) ([]*story.Story, error) {
	paths, err := listFiles(dir, ".yaml", ".yml", ".json")
	if err != nil {
		return nil, err
	}

	var out []*story.Story
	for _, path := range paths {
		s, err := ReadStoryFile(path)
		if err != nil {
			logger.Warn("Skipping story file", "path", path, "error", err)
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// ReadStoryFile parses and validates one story file.
func ReadStoryFile(path string) (*story.Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("story file %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read story file: %w", err)
	}
	s, err := story.ParseStory(data)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ReadCharacters parses every character file in dir.
func ReadCharacters(dir string, logger *slog.Logger) ([]*story.Character, error) {
	paths, err := listFiles(dir, ".json")
	if err != nil {
		return nil, err
	}

	var out []*story.Character
	for _, path := range paths {
		chars, err := ReadCharacterFile(path)
		if err != nil {
			logger.Warn("Skipping character file", "path", path, "error", err)
			continue
		}
		out = append(out, chars...)
	}
	return out, nil
}

// ReadCharacterFile parses one character file. A file holding a single
// character without an id takes its id from the filename.
func ReadCharacterFile(path string) ([]*story.Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("character file %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read character file: %w", err)
	}
	chars, err := story.ParseCharacters(data)
	if err != nil {
		return nil, err
	}
	if len(chars) == 1 && chars[0].ID == "" {
		chars[0].ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	for _, c := range chars {
		if c.ID == "" {
			return nil, fmt.Errorf("character without id in %s", path)
		}
		if !c.Ability.Valid() {
			return nil, fmt.Errorf("character %s: unknown ability %q", c.ID, c.Ability)
		}
	}
	return chars, nil
}

// listFiles returns the sorted regular files in dir with one of the given
// extensions. A missing directory is not an error.
func listFiles(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if slices.Contains(exts, strings.ToLower(filepath.Ext(entry.Name()))) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	slices.Sort(paths)
	return paths, nil
}
