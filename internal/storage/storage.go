package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jwebster45206/faith-chronicle/pkg/state"
	"github.com/jwebster45206/faith-chronicle/pkg/story"
)

var (
	// ErrNotFound is returned when static data is missing.
	ErrNotFound = errors.New("not found")
	// ErrLockTimeout is returned when a game lock cannot be acquired before
	// the context ends.
	ErrLockTimeout = errors.New("timed out waiting for game lock")
)

// UnlockFunc releases a lock acquired with LockGame.
type UnlockFunc func()

// Storage combines game session persistence (Redis) with static story and
// character data (filesystem).
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// GameState operations. LoadGameState returns (nil, nil) when the game
	// does not exist.
	SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error
	LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error)
	DeleteGameState(ctx context.Context, id uuid.UUID) error

	// LockGame blocks until the caller holds the game's lock or ctx ends.
	// Intents for one game run one at a time under this lock.
	LockGame(ctx context.Context, id uuid.UUID) (UnlockFunc, error)

	// LoadRegistry reads stories and characters, falling back to the
	// built-in defaults.
	LoadRegistry(ctx context.Context) (*story.Registry, error)
}
