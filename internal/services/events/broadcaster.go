package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeGameCreated  EventType = "game.created"
	EventTypeTurnRolled   EventType = "turn.rolled"
	EventTypeCardAnswered EventType = "card.answered"
	EventTypeGameReset    EventType = "game.reset"
	EventTypeGameOver     EventType = "game.over"
	EventTypeGameDeleted  EventType = "game.deleted"
)

// Event is one snapshot notification on a game's channel
type Event struct {
	Type   EventType       `json:"type"`
	GameID string          `json:"game_id"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Publisher publishes game events. Handlers depend on this rather than on
// the Redis-backed Broadcaster.
type Publisher interface {
	Publish(ctx context.Context, gameID uuid.UUID, eventType EventType, data any) error
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

var _ Publisher = (*Broadcaster)(nil)

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Channel returns the pub/sub channel for a game
func Channel(gameID uuid.UUID) string {
	return "game-events:" + gameID.String()
}

// Publish sends an event with data marshaled as its payload
func (b *Broadcaster) Publish(ctx context.Context, gameID uuid.UUID, eventType EventType, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		b.logger.Error("Failed to marshal event data", "error", err, "event_type", eventType)
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	event := Event{
		Type:   eventType,
		GameID: gameID.String(),
		Data:   payload,
	}
	msg, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := Channel(gameID)
	if err := b.redisClient.Publish(ctx, channel, msg).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", eventType,
	)
	return nil
}

// Subscribe opens a subscription to a game's events. The caller must close
// the returned PubSub.
func (b *Broadcaster) Subscribe(ctx context.Context, gameID uuid.UUID) *redis.PubSub {
	return b.redisClient.Subscribe(ctx, Channel(gameID))
}
