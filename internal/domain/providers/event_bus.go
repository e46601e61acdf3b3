package providers

import (
	"context"

	"github.com/zatekoja/foodtruckfinder/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to map commands
type EventBus interface {
	// Publish publishes a command to all subscribers of channel
	Publish(ctx context.Context, channel string, cmd *entities.MapCommand) error

	// Subscribe subscribes to commands on a channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.MapCommand, error)

	// Unsubscribe drops every subscriber of a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannelSessionPrefix is the prefix for per-session map command channels
const EventChannelSessionPrefix = "session:"

// GetSessionChannel returns the channel name for a session
func GetSessionChannel(sessionID string) string {
	return EventChannelSessionPrefix + sessionID
}
