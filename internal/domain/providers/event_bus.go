package providers

import (
	"context"

	"github.com/wardweistra/parkour-spot-api/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.SpotEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.SpotEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event types
const (
	// EventChannelSpotUpdates is the channel carrying every spot change
	EventChannelSpotUpdates = "spot:updates"

	// EventChannelSpotPrefix is the prefix for spot-specific channels
	EventChannelSpotPrefix = "spot:"
)

// GetSpotChannel returns the channel name for a specific spot
func GetSpotChannel(spotID string) string {
	return EventChannelSpotPrefix + spotID
}
