package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// SpotEventType represents the type of spot event
type SpotEventType string

const (
	SpotEventTypeCreated SpotEventType = "spot_created"
	SpotEventTypeUpdated SpotEventType = "spot_updated"
	SpotEventTypeDeleted SpotEventType = "spot_deleted"
	SpotEventTypeRated   SpotEventType = "spot_rated"
	SpotEventTypeSynced  SpotEventType = "spot_synced"
)

// SpotEvent represents a change event published for a spot. Screens that used
// to observe a mutable shared list subscribe to these instead.
type SpotEvent struct {
	ID            string                 `json:"id"`
	SpotID        string                 `json:"spot_id"`
	EventType     SpotEventType          `json:"event_type"`
	Timestamp     time.Time              `json:"timestamp"`
	Location      Location               `json:"location"`
	ChangedFields map[string]interface{} `json:"changed_fields,omitempty"`
}

// NewSpotEvent creates a new spot event
func NewSpotEvent(spotID string, eventType SpotEventType, location Location, changedFields map[string]interface{}) *SpotEvent {
	return &SpotEvent{
		ID:            generateEventID(),
		SpotID:        spotID,
		EventType:     eventType,
		Timestamp:     time.Now(),
		Location:      location,
		ChangedFields: changedFields,
	}
}

// generateEventID generates a unique event ID
func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

// randomString generates a random string of specified length
func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based if crypto/rand fails
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
