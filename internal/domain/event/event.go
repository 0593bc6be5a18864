package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/oakline/maintflow/internal/domain/entity"
)

// Event is a domain event describing something that happened to a workflow
// entity. Events carry enough identity for handlers to reload the entity;
// details beyond that go in the payload.
type Event struct {
	ID            string                 `json:"id"`
	Type          Type                   `json:"type"`
	EntityType    entity.EntityType      `json:"entity_type"`
	EntityID      int64                  `json:"entity_id"`
	Payload       map[string]interface{} `json:"payload"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id"`
}

// New creates an event with a fresh ID and correlation ID
func New(eventType Type, entityType entity.EntityType, entityID int64, payload map[string]interface{}) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		EntityType:    entityType,
		EntityID:      entityID,
		Payload:       payload,
		Timestamp:     time.Now(),
		CorrelationID: uuid.NewString(),
	}
}

// NewCorrelated creates an event linked to an existing correlation chain.
// Cascade-driven events reuse the correlation ID of the primary transition.
func NewCorrelated(eventType Type, entityType entity.EntityType, entityID int64, payload map[string]interface{}, correlationID string) *Event {
	evt := New(eventType, entityType, entityID, payload)
	evt.CorrelationID = correlationID
	return evt
}

// PayloadString retrieves a string value from the payload
func (e *Event) PayloadString(key string) string {
	if v, ok := e.Payload[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// PayloadInt retrieves an int64 value from the payload
func (e *Event) PayloadInt(key string) int64 {
	if v, ok := e.Payload[key]; ok {
		switch n := v.(type) {
		case int64:
			return n
		case int:
			return int64(n)
		case float64:
			return int64(n)
		}
	}
	return 0
}
