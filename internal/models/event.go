package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType определяет тип события шины
type EventType string

const (
	EventTypeProductCreated     EventType = "product.created"
	EventTypeDiscountCreated    EventType = "discount.created"
	EventTypeOrderCreated       EventType = "order.created"
	EventTypeOrderStatusChanged EventType = "order.status_changed"
	EventTypeChatMessageCreated EventType = "chat.message_created"
)

// Event представляет событие, публикуемое в Kafka
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       EventType       `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data,omitempty"`
}
