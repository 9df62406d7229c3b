package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatSender определяет автора сообщения поддержки
type ChatSender string

const (
	ChatSenderCustomer ChatSender = "customer"
	ChatSenderAdmin    ChatSender = "admin"
)

// Conversation представляет диалог поддержки
type Conversation struct {
	ID            uuid.UUID `json:"id" db:"id"`
	CustomerName  string    `json:"customer_name" db:"customer_name"`
	CustomerEmail string    `json:"customer_email" db:"customer_email"`
	IsClosed      bool      `json:"is_closed" db:"is_closed"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// ChatMessage представляет сообщение в диалоге поддержки
type ChatMessage struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	ConversationID uuid.UUID  `json:"conversation_id" db:"conversation_id"`
	Sender         ChatSender `json:"sender" db:"sender"`
	Body           string     `json:"body" db:"body"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// CreateConversationRequest представляет запрос на открытие диалога
type CreateConversationRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	Body          string `json:"body"`
}

// CreateChatMessageRequest представляет запрос на отправку сообщения
type CreateChatMessageRequest struct {
	Sender ChatSender `json:"sender"`
	Body   string     `json:"body"`
}
