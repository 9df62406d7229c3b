package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"fragrance-store/internal/apperror"
	"fragrance-store/internal/database"
	"fragrance-store/internal/kafka"
	"fragrance-store/internal/logger"
	"fragrance-store/internal/models"

	"github.com/google/uuid"
)

// ChatService хранит диалоги поддержки и их сообщения.
type ChatService struct {
	db       *database.DB
	producer *kafka.Producer
	log      *logger.Logger
}

// NewChatService создаёт сервис чата поддержки. producer может быть nil.
func NewChatService(db *database.DB, producer *kafka.Producer, log *logger.Logger) *ChatService {
	return &ChatService{
		db:       db,
		producer: producer,
		log:      log,
	}
}

// CreateConversation открывает диалог и записывает первое сообщение покупателя.
func (s *ChatService) CreateConversation(ctx context.Context, req *models.CreateConversationRequest) (*models.Conversation, error) {
	if req.CustomerName == "" {
		return nil, apperror.Validation("customer name is required", nil)
	}
	if req.CustomerEmail == "" || !strings.Contains(req.CustomerEmail, "@") {
		return nil, apperror.Validation("valid customer email is required", nil)
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, apperror.Validation("message body is required", nil)
	}

	now := time.Now()
	conversation := &models.Conversation{
		ID:            uuid.New(),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	message := &models.ChatMessage{
		ID:             uuid.New(),
		ConversationID: conversation.ID,
		Sender:         models.ChatSenderCustomer,
		Body:           req.Body,
		CreatedAt:      now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO conversations (id, customer_name, customer_email, is_closed, created_at, updated_at)
		VALUES ($1, $2, $3, false, $4, $5)
	`, conversation.ID, conversation.CustomerName, conversation.CustomerEmail,
		conversation.CreatedAt, conversation.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chat_messages (id, conversation_id, sender, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, message.ID, message.ConversationID, message.Sender, message.Body, message.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create first message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit conversation: %w", err)
	}

	if s.producer != nil {
		if err := s.producer.PublishChatMessageCreated(message); err != nil {
			s.log.WithField("error", err.Error()).Warn("Failed to publish chat message event")
		}
	}

	s.log.WithField("conversation_id", conversation.ID).Info("Support conversation opened")

	return conversation, nil
}

// PostMessage добавляет сообщение в открытый диалог.
func (s *ChatService) PostMessage(ctx context.Context, conversationID uuid.UUID, req *models.CreateChatMessageRequest) (*models.ChatMessage, error) {
	if req.Sender != models.ChatSenderCustomer && req.Sender != models.ChatSenderAdmin {
		return nil, apperror.Validation("invalid message sender", nil)
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, apperror.Validation("message body is required", nil)
	}

	var isClosed bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT is_closed FROM conversations WHERE id = $1`, conversationID).Scan(&isClosed); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("conversation not found", err)
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if isClosed {
		return nil, apperror.Conflict("conversation is closed", nil)
	}

	now := time.Now()
	message := &models.ChatMessage{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Sender:         req.Sender,
		Body:           req.Body,
		CreatedAt:      now,
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, conversation_id, sender, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, message.ID, message.ConversationID, message.Sender, message.Body, message.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET updated_at = $1 WHERE id = $2`, now, conversationID); err != nil {
		return nil, fmt.Errorf("failed to touch conversation: %w", err)
	}

	if s.producer != nil {
		if err := s.producer.PublishChatMessageCreated(message); err != nil {
			s.log.WithField("error", err.Error()).Warn("Failed to publish chat message event")
		}
	}

	return message, nil
}

// ListConversations возвращает диалоги, свежие сверху.
func (s *ChatService) ListConversations(ctx context.Context, limit, offset int) ([]*models.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_name, customer_email, is_closed, created_at, updated_at
		FROM conversations
		ORDER BY updated_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		c := &models.Conversation{}
		if err := rows.Scan(&c.ID, &c.CustomerName, &c.CustomerEmail, &c.IsClosed, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}

	return conversations, nil
}

// GetMessages возвращает сообщения диалога в хронологическом порядке.
func (s *ChatService) GetMessages(ctx context.Context, conversationID uuid.UUID) ([]*models.ChatMessage, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM conversations WHERE id = $1)`, conversationID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check conversation: %w", err)
	}
	if !exists {
		return nil, apperror.NotFound("conversation not found", nil)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, sender, body, created_at
		FROM chat_messages
		WHERE conversation_id = $1
		ORDER BY created_at
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	messages := []*models.ChatMessage{}
	for rows.Next() {
		m := &models.ChatMessage{}
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

// CloseConversation закрывает диалог. Повторное закрытие — конфликт.
func (s *ChatService) CloseConversation(ctx context.Context, conversationID uuid.UUID) error {
	var isClosed bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT is_closed FROM conversations WHERE id = $1`, conversationID).Scan(&isClosed); err != nil {
		if err == sql.ErrNoRows {
			return apperror.NotFound("conversation not found", err)
		}
		return fmt.Errorf("failed to get conversation: %w", err)
	}
	if isClosed {
		return apperror.Conflict("conversation is already closed", nil)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET is_closed = true, updated_at = $1 WHERE id = $2`,
		time.Now(), conversationID); err != nil {
		return fmt.Errorf("failed to close conversation: %w", err)
	}

	return nil
}
