package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fragrance-store/internal/apperror"
	"fragrance-store/internal/models"

	"github.com/google/uuid"
)

type stubChatService struct {
	conversation  *models.Conversation
	message       *models.ChatMessage
	conversations []*models.Conversation
	messages      []*models.ChatMessage
	err           error

	gotConversationID uuid.UUID
	closed            bool
}

func (s *stubChatService) CreateConversation(ctx context.Context, req *models.CreateConversationRequest) (*models.Conversation, error) {
	return s.conversation, s.err
}
func (s *stubChatService) PostMessage(ctx context.Context, conversationID uuid.UUID, req *models.CreateChatMessageRequest) (*models.ChatMessage, error) {
	s.gotConversationID = conversationID
	return s.message, s.err
}
func (s *stubChatService) ListConversations(ctx context.Context, limit, offset int) ([]*models.Conversation, error) {
	return s.conversations, s.err
}
func (s *stubChatService) GetMessages(ctx context.Context, conversationID uuid.UUID) ([]*models.ChatMessage, error) {
	s.gotConversationID = conversationID
	return s.messages, s.err
}
func (s *stubChatService) CloseConversation(ctx context.Context, conversationID uuid.UUID) error {
	s.gotConversationID = conversationID
	s.closed = true
	return s.err
}

func TestChatHandler_CreateConversation(t *testing.T) {
	stub := &stubChatService{conversation: &models.Conversation{ID: uuid.New(), CustomerName: "Anna"}}
	handler := NewChatHandler(stub, newTestLog())

	body := `{"customer_name": "Anna", "customer_email": "anna@example.com", "body": "Is Citrus Mist in stock?"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat/conversations", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.HandleCollection(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestChatHandler_PostMessage(t *testing.T) {
	stub := &stubChatService{message: &models.ChatMessage{ID: uuid.New(), Sender: models.ChatSenderAdmin}}
	handler := NewChatHandler(stub, newTestLog())

	conversationID := uuid.New()
	req := httptest.NewRequest(http.MethodPost,
		"/api/chat/conversations/"+conversationID.String()+"/messages",
		strings.NewReader(`{"sender": "admin", "body": "Yes, 12 left."}`))
	rr := httptest.NewRecorder()
	handler.HandleItem(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if stub.gotConversationID != conversationID {
		t.Fatalf("expected conversation %s, got %s", conversationID, stub.gotConversationID)
	}
}

func TestChatHandler_PostMessage_ClosedConversation(t *testing.T) {
	stub := &stubChatService{err: apperror.Conflict("conversation is closed", nil)}
	handler := NewChatHandler(stub, newTestLog())

	req := httptest.NewRequest(http.MethodPost,
		"/api/chat/conversations/"+uuid.New().String()+"/messages",
		strings.NewReader(`{"sender": "customer", "body": "hello?"}`))
	rr := httptest.NewRecorder()
	handler.HandleItem(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestChatHandler_Close(t *testing.T) {
	stub := &stubChatService{}
	handler := NewChatHandler(stub, newTestLog())

	req := httptest.NewRequest(http.MethodPost,
		"/api/chat/conversations/"+uuid.New().String()+"/close", nil)
	rr := httptest.NewRecorder()
	handler.HandleItem(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !stub.closed {
		t.Fatal("expected close call")
	}
}

func TestChatHandler_Item_UnknownSubresource(t *testing.T) {
	handler := NewChatHandler(&stubChatService{}, newTestLog())

	req := httptest.NewRequest(http.MethodGet,
		"/api/chat/conversations/"+uuid.New().String()+"/attachments", nil)
	rr := httptest.NewRecorder()
	handler.HandleItem(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
