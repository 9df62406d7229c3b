package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"fragrance-store/internal/logger"
	"fragrance-store/internal/models"

	"github.com/google/uuid"
)

// ChatHandler обслуживает чат поддержки.
type ChatHandler struct {
	chat ChatService
	log  *logger.Logger
}

// NewChatHandler создаёт обработчик чата.
func NewChatHandler(chat ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chat: chat,
		log:  log,
	}
}

// HandleCollection обрабатывает /api/chat/conversations (список и открытие).
func (h *ChatHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit, offset := parseLimitOffset(r, 50, 200)
		conversations, err := h.chat.ListConversations(r.Context(), limit, offset)
		if err != nil {
			writeServiceError(w, h.log, err, "Failed to list conversations")
			return
		}
		writeJSONResponse(w, http.StatusOK, conversations)
	case http.MethodPost:
		var req models.CreateConversationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		conversation, err := h.chat.CreateConversation(r.Context(), &req)
		if err != nil {
			writeServiceError(w, h.log, err, "Failed to create conversation")
			return
		}
		writeJSONResponse(w, http.StatusCreated, conversation)
	default:
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// HandleItem обрабатывает /api/chat/conversations/{id},
// /api/chat/conversations/{id}/messages и /api/chat/conversations/{id}/close.
func (h *ChatHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	conversationID, err := extractUUIDFromPath(r.URL.Path, "/api/chat/conversations/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case strings.HasSuffix(r.URL.Path, "/messages"):
		h.handleMessages(w, r, conversationID)
	case strings.HasSuffix(r.URL.Path, "/close"):
		if r.Method != http.MethodPost {
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if err := h.chat.CloseConversation(r.Context(), conversationID); err != nil {
			writeServiceError(w, h.log, err, "Failed to close conversation")
			return
		}
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "closed"})
	default:
		writeErrorResponse(w, http.StatusNotFound, "Not found")
	}
}

func (h *ChatHandler) handleMessages(w http.ResponseWriter, r *http.Request, conversationID uuid.UUID) {
	switch r.Method {
	case http.MethodGet:
		messages, err := h.chat.GetMessages(r.Context(), conversationID)
		if err != nil {
			writeServiceError(w, h.log, err, "Failed to get messages")
			return
		}
		writeJSONResponse(w, http.StatusOK, messages)
	case http.MethodPost:
		var req models.CreateChatMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		message, err := h.chat.PostMessage(r.Context(), conversationID, &req)
		if err != nil {
			writeServiceError(w, h.log, err, "Failed to post message")
			return
		}
		writeJSONResponse(w, http.StatusCreated, message)
	default:
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
