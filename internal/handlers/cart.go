package handlers

import (
	"encoding/json"
	"net/http"

	"fragrance-store/internal/logger"
	"fragrance-store/internal/models"
)

// CartHandler обслуживает корзину покупателя. Токен корзины передаётся
// в заголовке X-Cart-Token или параметре token.
type CartHandler struct {
	carts CartService
	log   *logger.Logger
}

// NewCartHandler создаёт обработчик корзины.
func NewCartHandler(carts CartService, log *logger.Logger) *CartHandler {
	return &CartHandler{
		carts: carts,
		log:   log,
	}
}

// Handle обрабатывает /api/cart (получение, замена, очистка).
func (h *CartHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getCart(w, r)
	case http.MethodPut, http.MethodPost:
		h.replaceCart(w, r)
	case http.MethodDelete:
		h.clearCart(w, r)
	default:
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	token := cartToken(r)
	if token == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Cart token is required")
		return
	}

	cart, err := h.carts.GetCart(r.Context(), token)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get cart")
		return
	}

	writeJSONResponse(w, http.StatusOK, cart)
}

func (h *CartHandler) replaceCart(w http.ResponseWriter, r *http.Request) {
	var req models.ReplaceCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cart, err := h.carts.ReplaceCart(r.Context(), cartToken(r), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to save cart")
		return
	}

	writeJSONResponse(w, http.StatusOK, cart)
}

func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	token := cartToken(r)
	if token == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Cart token is required")
		return
	}

	if err := h.carts.ClearCart(r.Context(), token); err != nil {
		writeServiceError(w, h.log, err, "Failed to clear cart")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func cartToken(r *http.Request) string {
	if token := r.Header.Get("X-Cart-Token"); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}
