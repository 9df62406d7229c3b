package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"fragrance-store/internal/logger"
	"fragrance-store/internal/models"

	"github.com/google/uuid"
)

// OrderHandler обслуживает оформление заказов и их админку.
type OrderHandler struct {
	orders OrderService
	log    *logger.Logger
}

// NewOrderHandler создаёт обработчик заказов.
func NewOrderHandler(orders OrderService, log *logger.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		log:    log,
	}
}

// CreateOrder оформляет заказ (витринный endpoint).
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create order")
		return
	}

	writeJSONResponse(w, http.StatusCreated, order)
}

// GetOrder возвращает заказ по id (витринный endpoint, по прямой ссылке).
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	orderID, err := extractUUIDFromPath(r.URL.Path, "/api/orders/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orders.GetOrder(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get order")
		return
	}

	writeJSONResponse(w, http.StatusOK, order)
}

// ListOrders возвращает заказы для админки с фильтрами status и email.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	filters := &models.OrderFilters{
		Status:        models.OrderStatus(r.URL.Query().Get("status")),
		CustomerEmail: r.URL.Query().Get("email"),
	}
	limit, offset := parseLimitOffset(r, 50, 200)

	orders, err := h.orders.ListOrders(r.Context(), filters, limit, offset)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list orders")
		return
	}

	writeJSONResponse(w, http.StatusOK, orders)
}

// HandleAdminItem обрабатывает /api/admin/orders/{id} и /api/admin/orders/{id}/status.
func (h *OrderHandler) HandleAdminItem(w http.ResponseWriter, r *http.Request) {
	orderID, err := extractUUIDFromPath(r.URL.Path, "/api/admin/orders/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if strings.HasSuffix(r.URL.Path, "/status") {
		h.updateStatus(w, r, orderID)
		return
	}

	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	order, err := h.orders.GetOrder(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get order")
		return
	}

	writeJSONResponse(w, http.StatusOK, order)
}

func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request, orderID uuid.UUID) {
	if r.Method != http.MethodPut {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.orders.UpdateOrderStatus(r.Context(), orderID, req.Status)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update order status")
		return
	}

	writeJSONResponse(w, http.StatusOK, order)
}
