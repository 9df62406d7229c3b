package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"fragrance-store/internal/logger"
	"fragrance-store/internal/models"
)

// DiscountHandler обслуживает админку сезонных скидок.
type DiscountHandler struct {
	discounts DiscountAdmin
	log       *logger.Logger
}

// NewDiscountHandler создаёт обработчик скидок.
func NewDiscountHandler(discounts DiscountAdmin, log *logger.Logger) *DiscountHandler {
	return &DiscountHandler{
		discounts: discounts,
		log:       log,
	}
}

// HandleCollection обрабатывает /api/admin/discounts (список и создание).
func (h *DiscountHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listDiscounts(w, r)
	case http.MethodPost:
		h.createDiscount(w, r)
	default:
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// HandleItem обрабатывает /api/admin/discounts/{id} (получение и удаление).
func (h *DiscountHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	discountID, err := extractUUIDFromPath(r.URL.Path, "/api/admin/discounts/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		discount, err := h.discounts.GetDiscount(r.Context(), discountID)
		if err != nil {
			writeServiceError(w, h.log, err, "Failed to get discount")
			return
		}
		writeJSONResponse(w, http.StatusOK, discount)
	case http.MethodDelete:
		if err := h.discounts.DeleteDiscount(r.Context(), discountID); err != nil {
			writeServiceError(w, h.log, err, "Failed to delete discount")
			return
		}
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *DiscountHandler) createDiscount(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	discount, err := h.discounts.CreateDiscount(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create discount")
		return
	}

	writeJSONResponse(w, http.StatusCreated, discount)
}

func (h *DiscountHandler) listDiscounts(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 50, 200)

	discounts, err := h.discounts.ListDiscounts(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list discounts")
		return
	}

	writeJSONResponse(w, http.StatusOK, discounts)
}
