package handlers

import (
	"encoding/json"
	"net/http"

	"fragrance-store/internal/logger"
	"fragrance-store/internal/models"
)

// CategoryHandler обслуживает админку категорий.
type CategoryHandler struct {
	categories CategoryAdmin
	log        *logger.Logger
}

// NewCategoryHandler создаёт обработчик категорий.
func NewCategoryHandler(categories CategoryAdmin, log *logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		categories: categories,
		log:        log,
	}
}

// HandleCollection обрабатывает /api/admin/categories (список и создание).
func (h *CategoryHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		categories, err := h.categories.ListCategories(r.Context(), false)
		if err != nil {
			writeServiceError(w, h.log, err, "Failed to list categories")
			return
		}
		writeJSONResponse(w, http.StatusOK, categories)
	case http.MethodPost:
		var req models.CreateCategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		category, err := h.categories.CreateCategory(r.Context(), &req)
		if err != nil {
			writeServiceError(w, h.log, err, "Failed to create category")
			return
		}
		writeJSONResponse(w, http.StatusCreated, category)
	default:
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// HandleItem обрабатывает /api/admin/categories/{id}.
func (h *CategoryHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	categoryID, err := extractUUIDFromPath(r.URL.Path, "/api/admin/categories/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		category, err := h.categories.GetCategory(r.Context(), categoryID)
		if err != nil {
			writeServiceError(w, h.log, err, "Failed to get category")
			return
		}
		writeJSONResponse(w, http.StatusOK, category)
	case http.MethodPut:
		var req models.UpdateCategoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		category, err := h.categories.UpdateCategory(r.Context(), categoryID, &req)
		if err != nil {
			writeServiceError(w, h.log, err, "Failed to update category")
			return
		}
		writeJSONResponse(w, http.StatusOK, category)
	case http.MethodDelete:
		if err := h.categories.DeactivateCategory(r.Context(), categoryID); err != nil {
			writeServiceError(w, h.log, err, "Failed to deactivate category")
			return
		}
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "deactivated"})
	default:
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
