package handlers

import (
	"encoding/json"
	"net/http"

	"fragrance-store/internal/logger"
	"fragrance-store/internal/models"
)

// ProductHandler обслуживает админку товаров.
type ProductHandler struct {
	products ProductAdmin
	log      *logger.Logger
}

// NewProductHandler создаёт обработчик товаров.
func NewProductHandler(products ProductAdmin, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		log:      log,
	}
}

// HandleCollection обрабатывает /api/admin/products (список и создание).
func (h *ProductHandler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit, offset := parseLimitOffset(r, 50, 200)
		products, err := h.products.ListProducts(r.Context(), limit, offset)
		if err != nil {
			writeServiceError(w, h.log, err, "Failed to list products")
			return
		}
		writeJSONResponse(w, http.StatusOK, products)
	case http.MethodPost:
		var req models.CreateProductRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		product, err := h.products.CreateProduct(r.Context(), &req)
		if err != nil {
			writeServiceError(w, h.log, err, "Failed to create product")
			return
		}
		writeJSONResponse(w, http.StatusCreated, product)
	default:
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// HandleItem обрабатывает /api/admin/products/{id}.
func (h *ProductHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	productID, err := extractUUIDFromPath(r.URL.Path, "/api/admin/products/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		product, err := h.products.GetProduct(r.Context(), productID)
		if err != nil {
			writeServiceError(w, h.log, err, "Failed to get product")
			return
		}
		writeJSONResponse(w, http.StatusOK, product)
	case http.MethodPut:
		var req models.UpdateProductRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		product, err := h.products.UpdateProduct(r.Context(), productID, &req)
		if err != nil {
			writeServiceError(w, h.log, err, "Failed to update product")
			return
		}
		writeJSONResponse(w, http.StatusOK, product)
	case http.MethodDelete:
		if err := h.products.DeactivateProduct(r.Context(), productID); err != nil {
			writeServiceError(w, h.log, err, "Failed to deactivate product")
			return
		}
		writeJSONResponse(w, http.StatusOK, map[string]string{"status": "deactivated"})
	default:
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
