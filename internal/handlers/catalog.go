package handlers

import (
	"net/http"
	"strconv"

	"fragrance-store/internal/config"
	"fragrance-store/internal/logger"
	"fragrance-store/internal/models"
)

// CatalogHandler обслуживает витрину: список товаров, карточку, бренды и категории.
type CatalogHandler struct {
	catalog    CatalogProvider
	categories CategoryAdmin
	log        *logger.Logger
	cfg        *config.CatalogConfig
}

// NewCatalogHandler создаёт обработчик витрины.
func NewCatalogHandler(catalog CatalogProvider, categories CategoryAdmin, log *logger.Logger, cfg *config.CatalogConfig) *CatalogHandler {
	return &CatalogHandler{
		catalog:    catalog,
		categories: categories,
		log:        log,
		cfg:        cfg,
	}
}

// ListProducts возвращает страницу каталога с фильтрами из query-параметров.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	filters := &models.ProductFilters{
		Categories:    queryValues(r, "category"),
		Brands:        queryValues(r, "brand"),
		Genders:       queryValues(r, "gender"),
		AromaFamilies: queryValues(r, "aroma_family"),
		ProductTypes:  queryValues(r, "product_type"),
		Purposes:      queryValues(r, "purpose"),
		Countries:     queryValues(r, "country"),
		Volumes:       queryValues(r, "volume"),
		Search:        r.URL.Query().Get("search"),
	}

	if raw := r.URL.Query().Get("min_price"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid min_price")
			return
		}
		filters.MinPrice = &v
	}
	if raw := r.URL.Query().Get("max_price"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid max_price")
			return
		}
		filters.MaxPrice = &v
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid page")
			return
		}
		page = v
	}

	pageSize := h.cfg.DefaultPageSize
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid page_size")
			return
		}
		pageSize = v
	}

	sort := models.SortOrder(r.URL.Query().Get("sort"))

	result, err := h.catalog.ListProducts(r.Context(), filters, sort, page, pageSize)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list products")
		return
	}

	writeJSONResponse(w, http.StatusOK, result)
}

// productDetails представляет карточку товара с похожими товарами
type productDetails struct {
	*models.CatalogProduct
	Related []*models.CatalogProduct `json:"related"`
}

// GetProduct возвращает карточку товара по слагу.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	slug, err := extractSlugFromPath(r.URL.Path, "/api/catalog/products/")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.catalog.GetProductBySlug(r.Context(), slug)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get product")
		return
	}

	related, err := h.catalog.RelatedProducts(r.Context(), product)
	if err != nil {
		h.log.WithError(err).Warn("Failed to load related products")
		related = []*models.CatalogProduct{}
	}

	writeJSONResponse(w, http.StatusOK, productDetails{
		CatalogProduct: product,
		Related:        related,
	})
}

// ListBrands возвращает бренды витрины.
func (h *CatalogHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	brands, err := h.catalog.ListBrands(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list brands")
		return
	}

	writeJSONResponse(w, http.StatusOK, brands)
}

// ListCategories возвращает активные категории витрины.
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	categories, err := h.categories.ListCategories(r.Context(), true)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list categories")
		return
	}

	writeJSONResponse(w, http.StatusOK, categories)
}
