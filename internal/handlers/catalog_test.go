package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"fragrance-store/internal/apperror"
	"fragrance-store/internal/config"
	"fragrance-store/internal/logger"
	"fragrance-store/internal/models"

	"github.com/google/uuid"
)

func newTestLog() *logger.Logger {
	return logger.New(&config.LoggerConfig{Level: "error", Format: "json"})
}

func newTestCatalogConfig() *config.CatalogConfig {
	return &config.CatalogConfig{DefaultPageSize: 20, MaxPageSize: 100, RelatedLimit: 4, CacheTTLMinutes: 5}
}

type stubCatalogProvider struct {
	page    *models.ProductPage
	product *models.CatalogProduct
	related []*models.CatalogProduct
	brands  []*models.Brand
	err     error

	gotFilters  *models.ProductFilters
	gotSort     models.SortOrder
	gotPage     int
	gotPageSize int
}

func (s *stubCatalogProvider) ListProducts(ctx context.Context, filters *models.ProductFilters, sort models.SortOrder, page, pageSize int) (*models.ProductPage, error) {
	s.gotFilters = filters
	s.gotSort = sort
	s.gotPage = page
	s.gotPageSize = pageSize
	return s.page, s.err
}
func (s *stubCatalogProvider) GetProductBySlug(ctx context.Context, slug string) (*models.CatalogProduct, error) {
	return s.product, s.err
}
func (s *stubCatalogProvider) RelatedProducts(ctx context.Context, product *models.CatalogProduct) ([]*models.CatalogProduct, error) {
	return s.related, nil
}
func (s *stubCatalogProvider) ListBrands(ctx context.Context) ([]*models.Brand, error) {
	return s.brands, s.err
}

type stubCategoryAdmin struct {
	category *models.Category
	list     []*models.Category
	err      error
}

func (s *stubCategoryAdmin) CreateCategory(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, error) {
	return s.category, s.err
}
func (s *stubCategoryAdmin) UpdateCategory(ctx context.Context, categoryID uuid.UUID, req *models.UpdateCategoryRequest) (*models.Category, error) {
	return s.category, s.err
}
func (s *stubCategoryAdmin) GetCategory(ctx context.Context, categoryID uuid.UUID) (*models.Category, error) {
	return s.category, s.err
}
func (s *stubCategoryAdmin) ListCategories(ctx context.Context, onlyActive bool) ([]*models.Category, error) {
	return s.list, s.err
}
func (s *stubCategoryAdmin) DeactivateCategory(ctx context.Context, categoryID uuid.UUID) error {
	return s.err
}

func TestCatalogHandler_ListProducts(t *testing.T) {
	stub := &stubCatalogProvider{page: &models.ProductPage{
		Products:   []*models.CatalogProduct{},
		Pagination: models.Pagination{Page: 2, Limit: 10, Total: 50, TotalPages: 5},
	}}
	handler := NewCatalogHandler(stub, &stubCategoryAdmin{}, newTestLog(), newTestCatalogConfig())

	req := httptest.NewRequest(http.MethodGet,
		"/api/catalog/products?category=perfume,home&brand=maison-test&gender=unisex&sort=price_asc&page=2&page_size=10&min_price=1000&search=citrus", nil)
	rr := httptest.NewRecorder()
	handler.ListProducts(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if stub.gotPage != 2 || stub.gotPageSize != 10 {
		t.Fatalf("expected page=2 size=10, got %d/%d", stub.gotPage, stub.gotPageSize)
	}
	if stub.gotSort != models.SortPriceAsc {
		t.Fatalf("expected price_asc sort, got %s", stub.gotSort)
	}
	if len(stub.gotFilters.Categories) != 2 {
		t.Fatalf("expected csv categories split, got %v", stub.gotFilters.Categories)
	}
	if stub.gotFilters.MinPrice == nil || *stub.gotFilters.MinPrice != 1000 {
		t.Fatalf("expected min price 1000, got %v", stub.gotFilters.MinPrice)
	}
	if stub.gotFilters.Search != "citrus" {
		t.Fatalf("expected search citrus, got %q", stub.gotFilters.Search)
	}
}

func TestCatalogHandler_ListProducts_InvalidPageSize(t *testing.T) {
	handler := NewCatalogHandler(&stubCatalogProvider{}, &stubCategoryAdmin{}, newTestLog(), newTestCatalogConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/products?page_size=abc", nil)
	rr := httptest.NewRecorder()
	handler.ListProducts(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCatalogHandler_ListProducts_ValidationError(t *testing.T) {
	stub := &stubCatalogProvider{err: apperror.Validation("page size must be positive", nil)}
	handler := NewCatalogHandler(stub, &stubCategoryAdmin{}, newTestLog(), newTestCatalogConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/products?page_size=0", nil)
	rr := httptest.NewRecorder()
	handler.ListProducts(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestCatalogHandler_GetProduct(t *testing.T) {
	product := &models.CatalogProduct{}
	product.Slug = "citrus-mist-50ml"
	product.Name = "Citrus Mist 50ml"
	stub := &stubCatalogProvider{product: product, related: []*models.CatalogProduct{}}
	handler := NewCatalogHandler(stub, &stubCategoryAdmin{}, newTestLog(), newTestCatalogConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/products/citrus-mist-50ml", nil)
	rr := httptest.NewRecorder()
	handler.GetProduct(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCatalogHandler_GetProduct_NotFound(t *testing.T) {
	stub := &stubCatalogProvider{err: apperror.NotFound("product not found", nil)}
	handler := NewCatalogHandler(stub, &stubCategoryAdmin{}, newTestLog(), newTestCatalogConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/products/missing", nil)
	rr := httptest.NewRecorder()
	handler.GetProduct(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestCatalogHandler_ListBrands(t *testing.T) {
	stub := &stubCatalogProvider{brands: []*models.Brand{{Name: "Maison Test", Slug: "maison-test"}}}
	handler := NewCatalogHandler(stub, &stubCategoryAdmin{}, newTestLog(), newTestCatalogConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/catalog/brands", nil)
	rr := httptest.NewRecorder()
	handler.ListBrands(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestCatalogHandler_MethodNotAllowed(t *testing.T) {
	handler := NewCatalogHandler(&stubCatalogProvider{}, &stubCategoryAdmin{}, newTestLog(), newTestCatalogConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/catalog/products", nil)
	rr := httptest.NewRecorder()
	handler.ListProducts(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}
