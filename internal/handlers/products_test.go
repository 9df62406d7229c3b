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

type stubProductAdmin struct {
	product *models.Product
	list    []*models.Product
	err     error

	gotUpdateID   uuid.UUID
	deactivatedID uuid.UUID
}

func (s *stubProductAdmin) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	return s.product, s.err
}
func (s *stubProductAdmin) UpdateProduct(ctx context.Context, productID uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {
	s.gotUpdateID = productID
	return s.product, s.err
}
func (s *stubProductAdmin) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	return s.product, s.err
}
func (s *stubProductAdmin) ListProducts(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	return s.list, s.err
}
func (s *stubProductAdmin) DeactivateProduct(ctx context.Context, productID uuid.UUID) error {
	s.deactivatedID = productID
	return s.err
}

func TestProductHandler_Create(t *testing.T) {
	product := &models.Product{}
	product.ID = uuid.New()
	product.Name = "Citrus Mist 50ml"
	stub := &stubProductAdmin{product: product}
	handler := NewProductHandler(stub, newTestLog())

	body := `{"name": "Citrus Mist 50ml", "sku": "CM-50", "price": 2500}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/products", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.HandleCollection(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestProductHandler_Create_DuplicateSlug(t *testing.T) {
	stub := &stubProductAdmin{err: apperror.Conflict("product with this slug already exists", nil)}
	handler := NewProductHandler(stub, newTestLog())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/products",
		strings.NewReader(`{"name": "Citrus Mist 50ml", "sku": "CM-50", "price": 2500}`))
	rr := httptest.NewRecorder()
	handler.HandleCollection(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestProductHandler_Update(t *testing.T) {
	stub := &stubProductAdmin{product: &models.Product{}}
	handler := NewProductHandler(stub, newTestLog())

	productID := uuid.New()
	req := httptest.NewRequest(http.MethodPut,
		"/api/admin/products/"+productID.String(), strings.NewReader(`{"price": 2700}`))
	rr := httptest.NewRecorder()
	handler.HandleItem(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if stub.gotUpdateID != productID {
		t.Fatalf("expected update of %s, got %s", productID, stub.gotUpdateID)
	}
}

func TestProductHandler_Deactivate(t *testing.T) {
	stub := &stubProductAdmin{}
	handler := NewProductHandler(stub, newTestLog())

	productID := uuid.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/admin/products/"+productID.String(), nil)
	rr := httptest.NewRecorder()
	handler.HandleItem(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if stub.deactivatedID != productID {
		t.Fatalf("expected deactivate of %s, got %s", productID, stub.deactivatedID)
	}
}

func TestProductHandler_Item_BadID(t *testing.T) {
	handler := NewProductHandler(&stubProductAdmin{}, newTestLog())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/products/oops", nil)
	rr := httptest.NewRecorder()
	handler.HandleItem(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
