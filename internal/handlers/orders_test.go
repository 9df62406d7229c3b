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

type stubOrderService struct {
	order *models.Order
	list  []*models.Order
	err   error

	gotCreate  *models.CreateOrderRequest
	gotFilters *models.OrderFilters
	gotStatus  models.OrderStatus
}

func (s *stubOrderService) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	s.gotCreate = req
	return s.order, s.err
}
func (s *stubOrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.order, s.err
}
func (s *stubOrderService) ListOrders(ctx context.Context, filters *models.OrderFilters, limit, offset int) ([]*models.Order, error) {
	s.gotFilters = filters
	return s.list, s.err
}
func (s *stubOrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus models.OrderStatus) (*models.Order, error) {
	s.gotStatus = newStatus
	return s.order, s.err
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	stub := &stubOrderService{order: &models.Order{ID: uuid.New(), Status: models.OrderStatusCreated, TotalAmount: 5000}}
	handler := NewOrderHandler(stub, newTestLog())

	body := `{"customer_name": "Anna", "customer_email": "anna@example.com", "cart_token": "tok-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.CreateOrder(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if stub.gotCreate.CartToken != "tok-1" {
		t.Fatalf("expected cart token passed through, got %q", stub.gotCreate.CartToken)
	}
}

func TestOrderHandler_CreateOrder_InsufficientStock(t *testing.T) {
	stub := &stubOrderService{err: apperror.Conflict("insufficient stock for product Citrus Mist 50ml", nil)}
	handler := NewOrderHandler(stub, newTestLog())

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"customer_name": "Anna"}`))
	rr := httptest.NewRecorder()
	handler.CreateOrder(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestOrderHandler_CreateOrder_MethodNotAllowed(t *testing.T) {
	handler := NewOrderHandler(&stubOrderService{}, newTestLog())

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rr := httptest.NewRecorder()
	handler.CreateOrder(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestOrderHandler_ListOrders_Filters(t *testing.T) {
	stub := &stubOrderService{list: []*models.Order{}}
	handler := NewOrderHandler(stub, newTestLog())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders?status=processing&email=anna@example.com", nil)
	rr := httptest.NewRecorder()
	handler.ListOrders(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if stub.gotFilters.Status != models.OrderStatusProcessing {
		t.Fatalf("expected processing filter, got %s", stub.gotFilters.Status)
	}
	if stub.gotFilters.CustomerEmail != "anna@example.com" {
		t.Fatalf("expected email filter, got %q", stub.gotFilters.CustomerEmail)
	}
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	stub := &stubOrderService{order: &models.Order{ID: uuid.New(), Status: models.OrderStatusShipped}}
	handler := NewOrderHandler(stub, newTestLog())

	orderID := uuid.New()
	req := httptest.NewRequest(http.MethodPut,
		"/api/admin/orders/"+orderID.String()+"/status", strings.NewReader(`{"status": "shipped"}`))
	rr := httptest.NewRecorder()
	handler.HandleAdminItem(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if stub.gotStatus != models.OrderStatusShipped {
		t.Fatalf("expected shipped, got %s", stub.gotStatus)
	}
}

func TestOrderHandler_UpdateStatus_InvalidTransition(t *testing.T) {
	stub := &stubOrderService{err: apperror.Conflict("status transition delivered -> processing is not allowed", nil)}
	handler := NewOrderHandler(stub, newTestLog())

	req := httptest.NewRequest(http.MethodPut,
		"/api/admin/orders/"+uuid.New().String()+"/status", strings.NewReader(`{"status": "processing"}`))
	rr := httptest.NewRecorder()
	handler.HandleAdminItem(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestOrderHandler_UpdateStatus_MethodNotAllowed(t *testing.T) {
	handler := NewOrderHandler(&stubOrderService{}, newTestLog())

	req := httptest.NewRequest(http.MethodPost,
		"/api/admin/orders/"+uuid.New().String()+"/status", strings.NewReader(`{"status": "shipped"}`))
	rr := httptest.NewRecorder()
	handler.HandleAdminItem(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestOrderHandler_GetOrder_BadID(t *testing.T) {
	handler := NewOrderHandler(&stubOrderService{}, newTestLog())

	req := httptest.NewRequest(http.MethodGet, "/api/orders/42", nil)
	rr := httptest.NewRecorder()
	handler.GetOrder(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
