package services

import (
	"context"
	"testing"
	"time"

	"fragrance-store/internal/apperror"
	"fragrance-store/internal/config"
	"fragrance-store/internal/models"
	"fragrance-store/internal/redis"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
)

func newTestCartService(t *testing.T) (*CartService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := redis.Connect(&config.RedisConfig{Host: "127.0.0.1", Port: mr.Port()}, newTestLogger())
	if err != nil {
		t.Fatalf("failed to connect test redis: %v", err)
	}

	cfg := &config.CartConfig{TTLHours: 72, MaxItems: 3}
	return NewCartService(client, cfg, newTestLogger()), mr
}

func TestCartService_ReplaceAndGet(t *testing.T) {
	service, _ := newTestCartService(t)
	ctx := context.Background()

	productID := uuid.New()
	cart, err := service.ReplaceCart(ctx, "", &models.ReplaceCartRequest{
		Items: []models.CartItem{
			{ProductID: productID, Quantity: 2},
			{ProductID: productID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if cart.Token == "" {
		t.Fatal("expected generated cart token")
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 3 {
		t.Fatalf("expected merged item with quantity 3, got %+v", cart.Items)
	}

	loaded, err := service.GetCart(ctx, cart.Token)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if len(loaded.Items) != 1 || loaded.Items[0].ProductID != productID {
		t.Fatalf("unexpected loaded cart: %+v", loaded)
	}
}

func TestCartService_GetCart_UnknownTokenIsEmpty(t *testing.T) {
	service, _ := newTestCartService(t)

	cart, err := service.GetCart(context.Background(), "no-such-token")
	if err != nil {
		t.Fatalf("expected empty cart, got error: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatalf("expected no items, got %+v", cart.Items)
	}
	if cart.Token != "no-such-token" {
		t.Fatalf("expected token echoed back, got %s", cart.Token)
	}
}

func TestCartService_ReplaceCart_Validation(t *testing.T) {
	service, _ := newTestCartService(t)
	ctx := context.Background()

	_, err := service.ReplaceCart(ctx, "", &models.ReplaceCartRequest{
		Items: []models.CartItem{{ProductID: uuid.New(), Quantity: 0}},
	})
	if !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}

	_, err = service.ReplaceCart(ctx, "", &models.ReplaceCartRequest{
		Items: []models.CartItem{
			{ProductID: uuid.New(), Quantity: 1},
			{ProductID: uuid.New(), Quantity: 1},
			{ProductID: uuid.New(), Quantity: 1},
			{ProductID: uuid.New(), Quantity: 1},
		},
	})
	if !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error for too many items, got %v", err)
	}
}

func TestCartService_ClearCart(t *testing.T) {
	service, _ := newTestCartService(t)
	ctx := context.Background()

	cart, err := service.ReplaceCart(ctx, "", &models.ReplaceCartRequest{
		Items: []models.CartItem{{ProductID: uuid.New(), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	if err := service.ClearCart(ctx, cart.Token); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	loaded, err := service.GetCart(ctx, cart.Token)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if len(loaded.Items) != 0 {
		t.Fatalf("expected cleared cart, got %+v", loaded.Items)
	}
}

func TestCartService_Expiry(t *testing.T) {
	service, mr := newTestCartService(t)
	ctx := context.Background()

	cart, err := service.ReplaceCart(ctx, "", &models.ReplaceCartRequest{
		Items: []models.CartItem{{ProductID: uuid.New(), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	mr.FastForward(73 * time.Hour)

	loaded, err := service.GetCart(ctx, cart.Token)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if len(loaded.Items) != 0 {
		t.Fatalf("expected expired cart to be empty, got %+v", loaded.Items)
	}
}
