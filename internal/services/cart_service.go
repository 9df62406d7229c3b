package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fragrance-store/internal/apperror"
	"fragrance-store/internal/config"
	"fragrance-store/internal/logger"
	"fragrance-store/internal/models"
	"fragrance-store/internal/redis"

	"github.com/google/uuid"
)

// CartService хранит корзины покупателей в Redis по анонимному токену.
// Корзина живёт cfg.TTLHours с момента последнего изменения.
type CartService struct {
	cache *redis.Client
	cfg   *config.CartConfig
	log   *logger.Logger
}

// NewCartService создаёт сервис корзин.
func NewCartService(cache *redis.Client, cfg *config.CartConfig, log *logger.Logger) *CartService {
	return &CartService{
		cache: cache,
		cfg:   cfg,
		log:   log,
	}
}

// GetCart возвращает корзину по токену. Неизвестный или истёкший токен
// даёт пустую корзину, а не ошибку.
func (s *CartService) GetCart(ctx context.Context, token string) (*models.Cart, error) {
	if token == "" {
		return nil, apperror.Validation("cart token is required", nil)
	}

	cart := &models.Cart{}
	if err := s.cache.Get(ctx, cartKey(token), cart); err != nil {
		if errors.Is(err, redis.ErrKeyNotFound) {
			return &models.Cart{Token: token, Items: []models.CartItem{}}, nil
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}

	return cart, nil
}

// ReplaceCart полностью заменяет содержимое корзины. Пустой токен создаёт
// новую корзину с новым токеном. Дубли позиций складываются по количеству.
func (s *CartService) ReplaceCart(ctx context.Context, token string, req *models.ReplaceCartRequest) (*models.Cart, error) {
	items, err := normalizeCartItems(req.Items, s.cfg.MaxItems)
	if err != nil {
		return nil, err
	}

	if token == "" {
		token = uuid.New().String()
	}

	cart := &models.Cart{
		Token:     token,
		Items:     items,
		UpdatedAt: time.Now(),
	}

	ttl := time.Duration(s.cfg.TTLHours) * time.Hour
	if err := s.cache.Set(ctx, cartKey(token), cart, ttl); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	s.log.WithFields(map[string]interface{}{
		"cart_token": token,
		"items":      len(items),
	}).Debug("Cart replaced")

	return cart, nil
}

// ClearCart удаляет корзину. Отсутствующий токен не считается ошибкой.
func (s *CartService) ClearCart(ctx context.Context, token string) error {
	if token == "" {
		return apperror.Validation("cart token is required", nil)
	}
	if err := s.cache.Delete(ctx, cartKey(token)); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// normalizeCartItems складывает дубли, отсекает нулевые количества и
// проверяет лимит позиций.
func normalizeCartItems(items []models.CartItem, maxItems int) ([]models.CartItem, error) {
	merged := make(map[uuid.UUID]int, len(items))
	order := make([]uuid.UUID, 0, len(items))

	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, apperror.Validation("cart item product_id is required", nil)
		}
		if item.Quantity <= 0 {
			return nil, apperror.Validation("cart item quantity must be positive", nil)
		}
		if _, seen := merged[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		merged[item.ProductID] += item.Quantity
	}

	if len(order) > maxItems {
		return nil, apperror.Validation(fmt.Sprintf("cart cannot hold more than %d items", maxItems), nil)
	}

	result := make([]models.CartItem, 0, len(order))
	for _, id := range order {
		result = append(result, models.CartItem{ProductID: id, Quantity: merged[id]})
	}
	return result, nil
}

func cartKey(token string) string {
	return redis.GenerateKey(redis.KeyPrefixCart, token)
}
