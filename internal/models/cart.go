package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart представляет корзину покупателя, хранимую в Redis по токену
type Cart struct {
	Token     string     `json:"token"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem представляет позицию корзины
type CartItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// ReplaceCartRequest представляет запрос на полную замену содержимого корзины
type ReplaceCartRequest struct {
	Items []CartItem `json:"items"`
}
