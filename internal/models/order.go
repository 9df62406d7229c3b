package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus представляет статус заказа
type OrderStatus string

const (
	OrderStatusCreated    OrderStatus = "created"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Order представляет заказ. Позиции фиксируют имя и цену товара на момент
// покупки: последующие изменения цен и скидок заказ не меняют.
type Order struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	CustomerName    string      `json:"customer_name" db:"customer_name"`
	CustomerEmail   string      `json:"customer_email" db:"customer_email"`
	CustomerPhone   string      `json:"customer_phone" db:"customer_phone"`
	DeliveryAddress string      `json:"delivery_address" db:"delivery_address"`
	Comment         *string     `json:"comment,omitempty" db:"comment"`
	Items           []OrderItem `json:"items"`
	ItemsTotal      int64       `json:"items_total" db:"items_total"`
	DiscountTotal   int64       `json:"discount_total" db:"discount_total"`
	TotalAmount     int64       `json:"total_amount" db:"total_amount"`
	Status          OrderStatus `json:"status" db:"status"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
	DeliveredAt     *time.Time  `json:"delivered_at,omitempty" db:"delivered_at"`
}

// OrderItem представляет позицию заказа (снимок товара на момент покупки)
type OrderItem struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	OrderID   uuid.UUID  `json:"order_id" db:"order_id"`
	ProductID uuid.UUID  `json:"product_id" db:"product_id"`
	Name      string     `json:"name" db:"name"`
	BasePrice int64      `json:"base_price" db:"base_price"`
	Price     int64      `json:"price" db:"price"`
	Quantity  int        `json:"quantity" db:"quantity"`
	Discount  *uuid.UUID `json:"discount_id,omitempty" db:"discount_id"`
}

// CreateOrderRequest представляет запрос на оформление заказа
type CreateOrderRequest struct {
	CustomerName    string                   `json:"customer_name"`
	CustomerEmail   string                   `json:"customer_email"`
	CustomerPhone   string                   `json:"customer_phone"`
	DeliveryAddress string                   `json:"delivery_address"`
	Comment         *string                  `json:"comment,omitempty"`
	CartToken       string                   `json:"cart_token,omitempty"`
	Items           []CreateOrderItemRequest `json:"items"`
}

// CreateOrderItemRequest представляет позицию в запросе оформления заказа
type CreateOrderItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// UpdateOrderStatusRequest представляет запрос на смену статуса заказа
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// OrderFilters описывает фильтры списка заказов в админке
type OrderFilters struct {
	Status        OrderStatus `json:"status,omitempty"`
	CustomerEmail string      `json:"customer_email,omitempty"`
}
