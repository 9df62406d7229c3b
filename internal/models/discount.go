package models

import (
	"time"

	"github.com/google/uuid"
)

// DiscountApplyTo определяет, к чему привязана сезонная скидка
type DiscountApplyTo string

const (
	ApplyToCategories DiscountApplyTo = "categories"
	ApplyToProducts   DiscountApplyTo = "products"
)

// SeasonalDiscount представляет сезонную скидку с временным окном.
// Окно действия включает обе границы: StartDate <= now <= EndDate.
type SeasonalDiscount struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Discount  int             `json:"discount" db:"discount"`
	StartDate time.Time       `json:"start_date" db:"start_date"`
	EndDate   time.Time       `json:"end_date" db:"end_date"`
	IsActive  bool            `json:"is_active" db:"is_active"`
	ApplyTo   DiscountApplyTo `json:"apply_to" db:"apply_to"`
	// Целевые id: заполняется одно из двух множеств в зависимости от ApplyTo.
	CategoryIDs []uuid.UUID `json:"category_ids,omitempty"`
	ProductIDs  []uuid.UUID `json:"product_ids,omitempty"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// ActiveAt сообщает, действует ли скидка в момент now
func (d *SeasonalDiscount) ActiveAt(now time.Time) bool {
	return d.IsActive && !now.Before(d.StartDate) && !now.After(d.EndDate)
}

// DiscountAnnotation представляет применённую к товару скидку
type DiscountAnnotation struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Discount int       `json:"discount"`
}

// CreateDiscountRequest представляет запрос на создание сезонной скидки
type CreateDiscountRequest struct {
	Name        string          `json:"name"`
	Discount    int             `json:"discount"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	ApplyTo     DiscountApplyTo `json:"apply_to"`
	CategoryIDs []uuid.UUID     `json:"category_ids,omitempty"`
	ProductIDs  []uuid.UUID     `json:"product_ids,omitempty"`
}
