package models

import (
	"time"

	"github.com/google/uuid"
)

// Gender и прочие классификационные поля хранятся свободным текстом,
// витрина фильтрует по точному совпадению значений.

// Product представляет товар каталога
type Product struct {
	ID           uuid.UUID     `json:"id" db:"id"`
	Slug         string        `json:"slug" db:"slug"`
	SKU          string        `json:"sku" db:"sku"`
	Name         string        `json:"name" db:"name"`
	Description  string        `json:"description" db:"description"`
	BrandID      uuid.UUID     `json:"brand_id" db:"brand_id"`
	BrandName    string        `json:"brand_name,omitempty" db:"brand_name"`
	BrandSlug    string        `json:"brand_slug,omitempty" db:"brand_slug"`
	Price        int64         `json:"price" db:"price"`
	ComparePrice *int64        `json:"compare_price,omitempty" db:"compare_price"`
	Stock        int           `json:"stock" db:"stock"`
	IsActive     bool          `json:"is_active" db:"is_active"`
	IsFeatured   bool          `json:"is_featured" db:"is_featured"`
	Gender       string        `json:"gender,omitempty" db:"gender"`
	AromaFamily  string        `json:"aroma_family,omitempty" db:"aroma_family"`
	ProductType  string        `json:"product_type,omitempty" db:"product_type"`
	Purpose      string        `json:"purpose,omitempty" db:"purpose"`
	Country      string        `json:"country,omitempty" db:"country"`
	Volume       string        `json:"volume,omitempty" db:"volume"`
	Categories   []CategoryRef `json:"categories,omitempty"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

// CategoryRef представляет привязку товара к категории
type CategoryRef struct {
	CategoryID uuid.UUID `json:"category_id" db:"category_id"`
	IsPrimary  bool      `json:"is_primary" db:"is_primary"`
}

// Brand представляет бренд товара
type Brand struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Slug string    `json:"slug" db:"slug"`
	Name string    `json:"name" db:"name"`
}

// CatalogProduct представляет товар витрины с применённой сезонной скидкой.
// Price — цена после скидки, ComparePrice — базовая цена (только если скидка есть).
type CatalogProduct struct {
	Product
	SeasonalDiscount *DiscountAnnotation `json:"seasonal_discount"`
}

// Pagination представляет метаданные постраничного вывода
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ProductPage представляет страницу каталога
type ProductPage struct {
	Products   []*CatalogProduct `json:"products"`
	Pagination Pagination        `json:"pagination"`
}

// SortOrder определяет порядок сортировки каталога
type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortPriceAsc  SortOrder = "price_asc"
	SortPriceDesc SortOrder = "price_desc"
	SortNameAsc   SortOrder = "name_asc"
	SortNameDesc  SortOrder = "name_desc"
	SortFeatured  SortOrder = "featured"
)

// ProductFilters описывает фильтры каталога. Пустое или отсутствующее
// значение означает "без ограничения" по этому измерению; значения внутри
// одного измерения объединяются через OR, измерения между собой — через AND.
type ProductFilters struct {
	Categories    []string `json:"categories,omitempty"`
	Brands        []string `json:"brands,omitempty"`
	Genders       []string `json:"genders,omitempty"`
	AromaFamilies []string `json:"aroma_families,omitempty"`
	ProductTypes  []string `json:"product_types,omitempty"`
	Purposes      []string `json:"purposes,omitempty"`
	Countries     []string `json:"countries,omitempty"`
	Volumes       []string `json:"volumes,omitempty"`
	MinPrice      *int64   `json:"min_price,omitempty"`
	MaxPrice      *int64   `json:"max_price,omitempty"`
	Search        string   `json:"search,omitempty"`
}

// CreateProductRequest представляет запрос на создание товара
type CreateProductRequest struct {
	Name         string        `json:"name"`
	SKU          string        `json:"sku"`
	Description  string        `json:"description"`
	BrandID      uuid.UUID     `json:"brand_id"`
	Price        int64         `json:"price"`
	ComparePrice *int64        `json:"compare_price,omitempty"`
	Stock        int           `json:"stock"`
	IsFeatured   bool          `json:"is_featured"`
	Gender       string        `json:"gender,omitempty"`
	AromaFamily  string        `json:"aroma_family,omitempty"`
	ProductType  string        `json:"product_type,omitempty"`
	Purpose      string        `json:"purpose,omitempty"`
	Country      string        `json:"country,omitempty"`
	Volume       string        `json:"volume,omitempty"`
	Categories   []CategoryRef `json:"categories,omitempty"`
}

// UpdateProductRequest представляет запрос на обновление товара
type UpdateProductRequest struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Price        int64         `json:"price"`
	ComparePrice *int64        `json:"compare_price,omitempty"`
	Stock        int           `json:"stock"`
	IsActive     bool          `json:"is_active"`
	IsFeatured   bool          `json:"is_featured"`
	Gender       string        `json:"gender,omitempty"`
	AromaFamily  string        `json:"aroma_family,omitempty"`
	ProductType  string        `json:"product_type,omitempty"`
	Purpose      string        `json:"purpose,omitempty"`
	Country      string        `json:"country,omitempty"`
	Volume       string        `json:"volume,omitempty"`
	Categories   []CategoryRef `json:"categories,omitempty"`
}
