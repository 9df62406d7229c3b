package models

import (
	"time"

	"github.com/google/uuid"
)

// Category представляет категорию каталога (дерево через ParentID)
type Category struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Slug      string     `json:"slug" db:"slug"`
	Name      string     `json:"name" db:"name"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"`
	IsActive  bool       `json:"is_active" db:"is_active"`
	SortOrder int        `json:"sort_order" db:"sort_order"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// CreateCategoryRequest представляет запрос на создание категории
type CreateCategoryRequest struct {
	Name      string     `json:"name"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	SortOrder int        `json:"sort_order"`
}

// UpdateCategoryRequest представляет запрос на обновление категории
type UpdateCategoryRequest struct {
	Name      string     `json:"name"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	IsActive  bool       `json:"is_active"`
	SortOrder int        `json:"sort_order"`
}
