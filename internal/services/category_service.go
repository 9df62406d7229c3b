package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fragrance-store/internal/apperror"
	"fragrance-store/internal/database"
	"fragrance-store/internal/logger"
	"fragrance-store/internal/models"
	"fragrance-store/internal/redis"

	"github.com/google/uuid"
)

// CategoryService управляет деревом категорий каталога.
type CategoryService struct {
	db    *database.DB
	cache *redis.Client
	log   *logger.Logger
}

// NewCategoryService создаёт сервис категорий. cache может быть nil.
func NewCategoryService(db *database.DB, cache *redis.Client, log *logger.Logger) *CategoryService {
	return &CategoryService{
		db:    db,
		cache: cache,
		log:   log,
	}
}

// CreateCategory создаёт категорию со слагом из названия.
func (s *CategoryService) CreateCategory(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, error) {
	if req.Name == "" {
		return nil, apperror.Validation("category name is required", nil)
	}

	if req.ParentID != nil {
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, *req.ParentID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check parent category: %w", err)
		}
		if !exists {
			return nil, apperror.Validation("parent category does not exist", nil)
		}
	}

	now := time.Now()
	category := &models.Category{
		ID:        uuid.New(),
		Slug:      Slugify(req.Name),
		Name:      req.Name,
		ParentID:  req.ParentID,
		IsActive:  true,
		SortOrder: req.SortOrder,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := `
		INSERT INTO categories (id, slug, name, parent_id, is_active, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := s.db.ExecContext(ctx, query,
		category.ID, category.Slug, category.Name, category.ParentID,
		category.IsActive, category.SortOrder, category.CreatedAt, category.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("category with the same slug already exists", err)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.invalidateCatalog(ctx)

	s.log.WithFields(map[string]interface{}{
		"category_id": category.ID,
		"slug":        category.Slug,
	}).Info("Category created")

	return category, nil
}

// UpdateCategory обновляет категорию.
func (s *CategoryService) UpdateCategory(ctx context.Context, categoryID uuid.UUID, req *models.UpdateCategoryRequest) (*models.Category, error) {
	if req.Name == "" {
		return nil, apperror.Validation("category name is required", nil)
	}
	if req.ParentID != nil && *req.ParentID == categoryID {
		return nil, apperror.Validation("category cannot be its own parent", nil)
	}

	query := `
		UPDATE categories
		SET name = $1, parent_id = $2, is_active = $3, sort_order = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := s.db.ExecContext(ctx, query,
		req.Name, req.ParentID, req.IsActive, req.SortOrder, time.Now(), categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, apperror.NotFound("category not found", nil)
	}

	s.invalidateCatalog(ctx)

	return s.GetCategory(ctx, categoryID)
}

// GetCategory возвращает категорию по id.
func (s *CategoryService) GetCategory(ctx context.Context, categoryID uuid.UUID) (*models.Category, error) {
	query := `
		SELECT id, slug, name, parent_id, is_active, sort_order, created_at, updated_at
		FROM categories
		WHERE id = $1
	`

	c := &models.Category{}
	if err := s.db.QueryRowContext(ctx, query, categoryID).Scan(
		&c.ID, &c.Slug, &c.Name, &c.ParentID, &c.IsActive, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("category not found", err)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return c, nil
}

// ListCategories возвращает категории в порядке sort_order, затем по имени.
// onlyActive ограничивает список витринными категориями.
func (s *CategoryService) ListCategories(ctx context.Context, onlyActive bool) ([]*models.Category, error) {
	query := `
		SELECT id, slug, name, parent_id, is_active, sort_order, created_at, updated_at
		FROM categories
	`
	if onlyActive {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY sort_order, name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.ParentID, &c.IsActive, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}

	return categories, nil
}

// DeactivateCategory скрывает категорию с витрины. Привязки товаров остаются.
func (s *CategoryService) DeactivateCategory(ctx context.Context, categoryID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE categories SET is_active = false, updated_at = $1 WHERE id = $2`, time.Now(), categoryID)
	if err != nil {
		return fmt.Errorf("failed to deactivate category: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("category not found", nil)
	}

	s.invalidateCatalog(ctx)
	return nil
}

func (s *CategoryService) invalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPrefix(ctx, redis.KeyPrefixCatalog); err != nil {
		s.log.WithField("error", err.Error()).Warn("Failed to invalidate catalog cache")
	}
}
