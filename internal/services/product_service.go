package services

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"fragrance-store/internal/apperror"
	"fragrance-store/internal/database"
	"fragrance-store/internal/kafka"
	"fragrance-store/internal/logger"
	"fragrance-store/internal/models"
	"fragrance-store/internal/redis"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify строит url-слаг из названия: нижний регистр, дефисы вместо
// всего, что не буква и не цифра.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// ProductService управляет товарами каталога (админ-операции).
type ProductService struct {
	db       *database.DB
	cache    *redis.Client
	producer *kafka.Producer
	log      *logger.Logger
}

// NewProductService создаёт сервис товаров. cache и producer могут быть nil.
func NewProductService(db *database.DB, cache *redis.Client, producer *kafka.Producer, log *logger.Logger) *ProductService {
	return &ProductService{
		db:       db,
		cache:    cache,
		producer: producer,
		log:      log,
	}
}

// CreateProduct создаёт товар со слагом из названия и привязками категорий.
func (s *ProductService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	if err := validateProductPayload(req.Name, req.SKU, req.Price, req.Stock, req.BrandID); err != nil {
		return nil, apperror.Validation(err.Error(), err)
	}

	now := time.Now()
	product := &models.Product{
		ID:           uuid.New(),
		Slug:         Slugify(req.Name),
		SKU:          req.SKU,
		Name:         req.Name,
		Description:  req.Description,
		BrandID:      req.BrandID,
		Price:        req.Price,
		ComparePrice: req.ComparePrice,
		Stock:        req.Stock,
		IsActive:     true,
		IsFeatured:   req.IsFeatured,
		Gender:       req.Gender,
		AromaFamily:  req.AromaFamily,
		ProductType:  req.ProductType,
		Purpose:      req.Purpose,
		Country:      req.Country,
		Volume:       req.Volume,
		Categories:   req.Categories,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO products (id, slug, sku, name, description, brand_id, price, compare_price, stock,
			is_active, is_featured, gender, aroma_family, product_type, purpose, country, volume,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	if _, err := tx.ExecContext(ctx, query,
		product.ID, product.Slug, product.SKU, product.Name, product.Description, product.BrandID,
		product.Price, product.ComparePrice, product.Stock, product.IsActive, product.IsFeatured,
		product.Gender, product.AromaFamily, product.ProductType, product.Purpose, product.Country,
		product.Volume, product.CreatedAt, product.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("product with the same slug or sku already exists", err)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	if err := replaceProductCategories(ctx, tx, product.ID, product.Categories); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product: %w", err)
	}

	s.invalidateCatalog(ctx)

	if s.producer != nil {
		if err := s.producer.PublishProductCreated(product); err != nil {
			s.log.WithField("error", err.Error()).Warn("Failed to publish product created event")
		}
	}

	s.log.WithFields(map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
	}).Info("Product created")

	return product, nil
}

// UpdateProduct обновляет товар и заменяет привязки категорий.
func (s *ProductService) UpdateProduct(ctx context.Context, productID uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {
	if req.Name == "" {
		return nil, apperror.Validation("product name is required", nil)
	}
	if req.Price <= 0 {
		return nil, apperror.Validation("product price must be positive", nil)
	}
	if req.Stock < 0 {
		return nil, apperror.Validation("product stock cannot be negative", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, compare_price = $4, stock = $5,
			is_active = $6, is_featured = $7, gender = $8, aroma_family = $9,
			product_type = $10, purpose = $11, country = $12, volume = $13, updated_at = $14
		WHERE id = $15
	`
	result, err := tx.ExecContext(ctx, query,
		req.Name, req.Description, req.Price, req.ComparePrice, req.Stock,
		req.IsActive, req.IsFeatured, req.Gender, req.AromaFamily,
		req.ProductType, req.Purpose, req.Country, req.Volume, time.Now(), productID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return nil, apperror.NotFound("product not found", nil)
	}

	if req.Categories != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM product_categories WHERE product_id = $1`, productID); err != nil {
			return nil, fmt.Errorf("failed to clear product categories: %w", err)
		}
		if err := replaceProductCategories(ctx, tx, productID, req.Categories); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product update: %w", err)
	}

	s.invalidateCatalog(ctx)

	return s.GetProduct(ctx, productID)
}

// GetProduct возвращает товар по id (включая неактивные, для админки).
func (s *ProductService) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	query := `
		SELECT p.id, p.slug, p.sku, p.name, p.description, p.brand_id, b.name, b.slug,
			p.price, p.compare_price, p.stock, p.is_active, p.is_featured,
			p.gender, p.aroma_family, p.product_type, p.purpose, p.country, p.volume,
			p.created_at, p.updated_at
		FROM products p
		JOIN brands b ON b.id = p.brand_id
		WHERE p.id = $1
	`

	p := &models.Product{}
	if err := s.db.QueryRowContext(ctx, query, productID).Scan(
		&p.ID, &p.Slug, &p.SKU, &p.Name, &p.Description, &p.BrandID, &p.BrandName, &p.BrandSlug,
		&p.Price, &p.ComparePrice, &p.Stock, &p.IsActive, &p.IsFeatured,
		&p.Gender, &p.AromaFamily, &p.ProductType, &p.Purpose, &p.Country, &p.Volume,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("product not found", err)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT category_id, is_primary FROM product_categories WHERE product_id = $1`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ref models.CategoryRef
		if err := rows.Scan(&ref.CategoryID, &ref.IsPrimary); err != nil {
			return nil, fmt.Errorf("failed to scan product category: %w", err)
		}
		p.Categories = append(p.Categories, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate product categories: %w", err)
	}

	return p, nil
}

// ListProducts возвращает товары для админки (включая неактивные).
func (s *ProductService) ListProducts(ctx context.Context, limit, offset int) ([]*models.Product, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT p.id, p.slug, p.sku, p.name, p.description, p.brand_id, b.name, b.slug,
			p.price, p.compare_price, p.stock, p.is_active, p.is_featured,
			p.gender, p.aroma_family, p.product_type, p.purpose, p.country, p.volume,
			p.created_at, p.updated_at
		FROM products p
		JOIN brands b ON b.id = p.brand_id
		ORDER BY p.created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p := &models.Product{}
		if err := rows.Scan(
			&p.ID, &p.Slug, &p.SKU, &p.Name, &p.Description, &p.BrandID, &p.BrandName, &p.BrandSlug,
			&p.Price, &p.ComparePrice, &p.Stock, &p.IsActive, &p.IsFeatured,
			&p.Gender, &p.AromaFamily, &p.ProductType, &p.Purpose, &p.Country, &p.Volume,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, nil
}

// DeactivateProduct скрывает товар с витрины, не удаляя его из заказов.
func (s *ProductService) DeactivateProduct(ctx context.Context, productID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE products SET is_active = false, updated_at = $1 WHERE id = $2`, time.Now(), productID)
	if err != nil {
		return fmt.Errorf("failed to deactivate product: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("product not found", nil)
	}

	s.invalidateCatalog(ctx)
	return nil
}

func (s *ProductService) invalidateCatalog(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPrefix(ctx, redis.KeyPrefixCatalog); err != nil {
		s.log.WithField("error", err.Error()).Warn("Failed to invalidate catalog cache")
	}
	if err := s.cache.DeleteByPrefix(ctx, redis.KeyPrefixProduct); err != nil {
		s.log.WithField("error", err.Error()).Warn("Failed to invalidate product cache")
	}
}

func replaceProductCategories(ctx context.Context, tx *sql.Tx, productID uuid.UUID, refs []models.CategoryRef) error {
	for _, ref := range refs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO product_categories (product_id, category_id, is_primary) VALUES ($1, $2, $3)`,
			productID, ref.CategoryID, ref.IsPrimary); err != nil {
			return fmt.Errorf("failed to link product category: %w", err)
		}
	}
	return nil
}

func validateProductPayload(name, sku string, price int64, stock int, brandID uuid.UUID) error {
	if name == "" {
		return fmt.Errorf("product name is required")
	}
	if sku == "" {
		return fmt.Errorf("product sku is required")
	}
	if price <= 0 {
		return fmt.Errorf("product price must be positive")
	}
	if stock < 0 {
		return fmt.Errorf("product stock cannot be negative")
	}
	if brandID == uuid.Nil {
		return fmt.Errorf("brand_id is required")
	}
	return nil
}

// isUniqueViolation распознаёт нарушение уникального ограничения postgres.
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
