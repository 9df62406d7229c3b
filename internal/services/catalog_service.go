package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fragrance-store/internal/apperror"
	"fragrance-store/internal/config"
	"fragrance-store/internal/database"
	"fragrance-store/internal/logger"
	"fragrance-store/internal/models"
	"fragrance-store/internal/redis"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const catalogColumns = `p.id, p.slug, p.sku, p.name, p.description, p.brand_id, b.name, b.slug,
		p.price, p.compare_price, p.stock, p.is_active, p.is_featured,
		p.gender, p.aroma_family, p.product_type, p.purpose, p.country, p.volume,
		p.created_at, p.updated_at`

// CatalogService отвечает за витрину: фильтрация, поиск, сортировка,
// постраничный вывод и применение сезонных скидок к ценам.
type CatalogService struct {
	db        *database.DB
	cache     *redis.Client
	discounts *DiscountService
	log       *logger.Logger
	cfg       *config.CatalogConfig
}

// NewCatalogService создаёт сервис витрины. cache может быть nil.
func NewCatalogService(db *database.DB, cache *redis.Client, discounts *DiscountService, log *logger.Logger, cfg *config.CatalogConfig) *CatalogService {
	return &CatalogService{
		db:        db,
		cache:     cache,
		discounts: discounts,
		log:       log,
		cfg:       cfg,
	}
}

// ListProducts возвращает страницу каталога. Фильтры внутри одного измерения
// объединяются через OR, измерения между собой — через AND. Запрошенная
// страница за пределами выборки возвращает пустой список с точным total.
func (s *CatalogService) ListProducts(ctx context.Context, filters *models.ProductFilters, sort models.SortOrder, page, pageSize int) (*models.ProductPage, error) {
	if pageSize <= 0 {
		return nil, apperror.Validation("page size must be positive", nil)
	}
	if page <= 0 {
		return nil, apperror.Validation("page must be positive", nil)
	}
	if pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}
	if filters == nil {
		filters = &models.ProductFilters{}
	}

	orderBy, err := orderClause(sort)
	if err != nil {
		return nil, err
	}

	cacheKey := s.pageCacheKey(filters, sort, page, pageSize)
	if s.cache != nil {
		var cached models.ProductPage
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	where, args := buildCatalogFilter(filters)

	var total int
	countQuery := `SELECT COUNT(*) FROM products p JOIN brands b ON b.id = p.brand_id WHERE ` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN brands b ON b.id = p.brand_id
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, catalogColumns, where, orderBy, len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*models.CatalogProduct
	for rows.Next() {
		p, err := scanCatalogProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	if err := s.loadCategoryRefs(ctx, products); err != nil {
		return nil, err
	}
	if err := s.applyDiscounts(ctx, products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []*models.CatalogProduct{}
	}

	result := &models.ProductPage{
		Products: products,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      pageSize,
			Total:      total,
			TotalPages: (total + pageSize - 1) / pageSize,
		},
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, result, time.Duration(s.cfg.CacheTTLMinutes)*time.Minute); err != nil {
			s.log.WithField("error", err.Error()).Warn("Failed to cache catalog page")
		}
	}

	return result, nil
}

// GetProductBySlug возвращает активный товар витрины с применённой скидкой.
func (s *CatalogService) GetProductBySlug(ctx context.Context, slug string) (*models.CatalogProduct, error) {
	if slug == "" {
		return nil, apperror.Validation("product slug is required", nil)
	}

	cacheKey := redis.GenerateKey(redis.KeyPrefixProduct, slug)
	if s.cache != nil {
		var cached models.CatalogProduct
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN brands b ON b.id = p.brand_id
		WHERE p.slug = $1 AND p.is_active = true
	`, catalogColumns)

	row := s.db.QueryRowContext(ctx, query, slug)
	product, err := scanCatalogProduct(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("product not found", err)
		}
		return nil, err
	}

	products := []*models.CatalogProduct{product}
	if err := s.loadCategoryRefs(ctx, products); err != nil {
		return nil, err
	}
	if err := s.applyDiscounts(ctx, products); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, product, time.Duration(s.cfg.CacheTTLMinutes)*time.Minute); err != nil {
			s.log.WithField("error", err.Error()).Warn("Failed to cache product")
		}
	}

	return product, nil
}

// RelatedProducts возвращает товары той же основной категории (без самого товара).
func (s *CatalogService) RelatedProducts(ctx context.Context, product *models.CatalogProduct) ([]*models.CatalogProduct, error) {
	var primaryCategory *uuid.UUID
	for _, ref := range product.Categories {
		if ref.IsPrimary {
			id := ref.CategoryID
			primaryCategory = &id
			break
		}
	}

	// Похожие: та же основная категория, иначе тот же бренд.
	var query string
	var anchor interface{}
	if primaryCategory != nil {
		query = fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN brands b ON b.id = p.brand_id
		JOIN product_categories pc ON pc.product_id = p.id
		WHERE pc.category_id = $1 AND p.id <> $2 AND p.is_active = true
		ORDER BY p.is_featured DESC, p.created_at DESC
		LIMIT $3
	`, catalogColumns)
		anchor = *primaryCategory
	} else {
		query = fmt.Sprintf(`
		SELECT %s
		FROM products p
		JOIN brands b ON b.id = p.brand_id
		WHERE p.brand_id = $1 AND p.id <> $2 AND p.is_active = true
		ORDER BY p.is_featured DESC, p.created_at DESC
		LIMIT $3
	`, catalogColumns)
		anchor = product.BrandID
	}

	rows, err := s.db.QueryContext(ctx, query, anchor, product.ID, s.cfg.RelatedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query related products: %w", err)
	}
	defer rows.Close()

	var related []*models.CatalogProduct
	for rows.Next() {
		p, err := scanCatalogProduct(rows)
		if err != nil {
			return nil, err
		}
		related = append(related, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate related products: %w", err)
	}

	if err := s.loadCategoryRefs(ctx, related); err != nil {
		return nil, err
	}
	if err := s.applyDiscounts(ctx, related); err != nil {
		return nil, err
	}
	if related == nil {
		related = []*models.CatalogProduct{}
	}

	return related, nil
}

// ListBrands возвращает бренды, у которых есть активные товары.
func (s *CatalogService) ListBrands(ctx context.Context) ([]*models.Brand, error) {
	query := `
		SELECT DISTINCT b.id, b.slug, b.name
		FROM brands b
		JOIN products p ON p.brand_id = b.id AND p.is_active = true
		ORDER BY b.name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query brands: %w", err)
	}
	defer rows.Close()

	var brands []*models.Brand
	for rows.Next() {
		b := &models.Brand{}
		if err := rows.Scan(&b.ID, &b.Slug, &b.Name); err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate brands: %w", err)
	}

	return brands, nil
}

// InvalidateCache сбрасывает кешированные страницы витрины и карточки товаров.
func (s *CatalogService) InvalidateCache(ctx context.Context) {
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

// buildCatalogFilter собирает WHERE для витрины: каждое непустое измерение
// добавляет условие через AND, значения внутри измерения — через ANY (OR).
func buildCatalogFilter(filters *models.ProductFilters) (string, []interface{}) {
	conditions := []string{"p.is_active = true"}
	args := []interface{}{}
	argIndex := 1

	if len(filters.Categories) > 0 {
		conditions = append(conditions, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM product_categories pc
			JOIN categories c ON c.id = pc.category_id
			WHERE pc.product_id = p.id AND c.slug = ANY($%d))`, argIndex))
		args = append(args, pq.Array(filters.Categories))
		argIndex++
	}
	if len(filters.Brands) > 0 {
		conditions = append(conditions, fmt.Sprintf("b.slug = ANY($%d)", argIndex))
		args = append(args, pq.Array(filters.Brands))
		argIndex++
	}

	columnFilters := []struct {
		column string
		values []string
	}{
		{"p.gender", filters.Genders},
		{"p.aroma_family", filters.AromaFamilies},
		{"p.product_type", filters.ProductTypes},
		{"p.purpose", filters.Purposes},
		{"p.country", filters.Countries},
		{"p.volume", filters.Volumes},
	}
	for _, f := range columnFilters {
		if len(f.values) == 0 {
			continue
		}
		conditions = append(conditions, fmt.Sprintf("%s = ANY($%d)", f.column, argIndex))
		args = append(args, pq.Array(f.values))
		argIndex++
	}

	if filters.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("p.price >= $%d", argIndex))
		args = append(args, *filters.MinPrice)
		argIndex++
	}
	if filters.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("p.price <= $%d", argIndex))
		args = append(args, *filters.MaxPrice)
		argIndex++
	}

	if filters.Search != "" {
		pattern := "%" + filters.Search + "%"
		conditions = append(conditions, fmt.Sprintf(
			"(p.name ILIKE $%d OR p.description ILIKE $%d OR p.sku ILIKE $%d OR b.name ILIKE $%d)",
			argIndex, argIndex+1, argIndex+2, argIndex+3))
		args = append(args, pattern, pattern, pattern, pattern)
		argIndex += 4
	}

	return strings.Join(conditions, " AND "), args
}

// orderClause переводит порядок сортировки в ORDER BY. Вторичный ключ
// created_at DESC делает порядок стабильным.
func orderClause(sort models.SortOrder) (string, error) {
	switch sort {
	case models.SortNewest, "":
		return "p.created_at DESC", nil
	case models.SortPriceAsc:
		return "p.price ASC, p.created_at DESC", nil
	case models.SortPriceDesc:
		return "p.price DESC, p.created_at DESC", nil
	case models.SortNameAsc:
		return "p.name ASC, p.created_at DESC", nil
	case models.SortNameDesc:
		return "p.name DESC, p.created_at DESC", nil
	case models.SortFeatured:
		return "p.is_featured DESC, p.created_at DESC", nil
	default:
		return "", apperror.Validation(fmt.Sprintf("unknown sort order: %s", sort), nil)
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCatalogProduct(row rowScanner) (*models.CatalogProduct, error) {
	p := &models.CatalogProduct{}
	if err := row.Scan(
		&p.ID, &p.Slug, &p.SKU, &p.Name, &p.Description, &p.BrandID, &p.BrandName, &p.BrandSlug,
		&p.Price, &p.ComparePrice, &p.Stock, &p.IsActive, &p.IsFeatured,
		&p.Gender, &p.AromaFamily, &p.ProductType, &p.Purpose, &p.Country, &p.Volume,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	return p, nil
}

// loadCategoryRefs подгружает привязки категорий для набора товаров.
func (s *CatalogService) loadCategoryRefs(ctx context.Context, products []*models.CatalogProduct) error {
	if len(products) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*models.CatalogProduct, len(products))
	ids := make([]string, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		ids = append(ids, p.ID.String())
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, category_id, is_primary FROM product_categories WHERE product_id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load product categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID uuid.UUID
		var ref models.CategoryRef
		if err := rows.Scan(&productID, &ref.CategoryID, &ref.IsPrimary); err != nil {
			return fmt.Errorf("failed to scan product category: %w", err)
		}
		if p, ok := byID[productID]; ok {
			p.Categories = append(p.Categories, ref)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate product categories: %w", err)
	}

	return nil
}

// applyDiscounts разрешает сезонные скидки и пересчитывает цены витрины:
// Price становится ценой после скидки, ComparePrice — базовой ценой.
func (s *CatalogService) applyDiscounts(ctx context.Context, products []*models.CatalogProduct) error {
	if len(products) == 0 {
		return nil
	}

	batch := make(map[uuid.UUID][]uuid.UUID, len(products))
	for _, p := range products {
		categoryIDs := make([]uuid.UUID, 0, len(p.Categories))
		for _, ref := range p.Categories {
			categoryIDs = append(categoryIDs, ref.CategoryID)
		}
		batch[p.ID] = categoryIDs
	}

	annotations, err := s.discounts.ResolveDiscountsForBatch(ctx, batch, time.Now())
	if err != nil {
		return err
	}

	for _, p := range products {
		annotation, ok := annotations[p.ID]
		if !ok {
			continue
		}
		base := p.Price
		p.SeasonalDiscount = annotation
		p.Price = DiscountedPrice(base, annotation.Discount)
		p.ComparePrice = &base
	}

	return nil
}

// pageCacheKey строит ключ кеша страницы из канонического представления запроса.
func (s *CatalogService) pageCacheKey(filters *models.ProductFilters, sort models.SortOrder, page, pageSize int) string {
	payload, _ := json.Marshal(struct {
		Filters  *models.ProductFilters `json:"filters"`
		Sort     models.SortOrder       `json:"sort"`
		Page     int                    `json:"page"`
		PageSize int                    `json:"page_size"`
	}{filters, sort, page, pageSize})

	sum := sha256.Sum256(payload)
	return redis.GenerateKey(redis.KeyPrefixCatalog, "pages:"+hex.EncodeToString(sum[:8]))
}
