package services

import (
	"context"
	"database/sql"
	"fmt"
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

// DiscountService управляет сезонными скидками и их применением к товарам.
type DiscountService struct {
	db       *database.DB
	cache    *redis.Client
	producer *kafka.Producer
	log      *logger.Logger
}

// NewDiscountService создаёт сервис сезонных скидок. cache и producer могут быть nil.
func NewDiscountService(db *database.DB, cache *redis.Client, producer *kafka.Producer, log *logger.Logger) *DiscountService {
	return &DiscountService{
		db:       db,
		cache:    cache,
		producer: producer,
		log:      log,
	}
}

// invalidateCatalog сбрасывает кеш витрины после изменения набора скидок.
func (s *DiscountService) invalidateCatalog(ctx context.Context) {
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

// CreateDiscount создаёт сезонную скидку. Окно действия не может пересекаться
// с активной скидкой, разделяющей хотя бы одну целевую категорию или товар;
// проверка выполняется в той же транзакции, что и вставка.
func (s *DiscountService) CreateDiscount(ctx context.Context, req *models.CreateDiscountRequest) (*models.SeasonalDiscount, error) {
	if err := validateDiscountPayload(req); err != nil {
		return nil, apperror.Validation(err.Error(), err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	conflicts, err := s.findOverlapping(ctx, tx, req)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, apperror.ConflictWithTargets("discount window overlaps an active discount on shared targets", conflicts)
	}

	now := time.Now()
	discount := &models.SeasonalDiscount{
		ID:          uuid.New(),
		Name:        req.Name,
		Discount:    req.Discount,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsActive:    true,
		ApplyTo:     req.ApplyTo,
		CategoryIDs: req.CategoryIDs,
		ProductIDs:  req.ProductIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := `
		INSERT INTO seasonal_discounts (id, name, discount, start_date, end_date, is_active, apply_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := tx.ExecContext(ctx, query, discount.ID, discount.Name, discount.Discount,
		discount.StartDate, discount.EndDate, discount.IsActive, discount.ApplyTo, discount.CreatedAt, discount.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to create discount: %w", err)
	}

	if discount.ApplyTo == models.ApplyToCategories {
		for _, categoryID := range discount.CategoryIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO seasonal_discount_categories (discount_id, category_id) VALUES ($1, $2)`,
				discount.ID, categoryID); err != nil {
				return nil, fmt.Errorf("failed to link discount category: %w", err)
			}
		}
	} else {
		for _, productID := range discount.ProductIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO seasonal_discount_products (discount_id, product_id) VALUES ($1, $2)`,
				discount.ID, productID); err != nil {
				return nil, fmt.Errorf("failed to link discount product: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit discount: %w", err)
	}

	s.invalidateCatalog(ctx)

	if s.producer != nil {
		if err := s.producer.PublishDiscountCreated(discount); err != nil {
			s.log.WithField("error", err.Error()).Warn("Failed to publish discount created event")
		}
	}

	s.log.WithFields(map[string]interface{}{
		"discount_id": discount.ID,
		"name":        discount.Name,
		"percent":     discount.Discount,
	}).Info("Seasonal discount created")

	return discount, nil
}

// findOverlapping ищет активные скидки с пересекающимся окном и общими целями.
func (s *DiscountService) findOverlapping(ctx context.Context, tx *sql.Tx, req *models.CreateDiscountRequest) ([]string, error) {
	var (
		query string
		ids   []uuid.UUID
	)
	if req.ApplyTo == models.ApplyToCategories {
		query = `
			SELECT DISTINCT d.name
			FROM seasonal_discounts d
			JOIN seasonal_discount_categories dc ON dc.discount_id = d.id
			WHERE d.is_active = true AND d.start_date <= $1 AND d.end_date >= $2 AND dc.category_id = ANY($3)
			ORDER BY d.name
		`
		ids = req.CategoryIDs
	} else {
		query = `
			SELECT DISTINCT d.name
			FROM seasonal_discounts d
			JOIN seasonal_discount_products dp ON dp.discount_id = d.id
			WHERE d.is_active = true AND d.start_date <= $1 AND d.end_date >= $2 AND dp.product_id = ANY($3)
			ORDER BY d.name
		`
		ids = req.ProductIDs
	}

	idStrings := make([]string, 0, len(ids))
	for _, id := range ids {
		idStrings = append(idStrings, id.String())
	}

	rows, err := tx.QueryContext(ctx, query, req.EndDate, req.StartDate, pq.Array(idStrings))
	if err != nil {
		return nil, fmt.Errorf("failed to check discount overlap: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan conflicting discount: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conflicting discounts: %w", err)
	}

	return names, nil
}

// GetDiscount возвращает скидку с целями по id.
func (s *DiscountService) GetDiscount(ctx context.Context, discountID uuid.UUID) (*models.SeasonalDiscount, error) {
	query := `
		SELECT id, name, discount, start_date, end_date, is_active, apply_to, created_at, updated_at
		FROM seasonal_discounts
		WHERE id = $1
	`

	discount := &models.SeasonalDiscount{}
	if err := s.db.QueryRowContext(ctx, query, discountID).Scan(
		&discount.ID, &discount.Name, &discount.Discount, &discount.StartDate, &discount.EndDate,
		&discount.IsActive, &discount.ApplyTo, &discount.CreatedAt, &discount.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("discount not found", err)
		}
		return nil, fmt.Errorf("failed to get discount: %w", err)
	}

	if err := s.loadTargets(ctx, []*models.SeasonalDiscount{discount}); err != nil {
		return nil, err
	}

	return discount, nil
}

// ListDiscounts возвращает список скидок (активные первыми, затем по дате старта).
func (s *DiscountService) ListDiscounts(ctx context.Context, limit, offset int) ([]*models.SeasonalDiscount, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, name, discount, start_date, end_date, is_active, apply_to, created_at, updated_at
		FROM seasonal_discounts
		ORDER BY is_active DESC, start_date DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list discounts: %w", err)
	}
	defer rows.Close()

	var discounts []*models.SeasonalDiscount
	for rows.Next() {
		d := &models.SeasonalDiscount{}
		if err := rows.Scan(&d.ID, &d.Name, &d.Discount, &d.StartDate, &d.EndDate, &d.IsActive, &d.ApplyTo, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan discount: %w", err)
		}
		discounts = append(discounts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate discounts: %w", err)
	}

	if err := s.loadTargets(ctx, discounts); err != nil {
		return nil, err
	}

	return discounts, nil
}

// DeleteDiscount удаляет скидку вместе с привязками целей.
func (s *DiscountService) DeleteDiscount(ctx context.Context, discountID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM seasonal_discounts WHERE id = $1`, discountID)
	if err != nil {
		return fmt.Errorf("failed to delete discount: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("discount not found", nil)
	}

	s.invalidateCatalog(ctx)
	return nil
}

// ActiveDiscounts возвращает скидки, действующие в момент now, с целями.
// Окно действия включает обе границы.
func (s *DiscountService) ActiveDiscounts(ctx context.Context, now time.Time) ([]*models.SeasonalDiscount, error) {
	query := `
		SELECT id, name, discount, start_date, end_date, is_active, apply_to, created_at, updated_at
		FROM seasonal_discounts
		WHERE is_active = true AND start_date <= $1 AND end_date >= $1
	`

	rows, err := s.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load active discounts: %w", err)
	}
	defer rows.Close()

	var discounts []*models.SeasonalDiscount
	for rows.Next() {
		d := &models.SeasonalDiscount{}
		if err := rows.Scan(&d.ID, &d.Name, &d.Discount, &d.StartDate, &d.EndDate, &d.IsActive, &d.ApplyTo, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan active discount: %w", err)
		}
		discounts = append(discounts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate active discounts: %w", err)
	}

	if err := s.loadTargets(ctx, discounts); err != nil {
		return nil, err
	}

	return discounts, nil
}

// loadTargets подгружает целевые категории/товары для набора скидок.
func (s *DiscountService) loadTargets(ctx context.Context, discounts []*models.SeasonalDiscount) error {
	if len(discounts) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*models.SeasonalDiscount, len(discounts))
	ids := make([]string, 0, len(discounts))
	for _, d := range discounts {
		byID[d.ID] = d
		ids = append(ids, d.ID.String())
	}

	catRows, err := s.db.QueryContext(ctx,
		`SELECT discount_id, category_id FROM seasonal_discount_categories WHERE discount_id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load discount categories: %w", err)
	}
	defer catRows.Close()

	for catRows.Next() {
		var discountID, categoryID uuid.UUID
		if err := catRows.Scan(&discountID, &categoryID); err != nil {
			return fmt.Errorf("failed to scan discount category: %w", err)
		}
		if d, ok := byID[discountID]; ok {
			d.CategoryIDs = append(d.CategoryIDs, categoryID)
		}
	}
	if err := catRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate discount categories: %w", err)
	}

	prodRows, err := s.db.QueryContext(ctx,
		`SELECT discount_id, product_id FROM seasonal_discount_products WHERE discount_id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load discount products: %w", err)
	}
	defer prodRows.Close()

	for prodRows.Next() {
		var discountID, productID uuid.UUID
		if err := prodRows.Scan(&discountID, &productID); err != nil {
			return fmt.Errorf("failed to scan discount product: %w", err)
		}
		if d, ok := byID[discountID]; ok {
			d.ProductIDs = append(d.ProductIDs, productID)
		}
	}
	if err := prodRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate discount products: %w", err)
	}

	return nil
}

// ResolveDiscount выбирает скидку для товара из набора действующих скидок.
// Прямая скидка на товар имеет приоритет над скидками его категорий; среди
// категорийных побеждает наибольший процент, при равенстве — меньший id
// скидки (детерминированный разрыв ничьей). Возвращает nil, если ни одна
// скидка не подходит.
func ResolveDiscount(productID uuid.UUID, categoryIDs []uuid.UUID, active []*models.SeasonalDiscount) *models.DiscountAnnotation {
	for _, d := range active {
		if d.ApplyTo != models.ApplyToProducts {
			continue
		}
		for _, id := range d.ProductIDs {
			if id == productID {
				return annotate(d)
			}
		}
	}

	var best *models.SeasonalDiscount
	for _, d := range active {
		if d.ApplyTo != models.ApplyToCategories {
			continue
		}
		if !targetsAnyCategory(d.CategoryIDs, categoryIDs) {
			continue
		}
		if best == nil || d.Discount > best.Discount ||
			(d.Discount == best.Discount && d.ID.String() < best.ID.String()) {
			best = d
		}
	}
	if best == nil {
		return nil
	}
	return annotate(best)
}

// ResolveDiscountAt фильтрует набор скидок по моменту времени и разрешает
// скидку для одного товара.
func ResolveDiscountAt(productID uuid.UUID, categoryIDs []uuid.UUID, discounts []*models.SeasonalDiscount, now time.Time) *models.DiscountAnnotation {
	active := make([]*models.SeasonalDiscount, 0, len(discounts))
	for _, d := range discounts {
		if d.ActiveAt(now) {
			active = append(active, d)
		}
	}
	return ResolveDiscount(productID, categoryIDs, active)
}

// ResolveDiscountsForBatch разрешает скидки для набора товаров, загружая
// действующий набор скидок один раз.
func (s *DiscountService) ResolveDiscountsForBatch(ctx context.Context, products map[uuid.UUID][]uuid.UUID, now time.Time) (map[uuid.UUID]*models.DiscountAnnotation, error) {
	active, err := s.ActiveDiscounts(ctx, now)
	if err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]*models.DiscountAnnotation, len(products))
	for productID, categoryIDs := range products {
		if annotation := ResolveDiscount(productID, categoryIDs, active); annotation != nil {
			result[productID] = annotation
		}
	}
	return result, nil
}

// DiscountedPrice считает цену после скидки с округлением половины вверх
// до целой денежной единицы.
func DiscountedPrice(basePrice int64, percent int) int64 {
	if percent <= 0 {
		return basePrice
	}
	if percent >= 100 {
		return 0
	}
	return (basePrice*int64(100-percent) + 50) / 100
}

func annotate(d *models.SeasonalDiscount) *models.DiscountAnnotation {
	return &models.DiscountAnnotation{
		ID:       d.ID,
		Name:     d.Name,
		Discount: d.Discount,
	}
}

func targetsAnyCategory(targets, categories []uuid.UUID) bool {
	for _, t := range targets {
		for _, c := range categories {
			if t == c {
				return true
			}
		}
	}
	return false
}

func validateDiscountPayload(req *models.CreateDiscountRequest) error {
	if req.Name == "" {
		return fmt.Errorf("discount name is required")
	}
	if req.Discount < 1 || req.Discount > 100 {
		return fmt.Errorf("discount percent must be between 1 and 100")
	}
	if !req.EndDate.After(req.StartDate) {
		return fmt.Errorf("end_date must be after start_date")
	}
	switch req.ApplyTo {
	case models.ApplyToCategories:
		if len(req.CategoryIDs) == 0 {
			return fmt.Errorf("category_ids are required when apply_to is categories")
		}
		if len(req.ProductIDs) > 0 {
			return fmt.Errorf("product_ids are not allowed when apply_to is categories")
		}
	case models.ApplyToProducts:
		if len(req.ProductIDs) == 0 {
			return fmt.Errorf("product_ids are required when apply_to is products")
		}
		if len(req.CategoryIDs) > 0 {
			return fmt.Errorf("category_ids are not allowed when apply_to is products")
		}
	default:
		return fmt.Errorf("invalid apply_to")
	}
	return nil
}
