package services

import (
	"context"
	"fmt"
	"time"

	"fragrance-store/internal/apperror"
	"fragrance-store/internal/config"
	"fragrance-store/internal/database"
	"fragrance-store/internal/logger"
	"fragrance-store/internal/models"
	"fragrance-store/internal/redis"
)

// AnalyticsService считает показатели продаж по доставленным заказам.
type AnalyticsService struct {
	db    *database.DB
	cache *redis.Client
	cfg   *config.AnalyticsConfig
	log   *logger.Logger
}

// NewAnalyticsService создаёт сервис аналитики. cache может быть nil.
func NewAnalyticsService(db *database.DB, cache *redis.Client, cfg *config.AnalyticsConfig, log *logger.Logger) *AnalyticsService {
	return &AnalyticsService{
		db:    db,
		cache: cache,
		cfg:   cfg,
		log:   log,
	}
}

// SalesReport возвращает выручку, число заказов, средний чек и топ товаров
// за интервал. Пустой интервал означает последние 30 дней.
func (s *AnalyticsService) SalesReport(ctx context.Context, filter models.SalesFilter) (*models.SalesKPIs, error) {
	now := time.Now()
	if filter.To.IsZero() {
		filter.To = now
	}
	if filter.From.IsZero() {
		filter.From = filter.To.AddDate(0, 0, -30)
	}
	if !filter.To.After(filter.From) {
		return nil, apperror.Validation("report range end must be after start", nil)
	}
	if filter.To.Sub(filter.From) > time.Duration(s.cfg.MaxRangeDays)*24*time.Hour {
		return nil, apperror.Validation(fmt.Sprintf("report range cannot exceed %d days", s.cfg.MaxRangeDays), nil)
	}
	if filter.TopLimit <= 0 {
		filter.TopLimit = s.cfg.DefaultTopLimit
	}

	cacheKey := redis.GenerateKey(redis.KeyPrefixStats,
		fmt.Sprintf("sales:%d:%d:%d", filter.From.Unix(), filter.To.Unix(), filter.TopLimit))
	if s.cache != nil {
		var cached models.SalesKPIs
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	kpis := &models.SalesKPIs{
		From:        filter.From,
		To:          filter.To,
		GeneratedAt: now,
	}

	if err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_amount), 0), COUNT(*)
		FROM orders
		WHERE status = $1 AND created_at >= $2 AND created_at < $3
	`, models.OrderStatusDelivered, filter.From, filter.To).Scan(&kpis.Revenue, &kpis.OrdersCount); err != nil {
		return nil, fmt.Errorf("failed to compute sales totals: %w", err)
	}

	if kpis.OrdersCount > 0 {
		kpis.AverageCheck = float64(kpis.Revenue) / float64(kpis.OrdersCount)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT oi.product_id, oi.name, SUM(oi.quantity) AS quantity, SUM(oi.price * oi.quantity) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status = $1 AND o.created_at >= $2 AND o.created_at < $3
		GROUP BY oi.product_id, oi.name
		ORDER BY quantity DESC, revenue DESC
		LIMIT $4
	`, models.OrderStatusDelivered, filter.From, filter.To, filter.TopLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to compute top products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var top models.TopProduct
		if err := rows.Scan(&top.ProductID, &top.Name, &top.Quantity, &top.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan top product: %w", err)
		}
		kpis.TopProducts = append(kpis.TopProducts, top)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate top products: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, kpis, time.Duration(s.cfg.CacheTTLMinutes)*time.Minute); err != nil {
			s.log.WithField("error", err.Error()).Warn("Failed to cache sales report")
		}
	}

	return kpis, nil
}
