package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"fragrance-store/internal/apperror"
	"fragrance-store/internal/database"
	"fragrance-store/internal/kafka"
	"fragrance-store/internal/logger"
	"fragrance-store/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// orderTransitions задаёт допустимые переходы статусов заказа.
var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusCreated:    {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered},
	models.OrderStatusDelivered:  {},
	models.OrderStatusCancelled:  {},
}

// OrderService оформляет заказы и управляет их жизненным циклом.
type OrderService struct {
	db        *database.DB
	discounts *DiscountService
	carts     *CartService
	producer  *kafka.Producer
	log       *logger.Logger
}

// NewOrderService создаёт сервис заказов. carts и producer могут быть nil.
func NewOrderService(db *database.DB, discounts *DiscountService, carts *CartService, producer *kafka.Producer, log *logger.Logger) *OrderService {
	return &OrderService{
		db:        db,
		discounts: discounts,
		carts:     carts,
		producer:  producer,
		log:       log,
	}
}

// CreateOrder оформляет заказ: блокирует строки товаров, проверяет остатки,
// фиксирует цены с учётом действующих скидок и списывает остатки. Позиции
// заказа — снимок: последующие изменения цен и скидок заказ не трогают.
func (s *OrderService) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	if err := validateOrderPayload(req); err != nil {
		return nil, apperror.Validation(err.Error(), err)
	}

	items := req.Items
	if len(items) == 0 && req.CartToken != "" && s.carts != nil {
		cart, err := s.carts.GetCart(ctx, req.CartToken)
		if err != nil {
			return nil, err
		}
		for _, ci := range cart.Items {
			items = append(items, models.CreateOrderItemRequest{ProductID: ci.ProductID, Quantity: ci.Quantity})
		}
	}
	if len(items) == 0 {
		return nil, apperror.Validation("order must contain at least one item", nil)
	}
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, apperror.Validation("order item product_id is required", nil)
		}
		if item.Quantity <= 0 {
			return nil, apperror.Validation("order item quantity must be positive", nil)
		}
	}

	now := time.Now()
	active, err := s.discounts.ActiveDiscounts(ctx, now)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	productIDs := make([]string, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID.String())
	}

	type lockedProduct struct {
		name     string
		price    int64
		stock    int
		isActive bool
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, name, price, stock, is_active FROM products WHERE id = ANY($1) FOR UPDATE`,
		pq.Array(productIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}

	locked := make(map[uuid.UUID]lockedProduct, len(items))
	for rows.Next() {
		var id uuid.UUID
		var p lockedProduct
		if err := rows.Scan(&id, &p.name, &p.price, &p.stock, &p.isActive); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan locked product: %w", err)
		}
		locked[id] = p
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate locked products: %w", err)
	}
	rows.Close()

	categoryRows, err := tx.QueryContext(ctx,
		`SELECT product_id, category_id FROM product_categories WHERE product_id = ANY($1)`,
		pq.Array(productIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load product categories: %w", err)
	}

	categoriesByProduct := make(map[uuid.UUID][]uuid.UUID, len(items))
	for categoryRows.Next() {
		var productID, categoryID uuid.UUID
		if err := categoryRows.Scan(&productID, &categoryID); err != nil {
			categoryRows.Close()
			return nil, fmt.Errorf("failed to scan product category: %w", err)
		}
		categoriesByProduct[productID] = append(categoriesByProduct[productID], categoryID)
	}
	if err := categoryRows.Err(); err != nil {
		categoryRows.Close()
		return nil, fmt.Errorf("failed to iterate product categories: %w", err)
	}
	categoryRows.Close()

	order := &models.Order{
		ID:              uuid.New(),
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		DeliveryAddress: req.DeliveryAddress,
		Comment:         req.Comment,
		Status:          models.OrderStatusCreated,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for _, item := range items {
		product, ok := locked[item.ProductID]
		if !ok {
			return nil, apperror.NotFound(fmt.Sprintf("product %s not found", item.ProductID), nil)
		}
		if !product.isActive {
			return nil, apperror.Validation(fmt.Sprintf("product %s is not available", product.name), nil)
		}
		if product.stock < item.Quantity {
			return nil, apperror.Conflict(fmt.Sprintf("insufficient stock for %s", product.name), nil)
		}

		price := product.price
		var discountID *uuid.UUID
		if annotation := ResolveDiscount(item.ProductID, categoriesByProduct[item.ProductID], active); annotation != nil {
			price = DiscountedPrice(product.price, annotation.Discount)
			id := annotation.ID
			discountID = &id
		}

		order.Items = append(order.Items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Name:      product.name,
			BasePrice: product.price,
			Price:     price,
			Quantity:  item.Quantity,
			Discount:  discountID,
		})

		order.ItemsTotal += product.price * int64(item.Quantity)
		order.TotalAmount += price * int64(item.Quantity)
	}
	order.DiscountTotal = order.ItemsTotal - order.TotalAmount

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_name, customer_email, customer_phone, delivery_address, comment,
			items_total, discount_total, total_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, order.ID, order.CustomerName, order.CustomerEmail, order.CustomerPhone, order.DeliveryAddress,
		order.Comment, order.ItemsTotal, order.DiscountTotal, order.TotalAmount, order.Status,
		order.CreatedAt, order.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range order.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, base_price, price, quantity, discount_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, item.ID, item.OrderID, item.ProductID, item.Name, item.BasePrice, item.Price, item.Quantity, item.Discount); err != nil {
			return nil, fmt.Errorf("failed to create order item: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $1, updated_at = $2 WHERE id = $3`,
			item.Quantity, now, item.ProductID); err != nil {
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	if req.CartToken != "" && s.carts != nil {
		if err := s.carts.ClearCart(ctx, req.CartToken); err != nil {
			s.log.WithField("error", err.Error()).Warn("Failed to clear cart after checkout")
		}
	}

	if s.producer != nil {
		if err := s.producer.PublishOrderCreated(order); err != nil {
			s.log.WithField("error", err.Error()).Warn("Failed to publish order created event")
		}
	}

	s.log.WithFields(map[string]interface{}{
		"order_id": order.ID,
		"total":    order.TotalAmount,
		"items":    len(order.Items),
	}).Info("Order created")

	return order, nil
}

// GetOrder возвращает заказ с позициями.
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	query := `
		SELECT id, customer_name, customer_email, customer_phone, delivery_address, comment,
			items_total, discount_total, total_amount, status, created_at, updated_at, delivered_at
		FROM orders
		WHERE id = $1
	`

	order := &models.Order{}
	if err := s.db.QueryRowContext(ctx, query, orderID).Scan(
		&order.ID, &order.CustomerName, &order.CustomerEmail, &order.CustomerPhone,
		&order.DeliveryAddress, &order.Comment, &order.ItemsTotal, &order.DiscountTotal,
		&order.TotalAmount, &order.Status, &order.CreatedAt, &order.UpdatedAt, &order.DeliveredAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("order not found", err)
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, name, base_price, price, quantity, discount_id
		FROM order_items
		WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name,
			&item.BasePrice, &item.Price, &item.Quantity, &item.Discount); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}

	return order, nil
}

// ListOrders возвращает заказы для админки с фильтрами по статусу и email.
func (s *OrderService) ListOrders(ctx context.Context, filters *models.OrderFilters, limit, offset int) ([]*models.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	if filters == nil {
		filters = &models.OrderFilters{}
	}

	conditions := []string{"1=1"}
	args := []interface{}{}
	argIndex := 1

	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filters.Status)
		argIndex++
	}
	if filters.CustomerEmail != "" {
		conditions = append(conditions, fmt.Sprintf("customer_email = $%d", argIndex))
		args = append(args, filters.CustomerEmail)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT id, customer_name, customer_email, customer_phone, delivery_address, comment,
			items_total, discount_total, total_amount, status, created_at, updated_at, delivered_at
		FROM orders
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, strings.Join(conditions, " AND "), argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		if err := rows.Scan(
			&order.ID, &order.CustomerName, &order.CustomerEmail, &order.CustomerPhone,
			&order.DeliveryAddress, &order.Comment, &order.ItemsTotal, &order.DiscountTotal,
			&order.TotalAmount, &order.Status, &order.CreatedAt, &order.UpdatedAt, &order.DeliveredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	return orders, nil
}

// UpdateOrderStatus переводит заказ в новый статус по таблице переходов.
// Отмена возвращает списанные остатки на склад.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus models.OrderStatus) (*models.Order, error) {
	if _, ok := orderTransitions[newStatus]; !ok {
		return nil, apperror.Validation(fmt.Sprintf("unknown order status: %s", newStatus), nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current models.OrderStatus
	if err := tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&current); err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("order not found", err)
		}
		return nil, fmt.Errorf("failed to get order status: %w", err)
	}

	if !transitionAllowed(current, newStatus) {
		return nil, apperror.Conflict(fmt.Sprintf("cannot change order status from %s to %s", current, newStatus), nil)
	}

	now := time.Now()
	var deliveredAt *time.Time
	if newStatus == models.OrderStatusDelivered {
		deliveredAt = &now
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = $2, delivered_at = COALESCE($3, delivered_at) WHERE id = $4`,
		newStatus, now, deliveredAt, orderID); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if newStatus == models.OrderStatusCancelled {
		if _, err := tx.ExecContext(ctx, `
			UPDATE products p
			SET stock = p.stock + oi.quantity, updated_at = $1
			FROM order_items oi
			WHERE oi.order_id = $2 AND oi.product_id = p.id
		`, now, orderID); err != nil {
			return nil, fmt.Errorf("failed to restore stock: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}

	if s.producer != nil {
		if err := s.producer.PublishOrderStatusChanged(orderID, current, newStatus); err != nil {
			s.log.WithField("error", err.Error()).Warn("Failed to publish order status event")
		}
	}

	s.log.WithFields(map[string]interface{}{
		"order_id":   orderID,
		"old_status": current,
		"new_status": newStatus,
	}).Info("Order status changed")

	return s.GetOrder(ctx, orderID)
}

func transitionAllowed(from, to models.OrderStatus) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func validateOrderPayload(req *models.CreateOrderRequest) error {
	if req.CustomerName == "" {
		return fmt.Errorf("customer name is required")
	}
	if req.CustomerEmail == "" || !strings.Contains(req.CustomerEmail, "@") {
		return fmt.Errorf("valid customer email is required")
	}
	if req.CustomerPhone == "" {
		return fmt.Errorf("customer phone is required")
	}
	if req.DeliveryAddress == "" {
		return fmt.Errorf("delivery address is required")
	}
	return nil
}
