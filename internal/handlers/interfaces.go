package handlers

import (
	"context"

	"fragrance-store/internal/models"

	"github.com/google/uuid"
)

// ----- Catalog -----

type CatalogProvider interface {
	ListProducts(ctx context.Context, filters *models.ProductFilters, sort models.SortOrder, page, pageSize int) (*models.ProductPage, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.CatalogProduct, error)
	RelatedProducts(ctx context.Context, product *models.CatalogProduct) ([]*models.CatalogProduct, error)
	ListBrands(ctx context.Context) ([]*models.Brand, error)
}

// ----- Discounts -----

type DiscountAdmin interface {
	CreateDiscount(ctx context.Context, req *models.CreateDiscountRequest) (*models.SeasonalDiscount, error)
	GetDiscount(ctx context.Context, discountID uuid.UUID) (*models.SeasonalDiscount, error)
	ListDiscounts(ctx context.Context, limit, offset int) ([]*models.SeasonalDiscount, error)
	DeleteDiscount(ctx context.Context, discountID uuid.UUID) error
}

// ----- Products -----

type ProductAdmin interface {
	CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, limit, offset int) ([]*models.Product, error)
	DeactivateProduct(ctx context.Context, productID uuid.UUID) error
}

// ----- Categories -----

type CategoryAdmin interface {
	CreateCategory(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, error)
	UpdateCategory(ctx context.Context, categoryID uuid.UUID, req *models.UpdateCategoryRequest) (*models.Category, error)
	GetCategory(ctx context.Context, categoryID uuid.UUID) (*models.Category, error)
	ListCategories(ctx context.Context, onlyActive bool) ([]*models.Category, error)
	DeactivateCategory(ctx context.Context, categoryID uuid.UUID) error
}

// ----- Orders -----

type OrderService interface {
	CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, filters *models.OrderFilters, limit, offset int) ([]*models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, newStatus models.OrderStatus) (*models.Order, error)
}

// ----- Cart -----

type CartService interface {
	GetCart(ctx context.Context, token string) (*models.Cart, error)
	ReplaceCart(ctx context.Context, token string, req *models.ReplaceCartRequest) (*models.Cart, error)
	ClearCart(ctx context.Context, token string) error
}

// ----- Chat -----

type ChatService interface {
	CreateConversation(ctx context.Context, req *models.CreateConversationRequest) (*models.Conversation, error)
	PostMessage(ctx context.Context, conversationID uuid.UUID, req *models.CreateChatMessageRequest) (*models.ChatMessage, error)
	ListConversations(ctx context.Context, limit, offset int) ([]*models.Conversation, error)
	GetMessages(ctx context.Context, conversationID uuid.UUID) ([]*models.ChatMessage, error)
	CloseConversation(ctx context.Context, conversationID uuid.UUID) error
}

// ----- Analytics -----

type AnalyticsProvider interface {
	SalesReport(ctx context.Context, filter models.SalesFilter) (*models.SalesKPIs, error)
}

// ----- Health -----

type DBHealth interface {
	Health() error
}

type RedisHealth interface {
	Health(ctx context.Context) error
}
