package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/pkg/clock"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Paging limits for ListProducts.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// CreateProductInput carries the attributes of a new product.
type CreateProductInput struct {
	Name     string
	Price    decimal.Decimal
	Stock    int
	Category string
}

// UpdateProductInput carries a partial update. Nil fields are left unchanged.
type UpdateProductInput struct {
	Name     *string
	Price    *decimal.Decimal
	Stock    *int
	Category *string
}

// ListProductsQuery selects a page or a filtered subset of products.
// Category takes precedence over Available, which takes precedence over the
// price range. The price range applies only when both bounds are set.
type ListProductsQuery struct {
	Skip      int
	Limit     int
	Category  string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	Available bool
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo       repositories.ProductRepository
	clock      clock.Clock
	tracer     trace.Tracer
	logger     *slog.Logger
	operations metric.Int64Counter
}

// NewProductService creates a new ProductService.
func NewProductService(
	repo repositories.ProductRepository,
	clk clock.Clock,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductService {
	operations, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	return &ProductService{
		repo:       repo,
		clock:      clk,
		tracer:     tracer,
		logger:     logger,
		operations: operations,
	}
}

// CreateProduct validates and stores a new product.
func (s *ProductService) CreateProduct(ctx context.Context, in CreateProductInput) (product *models.Product, err error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.CreateProduct")
	defer func() { s.finish(ctx, span, "create", err) }()

	span.SetAttributes(
		attribute.String("product.name", in.Name),
		attribute.String("product.category", in.Category),
	)

	product, err = models.NewProduct(s.clock, in.Name, in.Price, in.Stock, in.Category)
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		return nil, models.NewOperationError(models.OpCreate, err)
	}

	span.SetAttributes(attribute.Int64("product.id", saved.ID()))
	s.logger.InfoContext(ctx, "Product created", slog.Int64("product_id", saved.ID()))
	return saved, nil
}

// GetProduct returns the product with the given id.
func (s *ProductService) GetProduct(ctx context.Context, id int64) (product *models.Product, err error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProduct")
	defer func() { s.finish(ctx, span, "get", err) }()

	span.SetAttributes(attribute.Int64("product.id", id))
	return s.load(ctx, id)
}

// ListProducts returns a page of products or a filtered subset.
func (s *ProductService) ListProducts(ctx context.Context, q ListProductsQuery) (products []*models.Product, err error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.ListProducts")
	defer func() { s.finish(ctx, span, "list", err) }()

	skip, limit := normalizePage(q.Skip, q.Limit)
	span.SetAttributes(
		attribute.Int("list.skip", skip),
		attribute.Int("list.limit", limit),
		attribute.String("list.category", q.Category),
		attribute.Bool("list.available", q.Available),
	)

	switch {
	case q.Category != "":
		products, err = s.repo.FindByCategory(ctx, q.Category)
	case q.Available:
		products, err = s.repo.FindAvailable(ctx)
	case q.MinPrice != nil && q.MaxPrice != nil:
		products, err = s.repo.FindByPriceRange(ctx, *q.MinPrice, *q.MaxPrice)
	default:
		products, err = s.repo.FindAll(ctx, skip, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	span.SetAttributes(attribute.Int("list.count", len(products)))
	return products, nil
}

// UpdateProduct applies a partial update to an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, in UpdateProductInput) (product *models.Product, err error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.UpdateProduct")
	defer func() { s.finish(ctx, span, "update", err) }()

	span.SetAttributes(attribute.Int64("product.id", id))

	product, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if err := product.UpdateName(*in.Name); err != nil {
			return nil, err
		}
	}
	if in.Price != nil {
		if err := product.UpdatePrice(*in.Price); err != nil {
			return nil, err
		}
	}
	if in.Stock != nil {
		if err := product.UpdateStock(*in.Stock); err != nil {
			return nil, err
		}
	}
	if in.Category != nil {
		if err := product.UpdateCategory(*in.Category); err != nil {
			return nil, err
		}
	}
	return s.persist(ctx, product)
}

// DeleteProduct removes a product.
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) (err error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.DeleteProduct")
	defer func() { s.finish(ctx, span, "delete", err) }()

	span.SetAttributes(attribute.Int64("product.id", id))

	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return models.NewOperationError(models.OpDelete, err)
	}
	if !deleted {
		return models.NewOperationError(models.OpDelete, fmt.Errorf("product %d was not deleted", id))
	}

	s.logger.InfoContext(ctx, "Product deleted", slog.Int64("product_id", id))
	return nil
}

// PurchaseProduct takes quantity units out of stock.
func (s *ProductService) PurchaseProduct(ctx context.Context, id int64, quantity int) (product *models.Product, err error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.PurchaseProduct")
	defer func() { s.finish(ctx, span, "purchase", err) }()

	span.SetAttributes(
		attribute.Int64("product.id", id),
		attribute.Int("purchase.quantity", quantity),
	)

	product, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.Purchase(quantity); err != nil {
		return nil, err
	}
	return s.persist(ctx, product)
}

// RestockProduct adds quantity units to stock.
func (s *ProductService) RestockProduct(ctx context.Context, id int64, quantity int) (product *models.Product, err error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.RestockProduct")
	defer func() { s.finish(ctx, span, "restock", err) }()

	span.SetAttributes(
		attribute.Int64("product.id", id),
		attribute.Int("restock.quantity", quantity),
	)

	product, err = s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.Restock(quantity); err != nil {
		return nil, err
	}
	return s.persist(ctx, product)
}

// GetCategories returns every category in use, sorted.
func (s *ProductService) GetCategories(ctx context.Context) (categories []string, err error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetCategories")
	defer func() { s.finish(ctx, span, "categories", err) }()

	categories, err = s.repo.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

// CountByCategory returns the number of products in category.
func (s *ProductService) CountByCategory(ctx context.Context, category string) (count int64, err error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.CountByCategory")
	defer func() { s.finish(ctx, span, "count", err) }()

	span.SetAttributes(attribute.String("product.category", category))

	count, err = s.repo.CountByCategory(ctx, category)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// GetLowStockProducts returns products with stock at or below threshold.
// Negative thresholds are treated as zero.
func (s *ProductService) GetLowStockProducts(ctx context.Context, threshold int) (products []*models.Product, err error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetLowStockProducts")
	defer func() { s.finish(ctx, span, "low_stock", err) }()

	if threshold < 0 {
		threshold = 0
	}
	span.SetAttributes(attribute.Int("stock.threshold", threshold))

	products, err = s.repo.FindLowStock(ctx, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to get low stock products: %w", err)
	}
	return products, nil
}

func (s *ProductService) load(ctx context.Context, id int64) (*models.Product, error) {
	if id <= 0 {
		return nil, models.NewNotFoundError(id)
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if models.IsNotFoundError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load product %d: %w", id, err)
	}
	return product, nil
}

// persist saves an updated product. Not-found and conflict errors pass
// through; anything else is reported as a failed update.
func (s *ProductService) persist(ctx context.Context, product *models.Product) (*models.Product, error) {
	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		if models.IsNotFoundError(err) || models.IsConflictError(err) {
			return nil, err
		}
		return nil, models.NewOperationError(models.OpUpdate, err)
	}
	s.logger.InfoContext(ctx, "Product updated",
		slog.Int64("product_id", saved.ID()),
		slog.Int64("version", saved.Version()),
	)
	return saved, nil
}

func (s *ProductService) finish(ctx context.Context, span trace.Span, op string, err error) {
	defer span.End()

	result := "success"
	if err != nil {
		result = outcome(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		level := slog.LevelWarn
		if result == "failure" {
			level = slog.LevelError
		}
		s.logger.Log(ctx, level, "Product operation failed",
			slog.String("operation", op),
			slog.String("result", result),
			slog.String("error", err.Error()),
		)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	s.operations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", op),
			attribute.String("result", result),
		),
	)
}

func outcome(err error) string {
	var (
		ve *models.ValidationError
		nf *models.NotFoundError
		ce *models.ConflictError
	)
	switch {
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &ve):
		return "invalid"
	case errors.As(err, &ce):
		return "conflict"
	default:
		return "failure"
	}
}

func normalizePage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit < 1 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return skip, limit
}
