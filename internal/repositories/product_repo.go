package repositories

import (
	"context"

	"catalog/internal/models"

	"github.com/shopspring/decimal"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// Save inserts a new product or updates an existing one and returns the
	// stored state. Updates fail with a ConflictError when the product's
	// version no longer matches storage.
	Save(ctx context.Context, product *models.Product) (*models.Product, error)
	// FindByID returns a NotFoundError when no product has the given id.
	FindByID(ctx context.Context, id int64) (*models.Product, error)
	FindAll(ctx context.Context, skip, limit int) ([]*models.Product, error)
	FindByCategory(ctx context.Context, category string) ([]*models.Product, error)
	FindByPriceRange(ctx context.Context, min, max decimal.Decimal) ([]*models.Product, error)
	FindLowStock(ctx context.Context, threshold int) ([]*models.Product, error)
	FindAvailable(ctx context.Context) ([]*models.Product, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id int64) (bool, error)
	GetCategories(ctx context.Context) ([]string, error)
	CountByCategory(ctx context.Context, category string) (int64, error)
}
