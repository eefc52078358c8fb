package repositories

import (
	"context"
	"errors"
	"fmt"

	"catalog/internal/models"
	"catalog/pkg/clock"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB, clk clock.Clock) *GORMProductRepository {
	return &GORMProductRepository{
		db:    db,
		clock: clk,
	}
}

// Save inserts new products and performs a version-checked update for
// existing ones.
func (r *GORMProductRepository) Save(ctx context.Context, product *models.Product) (*models.Product, error) {
	rec := toRecord(product)
	if product.IsNew() {
		rec.Version = 1
		if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
			return nil, fmt.Errorf("failed to create product: %w", err)
		}
		return rec.toEntity(r.clock)
	}

	res := r.db.WithContext(ctx).Model(&productRecord{}).
		Where("id = ? AND version = ?", rec.ID, rec.Version).
		Updates(map[string]interface{}{
			"name":       rec.Name,
			"price":      rec.Price,
			"stock":      rec.Stock,
			"category":   rec.Category,
			"updated_at": rec.UpdatedAt,
			"version":    gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update product %d: %w", rec.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&productRecord{}).Where("id = ?", rec.ID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check product %d: %w", rec.ID, err)
		}
		if count == 0 {
			return nil, models.NewNotFoundError(rec.ID)
		}
		return nil, models.NewConflictError(rec.ID, rec.Version)
	}
	return r.FindByID(ctx, rec.ID)
}

// FindByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var rec productRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return rec.toEntity(r.clock)
}

// FindAll returns one page of products ordered by id.
func (r *GORMProductRepository) FindAll(ctx context.Context, skip, limit int) ([]*models.Product, error) {
	return r.find(ctx, "all products", func(tx *gorm.DB) *gorm.DB {
		return tx.Offset(skip).Limit(limit)
	})
}

// FindByCategory returns products whose category equals category.
func (r *GORMProductRepository) FindByCategory(ctx context.Context, category string) ([]*models.Product, error) {
	return r.find(ctx, "products by category", func(tx *gorm.DB) *gorm.DB {
		return tx.Where("category = ?", category)
	})
}

// FindByPriceRange returns products priced within [min, max].
func (r *GORMProductRepository) FindByPriceRange(ctx context.Context, min, max decimal.Decimal) ([]*models.Product, error) {
	return r.find(ctx, "products by price range", func(tx *gorm.DB) *gorm.DB {
		return tx.Where("price >= ? AND price <= ?", min, max)
	})
}

// FindLowStock returns products with stock at or below threshold.
func (r *GORMProductRepository) FindLowStock(ctx context.Context, threshold int) ([]*models.Product, error) {
	return r.find(ctx, "low stock products", func(tx *gorm.DB) *gorm.DB {
		return tx.Where("stock <= ?", threshold)
	})
}

// FindAvailable returns products with stock left.
func (r *GORMProductRepository) FindAvailable(ctx context.Context) ([]*models.Product, error) {
	return r.find(ctx, "available products", func(tx *gorm.DB) *gorm.DB {
		return tx.Where("stock > ?", 0)
	})
}

// Delete deletes a product by its ID from the database.
func (r *GORMProductRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&productRecord{}, "id = ?", id)
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete product %d: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// GetCategories returns the distinct categories in alphabetical order.
func (r *GORMProductRepository) GetCategories(ctx context.Context) ([]string, error) {
	categories := make([]string, 0)
	err := r.db.WithContext(ctx).Model(&productRecord{}).
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

// CountByCategory counts the products in category.
func (r *GORMProductRepository) CountByCategory(ctx context.Context, category string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&productRecord{}).Where("category = ?", category).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count products in category %q: %w", category, err)
	}
	return count, nil
}

func (r *GORMProductRepository) find(ctx context.Context, what string, scope func(*gorm.DB) *gorm.DB) ([]*models.Product, error) {
	var records []productRecord
	if err := scope(r.db.WithContext(ctx)).Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", what, err)
	}
	return toEntities(records, r.clock)
}

// AutoMigrate creates or updates the tables owned by the repositories.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&productRecord{}, &models.User{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
