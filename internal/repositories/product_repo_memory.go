package repositories

import (
	"context"
	"sort"
	"sync"

	"catalog/internal/models"
	"catalog/pkg/clock"

	"github.com/shopspring/decimal"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
// It keeps row snapshots so callers never share state with the store.
type MemoryProductRepository struct {
	products map[int64]productRecord
	nextID   int64
	clock    clock.Clock
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository(clk clock.Clock) *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[int64]productRecord),
		nextID:   1,
		clock:    clk,
	}
}

// Save inserts or version-checks and replaces a product.
func (r *MemoryProductRepository) Save(_ context.Context, product *models.Product) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := toRecord(product)
	if product.IsNew() {
		rec.ID = r.nextID
		rec.Version = 1
		r.nextID++
		r.products[rec.ID] = rec
		return rec.toEntity(r.clock)
	}

	stored, ok := r.products[rec.ID]
	if !ok {
		return nil, models.NewNotFoundError(rec.ID)
	}
	if stored.Version != rec.Version {
		return nil, models.NewConflictError(rec.ID, rec.Version)
	}
	rec.CreatedAt = stored.CreatedAt
	rec.Version = stored.Version + 1
	r.products[rec.ID] = rec
	return rec.toEntity(r.clock)
}

// FindByID returns a product by its ID.
func (r *MemoryProductRepository) FindByID(_ context.Context, id int64) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.products[id]
	if !ok {
		return nil, models.NewNotFoundError(id)
	}
	return rec.toEntity(r.clock)
}

// FindAll returns one page of products ordered by id.
func (r *MemoryProductRepository) FindAll(_ context.Context, skip, limit int) ([]*models.Product, error) {
	records := r.filter(func(productRecord) bool { return true })
	if skip >= len(records) {
		return []*models.Product{}, nil
	}
	end := len(records)
	if limit >= 0 && skip+limit < end {
		end = skip + limit
	}
	return toEntities(records[skip:end], r.clock)
}

// FindByCategory returns products whose category equals category.
func (r *MemoryProductRepository) FindByCategory(_ context.Context, category string) ([]*models.Product, error) {
	return toEntities(r.filter(func(rec productRecord) bool {
		return rec.Category == category
	}), r.clock)
}

// FindByPriceRange returns products priced within [min, max].
func (r *MemoryProductRepository) FindByPriceRange(_ context.Context, min, max decimal.Decimal) ([]*models.Product, error) {
	return toEntities(r.filter(func(rec productRecord) bool {
		return rec.Price.GreaterThanOrEqual(min) && rec.Price.LessThanOrEqual(max)
	}), r.clock)
}

// FindLowStock returns products with stock at or below threshold.
func (r *MemoryProductRepository) FindLowStock(_ context.Context, threshold int) ([]*models.Product, error) {
	return toEntities(r.filter(func(rec productRecord) bool {
		return rec.Stock <= threshold
	}), r.clock)
}

// FindAvailable returns products with stock left.
func (r *MemoryProductRepository) FindAvailable(_ context.Context) ([]*models.Product, error) {
	return toEntities(r.filter(func(rec productRecord) bool {
		return rec.Stock > 0
	}), r.clock)
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return false, nil
	}
	delete(r.products, id)
	return true, nil
}

// GetCategories returns the distinct categories in alphabetical order.
func (r *MemoryProductRepository) GetCategories(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, rec := range r.products {
		if _, ok := seen[rec.Category]; ok {
			continue
		}
		seen[rec.Category] = struct{}{}
		categories = append(categories, rec.Category)
	}
	sort.Strings(categories)
	return categories, nil
}

// CountByCategory counts the products in category.
func (r *MemoryProductRepository) CountByCategory(_ context.Context, category string) (int64, error) {
	return int64(len(r.filter(func(rec productRecord) bool {
		return rec.Category == category
	}))), nil
}

func (r *MemoryProductRepository) filter(keep func(productRecord) bool) []productRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]productRecord, 0, len(r.products))
	for _, rec := range r.products {
		if keep(rec) {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}
