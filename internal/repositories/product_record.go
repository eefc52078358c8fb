package repositories

import (
	"time"

	"catalog/internal/models"
	"catalog/pkg/clock"

	"github.com/shopspring/decimal"
)

// productRecord is the row shape of the products table. Timestamps are owned
// by the entity, so GORM's automatic time tracking is switched off.
type productRecord struct {
	ID        int64           `gorm:"primaryKey;autoIncrement"`
	Name      string          `gorm:"type:varchar(100);not null;index"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null;index:idx_product_category_price,priority:2"`
	Stock     int             `gorm:"not null;default:0;index:idx_product_stock"`
	Category  string          `gorm:"type:varchar(50);not null;index;index:idx_product_category_price,priority:1"`
	Version   int64           `gorm:"not null;default:1"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime:false"`
}

func (productRecord) TableName() string {
	return "products"
}

func toRecord(p *models.Product) productRecord {
	return productRecord{
		ID:        p.ID(),
		Name:      p.Name(),
		Price:     p.Price(),
		Stock:     p.Stock(),
		Category:  p.Category(),
		Version:   p.Version(),
		CreatedAt: p.CreatedAt(),
		UpdatedAt: p.UpdatedAt(),
	}
}

func (r productRecord) toEntity(clk clock.Clock) (*models.Product, error) {
	return models.ReconstructProduct(clk, r.ID, r.Name, r.Price, r.Stock, r.Category, r.Version, r.CreatedAt, r.UpdatedAt)
}

func toEntities(records []productRecord, clk clock.Clock) ([]*models.Product, error) {
	products := make([]*models.Product, 0, len(records))
	for _, rec := range records {
		p, err := rec.toEntity(clk)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}
