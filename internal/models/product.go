package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"catalog/pkg/clock"

	"github.com/shopspring/decimal"
)

// Field limits and defaults for products.
const (
	MaxNameLength            = 100
	MaxCategoryLength        = 50
	DefaultLowStockThreshold = 10
)

// Product is a catalog item. Fields are unexported so that every change goes
// through a validating method.
type Product struct {
	id        int64
	name      string
	price     decimal.Decimal
	stock     int
	category  string
	version   int64
	createdAt time.Time
	updatedAt time.Time

	clock clock.Clock
}

// NewProduct creates a product that has not been persisted yet.
func NewProduct(clk clock.Clock, name string, price decimal.Decimal, stock int, category string) (*Product, error) {
	now := clk.Now()
	p := &Product{
		name:      strings.TrimSpace(name),
		price:     price,
		stock:     stock,
		category:  strings.TrimSpace(category),
		createdAt: now,
		updatedAt: now,
		clock:     clk,
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ReconstructProduct rebuilds a persisted product. Storage adapters are the
// only callers; the row is validated like a new product.
func ReconstructProduct(
	clk clock.Clock,
	id int64,
	name string,
	price decimal.Decimal,
	stock int,
	category string,
	version int64,
	createdAt, updatedAt time.Time,
) (*Product, error) {
	p := &Product{
		id:        id,
		name:      strings.TrimSpace(name),
		price:     price,
		stock:     stock,
		category:  strings.TrimSpace(category),
		version:   version,
		createdAt: createdAt,
		updatedAt: updatedAt,
		clock:     clk,
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("stored product %d is invalid: %w", id, err)
	}
	return p, nil
}

// ID returns the storage identifier, 0 until the product is first saved.
func (p *Product) ID() int64 { return p.id }

// Name returns the trimmed product name.
func (p *Product) Name() string { return p.name }

// Price returns the unit price.
func (p *Product) Price() decimal.Decimal { return p.price }

// Stock returns the units on hand.
func (p *Product) Stock() int { return p.stock }

// Category returns the trimmed category.
func (p *Product) Category() string { return p.category }

// Version returns the storage version used to detect concurrent updates.
func (p *Product) Version() int64 { return p.version }

// CreatedAt returns when the product was constructed.
func (p *Product) CreatedAt() time.Time { return p.createdAt }

// UpdatedAt returns when the product was last changed.
func (p *Product) UpdatedAt() time.Time { return p.updatedAt }

// IsNew reports whether the product has not been assigned an identifier yet.
func (p *Product) IsNew() bool {
	return p.id == 0
}

// UpdateName trims and stores a new name.
func (p *Product) UpdateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if err := validateName(trimmed); err != nil {
		return err
	}
	p.name = trimmed
	p.touch()
	return nil
}

// UpdatePrice stores a new non-negative price.
func (p *Product) UpdatePrice(price decimal.Decimal) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	p.price = price
	p.touch()
	return nil
}

// UpdateStock sets the stock level directly.
func (p *Product) UpdateStock(stock int) error {
	if err := validateStock(stock); err != nil {
		return err
	}
	p.stock = stock
	p.touch()
	return nil
}

// UpdateCategory trims and stores a new category.
func (p *Product) UpdateCategory(category string) error {
	trimmed := strings.TrimSpace(category)
	if err := validateCategory(trimmed); err != nil {
		return err
	}
	p.category = trimmed
	p.touch()
	return nil
}

// IsAvailable reports whether at least one unit is in stock.
func (p *Product) IsAvailable() bool {
	return p.stock > 0
}

// IsLowStock reports whether stock is at or below threshold.
func (p *Product) IsLowStock(threshold int) bool {
	return p.stock <= threshold
}

// CanPurchase reports whether quantity units can be taken from stock.
func (p *Product) CanPurchase(quantity int) bool {
	return quantity > 0 && p.stock >= quantity
}

// Purchase removes quantity units from stock.
func (p *Product) Purchase(quantity int) error {
	if !p.CanPurchase(quantity) {
		return &ValidationError{
			Field:  "quantity",
			Reason: fmt.Sprintf("cannot purchase %d units, available stock is %d", quantity, p.stock),
			Value:  quantity,
			Err:    ErrInsufficientStock,
		}
	}
	p.stock -= quantity
	p.touch()
	return nil
}

// Restock adds quantity units to stock.
func (p *Product) Restock(quantity int) error {
	if quantity <= 0 {
		return &ValidationError{
			Field:  "quantity",
			Reason: "restock quantity must be positive",
			Value:  quantity,
			Err:    ErrInvalidQuantity,
		}
	}
	p.stock += quantity
	p.touch()
	return nil
}

func (p *Product) String() string {
	return fmt.Sprintf("Product(id=%d, name=%q, price=%s, stock=%d)", p.id, p.name, p.price.StringFixed(2), p.stock)
}

func (p *Product) touch() {
	p.updatedAt = p.clock.Now()
}

func (p *Product) validate() error {
	if err := validateName(p.name); err != nil {
		return err
	}
	if err := validatePrice(p.price); err != nil {
		return err
	}
	if err := validateStock(p.stock); err != nil {
		return err
	}
	return validateCategory(p.category)
}

func validateName(name string) error {
	if name == "" {
		return NewValidationError("name", "must not be empty", name)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return NewValidationError("name", fmt.Sprintf("must not exceed %d characters", MaxNameLength), name)
	}
	return nil
}

func validateCategory(category string) error {
	if category == "" {
		return NewValidationError("category", "must not be empty", category)
	}
	if utf8.RuneCountInString(category) > MaxCategoryLength {
		return NewValidationError("category", fmt.Sprintf("must not exceed %d characters", MaxCategoryLength), category)
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return NewValidationError("price", "must not be negative", price.String())
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return NewValidationError("stock", "must not be negative", stock)
	}
	return nil
}
