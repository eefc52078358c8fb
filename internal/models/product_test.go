package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"catalog/pkg/clock"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProduct(t *testing.T, clk clock.Clock, stock int) *Product {
	t.Helper()
	p, err := NewProduct(clk, "Widget", decimal.RequireFromString("9.99"), stock, "Tools")
	require.NoError(t, err)
	return p
}

func TestNewProduct(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(now)
	price := decimal.RequireFromString("9.99")

	t.Run("valid product", func(t *testing.T) {
		p, err := NewProduct(clk, "  Widget ", price, 5, " Tools ")
		require.NoError(t, err)
		assert.True(t, p.IsNew())
		assert.Equal(t, int64(0), p.ID())
		assert.Equal(t, "Widget", p.Name())
		assert.Equal(t, "Tools", p.Category())
		assert.True(t, price.Equal(p.Price()))
		assert.Equal(t, 5, p.Stock())
		assert.Equal(t, now, p.CreatedAt())
		assert.Equal(t, p.CreatedAt(), p.UpdatedAt())
	})

	t.Run("zero price and zero stock are allowed", func(t *testing.T) {
		p, err := NewProduct(clk, "Freebie", decimal.Zero, 0, "Promo")
		require.NoError(t, err)
		assert.False(t, p.IsAvailable())
	})

	t.Run("boundary lengths are allowed", func(t *testing.T) {
		_, err := NewProduct(clk, strings.Repeat("n", MaxNameLength), price, 1, strings.Repeat("c", MaxCategoryLength))
		assert.NoError(t, err)
	})

	t.Run("multibyte names count characters not bytes", func(t *testing.T) {
		_, err := NewProduct(clk, strings.Repeat("ñ", MaxNameLength), price, 1, "Hogar")
		assert.NoError(t, err)
	})

	invalid := []struct {
		name     string
		product  string
		price    decimal.Decimal
		stock    int
		category string
		field    string
	}{
		{"empty name", "", price, 1, "Tools", "name"},
		{"whitespace name", "   \t", price, 1, "Tools", "name"},
		{"name too long", strings.Repeat("n", MaxNameLength+1), price, 1, "Tools", "name"},
		{"empty category", "Widget", price, 1, "", "category"},
		{"whitespace category", "Widget", price, 1, "  ", "category"},
		{"category too long", "Widget", price, 1, strings.Repeat("c", MaxCategoryLength+1), "category"},
		{"negative price", "Widget", decimal.RequireFromString("-0.01"), 1, "Tools", "price"},
		{"negative stock", "Widget", price, -1, "Tools", "stock"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewProduct(clk, tc.product, tc.price, tc.stock, tc.category)
			assert.Nil(t, p)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestReconstructProduct(t *testing.T) {
	clk := clock.NewMockClock(time.Now())
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	p, err := ReconstructProduct(clk, 7, "Widget", decimal.RequireFromString("1.50"), 3, "Tools", 2, created, updated)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID())
	assert.False(t, p.IsNew())
	assert.Equal(t, int64(2), p.Version())
	assert.Equal(t, created, p.CreatedAt())
	assert.Equal(t, updated, p.UpdatedAt())

	_, err = ReconstructProduct(clk, 8, "", decimal.Zero, 0, "Tools", 1, created, updated)
	assert.True(t, IsValidationError(err))
}

func TestProduct_Updates(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(start)
	p := newTestProduct(t, clk, 5)

	clk.Advance(time.Minute)
	require.NoError(t, p.UpdateName("  Gadget  "))
	assert.Equal(t, "Gadget", p.Name())
	assert.Equal(t, start.Add(time.Minute), p.UpdatedAt())
	assert.Equal(t, start, p.CreatedAt())

	clk.Advance(time.Minute)
	require.NoError(t, p.UpdatePrice(decimal.RequireFromString("12.50")))
	assert.Equal(t, "12.50", p.Price().StringFixed(2))

	require.NoError(t, p.UpdateStock(0))
	assert.Equal(t, 0, p.Stock())

	require.NoError(t, p.UpdateCategory(" Gadgets "))
	assert.Equal(t, "Gadgets", p.Category())
	assert.Equal(t, start.Add(2*time.Minute), p.UpdatedAt())
}

func TestProduct_UpdatesRejectInvalidValues(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(start)
	p := newTestProduct(t, clk, 5)
	clk.Advance(time.Hour)

	assert.True(t, IsValidationError(p.UpdateName(" ")))
	assert.True(t, IsValidationError(p.UpdateName(strings.Repeat("x", MaxNameLength+1))))
	assert.True(t, IsValidationError(p.UpdatePrice(decimal.NewFromInt(-1))))
	assert.True(t, IsValidationError(p.UpdateStock(-3)))
	assert.True(t, IsValidationError(p.UpdateCategory("")))
	assert.True(t, IsValidationError(p.UpdateCategory(strings.Repeat("x", MaxCategoryLength+1))))

	assert.Equal(t, "Widget", p.Name())
	assert.Equal(t, "9.99", p.Price().StringFixed(2))
	assert.Equal(t, 5, p.Stock())
	assert.Equal(t, "Tools", p.Category())
	assert.Equal(t, start, p.UpdatedAt(), "failed updates must not touch updated_at")
}

func TestProduct_StockQueries(t *testing.T) {
	clk := clock.NewMockClock(time.Now())

	tests := []struct {
		stock     int
		threshold int
		low       bool
		available bool
	}{
		{stock: 0, threshold: 10, low: true, available: false},
		{stock: 10, threshold: 10, low: true, available: true},
		{stock: 11, threshold: 10, low: false, available: true},
		{stock: 3, threshold: 2, low: false, available: true},
		{stock: 3, threshold: 3, low: true, available: true},
	}
	for _, tc := range tests {
		p := newTestProduct(t, clk, tc.stock)
		assert.Equal(t, tc.low, p.IsLowStock(tc.threshold), "stock=%d threshold=%d", tc.stock, tc.threshold)
		assert.Equal(t, tc.available, p.IsAvailable(), "stock=%d", tc.stock)
	}

	p := newTestProduct(t, clk, DefaultLowStockThreshold)
	assert.True(t, p.IsLowStock(DefaultLowStockThreshold))
}

func TestProduct_CanPurchase(t *testing.T) {
	clk := clock.NewMockClock(time.Now())
	p := newTestProduct(t, clk, 5)

	assert.True(t, p.CanPurchase(1))
	assert.True(t, p.CanPurchase(5))
	assert.False(t, p.CanPurchase(6))
	assert.False(t, p.CanPurchase(0))
	assert.False(t, p.CanPurchase(-1))

	empty := newTestProduct(t, clk, 0)
	assert.False(t, empty.CanPurchase(0))
}

func TestProduct_Purchase(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(start)
	p := newTestProduct(t, clk, 5)

	clk.Advance(time.Second)
	require.NoError(t, p.Purchase(3))
	assert.Equal(t, 2, p.Stock())
	assert.True(t, p.IsAvailable())
	assert.Equal(t, start.Add(time.Second), p.UpdatedAt())

	clk.Advance(time.Second)
	err := p.Purchase(10)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 2, p.Stock())
	assert.Equal(t, start.Add(time.Second), p.UpdatedAt())

	for _, q := range []int{0, -1} {
		err := p.Purchase(q)
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.Equal(t, 2, p.Stock())
	}

	require.NoError(t, p.Purchase(2))
	assert.Equal(t, 0, p.Stock())
	assert.False(t, p.IsAvailable())
}

func TestProduct_Restock(t *testing.T) {
	clk := clock.NewMockClock(time.Now())
	p := newTestProduct(t, clk, 2)

	for _, q := range []int{0, -1} {
		err := p.Restock(q)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		assert.Equal(t, 2, p.Stock())
	}

	before := p.UpdatedAt()
	clk.Advance(time.Minute)
	require.NoError(t, p.Restock(20))
	assert.Equal(t, 22, p.Stock())
	assert.True(t, p.UpdatedAt().After(before))
}

func TestProduct_String(t *testing.T) {
	p := newTestProduct(t, clock.NewMockClock(time.Now()), 5)
	assert.Equal(t, `Product(id=0, name="Widget", price=9.99, stock=5)`, p.String())
}
