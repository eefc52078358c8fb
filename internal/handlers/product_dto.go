package handlers

import (
	"reflect"
	"time"

	"catalog/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents the request body for creating a product.
type CreateProductRequest struct {
	Name     string           `json:"name" validate:"required,max=100"`
	Price    *decimal.Decimal `json:"price" validate:"required,price"`
	Stock    *int             `json:"stock" validate:"required,gte=0"`
	Category string           `json:"category" validate:"required,max=50"`
}

// UpdateProductRequest represents the request body for a partial update.
type UpdateProductRequest struct {
	Name     *string          `json:"name" validate:"omitempty,min=1,max=100"`
	Price    *decimal.Decimal `json:"price" validate:"omitempty,price"`
	Stock    *int             `json:"stock" validate:"omitempty,gte=0"`
	Category *string          `json:"category" validate:"omitempty,min=1,max=50"`
}

// QuantityRequest is the body of purchase and restock requests.
type QuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// ProductResponse is the JSON shape of a product.
type ProductResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Stock     int       `json:"stock"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProductResponse converts a product into its response shape.
func NewProductResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID(),
		Name:      p.Name(),
		Price:     p.Price().StringFixed(2),
		Stock:     p.Stock(),
		Category:  p.Category(),
		CreatedAt: p.CreatedAt(),
		UpdatedAt: p.UpdatedAt(),
	}
}

// NewProductListResponse converts a list of products.
func NewProductListResponse(products []*models.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductResponse(p))
	}
	return out
}

// maxPrice is the largest amount the decimal(10,2) price column holds.
var maxPrice = decimal.RequireFromString("99999999.99")

// newValidator returns a validator that understands decimal prices. The
// "price" tag accepts amounts from 0 to maxPrice with at most two decimal
// places.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return !d.IsNegative() && d.LessThanOrEqual(maxPrice) && d.Equal(d.Round(2))
	})
	return v
}
