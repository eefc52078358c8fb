package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"catalog/internal/models"
	"catalog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	productService *services.ProductService
	validate       *validator.Validate
	logger         *slog.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *services.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		validate:       newValidator(),
		logger:         logger,
	}
}

// RegisterRoutes registers the product routes. Mutating routes run behind
// guard, which may be nil when authentication is disabled.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	productRoutes := router.Group("/products")

	mutating := []fiber.Handler{}
	if guard != nil {
		mutating = append(mutating, guard)
	}
	with := func(handler fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, mutating...), handler)
	}

	// Static paths go before /:id so they are not captured by it.
	productRoutes.Get("/categories", h.HandleGetCategories)
	productRoutes.Get("/categories/:category/count", h.HandleCountByCategory)
	productRoutes.Get("/low-stock", h.HandleGetLowStock)

	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Post("/", with(h.HandleCreateProduct)...)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Put("/:id", with(h.HandleUpdateProduct)...)
	productRoutes.Delete("/:id", with(h.HandleDeleteProduct)...)
	productRoutes.Post("/:id/purchase", with(h.HandlePurchaseProduct)...)
	productRoutes.Post("/:id/restock", with(h.HandleRestockProduct)...)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	product, err := h.productService.CreateProduct(c.UserContext(), services.CreateProductInput{
		Name:     req.Name,
		Price:    *req.Price,
		Stock:    *req.Stock,
		Category: req.Category,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(NewProductResponse(product))
}

// HandleListProducts lists products with paging and filters.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	query := services.ListProductsQuery{
		Category:  c.Query("category"),
		Available: c.QueryBool("available", false),
	}

	var err error
	if query.Skip, err = queryInt(c, "skip", 0); err != nil {
		return badQuery(c, err)
	}
	if query.Limit, err = queryInt(c, "limit", services.DefaultListLimit); err != nil {
		return badQuery(c, err)
	}
	if query.MinPrice, err = queryDecimal(c, "min_price"); err != nil {
		return badQuery(c, err)
	}
	if query.MaxPrice, err = queryDecimal(c, "max_price"); err != nil {
		return badQuery(c, err)
	}

	products, err := h.productService.ListProducts(c.UserContext(), query)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(NewProductListResponse(products))
}

// HandleGetProduct returns a single product.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return respondError(c, err)
	}
	product, err := h.productService.GetProduct(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(NewProductResponse(product))
}

// HandleUpdateProduct applies a partial update.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req UpdateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	product, err := h.productService.UpdateProduct(c.UserContext(), id, services.UpdateProductInput{
		Name:     req.Name,
		Price:    req.Price,
		Stock:    req.Stock,
		Category: req.Category,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(NewProductResponse(product))
}

// HandleDeleteProduct deletes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.productService.DeleteProduct(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Product deleted successfully",
	})
}

// HandlePurchaseProduct takes units out of stock.
func (h *ProductHandler) HandlePurchaseProduct(c *fiber.Ctx) error {
	return h.handleQuantity(c, h.productService.PurchaseProduct)
}

// HandleRestockProduct adds units to stock.
func (h *ProductHandler) HandleRestockProduct(c *fiber.Ctx) error {
	return h.handleQuantity(c, h.productService.RestockProduct)
}

// HandleGetCategories lists the categories in use.
func (h *ProductHandler) HandleGetCategories(c *fiber.Ctx) error {
	categories, err := h.productService.GetCategories(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"categories": categories,
	})
}

// HandleCountByCategory counts the products in one category.
func (h *ProductHandler) HandleCountByCategory(c *fiber.Ctx) error {
	category, err := url.PathUnescape(c.Params("category"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid category",
			"error":   err.Error(),
		})
	}
	count, err := h.productService.CountByCategory(c.UserContext(), category)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"category": category,
		"count":    count,
	})
}

// HandleGetLowStock lists products at or below the stock threshold.
func (h *ProductHandler) HandleGetLowStock(c *fiber.Ctx) error {
	threshold, err := queryInt(c, "threshold", models.DefaultLowStockThreshold)
	if err != nil {
		return badQuery(c, err)
	}
	products, err := h.productService.GetLowStockProducts(c.UserContext(), threshold)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(NewProductListResponse(products))
}

func (h *ProductHandler) handleQuantity(
	c *fiber.Ctx,
	apply func(ctx context.Context, id int64, quantity int) (*models.Product, error),
) error {
	id, err := productID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req QuantityRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidation(c, err)
	}

	product, err := apply(c.UserContext(), id, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(NewProductResponse(product))
}

func (h *ProductHandler) badBody(c *fiber.Ctx, err error) error {
	h.logger.WarnContext(c.UserContext(), "Error parsing request body", slog.String("error", err.Error()))
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

func badQuery(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid query parameter",
		"error":   err.Error(),
	})
}

// productID parses the :id path parameter. Identifiers that are not
// positive integers cannot exist, so they are reported as not found.
func productID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, models.NewNotFoundError(0)
	}
	return id, nil
}

func queryInt(c *fiber.Ctx, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}

func queryDecimal(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil || v.IsNegative() {
		return nil, fmt.Errorf("%s must be a non-negative decimal", key)
	}
	return &v, nil
}
