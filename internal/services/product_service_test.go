package services_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/pkg/clock"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Save(ctx context.Context, product *models.Product) (*models.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, skip, limit int) ([]*models.Product, error) {
	args := m.Called(ctx, skip, limit)
	return products(args.Get(0)), args.Error(1)
}

func (m *MockProductRepository) FindByCategory(ctx context.Context, category string) ([]*models.Product, error) {
	args := m.Called(ctx, category)
	return products(args.Get(0)), args.Error(1)
}

func (m *MockProductRepository) FindByPriceRange(ctx context.Context, min, max decimal.Decimal) ([]*models.Product, error) {
	args := m.Called(ctx, min, max)
	return products(args.Get(0)), args.Error(1)
}

func (m *MockProductRepository) FindLowStock(ctx context.Context, threshold int) ([]*models.Product, error) {
	args := m.Called(ctx, threshold)
	return products(args.Get(0)), args.Error(1)
}

func (m *MockProductRepository) FindAvailable(ctx context.Context) ([]*models.Product, error) {
	args := m.Called(ctx)
	return products(args.Get(0)), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) GetCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProductRepository) CountByCategory(ctx context.Context, category string) (int64, error) {
	args := m.Called(ctx, category)
	return args.Get(0).(int64), args.Error(1)
}

func products(v interface{}) []*models.Product {
	if v == nil {
		return nil
	}
	return v.([]*models.Product)
}

var testNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newProductService(repo repositories.ProductRepository, clk clock.Clock) *services.ProductService {
	return services.NewProductService(
		repo,
		clk,
		tracenoop.NewTracerProvider().Tracer("test"),
		metricnoop.NewMeterProvider().Meter("test"),
		slog.New(slog.DiscardHandler),
	)
}

func stored(t *testing.T, clk clock.Clock, id int64, stock int) *models.Product {
	t.Helper()
	p, err := models.ReconstructProduct(clk, id, "Widget", decimal.RequireFromString("9.99"), stock, "Tools", 1, testNow, testNow)
	require.NoError(t, err)
	return p
}

func TestProductService_CreateProduct(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMockClock(testNow)
	input := services.CreateProductInput{Name: " Widget ", Price: decimal.RequireFromString("9.99"), Stock: 5, Category: "Tools"}

	t.Run("success", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := newProductService(mockRepo, clk)

		saved := stored(t, clk, 1, 5)
		mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(p *models.Product) bool {
			return p.IsNew() && p.Name() == "Widget" && p.CreatedAt().Equal(testNow)
		})).Return(saved, nil).Once()

		product, err := service.CreateProduct(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, int64(1), product.ID())
		mockRepo.AssertExpectations(t)
	})

	t.Run("validation error surfaces directly", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := newProductService(mockRepo, clk)

		bad := input
		bad.Price = decimal.NewFromInt(-1)
		_, err := service.CreateProduct(ctx, bad)
		require.Error(t, err)
		assert.True(t, models.IsValidationError(err))
		assert.False(t, models.IsOperationError(err))
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("storage failure is wrapped", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := newProductService(mockRepo, clk)

		cause := errors.New("disk full")
		mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*models.Product")).Return(nil, cause).Once()

		_, err := service.CreateProduct(ctx, input)
		var opErr *models.OperationError
		require.ErrorAs(t, err, &opErr)
		assert.Equal(t, models.OpCreate, opErr.Op)
		assert.ErrorIs(t, err, cause)
	})
}

func TestProductService_GetProduct(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMockClock(testNow)
	mockRepo := new(MockProductRepository)
	service := newProductService(mockRepo, clk)

	expected := stored(t, clk, 3, 5)
	mockRepo.On("FindByID", mock.Anything, int64(3)).Return(expected, nil).Once()
	product, err := service.GetProduct(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, expected, product)

	mockRepo.On("FindByID", mock.Anything, int64(99)).Return(nil, models.NewNotFoundError(99)).Once()
	_, err = service.GetProduct(ctx, 99)
	assert.True(t, models.IsNotFoundError(err))

	for _, id := range []int64{0, -4} {
		_, err = service.GetProduct(ctx, id)
		assert.True(t, models.IsNotFoundError(err))
	}
	mockRepo.AssertExpectations(t)
}

func TestProductService_ListProducts(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMockClock(testNow)
	minPrice := decimal.NewFromInt(10)
	maxPrice := decimal.NewFromInt(50)
	result := []*models.Product{stored(t, clk, 1, 5)}

	tests := []struct {
		name   string
		query  services.ListProductsQuery
		expect func(m *MockProductRepository)
	}{
		{
			name:  "defaults",
			query: services.ListProductsQuery{},
			expect: func(m *MockProductRepository) {
				m.On("FindAll", mock.Anything, 0, services.DefaultListLimit).Return(result, nil).Once()
			},
		},
		{
			name:  "negative skip and oversized limit are clamped",
			query: services.ListProductsQuery{Skip: -5, Limit: 5000},
			expect: func(m *MockProductRepository) {
				m.On("FindAll", mock.Anything, 0, services.MaxListLimit).Return(result, nil).Once()
			},
		},
		{
			name:  "category wins over other filters",
			query: services.ListProductsQuery{Category: "Tools", Available: true, MinPrice: &minPrice, MaxPrice: &maxPrice},
			expect: func(m *MockProductRepository) {
				m.On("FindByCategory", mock.Anything, "Tools").Return(result, nil).Once()
			},
		},
		{
			name:  "available wins over price range",
			query: services.ListProductsQuery{Available: true, MinPrice: &minPrice, MaxPrice: &maxPrice},
			expect: func(m *MockProductRepository) {
				m.On("FindAvailable", mock.Anything).Return(result, nil).Once()
			},
		},
		{
			name:  "price range",
			query: services.ListProductsQuery{MinPrice: &minPrice, MaxPrice: &maxPrice},
			expect: func(m *MockProductRepository) {
				m.On("FindByPriceRange", mock.Anything, minPrice, maxPrice).Return(result, nil).Once()
			},
		},
		{
			name:  "single price bound falls back to paging",
			query: services.ListProductsQuery{Skip: 2, Limit: 3, MinPrice: &minPrice},
			expect: func(m *MockProductRepository) {
				m.On("FindAll", mock.Anything, 2, 3).Return(result, nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockProductRepository)
			service := newProductService(mockRepo, clk)
			tt.expect(mockRepo)

			got, err := service.ListProducts(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, result, got)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestProductService_UpdateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("partial update goes through the entity", func(t *testing.T) {
		clk := clock.NewMockClock(testNow)
		repo := repositories.NewMemoryProductRepository(clk)
		service := newProductService(repo, clk)

		created, err := service.CreateProduct(ctx, services.CreateProductInput{
			Name: "Widget", Price: decimal.RequireFromString("9.99"), Stock: 5, Category: "Tools",
		})
		require.NoError(t, err)

		clk.Advance(time.Hour)
		name := "  Gadget "
		price := decimal.RequireFromString("12.00")
		updated, err := service.UpdateProduct(ctx, created.ID(), services.UpdateProductInput{Name: &name, Price: &price})
		require.NoError(t, err)
		assert.Equal(t, "Gadget", updated.Name())
		assert.Equal(t, "12.00", updated.Price().StringFixed(2))
		assert.Equal(t, 5, updated.Stock())
		assert.Equal(t, "Tools", updated.Category())
		assert.Equal(t, testNow.Add(time.Hour), updated.UpdatedAt())
		assert.Equal(t, testNow, updated.CreatedAt())
	})

	t.Run("invalid field is not persisted", func(t *testing.T) {
		clk := clock.NewMockClock(testNow)
		mockRepo := new(MockProductRepository)
		service := newProductService(mockRepo, clk)

		mockRepo.On("FindByID", mock.Anything, int64(1)).Return(stored(t, clk, 1, 5), nil).Once()
		stock := -3
		_, err := service.UpdateProduct(ctx, 1, services.UpdateProductInput{Stock: &stock})
		assert.True(t, models.IsValidationError(err))
		mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("missing product", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := newProductService(mockRepo, clock.NewMockClock(testNow))

		mockRepo.On("FindByID", mock.Anything, int64(8)).Return(nil, models.NewNotFoundError(8)).Once()
		_, err := service.UpdateProduct(ctx, 8, services.UpdateProductInput{})
		assert.True(t, models.IsNotFoundError(err))
	})

	t.Run("conflict passes through", func(t *testing.T) {
		clk := clock.NewMockClock(testNow)
		mockRepo := new(MockProductRepository)
		service := newProductService(mockRepo, clk)

		mockRepo.On("FindByID", mock.Anything, int64(1)).Return(stored(t, clk, 1, 5), nil).Once()
		mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*models.Product")).Return(nil, models.NewConflictError(1, 1)).Once()
		name := "Gadget"
		_, err := service.UpdateProduct(ctx, 1, services.UpdateProductInput{Name: &name})
		assert.True(t, models.IsConflictError(err))
		assert.False(t, models.IsOperationError(err))
	})

	t.Run("storage failure is wrapped", func(t *testing.T) {
		clk := clock.NewMockClock(testNow)
		mockRepo := new(MockProductRepository)
		service := newProductService(mockRepo, clk)

		mockRepo.On("FindByID", mock.Anything, int64(1)).Return(stored(t, clk, 1, 5), nil).Once()
		mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*models.Product")).Return(nil, errors.New("timeout")).Once()
		name := "Gadget"
		_, err := service.UpdateProduct(ctx, 1, services.UpdateProductInput{Name: &name})
		var opErr *models.OperationError
		require.ErrorAs(t, err, &opErr)
		assert.Equal(t, models.OpUpdate, opErr.Op)
	})
}

func TestProductService_DeleteProduct(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMockClock(testNow)

	t.Run("success", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := newProductService(mockRepo, clk)
		mockRepo.On("FindByID", mock.Anything, int64(1)).Return(stored(t, clk, 1, 5), nil).Once()
		mockRepo.On("Delete", mock.Anything, int64(1)).Return(true, nil).Once()

		assert.NoError(t, service.DeleteProduct(ctx, 1))
		mockRepo.AssertExpectations(t)
	})

	t.Run("missing product", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := newProductService(mockRepo, clk)
		mockRepo.On("FindByID", mock.Anything, int64(2)).Return(nil, models.NewNotFoundError(2)).Once()

		err := service.DeleteProduct(ctx, 2)
		assert.True(t, models.IsNotFoundError(err))
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("nothing deleted", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := newProductService(mockRepo, clk)
		mockRepo.On("FindByID", mock.Anything, int64(1)).Return(stored(t, clk, 1, 5), nil).Once()
		mockRepo.On("Delete", mock.Anything, int64(1)).Return(false, nil).Once()

		err := service.DeleteProduct(ctx, 1)
		var opErr *models.OperationError
		require.ErrorAs(t, err, &opErr)
		assert.Equal(t, models.OpDelete, opErr.Op)
	})

	t.Run("storage failure", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := newProductService(mockRepo, clk)
		cause := errors.New("locked")
		mockRepo.On("FindByID", mock.Anything, int64(1)).Return(stored(t, clk, 1, 5), nil).Once()
		mockRepo.On("Delete", mock.Anything, int64(1)).Return(false, cause).Once()

		err := service.DeleteProduct(ctx, 1)
		assert.True(t, models.IsOperationError(err))
		assert.ErrorIs(t, err, cause)
	})
}

func TestProductService_PurchaseAndRestock(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMockClock(testNow)
	repo := repositories.NewMemoryProductRepository(clk)
	service := newProductService(repo, clk)

	created, err := service.CreateProduct(ctx, services.CreateProductInput{
		Name: "Widget", Price: decimal.RequireFromString("9.99"), Stock: 5, Category: "Tools",
	})
	require.NoError(t, err)

	purchased, err := service.PurchaseProduct(ctx, created.ID(), 3)
	require.NoError(t, err)
	assert.Equal(t, 2, purchased.Stock())

	_, err = service.PurchaseProduct(ctx, created.ID(), 10)
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
	assert.ErrorIs(t, err, models.ErrInsufficientStock)

	current, err := service.GetProduct(ctx, created.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, current.Stock())

	_, err = service.RestockProduct(ctx, created.ID(), 0)
	assert.ErrorIs(t, err, models.ErrInvalidQuantity)

	restocked, err := service.RestockProduct(ctx, created.ID(), 20)
	require.NoError(t, err)
	assert.Equal(t, 22, restocked.Stock())
	assert.Equal(t, int64(3), restocked.Version())

	_, err = service.PurchaseProduct(ctx, 404, 1)
	assert.True(t, models.IsNotFoundError(err))
}

func TestProductService_Categories(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := newProductService(mockRepo, clock.NewMockClock(testNow))

	mockRepo.On("GetCategories", mock.Anything).Return([]string{"Books", "Tools"}, nil).Once()
	categories, err := service.GetCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Books", "Tools"}, categories)

	mockRepo.On("CountByCategory", mock.Anything, "Tools").Return(int64(4), nil).Once()
	count, err := service.CountByCategory(ctx, "Tools")
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	mockRepo.On("GetCategories", mock.Anything).Return(nil, errors.New("gone")).Once()
	_, err = service.GetCategories(ctx)
	assert.Error(t, err)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetLowStockProducts(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMockClock(testNow)
	mockRepo := new(MockProductRepository)
	service := newProductService(mockRepo, clk)

	low := []*models.Product{stored(t, clk, 1, 0)}
	mockRepo.On("FindLowStock", mock.Anything, 0).Return(low, nil).Once()
	got, err := service.GetLowStockProducts(ctx, -7)
	require.NoError(t, err)
	assert.Equal(t, low, got)

	mockRepo.On("FindLowStock", mock.Anything, models.DefaultLowStockThreshold).Return([]*models.Product{}, nil).Once()
	got, err = service.GetLowStockProducts(ctx, models.DefaultLowStockThreshold)
	require.NoError(t, err)
	assert.Empty(t, got)
	mockRepo.AssertExpectations(t)
}
