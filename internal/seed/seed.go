package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"catalog/internal/models"
	"catalog/internal/services"

	"github.com/shopspring/decimal"
)

// DefaultCount is the number of products created when no count is given.
const DefaultCount = 1000

// Categories assigned to sample products.
var Categories = []string{"Electronics", "Books", "Clothing", "Home", "Toys", "Sports", "Beauty", "Automotive"}

var (
	adjectives = []string{
		"Classic", "Compact", "Deluxe", "Eco", "Smart", "Ultra", "Vintage", "Rapid",
		"Silent", "Bright", "Urban", "Rugged", "Premium", "Mini", "Solar", "Nordic",
	}
	nouns = []string{
		"Lamp", "Backpack", "Speaker", "Notebook", "Jacket", "Kettle", "Drone", "Puzzle",
		"Racket", "Brush", "Charger", "Blender", "Helmet", "Novel", "Sneaker", "Wrench",
	}
)

// ProductCreator is the create use case the seeder drives.
type ProductCreator interface {
	CreateProduct(ctx context.Context, in services.CreateProductInput) (*models.Product, error)
}

// Seeder fills the catalog with randomly generated products.
type Seeder struct {
	creator ProductCreator
	rng     *rand.Rand
	logger  *slog.Logger
}

// NewSeeder creates a new Seeder. A nil rng uses a randomly seeded source.
func NewSeeder(creator ProductCreator, rng *rand.Rand, logger *slog.Logger) *Seeder {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Seeder{creator: creator, rng: rng, logger: logger}
}

// Run creates count products and returns how many were stored. Individual
// failures are logged and skipped; only context cancellation stops the run.
func (s *Seeder) Run(ctx context.Context, count int) (int, error) {
	created := 0
	for i := range count {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		if _, err := s.creator.CreateProduct(ctx, s.next()); err != nil {
			s.logger.WarnContext(ctx, "Failed to create sample product",
				slog.Int("index", i+1),
				slog.String("error", err.Error()),
			)
			continue
		}
		created++

		if (i+1)%100 == 0 {
			s.logger.InfoContext(ctx, "Seeding progress", slog.String("progress", fmt.Sprintf("%d/%d", i+1, count)))
		}
	}

	s.logger.InfoContext(ctx, "Seeding finished", slog.Int("requested", count), slog.Int("created", created))
	return created, nil
}

// next draws a product with a price between 5.00 and 500.00 and a stock
// between 0 and 100.
func (s *Seeder) next() services.CreateProductInput {
	cents := 500 + s.rng.Int64N(49501)
	return services.CreateProductInput{
		Name:     adjectives[s.rng.IntN(len(adjectives))] + " " + nouns[s.rng.IntN(len(nouns))],
		Price:    decimal.New(cents, -2),
		Stock:    s.rng.IntN(101),
		Category: Categories[s.rng.IntN(len(Categories))],
	}
}
