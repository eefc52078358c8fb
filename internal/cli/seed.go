package cli

import (
	"fmt"

	"catalog/internal/repositories"
	"catalog/internal/seed"
	"catalog/internal/services"
	"catalog/pkg/clock"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

const countFlag = "count"

func newSeedCommand() *cobra.Command {
	flags := configFlags()
	flags[countFlag] = &cobraflags.IntFlag{
		Name:  countFlag,
		Value: seed.DefaultCount,
		Usage: "Number of products to create",
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the catalog with sample products",
		Example: `  catalog seed
  catalog seed --count 50`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			count := flags[countFlag].GetInt()
			if count < 0 {
				return fmt.Errorf("count must not be negative, got %d", count)
			}

			rt, err := bootstrap(cmd.Context(), flags[configFlag].GetString(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close()

			// The products table must exist before seeding.
			if !rt.cfg.Database.AutoMigrate {
				if err := rt.migrate(); err != nil {
					return err
				}
			}

			clk := clock.NewRealClock()
			productService := services.NewProductService(
				repositories.NewGORMProductRepository(rt.db, clk),
				clk,
				rt.telemetry.Tracer(),
				rt.telemetry.Meter(),
				rt.logger,
			)

			created, err := seed.NewSeeder(productService, nil, rt.logger).Run(cmd.Context(), count)
			fmt.Fprintf(cmd.OutOrStdout(), "%d products created\n", created)
			return err
		},
	}
	cobraflags.RegisterMap(seedCmd, flags)
	return seedCmd
}
