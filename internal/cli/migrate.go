package cli

import (
	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	flags := configFlags()
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(cmd.Context(), flags[configFlag].GetString(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.close()

			// bootstrap already migrated when AUTO_MIGRATE is on.
			if rt.cfg.Database.AutoMigrate {
				return nil
			}
			return rt.migrate()
		},
	}
	cobraflags.RegisterMap(migrateCmd, flags)
	return migrateCmd
}
