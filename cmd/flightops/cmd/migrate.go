package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/route-network-api/pkg/config"
	"github.com/noah-isme/route-network-api/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		db, err := database.NewPostgres(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		version, err := database.Migrate(db.DB)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
