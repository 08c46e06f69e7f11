package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nidrive/nidrive/pkg/internal/model"
	"github.com/nidrive/nidrive/pkg/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "run database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := storage.Init(cmd.Context())
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
		defer func() { _ = manager.Close() }()

		dbc := manager.GetDBClient()
		if dbc == nil || dbc.GetDB() == nil {
			return fmt.Errorf("db not initialized")
		}

		if err := dbc.GetDB().AutoMigrate(
			&model.User{},
			&model.Folder{},
			&model.File{},
			&model.AccessToken{},
		); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "migration completed")

		return nil
	},
}

// registerMigrateCommands 注册迁移命令.
func registerMigrateCommands() {
	rootCmd.AddCommand(migrateCmd)
}
