// Package main is the schema migration tool.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/config"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/store"
)

var databaseURL string

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the complaints database schema",
	Long: `Applies, rolls back or lists the embedded goose migrations.
The database is taken from --database-url, falling back to DATABASE_URL
(a .env file in the working directory is honoured).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if databaseURL == "" {
			databaseURL = config.Load().DatabaseURL
		}
		return nil
	},
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}

	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres connection string")
	rootCmd.AddCommand(
		migrationCmd("up", "Apply all pending migrations", store.MigrateUp),
		migrationCmd("down", "Roll back the most recent migration", store.MigrateDown),
		migrationCmd("status", "Show migration status", store.MigrationStatus),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func migrationCmd(use, short string, run func(context.Context, *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := store.OpenMigrationDB(databaseURL)
			if err != nil {
				return err
			}
			defer db.Close()
			return run(cmd.Context(), db)
		},
	}
}
