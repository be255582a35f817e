package main

import (
	"fmt"
	"os"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "seed",
	Short:         "Seed the storefront database",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateFirst bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&migrateFirst, "migrate", false, "run schema migrations before seeding")

	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(productsCmd)
}

// bootDB loads config, sets up logging and opens the database
func bootDB() (*config.Config, *gorm.DB, error) {
	cfg := config.Read()

	logger.Initialize(logger.Config{
		Level:       "info",
		Format:      "console",
		EnableColor: true,
	})

	if err := db.Initialize(&cfg.Database); err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	conn := db.GetDB()
	if migrateFirst {
		if err := db.Migrate(conn); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return cfg, conn, nil
}
