// Package cli implements dealerctl, the operator tool for bulk inventory
// import, report export and staff account setup.
package cli

import (
	"fmt"
	"os"

	"github.com/ikkim/dealer-backend/config"
	"github.com/ikkim/dealer-backend/internal/app/repository"
	"github.com/ikkim/dealer-backend/internal/app/service"
	"github.com/ikkim/dealer-backend/internal/db"
	"github.com/ikkim/dealer-backend/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// app holds what the subcommands share once the database is open.
type app struct {
	cfg       *config.Config
	vehicles  service.VehicleService
	analytics service.AnalyticsService
	auth      service.AuthService
}

var current *app

var rootCmd = &cobra.Command{
	Use:          "dealerctl",
	Short:        "Operator tool for the dealership backend",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.Initialize(logger.Config{
			Level:       cfg.Server.LogLevel,
			Format:      "console",
			Output:      os.Stderr,
			EnableColor: true,
		})

		if err := db.Initialize(&cfg.Database); err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		current = newApp(cfg, db.GetDB())
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return db.Close()
	},
}

func newApp(cfg *config.Config, gormDB *gorm.DB) *app {
	vehicleRepo := repository.NewVehicleRepository(gormDB)
	customerRepo := repository.NewCustomerRepository(gormDB)
	saleRepo := repository.NewSaleRepository(gormDB)

	return &app{
		cfg:      cfg,
		vehicles: service.NewVehicleService(vehicleRepo, nil),
		analytics: service.NewAnalyticsService(saleRepo, vehicleRepo, customerRepo,
			service.WithProjectionConfig(cfg.Analytics.Projection),
		),
		auth: service.NewAuthService(
			repository.NewUserRepository(gormDB),
			nil,
			cfg.JWT.Secret,
			cfg.JWT.AccessTokenExpiry,
			cfg.JWT.RefreshTokenExpiry,
		),
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(vehiclesCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(usersCmd)
}
