package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"
	"gorm.io/gorm"

	"github.com/franciscosanchezn/bonos-api/internal/config"
	"github.com/franciscosanchezn/bonos-api/internal/database"
)

var rootCmd = &cobra.Command{
	Use:   "bonos",
	Short: "Bonos offers marketplace",
	Long:  "Storefront, authentication and administration of discounted local offers.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loadDotenvFile()
		setUpLogger()
	},
	// Running the binary without a subcommand starts the server
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
	SilenceUsage: true,
}

// @title Bonos API
// @version 1.0
// @description Discounted local offers: public storefront, authentication and offer administration
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter. The level follows
// APP_ENV unless LOG_LEVEL names one explicitly.
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(config.LevelForEnv(config.GetEnvWithDefault("APP_ENV", "development")))
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		level, err := log.ParseLevel(raw)
		if err != nil {
			log.WithField("log_level", raw).Warn("Unknown LOG_LEVEL, keeping default")
			return
		}
		log.SetLevel(level)
	}
}

// loadConfig loads the application configuration from environment variables
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}

// openDatabase connects with the configured driver and brings the schema up to date
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.InitDatabase(database.DatabaseConfig{
		Driver:   cfg.DBDriver,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
		Path:     cfg.DBPath,
		LogLevel: cfg.LogLevel,
	})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// closeDatabase releases the pool; errors only matter for logging at exit
func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.WithError(err).Warn("Failed to close database")
		}
	}
}
