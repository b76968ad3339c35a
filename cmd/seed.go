package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/franciscosanchezn/bonos-api/internal/database"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the demo accounts and offers",
	Long:  "Create the demo admin, the demo user and the demo offers. Existing data is left alone.",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db)

	if err := database.SeedDemoData(context.Background(), db); err != nil {
		return err
	}
	fmt.Printf("Demo admin: %s / %s\n", database.DemoAdminEmail, database.DemoAdminPassword)
	fmt.Printf("Demo user:  %s / %s\n", database.DemoUserEmail, database.DemoUserPassword)
	return nil
}
