package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/franciscosanchezn/bonos-api/internal/models"
	"github.com/franciscosanchezn/bonos-api/internal/services"
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Manage OAuth2 machine clients",
}

var clientCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a client_credentials client owned by an admin",
	RunE:  runClientCreate,
}

var (
	clientOwner  string
	clientName   string
	clientScopes string
)

func init() {
	rootCmd.AddCommand(clientCmd)
	clientCmd.AddCommand(clientCreateCmd)

	clientCreateCmd.Flags().StringVarP(&clientOwner, "email", "e", "", "Email of the owning admin (required)")
	clientCreateCmd.Flags().StringVarP(&clientName, "name", "n", "dev-client", "Client name")
	clientCreateCmd.Flags().StringVarP(&clientScopes, "scopes", "s", "offers:read offers:write", "Space separated scopes")
	_ = clientCreateCmd.MarkFlagRequired("email")
}

func runClientCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db)
	return createClient(context.Background(), db, clientOwner, services.ClientInput{Name: clientName, Scopes: clientScopes})
}

func createClient(ctx context.Context, db *gorm.DB, ownerEmail string, input services.ClientInput) error {
	owner, err := services.NewUserService(db).GetUserByEmail(ctx, ownerEmail)
	if err != nil {
		return fmt.Errorf("finding owner %s: %w", ownerEmail, err)
	}
	if owner.Role != models.RoleAdmin {
		return fmt.Errorf("owner %s is not an admin", ownerEmail)
	}

	client, secret, err := services.NewClientService(db).CreateClient(ctx, input, owner.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Client ID: %s\n", client.ID)
	fmt.Printf("Client Secret: %s\n", secret)
	fmt.Println("Store the secret now, it cannot be shown again.")
	return nil
}
