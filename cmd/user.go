package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/franciscosanchezn/bonos-api/internal/models"
	"github.com/franciscosanchezn/bonos-api/internal/services"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
	Long:  "Create, list and promote marketplace users.",
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE:  runUserList,
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user",
	RunE:  runUserCreate,
}

var userSetRoleCmd = &cobra.Command{
	Use:   "set-role [email] [admin|user]",
	Short: "Change the role of a user",
	Args:  cobra.ExactArgs(2),
	RunE:  runUserSetRole,
}

var (
	userEmail    string
	userPassword string
	userName     string
	userLastName string
	userRole     string
)

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userSetRoleCmd)

	userCreateCmd.Flags().StringVarP(&userEmail, "email", "e", "", "User email (required)")
	userCreateCmd.Flags().StringVarP(&userPassword, "password", "p", "", "User password (required)")
	userCreateCmd.Flags().StringVar(&userName, "name", "Admin", "First name")
	userCreateCmd.Flags().StringVar(&userLastName, "last-name", "User", "Last name")
	userCreateCmd.Flags().StringVarP(&userRole, "role", "r", models.RoleUser, "User role (admin/user)")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")
}

func withUserService(fn func(ctx context.Context, users services.UserService) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db)
	return fn(context.Background(), services.NewUserService(db))
}

func runUserList(cmd *cobra.Command, args []string) error {
	return withUserService(func(ctx context.Context, users services.UserService) error {
		list, err := users.ListUsers(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tEMAIL\tROLE\tNAME\tCREATED")
		for _, u := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s %s\t%s\n",
				u.ID, u.Email, u.Role, u.Name, u.LastName, u.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	})
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	if userRole != models.RoleAdmin && userRole != models.RoleUser {
		return fmt.Errorf("invalid role: %s (must be admin or user)", userRole)
	}
	return withUserService(func(ctx context.Context, users services.UserService) error {
		// Signup applies the same validation as the public form, then the role is raised if asked
		user, err := services.NewAuthService(users).Signup(ctx, services.SignupInput{
			Name:     userName,
			LastName: userLastName,
			Email:    userEmail,
			Password: userPassword,
		})
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		if userRole != models.RoleUser {
			if user, err = users.SetRole(ctx, user.Email, userRole); err != nil {
				return err
			}
		}
		fmt.Printf("User created: %s (%s) id=%s\n", user.Email, user.Role, user.ID)
		return nil
	})
}

func runUserSetRole(cmd *cobra.Command, args []string) error {
	return withUserService(func(ctx context.Context, users services.UserService) error {
		user, err := users.SetRole(ctx, args[0], args[1])
		if err != nil {
			return fmt.Errorf("setting role: %w", err)
		}
		fmt.Printf("User %s is now %s\n", user.Email, user.Role)
		return nil
	})
}
