package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franciscosanchezn/bonos-api/internal/models"
)

func TestUserService_Lookups(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()
	created := createUser(t, db, "admin@example.com", models.RoleAdmin)

	byID, err := svc.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", byID.Email)

	byEmail, err := svc.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = svc.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetUserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_CreateDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db)
	createUser(t, db, "dup@example.com", models.RoleUser)

	err := svc.CreateUser(context.Background(), &models.User{Email: "dup@example.com", Name: "x", LastName: "y", Password: "hash"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUserService_SetRole(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()
	createUser(t, db, "user@example.com", models.RoleUser)

	promoted, err := svc.SetRole(ctx, "user@example.com", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	reloaded, err := svc.GetUserByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	assert.True(t, reloaded.IsAdmin())

	_, err = svc.SetRole(ctx, "user@example.com", "superuser")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "role")

	_, err = svc.SetRole(ctx, "missing@example.com", models.RoleUser)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_ListUsers(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db)
	createUser(t, db, "a@example.com", models.RoleAdmin)
	createUser(t, db, "b@example.com", models.RoleUser)

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
