package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franciscosanchezn/bonos-api/internal/models"
)

func validSignup() SignupInput {
	return SignupInput{
		Name:     "Ana",
		LastName: "Perez",
		Email:    "Ana@Example.com ",
		Password: "secret1",
	}
}

func TestAuthService_SignupCreatesUserRole(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserService(db)
	svc := NewAuthService(users)
	ctx := context.Background()

	user, err := svc.Signup(ctx, validSignup())
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, models.DefaultIsland, user.Isla)
	assert.NotEqual(t, "secret1", user.Password)

	stored, err := users.GetUserByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.True(t, stored.CheckPassword("secret1"))
}

func TestAuthService_SignupConflict(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(NewUserService(db))
	ctx := context.Background()

	_, err := svc.Signup(ctx, validSignup())
	require.NoError(t, err)

	again := validSignup()
	again.Email = "ANA@example.com"
	_, err = svc.Signup(ctx, again)
	assert.ErrorIs(t, err, ErrConflict)

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAuthService_SignupValidation(t *testing.T) {
	svc := NewAuthService(NewUserService(setupTestDB(t)))

	tests := []struct {
		name   string
		mutate func(*SignupInput)
		field  string
	}{
		{"bad email", func(in *SignupInput) { in.Email = "nope" }, "email"},
		{"short password", func(in *SignupInput) { in.Password = "abc" }, "password"},
		{"missing name", func(in *SignupInput) { in.Name = "" }, "name"},
		{"unknown island", func(in *SignupInput) { in.Isla = "Mallorca" }, "isla"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validSignup()
			tt.mutate(&input)
			_, err := svc.Signup(context.Background(), input)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	db := setupTestDB(t)
	createUser(t, db, "user@example.com", models.RoleUser)
	svc := NewAuthService(NewUserService(db))
	ctx := context.Background()

	user, err := svc.Login(ctx, " USER@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)

	_, wrongPassword := svc.Login(ctx, "user@example.com", "wrong")
	_, unknownEmail := svc.Login(ctx, "nobody@example.com", "secret1")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}
