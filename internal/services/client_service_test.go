package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/franciscosanchezn/bonos-api/internal/models"
)

func TestClientService_CreateListDelete(t *testing.T) {
	db := setupTestDB(t)
	svc := NewClientService(db)
	ctx := context.Background()
	owner := createUser(t, db, "admin@example.com", models.RoleAdmin)
	other := createUser(t, db, "other@example.com", models.RoleAdmin)

	client, secret, err := svc.CreateClient(ctx, ClientInput{Name: "importer", Scopes: "offers:read"}, owner.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, client.ID)
	assert.NotEmpty(t, secret)
	assert.Equal(t, "client_credentials", client.GrantTypes)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(client.Secret), []byte(secret)), "only the hash is stored")

	clients, err := svc.GetClientsByUserID(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, client.ID, clients[0].ID)

	none, err := svc.GetClientsByUserID(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	// Only the owner can delete
	assert.ErrorIs(t, svc.DeleteClient(ctx, client.ID, other.ID), ErrNotFound)
	require.NoError(t, svc.DeleteClient(ctx, client.ID, owner.ID))

	_, err = svc.GetClientByID(ctx, client.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientService_DeleteRevokesTokens(t *testing.T) {
	db := setupTestDB(t)
	svc := NewClientService(db)
	ctx := context.Background()
	owner := createUser(t, db, "admin@example.com", models.RoleAdmin)

	doomed, _, err := svc.CreateClient(ctx, ClientInput{Name: "doomed"}, owner.ID)
	require.NoError(t, err)
	kept, _, err := svc.CreateClient(ctx, ClientInput{Name: "kept"}, owner.ID)
	require.NoError(t, err)

	expires := time.Now().Add(time.Hour)
	require.NoError(t, db.Create(&models.OAuthToken{ClientID: doomed.ID, AccessToken: "doomed-1", ExpiresAt: expires}).Error)
	require.NoError(t, db.Create(&models.OAuthToken{ClientID: doomed.ID, AccessToken: "doomed-2", ExpiresAt: expires}).Error)
	require.NoError(t, db.Create(&models.OAuthToken{ClientID: kept.ID, AccessToken: "kept-1", ExpiresAt: expires}).Error)

	require.NoError(t, svc.DeleteClient(ctx, doomed.ID, owner.ID))

	var remaining []models.OAuthToken
	require.NoError(t, db.Order("access_token").Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "kept-1", remaining[0].AccessToken)
}

func TestClientService_Scopes(t *testing.T) {
	svc := NewClientService(setupTestDB(t))
	ctx := context.Background()

	client, _, err := svc.CreateClient(ctx, ClientInput{Name: "reader"}, "owner")
	require.NoError(t, err)
	assert.Equal(t, models.ScopeOffersRead, client.Scopes, "no scopes means read only")

	client, _, err = svc.CreateClient(ctx, ClientInput{Name: "writer", Scopes: "  offers:read   offers:write "}, "owner")
	require.NoError(t, err)
	assert.Equal(t, "offers:read offers:write", client.Scopes)

	for _, scopes := range []string{"clients:manage", "offers:read admin", "offers:*"} {
		_, _, err = svc.CreateClient(ctx, ClientInput{Name: "bad", Scopes: scopes}, "owner")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, scopes)
		assert.Contains(t, verr.Fields, "scopes")
	}
}

func TestClientService_CreateValidation(t *testing.T) {
	svc := NewClientService(setupTestDB(t))

	_, _, err := svc.CreateClient(context.Background(), ClientInput{Name: ""}, "owner")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")

	_, _, err = svc.CreateClient(context.Background(), ClientInput{Name: "x", Domain: "not a url"}, "owner")
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "domain")
}
