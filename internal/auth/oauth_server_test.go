package auth

import (
	"context"
	"testing"
	"time"

	"github.com/go-oauth2/oauth2/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/franciscosanchezn/bonos-api/internal/models"
	"github.com/franciscosanchezn/bonos-api/internal/services"
)

const testSecret = "test-jwt-secret-key-32-characters"

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: gets its own database
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.User{}, &models.OAuthClient{}, &models.OAuthToken{})
	require.NoError(t, err)

	return db
}

func newTestSessions() *SessionManager {
	return NewSessionManager(testSecret, "bonos-test", time.Hour)
}

func createUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	user := &models.User{
		Email:    email,
		Name:     "Test",
		LastName: "User",
		Password: "secret1",
		Role:     role,
	}
	require.NoError(t, user.HashPassword())
	require.NoError(t, db.Create(user).Error)
	return user
}

func createClient(t *testing.T, db *gorm.DB, id, secret, ownerID, scopes string) *models.OAuthClient {
	hashedSecret, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)
	client := &models.OAuthClient{
		ID:         id,
		Secret:     string(hashedSecret),
		Name:       "integration",
		Domain:     "http://localhost",
		Scopes:     scopes,
		UserID:     ownerID,
		GrantTypes: "client_credentials",
	}
	require.NoError(t, db.Create(client).Error)
	return client
}

func TestOAuthServerInitialization(t *testing.T) {
	db := setupTestDB(t)

	oauthService := NewOAuthService(db, newTestSessions(), services.NewUserService(db), time.Hour)
	assert.NotNil(t, oauthService)
	assert.NotNil(t, oauthService.GetServer())
}

func TestJWTTokenGeneration(t *testing.T) {
	db := setupTestDB(t)
	sessions := newTestSessions()
	users := services.NewUserService(db)
	oauthService := NewOAuthService(db, sessions, users, time.Hour)

	owner := createUser(t, db, "owner@example.com", models.RoleAdmin)
	createClient(t, db, "test_client", "test_secret", owner.ID, "offers:read offers:write")

	tokenInfo, err := oauthService.GetServer().Manager.GenerateAccessToken(context.Background(), oauth2.ClientCredentials, &oauth2.TokenGenerateRequest{
		ClientID:     "test_client",
		ClientSecret: "test_secret",
		Scope:        "offers:read",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tokenInfo.GetAccess())

	// The access token is accepted by the same parser as login sessions
	claims, err := sessions.Parse(tokenInfo.GetAccess())
	require.NoError(t, err)
	assert.Equal(t, owner.ID, claims.UID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "offers:read", claims.Scope)
	assert.Equal(t, []string{"test_client"}, []string(claims.Audience))

	var stored models.OAuthToken
	require.NoError(t, db.Where("access_token = ?", tokenInfo.GetAccess()).First(&stored).Error)
	assert.Equal(t, "test_client", stored.ClientID)
}

func TestJWTTokenGenerationWithoutOwner(t *testing.T) {
	db := setupTestDB(t)
	oauthService := NewOAuthService(db, newTestSessions(), services.NewUserService(db), time.Hour)

	createClient(t, db, "orphan", "test_secret", "missing-user", "")

	_, err := oauthService.GetServer().Manager.GenerateAccessToken(context.Background(), oauth2.ClientCredentials, &oauth2.TokenGenerateRequest{
		ClientID:     "orphan",
		ClientSecret: "test_secret",
	})
	assert.Error(t, err)
}

func TestClientStoreIntegration(t *testing.T) {
	db := setupTestDB(t)
	createClient(t, db, "integration_test_client", "integration_test_secret", "owner", "")

	clientStore := NewGormClientStore(db)
	ctx := context.Background()

	retrievedClient, err := clientStore.GetByID(ctx, "integration_test_client")
	require.NoError(t, err)
	assert.Equal(t, "owner", retrievedClient.GetUserID())

	verifier, ok := retrievedClient.(oauth2.ClientPasswordVerifier)
	require.True(t, ok)
	assert.True(t, verifier.VerifyPassword("integration_test_secret"))
	assert.False(t, verifier.VerifyPassword("wrong"))

	_, err = clientStore.GetByID(ctx, "unknown")
	assert.Error(t, err)
}

func TestTokenStoreLifecycle(t *testing.T) {
	db := setupTestDB(t)
	store := NewGormTokenStore(db)
	ctx := context.Background()

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, db.Create(&models.OAuthToken{ClientID: "c", AccessToken: "old", ExpiresAt: past}).Error)
	require.NoError(t, db.Create(&models.OAuthToken{ClientID: "c", AccessToken: "fresh", ExpiresAt: time.Now().Add(time.Hour)}).Error)

	info, err := store.GetByAccess(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "c", info.GetClientID())
	assert.Empty(t, info.GetUserID())

	purged, err := store.PurgeExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = store.GetByAccess(ctx, "old")
	assert.Error(t, err)

	require.NoError(t, store.RemoveByAccess(ctx, "fresh"))
	_, err = store.GetByAccess(ctx, "fresh")
	assert.Error(t, err)

	_, err = store.GetByCode(ctx, "anything")
	assert.ErrorIs(t, err, ErrCodeGrantUnsupported)
}

func TestAuthenticatorClientTokens(t *testing.T) {
	db := setupTestDB(t)
	sessions := newTestSessions()
	users := services.NewUserService(db)
	oauthService := NewOAuthService(db, sessions, users, time.Hour)
	ctx := context.Background()

	owner := createUser(t, db, "owner@example.com", models.RoleAdmin)
	createClient(t, db, "reader", "test_secret", owner.ID, "offers:read")

	tokenInfo, err := oauthService.GetServer().Manager.GenerateAccessToken(ctx, oauth2.ClientCredentials, &oauth2.TokenGenerateRequest{
		ClientID:     "reader",
		ClientSecret: "test_secret",
		Scope:        "offers:read",
	})
	require.NoError(t, err)
	access := tokenInfo.GetAccess()

	t.Run("stored token carries its scopes", func(t *testing.T) {
		session, err := NewAuthenticator(sessions, users, NewGormTokenStore(db)).Resolve(ctx, access)
		require.NoError(t, err)
		assert.Equal(t, "reader", session.ClientID)
		assert.Equal(t, []string{models.ScopeOffersRead}, session.Scopes)
		assert.True(t, session.HasScope(models.ScopeOffersRead))
		assert.False(t, session.HasScope(models.ScopeOffersWrite))
		assert.False(t, session.HasScope(models.ScopeClientsManage))
	})

	t.Run("client tokens need a token store", func(t *testing.T) {
		_, err := NewAuthenticator(sessions, users, nil).Resolve(ctx, access)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("removed token is rejected", func(t *testing.T) {
		require.NoError(t, NewGormTokenStore(db).RemoveByAccess(ctx, access))
		_, err := NewAuthenticator(sessions, users, NewGormTokenStore(db)).Resolve(ctx, access)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})
}

func TestLoginSessionsAreNotScopeLimited(t *testing.T) {
	session := &Session{UserID: "u", Role: models.RoleAdmin}
	assert.True(t, session.HasScope(models.ScopeClientsManage))
	assert.False(t, (*Session)(nil).HasScope(models.ScopeOffersRead))
}
