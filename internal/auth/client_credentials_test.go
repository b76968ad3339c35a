package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franciscosanchezn/bonos-api/internal/models"
	"github.com/franciscosanchezn/bonos-api/internal/services"
)

func tokenRouter(t *testing.T) (*gin.Engine, *SessionManager, *models.User) {
	db := setupTestDB(t)
	sessions := newTestSessions()
	oauthService := NewOAuthService(db, sessions, services.NewUserService(db), time.Hour)

	owner := createUser(t, db, "admin@example.com", models.RoleAdmin)
	createClient(t, db, "test_client_id", "test_secret", owner.ID, "offers:read offers:write")

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/oauth/token", oauthService.HandleToken)
	return router, sessions, owner
}

func postToken(router *gin.Engine, form string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/oauth/token", bytes.NewBufferString(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestClientCredentialsFlow(t *testing.T) {
	router, sessions, owner := tokenRouter(t)

	w := postToken(router, "grant_type=client_credentials&client_id=test_client_id&client_secret=test_secret&scope=offers:read")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Bearer", response["token_type"])

	accessToken, ok := response["access_token"].(string)
	require.True(t, ok)
	claims, err := sessions.Parse(accessToken)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, claims.UID)
}

func TestClientCredentialsInvalidSecret(t *testing.T) {
	router, _, _ := tokenRouter(t)

	w := postToken(router, "grant_type=client_credentials&client_id=test_client_id&client_secret=wrong_secret")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestClientCredentialsUnknownClient(t *testing.T) {
	router, _, _ := tokenRouter(t)

	w := postToken(router, "grant_type=client_credentials&client_id=nobody&client_secret=test_secret")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestClientCredentialsScopeOutsideRegistration(t *testing.T) {
	router, _, _ := tokenRouter(t)

	w := postToken(router, "grant_type=client_credentials&client_id=test_client_id&client_secret=test_secret&scope=users:admin")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClientCredentialsWithoutScopeGetsRegisteredScopes(t *testing.T) {
	router, sessions, _ := tokenRouter(t)

	w := postToken(router, "grant_type=client_credentials&client_id=test_client_id&client_secret=test_secret")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	accessToken, ok := response["access_token"].(string)
	require.True(t, ok)
	claims, err := sessions.Parse(accessToken)
	require.NoError(t, err)
	assert.Equal(t, "offers:read offers:write", claims.Scope)
}

func TestUnsupportedGrantType(t *testing.T) {
	router, _, _ := tokenRouter(t)

	w := postToken(router, "grant_type=password&client_id=test_client_id&client_secret=test_secret&username=a&password=b")
	assert.True(t, w.Code >= 400)
}
