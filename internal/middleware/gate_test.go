package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/franciscosanchezn/bonos-api/internal/auth"
	"github.com/franciscosanchezn/bonos-api/internal/models"
	"github.com/franciscosanchezn/bonos-api/internal/services"
)

type gateFixture struct {
	router   *gin.Engine
	sessions *auth.SessionManager
	admin    *models.User
	user     *models.User
	hits     int
}

func setupGate(t *testing.T) *gateFixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	f := &gateFixture{sessions: auth.NewSessionManager("middleware-test-secret-32-chars!!", "bonos-test", time.Hour)}
	f.admin = &models.User{Email: "admin@example.com", Name: "Ad", LastName: "Min", Password: "x", Role: models.RoleAdmin}
	f.user = &models.User{Email: "user@example.com", Name: "Us", LastName: "Er", Password: "x", Role: models.RoleUser}
	require.NoError(t, db.Create(f.admin).Error)
	require.NoError(t, db.Create(f.user).Error)

	gate := NewGate(auth.NewAuthenticator(f.sessions, services.NewUserService(db), nil), false)

	gin.SetMode(gin.TestMode)
	f.router = gin.New()
	handler := func(c *gin.Context) {
		f.hits++
		c.String(http.StatusOK, CurrentSession(c).UserID)
	}
	f.router.POST("/api/admin", gate.RequireAPI(models.RoleAdmin), handler)
	f.router.GET("/api/me", gate.RequireAPI(""), handler)
	f.router.GET("/admin", gate.RequirePage(models.RoleAdmin), handler)
	f.router.GET("/maybe", gate.OptionalSession(), func(c *gin.Context) {
		if s := CurrentSession(c); s != nil {
			c.String(http.StatusOK, s.Role)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	return f
}

func (f *gateFixture) token(t *testing.T, u *models.User) string {
	token, _, err := f.sessions.Issue(u)
	require.NoError(t, err)
	return token
}

func (f *gateFixture) do(method, path string, setup func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if setup != nil {
		setup(req)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func cookie(token string) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token}) }
}

func TestRequireAPI(t *testing.T) {
	f := setupGate(t)

	tests := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{"no credentials", nil, http.StatusUnauthorized},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", "Token abc") }, http.StatusUnauthorized},
		{"corrupt token", bearer("not-a-jwt"), http.StatusUnauthorized},
		{"user role", bearer(f.token(t, f.user)), http.StatusUnauthorized},
		{"admin bearer", bearer(f.token(t, f.admin)), http.StatusOK},
		{"admin cookie", cookie(f.token(t, f.admin)), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.hits
			w := f.do(http.MethodPost, "/api/admin", tt.setup)
			assert.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				assert.Equal(t, before, f.hits, "handler must not run")
				assert.Contains(t, w.Body.String(), models.ErrUnauthorized)
			}
		})
	}
}

func TestRequireAPIAnyRole(t *testing.T) {
	f := setupGate(t)

	w := f.do(http.MethodGet, "/api/me", bearer(f.token(t, f.user)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, f.user.ID, w.Body.String())

	w = f.do(http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequirePage(t *testing.T) {
	f := setupGate(t)

	t.Run("anonymous goes to login", func(t *testing.T) {
		w := f.do(http.MethodGet, "/admin", nil)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
		assert.Empty(t, w.Header().Get("Set-Cookie"))
	})

	t.Run("corrupt cookie is cleared", func(t *testing.T) {
		w := f.do(http.MethodGet, "/admin", cookie("garbage"))
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
		assert.Contains(t, w.Header().Get("Set-Cookie"), auth.SessionCookieName+"=;")
		assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")
	})

	t.Run("user goes home", func(t *testing.T) {
		w := f.do(http.MethodGet, "/admin", cookie(f.token(t, f.user)))
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})

	t.Run("admin allowed", func(t *testing.T) {
		w := f.do(http.MethodGet, "/admin", cookie(f.token(t, f.admin)))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestOptionalSession(t *testing.T) {
	f := setupGate(t)

	assert.Equal(t, "anonymous", f.do(http.MethodGet, "/maybe", nil).Body.String())
	assert.Equal(t, "anonymous", f.do(http.MethodGet, "/maybe", cookie("garbage")).Body.String())
	assert.Equal(t, models.RoleAdmin, f.do(http.MethodGet, "/maybe", cookie(f.token(t, f.admin))).Body.String())
}

func TestRequireScope(t *testing.T) {
	gate := &Gate{}
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		session *auth.Session
		status  int
	}{
		{"no session", nil, http.StatusUnauthorized},
		{"login session", &auth.Session{UserID: "u", Role: models.RoleAdmin}, http.StatusOK},
		{"client with scope", &auth.Session{UserID: "u", ClientID: "c", Scopes: []string{models.ScopeOffersRead, models.ScopeOffersWrite}}, http.StatusOK},
		{"client without scope", &auth.Session{UserID: "u", ClientID: "c", Scopes: []string{models.ScopeOffersRead}}, http.StatusUnauthorized},
		{"client with no scopes", &auth.Session{UserID: "u", ClientID: "c"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := 0
			router := gin.New()
			router.POST("/offers", func(c *gin.Context) {
				if tt.session != nil {
					c.Set(SessionKey, tt.session)
				}
				c.Next()
			}, gate.RequireScope(models.ScopeOffersWrite), func(c *gin.Context) {
				hits++
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/offers", nil))
			assert.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				assert.Zero(t, hits, "handler must not run")
				assert.Contains(t, w.Body.String(), models.ErrUnauthorized)
			}
		})
	}
}
