package auth

import (
	"context"
	"strings"
	"time"

	"github.com/go-oauth2/oauth2/v4"
	"github.com/go-oauth2/oauth2/v4/errors"
	"github.com/go-oauth2/oauth2/v4/manage"
	"github.com/go-oauth2/oauth2/v4/server"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// OAuthService serves the client_credentials grant for machine clients
type OAuthService struct {
	server *server.Server
	db     *gorm.DB
}

func NewOAuthService(db *gorm.DB, sessions *SessionManager, users UserLookup, accessTTL time.Duration) *OAuthService {
	manager := manage.NewDefaultManager()
	manager.SetClientTokenCfg(&manage.Config{AccessTokenExp: accessTTL})

	// Same key and issuer as login sessions so one parser verifies both
	manager.MapAccessGenerate(NewCustomJWTAccessGenerate(sessions.secret, jwt.SigningMethodHS512, sessions.Issuer(), users))

	manager.MustTokenStorage(NewGormTokenStore(db), nil)
	manager.MapClientStorage(NewGormClientStore(db))

	srv := server.NewDefaultServer(manager)
	srv.SetAllowedGrantType(oauth2.ClientCredentials)
	srv.SetClientInfoHandler(server.ClientFormHandler)
	srv.SetClientScopeHandler(clientScopeHandler(db))
	srv.SetInternalErrorHandler(func(err error) *errors.Response {
		log.WithError(err).Error("OAuth2 internal error")
		return nil
	})
	srv.SetResponseErrorHandler(func(re *errors.Response) {
		log.WithField("error", re.Error).Warn("OAuth2 token request rejected")
	})

	return &OAuthService{
		server: srv,
		db:     db,
	}
}

func (o *OAuthService) GetServer() *server.Server {
	return o.server
}

// clientScopeHandler only lets a client request scopes it was registered with.
// A request without scope is granted every registered scope.
func clientScopeHandler(db *gorm.DB) server.ClientScopeHandler {
	store := NewGormClientStore(db)
	return func(tgr *oauth2.TokenGenerateRequest) (bool, error) {
		ctx := context.Background()
		if tgr.Request != nil {
			ctx = tgr.Request.Context()
		}
		client, err := store.find(ctx, tgr.ClientID)
		if err != nil {
			return false, err
		}
		if strings.TrimSpace(tgr.Scope) == "" {
			tgr.Scope = strings.Join(strings.Fields(client.Scopes), " ")
			return true, nil
		}
		allowed := map[string]bool{}
		for _, s := range strings.Fields(client.Scopes) {
			allowed[s] = true
		}
		for _, s := range strings.Fields(tgr.Scope) {
			if !allowed[s] {
				return false, nil
			}
		}
		return true, nil
	}
}
