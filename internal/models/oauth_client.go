package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Scopes a client token may carry
const (
	ScopeOffersRead  = "offers:read"
	ScopeOffersWrite = "offers:write"
	// ScopeClientsManage is never granted to machine clients; only login sessions hold it
	ScopeClientsManage = "clients:manage"
)

// OAuthScopes lists the scopes a client can be registered with
var OAuthScopes = []string{ScopeOffersRead, ScopeOffersWrite}

// IsOAuthScope reports whether scope is one of OAuthScopes
func IsOAuthScope(scope string) bool {
	for _, s := range OAuthScopes {
		if s == scope {
			return true
		}
	}
	return false
}

// OAuthClient is a machine client owned by an admin. It authenticates with the
// client_credentials grant and acts with its owner's identity.
type OAuthClient struct {
	ID          string         `gorm:"primaryKey" json:"client_id"`
	Secret      string         `gorm:"not null" json:"-"`
	Name        string         `gorm:"not null" json:"name"`
	Domain      string         `json:"domain"`
	UserID      string         `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Scopes      string         `json:"scopes"`      // Space-separated list of allowed scopes
	GrantTypes  string         `json:"grant_types"` // Space-separated list, only client_credentials is served
	RedirectURI string         `json:"redirect_uri"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (OAuthClient) TableName() string {
	return "oauth_clients"
}

// GetID implements oauth2.ClientInfo
func (c *OAuthClient) GetID() string { return c.ID }

// GetSecret implements oauth2.ClientInfo. The value is a bcrypt hash.
func (c *OAuthClient) GetSecret() string { return c.Secret }

// GetDomain implements oauth2.ClientInfo
func (c *OAuthClient) GetDomain() string { return c.Domain }

// IsPublic implements oauth2.ClientInfo
func (c *OAuthClient) IsPublic() bool { return false }

// GetUserID implements oauth2.ClientInfo
func (c *OAuthClient) GetUserID() string { return c.UserID }

// VerifyPassword implements oauth2.ClientPasswordVerifier against the bcrypt hash
func (c *OAuthClient) VerifyPassword(secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(c.Secret), []byte(secret)) == nil
}
