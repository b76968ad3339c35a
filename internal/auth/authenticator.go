package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-oauth2/oauth2/v4"

	"github.com/franciscosanchezn/bonos-api/internal/models"
)

var (
	// ErrNoSession means the request carried no credential at all
	ErrNoSession = errors.New("no session")
	// ErrInvalidSession means a credential was present but could not be trusted
	ErrInvalidSession = errors.New("invalid session")
)

// UserLookup loads the user a token refers to
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// IssuedTokens finds access tokens handed out by the token endpoint
type IssuedTokens interface {
	GetByAccess(ctx context.Context, access string) (oauth2.TokenInfo, error)
}

// Session is the verified identity attached to a request
type Session struct {
	UserID   string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	ClientID string `json:"client_id,omitempty"`
	// Scopes granted to a client token; login sessions carry none and are not scope limited
	Scopes []string `json:"scopes,omitempty"`
}

// IsAdmin reports whether the session may manage offers
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == models.RoleAdmin
}

// HasRole reports whether the session satisfies role. An empty role only
// requires the session to exist.
func (s *Session) HasRole(role string) bool {
	if s == nil {
		return false
	}
	return role == "" || s.Role == role
}

// HasScope reports whether the session may act within scope. Scopes only
// narrow client tokens.
func (s *Session) HasScope(scope string) bool {
	if s == nil {
		return false
	}
	if s.ClientID == "" || scope == "" {
		return true
	}
	for _, granted := range s.Scopes {
		if granted == scope {
			return true
		}
	}
	return false
}

// Authenticator turns a bearer or cookie token into a Session
type Authenticator struct {
	sessions *SessionManager
	users    UserLookup
	tokens   IssuedTokens
}

// NewAuthenticator builds an Authenticator. Client tokens are only accepted
// while tokens still holds them; a nil tokens rejects every client token.
func NewAuthenticator(sessions *SessionManager, users UserLookup, tokens IssuedTokens) *Authenticator {
	return &Authenticator{sessions: sessions, users: users, tokens: tokens}
}

// Resolve verifies token and reloads its user. The role always comes from the
// store, so a demoted admin loses access even with a token that says otherwise.
func (a *Authenticator) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	claims, err := a.sessions.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	var clientID string
	if len(claims.Audience) > 0 {
		clientID = claims.Audience[0]
		if err := a.checkIssued(ctx, token, clientID); err != nil {
			return nil, err
		}
	}

	user, err := a.users.GetUserByID(ctx, claims.UID)
	if err != nil {
		return nil, fmt.Errorf("%w: user %s: %v", ErrInvalidSession, claims.UID, err)
	}

	session := &Session{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	}
	if clientID != "" {
		session.ClientID = clientID
		session.Scopes = strings.Fields(claims.Scope)
	}
	return session, nil
}

// checkIssued rejects client tokens that were revoked or never stored
func (a *Authenticator) checkIssued(ctx context.Context, token, clientID string) error {
	if a.tokens == nil {
		return fmt.Errorf("%w: client tokens are not accepted", ErrInvalidSession)
	}
	info, err := a.tokens.GetByAccess(ctx, token)
	if err != nil {
		return fmt.Errorf("%w: token for client %s not found: %v", ErrInvalidSession, clientID, err)
	}
	if info.GetClientID() != clientID {
		return fmt.Errorf("%w: token issued to %s presented as %s", ErrInvalidSession, info.GetClientID(), clientID)
	}
	return nil
}
