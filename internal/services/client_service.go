package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/franciscosanchezn/bonos-api/internal/models"
	"github.com/franciscosanchezn/bonos-api/internal/validators"
)

// ClientInput describes a machine client an admin wants to register. Scopes is
// space separated; empty registers read-only access.
type ClientInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Domain      string `json:"domain" validate:"omitempty,url"`
	Scopes      string `json:"scopes" validate:"omitempty,oauth_scopes"`
	RedirectURI string `json:"redirect_uri" validate:"omitempty,url"`
}

// ClientService manages OAuth2 machine clients
type ClientService interface {
	// CreateClient registers a client for userID and returns it with the plaintext secret
	CreateClient(ctx context.Context, input ClientInput, userID string) (*models.OAuthClient, string, error)
	GetClientsByUserID(ctx context.Context, userID string) ([]models.OAuthClient, error)
	GetClientByID(ctx context.Context, id string) (*models.OAuthClient, error)
	DeleteClient(ctx context.Context, clientID, userID string) error
}

type clientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) ClientService {
	return &clientService{db: db}
}

func (s *clientService) CreateClient(ctx context.Context, input ClientInput, userID string) (*models.OAuthClient, string, error) {
	if err := validators.Validate(input); err != nil {
		return nil, "", newValidationError(err)
	}

	scopes := strings.Join(strings.Fields(input.Scopes), " ")
	if scopes == "" {
		scopes = models.ScopeOffersRead
	}

	secret := uuid.NewString()
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing client secret: %w", err)
	}

	client := &models.OAuthClient{
		ID:          uuid.NewString(),
		Secret:      string(hashed),
		Name:        input.Name,
		Domain:      input.Domain,
		UserID:      userID,
		Scopes:      scopes,
		GrantTypes:  "client_credentials",
		RedirectURI: input.RedirectURI,
	}
	if err := s.db.WithContext(ctx).Create(client).Error; err != nil {
		return nil, "", fmt.Errorf("creating client: %w", err)
	}
	return client, secret, nil
}

func (s *clientService) GetClientsByUserID(ctx context.Context, userID string) ([]models.OAuthClient, error) {
	clients := []models.OAuthClient{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	return clients, nil
}

func (s *clientService) GetClientByID(ctx context.Context, id string) (*models.OAuthClient, error) {
	var client models.OAuthClient
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("finding client: %w", err)
	}
	return &client, nil
}

// DeleteClient removes the client and revokes every token issued to it
func (s *clientService) DeleteClient(ctx context.Context, clientID, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", clientID, userID).Delete(&models.OAuthClient{})
		if result.Error != nil {
			return fmt.Errorf("deleting client: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("client_id = ?", clientID).Delete(&models.OAuthToken{}).Error; err != nil {
			return fmt.Errorf("revoking client tokens: %w", err)
		}
		return nil
	})
}
