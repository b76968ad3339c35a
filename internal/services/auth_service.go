package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/franciscosanchezn/bonos-api/internal/models"
	"github.com/franciscosanchezn/bonos-api/internal/validators"
)

// SignupInput is the profile a visitor submits to create an account
type SignupInput struct {
	Name       string `json:"name" validate:"required,min=2,max=255"`
	LastName   string `json:"lastName" validate:"required,min=2,max=255"`
	Email      string `json:"email" validate:"required,email,max=255"`
	Password   string `json:"password" validate:"required,min=6,max=72"`
	Newsletter bool   `json:"newsletter"`
	Isla       string `json:"isla" validate:"omitempty,isla"`
}

// AuthService verifies credentials and registers users
type AuthService interface {
	// Login returns the user matching email and password, or ErrInvalidCredentials
	Login(ctx context.Context, email, password string) (*models.User, error)
	// Signup validates the profile, hashes the password and stores a new user
	Signup(ctx context.Context, input SignupInput) (*models.User, error)
}

type authService struct {
	users UserService
}

func NewAuthService(users UserService) AuthService {
	return &authService{users: users}
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// timingHash is compared against when the email is unknown so that both
// failure paths pay for one bcrypt comparison.
func timingHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("bonos-timing-equaliser"), bcrypt.DefaultCost)
	})
	return dummyHash
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(timingHash(), []byte(password))
			log.WithField("reason", "unknown_email").Debug("Login rejected")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.CheckPassword(password) {
		log.WithFields(log.Fields{"reason": "wrong_password", "user_id": user.ID}).Debug("Login rejected")
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *authService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)
	input.LastName = strings.TrimSpace(input.LastName)
	if input.Isla == "" {
		input.Isla = models.DefaultIsland
	}

	if err := validators.Validate(input); err != nil {
		return nil, newValidationError(err)
	}

	user := &models.User{
		Role:       models.RoleUser,
		Name:       input.Name,
		LastName:   input.LastName,
		Email:      input.Email,
		Password:   input.Password,
		Newsletter: input.Newsletter,
		Isla:       input.Isla,
	}
	if err := user.HashPassword(); err != nil {
		return nil, err
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	log.WithField("user_id", user.ID).Info("User signed up")
	return user, nil
}
