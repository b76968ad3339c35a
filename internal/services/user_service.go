package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/franciscosanchezn/bonos-api/internal/models"
)

// UserService provides access to stored users
type UserService interface {
	// CreateUser persists a user whose password is already hashed
	CreateUser(ctx context.Context, user *models.User) error
	// GetUserByEmail looks a user up by exact email
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByID looks a user up by id
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// ListUsers returns every user ordered by creation time
	ListUsers(ctx context.Context) ([]models.User, error)
	// SetRole changes the role of the user with the given email
	SetRole(ctx context.Context, email, role string) (*models.User, error)
}

type userService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) UserService {
	return &userService{db: db}
}

func (s *userService) CreateUser(ctx context.Context, user *models.User) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return fmt.Errorf("checking email: %w", err)
	}
	if count > 0 {
		return ErrConflict
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		// Two signups racing past the count above still hit the unique index
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

func (s *userService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("finding user by email: %w", err)
	}
	return &user, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("finding user by id: %w", err)
	}
	return &user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

func (s *userService) SetRole(ctx context.Context, email, role string) (*models.User, error) {
	if role != models.RoleAdmin && role != models.RoleUser {
		return nil, invalidField("role", "must be one of admin, user")
	}
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("updating role: %w", err)
	}
	user.Role = role
	return user, nil
}
