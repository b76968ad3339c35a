package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Islands a user can register from
var Islands = []string{"Tenerife", "Gran Canaria", "La Palma", "Lanzarote"}

// DefaultIsland is used when signup leaves the island empty
const DefaultIsland = "Tenerife"

type User struct {
	ID         string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Role       string         `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	Name       string         `gorm:"not null" json:"name"`
	LastName   string         `gorm:"not null" json:"lastName"`
	Email      string         `gorm:"uniqueIndex;not null" json:"email"`
	Password   string         `gorm:"not null" json:"-"`
	Newsletter bool           `gorm:"not null;default:false" json:"newsletter"`
	Isla       string         `gorm:"type:varchar(32);not null;default:'Tenerife'" json:"isla"`
	Avatar     *string        `json:"avatar"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a random UUID when the user has no id yet
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// IsAdmin reports whether the user may manage offers
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HashPassword replaces the plaintext password with its bcrypt hash
func (u *User) HashPassword() error {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword compares a plaintext password with the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}
