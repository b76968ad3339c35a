package models

import (
	"time"
)

// OAuthToken is an access token issued by the /oauth/token endpoint
type OAuthToken struct {
	ID           uint    `gorm:"primaryKey"`
	ClientID     string  `gorm:"not null;index"`
	UserID       *string // Owner of the client the token was issued to
	AccessToken  string  `gorm:"type:varchar(1024);uniqueIndex;not null"`
	RefreshToken *string `gorm:"type:varchar(1024)"`
	Scopes       string
	ExpiresAt    time.Time `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (OAuthToken) TableName() string {
	return "oauth_tokens"
}
