package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type User struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"-"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
	Username    string         `json:"username" gorm:"size:32;uniqueIndex"`
	Email       string         `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	Password    string         `json:"-"`                        // bcrypt hash
	Region      string         `json:"region,omitempty" gorm:"size:64;index"`
	Trophies    int            `json:"trophies" gorm:"not null;default:0;index"`
	FCMToken    string         `json:"-"`
	FirebaseUID *string        `json:"-" gorm:"uniqueIndex"` // Link to Firebase User UID
}

// UserCompact is the public view of a user embedded in other payloads
type UserCompact struct {
	ID       uint   `json:"userId"`
	Username string `json:"username"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Username: u.Username}
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Region   string `json:"region,omitempty" validate:"omitempty,max=64"`
}

type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

// AuthResponse is returned by every endpoint that issues a token
type AuthResponse struct {
	Token    string `json:"token"`
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
}

type UpdateFCMTokenRequest struct {
	FCMToken string `json:"fcmToken" validate:"required"`
}

// LeaderboardEntry is one row of the trophy leaderboard
type LeaderboardEntry struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Region   string `json:"region,omitempty"`
	Trophies int    `json:"trophies"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// RevokedToken marks a token id as logged out until it would have expired anyway
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;size:64"`
	ExpiresAt time.Time `gorm:"index"`
}
