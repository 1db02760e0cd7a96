package model

import (
	"time"

	"github.com/golang-jwt/jwt"
)

type User struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	DisplayName   string     `json:"display_name"`
	Email         *string    `json:"email,omitempty"`
	Phone         *string    `json:"phone,omitempty"`
	GoogleID      *string    `json:"google_id,omitempty"`
	AvatarURL     *string    `json:"avatar_url,omitempty"`
	Bio           string     `json:"bio"`
	IsVerified    bool       `json:"is_verified"`
	IsAdmin       bool       `json:"is_admin"`
	CreditBalance int64      `json:"credit_balance"`
	IsActive      bool       `json:"is_active"`
	BannedAt      *time.Time `json:"banned_at,omitempty"`
	BanReason     *string    `json:"ban_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	LastActiveAt  time.Time  `json:"last_active_at"`
}

type UserClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.StandardClaims
}
